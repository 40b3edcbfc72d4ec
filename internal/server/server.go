// Package server is the HTTP boundary of taskhub: routing, authentication,
// request validation and the JSON envelope around store results.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/existflow/taskhub/internal/logger"
	"github.com/existflow/taskhub/internal/store"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Options configures a Server
type Options struct {
	Secret         []byte        // HS256 signing key
	TokenTTL       time.Duration // Access token and session lifetime
	AllowedOrigins []string      // CORS origins, empty allows all
	Now            func() time.Time
}

// Server is the taskhub REST API
type Server struct {
	store  *store.Store
	echo   *echo.Echo
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a server around st
func New(st *store.Store, opts Options) *Server {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 7 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		store:  st,
		secret: opts.Secret,
		ttl:    opts.TokenTTL,
		now:    opts.Now,
	}
	s.setupEcho(opts.AllowedOrigins)
	return s
}

func (s *Server) setupEcho(origins []string) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger)
	corsConfig := middleware.DefaultCORSConfig
	if len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	}
	e.Use(middleware.CORSWithConfig(corsConfig))

	e.GET("/health", s.handleHealth)

	api := e.Group("/api")

	// Auth endpoints (public)
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)

	// Protected endpoints
	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.POST("/logout", s.handleLogout)
	protected.GET("/user", s.handleUser)

	protected.GET("/dashboard", s.handleDashboard)

	protected.GET("/projects", s.handleListProjects)
	protected.POST("/projects", s.handleCreateProject)
	protected.GET("/projects/:id", s.handleGetProject)
	protected.PUT("/projects/:id", s.handleUpdateProject)
	protected.DELETE("/projects/:id", s.handleDeleteProject)

	protected.GET("/tags", s.handleListTags)
	protected.GET("/tags/:id", s.handleGetTag)
	protected.DELETE("/tags/:id", s.handleDeleteTag)

	protected.GET("/tasks", s.handleListTasks)
	protected.POST("/tasks", s.handleCreateTask)
	protected.GET("/tasks/:id", s.handleGetTask)
	protected.PUT("/tasks/:id", s.handleUpdateTask)
	protected.DELETE("/tasks/:id", s.handleDeleteTask)

	s.echo = e
}

// requestLogger writes one access log line per request
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			// let the error handler write the response before logging its status
			c.Error(err)
		}

		req := c.Request()
		res := c.Response()
		fields := []logger.Field{
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()),
			logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)),
		}
		if res.Status >= http.StatusInternalServerError {
			logger.Warn("HTTP Request", fields...)
		} else {
			logger.Info("HTTP Request", fields...)
		}
		return nil
	}
}

// handleError renders echo's own errors (bad routes, bind failures) in the
// API envelope
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
	} else {
		logger.Error("Unhandled error", logger.Err(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = failure(c, status, message)
	}
	if err != nil {
		logger.Error("Failed to write error response", logger.Err(err))
	}
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	logger.Info("Server starting", logger.F("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.store.DB().PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
