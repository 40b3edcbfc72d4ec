package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/existflow/taskhub/internal/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	userIDKey    = "user_id"
	sessionIDKey = "session_id"
)

// authMiddleware accepts a Bearer JWT whose session is still active
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		raw := strings.TrimPrefix(auth, "Bearer ")
		if auth == "" || raw == auth {
			return unauthenticated(c)
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			logger.Debug("Rejected token", logger.Err(err))
			return unauthenticated(c)
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || claims.ID == "" {
			return unauthenticated(c)
		}

		session, err := s.store.FindSession(c.Request().Context(), claims.ID)
		if err != nil || session.UserID != userID || !session.IsActive() {
			return unauthenticated(c)
		}

		c.Set(userIDKey, userID)
		c.Set(sessionIDKey, session.ID)
		return next(c)
	}
}

func unauthenticated(c echo.Context) error {
	return failure(c, http.StatusUnauthorized, "Unauthenticated")
}

// currentUserID returns the id set by authMiddleware
func currentUserID(c echo.Context) int64 {
	id, _ := c.Get(userIDKey).(int64)
	return id
}
