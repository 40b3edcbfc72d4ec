package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/existflow/taskhub/internal/logger"
	"github.com/existflow/taskhub/internal/model"
	"github.com/existflow/taskhub/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresAt   string   `json:"expires_at"`
	User        authUser `json:"user"`
}

// handleRegister handles user registration
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return failure(c, http.StatusBadRequest, "Invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	errs := ValidationErrors{}
	switch {
	case req.Name == "":
		errs.Add("name", "The name field is required.")
	case utf8.RuneCountInString(req.Name) > 255:
		errs.Add("name", "The name field must not be greater than 255 characters.")
	}
	if req.Email == "" {
		errs.Add("email", "The email field is required.")
	} else if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		errs.Add("email", "The email field must be a valid email address.")
	}
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		errs.Add("password", fmt.Sprintf("The password field must be at least %d characters.", MinPasswordLength))
	}
	if !errs.Empty() {
		return invalid(c, errs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return internalError(c, "Error registering user", err)
	}

	ctx := c.Request().Context()
	user, err := s.store.CreateUser(ctx, req.Name, req.Email, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return invalid(c, ValidationErrors{"email": {"The email has already been taken."}})
		}
		return internalError(c, "Error registering user", err)
	}

	resp, err := s.issueToken(c, user)
	if err != nil {
		return internalError(c, "Error registering user", err)
	}

	logger.Info("User registered", logger.F("user_id", user.ID))
	return c.JSON(http.StatusOK, resp)
}

// handleLogin exchanges credentials for an access token
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return failure(c, http.StatusBadRequest, "Invalid request body")
	}

	errs := ValidationErrors{}
	if strings.TrimSpace(req.Email) == "" {
		errs.Add("email", "The email field is required.")
	}
	if req.Password == "" {
		errs.Add("password", "The password field is required.")
	}
	if !errs.Empty() {
		return invalid(c, errs)
	}

	badCredentials := ValidationErrors{"email": {"The provided credentials are incorrect."}}

	ctx := c.Request().Context()
	user, err := s.store.FindUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return invalid(c, badCredentials)
	}
	if err != nil {
		return internalError(c, "Error logging in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("Failed login", logger.F("user_id", user.ID))
		return invalid(c, badCredentials)
	}

	resp, err := s.issueToken(c, user)
	if err != nil {
		return internalError(c, "Error logging in", err)
	}

	logger.Info("User logged in", logger.F("user_id", user.ID))
	return c.JSON(http.StatusOK, resp)
}

// handleLogout revokes the session behind the presented token
func (s *Server) handleLogout(c echo.Context) error {
	sessionID, _ := c.Get(sessionIDKey).(string)
	if err := s.store.RevokeSession(c.Request().Context(), sessionID); err != nil {
		return internalError(c, "Error logging out", err)
	}
	return success(c, http.StatusOK, "Logged out successfully", nil)
}

// handleUser returns the authenticated account
func (s *Server) handleUser(c echo.Context) error {
	user, err := s.store.FindUser(c.Request().Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failure(c, http.StatusUnauthorized, "Unauthenticated")
		}
		return internalError(c, "Error fetching user", err)
	}
	return c.JSON(http.StatusOK, user)
}

// issueToken opens a session and signs an access token bound to it
func (s *Server) issueToken(c echo.Context, user model.User) (authResponse, error) {
	session, err := s.store.CreateSession(c.Request().Context(), user.ID, s.ttl)
	if err != nil {
		return authResponse{}, err
	}

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ID:        session.ID,
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return authResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return authResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   session.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		User:        authUser{ID: user.ID, Name: user.Name, Email: user.Email},
	}, nil
}
