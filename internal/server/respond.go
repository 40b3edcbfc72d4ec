package server

import (
	"net/http"
	"strconv"

	"github.com/existflow/taskhub/internal/logger"
	"github.com/labstack/echo/v4"
)

type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Data    interface{}      `json:"data,omitempty"`
	Errors  ValidationErrors `json:"errors,omitempty"`
}

func success(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func failure(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Message: message})
}

func invalid(c echo.Context, errs ValidationErrors) error {
	return c.JSON(http.StatusUnprocessableEntity, envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  errs,
	})
}

// internalError logs err with request context and answers with a generic 500
func internalError(c echo.Context, message string, err error) error {
	logger.Error(message,
		logger.Err(err),
		logger.F("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		logger.F("user_id", c.Get(userIDKey)))
	return failure(c, http.StatusInternalServerError, message)
}

// pathID parses the :id route parameter. Non-numeric ids can never match a
// row, so they are reported as not found.
func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
