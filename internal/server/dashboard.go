package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleDashboard(c echo.Context) error {
	summary, err := s.store.Summarize(c.Request().Context(), currentUserID(c))
	if err != nil {
		return internalError(c, "Failed to fetch dashboard statistics", err)
	}
	return success(c, http.StatusOK, "", summary)
}
