package server

import (
	"net/http"

	"github.com/existflow/taskhub/internal/store"
	"github.com/labstack/echo/v4"
)

const msgTagNotFound = "Tag not found"

func (s *Server) handleListTags(c echo.Context) error {
	tags, err := s.store.ListTags(c.Request().Context(), currentUserID(c), c.QueryParam("search"))
	if err != nil {
		return internalError(c, "Failed to retrieve tags", err)
	}
	return success(c, http.StatusOK, "", tags)
}

func (s *Server) handleGetTag(c echo.Context) error {
	id, valid := pathID(c)
	if !valid {
		return failure(c, http.StatusNotFound, msgTagNotFound)
	}

	tag, err := s.store.OwnedTag(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		if store.IsNotFound(err) {
			return failure(c, http.StatusNotFound, msgTagNotFound)
		}
		return internalError(c, "Error fetching tag", err)
	}
	return success(c, http.StatusOK, "", tag)
}

// handleDeleteTag removes a tag from the user's catalogue and from every
// task carrying it
func (s *Server) handleDeleteTag(c echo.Context) error {
	id, valid := pathID(c)
	if !valid {
		return failure(c, http.StatusNotFound, msgTagNotFound)
	}

	ctx := c.Request().Context()
	if _, err := s.store.OwnedTag(ctx, currentUserID(c), id); err != nil {
		if store.IsNotFound(err) {
			return failure(c, http.StatusNotFound, msgTagNotFound)
		}
		return internalError(c, "Error deleting tag", err)
	}

	if _, err := s.store.DeleteTag(ctx, id); err != nil {
		return internalError(c, "Error deleting tag", err)
	}
	return success(c, http.StatusOK, "Tag deleted successfully", nil)
}
