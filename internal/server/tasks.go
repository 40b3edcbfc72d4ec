package server

import (
	"errors"
	"net/http"

	"github.com/existflow/taskhub/internal/logger"
	"github.com/existflow/taskhub/internal/store"
	"github.com/labstack/echo/v4"
)

const msgTaskNotFound = "Task not found"

// handleListTasks serves the filtered, sorted, paged task listing
func (s *Server) handleListTasks(c echo.Context) error {
	q := store.ParseTaskQuery(c.QueryParams())
	page, err := s.store.ListTasks(c.Request().Context(), currentUserID(c), q)
	if err != nil {
		return internalError(c, "Error fetching tasks", err)
	}
	return success(c, http.StatusOK, "", page)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return failure(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx := c.Request().Context()
	userID := currentUserID(c)

	in, errs, err := s.validateCreate(ctx, userID, req)
	if err != nil {
		return internalError(c, "Error creating task", err)
	}
	if !errs.Empty() {
		return invalid(c, errs)
	}

	task, err := s.store.CreateTask(ctx, in)
	switch {
	case errors.Is(err, store.ErrDuplicateTitle):
		// lost a race with a concurrent create
		return invalid(c, ValidationErrors{"title": {msgTitleTaken}})
	case errors.Is(err, store.ErrTagNameTooLong):
		return invalid(c, ValidationErrors{"tags": {msgTagTooLong}})
	case err != nil:
		return internalError(c, "Error creating task", err)
	}

	logger.Info("Task created", logger.F("user_id", userID), logger.F("task_id", task.ID))
	return success(c, http.StatusCreated, "Task created successfully", task)
}

func (s *Server) handleGetTask(c echo.Context) error {
	id, valid := pathID(c)
	if !valid {
		return failure(c, http.StatusNotFound, msgTaskNotFound)
	}

	task, err := s.store.OwnedTask(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		if store.IsNotFound(err) {
			return failure(c, http.StatusNotFound, msgTaskNotFound)
		}
		return internalError(c, "Error fetching task", err)
	}
	return success(c, http.StatusOK, "", task)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	id, valid := pathID(c)
	if !valid {
		return failure(c, http.StatusNotFound, msgTaskNotFound)
	}

	ctx := c.Request().Context()
	userID := currentUserID(c)

	if _, err := s.store.OwnedTask(ctx, userID, id); err != nil {
		if store.IsNotFound(err) {
			return failure(c, http.StatusNotFound, msgTaskNotFound)
		}
		return internalError(c, "Error updating task", err)
	}

	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return failure(c, http.StatusBadRequest, "Invalid request body")
	}

	patch, errs, err := s.validateUpdate(ctx, userID, id, req)
	if err != nil {
		return internalError(c, "Error updating task", err)
	}
	if !errs.Empty() {
		return invalid(c, errs)
	}

	task, err := s.store.UpdateTask(ctx, id, patch)
	switch {
	case errors.Is(err, store.ErrDuplicateTitle):
		return invalid(c, ValidationErrors{"title": {msgTitleTaken}})
	case errors.Is(err, store.ErrTagNameTooLong):
		return invalid(c, ValidationErrors{"tags": {msgTagTooLong}})
	case store.IsNotFound(err):
		return failure(c, http.StatusNotFound, msgTaskNotFound)
	case err != nil:
		return internalError(c, "Error updating task", err)
	}

	return success(c, http.StatusOK, "Task updated successfully", task)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	id, valid := pathID(c)
	if !valid {
		return failure(c, http.StatusNotFound, msgTaskNotFound)
	}

	ctx := c.Request().Context()
	userID := currentUserID(c)

	if _, err := s.store.OwnedTask(ctx, userID, id); err != nil {
		if store.IsNotFound(err) {
			return failure(c, http.StatusNotFound, msgTaskNotFound)
		}
		return internalError(c, "Error deleting task", err)
	}

	deleted, err := s.store.DeleteTask(ctx, id)
	if err != nil {
		return internalError(c, "Error deleting task", err)
	}
	if !deleted {
		return failure(c, http.StatusNotFound, msgTaskNotFound)
	}

	logger.Info("Task deleted", logger.F("user_id", userID), logger.F("task_id", id))
	return success(c, http.StatusOK, "Task deleted successfully", nil)
}
