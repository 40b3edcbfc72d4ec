package server

import (
	"net/http"
	"unicode/utf8"

	"github.com/existflow/taskhub/internal/model"
	"github.com/existflow/taskhub/internal/store"
	"github.com/labstack/echo/v4"
)

const msgProjectNotFound = "Project not found"

type createProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type updateProjectRequest struct {
	Name        model.Optional[*string] `json:"name"`
	Description model.Optional[*string] `json:"description"`
}

func checkProjectName(errs ValidationErrors, name *string) string {
	n := trimmed(name)
	if n == nil {
		errs.Add("name", msgProjectNameReq)
		return ""
	}
	if utf8.RuneCountInString(*n) > 255 {
		errs.Add("name", msgProjectNameLong)
	}
	return *n
}

func (s *Server) handleListProjects(c echo.Context) error {
	projects, err := s.store.ListProjects(c.Request().Context(), currentUserID(c), c.QueryParam("search"))
	if err != nil {
		return internalError(c, "Error retrieving projects", err)
	}
	return success(c, http.StatusOK, "", projects)
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return failure(c, http.StatusBadRequest, "Invalid request body")
	}

	errs := ValidationErrors{}
	name := checkProjectName(errs, req.Name)
	if !errs.Empty() {
		return invalid(c, errs)
	}

	project, err := s.store.CreateProject(c.Request().Context(), currentUserID(c), name, trimmed(req.Description))
	if err != nil {
		return internalError(c, "Error creating project", err)
	}
	return success(c, http.StatusCreated, "Project created successfully", project)
}

func (s *Server) handleGetProject(c echo.Context) error {
	id, valid := pathID(c)
	if !valid {
		return failure(c, http.StatusNotFound, msgProjectNotFound)
	}

	project, err := s.store.OwnedProject(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		if store.IsNotFound(err) {
			return failure(c, http.StatusNotFound, msgProjectNotFound)
		}
		return internalError(c, "Error fetching project", err)
	}
	return success(c, http.StatusOK, "", project)
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	id, valid := pathID(c)
	if !valid {
		return failure(c, http.StatusNotFound, msgProjectNotFound)
	}

	ctx := c.Request().Context()
	if _, err := s.store.OwnedProject(ctx, currentUserID(c), id); err != nil {
		if store.IsNotFound(err) {
			return failure(c, http.StatusNotFound, msgProjectNotFound)
		}
		return internalError(c, "Error updating project", err)
	}

	var req updateProjectRequest
	if err := c.Bind(&req); err != nil {
		return failure(c, http.StatusBadRequest, "Invalid request body")
	}

	errs := ValidationErrors{}
	var patch model.ProjectPatch
	if req.Name.Set {
		patch.Name = model.Some(checkProjectName(errs, req.Name.Value))
	}
	if req.Description.Set {
		patch.Description = model.Some(trimmed(req.Description.Value))
	}
	if !errs.Empty() {
		return invalid(c, errs)
	}

	project, err := s.store.UpdateProject(ctx, id, patch)
	if err != nil {
		if store.IsNotFound(err) {
			return failure(c, http.StatusNotFound, msgProjectNotFound)
		}
		return internalError(c, "Error updating project", err)
	}
	return success(c, http.StatusOK, "Project updated successfully", project)
}

// handleDeleteProject removes a project; its tasks are kept without one
func (s *Server) handleDeleteProject(c echo.Context) error {
	id, valid := pathID(c)
	if !valid {
		return failure(c, http.StatusNotFound, msgProjectNotFound)
	}

	ctx := c.Request().Context()
	if _, err := s.store.OwnedProject(ctx, currentUserID(c), id); err != nil {
		if store.IsNotFound(err) {
			return failure(c, http.StatusNotFound, msgProjectNotFound)
		}
		return internalError(c, "Error deleting project", err)
	}

	if _, err := s.store.DeleteProject(ctx, id); err != nil {
		return internalError(c, "Error deleting project", err)
	}
	return success(c, http.StatusOK, "Project deleted successfully", nil)
}
