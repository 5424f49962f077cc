package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/uptask/project-system/internal/core/ports"
)

type ProjectHandler struct {
	projectService ports.ProjectService
}

func NewProjectHandler(projectService ports.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// Create registers a new project owned by the caller.
//
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      projectRequest  true  "Project details"
// @Success      201   {object}  domain.Project
// @Router       /api/projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	project, err := h.projectService.Create(c.Request().Context(), userID, ports.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Client:      req.Client,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, project)
}

// List returns every project the caller created or collaborates on.
//
// @Summary      List my projects
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Project
// @Router       /api/projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	projects, err := h.projectService.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// Get returns one project with its tasks and collaborator profiles.
//
// @Summary      Project detail
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Project id"
// @Success      200 {object}  projectDetailResponse
// @Router       /api/projects/{id} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	detail, err := h.projectService.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projectDetailResponse{
		Project:       detail.Project,
		Tasks:         detail.Tasks,
		Collaborators: detail.Collaborators,
	})
}

// Update applies a partial edit. Only the creator may edit.
//
// @Summary      Edit a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Project id"
// @Param        body  body      projectUpdateRequest  true  "Changed fields"
// @Success      200   {object}  domain.Project
// @Router       /api/projects/{id} [put]
func (h *ProjectHandler) Update(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req projectUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	project, err := h.projectService.Update(c.Request().Context(), userID, c.Param("id"), ports.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		Client:      req.Client,
		DueDate:     req.DueDate,
		Version:     req.Version,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// Delete removes a project and all of its tasks. Only the creator may
// delete.
//
// @Summary      Delete a project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Project id"
// @Success      200 {object}  messageResponse
// @Router       /api/projects/{id} [delete]
func (h *ProjectHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.projectService.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "project deleted"})
}

// FindCollaborator looks up a collaborator candidate by email.
//
// @Summary      Find a collaborator candidate
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      collaboratorEmailRequest  true  "Candidate email"
// @Success      200   {object}  ports.CollaboratorProfile
// @Router       /api/projects/collaborators [post]
func (h *ProjectHandler) FindCollaborator(c echo.Context) error {
	if _, err := ctxUserID(c); err != nil {
		return err
	}

	var req collaboratorEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	profile, err := h.projectService.FindCollaborator(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// AddCollaborator adds the user with the given email to the project.
//
// @Summary      Add a collaborator
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "Project id"
// @Param        body  body      collaboratorEmailRequest  true  "Collaborator email"
// @Success      200   {object}  messageResponse
// @Router       /api/projects/{id}/collaborators [post]
func (h *ProjectHandler) AddCollaborator(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req collaboratorEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if _, err := h.projectService.AddCollaborator(c.Request().Context(), userID, c.Param("id"), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "collaborator added"})
}

// RemoveCollaborator removes a user from the project's collaborator set.
// Removal is idempotent.
//
// @Summary      Remove a collaborator
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                     true  "Project id"
// @Param        body  body      removeCollaboratorRequest  true  "Collaborator user id"
// @Success      200   {object}  messageResponse
// @Router       /api/projects/{id}/collaborators/remove [post]
func (h *ProjectHandler) RemoveCollaborator(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req removeCollaboratorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.projectService.RemoveCollaborator(c.Request().Context(), userID, c.Param("id"), req.UserID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "collaborator removed"})
}
