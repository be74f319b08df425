package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
	"flowproject-backend-go/internal/models"
)

// ProjectHandler handles /companies/:companyId/projects.
type ProjectHandler struct {
	projectService core.ProjectService
	logger         *zap.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(ps core.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projectService: ps, logger: logger}
}

// CreateProject handles POST /companies/:companyId/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	project, err := h.projectService.CreateProject(c.Request.Context(), sess, req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// ListProjects handles GET /companies/:companyId/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	projects, err := h.projectService.ListProjects(c.Request.Context(), sess)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// GetProject handles GET /companies/:companyId/projects/:projectId
func (h *ProjectHandler) GetProject(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	project, err := h.projectService.GetProject(c.Request.Context(), sess, seqID(c, "projectId"))
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// UpdateProject handles PATCH /companies/:companyId/projects/:projectId
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	project, err := h.projectService.UpdateProject(c.Request.Context(), sess, seqID(c, "projectId"), req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// DeleteProject handles DELETE /companies/:companyId/projects/:projectId
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	if err := h.projectService.DeleteProject(c.Request.Context(), sess, seqID(c, "projectId")); err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MoveProject handles PATCH /companies/:companyId/projects/:projectId/status
func (h *ProjectHandler) MoveProject(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	var req models.MoveProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	projectID := seqID(c, "projectId")
	written, err := h.projectService.MoveProject(c.Request.Context(), sess, projectID, req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MoveResponse{ProjectID: projectID, Written: written})
}
