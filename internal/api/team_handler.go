package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
	"flowproject-backend-go/internal/models"
)

// TeamHandler handles /companies/:companyId/teams.
type TeamHandler struct {
	teamService core.TeamService
	logger      *zap.Logger
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(ts core.TeamService, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{teamService: ts, logger: logger}
}

// CreateTeam handles POST /companies/:companyId/teams
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	var req models.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	team, err := h.teamService.CreateTeam(c.Request.Context(), sess, req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

// ListTeams handles GET /companies/:companyId/teams
func (h *TeamHandler) ListTeams(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	teams, err := h.teamService.ListTeams(c.Request.Context(), sess)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

// UpdateTeam handles PATCH /companies/:companyId/teams/:teamId
func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	var req models.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	team, err := h.teamService.UpdateTeam(c.Request.Context(), sess, seqID(c, "teamId"), req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// DeleteTeam handles DELETE /companies/:companyId/teams/:teamId
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	if err := h.teamService.DeleteTeam(c.Request.Context(), sess, seqID(c, "teamId")); err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
