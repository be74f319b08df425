package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
	"flowproject-backend-go/internal/models"
)

// UserHandler handles the tenant user endpoints under /companies/:companyId/users.
type UserHandler struct {
	userService         core.UserService
	provisioningService core.ProvisioningService
	logger              *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService, ps core.ProvisioningService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: us, provisioningService: ps, logger: logger}
}

// CreateUser handles POST /companies/:companyId/users. It runs the same procedure as the
// createUserInTenant callable.
func (h *UserHandler) CreateUser(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.CompanyID = c.Param("companyId")

	result, err := h.provisioningService.CreateUserInTenant(c.Request.Context(), sess.UID, req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListUsers handles GET /companies/:companyId/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	users, err := h.userService.ListUsers(c.Request.Context(), sess)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /companies/:companyId/users/:uid
func (h *UserHandler) GetUser(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	user, err := h.userService.GetUser(c.Request.Context(), sess, c.Param("uid"))
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser handles PATCH /companies/:companyId/users/:uid
func (h *UserHandler) UpdateUser(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.userService.UpdateUser(c.Request.Context(), sess, c.Param("uid"), req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetManagedTeams handles PUT /companies/:companyId/users/:uid/managed-teams
func (h *UserHandler) SetManagedTeams(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	var req models.SetManagedTeamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.userService.SetManagedTeams(c.Request.Context(), sess, c.Param("uid"), req.ManagedTeamIDs)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
