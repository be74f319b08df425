package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
	"flowproject-backend-go/internal/models"
)

// CompanyHandler handles the super-admin company endpoints.
type CompanyHandler struct {
	companyService      core.CompanyService
	provisioningService core.ProvisioningService
	logger              *zap.Logger
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(cs core.CompanyService, ps core.ProvisioningService, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{companyService: cs, provisioningService: ps, logger: logger}
}

// CreateCompany handles POST /companies
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	var req models.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.provisioningService.CreateCompanyWithAdmin(c.Request.Context(), sess.UID, req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListCompanies handles GET /companies
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	companies, err := h.companyService.ListCompanies(c.Request.Context(), sess)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

// GetCompany handles GET /companies/:companyId
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	company, err := h.companyService.GetCompany(c.Request.Context(), sess, c.Param("companyId"))
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// SetCompanyActive handles PUT /companies/:companyId/active
func (h *CompanyHandler) SetCompanyActive(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	var req models.SetCompanyActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.companyService.SetCompanyActive(c.Request.Context(), sess, c.Param("companyId"), *req.Active); err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
