package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
)

// TenantMiddleware binds every request to a resolved session.
type TenantMiddleware struct {
	sessions core.SessionService
	logger   *zap.Logger
}

// NewTenantMiddleware creates a TenantMiddleware.
func NewTenantMiddleware(sessions core.SessionService, logger *zap.Logger) *TenantMiddleware {
	return &TenantMiddleware{sessions: sessions, logger: logger}
}

// ResolveSession must run after VerifyToken. Rejected sessions answer 401 with the reason in
// details, which tells the dashboard to sign the user out.
func (m *TenantMiddleware) ResolveSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString(ContextUserID)
		sess, err := m.sessions.Resolve(c.Request.Context(), uid)
		if err != nil {
			if reason := core.SessionRejectReason(err); reason != "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "Session rejected",
					Code:    string(core.CodeUnauthenticated),
					Details: reason,
				})
				return
			}
			m.logger.Error("Failed to resolve session", zap.String("uid", uid), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Error: "Failed to resolve session",
				Code:  string(core.CodeInternal),
			})
			return
		}
		c.Set(ContextSession, sess)
		c.Next()
	}
}

// RequireCompany rejects requests whose :companyId path parameter is not the caller's tenant.
// Super-admins have no tenant and are rejected as well.
func (m *TenantMiddleware) RequireCompany(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := SessionFrom(c)
		companyID := c.Param(param)
		if sess == nil || sess.Kind != core.SessionMember || sess.CompanyID != companyID {
			uid := ""
			if sess != nil {
				uid = sess.UID
			}
			m.logger.Warn("Cross-tenant request rejected", zap.String("uid", uid), zap.String("companyId", companyID))
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Error: "Access to this company is not allowed",
				Code:  string(core.CodePermissionDenied),
			})
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin rejects every session that is not an active platform super-admin.
func (m *TenantMiddleware) RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !SessionFrom(c).IsSuperAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Error: "Super-admin access required",
				Code:  string(core.CodePermissionDenied),
			})
			return
		}
		c.Next()
	}
}

// SessionFrom returns the session stored by ResolveSession, or nil.
func SessionFrom(c *gin.Context) *core.Session {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil
	}
	sess, _ := v.(*core.Session)
	return sess
}
