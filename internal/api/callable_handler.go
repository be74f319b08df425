package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
	"flowproject-backend-go/internal/middleware"
	"flowproject-backend-go/internal/models"
)

// callableRequest is the Firebase callable request envelope.
type callableRequest struct {
	Data json.RawMessage `json:"data"`
}

// CallableError is the error object of the callable response envelope.
type CallableError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type callableErrorEnvelope struct {
	Error CallableError `json:"error"`
}

type callableResultEnvelope struct {
	Result interface{} `json:"result"`
}

// CallableHandler serves the provisioning procedures with the callable wire format, so the
// dashboard's httpsCallable client keeps working unchanged.
type CallableHandler struct {
	auth         *middleware.AuthMiddleware
	provisioning core.ProvisioningService
	logger       *zap.Logger
}

// NewCallableHandler creates a new CallableHandler.
func NewCallableHandler(auth *middleware.AuthMiddleware, ps core.ProvisioningService, logger *zap.Logger) *CallableHandler {
	return &CallableHandler{auth: auth, provisioning: ps, logger: logger}
}

// CreateUserInTenant handles POST /callable/createUserInTenant
func (h *CallableHandler) CreateUserInTenant(c *gin.Context) {
	uid, ok := h.caller(c)
	if !ok {
		return
	}
	var req models.CreateUserRequest
	if !h.bindData(c, &req) {
		return
	}
	result, err := h.provisioning.CreateUserInTenant(c.Request.Context(), uid, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, callableResultEnvelope{Result: result})
}

// CreateCompanyWithAdmin handles POST /callable/createCompanyWithAdmin
func (h *CallableHandler) CreateCompanyWithAdmin(c *gin.Context) {
	uid, ok := h.caller(c)
	if !ok {
		return
	}
	var req models.CreateCompanyRequest
	if !h.bindData(c, &req) {
		return
	}
	result, err := h.provisioning.CreateCompanyWithAdmin(c.Request.Context(), uid, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, callableResultEnvelope{Result: result})
}

// caller verifies the ID token. A missing or invalid token is unauthenticated.
func (h *CallableHandler) caller(c *gin.Context) (string, bool) {
	token, err := h.auth.Authenticate(c)
	if err != nil {
		h.fail(c, core.ErrUnauthenticated)
		return "", false
	}
	return token.UID, true
}

// bindData decodes the data member of the envelope. Binding tags are not applied here;
// the services validate every field themselves.
func (h *CallableHandler) bindData(c *gin.Context, dst interface{}) bool {
	var env callableRequest
	if err := c.ShouldBindJSON(&env); err != nil || len(env.Data) == 0 {
		h.fail(c, core.ErrInvalidArgument)
		return false
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		h.fail(c, core.ErrInvalidArgument)
		return false
	}
	return true
}

func (h *CallableHandler) fail(c *gin.Context, err error) {
	code := core.CodeOf(err)
	msg := err.Error()
	if code == core.CodeInternal {
		h.logger.Error("Callable procedure failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		msg = "INTERNAL"
	}
	c.JSON(statusOf[code], callableErrorEnvelope{Error: CallableError{
		Status:  callableStatus(code),
		Code:    string(code),
		Message: msg,
	}})
}

// callableStatus converts "permission-denied" to "PERMISSION_DENIED".
func callableStatus(code core.Code) string {
	return strings.ToUpper(strings.ReplaceAll(string(code), "-", "_"))
}
