package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the middlewares.
const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
	ContextSession   = "session"
)

// ErrorResponse mirrors api.ErrorResponse to avoid an import cycle.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

var (
	errMissingToken = errors.New("authorization header is required")
	errMalformed    = errors.New("authorization header format must be 'Bearer {token}'")
	errInvalidToken = errors.New("invalid or expired authentication token")
)

// TokenVerifier is implemented by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware verifies Firebase ID tokens.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil {
		panic("Firebase Auth client is not initialized for AuthMiddleware")
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// Authenticate verifies the bearer token of the request and returns the token.
// WebSocket upgrades may carry the token in the access_token query parameter, since browsers
// cannot set headers on them.
func (m *AuthMiddleware) Authenticate(c *gin.Context) (*auth.Token, error) {
	idToken, err := bearerToken(c)
	if err != nil {
		return nil, err
	}
	token, err := m.verifier.VerifyIDToken(c.Request.Context(), idToken)
	if err != nil {
		m.logger.Warn("Error verifying Firebase ID token", zap.String("path", c.Request.URL.Path), zap.Error(err))
		return nil, errInvalidToken
	}
	return token, nil
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if isWebSocketUpgrade(c.Request) {
			if t := c.Query("access_token"); t != "" {
				return t, nil
			}
		}
		return "", errMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errMalformed
	}
	return parts[1], nil
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// VerifyToken aborts with 401 unless the request carries a valid ID token, and stores the UID
// and email claim in the context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := m.Authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: "unauthenticated"})
			return
		}
		c.Set(ContextUserID, token.UID)
		if email, ok := token.Claims["email"].(string); ok {
			c.Set(ContextUserEmail, email)
		}
		c.Next()
	}
}
