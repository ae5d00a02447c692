package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jyotai-backend/internal/core"
)

// ErrorResponse mirrors api.ErrorResponse to avoid an import cycle with internal/api.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Context keys set by the session middleware.
const (
	ContextUserID   = "userID"
	ContextEmail    = "userEmail"
	ContextIsAdmin  = "isAdmin"
	ContextIdentity = "identity"
)

// SessionVerifier checks a session cookie and returns who it belongs to.
type SessionVerifier interface {
	VerifySession(ctx context.Context, sessionCookie string) (*core.Identity, error)
}

// AuthMiddleware authenticates API requests with the session cookie or a bearer session token.
type AuthMiddleware struct {
	verifier   SessionVerifier
	cookieName string
	logger     *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(verifier SessionVerifier, cookieName string, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil {
		panic("AuthMiddleware requires a non-nil SessionVerifier")
	}
	return &AuthMiddleware{verifier: verifier, cookieName: cookieName, logger: logger}
}

// SessionToken extracts the session credential: the cookie first, then "Authorization: Bearer".
func SessionToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireSession rejects requests without a valid session with 401.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, m.cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required", Code: "unauthorized"})
			return
		}
		ident, err := m.verifier.VerifySession(c.Request.Context(), token)
		if err != nil {
			m.logger.Debug("Session verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired session", Code: "unauthorized"})
			return
		}
		setIdentity(c, ident)
		c.Next()
	}
}

// OptionalSession attaches the caller's identity when a valid session is present and never aborts.
func (m *AuthMiddleware) OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := SessionToken(c, m.cookieName); token != "" {
			if ident, err := m.verifier.VerifySession(c.Request.Context(), token); err == nil {
				setIdentity(c, ident)
			}
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireSession; it rejects non-admins with 403.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Admin access required", Code: "forbidden"})
			return
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, ident *core.Identity) {
	c.Set(ContextUserID, ident.UID)
	c.Set(ContextEmail, ident.Email)
	c.Set(ContextIsAdmin, ident.IsAdmin)
	c.Set(ContextIdentity, ident)
}

// IdentityFrom returns the identity attached by the session middleware, if any.
func IdentityFrom(c *gin.Context) (*core.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return nil, false
	}
	ident, ok := v.(*core.Identity)
	return ident, ok && ident != nil
}
