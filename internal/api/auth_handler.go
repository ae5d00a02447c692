package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jyotai-backend/internal/core"
	"jyotai-backend/internal/middleware"
	"jyotai-backend/internal/models"
)

// AuthHandler handles session and sign-in endpoints. Sessions are Firebase session cookies
// minted from an ID token; the handler only moves them between header, body and cookie.
type AuthHandler struct {
	authService  core.AuthService
	cookieName   string
	secureCookie bool
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as core.AuthService, cookieName string, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: as, cookieName: cookieName, secureCookie: secureCookie, logger: logger}
}

// mapAuthErrorToStatus maps sign-in failures. Anything the identity provider rejects is a 401;
// provider and mailer outages are 500s.
func mapAuthErrorToStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidEmail):
		return http.StatusBadRequest, CodeInvalidEmail
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// Login handles POST /api/auth/login. The client sends the Firebase ID token as a bearer token
// and receives an HTTP-only session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		respondError(c, http.StatusUnauthorized, CodeUnauthorized, "Authorization header format must be 'Bearer {token}'", nil)
		return
	}

	cookie, user, err := h.authService.Login(c.Request.Context(), strings.TrimSpace(parts[1]))
	if err != nil {
		status, code := mapAuthErrorToStatus(err)
		respondError(c, status, code, "Login failed", err)
		return
	}

	middleware.SetSessionCookie(c, h.cookieName, cookie, int(h.authService.SessionTTL().Seconds()), h.secureCookie)
	c.JSON(http.StatusOK, LoginResponse{OK: true, User: user})
}

// Logout handles POST /api/auth/logout.
// It expires the session cookie; the Firebase session itself is left to time out.
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c, h.cookieName, h.secureCookie)
	c.JSON(http.StatusOK, OKResponse{OK: true})
}

// SendLink handles POST /api/auth/send-link.
// Request body: {"email": "..."} as JSON or form. Responds {"ok": true} once the sign-in
// email was handed to the mailer. Rate limited per client IP.
func (h *AuthHandler) SendLink(c *gin.Context) {
	var req models.SendLinkRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidEmail, "Invalid request body", err)
		return
	}
	if err := h.authService.SendMagicLink(c.Request.Context(), req.Email); err != nil {
		status, code := mapAuthErrorToStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Failed to send magic link", zap.Error(err))
		}
		respondError(c, status, code, "Failed to send sign-in link", err)
		return
	}
	c.JSON(http.StatusOK, OKResponse{OK: true})
}

// Verify handles POST /api/auth/verify. The session may come in the body as "sessionCookie",
// as the legacy "token" field, or as the session cookie itself. Body fields win over the cookie.
// Responds with the session's uid, email and admin flag, 400 when no session was supplied and
// 401 when it does not verify.
func (h *AuthHandler) Verify(c *gin.Context) {
	var req models.VerifySessionRequest
	// An empty body (including a chunked one with unknown length) falls through to the cookie.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, CodeInvalidPayload, "Invalid request body", err)
		return
	}
	token := req.SessionCookie
	if token == "" {
		token = req.Token
	}
	if token == "" {
		token, _ = c.Cookie(h.cookieName)
	}
	if token == "" {
		respondError(c, http.StatusBadRequest, CodeInvalidPayload, "No token provided", nil)
		return
	}

	ident, err := h.authService.VerifySession(c.Request.Context(), token)
	if err != nil {
		respondError(c, http.StatusUnauthorized, CodeUnauthorized, "Invalid or revoked session", nil)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(ident))
}
