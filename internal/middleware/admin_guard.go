package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const loginPath = "/login"

// AdminGuard protects the admin pages. Without a session cookie it redirects to the login page
// without calling the verifier. With one it verifies exactly once: admins pass, everyone else
// (non-admins, invalid or revoked sessions, verifier errors) is redirected and the cookie cleared.
func AdminGuard(verifier SessionVerifier, cookieName string, secure bool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(cookieName)
		if err != nil || cookie == "" {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		ident, err := verifier.VerifySession(c.Request.Context(), cookie)
		if err != nil || ident == nil || !ident.IsAdmin {
			if err != nil {
				logger.Info("Admin guard rejected session", zap.Error(err))
			} else {
				logger.Info("Admin guard rejected non-admin")
			}
			ClearSessionCookie(c, cookieName, secure)
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		setIdentity(c, ident)
		c.Next()
	}
}

// SetSessionCookie writes the session cookie: HTTP-only, SameSite=Lax, path "/".
func SetSessionCookie(c *gin.Context, name, value string, maxAgeSeconds int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAgeSeconds, "/", "", secure, true)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context, name string, secure bool) {
	SetSessionCookie(c, name, "", -1, secure)
}
