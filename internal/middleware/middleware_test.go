package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jyotai-backend/internal/core"
	"jyotai-backend/internal/ratelimit"
	"jyotai-backend/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func guardedRouter(verifier SessionVerifier) *gin.Engine {
	r := gin.New()
	admin := r.Group("/admin", AdminGuard(verifier, "session", true, zap.NewNop()))
	admin.GET("", func(c *gin.Context) { c.String(http.StatusOK, "dashboard for "+c.GetString(ContextUserID)) })
	admin.GET("/users", func(c *gin.Context) { c.String(http.StatusOK, "users") })
	return r
}

func TestAdminGuardWithoutCookieSkipsVerification(t *testing.T) {
	identity := testutil.NewIdentity()
	r := guardedRouter(identity)

	for _, path := range []string{"/admin", "/admin/users"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}
	assert.Zero(t, identity.VerifyCalls)
}

func TestAdminGuardDecisions(t *testing.T) {
	identity := testutil.NewIdentity()
	identity.AddSession("admin-cookie", core.Identity{UID: "boss", IsAdmin: true})
	identity.AddSession("user-cookie", core.Identity{UID: "pleb"})
	r := guardedRouter(identity)

	tests := []struct {
		name        string
		cookie      string
		wantStatus  int
		wantCleared bool
	}{
		{name: "admin passes", cookie: "admin-cookie", wantStatus: http.StatusOK},
		{name: "non-admin redirected", cookie: "user-cookie", wantStatus: http.StatusFound, wantCleared: true},
		{name: "invalid session redirected", cookie: "revoked", wantStatus: http.StatusFound, wantCleared: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := identity.VerifyCalls
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.AddCookie(&http.Cookie{Name: "session", Value: tt.cookie})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, before+1, identity.VerifyCalls, "exactly one verification per request")
			if tt.wantCleared {
				assert.Equal(t, "/login", w.Header().Get("Location"))
				assert.Contains(t, w.Header().Get("Set-Cookie"), "session=;")
				assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
			} else {
				assert.Equal(t, "dashboard for boss", w.Body.String())
			}
		})
	}
}

func TestAdminGuardWithRemoteVerifier(t *testing.T) {
	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotCookie = body["sessionCookie"]
		switch gotCookie {
		case "admin":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "uid": "boss", "isAdmin": true})
		case "user":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "uid": "u", "isAdmin": false})
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	r := guardedRouter(NewRemoteVerifier(srv.URL))
	for cookie, want := range map[string]int{"admin": http.StatusOK, "user": http.StatusFound, "bogus": http.StatusFound} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: cookie})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, want, w.Code, cookie)
		assert.Equal(t, cookie, gotCookie)
	}
}

func TestAdminGuardRemoteVerifierUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	r := guardedRouter(NewRemoteVerifier(url))
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "admin"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
}

func TestRequireSessionAndAdmin(t *testing.T) {
	identity := testutil.NewIdentity()
	identity.AddSession("admin", core.Identity{UID: "boss", IsAdmin: true})
	identity.AddSession("user", core.Identity{UID: "u1"})
	auth := NewAuthMiddleware(identity, "session", zap.NewNop())

	r := gin.New()
	r.GET("/me", auth.RequireSession(), func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextUserID)) })
	r.GET("/admin-only", auth.RequireSession(), auth.RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer user")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "user"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "admin"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func rateLimitedRouter(t *testing.T, proxies []string) *gin.Engine {
	t.Helper()
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), 5, time.Minute)
	r := gin.New()
	require.NoError(t, TrustProxies(r, proxies))
	r.POST("/send-link", RateLimit(limiter, "send-link", zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func sendFrom(r *gin.Engine, remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/send-link", strings.NewReader("{}"))
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitSixthRequestRejected(t *testing.T) {
	r := rateLimitedRouter(t, nil)

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, sendFrom(r, "203.0.113.7:4000", "").Code)
	}
	w := sendFrom(r, "203.0.113.7:4000", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limited")

	assert.Equal(t, http.StatusOK, sendFrom(r, "198.51.100.1:4000", "").Code)
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	r := rateLimitedRouter(t, nil)

	codes := make([]int, 0, 10)
	for i := 0; i < 10; i++ {
		codes = append(codes, sendFrom(r, "203.0.113.7:4000", fmt.Sprintf("10.0.0.%d", i)).Code)
	}
	assert.Equal(t, []int{200, 200, 200, 200, 200, 429, 429, 429, 429, 429}, codes)
}

func TestRateLimitUsesForwardedForFromTrustedProxy(t *testing.T) {
	r := rateLimitedRouter(t, []string{"10.0.0.0/8"})

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, sendFrom(r, "10.1.2.3:4000", "203.0.113.7").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, sendFrom(r, "10.1.2.3:4000", "203.0.113.7").Code)
	assert.Equal(t, http.StatusOK, sendFrom(r, "10.1.2.3:4000", "198.51.100.1").Code)
}

func TestTrustProxiesRejectsBadAddress(t *testing.T) {
	assert.Error(t, TrustProxies(gin.New(), []string{"not-an-ip"}))
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()), RecoveryMiddleware(zap.NewNop()))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom?secret=abc", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"internal"`)
}

func TestRedactQuery(t *testing.T) {
	assert.Equal(t, "secret=REDACTED", redactQuery("secret=abc"))
	assert.Equal(t, "page=2", redactQuery("page=2"))
}
