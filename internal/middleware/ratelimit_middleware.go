package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jyotai-backend/internal/ratelimit"
)

// TrustProxies limits which peers may set the client address through X-Forwarded-For and
// X-Real-IP. With no proxies configured the headers are ignored and c.ClientIP() is the
// connection address, so a client cannot pick its own rate-limit key.
func TrustProxies(router *gin.Engine, proxies []string) error {
	if len(proxies) == 0 {
		proxies = nil
	}
	return router.SetTrustedProxies(proxies)
}

// RateLimit admits at most the limiter's quota of requests per client IP for scope.
// Store failures are logged and the request is let through.
func RateLimit(limiter *ratelimit.Limiter, scope string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			logger.Error("Rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		if !decision.Allowed {
			retry := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "Too many requests, try again later", Code: "rate_limited"})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Next()
	}
}
