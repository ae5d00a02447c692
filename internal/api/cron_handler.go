package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const pingTimeout = 10 * time.Second

// CronHandler serves scheduler-triggered endpoints.
type CronHandler struct {
	secret    string
	healthURL string
	client    *http.Client
	logger    *zap.Logger
}

// NewCronHandler creates a new CronHandler.
func NewCronHandler(secret, healthURL string, logger *zap.Logger) *CronHandler {
	return &CronHandler{
		secret:    secret,
		healthURL: healthURL,
		client:    &http.Client{Timeout: pingTimeout},
		logger:    logger,
	}
}

func (h *CronHandler) authorized(c *gin.Context) bool {
	if h.secret == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(c.GetHeader("Authorization")), []byte("Bearer "+h.secret)) == 1 {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(c.Query("secret")), []byte(h.secret)) == 1
}

// PingBrain handles GET /api/cron/ping-brain. It keeps the AI backend warm; failures to reach it
// are reported in the body, not as an error status.
func (h *CronHandler) PingBrain(c *gin.Context) {
	if !h.authorized(c) {
		respondError(c, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized", nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	resp := PingResponse{}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.healthURL, nil)
	if err == nil {
		req.Header.Set("Cache-Control", "no-store")
		var res *http.Response
		res, err = h.client.Do(req)
		if err == nil {
			res.Body.Close()
			resp.Status = res.StatusCode
			resp.OK = res.StatusCode >= 200 && res.StatusCode < 300
		}
	}
	if err != nil {
		h.logger.Warn("Brain health ping failed", zap.String("url", h.healthURL), zap.Error(err))
	}
	c.JSON(http.StatusOK, resp)
}
