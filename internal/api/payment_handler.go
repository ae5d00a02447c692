package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jyotai-backend/internal/core"
	"jyotai-backend/internal/models"
)

// ReferralCookie holds the referral code captured from an invite link.
const ReferralCookie = "jyotai_referral"

// maxWebhookBody bounds the webhook body read; gateway payloads are a few KB.
const maxWebhookBody = 1 << 20

// PaymentHandler handles checkout and gateway webhook endpoints.
// keyID is the public Razorpay key echoed to the browser checkout.
type PaymentHandler struct {
	paymentService core.PaymentService
	keyID          string
	logger         *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ps core.PaymentService, keyID string, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: ps, keyID: keyID, logger: logger}
}

// mapPaymentErrorToStatus maps checkout and webhook failures. Webhook responses >= 500 make the
// gateway redeliver, so only storage and gateway faults land there.
func mapPaymentErrorToStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidSignature):
		return http.StatusBadRequest, CodeInvalidSignature
	case errors.Is(err, core.ErrInvalidEmail):
		return http.StatusBadRequest, CodeInvalidEmail
	case errors.Is(err, core.ErrInvalidPayload),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidPurpose):
		return http.StatusBadRequest, CodeInvalidPayload
	case errors.Is(err, core.ErrGateway):
		return http.StatusBadGateway, CodeGatewayError
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// CreateOrder handles POST /api/pay/create-order.
// Request body: email plus optional purpose, amount and reading context (name, dob, query).
// A referral code stored in the referral cookie is attached to the order notes.
// Responds with the gateway order and the public key. Rate limited per client IP.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidPayload, "Email is required", err)
		return
	}
	ref, _ := c.Cookie(ReferralCookie)

	order, err := h.paymentService.CreateOrder(c.Request.Context(), core.CreateOrderInput{
		Email:        req.Email,
		Purpose:      req.Purpose,
		Amount:       req.Amount,
		Name:         req.Name,
		DOB:          req.DOB,
		Query:        req.Query,
		ReferrerCode: ref,
	})
	if err != nil {
		status, code := mapPaymentErrorToStatus(err)
		if status == http.StatusBadGateway {
			h.logger.Error("Order creation failed at gateway", zap.Error(err))
		}
		respondError(c, status, code, "Failed to create order", err)
		return
	}
	c.JSON(http.StatusOK, CreateOrderResponse{Order: order, Key: h.keyID})
}

// Webhook handles POST /api/pay/webhook. The raw body is needed for signature verification,
// so it is read before any decoding. Responds 200 with the outcome (applied, duplicate or
// ignored) for every accepted delivery, including redeliveries.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidPayload, "Failed to read body", err)
		return
	}

	result, err := h.paymentService.HandleWebhook(
		c.Request.Context(),
		body,
		c.GetHeader("X-Razorpay-Signature"),
		c.GetHeader("X-Razorpay-Event-Id"),
	)
	if err != nil {
		status, code := mapPaymentErrorToStatus(err)
		if status >= http.StatusInternalServerError {
			// Non-2xx makes the gateway retry the delivery.
			h.logger.Error("Webhook processing failed", zap.Error(err))
		} else {
			h.logger.Warn("Webhook rejected", zap.String("code", code), zap.Error(err))
		}
		respondError(c, status, code, "Webhook rejected", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
