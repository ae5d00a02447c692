package api

import (
	"time"

	"jyotai-backend/internal/core"
	"jyotai-backend/internal/models"
)

// ErrorResponse is the JSON body of every error answer. Code is one of the stable taxonomy codes
// clients can switch on; Error is a human readable message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Error taxonomy codes.
const (
	CodeInvalidSignature = "invalid_signature"
	CodeInvalidPayload   = "invalid_payload"
	CodeInvalidEmail     = "invalid_email"
	CodeLimitExceeded    = "limit_exceeded"
	CodePlanExpired      = "plan_expired"
	CodeNotFound         = "not_found"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeRateLimited      = "rate_limited"
	CodeGatewayError     = "gateway_error"
	CodeInternal         = "internal"
)

// OKResponse is the minimal success body.
type OKResponse struct {
	OK bool `json:"ok"`
}

// SessionResponse describes a verified session.
type SessionResponse struct {
	OK      bool   `json:"ok"`
	UID     string `json:"uid"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

func newSessionResponse(ident *core.Identity) SessionResponse {
	return SessionResponse{OK: true, UID: ident.UID, Email: ident.Email, IsAdmin: ident.IsAdmin}
}

// LoginResponse is returned after a session cookie was issued.
type LoginResponse struct {
	OK   bool         `json:"ok"`
	User *models.User `json:"user"`
}

// CreateOrderResponse carries the order and the public key the browser checkout needs.
type CreateOrderResponse struct {
	Order *core.Order `json:"order"`
	Key   string      `json:"key"`
}

// SavePredictionResponse is returned by POST /api/on-prediction.
type SavePredictionResponse struct {
	Success      bool   `json:"success"`
	PredictionID string `json:"predictionId"`
	Remaining    int    `json:"remaining"`
}

// PredictionDetailResponse is returned by GET /api/predictions/:id.
type PredictionDetailResponse struct {
	ID         string               `json:"id"`
	User       PredictionOwner      `json:"user"`
	Prediction PredictionDetailBody `json:"prediction"`
}

// PredictionOwner is the public part of the reading's owner.
type PredictionOwner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PredictionDetailBody is the reading itself.
type PredictionDetailBody struct {
	Query     string    `json:"query"`
	Body      string    `json:"body"`
	DOB       string    `json:"dob"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileResponse is the caller's profile with the allowance left on their plan.
type ProfileResponse struct {
	*models.User
	Remaining int `json:"remaining"`
}

// AdminUserOpResponse is returned by POST /api/admin/users.
type AdminUserOpResponse struct {
	OK   bool         `json:"ok"`
	User *models.User `json:"user"`
}

// PingResponse reports the AI backend health check.
type PingResponse struct {
	OK     bool `json:"ok"`
	Status int  `json:"status"`
}
