package models

import (
	"strings"
	"time"
)

// Purposes a buyer can pay for.
const (
	PurposeStandard = "standard"
	PurposePremium  = "premium"
)

// Payment statuses reported by the gateway.
const (
	PaymentStatusCaptured = "captured"
)

// Payment is written once per captured gateway payment and never modified.
// The document ID is the gateway payment id, which doubles as the idempotency key.
type Payment struct {
	ID           string    `json:"paymentId" firestore:"-"`
	OrderID      string    `json:"orderId,omitempty" firestore:"orderId,omitempty"`
	UserID       string    `json:"userId" firestore:"userId"`
	Email        string    `json:"email" firestore:"email"`
	Purpose      string    `json:"purpose" firestore:"purpose"`
	Amount       int64     `json:"amount" firestore:"amount"`
	Currency     string    `json:"currency,omitempty" firestore:"currency,omitempty"`
	Status       string    `json:"status" firestore:"status"`
	ReferrerCode string    `json:"referrerCode,omitempty" firestore:"referrerCode,omitempty"`
	EventID      string    `json:"eventId,omitempty" firestore:"eventId,omitempty"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt"`
}

// NormalizePurpose maps client and gateway-note spellings onto a known purpose.
// "upgrade" is what older checkout pages send for the premium plan.
func NormalizePurpose(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", PurposeStandard:
		return PurposeStandard, true
	case PurposePremium, "upgrade":
		return PurposePremium, true
	default:
		return "", false
	}
}
