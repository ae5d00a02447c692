package models

import "time"

// Webhook outcomes recorded on the audit document.
const (
	WebhookOutcomeApplied          = "applied"
	WebhookOutcomeDuplicatePayment = "duplicate_payment"
	WebhookOutcomeIgnored          = "ignored"
)

// WebhookEvent is the audit and replay-guard record for a gateway notification.
type WebhookEvent struct {
	ID          string     `json:"id" firestore:"-"`
	Type        string     `json:"type" firestore:"type"`
	PaymentID   string     `json:"paymentId,omitempty" firestore:"paymentId,omitempty"`
	Processed   bool       `json:"processed" firestore:"processed"`
	Ignored     bool       `json:"ignored" firestore:"ignored"`
	Duplicate   bool       `json:"duplicate" firestore:"duplicate"`
	Outcome     string     `json:"outcome,omitempty" firestore:"outcome,omitempty"`
	ReceivedAt  time.Time  `json:"receivedAt" firestore:"receivedAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty" firestore:"processedAt,omitempty"`
}
