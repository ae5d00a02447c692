package db

import (
	"context"

	"jyotai-backend/internal/models"
)

// UserRepository defines the interface for user data storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// List returns up to limit users ordered by createdAt, newest first.
	List(ctx context.Context, limit int) ([]*models.User, error)
	// IncrementCredits adds delta to the user's credits without a read.
	IncrementCredits(ctx context.Context, userID string, delta int) error
	// SetPlan writes plan together with any extra fields (quota, premiumUntil, ...).
	SetPlan(ctx context.Context, userID, plan string, fields map[string]interface{}) error
}

// CaptureMutation applies a captured payment to the buyer and, when one was found, the referrer.
// isNew is true when the buyer has no profile document yet.
type CaptureMutation func(buyer *models.User, isNew bool, referrer *models.User) error

// PaymentRepository stores captured payments.
type PaymentRepository interface {
	// ApplyCapture records payment and runs mutate atomically. applied is false when a payment
	// document with the same id already existed; nothing but the event record is written then.
	ApplyCapture(ctx context.Context, payment *models.Payment, event *models.WebhookEvent, mutate CaptureMutation) (applied bool, err error)
	GetByID(ctx context.Context, paymentID string) (*models.Payment, error)
}

// ChargeFunc decides whether user may receive one more prediction and mutates the user accordingly.
type ChargeFunc func(user *models.User) error

// PredictionRepository stores readings under users/{uid}/predictions.
type PredictionRepository interface {
	// CreateWithCharge charges the user and stores prediction in one transaction.
	// It returns the user as written.
	CreateWithCharge(ctx context.Context, userID string, prediction *models.Prediction, charge ChargeFunc) (*models.User, error)
	GetByID(ctx context.Context, userID, predictionID string) (*models.Prediction, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Prediction, error)
}

// WebhookEventRepository keeps the audit trail of gateway deliveries.
type WebhookEventRepository interface {
	// Begin creates the event record if it is absent and reports whether the event
	// was already processed by an earlier delivery.
	Begin(ctx context.Context, event *models.WebhookEvent) (alreadyProcessed bool, err error)
	MarkProcessed(ctx context.Context, eventID, outcome string) error
}
