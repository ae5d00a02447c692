package core

import (
	"context"
	"time"

	"jyotai-backend/internal/models"
)

// Identity is a user as seen by the identity provider.
type Identity struct {
	UID     string
	Email   string
	Name    string
	IsAdmin bool
}

// IdentityProvider is the hosted authentication service (Firebase Auth in production).
// Verification methods wrap ErrUnauthorized when the credential is invalid, expired or revoked.
type IdentityProvider interface {
	// EnsureUser returns the user registered under email, creating a verified one when absent.
	EnsureUser(ctx context.Context, email, name string) (*Identity, error)
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
	CreateSession(ctx context.Context, idToken string, ttl time.Duration) (string, error)
	VerifySession(ctx context.Context, sessionCookie string) (*Identity, error)
	// SignInLink mints a one-time email sign-in link that lands on continueURL.
	SignInLink(ctx context.Context, email, continueURL string) (string, error)
	// GrantAdmin sets the admin claim on the user with email and revokes their refresh tokens.
	GrantAdmin(ctx context.Context, email string) (*Identity, error)
}

// OrderRequest is what the payment gateway needs to open an order. Amount is in the smallest
// currency unit (paise).
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order is a gateway order as returned to the browser checkout.
type Order struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Notes    map[string]string `json:"notes"`
}

// OrderGateway opens payment orders.
type OrderGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
}

// UserService defines the interface for user-profile operations.
type UserService interface {
	// GetOrCreate retrieves a user by ID. If the user doesn't exist, it creates a standard-plan
	// profile with no credits and a fresh referral code.
	GetOrCreate(ctx context.Context, userID, email, name string) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// CreateOrderInput carries a checkout request after HTTP decoding.
type CreateOrderInput struct {
	Email        string
	Purpose      string
	Amount       *int64
	Name         string
	DOB          string
	Query        string
	ReferrerCode string
}

// WebhookResult describes what a webhook delivery did.
type WebhookResult struct {
	Status    string `json:"status"`
	EventID   string `json:"eventId"`
	PaymentID string `json:"paymentId,omitempty"`
}

// Webhook result statuses.
const (
	WebhookStatusApplied   = "ok"
	WebhookStatusDuplicate = "duplicate"
	WebhookStatusIgnored   = "ignored"
)

// PaymentService defines checkout and payment reconciliation.
type PaymentService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error)
	// HandleWebhook verifies and applies one gateway delivery. eventID may be empty.
	HandleWebhook(ctx context.Context, body []byte, signature, eventID string) (*WebhookResult, error)
}

// SavePredictionResult is returned after a reading was stored.
type SavePredictionResult struct {
	PredictionID string `json:"predictionId"`
	Remaining    int    `json:"remaining"`
}

// PredictionView is a stored reading together with its owner.
type PredictionView struct {
	User       *models.User
	Prediction *models.Prediction
}

// PredictionService defines reading persistence and retrieval.
type PredictionService interface {
	// Save charges the user and stores the reading. callerUID is the session uid, or empty
	// for trusted server-to-server calls.
	Save(ctx context.Context, callerUID string, req models.SavePredictionRequest) (*SavePredictionResult, error)
	Get(ctx context.Context, userID, predictionID string) (*PredictionView, error)
	List(ctx context.Context, userID string) ([]*models.Prediction, error)
}

// AuthService defines session and sign-in operations.
type AuthService interface {
	// Login exchanges an ID token for a session cookie and makes sure a profile exists.
	Login(ctx context.Context, idToken string) (string, *models.User, error)
	VerifySession(ctx context.Context, sessionCookie string) (*Identity, error)
	SendMagicLink(ctx context.Context, email string) error
	GrantAdmin(ctx context.Context, email string) (*Identity, error)
	SessionTTL() time.Duration
}

// Admin user operations accepted by AdminService.ApplyOp.
const (
	AdminOpMakePremium  = "makePremium"
	AdminOpAddCredit    = "addCredit"
	AdminOpMakeStandard = "makeStandard"
)

// AdminService defines the dashboard's user management operations.
type AdminService interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	ApplyOp(ctx context.Context, userID, op string) (*models.User, error)
	AddCredits(ctx context.Context, userID string, delta int) error
	SetPlan(ctx context.Context, userID, plan string) error
}
