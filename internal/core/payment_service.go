package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jyotai-backend/internal/crypto"
	"jyotai-backend/internal/db"
	"jyotai-backend/internal/models"
)

const eventPaymentCaptured = "payment.captured"

// Limits applied to free-text order notes.
const (
	maxNoteName  = 100
	maxNoteDOB   = 50
	maxNoteQuery = 500
)

// PaymentSettings configures order creation and webhook verification.
type PaymentSettings struct {
	Currency      string
	DefaultAmount int64
	MinAmount     int64
	WebhookSecret string
}

type paymentService struct {
	gateway  OrderGateway
	identity IdentityProvider
	payments db.PaymentRepository
	events   db.WebhookEventRepository
	plans    PlanSettings
	settings PaymentSettings
	logger   *zap.Logger
	now      func() time.Time
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(
	gateway OrderGateway,
	identity IdentityProvider,
	payments db.PaymentRepository,
	events db.WebhookEventRepository,
	plans PlanSettings,
	settings PaymentSettings,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		gateway:  gateway,
		identity: identity,
		payments: payments,
		events:   events,
		plans:    plans,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *paymentService) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	purpose, ok := models.NormalizePurpose(in.Purpose)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPurpose, in.Purpose)
	}
	amount := s.settings.DefaultAmount
	if in.Amount != nil {
		amount = *in.Amount
	}
	if amount < s.settings.MinAmount {
		return nil, fmt.Errorf("%w: %d is below the minimum of %d", ErrInvalidAmount, amount, s.settings.MinAmount)
	}

	notes := map[string]string{
		"email":   email,
		"purpose": purpose,
	}
	if ref := strings.TrimSpace(in.ReferrerCode); ref != "" {
		notes["ref"] = ref
	}
	if name := truncate(in.Name, maxNoteName); name != "" {
		notes["name"] = name
	}
	if dob := truncate(in.DOB, maxNoteDOB); dob != "" {
		notes["dob"] = dob
	}
	if query := truncate(in.Query, maxNoteQuery); query != "" {
		notes["query"] = query
	}

	order, err := s.gateway.CreateOrder(ctx, OrderRequest{
		Amount:   amount,
		Currency: s.settings.Currency,
		Receipt:  "rcpt_" + strconv.FormatInt(s.now().UnixMilli(), 10),
		Notes:    notes,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("purpose", purpose),
		zap.Int64("amount", order.Amount),
	)
	return order, nil
}

// webhookBody covers both the standard gateway envelope (payload.payment.entity) and the
// flat {entity: ...} shape some test tools send.
type webhookBody struct {
	ID      string         `json:"id"`
	Event   string         `json:"event"`
	Entity  *paymentEntity `json:"entity"`
	Payload struct {
		Payment struct {
			Entity *paymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type paymentEntity struct {
	ID       string          `json:"id"`
	OrderID  string          `json:"order_id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
	Email    string          `json:"email"`
	Notes    json.RawMessage `json:"notes"`
}

type paymentNotes struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
	Ref     string `json:"ref"`
}

// notes decodes the entity notes. The gateway sends an empty JSON array instead of an object
// when an order has no notes.
func (e *paymentEntity) notes() paymentNotes {
	var n paymentNotes
	if len(e.Notes) > 0 && e.Notes[0] == '{' {
		_ = json.Unmarshal(e.Notes, &n)
	}
	return n
}

func (s *paymentService) HandleWebhook(ctx context.Context, body []byte, signature, eventID string) (*WebhookResult, error) {
	if !crypto.VerifyWebhookSignature(body, signature, s.settings.WebhookSecret) {
		return nil, ErrInvalidSignature
	}

	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	entity := wb.Payload.Payment.Entity
	if entity == nil {
		entity = wb.Entity
	}
	if entity == nil {
		entity = &paymentEntity{}
	}

	if eventID == "" {
		eventID = wb.ID
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	event := &models.WebhookEvent{
		ID:         eventID,
		Type:       wb.Event,
		PaymentID:  entity.ID,
		ReceivedAt: s.now().UTC(),
	}
	alreadyProcessed, err := s.events.Begin(ctx, event)
	if err != nil {
		return nil, err
	}
	result := &WebhookResult{EventID: eventID, PaymentID: entity.ID}
	if alreadyProcessed {
		s.logger.Info("Duplicate webhook delivery skipped", zap.String("event_id", eventID))
		result.Status = WebhookStatusDuplicate
		return result, nil
	}

	if wb.Event != eventPaymentCaptured && entity.Status != models.PaymentStatusCaptured {
		if err := s.events.MarkProcessed(ctx, eventID, models.WebhookOutcomeIgnored); err != nil {
			return nil, err
		}
		s.logger.Info("Webhook event ignored", zap.String("event_id", eventID), zap.String("event", wb.Event))
		result.Status = WebhookStatusIgnored
		return result, nil
	}

	notes := entity.notes()
	email := entity.Email
	if email == "" {
		email = notes.Email
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: captured payment has no email", ErrInvalidPayload)
	}
	if entity.ID == "" {
		return nil, fmt.Errorf("%w: captured payment has no id", ErrInvalidPayload)
	}
	purpose, ok := models.NormalizePurpose(notes.Purpose)
	if !ok {
		s.logger.Warn("Unknown payment purpose, applying standard plan",
			zap.String("payment_id", entity.ID), zap.String("purpose", notes.Purpose))
		purpose = models.PurposeStandard
	}
	name := strings.TrimSpace(notes.Name)

	// A second event for a known payment id is settled without touching the identity provider.
	// ApplyCapture still guards the race where both deliveries get past this read.
	if _, err := s.payments.GetByID(ctx, entity.ID); err == nil {
		if err := s.events.MarkProcessed(ctx, eventID, models.WebhookOutcomeDuplicatePayment); err != nil {
			return nil, err
		}
		s.logger.Info("Payment already applied", zap.String("payment_id", entity.ID), zap.String("event_id", eventID))
		result.Status = WebhookStatusDuplicate
		return result, nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up payment '%s': %w", entity.ID, err)
	}

	ident, err := s.identity.EnsureUser(ctx, email, name)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure identity for payment '%s': %w", entity.ID, err)
	}

	payment := &models.Payment{
		ID:           entity.ID,
		OrderID:      entity.OrderID,
		UserID:       ident.UID,
		Email:        email,
		Purpose:      purpose,
		Amount:       entity.Amount,
		Currency:     entity.Currency,
		Status:       models.PaymentStatusCaptured,
		ReferrerCode: strings.TrimSpace(notes.Ref),
		EventID:      eventID,
	}

	now := s.now().UTC()
	var bonusTo string
	applied, err := s.payments.ApplyCapture(ctx, payment, event, func(buyer *models.User, isNew bool, referrer *models.User) error {
		bonusTo = ""
		return s.applyPurchase(buyer, isNew, referrer, payment, name, now, &bonusTo)
	})
	if err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			result.Status = WebhookStatusDuplicate
			return result, nil
		}
		return nil, fmt.Errorf("failed to apply payment '%s': %w", payment.ID, err)
	}
	if !applied {
		s.logger.Info("Payment already applied", zap.String("payment_id", payment.ID), zap.String("event_id", eventID))
		result.Status = WebhookStatusDuplicate
		return result, nil
	}

	s.logger.Info("Payment applied",
		zap.String("payment_id", payment.ID),
		zap.String("uid", ident.UID),
		zap.String("purpose", purpose),
	)
	if bonusTo != "" {
		s.logger.Info("Referral bonus granted", zap.String("referrer_uid", bonusTo), zap.String("code", payment.ReferrerCode))
	} else if payment.ReferrerCode != "" {
		s.logger.Warn("Referral code not applied", zap.String("code", payment.ReferrerCode))
	}
	result.Status = WebhookStatusApplied
	return result, nil
}

// applyPurchase mutates the buyer (and referrer) for one captured payment.
func (s *paymentService) applyPurchase(buyer *models.User, isNew bool, referrer *models.User, payment *models.Payment, name string, now time.Time, bonusTo *string) error {
	if buyer.Email == "" {
		buyer.Email = payment.Email
	}
	if buyer.Name == "" && name != "" {
		buyer.Name = name
	}
	if buyer.ReferralCode == "" {
		code, err := crypto.ReferralCode(buyer.ID)
		if err != nil {
			return err
		}
		buyer.ReferralCode = code
	}
	if isNew {
		buyer.CreatedAt = now
		if referrer != nil {
			buyer.ReferredBy = payment.ReferrerCode
		}
	}

	switch payment.Purpose {
	case models.PurposePremium:
		s.plans.activatePremium(buyer, now, true)
	default:
		// An active premium plan is kept; the credits are spent once it lapses.
		if buyer.Plan != models.PlanPremium || buyer.PremiumExpired(now) {
			buyer.Plan = models.PlanStandard
		}
		buyer.Credits += s.plans.StandardCredits
	}

	if referrer != nil {
		referrer.Credits += s.plans.ReferralBonusCredits
		*bonusTo = referrer.ID
	}
	return nil
}
