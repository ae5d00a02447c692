// Package testutil provides in-memory fakes of the repositories and external services for tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"jyotai-backend/internal/db"
	"jyotai-backend/internal/models"
)

// Store is an in-memory document store. Every repository it hands out shares one mutex, so
// multi-document operations are atomic the way Firestore transactions are.
type Store struct {
	mu          sync.Mutex
	users       map[string]*models.User
	payments    map[string]*models.Payment
	events      map[string]*models.WebhookEvent
	predictions map[string]map[string]*models.Prediction

	// Writes counts every mutating call that reached the store.
	Writes int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:       map[string]*models.User{},
		payments:    map[string]*models.Payment{},
		events:      map[string]*models.WebhookEvent{},
		predictions: map[string]map[string]*models.Prediction{},
	}
}

// Users returns a db.UserRepository view of the store.
func (s *Store) Users() db.UserRepository { return &userRepo{s} }

// Payments returns a db.PaymentRepository view of the store.
func (s *Store) Payments() db.PaymentRepository { return &paymentRepo{s} }

// Predictions returns a db.PredictionRepository view of the store.
func (s *Store) Predictions() db.PredictionRepository { return &predictionRepo{s} }

// Events returns a db.WebhookEventRepository view of the store.
func (s *Store) Events() db.WebhookEventRepository { return &eventRepo{s} }

// PutUser seeds a user.
func (s *Store) PutUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = copyUser(u)
}

// User returns a copy of the stored user, or nil.
func (s *Store) User(id string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return copyUser(u)
	}
	return nil
}

// PaymentCount returns the number of stored payments.
func (s *Store) PaymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

// Event returns a copy of the stored webhook event, or nil.
func (s *Store) Event(id string) *models.WebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[id]; ok {
		cp := *e
		return &cp
	}
	return nil
}

// PredictionCount returns the number of predictions stored for uid.
func (s *Store) PredictionCount(uid string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.predictions[uid])
}

func copyUser(u *models.User) *models.User {
	cp := *u
	if u.Quota != nil {
		q := *u.Quota
		cp.Quota = &q
	}
	if u.UpgradedAt != nil {
		t := *u.UpgradedAt
		cp.UpgradedAt = &t
	}
	if u.PremiumUntil != nil {
		t := *u.PremiumUntil
		cp.PremiumUntil = &t
	}
	return &cp
}

type userRepo struct{ s *Store }

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user '%s': %w", id, db.ErrNotFound)
	}
	return copyUser(u), nil
}

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; ok {
		return fmt.Errorf("user '%s': %w", u.ID, db.ErrAlreadyExists)
	}
	r.s.users[u.ID] = copyUser(u)
	r.s.Writes++
	return nil
}

func (r *userRepo) List(_ context.Context, limit int) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *userRepo) IncrementCredits(_ context.Context, id string, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user '%s': %w", id, db.ErrNotFound)
	}
	u.Credits += delta
	r.s.Writes++
	return nil
}

func (r *userRepo) SetPlan(_ context.Context, id, plan string, fields map[string]interface{}) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user '%s': %w", id, db.ErrNotFound)
	}
	u.Plan = plan
	for k, v := range fields {
		switch k {
		case "quota":
			if q, ok := v.(*models.MonthlyQuota); ok && q != nil {
				cp := *q
				u.Quota = &cp
			}
		case "upgradedAt":
			if t, ok := v.(time.Time); ok {
				u.UpgradedAt = &t
			}
		case "premiumUntil":
			if t, ok := v.(time.Time); ok {
				u.PremiumUntil = &t
			}
		}
	}
	r.s.Writes++
	return nil
}

type paymentRepo struct{ s *Store }

func (r *paymentRepo) ApplyCapture(_ context.Context, p *models.Payment, evt *models.WebhookEvent, mutate db.CaptureMutation) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	if _, exists := r.s.payments[p.ID]; exists {
		if evt != nil {
			if e, ok := r.s.events[evt.ID]; ok {
				e.Processed, e.Duplicate, e.Outcome = true, true, models.WebhookOutcomeDuplicatePayment
				e.ProcessedAt = &now
			}
		}
		return false, nil
	}

	buyer := &models.User{ID: p.UserID}
	isNew := true
	if u, ok := r.s.users[p.UserID]; ok {
		buyer, isNew = copyUser(u), false
	}
	var referrer *models.User
	if p.ReferrerCode != "" {
		for _, u := range r.s.users {
			if u.ReferralCode == p.ReferrerCode && u.ID != buyer.ID {
				referrer = copyUser(u)
				break
			}
		}
	}
	if err := mutate(buyer, isNew, referrer); err != nil {
		return false, err
	}

	stored := *p
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	r.s.payments[p.ID] = &stored
	r.s.users[buyer.ID] = copyUser(buyer)
	if referrer != nil {
		r.s.users[referrer.ID] = copyUser(referrer)
	}
	if evt != nil {
		if e, ok := r.s.events[evt.ID]; ok {
			e.Processed, e.Outcome = true, models.WebhookOutcomeApplied
			e.ProcessedAt = &now
		}
	}
	r.s.Writes++
	return true, nil
}

func (r *paymentRepo) GetByID(_ context.Context, id string) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment '%s': %w", id, db.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

type predictionRepo struct{ s *Store }

func (r *predictionRepo) CreateWithCharge(_ context.Context, uid string, p *models.Prediction, charge db.ChargeFunc) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[uid]
	if !ok {
		return nil, fmt.Errorf("user '%s': %w", uid, db.ErrNotFound)
	}
	working := copyUser(u)
	if err := charge(working); err != nil {
		return nil, err
	}
	if r.s.predictions[uid] == nil {
		r.s.predictions[uid] = map[string]*models.Prediction{}
	}
	stored := *p
	stored.UserID = uid
	r.s.predictions[uid][p.ID] = &stored
	r.s.users[uid] = copyUser(working)
	r.s.Writes++
	return working, nil
}

func (r *predictionRepo) GetByID(_ context.Context, uid, id string) (*models.Prediction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.predictions[uid][id]
	if !ok {
		return nil, fmt.Errorf("prediction '%s': %w", id, db.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *predictionRepo) ListByUser(_ context.Context, uid string, limit int) ([]*models.Prediction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Prediction, 0, len(r.s.predictions[uid]))
	for _, p := range r.s.predictions[uid] {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type eventRepo struct{ s *Store }

func (r *eventRepo) Begin(_ context.Context, evt *models.WebhookEvent) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e, ok := r.s.events[evt.ID]; ok {
		return e.Processed, nil
	}
	cp := *evt
	r.s.events[evt.ID] = &cp
	r.s.Writes++
	return false, nil
}

func (r *eventRepo) MarkProcessed(_ context.Context, id, outcome string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return fmt.Errorf("event '%s': %w", id, db.ErrNotFound)
	}
	now := time.Now().UTC()
	e.Processed, e.Outcome, e.ProcessedAt = true, outcome, &now
	e.Ignored = outcome == models.WebhookOutcomeIgnored
	e.Duplicate = outcome == models.WebhookOutcomeDuplicatePayment
	r.s.Writes++
	return nil
}
