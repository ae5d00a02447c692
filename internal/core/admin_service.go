package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jyotai-backend/internal/db"
	"jyotai-backend/internal/models"
)

const listUsersMax = 200

type adminService struct {
	users  db.UserRepository
	plans  PlanSettings
	logger *zap.Logger
	now    func() time.Time
}

// NewAdminService creates an AdminService.
func NewAdminService(users db.UserRepository, plans PlanSettings, logger *zap.Logger) AdminService {
	return &adminService{users: users, plans: plans, logger: logger, now: time.Now}
}

func (s *adminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx, listUsersMax)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *adminService) ApplyOp(ctx context.Context, userID, op string) (*models.User, error) {
	var err error
	switch op {
	case AdminOpMakePremium:
		err = s.SetPlan(ctx, userID, models.PlanPremium)
	case AdminOpMakeStandard:
		err = s.SetPlan(ctx, userID, models.PlanStandard)
	case AdminOpAddCredit:
		err = s.AddCredits(ctx, userID, 1)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	if err != nil {
		return nil, err
	}
	return s.getUser(ctx, userID)
}

func (s *adminService) AddCredits(ctx context.Context, userID string, delta int) error {
	if delta == 0 {
		return fmt.Errorf("%w: delta must not be zero", ErrInvalidPayload)
	}
	if _, err := s.getUser(ctx, userID); err != nil {
		return err
	}
	if err := s.users.IncrementCredits(ctx, userID, delta); err != nil {
		return s.mapNotFound(err, userID)
	}
	s.logger.Info("Admin credit adjustment", zap.String("uid", userID), zap.Int("delta", delta))
	return nil
}

func (s *adminService) SetPlan(ctx context.Context, userID, plan string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	var fields map[string]interface{}
	switch plan {
	case "", models.PlanStandard:
		plan = models.PlanStandard
	case models.PlanPremium:
		s.plans.activatePremium(user, s.now().UTC(), false)
		fields = map[string]interface{}{
			"quota":        user.Quota,
			"upgradedAt":   *user.UpgradedAt,
			"premiumUntil": *user.PremiumUntil,
		}
	default:
		return fmt.Errorf("%w: unknown plan %q", ErrInvalidPayload, plan)
	}

	if err := s.users.SetPlan(ctx, userID, plan, fields); err != nil {
		return s.mapNotFound(err, userID)
	}
	s.logger.Info("Admin plan change", zap.String("uid", userID), zap.String("plan", plan))
	return nil
}

func (s *adminService) getUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrInvalidPayload)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, s.mapNotFound(err, userID)
	}
	return user, nil
}

func (s *adminService) mapNotFound(err error, userID string) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
	}
	return err
}
