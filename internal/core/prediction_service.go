package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"jyotai-backend/internal/crypto"
	"jyotai-backend/internal/db"
	"jyotai-backend/internal/mailer"
	"jyotai-backend/internal/models"
)

const (
	predictionIDPrefix = "pred_"
	listPredictionsMax = 50
)

// NotifySettings configures the emails sent by the services.
type NotifySettings struct {
	BaseURL      string
	SupportEmail string
}

type predictionService struct {
	predictions db.PredictionRepository
	users       db.UserRepository
	mail        mailer.Sender
	plans       PlanSettings
	notify      NotifySettings
	logger      *zap.Logger
	now         func() time.Time
}

// NewPredictionService creates a PredictionService.
func NewPredictionService(
	predictions db.PredictionRepository,
	users db.UserRepository,
	mail mailer.Sender,
	plans PlanSettings,
	notify NotifySettings,
	logger *zap.Logger,
) PredictionService {
	return &predictionService{
		predictions: predictions,
		users:       users,
		mail:        mail,
		plans:       plans,
		notify:      notify,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *predictionService) Save(ctx context.Context, callerUID string, req models.SavePredictionRequest) (*SavePredictionResult, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" || strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.Reading) == "" {
		return nil, fmt.Errorf("%w: userId, query and prediction are required", ErrInvalidPayload)
	}
	if callerUID != "" && callerUID != req.UserID {
		return nil, fmt.Errorf("%w: session does not own user '%s'", ErrForbidden, req.UserID)
	}

	suffix, err := crypto.RandomHex(12)
	if err != nil {
		return nil, err
	}
	prediction := &models.Prediction{
		ID:        predictionIDPrefix + suffix,
		UserID:    req.UserID,
		Query:     req.Query,
		Reading:   req.Reading,
		Name:      req.Name,
		DOB:       req.DOB,
		TOB:       req.TOB,
		Place:     req.Place,
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
	}

	now := s.now().UTC()
	prediction.CreatedAt = now
	user, err := s.predictions.CreateWithCharge(ctx, req.UserID, prediction, func(u *models.User) error {
		return s.plans.charge(u, now)
	})
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, req.UserID)
		case errors.Is(err, ErrLimitExceeded), errors.Is(err, ErrPlanExpired), errors.Is(err, ErrForbidden), errors.Is(err, ErrNoPlan):
			s.logger.Info("Prediction rejected", zap.String("uid", req.UserID), zap.Error(err))
			return nil, err
		default:
			return nil, fmt.Errorf("failed to save prediction for user '%s': %w", req.UserID, err)
		}
	}

	s.sendReadyEmail(ctx, user, prediction)

	return &SavePredictionResult{
		PredictionID: prediction.ID,
		Remaining:    user.Remaining(now),
	}, nil
}

// sendReadyEmail is best effort: the reading is already stored, so failures are only logged.
func (s *predictionService) sendReadyEmail(ctx context.Context, user *models.User, prediction *models.Prediction) {
	if s.mail == nil || user.Email == "" {
		return
	}
	name := prediction.Name
	if name == "" {
		name = user.Name
	}
	msg, err := mailer.PredictionReadyEmail(user.Email, name, s.notify.BaseURL, prediction.ID, s.notify.SupportEmail)
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		s.logger.Warn("Failed to send prediction email",
			zap.String("uid", user.ID),
			zap.String("prediction_id", prediction.ID),
			zap.Error(err),
		)
	}
}

func (s *predictionService) Get(ctx context.Context, userID, predictionID string) (*PredictionView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, userID)
		}
		return nil, err
	}
	prediction, err := s.predictions.GetByID(ctx, userID, predictionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrPredictionNotFound, predictionID)
		}
		return nil, err
	}
	return &PredictionView{User: user, Prediction: prediction}, nil
}

func (s *predictionService) List(ctx context.Context, userID string) ([]*models.Prediction, error) {
	predictions, err := s.predictions.ListByUser(ctx, userID, listPredictionsMax)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions for user '%s': %w", userID, err)
	}
	return predictions, nil
}
