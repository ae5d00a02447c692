package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"jyotai-backend/internal/models"
)

const predictionsCollection = "predictions"

type firestorePredictionRepository struct {
	client *firestore.Client
}

// NewFirestorePredictionRepository creates a PredictionRepository backed by Firestore.
func NewFirestorePredictionRepository(client *firestore.Client) PredictionRepository {
	return &firestorePredictionRepository{client: client}
}

func (r *firestorePredictionRepository) predictions(userID string) *firestore.CollectionRef {
	return r.client.Collection(usersCollection).Doc(userID).Collection(predictionsCollection)
}

// CreateWithCharge reads the user, lets charge decide and mutate, then writes the user and the
// prediction. When charge returns an error nothing is written.
func (r *firestorePredictionRepository) CreateWithCharge(ctx context.Context, userID string, prediction *models.Prediction, charge ChargeFunc) (*models.User, error) {
	if userID == "" || prediction == nil || prediction.ID == "" {
		return nil, errors.New("user ID and prediction ID are required for CreateWithCharge operation")
	}
	userRef := r.client.Collection(usersCollection).Doc(userID)
	predRef := r.predictions(userID).Doc(prediction.ID)

	var charged *models.User
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(userRef)
		if err != nil {
			return classify(err, fmt.Sprintf("failed to read user '%s'", userID))
		}
		user, err := decodeUser(snap)
		if err != nil {
			return err
		}
		if err := charge(user); err != nil {
			return err
		}

		now := time.Now().UTC()
		user.UpdatedAt = now
		if prediction.CreatedAt.IsZero() {
			prediction.CreatedAt = now
		}
		if err := tx.Set(userRef, user); err != nil {
			return fmt.Errorf("failed to write user '%s': %w", userID, err)
		}
		if err := tx.Create(predRef, prediction); err != nil {
			return fmt.Errorf("failed to create prediction '%s': %w", prediction.ID, err)
		}
		charged = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	prediction.UserID = userID
	return charged, nil
}

func (r *firestorePredictionRepository) GetByID(ctx context.Context, userID, predictionID string) (*models.Prediction, error) {
	if userID == "" || predictionID == "" {
		return nil, errors.New("user ID and prediction ID are required for GetByID operation")
	}
	doc, err := r.predictions(userID).Doc(predictionID).Get(ctx)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("failed to get prediction '%s'", predictionID))
	}
	return decodePrediction(doc, userID)
}

func (r *firestorePredictionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Prediction, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty for ListByUser operation")
	}
	query := r.predictions(userID).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []*models.Prediction
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate predictions for user '%s': %w", userID, err)
		}
		p, err := decodePrediction(doc, userID)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func decodePrediction(doc *firestore.DocumentSnapshot, userID string) (*models.Prediction, error) {
	var p models.Prediction
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode prediction '%s': %w", doc.Ref.ID, err)
	}
	p.ID = doc.Ref.ID
	p.UserID = userID
	return &p, nil
}
