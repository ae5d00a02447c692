package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"jyotai-backend/internal/models"
)

type firestoreWebhookEventRepository struct {
	client *firestore.Client
}

// NewFirestoreWebhookEventRepository creates a WebhookEventRepository backed by Firestore.
func NewFirestoreWebhookEventRepository(client *firestore.Client) WebhookEventRepository {
	return &firestoreWebhookEventRepository{client: client}
}

func (r *firestoreWebhookEventRepository) Begin(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	if event == nil || event.ID == "" {
		return false, errors.New("event ID cannot be empty for Begin operation")
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}

	ref := r.client.Collection(webhookEventsCollection).Doc(event.ID)
	_, err := ref.Create(ctx, event)
	if err == nil {
		return false, nil
	}
	if status.Code(err) != codes.AlreadyExists {
		return false, fmt.Errorf("failed to create webhook event '%s': %w", event.ID, err)
	}

	doc, err := ref.Get(ctx)
	if err != nil {
		return false, classify(err, fmt.Sprintf("failed to read webhook event '%s'", event.ID))
	}
	var existing models.WebhookEvent
	if err := doc.DataTo(&existing); err != nil {
		return false, fmt.Errorf("failed to decode webhook event '%s': %w", event.ID, err)
	}
	return existing.Processed, nil
}

func (r *firestoreWebhookEventRepository) MarkProcessed(ctx context.Context, eventID, outcome string) error {
	if eventID == "" {
		return errors.New("event ID cannot be empty for MarkProcessed operation")
	}
	fields := map[string]interface{}{
		"processed":   true,
		"outcome":     outcome,
		"processedAt": time.Now().UTC(),
	}
	if outcome == models.WebhookOutcomeIgnored {
		fields["ignored"] = true
	}
	if outcome == models.WebhookOutcomeDuplicatePayment {
		fields["duplicate"] = true
	}
	_, err := r.client.Collection(webhookEventsCollection).Doc(eventID).Set(ctx, fields, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to mark webhook event '%s' processed: %w", eventID, err)
	}
	return nil
}
