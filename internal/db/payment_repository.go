package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"jyotai-backend/internal/models"
)

const (
	paymentsCollection      = "payments"
	webhookEventsCollection = "webhookEvents"
)

type firestorePaymentRepository struct {
	client *firestore.Client
}

// NewFirestorePaymentRepository creates a PaymentRepository backed by Firestore.
func NewFirestorePaymentRepository(client *firestore.Client) PaymentRepository {
	return &firestorePaymentRepository{client: client}
}

// ApplyCapture runs the whole capture in one transaction. The payment document is read and created
// inside the same transaction, so two concurrent deliveries of one payment serialize on it and the
// second one sees the document and only records the event as a duplicate.
func (r *firestorePaymentRepository) ApplyCapture(ctx context.Context, payment *models.Payment, event *models.WebhookEvent, mutate CaptureMutation) (bool, error) {
	if payment == nil || payment.ID == "" {
		return false, errors.New("payment ID cannot be empty for ApplyCapture operation")
	}
	if payment.UserID == "" {
		return false, errors.New("payment user ID cannot be empty for ApplyCapture operation")
	}

	paymentRef := r.client.Collection(paymentsCollection).Doc(payment.ID)
	buyerRef := r.client.Collection(usersCollection).Doc(payment.UserID)
	var eventRef *firestore.DocumentRef
	if event != nil && event.ID != "" {
		eventRef = r.client.Collection(webhookEventsCollection).Doc(event.ID)
	}

	var applied bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		applied = false
		now := time.Now().UTC()

		// All reads first; Firestore rejects reads after writes in a transaction.
		if _, err := tx.Get(paymentRef); err == nil {
			if eventRef != nil {
				return tx.Set(eventRef, map[string]interface{}{
					"processed":   true,
					"duplicate":   true,
					"outcome":     models.WebhookOutcomeDuplicatePayment,
					"paymentId":   payment.ID,
					"processedAt": now,
				}, firestore.MergeAll)
			}
			return nil
		} else if status.Code(err) != codes.NotFound {
			return fmt.Errorf("failed to read payment '%s': %w", payment.ID, err)
		}

		buyer := &models.User{ID: payment.UserID}
		isNew := false
		buyerSnap, err := tx.Get(buyerRef)
		switch {
		case err == nil:
			if buyer, err = decodeUser(buyerSnap); err != nil {
				return err
			}
		case status.Code(err) == codes.NotFound:
			isNew = true
		default:
			return fmt.Errorf("failed to read user '%s': %w", payment.UserID, err)
		}

		var referrer *models.User
		if payment.ReferrerCode != "" {
			referrer, err = findByReferralCode(tx, r.client, payment.ReferrerCode)
			if err != nil {
				return err
			}
			if referrer != nil && referrer.ID == buyer.ID {
				referrer = nil
			}
		}

		if err := mutate(buyer, isNew, referrer); err != nil {
			return err
		}

		if payment.CreatedAt.IsZero() {
			payment.CreatedAt = now
		}
		if err := tx.Create(paymentRef, payment); err != nil {
			return fmt.Errorf("failed to create payment '%s': %w", payment.ID, err)
		}
		buyer.UpdatedAt = now
		if buyer.CreatedAt.IsZero() {
			buyer.CreatedAt = now
		}
		if err := tx.Set(buyerRef, buyer); err != nil {
			return fmt.Errorf("failed to write user '%s': %w", buyer.ID, err)
		}
		if referrer != nil {
			referrer.UpdatedAt = now
			if err := tx.Set(r.client.Collection(usersCollection).Doc(referrer.ID), referrer); err != nil {
				return fmt.Errorf("failed to write referrer '%s': %w", referrer.ID, err)
			}
		}
		if eventRef != nil {
			if err := tx.Set(eventRef, map[string]interface{}{
				"processed":   true,
				"outcome":     models.WebhookOutcomeApplied,
				"paymentId":   payment.ID,
				"processedAt": now,
			}, firestore.MergeAll); err != nil {
				return fmt.Errorf("failed to mark event '%s' processed: %w", event.ID, err)
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *firestorePaymentRepository) GetByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	if paymentID == "" {
		return nil, errors.New("paymentID cannot be empty for GetByID operation")
	}
	doc, err := r.client.Collection(paymentsCollection).Doc(paymentID).Get(ctx)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("failed to get payment '%s'", paymentID))
	}
	var payment models.Payment
	if err := doc.DataTo(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode payment '%s': %w", paymentID, err)
	}
	payment.ID = doc.Ref.ID
	return &payment, nil
}

func findByReferralCode(tx *firestore.Transaction, client *firestore.Client, code string) (*models.User, error) {
	iter := tx.Documents(client.Collection(usersCollection).Where("referralCode", "==", code).Limit(1))
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up referral code '%s': %w", code, err)
	}
	return decodeUser(doc)
}
