// Package gateway adapts the Razorpay orders API to core.OrderGateway.
package gateway

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"

	"jyotai-backend/internal/core"
)

// orderAPI is the subset of the Razorpay order resource used here.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay opens orders with the Razorpay REST API.
type Razorpay struct {
	orders orderAPI
}

// NewRazorpay creates a client authenticated with the given key pair.
func NewRazorpay(keyID, keySecret string) *Razorpay {
	client := razorpay.NewClient(keyID, keySecret)
	return &Razorpay{orders: client.Order}
}

// CreateOrder creates an order. The SDK has no context support; ctx is only checked before the call.
func (r *Razorpay) CreateOrder(ctx context.Context, req core.OrderRequest) (*core.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	resp, err := r.orders.Create(map[string]interface{}{
		"amount":          req.Amount,
		"currency":        req.Currency,
		"receipt":         req.Receipt,
		"notes":           notes,
		"payment_capture": 1,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create: %w", err)
	}

	id, _ := resp["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay order create: response has no order id")
	}
	order := &core.Order{
		ID:       id,
		Amount:   req.Amount,
		Currency: req.Currency,
		Notes:    req.Notes,
	}
	// Amounts decode as float64 from JSON.
	if amount, ok := resp["amount"].(float64); ok {
		order.Amount = int64(amount)
	}
	if currency, ok := resp["currency"].(string); ok && currency != "" {
		order.Currency = currency
	}
	return order, nil
}
