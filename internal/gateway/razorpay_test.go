package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jyotai-backend/internal/core"
)

type fakeOrders struct {
	got  map[string]interface{}
	resp map[string]interface{}
	err  error
}

func (f *fakeOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.got = data
	return f.resp, f.err
}

func TestCreateOrder(t *testing.T) {
	orders := &fakeOrders{resp: map[string]interface{}{"id": "order_1", "amount": float64(49900), "currency": "INR"}}
	rp := &Razorpay{orders: orders}

	order, err := rp.CreateOrder(context.Background(), core.OrderRequest{
		Amount:   49900,
		Currency: "INR",
		Receipt:  "rcpt_1",
		Notes:    map[string]string{"email": "a@b.com", "purpose": "standard"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.ID)
	assert.Equal(t, int64(49900), order.Amount)
	assert.Equal(t, "a@b.com", order.Notes["email"])

	assert.Equal(t, int64(49900), orders.got["amount"])
	assert.Equal(t, "rcpt_1", orders.got["receipt"])
	assert.Equal(t, map[string]interface{}{"email": "a@b.com", "purpose": "standard"}, orders.got["notes"])
}

func TestCreateOrderErrors(t *testing.T) {
	rp := &Razorpay{orders: &fakeOrders{err: errors.New("BAD_REQUEST_ERROR")}}
	_, err := rp.CreateOrder(context.Background(), core.OrderRequest{Amount: 100})
	assert.Error(t, err)

	rp = &Razorpay{orders: &fakeOrders{resp: map[string]interface{}{}}}
	_, err = rp.CreateOrder(context.Background(), core.OrderRequest{Amount: 100})
	assert.Error(t, err)
}
