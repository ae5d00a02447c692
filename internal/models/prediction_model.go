package models

import "time"

// Prediction is a generated reading stored under users/{uid}/predictions.
type Prediction struct {
	ID        string    `json:"id" firestore:"-"`
	UserID    string    `json:"userId" firestore:"-"`
	Query     string    `json:"query" firestore:"query"`
	Reading   string    `json:"prediction" firestore:"prediction"`
	Name      string    `json:"name,omitempty" firestore:"name,omitempty"`
	DOB       string    `json:"dob,omitempty" firestore:"dob,omitempty"`
	TOB       string    `json:"tob,omitempty" firestore:"tob,omitempty"`
	Place     string    `json:"place,omitempty" firestore:"place,omitempty"`
	PaymentID string    `json:"paymentId,omitempty" firestore:"paymentId,omitempty"`
	OrderID   string    `json:"orderId,omitempty" firestore:"orderId,omitempty"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}
