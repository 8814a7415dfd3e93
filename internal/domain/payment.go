package domain

import "context"

// PaymentResult is what the external payment provider reports through its callback.
type PaymentResult struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId,omitempty"`
	OrderID   string `json:"providerOrderId,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// PaymentIntent describes one online payment attempt.
type PaymentIntent struct {
	Receipt  string
	Amount   float64
	Currency string
	Email    string
	Name     string
}

// PaymentProvider collects a payment and blocks until the provider calls back.
type PaymentProvider interface {
	Pay(ctx context.Context, intent PaymentIntent) (PaymentResult, error)
}
