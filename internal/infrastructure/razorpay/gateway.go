package razorpay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-client/internal/domain"
	"storefront-client/pkg/logger"
	"storefront-client/pkg/utils"
)

// Options mirrors the checkout SDK configuration object.
type Options struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"` // minor units (paise)
	Currency    string  `json:"currency"`
	Receipt     string  `json:"receipt"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Prefill     Prefill `json:"prefill"`

	Handler   func(Success) `json:"-"`
	OnFailure func(Failure) `json:"-"` // the SDK's payment.failed event
	Modal     Modal         `json:"-"`
}

type Prefill struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type Modal struct {
	OnDismiss func()
}

// Success is the handler payload.
type Success struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id,omitempty"`
	Signature string `json:"razorpay_signature,omitempty"`
}

// Failure is the payment.failed payload.
type Failure struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description"`
	Reason      string `json:"reason,omitempty"`
	PaymentID   string `json:"payment_id,omitempty"`
}

// Checkout is the callback-style SDK. Open must not block on the user.
type Checkout interface {
	Open(ctx context.Context, opts Options) error
}

// Gateway adapts the callback SDK to a blocking domain.PaymentProvider.
type Gateway struct {
	key      string
	sdk      Checkout
	timeout  time.Duration
	merchant string
}

func NewGateway(key string, sdk Checkout, timeout time.Duration) *Gateway {
	return &Gateway{key: key, sdk: sdk, timeout: timeout, merchant: "Storefront"}
}

var ErrNotConfigured = errors.New("razorpay key is not configured")

type outcome struct {
	result domain.PaymentResult
	err    error
}

// Pay opens the checkout and waits for exactly one of handler, payment.failed
// or modal dismissal. Later callbacks are ignored.
func (g *Gateway) Pay(ctx context.Context, intent domain.PaymentIntent) (domain.PaymentResult, error) {
	if g.key == "" {
		return domain.PaymentResult{}, ErrNotConfigured
	}
	if intent.Amount <= 0 {
		return domain.PaymentResult{}, fmt.Errorf("payment amount must be positive, got %.2f", intent.Amount)
	}

	done := make(chan outcome, 1)
	var once sync.Once
	settle := func(o outcome) {
		once.Do(func() { done <- o })
	}

	opts := Options{
		Key:         g.key,
		Amount:      utils.MinorUnits(intent.Amount),
		Currency:    intent.Currency,
		Receipt:     intent.Receipt,
		Name:        g.merchant,
		Description: "Order " + intent.Receipt,
		Prefill:     Prefill{Name: intent.Name, Email: intent.Email},
		Handler: func(s Success) {
			settle(outcome{result: domain.PaymentResult{Success: true, PaymentID: s.PaymentID, OrderID: s.OrderID}})
		},
		OnFailure: func(f Failure) {
			reason := f.Description
			if reason == "" {
				reason = f.Reason
			}
			if reason == "" {
				reason = "payment failed"
			}
			settle(outcome{result: domain.PaymentResult{Success: false, PaymentID: f.PaymentID, Reason: reason}})
		},
		Modal: Modal{OnDismiss: func() {
			settle(outcome{err: domain.ErrPaymentDismissed})
		}},
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if err := g.sdk.Open(ctx, opts); err != nil {
		return domain.PaymentResult{}, fmt.Errorf("open checkout: %w", err)
	}

	logger.WithContext(ctx).Info().
		Str("receipt", intent.Receipt).
		Int64("amount", opts.Amount).
		Str("currency", opts.Currency).
		Msg("Payment checkout opened")

	select {
	case o := <-done:
		return o.result, o.err
	case <-ctx.Done():
		return domain.PaymentResult{}, ctx.Err()
	}
}

var _ domain.PaymentProvider = (*Gateway)(nil)
