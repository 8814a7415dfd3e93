package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-client/internal/domain"
	"storefront-client/pkg/cache"
	"storefront-client/pkg/logger"

	"github.com/google/uuid"
)

// ReconciledOrder is the order-side outcome of a payment callback.
type ReconciledOrder struct {
	Order       *domain.Order                `json:"order"`
	Totals      domain.Totals                `json:"totals"`
	CartCleared bool                         `json:"cartCleared"`
	Redirect    string                       `json:"redirect"`
	Failure     *domain.PaymentProviderError `json:"-"`
}

// PendingPayment is returned to the UI so it can open the provider checkout.
type PendingPayment struct {
	Receipt  string  `json:"receipt"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// CheckoutOutcome is the result of PlaceOrder: either a settled order
// (cash on delivery) or a payment the UI still has to complete.
type CheckoutOutcome struct {
	Reconciled *ReconciledOrder `json:"reconciled,omitempty"`
	Payment    *PendingPayment  `json:"payment,omitempty"`
}

// ErrUnknownPayment is returned for receipts this session never issued (or that expired).
var ErrUnknownPayment = errors.New("unknown or expired payment")

type paymentWait struct {
	done   chan struct{}
	result *ReconciledOrder
	err    error
}

// OrderUsecase is the order state reconciler plus the user-initiated order
// transitions (cancel, return).
type OrderUsecase struct {
	checkout *CheckoutUsecase
	orders   domain.OrderGateway
	provider domain.PaymentProvider
	pending  cache.CacheService
	currency string
	timeout  time.Duration
}

func NewOrderUsecase(checkout *CheckoutUsecase, orders domain.OrderGateway, provider domain.PaymentProvider, pending cache.CacheService, currency string, paymentTimeout time.Duration) *OrderUsecase {
	return &OrderUsecase{
		checkout: checkout,
		orders:   orders,
		provider: provider,
		pending:  pending,
		currency: currency,
		timeout:  paymentTimeout,
	}
}

// --- Payment reconciliation ---

// OnPaymentResult submits the order with the provider's outcome.
// Success: Paid, cart cleared, redirect to the confirmation page.
// Failure: Failed, order still recorded for audit, cart kept, back to checkout.
func (u *OrderUsecase) OnPaymentResult(ctx context.Context, req CheckoutRequest, result domain.PaymentResult) (*ReconciledOrder, error) {
	req.Payment = &result

	sub, err := u.checkout.ValidateAndSubmit(ctx, req)
	if err != nil {
		return nil, err
	}

	rec := &ReconciledOrder{
		Order:       sub.Order,
		Totals:      sub.Totals,
		CartCleared: sub.CartCleared,
	}
	if result.Success {
		rec.Redirect = domain.RouteOrderConfirmation
		return rec, nil
	}

	reason := result.Reason
	if reason == "" {
		reason = "payment failed"
	}
	rec.Redirect = domain.RouteCheckout
	rec.Failure = &domain.PaymentProviderError{Reason: reason, PaymentID: result.PaymentID}

	logger.WithContext(ctx).Warn().
		Str("order_id", sub.Order.ID).
		Str("payment_id", result.PaymentID).
		Str("reason", reason).
		Msg("Payment failed, order recorded as failed")
	return rec, nil
}

// PlaceOrder runs a checkout end to end. Cash on delivery is submitted
// directly. Online payments are validated, then the provider checkout is
// opened in the background and reconciled when it calls back; AwaitPayment
// observes the result.
func (u *OrderUsecase) PlaceOrder(ctx context.Context, req CheckoutRequest) (*CheckoutOutcome, error) {
	if !req.PaymentMethod.Online() {
		sub, err := u.checkout.ValidateAndSubmit(ctx, req)
		if err != nil {
			return nil, err
		}
		return &CheckoutOutcome{Reconciled: &ReconciledOrder{
			Order:       sub.Order,
			Totals:      sub.Totals,
			CartCleared: sub.CartCleared,
			Redirect:    domain.RouteOrderConfirmation,
		}}, nil
	}

	_, totals, err := u.checkout.Draft(req)
	if err != nil {
		return nil, err
	}
	if totals.Total <= 0 {
		return nil, &domain.BusinessRuleRejection{
			Rule:   "payment",
			Reason: "nothing to pay online, choose cash on delivery",
		}
	}
	if u.provider == nil {
		return nil, fmt.Errorf("online payments are not available")
	}

	receipt := "rcpt_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	wait := &paymentWait{done: make(chan struct{})}
	if !u.pending.Add(receipt, wait, u.timeout+time.Minute) {
		return nil, fmt.Errorf("payment %s already pending", receipt)
	}

	intent := domain.PaymentIntent{
		Receipt:  receipt,
		Amount:   totals.Total,
		Currency: u.currency,
	}

	// Leaving the checkout page must not abandon a payment the user may still complete.
	go u.collect(context.WithoutCancel(ctx), req, intent, wait)

	return &CheckoutOutcome{Payment: &PendingPayment{
		Receipt:  receipt,
		Amount:   totals.Total,
		Currency: u.currency,
	}}, nil
}

func (u *OrderUsecase) collect(ctx context.Context, req CheckoutRequest, intent domain.PaymentIntent, wait *paymentWait) {
	defer close(wait.done)
	log := logger.WithContext(ctx).With().Str("receipt", intent.Receipt).Logger()

	result, err := u.provider.Pay(ctx, intent)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentDismissed) {
			log.Info().Msg("Payment dismissed, no order submitted")
		} else {
			log.Warn().Err(err).Msg("Payment did not complete")
		}
		wait.err = err
		return
	}

	wait.result, wait.err = u.OnPaymentResult(ctx, req, result)
	if wait.err != nil {
		log.Error().Err(wait.err).Bool("paid", result.Success).Msg("Failed to record order after payment")
	}
}

// AwaitPayment blocks until the payment for receipt is reconciled.
func (u *OrderUsecase) AwaitPayment(ctx context.Context, receipt string) (*ReconciledOrder, error) {
	v, ok := u.pending.Get(receipt)
	if !ok {
		return nil, ErrUnknownPayment
	}
	wait := v.(*paymentWait)

	select {
	case <-wait.done:
		u.pending.Delete(receipt)
		return wait.result, wait.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsPending reports whether receipt belongs to a payment in progress.
func (u *OrderUsecase) IsPending(receipt string) bool {
	_, ok := u.pending.Get(receipt)
	return ok
}

// --- User-initiated transitions ---

// CancelOrder cancels an order that is neither delivered nor already cancelled.
func (u *OrderUsecase) CancelOrder(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order id is required")
	}
	if order.OrderStatus.Terminal() {
		return &domain.BusinessRuleRejection{
			Rule:   "cancel",
			Reason: fmt.Sprintf("order is already %s", order.OrderStatus),
		}
	}

	if err := u.orders.CancelOrder(ctx, order.ID); err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	order.OrderStatus = domain.OrderStatusCancelled

	logger.WithContext(ctx).Info().Str("order_id", order.ID).Msg("Order cancelled")
	return nil
}

// RequestReturn opens a pending return on a delivered order with no active return.
func (u *OrderUsecase) RequestReturn(ctx context.Context, order *domain.Order, reason string) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order id is required")
	}
	if order.OrderStatus != domain.OrderStatusDelivered {
		return &domain.BusinessRuleRejection{Rule: "return", Reason: "only delivered orders can be returned"}
	}
	if order.ActiveReturn() {
		return &domain.BusinessRuleRejection{Rule: "return", Reason: "a return request already exists"}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return &domain.ValidationError{Fields: []domain.FieldError{{Field: "reason", Message: "tell us why you are returning the order"}}}
	}

	if err := u.orders.RequestReturn(ctx, order.ID, reason); err != nil {
		return fmt.Errorf("failed to request return: %w", err)
	}
	order.ReturnRequest = &domain.ReturnRequest{Status: domain.ReturnStatusPending, Reason: reason}

	logger.WithContext(ctx).Info().Str("order_id", order.ID).Msg("Return requested")
	return nil
}
