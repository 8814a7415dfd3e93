package usecase

import (
	"context"
	"fmt"
	"sync"

	"storefront-client/internal/domain"
	"storefront-client/pkg/logger"
	"storefront-client/pkg/utils"

	validatorv10 "github.com/go-playground/validator/v10"
)

// SessionReader resolves the signed-in user.
type SessionReader interface {
	UserID() (string, error)
}

// CheckoutRequest is everything the aggregator needs to build an order.
type CheckoutRequest struct {
	UserID        string                `json:"-"`
	AddressID     string                `json:"addressId" validate:"required"`
	Addresses     []domain.Address      `json:"addresses,omitempty" validate:"-"`
	PaymentMethod domain.PaymentMethod  `json:"paymentMethod" validate:"required,oneof=CashOnDelivery Razorpay"`
	Items         []domain.CartLineItem `json:"items" validate:"required,min=1,dive"`
	AppliedCoupon *domain.AppliedCoupon `json:"appliedCoupon,omitempty" validate:"-"`
	// Payment is the provider outcome for online methods; nil for cash on delivery.
	Payment *domain.PaymentResult `json:"-" validate:"-"`
}

// OrderSubmissionResult is what a successful submission produced.
type OrderSubmissionResult struct {
	Order       *domain.Order `json:"order"`
	Totals      domain.Totals `json:"totals"`
	CartCleared bool          `json:"cartCleared"`
}

// CheckoutConfig carries the configurable checkout rules.
type CheckoutConfig struct {
	MaxItemQuantity          int
	FailedPaymentOrderStatus domain.OrderStatus
}

// CheckoutUsecase is the checkout aggregator. It also owns the checkout
// session's applied coupon, which is only valid for the subtotal it was
// computed against.
type CheckoutUsecase struct {
	orders   domain.OrderGateway
	validate *validatorv10.Validate
	cfg      CheckoutConfig

	mu              sync.Mutex
	applied         *domain.AppliedCoupon
	appliedSubtotal float64
}

func NewCheckoutUsecase(orders domain.OrderGateway, cfg CheckoutConfig) *CheckoutUsecase {
	if cfg.MaxItemQuantity < 1 {
		cfg.MaxItemQuantity = domain.MaxItemQuantity
	}
	if cfg.FailedPaymentOrderStatus == "" {
		cfg.FailedPaymentOrderStatus = domain.OrderStatusPending
	}
	return &CheckoutUsecase{
		orders:   orders,
		validate: newCheckoutValidator(cfg.MaxItemQuantity),
		cfg:      cfg,
	}
}

// --- Checkout session coupon state ---

// RememberCoupon stores applied as the session coupon for subtotal.
func (u *CheckoutUsecase) RememberCoupon(applied *domain.AppliedCoupon, subtotal float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.applied = applied
	u.appliedSubtotal = subtotal
}

// ForgetCoupon drops the session coupon (remove, cart change, checkout left).
func (u *CheckoutUsecase) ForgetCoupon() {
	u.RememberCoupon(nil, 0)
}

// AppliedCoupon returns the session coupon if it still matches subtotal.
// A coupon computed for another subtotal is discarded, never recomputed.
func (u *CheckoutUsecase) AppliedCoupon(subtotal float64) *domain.AppliedCoupon {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.applied == nil {
		return nil
	}
	if u.appliedSubtotal != subtotal {
		logger.Debug().
			Str("code", u.applied.Code).
			Float64("applied_subtotal", u.appliedSubtotal).
			Float64("subtotal", subtotal).
			Msg("Dropping coupon applied to a different cart")
		u.applied = nil
		return nil
	}
	applied := *u.applied
	return &applied
}

// --- Totals ---

// Subtotal sums quantity * unitPrice over the lines.
func Subtotal(items []domain.CartLineItem) float64 {
	var sum float64
	for _, it := range items {
		sum = utils.Round2(sum + utils.LineTotal(it.Quantity, it.UnitPrice))
	}
	return sum
}

// ComputeTotals applies an optional coupon to the items' subtotal.
func ComputeTotals(items []domain.CartLineItem, applied *domain.AppliedCoupon) domain.Totals {
	subtotal := Subtotal(items)
	t := domain.Totals{Subtotal: subtotal, Total: subtotal}
	if applied != nil {
		discount := applied.DiscountAmount
		if discount > subtotal {
			discount = subtotal
		}
		t.Discount = utils.Round2(discount)
		t.Total = utils.Sub(subtotal, discount)
		t.AppliedCoupon = applied
	}
	return t
}

// --- Validation and submission ---

// Validate runs the pre-submission checks and returns every failing field.
// A stock shortfall is a business rule rejection, not a field error.
func (u *CheckoutUsecase) Validate(req CheckoutRequest) error {
	if err := u.validate.Struct(req); err != nil {
		return toValidationError(err)
	}
	for _, it := range req.Items {
		if it.Stock != nil && it.Quantity > *it.Stock {
			return &domain.BusinessRuleRejection{
				Rule:   "stock",
				Reason: fmt.Sprintf("%s for %s (%d left)", domain.ReasonOutOfStock, itemLabel(it), *it.Stock),
			}
		}
	}
	return nil
}

// Draft validates req and builds the order payload without submitting it.
func (u *CheckoutUsecase) Draft(req CheckoutRequest) (*domain.Order, domain.Totals, error) {
	if err := u.Validate(req); err != nil {
		return nil, domain.Totals{}, err
	}
	if req.UserID == "" {
		return nil, domain.Totals{}, domain.ErrNoSession
	}

	items := make([]domain.CartLineItem, len(req.Items))
	for i, it := range req.Items {
		it.TotalPrice = utils.LineTotal(it.Quantity, it.UnitPrice)
		items[i] = it
	}

	totals := ComputeTotals(items, req.AppliedCoupon)
	order := &domain.Order{
		UserID:         req.UserID,
		AddressID:      req.AddressID,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  domain.PaymentStatusPending,
		OrderStatus:    domain.OrderStatusPending,
		TotalAmount:    totals.Total,
		CouponDiscount: totals.Discount,
		Items:          items,
	}
	if totals.AppliedCoupon != nil {
		order.CouponCode = totals.AppliedCoupon.Code
	}
	return order, totals, nil
}

// ValidateAndSubmit validates, places the order and clears the cart when the
// order is paid or cash on delivery. Cart clearing is best effort: once the
// backend accepted the order, placement has succeeded.
func (u *CheckoutUsecase) ValidateAndSubmit(ctx context.Context, req CheckoutRequest) (*OrderSubmissionResult, error) {
	if req.PaymentMethod.Online() && req.Payment == nil {
		// Field errors first, so an invalid form never reports a missing payment.
		if err := u.Validate(req); err != nil {
			return nil, err
		}
		return nil, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "payment", Message: "online payment has not completed"},
		}}
	}

	order, totals, err := u.Draft(req)
	if err != nil {
		return nil, err
	}
	applyPaymentOutcome(order, req.Payment, u.cfg.FailedPaymentOrderStatus)

	log := logger.WithContext(ctx)
	placed, err := u.orders.PlaceOrder(ctx, order)
	if err != nil {
		log.Error().Err(err).
			Str("payment_method", string(order.PaymentMethod)).
			Str("payment_status", string(order.PaymentStatus)).
			Msg("Order placement failed")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	log.Info().
		Str("order_id", placed.ID).
		Str("payment_status", string(placed.PaymentStatus)).
		Str("order_status", string(placed.OrderStatus)).
		Float64("total", placed.TotalAmount).
		Msg("Order placed")

	res := &OrderSubmissionResult{Order: placed, Totals: totals}
	if order.PaymentMethod == domain.PaymentMethodCOD || order.PaymentStatus == domain.PaymentStatusPaid {
		if err := u.orders.ClearCart(ctx, order.UserID); err != nil {
			log.Warn().Err(err).Str("order_id", placed.ID).Msg("Failed to clear cart after order placement")
		} else {
			res.CartCleared = true
		}
		u.ForgetCoupon()
	}
	return res, nil
}

// applyPaymentOutcome sets payment and order status from the provider result.
func applyPaymentOutcome(order *domain.Order, payment *domain.PaymentResult, failedStatus domain.OrderStatus) {
	switch {
	case !order.PaymentMethod.Online() || payment == nil:
		order.PaymentStatus = domain.PaymentStatusPending
		order.OrderStatus = domain.OrderStatusPending
	case payment.Success:
		order.PaymentStatus = domain.PaymentStatusPaid
		order.OrderStatus = domain.OrderStatusOnTheRoad
		order.PaymentID = payment.PaymentID
	default:
		order.PaymentStatus = domain.PaymentStatusFailed
		order.OrderStatus = failedStatus
		order.PaymentID = payment.PaymentID
	}
}
