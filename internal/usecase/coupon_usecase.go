package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront-client/internal/domain"

	"github.com/shopspring/decimal"
)

// CouponPolicy holds the client-side eligibility switches.
type CouponPolicy struct {
	// EnforceUsageLimit rejects coupons whose usage count reached the limit.
	// The backend enforces it at order time either way.
	EnforceUsageLimit bool
}

// CouponEvaluator turns a Coupon and a subtotal into an AppliedCoupon.
// It holds no state besides the clock, so Apply is idempotent for a fixed clock.
type CouponEvaluator struct {
	policy  CouponPolicy
	nowFunc func() time.Time
}

func NewCouponEvaluator(policy CouponPolicy) *CouponEvaluator {
	return &CouponEvaluator{policy: policy, nowFunc: time.Now}
}

func reject(reason string) error {
	return &domain.BusinessRuleRejection{Rule: "coupon", Reason: reason}
}

// Apply checks eligibility in order (minimum purchase, expiry, usage limit)
// and returns the discount, clamped to maxDiscountAmount and to the subtotal.
func (e *CouponEvaluator) Apply(coupon *domain.Coupon, subtotal float64) (*domain.AppliedCoupon, error) {
	if coupon == nil {
		return nil, fmt.Errorf("coupon is required")
	}

	if subtotal < coupon.MinPurchaseAmount {
		return nil, reject(domain.ReasonBelowMinimum)
	}
	if !coupon.ExpirationDate.IsZero() && e.nowFunc().After(coupon.ExpirationDate) {
		return nil, reject(domain.ReasonExpired)
	}
	if e.policy.EnforceUsageLimit && coupon.UsageLimit > 0 && coupon.CurrentUsageCount >= coupon.UsageLimit {
		return nil, reject(domain.ReasonUsageLimit)
	}

	sub := decimal.NewFromFloat(subtotal)
	discount := sub.Mul(decimal.NewFromFloat(coupon.DiscountValuePercent)).Div(decimal.NewFromInt(100))

	if coupon.MaxDiscountAmount > 0 {
		discount = decimal.Min(discount, decimal.NewFromFloat(coupon.MaxDiscountAmount))
	}
	// Never more than the subtotal, never negative.
	discount = decimal.Max(decimal.Min(discount, sub), decimal.Zero)

	return &domain.AppliedCoupon{
		Code:           coupon.Code,
		DiscountAmount: discount.Round(2).InexactFloat64(),
	}, nil
}

// CouponUsecase resolves codes against the backend and evaluates them.
type CouponUsecase struct {
	source    domain.CouponSource
	evaluator *CouponEvaluator
}

func NewCouponUsecase(source domain.CouponSource, evaluator *CouponEvaluator) *CouponUsecase {
	return &CouponUsecase{source: source, evaluator: evaluator}
}

// ApplyCode fetches the coupon for code and evaluates it against subtotal.
func (uc *CouponUsecase) ApplyCode(ctx context.Context, code, userID string, subtotal float64) (*domain.AppliedCoupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "code", Message: "coupon code is required"}}}
	}

	coupon, err := uc.source.FetchCoupon(ctx, code, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coupon: %w", err)
	}
	return uc.evaluator.Apply(coupon, subtotal)
}
