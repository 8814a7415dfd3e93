package usecase

import (
	"context"
	"testing"
	"time"

	"storefront-client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newEvaluator(policy CouponPolicy) *CouponEvaluator {
	e := NewCouponEvaluator(policy)
	e.nowFunc = func() time.Time { return fixedNow }
	return e
}

func assertRejected(t *testing.T, err error, reason string) {
	t.Helper()
	var rej *domain.BusinessRuleRejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "coupon", rej.Rule)
	assert.Equal(t, reason, rej.Reason)
}

func TestApply_ClampsToMaxDiscount(t *testing.T) {
	coupon := &domain.Coupon{Code: "SAVE20", DiscountValuePercent: 20, MinPurchaseAmount: 500, MaxDiscountAmount: 150}

	applied, err := newEvaluator(CouponPolicy{}).Apply(coupon, 1000)
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", applied.Code)
	assert.Equal(t, 150.0, applied.DiscountAmount)
}

func TestApply_BelowMinimum(t *testing.T) {
	_, err := newEvaluator(CouponPolicy{}).Apply(&domain.Coupon{Code: "BIG", DiscountValuePercent: 10, MinPurchaseAmount: 500}, 300)
	assertRejected(t, err, domain.ReasonBelowMinimum)
}

func TestApply_MinimumCheckedBeforeExpiry(t *testing.T) {
	coupon := &domain.Coupon{MinPurchaseAmount: 500, ExpirationDate: fixedNow.Add(-time.Hour)}
	_, err := newEvaluator(CouponPolicy{}).Apply(coupon, 100)
	assertRejected(t, err, domain.ReasonBelowMinimum)
}

func TestApply_Expired(t *testing.T) {
	coupon := &domain.Coupon{Code: "OLD", DiscountValuePercent: 10, ExpirationDate: fixedNow.Add(-time.Second)}
	_, err := newEvaluator(CouponPolicy{}).Apply(coupon, 1000)
	assertRejected(t, err, domain.ReasonExpired)

	coupon.ExpirationDate = fixedNow
	applied, err := newEvaluator(CouponPolicy{}).Apply(coupon, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100.0, applied.DiscountAmount)
}

func TestApply_UsageLimitIsOptIn(t *testing.T) {
	coupon := &domain.Coupon{Code: "LIMITED", DiscountValuePercent: 10, UsageLimit: 5, CurrentUsageCount: 5}

	_, err := newEvaluator(CouponPolicy{}).Apply(coupon, 1000)
	require.NoError(t, err)

	_, err = newEvaluator(CouponPolicy{EnforceUsageLimit: true}).Apply(coupon, 1000)
	assertRejected(t, err, domain.ReasonUsageLimit)

	coupon.UsageLimit = 0
	_, err = newEvaluator(CouponPolicy{EnforceUsageLimit: true}).Apply(coupon, 1000)
	require.NoError(t, err)
}

func TestApply_Idempotent(t *testing.T) {
	e := newEvaluator(CouponPolicy{})
	coupon := &domain.Coupon{Code: "ODD", DiscountValuePercent: 12.5, MaxDiscountAmount: 1000}

	first, err := e.Apply(coupon, 333.33)
	require.NoError(t, err)
	second, err := e.Apply(coupon, 333.33)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 41.67, first.DiscountAmount)
}

func TestApply_DiscountBounds(t *testing.T) {
	e := newEvaluator(CouponPolicy{})
	for _, pct := range []float64{0, 5, 33.3, 50, 100, 150} {
		for _, max := range []float64{0, 1, 75, 10000} {
			for _, subtotal := range []float64{0.01, 9.99, 100, 1234.56} {
				coupon := &domain.Coupon{Code: "X", DiscountValuePercent: pct, MaxDiscountAmount: max}
				applied, err := e.Apply(coupon, subtotal)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, applied.DiscountAmount, 0.0)
				assert.LessOrEqual(t, applied.DiscountAmount, subtotal, "pct=%v max=%v subtotal=%v", pct, max, subtotal)
				if max > 0 {
					assert.LessOrEqual(t, applied.DiscountAmount, max, "pct=%v max=%v subtotal=%v", pct, max, subtotal)
				}
			}
		}
	}
}

func TestApplyCode(t *testing.T) {
	source := &fakeCoupons{coupons: map[string]*domain.Coupon{
		"SAVE20": {Code: "SAVE20", DiscountValuePercent: 20, MinPurchaseAmount: 500, MaxDiscountAmount: 150},
	}}
	uc := NewCouponUsecase(source, newEvaluator(CouponPolicy{}))

	applied, err := uc.ApplyCode(context.Background(), " save20 ", "u1", 600)
	require.NoError(t, err)
	assert.Equal(t, 120.0, applied.DiscountAmount)

	_, err = uc.ApplyCode(context.Background(), "NOPE", "u1", 600)
	var apiErr *domain.APIError
	assert.ErrorAs(t, err, &apiErr)

	_, err = uc.ApplyCode(context.Background(), "  ", "u1", 600)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.Has("code"))
}
