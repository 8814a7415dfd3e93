package domain

import (
	"context"
	"time"
)

// Coupon is the admin-managed discount rule as returned by POST /user/apply-coupon.
// The storefront never mutates it; usage is counted server-side when an order carries it.
type Coupon struct {
	ID                   string    `json:"_id,omitempty"`
	Code                 string    `json:"code"`
	DiscountValuePercent float64   `json:"discountValue"`
	MinPurchaseAmount    float64   `json:"minPurchaseAmount"`
	MaxDiscountAmount    float64   `json:"maxDiscountAmount"`
	ExpirationDate       time.Time `json:"expirationDate"`
	UsageLimit           int       `json:"usageLimit"`
	CurrentUsageCount    int       `json:"currentUsageCount"`
	IsActive             bool      `json:"isActive"`
}

// AppliedCoupon is derived from a Coupon and the subtotal at apply time.
// It only lives in checkout session state.
type AppliedCoupon struct {
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discountAmount"`
}

// CouponSource resolves a coupon code for a user.
type CouponSource interface {
	FetchCoupon(ctx context.Context, code, userID string) (*Coupon, error)
}
