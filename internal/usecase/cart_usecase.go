package usecase

import (
	"context"
	"fmt"
	"strings"

	"storefront-client/internal/domain"
	"storefront-client/pkg/logger"
	"storefront-client/pkg/utils"
)

// CartView is the cart plus the checkout summary next to it.
type CartView struct {
	Cart   *domain.Cart  `json:"cart"`
	Totals domain.Totals `json:"totals"`
}

type CartUsecase struct {
	carts    domain.CartGateway
	session  SessionReader
	checkout *CheckoutUsecase
	coupons  *CouponUsecase
	maxQty   int
}

func NewCartUsecase(carts domain.CartGateway, session SessionReader, checkout *CheckoutUsecase, coupons *CouponUsecase, maxQty int) *CartUsecase {
	if maxQty < 1 {
		maxQty = domain.MaxItemQuantity
	}
	return &CartUsecase{carts: carts, session: session, checkout: checkout, coupons: coupons, maxQty: maxQty}
}

// ClampQuantity keeps a line quantity within [1, max].
func ClampQuantity(qty, max int) int {
	if qty < 1 {
		return 1
	}
	if qty > max {
		return max
	}
	return qty
}

func (u *CartUsecase) view(cart *domain.Cart) *CartView {
	for i := range cart.Items {
		cart.Items[i].TotalPrice = utils.LineTotal(cart.Items[i].Quantity, cart.Items[i].UnitPrice)
	}
	subtotal := Subtotal(cart.Items)
	return &CartView{Cart: cart, Totals: ComputeTotals(cart.Items, u.checkout.AppliedCoupon(subtotal))}
}

func (u *CartUsecase) GetCart(ctx context.Context) (*CartView, error) {
	userID, err := u.session.UserID()
	if err != nil {
		return nil, err
	}
	cart, err := u.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return u.view(cart), nil
}

// UpdateQuantity sets a line quantity, clamped to [1, max]. Any cart change
// drops the applied coupon.
func (u *CartUsecase) UpdateQuantity(ctx context.Context, productID string, qty int) (*CartView, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "productId", Message: "productId is required"}}}
	}
	userID, err := u.session.UserID()
	if err != nil {
		return nil, err
	}

	clamped := ClampQuantity(qty, u.maxQty)
	if clamped != qty {
		logger.WithContext(ctx).Debug().Int("requested", qty).Int("quantity", clamped).Msg("Clamped cart quantity")
	}

	cart, err := u.carts.UpdateCart(ctx, userID, productID, clamped)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	u.checkout.ForgetCoupon()
	return u.view(cart), nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, productID string) (*CartView, error) {
	userID, err := u.session.UserID()
	if err != nil {
		return nil, err
	}
	cart, err := u.carts.RemoveFromCart(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove item: %w", err)
	}
	u.checkout.ForgetCoupon()
	return u.view(cart), nil
}

// ApplyCoupon evaluates code against the current cart and keeps the result
// in the checkout session.
func (u *CartUsecase) ApplyCoupon(ctx context.Context, code string) (*CartView, error) {
	userID, err := u.session.UserID()
	if err != nil {
		return nil, err
	}
	cart, err := u.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	subtotal := Subtotal(cart.Items)
	applied, err := u.coupons.ApplyCode(ctx, code, userID, subtotal)
	if err != nil {
		u.checkout.ForgetCoupon()
		return nil, err
	}
	u.checkout.RememberCoupon(applied, subtotal)

	logger.WithContext(ctx).Info().
		Str("code", applied.Code).
		Float64("discount", applied.DiscountAmount).
		Msg("Coupon applied")
	return u.view(cart), nil
}

// RemoveCoupon resets the totals to the undiscounted subtotal.
func (u *CartUsecase) RemoveCoupon(ctx context.Context) (*CartView, error) {
	u.checkout.ForgetCoupon()
	return u.GetCart(ctx)
}
