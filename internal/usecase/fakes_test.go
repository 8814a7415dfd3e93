package usecase

import (
	"context"
	"sync"

	"storefront-client/internal/domain"
)

type fakeOrders struct {
	mu        sync.Mutex
	placed    []domain.Order
	cleared   []string
	cancelled []string
	returns   map[string]string
	placeErr  error
	clearErr  error
}

func (f *fakeOrders) PlaceOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	placed := *order
	placed.ID = "order-" + string(rune('0'+len(f.placed)+1))
	f.placed = append(f.placed, placed)
	return &placed, nil
}

func (f *fakeOrders) ClearCart(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = append(f.cleared, userID)
	return nil
}

func (f *fakeOrders) CancelOrder(_ context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, orderID)
	return nil
}

func (f *fakeOrders) RequestReturn(_ context.Context, orderID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.returns == nil {
		f.returns = map[string]string{}
	}
	f.returns[orderID] = reason
	return nil
}

func (f *fakeOrders) Placed() []domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Order(nil), f.placed...)
}

func (f *fakeOrders) Cleared() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cleared...)
}

type fakeCarts struct {
	cart    domain.Cart
	updates []int
}

func (f *fakeCarts) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	c := f.cart
	c.UserID = userID
	c.Items = append([]domain.CartLineItem(nil), f.cart.Items...)
	return &c, nil
}

func (f *fakeCarts) UpdateCart(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	f.updates = append(f.updates, quantity)
	for i := range f.cart.Items {
		if f.cart.Items[i].ProductID == productID {
			f.cart.Items[i].Quantity = quantity
		}
	}
	return f.GetCart(ctx, userID)
}

func (f *fakeCarts) RemoveFromCart(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	kept := f.cart.Items[:0]
	for _, it := range f.cart.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	f.cart.Items = kept
	return f.GetCart(ctx, userID)
}

type fakeCoupons struct {
	coupons map[string]*domain.Coupon
}

func (f *fakeCoupons) FetchCoupon(_ context.Context, code, _ string) (*domain.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok {
		return nil, &domain.APIError{Status: 404, Message: "Coupon not found"}
	}
	return c, nil
}

type fakeSession struct {
	userID  string
	access  string
	refresh string
}

func (f *fakeSession) UserID() (string, error) {
	if f.userID != "" {
		return f.userID, nil
	}
	if f.access != "" || f.refresh != "" {
		return "u-session", nil
	}
	return "", domain.ErrNoSession
}

func (f *fakeSession) Establish(access, refresh string) {
	f.access, f.refresh = access, refresh
}

func (f *fakeSession) Revoke() {
	f.userID, f.access, f.refresh = "", "", ""
}

type fakeProvider struct {
	mu      sync.Mutex
	result  domain.PaymentResult
	err     error
	intents []domain.PaymentIntent
}

func (f *fakeProvider) Pay(_ context.Context, intent domain.PaymentIntent) (domain.PaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents = append(f.intents, intent)
	return f.result, f.err
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.intents)
}
