package domain

import (
	"context"
	"time"
)

// --- Cart Entities ---

type Cart struct {
	UserID string         `json:"userId"`
	Items  []CartLineItem `json:"items"`
}

type CartLineItem struct {
	ProductID  string  `json:"productId" validate:"required"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"price"`
	TotalPrice float64 `json:"totalPrice"`
	Stock      *int    `json:"stock,omitempty"` // nil when the backend did not report stock
}

// --- Order Entities ---

type Order struct {
	ID             string         `json:"_id,omitempty"`
	UserID         string         `json:"userId"`
	AddressID      string         `json:"addressId"`
	PaymentMethod  PaymentMethod  `json:"paymentMethod"`
	PaymentStatus  PaymentStatus  `json:"paymentStatus"`
	OrderStatus    OrderStatus    `json:"orderStatus"`
	TotalAmount    float64        `json:"totalAmount"`
	CouponCode     string         `json:"couponCode,omitempty"`
	CouponDiscount float64        `json:"couponDiscount"`
	PaymentID      string         `json:"paymentId,omitempty"`
	Items          []CartLineItem `json:"items"`
	ReturnRequest  *ReturnRequest `json:"returnRequest,omitempty"`
	CreatedAt      *time.Time     `json:"createdAt,omitempty"`
}

type ReturnRequest struct {
	Status ReturnStatus `json:"status"`
	Reason string       `json:"reason,omitempty"`
}

// ActiveReturn reports whether a return exists that an admin has not rejected.
func (o *Order) ActiveReturn() bool {
	return o.ReturnRequest != nil && o.ReturnRequest.Status != ReturnStatusRejected
}

// --- Interfaces ---

// OrderGateway is the backend surface the checkout core writes through.
type OrderGateway interface {
	PlaceOrder(ctx context.Context, order *Order) (*Order, error)
	ClearCart(ctx context.Context, userID string) error
	CancelOrder(ctx context.Context, orderID string) error
	RequestReturn(ctx context.Context, orderID, reason string) error
}

// CartGateway is the backend cart surface.
type CartGateway interface {
	GetCart(ctx context.Context, userID string) (*Cart, error)
	UpdateCart(ctx context.Context, userID, productID string, quantity int) (*Cart, error)
	RemoveFromCart(ctx context.Context, userID, productID string) (*Cart, error)
}
