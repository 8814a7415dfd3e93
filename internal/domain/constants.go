package domain

// OrderStatus values mirror the backend's order lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusProcessed OrderStatus = "PROCESSED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusOnTheRoad OrderStatus = "ON_THE_ROAD"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether cancellation logic must leave the order alone.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentStatus values
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

// PaymentMethod values accepted by POST /user/placeorder.
type PaymentMethod string

const (
	PaymentMethodCOD      PaymentMethod = "CashOnDelivery"
	PaymentMethodRazorpay PaymentMethod = "Razorpay"
)

// Online reports whether the method goes through the external payment provider.
func (m PaymentMethod) Online() bool {
	return m == PaymentMethodRazorpay
}

// ReturnStatus values for post-delivery return requests.
type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "Pending"
	ReturnStatusApproved ReturnStatus = "Approved"
	ReturnStatusRejected ReturnStatus = "Rejected"
)

// Session cookie names shared with the backend.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
	// UserIDKey outlives the access token so a lapsed access cookie can still be refreshed.
	UserIDKey = "userId"
)

// Navigation boundaries the core can force the UI onto.
const (
	RouteSignIn            = "/signin"
	RouteCheckout          = "/checkout"
	RouteOrderConfirmation = "/order-confirmation"
)

// MaxItemQuantity is the per-line quantity ceiling enforced before checkout.
const MaxItemQuantity = 15

// List Exports for API
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessed,
	OrderStatusShipped,
	OrderStatusOnTheRoad,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var PaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusFailed,
}

var PaymentMethods = []PaymentMethod{
	PaymentMethodCOD,
	PaymentMethodRazorpay,
}
