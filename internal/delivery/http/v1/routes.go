package v1

import "net/http"

// Handlers groups everything mounted under /api/v1.
type Handlers struct {
	Auth   *AuthHandler
	Cart   *CartHandler
	Order  *OrderHandler
	Config *ConfigHandler
}

// Register mounts the gateway routes on mux. protect wraps the routes that
// need a signed-in user.
func Register(mux *http.ServeMux, h Handlers, protect func(http.Handler) http.Handler) {
	guarded := func(fn http.HandlerFunc) http.Handler {
		return protect(fn)
	}

	// Config (Public)
	mux.HandleFunc("GET /api/v1/config/enums", h.Config.GetEnums)

	// Auth
	mux.HandleFunc("POST /api/v1/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/v1/auth/signup", h.Auth.Signup)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Auth.Logout)
	mux.Handle("GET /api/v1/auth/me", guarded(h.Auth.Me))

	// Cart (Protected)
	mux.Handle("GET /api/v1/cart", guarded(h.Cart.GetCart))
	mux.Handle("PUT /api/v1/cart", guarded(h.Cart.UpdateCart))
	mux.Handle("DELETE /api/v1/cart/{productId}", guarded(h.Cart.RemoveFromCart))
	mux.Handle("POST /api/v1/cart/coupon", guarded(h.Cart.ApplyCoupon))
	mux.Handle("DELETE /api/v1/cart/coupon", guarded(h.Cart.RemoveCoupon))

	// Checkout & Orders (Protected)
	mux.Handle("POST /api/v1/checkout", guarded(h.Order.Checkout))
	mux.Handle("POST /api/v1/payments/razorpay/callback", guarded(h.Order.PaymentCallback))
	mux.Handle("POST /api/v1/orders/{id}/cancel", guarded(h.Order.CancelOrder))
	mux.Handle("POST /api/v1/orders/{id}/return", guarded(h.Order.RequestReturn))

	health := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}
	mux.HandleFunc("GET /api/v1/health", health)
	mux.HandleFunc("GET /health", health)
}
