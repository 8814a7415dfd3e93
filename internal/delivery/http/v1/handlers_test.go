package v1

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront-client/internal/delivery/http/middleware"
	"storefront-client/internal/domain"
	"storefront-client/internal/infrastructure/backend"
	"storefront-client/internal/infrastructure/cache"
	"storefront-client/internal/infrastructure/razorpay"
	"storefront-client/internal/infrastructure/session"
	"storefront-client/internal/usecase"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is the storefront REST backend as seen by the gateway.
type fakeStore struct {
	mu          sync.Mutex
	placed      []domain.Order
	cleared     atomic.Int32
	cancelled   []string
	placeStatus int
	refreshes   atomic.Int32
	refreshOK   bool
}

func (f *fakeStore) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshes.Add(1)
		f.mu.Lock()
		ok := f.refreshOK
		f.mu.Unlock()
		if !ok {
			writeBody(w, http.StatusUnauthorized, map[string]string{"message": "Refresh token expired"})
			return
		}
		writeBody(w, http.StatusOK, map[string]string{"accessToken": signedToken("u-1")})
	})
	mux.HandleFunc("GET /user/getcartdetails/{userId}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			writeBody(w, http.StatusUnauthorized, map[string]string{"message": "No token provided"})
			return
		}
		stock := 10
		writeBody(w, http.StatusOK, map[string]interface{}{
			"cart": domain.Cart{UserID: r.PathValue("userId"), Items: []domain.CartLineItem{
				{ProductID: "p1", Name: "Kurta", Quantity: 2, UnitPrice: 100, Stock: &stock},
			}},
		})
	})
	mux.HandleFunc("POST /user/apply-coupon", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, map[string]interface{}{"coupon": domain.Coupon{
			Code:                 "SAVE10",
			DiscountValuePercent: 10,
			ExpirationDate:       time.Now().Add(24 * time.Hour),
			IsActive:             true,
		}})
	})
	mux.HandleFunc("POST /user/placeorder", func(w http.ResponseWriter, r *http.Request) {
		var order domain.Order
		_ = json.NewDecoder(r.Body).Decode(&order)
		f.mu.Lock()
		f.placed = append(f.placed, order)
		status := f.placeStatus
		f.mu.Unlock()
		if status != 0 {
			writeBody(w, status, map[string]string{"message": "backend unavailable"})
			return
		}
		order.ID = "o-1"
		writeBody(w, http.StatusOK, map[string]interface{}{"success": true, "order": order})
	})
	mux.HandleFunc("POST /user/clearcart/{userId}", func(w http.ResponseWriter, r *http.Request) {
		f.cleared.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /user/cancelOrder/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.cancelled = append(f.cancelled, r.PathValue("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (f *fakeStore) orders() []domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Order(nil), f.placed...)
}

func writeBody(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type gateway struct {
	server *httptest.Server
	store  *fakeStore
	keeper *session.Keeper
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	return newGatewayWithAccessTTL(t, time.Hour)
}

func newGatewayWithAccessTTL(t *testing.T, accessTTL time.Duration) *gateway {
	t.Helper()
	store := &fakeStore{}
	upstream := httptest.NewServer(store.handler())
	t.Cleanup(upstream.Close)

	memCache := cache.NewMemoryCache(time.Minute, time.Minute)
	keeper := session.NewKeeper(session.NewMemoryStore(memCache), accessTTL, time.Hour)

	client, err := backend.NewClient(backend.Options{BaseURL: upstream.URL, Timeout: 5 * time.Second}, keeper, nil)
	require.NoError(t, err)

	bridge := razorpay.NewBridge(memCache, time.Minute)
	pay := razorpay.NewGateway("rzp_test_key", bridge, time.Minute)

	checkoutUC := usecase.NewCheckoutUsecase(client, usecase.CheckoutConfig{MaxItemQuantity: 15})
	couponUC := usecase.NewCouponUsecase(client, usecase.NewCouponEvaluator(usecase.CouponPolicy{}))
	cartUC := usecase.NewCartUsecase(client, keeper, checkoutUC, couponUC, 15)
	orderUC := usecase.NewOrderUsecase(checkoutUC, client, pay, memCache, "INR", time.Minute)

	mux := http.NewServeMux()
	Register(mux, Handlers{
		Auth:   NewAuthHandler(usecase.NewAuthUsecase(client, keeper, checkoutUC)),
		Cart:   NewCartHandler(cartUC),
		Order:  NewOrderHandler(cartUC, orderUC, bridge, "rzp_test_key"),
		Config: NewConfigHandler(memCache, PublicConfig{Currency: "INR", MaxItemQuantity: 15}),
	}, middleware.RequireSession(keeper))

	srv := httptest.NewServer(middleware.RequestLogger(mux))
	t.Cleanup(srv.Close)
	return &gateway{server: srv, store: store, keeper: keeper}
}

func signedToken(userID string) string {
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test"))
	return token
}

func (g *gateway) signIn(t *testing.T, userID string) {
	t.Helper()
	token := signedToken(userID)
	require.NotEmpty(t, token)
	g.keeper.Establish(token, "refresh-"+userID)
}

type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Error    string          `json:"error"`
	Data     json.RawMessage `json:"data"`
	Redirect string          `json:"redirect"`
}

func (g *gateway) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, g.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func TestProtectedRoutesRedirectToSignIn(t *testing.T) {
	g := newGateway(t)

	for _, path := range []string{"/api/v1/cart", "/api/v1/auth/me"} {
		status, env := g.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, domain.RouteSignIn, env.Redirect, path)
	}
}

func TestLapsedAccessTokenIsRefreshedNotSignedOut(t *testing.T) {
	g := newGatewayWithAccessTTL(t, 20*time.Millisecond)
	g.store.mu.Lock()
	g.store.refreshOK = true
	g.store.mu.Unlock()
	g.signIn(t, "u-1")

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, g.keeper.Access())

	status, _ := g.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int32(1), g.store.refreshes.Load())
	assert.Equal(t, "refresh-u-1", g.keeper.Refresh())
}

func TestLapsedAccessTokenWithDeadRefreshSignsOut(t *testing.T) {
	g := newGatewayWithAccessTTL(t, 20*time.Millisecond)
	g.signIn(t, "u-1")

	time.Sleep(50 * time.Millisecond)

	status, env := g.do(t, http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, domain.RouteSignIn, env.Redirect)
	assert.Equal(t, int32(1), g.store.refreshes.Load())
	assert.Empty(t, g.keeper.Refresh())
}

func TestGetCart_ComputesTotals(t *testing.T) {
	g := newGateway(t)
	g.signIn(t, "u-1")

	status, env := g.do(t, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, status)

	var view usecase.CartView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 200.0, view.Totals.Subtotal)
	assert.Equal(t, 200.0, view.Totals.Total)
	assert.Equal(t, 200.0, view.Cart.Items[0].TotalPrice)
}

func TestApplyCoupon_DiscountsTotal(t *testing.T) {
	g := newGateway(t)
	g.signIn(t, "u-1")

	status, env := g.do(t, http.MethodPost, "/api/v1/cart/coupon", map[string]string{"code": " save10 "})
	require.Equal(t, http.StatusOK, status)

	var view usecase.CartView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.NotNil(t, view.Totals.AppliedCoupon)
	assert.Equal(t, "SAVE10", view.Totals.AppliedCoupon.Code)
	assert.Equal(t, 20.0, view.Totals.Discount)
	assert.Equal(t, 180.0, view.Totals.Total)

	status, env = g.do(t, http.MethodDelete, "/api/v1/cart/coupon", nil)
	require.Equal(t, http.StatusOK, status)
	var cleared usecase.CartView
	require.NoError(t, json.Unmarshal(env.Data, &cleared))
	assert.Nil(t, cleared.Totals.AppliedCoupon)
	assert.Equal(t, 200.0, cleared.Totals.Total)
}

func TestCheckout_CashOnDelivery(t *testing.T) {
	g := newGateway(t)
	g.signIn(t, "u-1")

	status, env := g.do(t, http.MethodPost, "/api/v1/checkout", map[string]interface{}{
		"addressId":     "a-1",
		"paymentMethod": domain.PaymentMethodCOD,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, domain.RouteOrderConfirmation, env.Redirect)

	orders := g.store.orders()
	require.Len(t, orders, 1)
	assert.Equal(t, "u-1", orders[0].UserID)
	assert.Equal(t, 200.0, orders[0].TotalAmount)
	assert.Equal(t, int32(1), g.store.cleared.Load())
}

func TestCheckout_MissingAddressIsItemized(t *testing.T) {
	g := newGateway(t)
	g.signIn(t, "u-1")

	status, _ := g.do(t, http.MethodPost, "/api/v1/checkout", map[string]interface{}{
		"paymentMethod": domain.PaymentMethodCOD,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Empty(t, g.store.orders())
}

func TestCheckout_BackendFailureIsReported(t *testing.T) {
	g := newGateway(t)
	g.signIn(t, "u-1")
	g.store.mu.Lock()
	g.store.placeStatus = http.StatusServiceUnavailable
	g.store.mu.Unlock()

	status, env := g.do(t, http.MethodPost, "/api/v1/checkout", map[string]interface{}{
		"addressId":     "a-1",
		"paymentMethod": domain.PaymentMethodCOD,
	})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.NotEmpty(t, env.Error)
	assert.Equal(t, int32(0), g.store.cleared.Load())
}

func startOnlineCheckout(t *testing.T, g *gateway) string {
	t.Helper()
	status, env := g.do(t, http.MethodPost, "/api/v1/checkout", map[string]interface{}{
		"addressId":     "a-1",
		"paymentMethod": domain.PaymentMethodRazorpay,
	})
	require.Equal(t, http.StatusAccepted, status)

	var pending paymentResp
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	assert.Equal(t, "rzp_test_key", pending.Key)
	assert.Equal(t, int64(20000), pending.AmountMinor)
	require.NotEmpty(t, pending.Receipt)
	return pending.Receipt
}

func TestCheckout_OnlinePaymentSuccess(t *testing.T) {
	g := newGateway(t)
	g.signIn(t, "u-1")
	receipt := startOnlineCheckout(t, g)
	assert.Empty(t, g.store.orders())

	status, env := g.do(t, http.MethodPost, "/api/v1/payments/razorpay/callback", map[string]interface{}{
		"receipt":   receipt,
		"type":      razorpay.EventSuccess,
		"paymentId": "pay_1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.RouteOrderConfirmation, env.Redirect)

	orders := g.store.orders()
	require.Len(t, orders, 1)
	assert.Equal(t, domain.PaymentStatusPaid, orders[0].PaymentStatus)
	assert.Equal(t, "pay_1", orders[0].PaymentID)
	assert.Equal(t, int32(1), g.store.cleared.Load())

	// The receipt is settled.
	status, _ = g.do(t, http.MethodPost, "/api/v1/payments/razorpay/callback", map[string]interface{}{
		"receipt": receipt,
		"type":    razorpay.EventSuccess,
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCheckout_OnlinePaymentFailureKeepsCart(t *testing.T) {
	g := newGateway(t)
	g.signIn(t, "u-1")
	receipt := startOnlineCheckout(t, g)

	status, env := g.do(t, http.MethodPost, "/api/v1/payments/razorpay/callback", map[string]interface{}{
		"receipt":     receipt,
		"type":        razorpay.EventFailure,
		"paymentId":   "pay_2",
		"description": "Card declined",
	})
	require.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, domain.RouteCheckout, env.Redirect)
	assert.Equal(t, "Card declined", env.Message)

	orders := g.store.orders()
	require.Len(t, orders, 1)
	assert.Equal(t, domain.PaymentStatusFailed, orders[0].PaymentStatus)
	assert.Equal(t, int32(0), g.store.cleared.Load())
}

func TestCheckout_DismissSubmitsNothing(t *testing.T) {
	g := newGateway(t)
	g.signIn(t, "u-1")
	receipt := startOnlineCheckout(t, g)

	status, _ := g.do(t, http.MethodPost, "/api/v1/payments/razorpay/callback", map[string]interface{}{
		"receipt": receipt,
		"type":    razorpay.EventDismiss,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Empty(t, g.store.orders())
}

func TestPaymentCallback_UnknownReceipt(t *testing.T) {
	g := newGateway(t)
	g.signIn(t, "u-1")

	status, _ := g.do(t, http.MethodPost, "/api/v1/payments/razorpay/callback", map[string]interface{}{
		"receipt": "rcpt_nope",
		"type":    razorpay.EventSuccess,
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCancelOrder(t *testing.T) {
	g := newGateway(t)
	g.signIn(t, "u-1")

	status, _ := g.do(t, http.MethodPost, "/api/v1/orders/o-9/cancel", map[string]interface{}{
		"orderStatus": domain.OrderStatusDelivered,
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = g.do(t, http.MethodPost, "/api/v1/orders/o-9/cancel", map[string]interface{}{
		"orderStatus": domain.OrderStatusPending,
	})
	assert.Equal(t, http.StatusOK, status)

	g.store.mu.Lock()
	defer g.store.mu.Unlock()
	assert.Equal(t, []string{"o-9"}, g.store.cancelled)
}

func TestGetEnums(t *testing.T) {
	g := newGateway(t)

	req, err := http.NewRequest(http.MethodGet, g.server.URL+"/api/v1/config/enums", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INR", body["currency"])
	assert.EqualValues(t, 15, body["maxItemQuantity"])
	assert.NotEmpty(t, body["paymentMethods"])
}
