package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront-client/internal/delivery/http/middleware"
	"storefront-client/internal/domain"
	"storefront-client/internal/infrastructure/razorpay"
	"storefront-client/internal/usecase"
	"storefront-client/pkg/logger"
	"storefront-client/pkg/utils"
)

// PaymentEvents delivers the UI's report of the provider checkout outcome.
type PaymentEvents interface {
	Deliver(receipt string, ev razorpay.Event) error
}

type OrderHandler struct {
	cartUC      *usecase.CartUsecase
	orderUC     *usecase.OrderUsecase
	events      PaymentEvents
	razorpayKey string
}

func NewOrderHandler(cartUC *usecase.CartUsecase, orderUC *usecase.OrderUsecase, events PaymentEvents, razorpayKey string) *OrderHandler {
	return &OrderHandler{
		cartUC:      cartUC,
		orderUC:     orderUC,
		events:      events,
		razorpayKey: razorpayKey,
	}
}

type checkoutReq struct {
	AddressID     string               `json:"addressId"`
	Addresses     []domain.Address     `json:"addresses"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

type paymentResp struct {
	usecase.PendingPayment
	Key         string `json:"key"`
	AmountMinor int64  `json:"amountMinor"`
}

// POST /api/v1/checkout
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeUsecaseError(w, r, domain.ErrNoSession)
		return
	}
	var req checkoutReq
	if !decodeOrReject(w, r, &req) {
		return
	}

	// The cart is read from the backend, never trusted from the UI.
	view, err := h.cartUC.GetCart(r.Context())
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}

	// Leaving the page does not abandon a submitted order.
	ctx := context.WithoutCancel(r.Context())
	out, err := h.orderUC.PlaceOrder(ctx, usecase.CheckoutRequest{
		UserID:        userID,
		AddressID:     strings.TrimSpace(req.AddressID),
		Addresses:     req.Addresses,
		PaymentMethod: req.PaymentMethod,
		Items:         view.Cart.Items,
		AppliedCoupon: view.Totals.AppliedCoupon,
	})
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}

	if out.Payment != nil {
		utils.WriteJSON(w, http.StatusAccepted, domain.Response{
			Success: true,
			Message: "Complete the payment to place your order",
			Data: paymentResp{
				PendingPayment: *out.Payment,
				Key:            h.razorpayKey,
				AmountMinor:    utils.MinorUnits(out.Payment.Amount),
			},
		})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, domain.Response{
		Success:  true,
		Message:  "Order placed",
		Data:     out.Reconciled,
		Redirect: out.Reconciled.Redirect,
	})
}

type paymentCallbackReq struct {
	Receipt string `json:"receipt"`
	razorpay.Event
}

// POST /api/v1/payments/razorpay/callback
func (h *OrderHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var req paymentCallbackReq
	if !decodeOrReject(w, r, &req) {
		return
	}
	if req.Receipt == "" || !h.orderUC.IsPending(req.Receipt) {
		writeUsecaseError(w, r, usecase.ErrUnknownPayment)
		return
	}

	if err := h.events.Deliver(req.Receipt, req.Event); err != nil {
		if errors.Is(err, razorpay.ErrDuplicateEvent) {
			utils.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.orderUC.AwaitPayment(r.Context(), req.Receipt)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}

	if rec.Failure != nil {
		logger.WithContext(r.Context()).Info().Str("receipt", req.Receipt).Msg("Returning user to checkout after failed payment")
		utils.WriteJSON(w, http.StatusPaymentRequired, domain.Response{
			Success:  false,
			Message:  rec.Failure.Reason,
			Data:     rec,
			Redirect: rec.Redirect,
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, domain.Response{
		Success:  true,
		Message:  "Payment received, order placed",
		Data:     rec,
		Redirect: rec.Redirect,
	})
}

// orderSnapshot is the order as the UI last saw it.
type orderSnapshot struct {
	OrderStatus   domain.OrderStatus    `json:"orderStatus"`
	ReturnRequest *domain.ReturnRequest `json:"returnRequest,omitempty"`
	Reason        string                `json:"reason,omitempty"`
}

func (h *OrderHandler) readSnapshot(w http.ResponseWriter, r *http.Request) (*domain.Order, string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "Order ID required")
		return nil, "", false
	}
	var snap orderSnapshot
	if !decodeOrReject(w, r, &snap) {
		return nil, "", false
	}
	return &domain.Order{ID: id, OrderStatus: snap.OrderStatus, ReturnRequest: snap.ReturnRequest}, snap.Reason, true
}

// POST /api/v1/orders/{id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, _, ok := h.readSnapshot(w, r)
	if !ok {
		return
	}
	if err := h.orderUC.CancelOrder(r.Context(), order); err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Message: "Order cancelled", Data: order})
}

// POST /api/v1/orders/{id}/return
func (h *OrderHandler) RequestReturn(w http.ResponseWriter, r *http.Request) {
	order, reason, ok := h.readSnapshot(w, r)
	if !ok {
		return
	}
	if err := h.orderUC.RequestReturn(r.Context(), order, reason); err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Message: "Return requested", Data: order})
}
