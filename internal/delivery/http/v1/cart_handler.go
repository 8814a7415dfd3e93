package v1

import (
	"net/http"
	"strings"

	"storefront-client/internal/domain"
	"storefront-client/internal/usecase"
	"storefront-client/pkg/utils"
)

type CartHandler struct {
	cartUC *usecase.CartUsecase
}

func NewCartHandler(cartUC *usecase.CartUsecase) *CartHandler {
	return &CartHandler{cartUC: cartUC}
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, view *usecase.CartView, err error) {
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: view})
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.cartUC.GetCart(r.Context())
	h.respond(w, r, view, err)
}

// PUT /api/v1/cart
func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}

	view, err := h.cartUC.UpdateQuantity(r.Context(), req.ProductID, req.Quantity)
	h.respond(w, r, view, err)
}

// DELETE /api/v1/cart/{productId}
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(r.PathValue("productId"))
	if productID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Product ID required")
		return
	}

	view, err := h.cartUC.RemoveItem(r.Context(), productID)
	h.respond(w, r, view, err)
}

// POST /api/v1/cart/coupon
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeOrReject(w, r, &req) {
		return
	}

	view, err := h.cartUC.ApplyCoupon(r.Context(), req.Code)
	h.respond(w, r, view, err)
}

// DELETE /api/v1/cart/coupon
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	view, err := h.cartUC.RemoveCoupon(r.Context())
	h.respond(w, r, view, err)
}
