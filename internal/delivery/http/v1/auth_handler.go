package v1

import (
	"net/http"

	"storefront-client/internal/domain"
	"storefront-client/internal/usecase"
	"storefront-client/pkg/utils"
)

type AuthHandler struct {
	authUC *usecase.AuthUsecase
}

func NewAuthHandler(authUC *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{authUC: authUC}
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if !decodeOrReject(w, r, &creds) {
		return
	}

	user, err := h.authUC.Login(r.Context(), creds)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: user})
}

// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if !decodeOrReject(w, r, &creds) {
		return
	}

	user, err := h.authUC.Signup(r.Context(), creds)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, domain.Response{Success: true, Data: user})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authUC.Logout(r.Context())
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Redirect: domain.RouteSignIn})
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authUC.CheckAuth(r.Context())
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: user})
}
