package v1

import (
	"context"
	"errors"
	"net/http"

	"storefront-client/internal/domain"
	"storefront-client/internal/usecase"
	"storefront-client/pkg/logger"
	"storefront-client/pkg/utils"
)

// writeUsecaseError maps the domain error taxonomy to a status and a
// human-readable body. Nothing here is fatal: the UI gets a message or a redirect.
func writeUsecaseError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.WithContext(r.Context())

	var (
		validationErr *domain.ValidationError
		ruleErr       *domain.BusinessRuleRejection
		authFailed    *domain.AuthFailedError
		authExpired   *domain.AuthExpiredError
		networkErr    *domain.NetworkError
		providerErr   *domain.PaymentProviderError
		apiErr        *domain.APIError
	)

	switch {
	case errors.As(err, &validationErr):
		utils.WriteProblem(w, http.StatusUnprocessableEntity, validationErr.Error(), map[string]interface{}{
			"fields": validationErr.Fields,
		})
	case errors.As(err, &ruleErr):
		utils.WriteProblem(w, http.StatusConflict, ruleErr.Reason, map[string]interface{}{
			"rule": ruleErr.Rule,
		})
	case errors.As(err, &authFailed), errors.Is(err, domain.ErrNoSession):
		utils.WriteProblem(w, http.StatusUnauthorized, "Your session has ended, please sign in again", map[string]interface{}{
			"redirect": domain.RouteSignIn,
		})
	case errors.As(err, &authExpired):
		utils.WriteError(w, http.StatusUnauthorized, "Your session could not be renewed")
	case errors.As(err, &providerErr):
		utils.WriteProblem(w, http.StatusPaymentRequired, providerErr.Reason, map[string]interface{}{
			"redirect": domain.RouteCheckout,
		})
	case errors.Is(err, domain.ErrPaymentDismissed):
		utils.WriteProblem(w, http.StatusConflict, "Payment cancelled", map[string]interface{}{
			"redirect": domain.RouteCheckout,
		})
	case errors.Is(err, usecase.ErrUnknownPayment):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &networkErr):
		log.Warn().Err(err).Msg("Backend unreachable")
		utils.WriteError(w, http.StatusBadGateway, "The store is unreachable, check your connection and try again")
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.Status)
		}
		utils.WriteError(w, status, msg)
	case errors.Is(err, context.DeadlineExceeded):
		utils.WriteError(w, http.StatusGatewayTimeout, "The request timed out")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
		w.WriteHeader(499)
	default:
		log.Error().Err(err).Msg("Unhandled gateway error")
		utils.WriteError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

func decodeOrReject(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := utils.DecodeJSON(r, out); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
