package v1

import (
	"net/http"
	"time"

	"storefront-client/internal/domain"
	"storefront-client/pkg/cache"
	"storefront-client/pkg/utils"
)

// PublicConfig is the non-secret configuration the UI needs at boot.
type PublicConfig struct {
	GoogleClientID  string
	RazorpayKeyID   string
	Currency        string
	MaxItemQuantity int
}

type ConfigHandler struct {
	cache  cache.CacheService
	public PublicConfig
}

func NewConfigHandler(cache cache.CacheService, public PublicConfig) *ConfigHandler {
	return &ConfigHandler{cache: cache, public: public}
}

const enumsCacheKey = "system:config:enums"

// GET /api/v1/config/enums
func (h *ConfigHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if val, found := h.cache.Get(enumsCacheKey); found {
		utils.WriteJSON(w, http.StatusOK, val)
		return
	}

	response := map[string]interface{}{
		"orderStatuses":   domain.OrderStatuses,
		"paymentStatuses": domain.PaymentStatuses,
		"paymentMethods":  domain.PaymentMethods,
		"maxItemQuantity": h.public.MaxItemQuantity,
		"currency":        h.public.Currency,
		"googleClientId":  h.public.GoogleClientID,
		"razorpayKeyId":   h.public.RazorpayKeyID,
	}
	h.cache.Set(enumsCacheKey, response, time.Hour)

	utils.WriteJSON(w, http.StatusOK, response)
}
