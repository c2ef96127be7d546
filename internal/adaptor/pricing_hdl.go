package adaptor

import (
	"encoding/json"
	"net/http"

	"roadside-assist/internal/dto/request"
	"roadside-assist/internal/usecase"
	"roadside-assist/pkg/utils"

	"go.uber.org/zap"
)

type PricingHandler struct {
	service usecase.PricingService
	log     *zap.Logger
}

func NewPricingHandler(service usecase.PricingService, log *zap.Logger) *PricingHandler {
	return &PricingHandler{
		service: service,
		log:     log.With(zap.String("handler", "pricing")),
	}
}

// CalculatePrice handles POST /api/bookings/calculate-price (public)
func (h *PricingHandler) CalculatePrice(w http.ResponseWriter, r *http.Request) {
	var req request.PriceQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	quote, err := h.service.Quote(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "calculate price")
		return
	}

	utils.ResponseSuccess(w, "success", quote)
}
