package adaptor

import (
	"errors"
	"net/http"

	"roadside-assist/internal/data/entity"
	"roadside-assist/internal/usecase"
	"roadside-assist/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Payment        *PaymentHandler
	BookingPayment *BookingPaymentHandler
	Membership     *MembershipHandler
	Pricing        *PricingHandler
}

func NewHandler(service *usecase.Service, config *utils.Config, log *zap.Logger) *Handler {
	return &Handler{
		Payment:        NewPaymentHandler(service.Payment, config.App.FrontendURL, log),
		BookingPayment: NewBookingPaymentHandler(service.BookingPayment, service.Payment, log),
		Membership:     NewMembershipHandler(service.Membership, log),
		Pricing:        NewPricingHandler(service.Pricing, log),
	}
}

// actorFromRequest reads the caller stored by the AuthSession middleware.
func actorFromRequest(r *http.Request) (usecase.Actor, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return usecase.Actor{}, false
	}
	role, _ := utils.GetRoleFromContext(r.Context())
	return usecase.Actor{UserID: userID, Role: entity.UserRole(role)}, true
}

// handleServiceError maps usecase error kinds to HTTP responses. Unknown
// errors are logged and hidden behind a generic 500.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	fields := []zap.Field{zap.Error(err), zap.String("operation", operation)}

	switch {
	case errors.Is(err, usecase.ErrValidation):
		log.Warn(operation+" validation failed", fields...)
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", fields...)
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrUnauthorized):
		log.Warn(operation+" failed - unauthorized", fields...)
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrSecurityViolation):
		// Already logged as a security incident by the service.
		utils.ResponseInvalidSignature(w)

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" failed - forbidden", fields...)
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, usecase.ErrConflict):
		log.Warn(operation+" failed - conflict", fields...)
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrUpstreamFailure):
		log.Error(operation+" failed - upstream", fields...)
		utils.ResponseUpstreamFailure(w, err.Error())

	default:
		log.Error("Failed to "+operation, fields...)
		utils.ResponseInternalError(w, "Internal server error")
	}
}
