package adaptor

import (
	"net/http"

	"roadside-assist/internal/usecase"
	"roadside-assist/pkg/utils"

	"go.uber.org/zap"
)

type MembershipHandler struct {
	service usecase.MembershipService
	log     *zap.Logger
}

func NewMembershipHandler(service usecase.MembershipService, log *zap.Logger) *MembershipHandler {
	return &MembershipHandler{
		service: service,
		log:     log.With(zap.String("handler", "membership")),
	}
}

// GetMembership handles GET /api/user/membership (protected)
func (h *MembershipHandler) GetMembership(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	membership, err := h.service.GetMembership(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get membership")
		return
	}

	utils.ResponseSuccess(w, "success", membership)
}

// GetSubscription handles GET /api/user/subscription (protected)
func (h *MembershipHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	sub, err := h.service.GetSubscription(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get subscription")
		return
	}

	utils.ResponseSuccess(w, "success", sub)
}
