package adaptor

import (
	"encoding/json"
	"net/http"
	"net/url"

	"roadside-assist/internal/dto/request"
	"roadside-assist/internal/usecase"
	"roadside-assist/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxIPNBody bounds the gateway form post.
const maxIPNBody = 64 << 10

type PaymentHandler struct {
	service     usecase.PaymentService
	frontendURL string
	log         *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, frontendURL string, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:     service,
		frontendURL: frontendURL,
		log:         log.With(zap.String("handler", "payment")),
	}
}

// InitSubscription handles POST /api/payments/init (protected)
func (h *PaymentHandler) InitSubscription(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.InitSubscriptionPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	checkout, err := h.service.InitSubscriptionPayment(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "init subscription payment")
		return
	}

	utils.ResponseCreated(w, "Payment session created", checkout)
}

// IPN handles POST /api/payments/ipn (public, called by the gateway)
func (h *PaymentHandler) IPN(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxIPNBody)
	if err := r.ParseForm(); err != nil {
		utils.ResponseBadRequest(w, "Invalid form body", nil)
		return
	}

	form := r.PostForm
	req := request.IPNRequest{
		TranID:     form.Get("tran_id"),
		ValID:      form.Get("val_id"),
		Status:     form.Get("status"),
		Amount:     form.Get("amount"),
		CardType:   form.Get("card_type"),
		BankTranID: form.Get("bank_tran_id"),
		ValueA:     form.Get("value_a"),
		ValueB:     form.Get("value_b"),
		ValueC:     form.Get("value_c"),
		VerifySign: form.Get("verify_sign"),
		VerifyKey:  form.Get("verify_key"),
	}

	result, err := h.service.HandleIPN(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "handle ipn")
		return
	}

	msg := "IPN processed"
	if !result.Applied {
		msg = "IPN already processed"
	}
	utils.ResponseSuccess(w, msg, result)
}

// GatewayReturn handles the browser redirect back from the hosted checkout.
// It never settles anything; the IPN does. The outcome is one of success,
// fail or cancel.
func (h *PaymentHandler) GatewayReturn(outcome string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tranID := r.URL.Query().Get("tran_id")
		if tranID == "" && r.ParseForm() == nil {
			tranID = r.PostForm.Get("tran_id")
		}

		target := h.frontendURL + "/payment/" + outcome
		if tranID != "" {
			target += "?tran_id=" + url.QueryEscape(tranID)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// GetUserPayments handles GET /api/user/payments (protected)
func (h *PaymentHandler) GetUserPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	payments, err := h.service.GetUserPayments(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, h.log, err, "get user payments")
		return
	}

	utils.ResponseSuccess(w, "success", payments)
}

// Refund handles POST /api/admin/payments/{id}/refund (admin)
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	refund, err := h.service.RefundPayment(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "refund payment")
		return
	}

	utils.ResponseSuccess(w, "Refund processed", refund)
}
