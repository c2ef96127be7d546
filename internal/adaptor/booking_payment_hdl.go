package adaptor

import (
	"encoding/json"
	"net/http"

	"roadside-assist/internal/dto/request"
	"roadside-assist/internal/usecase"
	"roadside-assist/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingPaymentHandler struct {
	service usecase.BookingPaymentService
	payment usecase.PaymentService
	log     *zap.Logger
}

func NewBookingPaymentHandler(service usecase.BookingPaymentService, payment usecase.PaymentService, log *zap.Logger) *BookingPaymentHandler {
	return &BookingPaymentHandler{
		service: service,
		payment: payment,
		log:     log.With(zap.String("handler", "booking_payment")),
	}
}

// Submit handles POST /api/bookings/{id}/pay (protected)
func (h *BookingPaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ManualPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	payment, err := h.service.SubmitPayment(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "submit booking payment")
		return
	}

	msg := "Payment submitted for verification"
	if payment.Status == "success" {
		msg = "Payment recorded"
	}
	utils.ResponseCreated(w, msg, payment)
}

// Verify handles PATCH /api/bookings/{id}/pay (garage or admin)
func (h *BookingPaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	payment, err := h.service.VerifyPayment(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "verify booking payment")
		return
	}

	utils.ResponseSuccess(w, "Payment "+payment.Status, payment)
}

// ConfirmJob handles POST /api/mechanic/bookings/{id}/payment/confirm (mechanic)
func (h *BookingPaymentHandler) ConfirmJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ConfirmJobPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.ConfirmJobPayment(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "confirm job payment")
		return
	}

	utils.ResponseSuccess(w, "Job completed", result)
}

// InitGateway handles POST /api/bookings/{id}/payment/init (protected)
func (h *BookingPaymentHandler) InitGateway(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.InitBookingPaymentRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.ResponseBadRequest(w, "Invalid request body", nil)
			return
		}
	}

	checkout, err := h.payment.InitBookingPayment(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "init booking payment")
		return
	}

	utils.ResponseCreated(w, "Payment session created", checkout)
}
