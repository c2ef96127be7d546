package wire

import (
	"roadside-assist/internal/adaptor"
	"roadside-assist/internal/data/entity"
	"roadside-assist/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireBooking(
	r chi.Router,
	bookingPaymentHandler *adaptor.BookingPaymentHandler,
	pricingHandler *adaptor.PricingHandler,
	deps routeDeps,
) {
	// ==================== PUBLIC ROUTES ====================
	// POST /api/bookings/calculate-price - itemized quote for a service call
	r.Post("/api/bookings/calculate-price", pricingHandler.CalculatePrice)

	// ==================== PROTECTED ROUTES ====================
	r.Route("/api/bookings/{id}", func(r chi.Router) {
		r.Use(deps.auth)

		// POST /api/bookings/{id}/pay - record a cash/bank payment
		r.Post("/pay", bookingPaymentHandler.Submit)

		// PATCH /api/bookings/{id}/pay - garage or admin verifies a submitted payment
		r.With(middleware.RequireRoles(deps.log, entity.RoleGarage, entity.RoleAdmin)).
			Patch("/pay", bookingPaymentHandler.Verify)

		// POST /api/bookings/{id}/payment/init - hosted gateway checkout
		r.With(deps.initRate).Post("/payment/init", bookingPaymentHandler.InitGateway)
	})

	// ==================== MECHANIC ROUTES ====================
	r.Route("/api/mechanic/bookings/{id}", func(r chi.Router) {
		r.Use(deps.auth)
		r.Use(middleware.RequireRoles(deps.log, entity.RoleMechanic))

		// POST /api/mechanic/bookings/{id}/payment/confirm - close the job, cash or online
		r.Post("/payment/confirm", bookingPaymentHandler.ConfirmJob)
	})
}
