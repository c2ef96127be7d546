package wire

import (
	"roadside-assist/internal/adaptor"
	"roadside-assist/internal/data/entity"
	"roadside-assist/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wirePayment(r chi.Router, paymentHandler *adaptor.PaymentHandler, deps routeDeps) {
	// ==================== GATEWAY CALLBACKS (public) ====================
	// POST /api/payments/ipn - server-to-server notification, signature checked in the service
	r.Post("/api/payments/ipn", paymentHandler.IPN)

	// Browser returns from the hosted checkout; these only redirect
	for _, area := range []string{"/api/payments", "/api/bookings/payment"} {
		r.HandleFunc(area+"/success", paymentHandler.GatewayReturn("success"))
		r.HandleFunc(area+"/fail", paymentHandler.GatewayReturn("fail"))
		r.HandleFunc(area+"/cancel", paymentHandler.GatewayReturn("cancel"))
	}

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(deps.auth)

		r.With(deps.initRate).Post("/api/payments/init", paymentHandler.InitSubscription)
		r.Get("/api/user/payments", paymentHandler.GetUserPayments)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/payments", func(r chi.Router) {
		r.Use(deps.auth)
		r.Use(middleware.RequireRoles(deps.log, entity.RoleAdmin))

		r.Post("/{id}/refund", paymentHandler.Refund)
	})
}
