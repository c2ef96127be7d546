package wire

import (
	"roadside-assist/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireMembership(r chi.Router, membershipHandler *adaptor.MembershipHandler, deps routeDeps) {
	r.Group(func(r chi.Router) {
		r.Use(deps.auth)

		r.Get("/api/user/membership", membershipHandler.GetMembership)
		r.Get("/api/user/subscription", membershipHandler.GetSubscription)
	})
}
