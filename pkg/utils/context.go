package utils

import (
	"context"

	"github.com/google/uuid"
)

// caller is the authenticated identity the auth middleware resolves from a
// session. Role is kept as a plain string so this package stays free of the
// domain entities.
type caller struct {
	userID uuid.UUID
	role   string
}

type callerKey struct{}

// SetUserContext attaches the caller to ctx. A nil user id is ignored so an
// unauthenticated request never looks authenticated downstream.
func SetUserContext(ctx context.Context, userID uuid.UUID, role string) context.Context {
	if userID == uuid.Nil {
		return ctx
	}
	return context.WithValue(ctx, callerKey{}, caller{userID: userID, role: role})
}

func callerFrom(ctx context.Context) (caller, bool) {
	c, ok := ctx.Value(callerKey{}).(caller)
	return c, ok
}

// GetUserIDFromContext returns the caller's user id.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	c, ok := callerFrom(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return c.userID, true
}

// GetRoleFromContext returns the caller's role. It is false for anonymous
// requests and for callers stored without a role.
func GetRoleFromContext(ctx context.Context) (string, bool) {
	c, ok := callerFrom(ctx)
	if !ok || c.role == "" {
		return "", false
	}
	return c.role, true
}
