package middleware

import (
	"errors"
	"net/http"
	"strings"

	"roadside-assist/internal/data/entity"
	"roadside-assist/internal/usecase"
	"roadside-assist/pkg/utils"

	"go.uber.org/zap"
)

// AuthSession validates the bearer session token and stores the caller's id
// and role on the request context.
func AuthSession(auth usecase.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}
			token := strings.TrimSpace(parts[1])

			actor, err := auth.Authenticate(r.Context(), token)
			if errors.Is(err, usecase.ErrUnauthorized) {
				logger.Warn("Rejected session", zap.Error(err), zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid or expired session")
				return
			}
			if err != nil {
				logger.Error("Failed to validate session", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			ctx := utils.SetUserContext(r.Context(), actor.UserID, string(actor.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles lets the request through only when AuthSession stored one of
// the given roles.
func RequireRoles(logger *zap.Logger, roles ...entity.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			role, _ := utils.GetRoleFromContext(r.Context())
			for _, allowed := range roles {
				if entity.UserRole(role) == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("Role check failed",
				zap.String("user_id", userID.String()),
				zap.String("role", role),
				zap.String("path", r.URL.Path))
			utils.ResponseForbidden(w, "You do not have access to this resource")
		})
	}
}

// Admin is RequireRoles for admins only.
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRoles(logger, entity.RoleAdmin)
}
