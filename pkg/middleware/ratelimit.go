package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"roadside-assist/pkg/metrics"
	"roadside-assist/pkg/ratelimit"
	"roadside-assist/pkg/utils"

	"go.uber.org/zap"
)

// RateLimit caps requests per caller in a fixed window. Authenticated callers
// are keyed by user id, others by remote address. Limiter errors let the
// request through.
func RateLimit(limiter ratelimit.Limiter, recorder metrics.Recorder, scope string, limit int, window time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := clientKey(r)

			res, err := limiter.Consume(r.Context(), scope, subject, limit, window)
			if err != nil {
				logger.Warn("Rate limiter unavailable, allowing request",
					zap.Error(err),
					zap.String("scope", scope))
				next.ServeHTTP(w, r)
				return
			}

			if !res.Allowed {
				recorder.RateLimited(scope)
				w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfterSeconds))
				utils.ResponseTooManyRequests(w, "Too many requests, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		return "user:" + userID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
