package wire

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roadside-assist/internal/data/repository"
	"roadside-assist/pkg/metrics"
	"roadside-assist/pkg/utils"

	"go.uber.org/zap"
)

func testApp(t *testing.T, withMetrics bool) *App {
	t.Helper()
	cfg := &utils.Config{
		App:     utils.AppConfig{BaseURL: "https://api.test", FrontendURL: "https://app.test", Timezone: "Asia/Dhaka"},
		Gateway: utils.GatewayConfig{Currency: "BDT"},
		Metrics: utils.MetricsConfig{Enabled: withMetrics},
		Billing: utils.BillingConfig{InitRateLimit: 10, InitRateLimitWindow: 60},
	}
	infra := Infra{}
	if withMetrics {
		infra.Metrics = metrics.New()
	}
	return Wiring(&repository.Repository{}, cfg, infra, zap.NewNop())
}

func TestRoutes(t *testing.T) {
	app := testApp(t, true)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/user/membership", http.StatusUnauthorized},
		{http.MethodGet, "/api/user/subscription", http.StatusUnauthorized},
		{http.MethodGet, "/api/user/payments", http.StatusUnauthorized},
		{http.MethodPost, "/api/payments/init", http.StatusUnauthorized},
		{http.MethodPost, "/api/bookings/123/pay", http.StatusUnauthorized},
		{http.MethodPatch, "/api/bookings/123/pay", http.StatusUnauthorized},
		{http.MethodPost, "/api/bookings/123/payment/init", http.StatusUnauthorized},
		{http.MethodPost, "/api/admin/payments/123/refund", http.StatusUnauthorized},
		{http.MethodPost, "/api/mechanic/bookings/123/payment/confirm", http.StatusUnauthorized},
		{http.MethodGet, "/api/payments/success?tran_id=T1", http.StatusSeeOther},
		{http.MethodPost, "/api/bookings/payment/fail", http.StatusSeeOther},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestMetricsRouteDisabled(t *testing.T) {
	app := testApp(t, false)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with metrics disabled, got %d", rec.Code)
	}
}

func TestCalculatePriceValidation(t *testing.T) {
	app := testApp(t, false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/calculate-price", strings.NewReader(`{"vehicle_type":"car"}`))
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing service and location, got %d", rec.Code)
	}
}
