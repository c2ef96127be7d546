package wire

import (
	"net/http"
	"time"

	"roadside-assist/internal/adaptor"
	"roadside-assist/internal/data/repository"
	"roadside-assist/internal/usecase"
	"roadside-assist/pkg/metrics"
	"roadside-assist/pkg/middleware"
	"roadside-assist/pkg/rabbitmq"
	"roadside-assist/pkg/ratelimit"
	"roadside-assist/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the wired router
type App struct {
	Router *chi.Mux
}

// Infra is the set of external clients built in main. Publisher, Limiter
// and Metrics may be nil; the app then runs without them.
type Infra struct {
	Gateway   usecase.PaymentGateway
	Publisher rabbitmq.Publisher
	Limiter   ratelimit.Limiter
	Metrics   *metrics.Metrics
}

// Wiring builds services, handlers and the router
func Wiring(repo *repository.Repository, config *utils.Config, infra Infra, logger *zap.Logger) *App {
	var recorder metrics.Recorder = metrics.Nop{}
	if infra.Metrics != nil {
		recorder = infra.Metrics
	}

	service := usecase.NewService(repo, config, infra.Gateway, infra.Publisher, recorder, logger)
	handler := adaptor.NewHandler(service, config, logger)

	router := setupRouter(handler, service, config, infra, recorder, logger)

	return &App{
		Router: router,
	}
}

// routeDeps is what every wireX needs besides its handler.
type routeDeps struct {
	auth     func(http.Handler) http.Handler
	initRate func(http.Handler) http.Handler
	log      *zap.Logger
}

func setupRouter(
	handler *adaptor.Handler,
	service *usecase.Service,
	config *utils.Config,
	infra Infra,
	recorder metrics.Recorder,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.AllowedOrigins))

	window := time.Duration(config.Billing.InitRateLimitWindow) * time.Minute
	deps := routeDeps{
		auth:     middleware.AuthSession(service.Auth, logger),
		initRate: middleware.RateLimit(infra.Limiter, recorder, "payment_init", config.Billing.InitRateLimit, window, logger),
		log:      logger,
	}

	wirePayment(r, handler.Payment, deps)
	wireBooking(r, handler.BookingPayment, handler.Pricing, deps)
	wireMembership(r, handler.Membership, deps)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", map[string]any{
			"gateway_live": config.Gateway.IsLive,
		})
	})

	if config.Metrics.Enabled && infra.Metrics != nil {
		r.Handle("/metrics", infra.Metrics.Handler())
	}

	return r
}
