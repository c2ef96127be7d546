// Package metrics holds the Prometheus collectors for the payment core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the narrow view services use to count events.
type Recorder interface {
	Settlement(origin, outcome string)
	SignatureFailure(mode string)
	PriceQuote(vehicleType string)
	RateLimited(scope string)
}

type Metrics struct {
	registry          *prometheus.Registry
	settlements       *prometheus.CounterVec
	signatureFailures *prometheus.CounterVec
	priceQuotes       *prometheus.CounterVec
	rateLimited       *prometheus.CounterVec
}

// New registers the collectors on a private registry together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadside",
			Name:      "payment_settlements_total",
			Help:      "Payment settlement attempts by origin and outcome.",
		}, []string{"origin", "outcome"}),
		signatureFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadside",
			Name:      "ipn_signature_failures_total",
			Help:      "Gateway notifications whose signature did not verify.",
		}, []string{"mode"}),
		priceQuotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadside",
			Name:      "price_quotes_total",
			Help:      "Price quotes served by vehicle type.",
		}, []string{"vehicle_type"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadside",
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"scope"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.settlements,
		m.signatureFailures,
		m.priceQuotes,
		m.rateLimited,
	)
	return m
}

func (m *Metrics) Settlement(origin, outcome string) {
	m.settlements.WithLabelValues(origin, outcome).Inc()
}

func (m *Metrics) SignatureFailure(mode string) {
	m.signatureFailures.WithLabelValues(mode).Inc()
}

func (m *Metrics) PriceQuote(vehicleType string) {
	m.priceQuotes.WithLabelValues(vehicleType).Inc()
}

func (m *Metrics) RateLimited(scope string) {
	m.rateLimited.WithLabelValues(scope).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Nop discards every event.
type Nop struct{}

func (Nop) Settlement(string, string) {}
func (Nop) SignatureFailure(string)   {}
func (Nop) PriceQuote(string)         {}
func (Nop) RateLimited(string)        {}
