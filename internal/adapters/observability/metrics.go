package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"sunflower_web/internal/domain"
)

const ns = "sunflower"

// backend calls are single attempts bounded by the page timeout
var backendBuckets = []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15}

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total", Help: "Page requests served."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Help: "Page render time, backend calls included.", Buckets: backendBuckets},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "external_requests_total", Help: "Booking backend calls."},
		[]string{"service", "endpoint", "status"}, // status 0 = transport failure
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: ns, Name: "external_request_duration_seconds", Help: "Booking backend call duration.", Buckets: backendBuckets},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "cache_events_total", Help: "Lookup cache hits, misses, sets and dels."},
		[]string{"cache", "event"},
	)
	NavigationEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "navigation_total", Help: "View transitions by outcome."},
		[]string{"view", "outcome"}, // outcome: shown|forbidden|login_required|unknown
	)
	ActionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "actions_total", Help: "Form actions by target view and error class."},
		[]string{"view", "result"},
	)
)

// Serve starts a dedicated metrics listener; an empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents, NavigationEvents, ActionOutcomes)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveNavigation(view, outcome string) {
	NavigationEvents.WithLabelValues(view, outcome).Inc()
}

func ObserveAction(view string, err error) {
	ActionOutcomes.WithLabelValues(view, ErrorClass(err)).Inc()
}

// ErrorClass is a low-cardinality label for an action error.
func ErrorClass(err error) string {
	var apiErr *domain.APIError
	switch {
	case err == nil:
		return "ok"
	case domain.IsValidation(err):
		return "validation"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNetwork):
		return "network"
	case errors.As(err, &apiErr):
		if apiErr.Status >= 500 {
			return "backend_5xx"
		}
		return "backend_4xx"
	}
	return "other"
}
