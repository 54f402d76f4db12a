package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for one service process.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	rateLimited     prometheus.Counter
	cacheLookups    *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors labelled with the service name.
func NewMetricsService(serviceName string) *MetricsService {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": serviceName}

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "http_request_duration_seconds",
		Help:        "Duration of HTTP requests in seconds",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests",
		ConstLabels: constLabels,
	}, []string{"method", "path", "status"})

	eventsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "domain_events_total",
		Help:        "Domain events by outcome (published, dropped, failed)",
		ConstLabels: constLabels,
	}, []string{"event", "outcome"})

	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "webhook_events_total",
		Help:        "Payment processor webhook events by type and outcome",
		ConstLabels: constLabels,
	}, []string{"type", "outcome"})

	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "http_rate_limited_total",
		Help:        "Requests rejected by the rate limiter",
		ConstLabels: constLabels,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cache_lookups_total",
		Help:        "Cache lookups by result (hit, miss, error)",
		ConstLabels: constLabels,
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "goroutines_total",
		Help:        "Total number of goroutines",
		ConstLabels: constLabels,
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, eventsPublished, webhookEvents, rateLimited, cacheLookups, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		eventsPublished: eventsPublished,
		webhookEvents:   webhookEvents,
		rateLimited:     rateLimited,
		cacheLookups:    cacheLookups,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordEvent counts a domain event outcome.
func (m *MetricsService) RecordEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(event, outcome).Inc()
}

// RecordWebhook counts a webhook delivery outcome.
func (m *MetricsService) RecordWebhook(eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// RecordRateLimited counts a rejected request.
func (m *MetricsService) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// RecordCache counts a cache lookup result.
func (m *MetricsService) RecordCache(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
