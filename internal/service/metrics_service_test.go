package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService("course-service")

	m.ObserveHTTPRequest("GET", "/courses", 200, 10*time.Millisecond)
	m.RecordEvent("course.created", "published")
	m.RecordEvent("course.created", "published")
	m.RecordWebhook("invoice.payment_succeeded", "duplicate")
	m.RecordRateLimited()
	m.RecordCache("hit")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/courses", "200")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.eventsPublished.WithLabelValues("course.created", "published")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.webhookEvents.WithLabelValues("invoice.payment_succeeded", "duplicate")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rateLimited))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
		m.RecordEvent("x", "y")
		m.RecordWebhook("x", "y")
		m.RecordRateLimited()
		m.RecordCache("miss")
	})
	assert.NotNil(t, m.Handler())
}
