package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	WebhooksTotal        *prometheus.CounterVec
	WebhookDuration      *prometheus.HistogramVec
	TrackingUpdatesTotal *prometheus.CounterVec
}

// NewMetrics creates Prometheus metrics registered on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates Prometheus metrics registered on the given
// registerer. Tests use this to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WebhooksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipstation_webhooks_total",
				Help: "Total webhook envelopes received by resource type and status",
			},
			[]string{"resource_type", "status"},
		),
		WebhookDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shipstation_webhook_processing_seconds",
				Help:    "Webhook processing duration in seconds by resource type",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource_type"},
		),
		TrackingUpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipstation_tracking_updates_total",
				Help: "Total tracking updates written to platform orders by status",
			},
			[]string{"status"},
		),
	}
}

// RecordWebhook records a received webhook envelope.
func (m *Metrics) RecordWebhook(resourceType, status string) {
	m.WebhooksTotal.WithLabelValues(resourceType, status).Inc()
}

// RecordWebhookProcessing records the time spent processing an envelope.
func (m *Metrics) RecordWebhookProcessing(resourceType string, seconds float64) {
	m.WebhookDuration.WithLabelValues(resourceType).Observe(seconds)
}

// RecordTrackingUpdate records a tracking-update attempt.
func (m *Metrics) RecordTrackingUpdate(status string) {
	m.TrackingUpdatesTotal.WithLabelValues(status).Inc()
}
