// Package relay connects the webhook HTTP endpoint to the fulfillment
// provider through the internal event bus.
package relay

import (
	"context"
	"time"

	"github.com/tournevent/shipstation/internal/events"
	"github.com/tournevent/shipstation/internal/telemetry"
	"github.com/tournevent/shipstation/pkg/fulfillment"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// TopicWebhook is the bus topic webhook envelopes are published on.
const TopicWebhook = "shipstation.webhook"

// Subscriber consumes webhook envelopes from the bus and hands them to the
// provider. Processing happens after the HTTP response has been sent, so
// failures are logged and counted, never surfaced to the webhook caller.
type Subscriber struct {
	handler fulfillment.WebhookHandler
	logger  *otelzap.Logger
	metrics *telemetry.Metrics
}

// NewSubscriber creates a subscriber and registers it on the bus. Call once
// at process start.
func NewSubscriber(bus *events.Bus, handler fulfillment.WebhookHandler, logger *otelzap.Logger, metrics *telemetry.Metrics) *Subscriber {
	s := &Subscriber{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
	bus.Subscribe(TopicWebhook, s.handle)
	return s
}

func (s *Subscriber) handle(ctx context.Context, payload any) {
	envelope, ok := payload.(fulfillment.WebhookEnvelope)
	if !ok {
		s.logger.Error("Unexpected webhook payload type")
		return
	}

	start := time.Now()
	err := s.handler.HandleWebhook(ctx, envelope)
	s.metrics.RecordWebhookProcessing(envelope.ResourceType, time.Since(start).Seconds())

	if err != nil {
		s.logger.Error("Webhook processing failed",
			zap.String("resource_type", envelope.ResourceType),
			zap.String("resource_url", envelope.ResourceURL),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Webhook processed",
		zap.String("resource_type", envelope.ResourceType),
	)
}
