package main

import (
	"context"

	"github.com/tournevent/shipstation/internal/config"
	"github.com/tournevent/shipstation/internal/events"
	"github.com/tournevent/shipstation/internal/platform"
	"github.com/tournevent/shipstation/internal/relay"
	"github.com/tournevent/shipstation/internal/telemetry"
	"github.com/tournevent/shipstation/pkg/fulfillment"
	"github.com/tournevent/shipstation/pkg/shipstation"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}

	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

// app bundles the wired components the serve command needs.
type app struct {
	bus      *events.Bus
	metrics  *telemetry.Metrics
	provider *shipstation.Client
}

func initApp(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *app {
	metrics := telemetry.NewMetrics()
	bus := events.NewBus(logger)

	orders := platform.NewClient(platform.ClientConfig{
		BaseURL:  cfg.PlatformBaseURL,
		APIToken: cfg.PlatformAPIToken,
		Metrics:  metrics,
	})

	provider := shipstation.New(shipstation.Config{
		APIKey:         cfg.APIKey,
		APISecret:      cfg.APISecret,
		BaseURL:        cfg.BaseURL,
		BrandingID:     cfg.BrandingID,
		WeightUnits:    fulfillment.WeightUnit(cfg.WeightUnits),
		DimensionUnits: fulfillment.DimensionUnit(cfg.DimensionUnits),
		UseMock:        cfg.UseMock,
	}, orders, logger, tracer)

	// Register the webhook subscriber once at startup.
	relay.NewSubscriber(bus, provider, logger, metrics)

	return &app{
		bus:      bus,
		metrics:  metrics,
		provider: provider,
	}
}
