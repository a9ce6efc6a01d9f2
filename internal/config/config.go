package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// ShipStation
	APIKey         string `envconfig:"SHIPSTATION_API_KEY" required:"true"`
	APISecret      string `envconfig:"SHIPSTATION_API_SECRET" required:"true"`
	BaseURL        string `envconfig:"SHIPSTATION_BASE_URL" default:"https://ssapi.shipstation.com"`
	BrandingID     string `envconfig:"SHIPSTATION_BRANDING_ID"`
	WeightUnits    string `envconfig:"SHIPSTATION_WEIGHT_UNITS" default:"ounces"`
	DimensionUnits string `envconfig:"SHIPSTATION_DIMENSION_UNITS" default:"inches"`
	UseMock        bool   `envconfig:"SHIPSTATION_USE_MOCK" default:"false"`

	// Platform admin API
	PlatformBaseURL  string `envconfig:"PLATFORM_BASE_URL" default:"http://localhost:9000"`
	PlatformAPIToken string `envconfig:"PLATFORM_API_TOKEN"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.claude.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"shipstation-fulfillment"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.WeightUnits {
	case "pounds", "ounces", "grams":
	default:
		return fmt.Errorf("invalid SHIPSTATION_WEIGHT_UNITS %q", c.WeightUnits)
	}
	switch c.DimensionUnits {
	case "inches", "centimeters":
	default:
		return fmt.Errorf("invalid SHIPSTATION_DIMENSION_UNITS %q", c.DimensionUnits)
	}
	return nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("shipstation.weight_units", c.WeightUnits),
		attribute.Bool("shipstation.mock", c.UseMock),
	}
}
