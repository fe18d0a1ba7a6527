package config

import "time"

const (
	// DefaultMetricsInterval is the default metrics export interval.
	DefaultMetricsInterval = 10 * time.Second

	// DefaultSampleRatio samples every root trace.
	DefaultSampleRatio = 1.0

	// DefaultShutdownTimeout bounds provider flush on stop.
	DefaultShutdownTimeout = 5 * time.Second

	// DefaultRuntimeStatsInterval is the minimum interval between runtime memstats reads.
	DefaultRuntimeStatsInterval = time.Second

	// TracingComponentName is the readiness component for the tracer provider.
	TracingComponentName = "tracing"

	// MetricsComponentName is the readiness component for the meter provider.
	MetricsComponentName = "metrics"

	// EnvOTLPEndpoint is consulted when otel-collector-endpoint is empty.
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// Config holds all observability configuration.
type Config struct {
	OtelCollectorEndpoint string        `mapstructure:"otel-collector-endpoint"`
	Tracing               TracingConfig `mapstructure:"tracing"`
	Metrics               MetricsConfig `mapstructure:"metrics"`
}

// TracingConfig holds tracing-specific configuration.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample-ratio"`
}

// MetricsConfig holds metrics-specific configuration.
type MetricsConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}
