// Package observability wires OpenTelemetry tracing and metrics providers.
//
//	observability.NewObservabilityModule()
//
//	// tests
//	observability.NewObservabilityModule(
//	    config.WithDisableTracing(),
//	    config.WithDisableMetrics(),
//	)
package observability

import (
	"go.uber.org/fx"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/observability/config"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/observability/metrics"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/observability/tracing"
)

// NewObservabilityModule provides the observability config and both providers.
// Disabled providers fall back to no-ops, so publishers and listeners can
// always resolve their instruments.
func NewObservabilityModule(opts ...config.Option) fx.Option {
	return fx.Module("observability",
		config.NewObservabilityConfigModule(opts...),
		tracing.NewTracingModule(),
		metrics.NewMetricsModule(),
	)
}
