package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap"

	appconfig "github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/config"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/health"
	otelconfig "github.com/PARADOX-BSSM/windeath44.server.feed/pkg/observability/config"
	otelinternal "github.com/PARADOX-BSSM/windeath44.server.feed/pkg/observability/internal"
)

type providerParams struct {
	fx.In
	Lc        fx.Lifecycle
	Log       *zap.Logger
	Cfg       otelconfig.Config
	AppCfg    appconfig.AppConfig
	Readiness health.ComponentManager
}

// NewTracingModule provides a trace.TracerProvider and installs it, together
// with the W3C trace-context and baggage propagators, as the global provider.
// Kafka spans and header propagation read the globals, so nothing else needs
// the provider injected. Disabled tracing yields a no-op provider.
func NewTracingModule() fx.Option {
	return fx.Options(
		fx.Provide(provideTracerProvider),
		fx.Invoke(func(trace.TracerProvider) {}),
	)
}

func provideTracerProvider(p providerParams) (trace.TracerProvider, error) {
	if !p.Cfg.Tracing.Enabled {
		p.Log.Info("tracing: disabled")
		return noop.NewTracerProvider(), nil
	}

	tp, err := newTracerProvider(context.Background(), p.Log, p.Cfg, p.AppCfg)
	if err != nil {
		return nil, err
	}

	otelinternal.Register(p.Lc, p.Readiness, otelinternal.Provider{
		Component: otelconfig.TracingComponentName,
		Install: func() {
			otel.SetTracerProvider(tp)
			otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			))
			p.Log.Info("tracing initialized",
				zap.String("endpoint", p.Cfg.OtelCollectorEndpoint),
				zap.Float64("sample-ratio", p.Cfg.Tracing.SampleRatio),
			)
		},
		Shutdown: tp.Shutdown,
	}, otelconfig.DefaultShutdownTimeout)

	return tp, nil
}
