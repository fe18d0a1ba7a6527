package metrics

import (
	"context"

	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
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

// NewMetricsModule provides a metric.MeterProvider exporting over OTLP gRPC
// and starts Go runtime metrics with it. The publish and consume counters are
// created from the global provider. Disabled metrics yield a no-op provider.
func NewMetricsModule() fx.Option {
	return fx.Options(
		fx.Provide(provideMeterProvider),
		fx.Invoke(func(metric.MeterProvider) {}),
	)
}

func provideMeterProvider(p providerParams) (metric.MeterProvider, error) {
	if !p.Cfg.Metrics.Enabled {
		p.Log.Info("metrics: disabled")
		return noop.NewMeterProvider(), nil
	}

	mp, err := newProvider(context.Background(), p.Cfg.OtelCollectorEndpoint, p.Cfg.Metrics.Interval, p.AppCfg)
	if err != nil {
		return nil, err
	}

	otelinternal.Register(p.Lc, p.Readiness, otelinternal.Provider{
		Component: otelconfig.MetricsComponentName,
		Install: func() {
			otel.SetMeterProvider(mp)
			err := otelruntime.Start(
				otelruntime.WithMeterProvider(mp),
				otelruntime.WithMinimumReadMemStatsInterval(otelconfig.DefaultRuntimeStatsInterval),
			)
			if err != nil {
				p.Log.Warn("runtime metrics unavailable", zap.Error(err))
			}
			p.Log.Info("metrics initialized",
				zap.String("endpoint", p.Cfg.OtelCollectorEndpoint),
				zap.Duration("interval", p.Cfg.Metrics.Interval),
			)
		},
		Shutdown: mp.Shutdown,
	}, otelconfig.DefaultShutdownTimeout)

	return mp, nil
}
