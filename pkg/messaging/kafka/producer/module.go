package producer

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/health"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/schemaregistry"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/telemetry"
)

// NewProducerModule provides *AvroPublisher (also as Publisher) and *JSONPublisher.
// The Avro publisher connects on start and gates readiness; the JSON publisher
// connects on first use.
func NewProducerModule() fx.Option {
	return fx.Options(
		fx.Provide(
			provideAvroPublisher,
			func(p *AvroPublisher) Publisher { return p },
			provideJSONPublisher,
		),
	)
}

type telemetryParams struct {
	fx.In

	TracerProvider trace.TracerProvider `optional:"true"`
	MeterProvider  metric.MeterProvider `optional:"true"`
}

func (t telemetryParams) option() PublisherOption {
	return WithTelemetry(telemetry.NewMessageTracer(t.TracerProvider), telemetry.NewMetrics(t.MeterProvider))
}

func provideAvroPublisher(lc fx.Lifecycle, log *zap.Logger, conf config.Config, registry schemaregistry.Registry, readiness health.ComponentManager, tel telemetryParams) *AvroPublisher {
	p := NewAvroPublisher(conf, registry, log, tel.option())

	markReady := readiness.AddComponent("kafka-publisher")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := p.Start(ctx); err != nil {
				return err
			}
			markReady()
			return nil
		},
		OnStop: func(context.Context) error {
			p.Close()
			return nil
		},
	})

	return p
}

func provideJSONPublisher(lc fx.Lifecycle, log *zap.Logger, conf config.Config, tel telemetryParams) *JSONPublisher {
	p := NewJSONPublisher(conf, log, tel.option())
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			p.Close()
			return nil
		},
	})
	return p
}
