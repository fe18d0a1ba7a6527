package consumer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/health"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/avro"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/schemaregistry"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/telemetry"
)

// Listeners holds one Listener per configured consumer, keyed by consumer name.
type Listeners map[string]*Listener

// Get returns the listener configured under name.
func (ls Listeners) Get(name string) (*Listener, error) {
	l, ok := ls[name]
	if !ok {
		return nil, fmt.Errorf("no consumer config found for consumer name: %s", name)
	}
	return l, nil
}

type listenersResult struct {
	fx.Out

	Listeners Listeners
	Reporters []health.StateReporter `group:"state-reporters,flatten"`
}

// NewListenerModule provides Listeners for every entry under kafka.consumers-config.consumers.
// Each listener subscribes on start and gates readiness; consuming is left to the caller.
func NewListenerModule() fx.Option {
	return fx.Provide(provideListeners)
}

type listenersParams struct {
	fx.In

	Lc        fx.Lifecycle
	Conf      config.Config
	Registry  schemaregistry.Registry
	Decoder   *avro.Deserializer
	Log       *zap.Logger
	Readiness health.ComponentManager

	TracerProvider trace.TracerProvider `optional:"true"`
	MeterProvider  metric.MeterProvider `optional:"true"`
}

func provideListeners(p listenersParams) listenersResult {
	conf := p.Conf
	res := listenersResult{Listeners: make(Listeners, len(conf.ConsumersConfig.ConsumerConfig))}
	opts := []Option{
		WithDecoder(p.Decoder),
		WithTelemetry(telemetry.NewMessageTracer(p.TracerProvider), telemetry.NewMetrics(p.MeterProvider)),
	}

	for _, cc := range conf.ConsumersConfig.ConsumerConfig {
		l := NewListener(conf, cc, p.Registry, p.Log, opts...)
		res.Listeners[cc.Name] = l
		res.Reporters = append(res.Reporters, l)

		markReady := p.Readiness.AddComponent("listener-" + cc.Name)
		p.Lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := l.Start(ctx); err != nil {
					return err
				}
				markReady()
				return nil
			},
			OnStop: func(context.Context) error {
				l.Close()
				return nil
			},
		})
	}

	return res
}
