package internal

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/fx"

	appconfig "github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/config"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/health"
)

// NewResource describes the running service for exported telemetry.
func NewResource(ctx context.Context, appCfg appconfig.AppConfig) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(appCfg.ServiceName),
			semconv.ServiceVersionKey.String(appCfg.ServiceVersion),
			semconv.DeploymentEnvironmentNameKey.String(appCfg.Environment),
		),
	)
}

// Provider is an SDK provider installed globally on start and flushed on stop.
type Provider struct {
	// Component is the readiness component marked once Install has run.
	Component string
	Install   func()
	Shutdown  func(context.Context) error
}

// Register hooks p into the lifecycle. Shutdown gets at most timeout to flush.
func Register(lc fx.Lifecycle, readiness health.ComponentManager, p Provider, timeout time.Duration) {
	markReady := readiness.AddComponent(p.Component)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Install()
			markReady()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return p.Shutdown(ctx)
		},
	})
}
