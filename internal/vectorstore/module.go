package vectorstore

import (
	"context"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/feed"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/health"
)

const componentName = "vector-store"

// NewVectorStoreModule provides feed.VectorStore backed by qdrant. The
// collection is ensured on start and the client closed on stop.
func NewVectorStoreModule() fx.Option {
	return fx.Module("vectorstore",
		fx.Provide(
			fx.Annotate(provideStore, fx.As(new(feed.VectorStore))),
		),
	)
}

func provideStore(lc fx.Lifecycle, v *viper.Viper, log *zap.Logger, readiness health.ComponentManager) (*Store, error) {
	cfg, err := LoadConfig(v)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("component", componentName))
	store, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	registerLifecycle(lc, store, readiness.AddComponent(componentName))
	return store, nil
}

func registerLifecycle(lc fx.Lifecycle, store *Store, markReady func()) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.EnsureCollection(ctx); err != nil {
				return err
			}
			markReady()
			return nil
		},
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
}
