package schemaregistry

import (
	"context"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
)

const mockScheme = "mock://"

// NewSchemaRegistryModule provides a shared Admin (and Registry) built from kafka.schema-registry.
func NewSchemaRegistryModule() fx.Option {
	return fx.Options(
		fx.Provide(provideAdmin),
		fx.Provide(func(a Admin) Registry { return a }),
	)
}

func provideAdmin(lc fx.Lifecycle, kafkaConf config.Config, log *zap.Logger) (Admin, error) {
	admin, err := New(kafkaConf.SchemaRegistry, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing schema registry client")
			return admin.Close()
		},
	})

	return admin, nil
}

// New builds the registry for cfg.URL. A mock:// URL keeps it in memory.
func New(cfg config.SchemaRegistryConfig, log *zap.Logger) (Admin, error) {
	log = log.With(zap.String("component", "schema-registry"))
	if strings.HasPrefix(cfg.URL, mockScheme) {
		log.Info("using in-memory schema registry", zap.String("url", cfg.URL))
	}
	return newRegistry(ClientConfig(cfg), log)
}
