package embedding

import (
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/feed"
	httpclient "github.com/PARADOX-BSSM/windeath44.server.feed/pkg/http/client"
)

// NewEmbeddingModule provides feed.Embedder from clients.embedding.
func NewEmbeddingModule() fx.Option {
	return fx.Module("embedding",
		fx.Provide(
			fx.Annotate(provideEmbedder, fx.As(new(feed.Embedder))),
		),
	)
}

func provideEmbedder(v *viper.Viper, log *zap.Logger) (*Embedder, error) {
	cfg, err := LoadConfig(v)
	if err != nil {
		return nil, err
	}
	log.Info("loaded embedding config", zap.String("base-url", cfg.BaseURL), zap.String("model", cfg.Model))
	return NewEmbedder(httpclient.New(cfg.ClientConfig), cfg), nil
}
