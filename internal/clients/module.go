package clients

import (
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/feed"
	httpclient "github.com/PARADOX-BSSM/windeath44.server.feed/pkg/http/client"
)

// Config keys under clients.
const (
	CharacterAPI = "character-api"
	MemorialAPI  = "memorial-api"
)

// NewClientsModule provides the anime and memorial API clients as
// feed.CharacterFetcher and feed.MemorialFetcher.
func NewClientsModule() fx.Option {
	return fx.Module("clients",
		fx.Provide(
			fx.Annotate(provideCharacterClient, fx.As(new(feed.CharacterFetcher))),
			fx.Annotate(provideMemorialClient, fx.As(new(feed.MemorialFetcher))),
		),
	)
}

func provideCharacterClient(v *viper.Viper) (*CharacterClient, error) {
	c, cfg, err := httpclient.ProvideHTTPClient(CharacterAPI)(v)
	if err != nil {
		return nil, err
	}
	return NewCharacterClient(c, cfg), nil
}

func provideMemorialClient(v *viper.Viper) (*MemorialClient, error) {
	c, cfg, err := httpclient.ProvideHTTPClient(MemorialAPI)(v)
	if err != nil {
		return nil, err
	}
	return NewMemorialClient(c, cfg), nil
}
