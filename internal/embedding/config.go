package embedding

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/viper"

	httpclient "github.com/PARADOX-BSSM/windeath44.server.feed/pkg/http/client"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-large"

	configKey = "clients.embedding"
)

// Config describes the embeddings endpoint.
//
//	clients:
//	  embedding:
//	    base-url: https://api.openai.com/v1
//	    token: sk-...
//	    model: text-embedding-3-large
//	    timeout: 30s
type Config struct {
	httpclient.ClientConfig `mapstructure:",squash"`

	Token string `mapstructure:"token"`
	Model string `mapstructure:"model"`
}

// LoadConfig reads clients.embedding. The token falls back to OPENAI_API_KEY.
func LoadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.UnmarshalKey(configKey, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal embedding config: %w", err)
	}
	cfg.applyDefaults()
	if cfg.Token == "" {
		return Config{}, fmt.Errorf("invalid embedding config: token is required")
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Token == "" {
		c.Token = os.Getenv("OPENAI_API_KEY")
	}
	c.MaxAttempts = lo.CoalesceOrEmpty(c.MaxAttempts, lo.ToPtr(uint64(3)))
}
