package config

import (
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type dotenvConfig struct {
	path   string
	loaded bool
}

// DotEnvOption configures the dotenv module.
type DotEnvOption func(*dotenvConfig)

// WithDotEnvPath loads path instead of ".env".
func WithDotEnvPath(path string) DotEnvOption {
	return func(cfg *dotenvConfig) {
		cfg.path = path
	}
}

// LoadDotEnv loads path into the process environment. A missing file is not an error.
func LoadDotEnv(path string) bool {
	return godotenv.Load(path) == nil
}

// NewDotEnvModule loads a .env file when the module is built, before any
// provider reads the environment.
func NewDotEnvModule(opts ...DotEnvOption) fx.Option {
	cfg := &dotenvConfig{path: ".env"}
	for _, opt := range opts {
		opt(cfg)
	}

	cfg.loaded = LoadDotEnv(cfg.path)

	return fx.Module("dotenv",
		fx.Invoke(func(log *zap.Logger) {
			if cfg.loaded {
				log.Info("loaded .env file", zap.String("path", cfg.path))
			} else {
				log.Debug("no .env file loaded", zap.String("path", cfg.path))
			}
		}),
	)
}
