package config

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type configOptions struct {
	config *Config
}

// Option is a functional option for configuring the Kafka config module.
type Option func(*configOptions)

// WithKafkaConfig provides a static Kafka Config (useful for tests).
// Defaults and validation are still applied.
func WithKafkaConfig(cfg Config) Option {
	return func(opts *configOptions) {
		opts.config = &cfg
	}
}

// NewKafkaConfigModule provides Config loaded from the "kafka" viper key.
func NewKafkaConfigModule(opts ...Option) fx.Option {
	cfg := &configOptions{}
	for _, opt := range opts {
		opt(cfg)
	}

	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(provideConfig),
	)
}

func provideConfig(opts *configOptions, v *viper.Viper, logger *zap.Logger) (Config, error) {
	if opts.config != nil {
		return Finalize(*opts.config, logger)
	}
	return newConfig(v, logger)
}

func newConfig(v *viper.Viper, logger *zap.Logger) (Config, error) {
	var cfg Config
	if sub := v.Sub("kafka"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to load kafka config: %w", err)
		}
	}
	return Finalize(cfg, logger)
}

// Finalize applies environment fallbacks and defaults, then validates cfg.
func Finalize(cfg Config, logger *zap.Logger) (Config, error) {
	applyEnvFallbacks(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid kafka config: %w", err)
	}

	logger.Info("loaded kafka config",
		zap.String("brokers", cfg.Brokers),
		zap.String("schemaRegistry", cfg.SchemaRegistry.URL),
		zap.Int("consumers", len(cfg.ConsumersConfig.ConsumerConfig)),
	)
	return cfg, nil
}
