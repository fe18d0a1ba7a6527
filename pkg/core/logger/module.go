package logger

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/config"
)

type loggerOptions struct {
	config *Config
}

// Option configures the logging module.
type Option func(*loggerOptions)

// WithLoggerConfig uses cfg instead of the "logger" viper key.
func WithLoggerConfig(cfg Config) Option {
	return func(o *loggerOptions) {
		o.config = &cfg
	}
}

// NewZapLoggingModule provides *zap.Logger and zap.AtomicLevel and routes fx events through zap.
func NewZapLoggingModule(opts ...Option) fx.Option {
	o := &loggerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Options(
		fx.Provide(
			func(v *viper.Viper) (Config, error) {
				if o.config != nil {
					return *o.config, nil
				}
				return newConfig(v)
			},
			provideLogger,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)
}

func provideLogger(lc fx.Lifecycle, conf Config, app config.AppConfig) (*zap.Logger, zap.AtomicLevel, error) {
	log, level, err := newLogger(conf, app)
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to create logger: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return syncLogger(log)
		},
	})

	return log, level, nil
}

// syncLogger flushes log buffers. Syncing a terminal or pipe fails with
// EINVAL or ENOTTY; those are not real errors.
func syncLogger(log *zap.Logger) error {
	err := log.Sync()
	if err == nil || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
