package core

import (
	"time"

	"go.uber.org/fx"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/config"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/health"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/logger"
)

type coreOptions struct {
	appConfig          *config.AppConfig
	loggerConfig       *logger.Config
	configPath         string
	disableDotEnv      bool
	disableViperConfig bool
	disableHealthHTTP  bool
}

// Option configures the core module.
type Option func(*coreOptions)

// WithAppConfig supplies a static AppConfig instead of reading the environment.
func WithAppConfig(cfg config.AppConfig) Option {
	return func(opts *coreOptions) {
		opts.appConfig = &cfg
	}
}

// WithLoggerConfig supplies a static logger Config instead of reading viper.
func WithLoggerConfig(cfg logger.Config) Option {
	return func(opts *coreOptions) {
		opts.loggerConfig = &cfg
	}
}

// WithConfigPath reads configuration from path instead of CONFIG_FILE.
func WithConfigPath(path string) Option {
	return func(opts *coreOptions) {
		opts.configPath = path
	}
}

// WithoutEnvFile skips loading the .env file.
func WithoutEnvFile() Option {
	return func(opts *coreOptions) {
		opts.disableDotEnv = true
	}
}

// WithoutConfigFile skips reading the YAML config file.
func WithoutConfigFile() Option {
	return func(opts *coreOptions) {
		opts.disableViperConfig = true
	}
}

// WithoutHealthServer keeps readiness tracking but does not serve /health.
func WithoutHealthServer() Option {
	return func(opts *coreOptions) {
		opts.disableHealthHTTP = true
	}
}

// NewCoreModule provides config, logger, readiness and the health endpoint.
//
//	core.NewCoreModule(
//	    core.WithAppConfig(config.AppConfig{ServiceName: "feed", ServiceVersion: "test"}),
//	    core.WithoutEnvFile(),
//	    core.WithoutConfigFile(),
//	)
func NewCoreModule(opts ...Option) fx.Option {
	cfg := &coreOptions{}
	for _, opt := range opts {
		opt(cfg)
	}

	return fx.Options(
		fx.StartTimeout(2*time.Minute),
		fx.StopTimeout(time.Minute),

		dotEnvModule(cfg),
		viperModule(cfg),
		appConfigModule(cfg),
		loggerModule(cfg),
		health.NewReadinessModule(),
		healthServerModule(cfg),
	)
}

func dotEnvModule(cfg *coreOptions) fx.Option {
	if cfg.disableDotEnv {
		return fx.Options()
	}
	return config.NewDotEnvModule()
}

func viperModule(cfg *coreOptions) fx.Option {
	switch {
	case cfg.disableViperConfig:
		return config.NewViperModule(config.WithoutConfigFile())
	case cfg.configPath != "":
		return config.NewViperModule(config.WithConfigPath(cfg.configPath))
	default:
		return config.NewViperModule()
	}
}

func appConfigModule(cfg *coreOptions) fx.Option {
	if cfg.appConfig != nil {
		return config.NewAppConfigModule(config.WithAppConfig(*cfg.appConfig))
	}
	return config.NewAppConfigModule()
}

func loggerModule(cfg *coreOptions) fx.Option {
	if cfg.loggerConfig != nil {
		return logger.NewZapLoggingModule(logger.WithLoggerConfig(*cfg.loggerConfig))
	}
	return logger.NewZapLoggingModule()
}

func healthServerModule(cfg *coreOptions) fx.Option {
	if cfg.disableHealthHTTP {
		return fx.Options()
	}
	return health.NewHealthServerModule()
}
