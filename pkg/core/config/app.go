package config

import (
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	envAppEnv            = "APP_ENV"
	envAppServiceName    = "APP_SERVICE_NAME"
	envAppServiceVersion = "APP_SERVICE_VERSION"
)

const (
	defaultEnvironment = "local"
	defaultServiceName = "windeath44-feed"
)

// AppConfig identifies the running service. It is read from the environment.
type AppConfig struct {
	ServiceName    string
	ServiceVersion string
	// Environment is the deployment environment (e.g. "local", "dev", "prod").
	Environment string
}

type appConfigOptions struct {
	config *AppConfig
}

// AppConfigOption configures the app config module.
type AppConfigOption func(*appConfigOptions)

// WithAppConfig supplies a static AppConfig instead of reading the environment.
func WithAppConfig(cfg AppConfig) AppConfigOption {
	return func(o *appConfigOptions) {
		o.config = &cfg
	}
}

// NewAppConfigModule provides AppConfig.
//
// Environment variables:
//   - APP_SERVICE_VERSION: service version (required)
//   - APP_ENV: environment name (default "local")
//   - APP_SERVICE_NAME: service name (default "windeath44-feed")
func NewAppConfigModule(opts ...AppConfigOption) fx.Option {
	o := &appConfigOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Module("appconfig",
		fx.Provide(func() (AppConfig, error) {
			if o.config != nil {
				return *o.config, nil
			}
			return newAppConfig()
		}),
		fx.Invoke(func(log *zap.Logger, conf AppConfig) {
			log.Info("loaded application configuration",
				zap.String("service", conf.ServiceName),
				zap.String("version", conf.ServiceVersion),
				zap.String("environment", conf.Environment),
			)
		}),
	)
}

func newAppConfig() (AppConfig, error) {
	serviceVersion := os.Getenv(envAppServiceVersion)
	if serviceVersion == "" {
		return AppConfig{}, fmt.Errorf("%s is required", envAppServiceVersion)
	}

	return AppConfig{
		ServiceName:    envOr(envAppServiceName, defaultServiceName),
		ServiceVersion: serviceVersion,
		Environment:    envOr(envAppEnv, defaultEnvironment),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
