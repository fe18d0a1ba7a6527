package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const envConfigFile = "CONFIG_FILE"

type viperConfig struct {
	configPath   *string
	noConfigFile bool
}

// ViperOption configures the Viper module.
type ViperOption func(*viperConfig)

// WithConfigPath reads configuration from path instead of CONFIG_FILE.
func WithConfigPath(path string) ViperOption {
	return func(cfg *viperConfig) {
		cfg.configPath = &path
	}
}

// WithoutConfigFile provides a Viper backed only by the environment.
func WithoutConfigFile() ViperOption {
	return func(cfg *viperConfig) {
		cfg.noConfigFile = true
	}
}

// FilePath is the configuration file to load. Empty means none.
type FilePath string

// NewViperModule provides *viper.Viper. Environment variables override file
// values, with "." and "-" in keys mapped to "_" (kafka.client-id -> KAFKA_CLIENT_ID).
func NewViperModule(opts ...ViperOption) fx.Option {
	cfg := &viperConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return fx.Module("viper",
		fx.Supply(resolveConfigPath(cfg)),
		fx.Provide(newViper),
		fx.Invoke(logViperConfig),
	)
}

func logViperConfig(log *zap.Logger, v *viper.Viper) {
	log.Info("configuration loaded",
		zap.String("config-file", v.ConfigFileUsed()),
		zap.Strings("config-keys", v.AllKeys()),
	)
}

func resolveConfigPath(cfg *viperConfig) FilePath {
	if cfg.noConfigFile {
		return ""
	}
	if cfg.configPath != nil {
		return FilePath(*cfg.configPath)
	}
	return FilePath(os.Getenv(envConfigFile))
}

// NewViper builds a Viper instance for configFile. The CLI uses it outside fx.
func NewViper(configFile string) (*viper.Viper, error) {
	return newViper(FilePath(configFile))
}

func newViper(configFile FilePath) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if configFile == "" {
		return v, nil
	}

	v.SetConfigFile(string(configFile))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file [%s]: %w", configFile, err)
	}

	return v, nil
}
