package health

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAddr            = ":8080"
	defaultShutdownTimeout = 5 * time.Second
)

type Config struct {
	// Addr is the listen address of the health server. "-" disables it.
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

func newConfig(v *viper.Viper) (Config, error) {
	cfg := Config{Addr: defaultAddr, ShutdownTimeout: defaultShutdownTimeout}

	sub := v.Sub("health")
	if sub == nil {
		return cfg, nil
	}
	if err := sub.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load health config: %w", err)
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	return cfg, nil
}

func (c Config) Enabled() bool {
	return c.Addr != "-"
}
