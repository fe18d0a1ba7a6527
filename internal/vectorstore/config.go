package vectorstore

import (
	"fmt"

	"github.com/spf13/viper"
)

const (
	DefaultHost       = "localhost"
	DefaultPort       = 6334
	DefaultCollection = "memorial"
	// DefaultVectorSize matches text-embedding-3-large.
	DefaultVectorSize = 3072

	configKey = "vector-store"
)

// Config describes the qdrant connection and collection.
//
//	vector-store:
//	  host: qdrant
//	  port: 6334
//	  api-key: ""
//	  collection: memorial
//	  vector-size: 3072
//	  use-tls: false
type Config struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	APIKey     string `mapstructure:"api-key"`
	Collection string `mapstructure:"collection"`
	VectorSize uint64 `mapstructure:"vector-size"`
	UseTLS     bool   `mapstructure:"use-tls"`
}

// LoadConfig reads the vector-store section from v and applies defaults.
func LoadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.UnmarshalKey(configKey, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal vector-store config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid vector-store config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.VectorSize == 0 {
		c.VectorSize = DefaultVectorSize
	}
}

func (c Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}
