package client

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Pool defaults shared by the schema registry client and the REST collaborators.
const (
	DefaultTimeout             = 10 * time.Second
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultMaxConnLifetime     = 60 * time.Second
	MaxRetriesCap              = 5
)

// ClientConfig describes one pooled HTTP client.
//
//	clients:
//	  character-api:
//	    base-url: http://windeath44-anime:8080
//	    timeout: 10s
//	    max-idle-conns-per-host: 10
//	    max-conn-lifetime: 60s
//	    max-attempts: 3
//
// Nil fields get defaults; an explicit 0 disables the corresponding limit.
type ClientConfig struct {
	BaseURL             string         `mapstructure:"base-url"`
	Timeout             *time.Duration `mapstructure:"timeout"`
	MaxIdleConnsPerHost *int           `mapstructure:"max-idle-conns-per-host"`
	IdleConnTimeout     *time.Duration `mapstructure:"idle-conn-timeout"`
	MaxConnLifetime     *time.Duration `mapstructure:"max-conn-lifetime"`
	MaxAttempts         *uint64        `mapstructure:"max-attempts"` // attempts for 5xx responses in DoJSON
}

// New builds a pooled client after applying defaults. BaseURL is not required here.
func New(cfg ClientConfig) *http.Client {
	cfg.applyDefaults()
	return newHTTPClient(cfg)
}

func newHTTPClient(cfg ClientConfig) *http.Client {
	maxIdle := *cfg.MaxIdleConnsPerHost
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialContext(*cfg.MaxConnLifetime),
		MaxIdleConnsPerHost: maxIdle,
		IdleConnTimeout:     *cfg.IdleConnTimeout,
	}

	return &http.Client{
		Timeout: *cfg.Timeout,
		Transport: &retryTransport{
			base:       transport,
			transport:  transport,
			maxRetries: min(maxIdle, MaxRetriesCap),
		},
	}
}

// dialContext returns nil (transport default) when lifetimes are disabled.
func dialContext(maxLifetime time.Duration) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if maxLifetime <= 0 {
		return nil
	}
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		return &timedConn{Conn: conn, createdAt: time.Now(), maxLifetime: maxLifetime}, nil
	}
}

// LoadConfig reads clients.<name> from viper, validates it and applies defaults.
func LoadConfig(v *viper.Viper, name string) (ClientConfig, error) {
	var cfg ClientConfig
	if err := v.UnmarshalKey("clients."+name, &cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("failed to unmarshal client config %q: %w", name, err)
	}
	if err := cfg.validate(); err != nil {
		return ClientConfig{}, fmt.Errorf("invalid client config %q: %w", name, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// ProvideHTTPClient returns an fx constructor for the named client.
//
//	fx.Provide(fx.Private, client.ProvideHTTPClient("character-api"))
func ProvideHTTPClient(name string) func(*viper.Viper) (*http.Client, ClientConfig, error) {
	return func(v *viper.Viper) (*http.Client, ClientConfig, error) {
		cfg, err := LoadConfig(v, name)
		if err != nil {
			return nil, ClientConfig{}, err
		}
		return newHTTPClient(cfg), cfg, nil
	}
}

func (c *ClientConfig) applyDefaults() {
	c.Timeout = lo.CoalesceOrEmpty(c.Timeout, lo.ToPtr(DefaultTimeout))
	c.MaxIdleConnsPerHost = lo.CoalesceOrEmpty(c.MaxIdleConnsPerHost, lo.ToPtr(DefaultMaxIdleConnsPerHost))
	c.IdleConnTimeout = lo.CoalesceOrEmpty(c.IdleConnTimeout, lo.ToPtr(DefaultIdleConnTimeout))
	c.MaxConnLifetime = lo.CoalesceOrEmpty(c.MaxConnLifetime, lo.ToPtr(DefaultMaxConnLifetime))
	c.MaxAttempts = lo.CoalesceOrEmpty(c.MaxAttempts, lo.ToPtr(uint64(3)))
}

func (c ClientConfig) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base-url is required")
	}
	return nil
}
