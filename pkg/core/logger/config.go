package logger

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Level is the minimum enabled level (default info).
	Level zapcore.Level
	// Development switches to the console encoder with human-readable timestamps.
	Development bool
	// OutputPaths are URLs or file paths for log output (default stderr).
	OutputPaths []string
	// ErrorOutputPaths receive internal logger errors (default stderr).
	ErrorOutputPaths []string
	// StacktraceLevel is the level from which stacktraces are captured (default error).
	StacktraceLevel zapcore.Level
}

type rawConfig struct {
	Level            string   `mapstructure:"level"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output-paths"`
	ErrorOutputPaths []string `mapstructure:"error-output-paths"`
	StacktraceLevel  string   `mapstructure:"stacktrace-level"`
}

func defaultConfig() Config {
	return Config{Level: zapcore.InfoLevel, StacktraceLevel: zapcore.ErrorLevel}
}

func (c Config) Validate() error {
	for name, paths := range map[string][]string{"output-paths": c.OutputPaths, "error-output-paths": c.ErrorOutputPaths} {
		for i, path := range paths {
			if strings.TrimSpace(path) == "" {
				return fmt.Errorf("%s[%d] cannot be empty or whitespace", name, i)
			}
		}
	}
	return nil
}

func newConfig(v *viper.Viper) (Config, error) {
	sub := v.Sub("logger")
	if sub == nil {
		return defaultConfig(), nil
	}

	var raw rawConfig
	if err := sub.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("failed to load logger config: %w", err)
	}

	cfg := defaultConfig()
	cfg.Development = raw.Development
	cfg.OutputPaths = raw.OutputPaths
	cfg.ErrorOutputPaths = raw.ErrorOutputPaths

	var err error
	if cfg.Level, err = parseLevel(raw.Level, cfg.Level); err != nil {
		return Config{}, fmt.Errorf("invalid log level '%s': %w", raw.Level, err)
	}
	if cfg.StacktraceLevel, err = parseLevel(raw.StacktraceLevel, cfg.StacktraceLevel); err != nil {
		return Config{}, fmt.Errorf("invalid stacktrace level '%s': %w", raw.StacktraceLevel, err)
	}
	return cfg, nil
}

func parseLevel(text string, fallback zapcore.Level) (zapcore.Level, error) {
	if text == "" {
		return fallback, nil
	}
	return zapcore.ParseLevel(text)
}
