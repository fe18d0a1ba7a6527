package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/config"
)

func newLogger(conf Config, app config.AppConfig) (*zap.Logger, zap.AtomicLevel, error) {
	if err := conf.Validate(); err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("logger configuration validation failed: %w", err)
	}

	cfg := zap.NewProductionConfig()
	if conf.Development {
		cfg = zap.NewDevelopmentConfig()
	}

	atomicLevel := zap.NewAtomicLevelAt(conf.Level)
	cfg.Level = atomicLevel
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(conf.OutputPaths) > 0 {
		cfg.OutputPaths = conf.OutputPaths
	}
	if len(conf.ErrorOutputPaths) > 0 {
		cfg.ErrorOutputPaths = conf.ErrorOutputPaths
	}

	log, err := cfg.Build(
		zap.AddCaller(),
		zap.AddStacktrace(conf.StacktraceLevel),
		zap.Fields(serviceFields(app)...),
	)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	zap.ReplaceGlobals(log)

	log.Info("logger initialized",
		zap.String("level", conf.Level.String()),
		zap.Bool("development", conf.Development),
	)

	return log, atomicLevel, nil
}

func serviceFields(app config.AppConfig) []zap.Field {
	var fields []zap.Field
	if app.ServiceName != "" {
		fields = append(fields, zap.String("service", app.ServiceName))
	}
	if app.ServiceVersion != "" {
		fields = append(fields, zap.String("version", app.ServiceVersion))
	}
	if app.Environment != "" {
		fields = append(fields, zap.String("env", app.Environment))
	}
	return fields
}
