package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the zap logger for env. prod logs JSON; local, dev and
// docker log colored console lines; cli is the quiet stderr logger used by
// markdexctl, warnings and up only. A non-empty level overrides the env default.
func NewLogger(env, level string) (*zap.Logger, error) {
	cfg, opts, err := baseConfig(env)
	if err != nil {
		return nil, err
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

func baseConfig(env string) (zap.Config, []zap.Option, error) {
	switch env {
	case "prod":
		return zap.NewProductionConfig(), []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}, nil
	case "local", "dev", "docker":
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg, []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}, nil
	case "cli":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.TimeKey = ""
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg, nil, nil
	default:
		return zap.Config{}, nil, fmt.Errorf("unknown environment %q for logger", env)
	}
}
