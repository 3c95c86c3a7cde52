package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Development-like environments log at debug level,
// everything else at info, unless level is set explicitly.
func New(env, level string) (*zap.Logger, error) {
	cfg := configForEnv(env)

	atomic, err := resolveLevel(env, level)
	if err != nil {
		return nil, err
	}
	cfg.Level = atomic
	cfg.DisableStacktrace = true

	built, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: build: %w", err)
	}
	return built, nil
}

func isDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "", "development", "local", "dev":
		return true
	}
	return false
}

func configForEnv(env string) zap.Config {
	cfg := zap.NewProductionConfig()
	if isDevelopment(env) {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Encoding = "json"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func resolveLevel(env, level string) (zap.AtomicLevel, error) {
	if strings.TrimSpace(level) != "" {
		var parsed zapcore.Level
		if err := parsed.Set(level); err != nil {
			return zap.AtomicLevel{}, fmt.Errorf("logger: invalid level %q: %w", level, err)
		}
		return zap.NewAtomicLevelAt(parsed), nil
	}
	if isDevelopment(env) {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel), nil
	}
	return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
}
