// Package logging builds the zap logger shared by the engine, the recognizer
// client and the CLI. Logs always go to stderr so stdout stays reserved for
// scan output.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment selects the baseline logger profile.
type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentDevelopment Environment = "development"
	EnvironmentLocal       Environment = "local"
)

// Config holds logger construction inputs. Zero values mean production
// profile at warn level.
type Config struct {
	Environment Environment
	Level       string
}

func (c Config) environment() (Environment, error) {
	switch env := Environment(strings.ToLower(strings.TrimSpace(string(c.Environment)))); env {
	case "":
		return EnvironmentProduction, nil
	case EnvironmentProduction, EnvironmentDevelopment, EnvironmentLocal:
		return env, nil
	default:
		return "", fmt.Errorf("invalid environment %q", c.Environment)
	}
}

// New builds a logger and returns it with its runtime-adjustable level.
func New(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	env, err := cfg.environment()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid logging config: %w", err)
	}
	level, err := resolveLevel(cfg.Level, env)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	base := profile(env)
	base.Level = level
	base.DisableStacktrace = true
	base.OutputPaths = []string{"stderr"}
	base.ErrorOutputPaths = []string{"stderr"}

	logger, err := base.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Named("promptscan"), level, nil
}

func resolveLevel(raw string, env Environment) (zap.AtomicLevel, error) {
	if strings.TrimSpace(raw) != "" {
		var parsed zapcore.Level
		if err := parsed.Set(strings.TrimSpace(raw)); err != nil {
			return zap.AtomicLevel{}, fmt.Errorf("invalid level %q: %w", raw, err)
		}
		return zap.NewAtomicLevelAt(parsed), nil
	}
	if env == EnvironmentDevelopment || env == EnvironmentLocal {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel), nil
	}
	return zap.NewAtomicLevelAt(zapcore.WarnLevel), nil
}

func profile(env Environment) zap.Config {
	if env == EnvironmentLocal {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}
	if env == EnvironmentDevelopment {
		cfg := zap.NewDevelopmentConfig()
		cfg.Encoding = "json"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		return cfg
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}
