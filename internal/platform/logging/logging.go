// Package logging builds the zap loggers shared by goldtoken binaries.
package logging

import (
	"fmt"
	"strings"

	"github.com/louisbranch/goldtoken/internal/platform/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger level and output encoding.
type Config struct {
	Level  string `env:"GOLDTOKEN_LOG_LEVEL" envDefault:"info"`
	Format string `env:"GOLDTOKEN_LOG_FORMAT" envDefault:"json"`
}

// ConfigFromEnv reads GOLDTOKEN_LOG_LEVEL and GOLDTOKEN_LOG_FORMAT.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// New returns a production logger named after service. Format "console"
// switches to the human readable encoder used during local development.
func New(service string, cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
	case "console":
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("log format %q: want json or console", cfg.Format)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named(service), nil
}

// NewFromEnv combines ConfigFromEnv and New.
func NewFromEnv(service string) (*zap.Logger, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(service, cfg)
}
