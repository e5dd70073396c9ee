package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewAppliesLevel(t *testing.T) {
	logger, err := New("ledger", Config{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level to be enabled")
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "level", cfg: Config{Level: "loud", Format: "json"}},
		{name: "format", cfg: Config{Level: "info", Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New("ledger", tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("GOLDTOKEN_LOG_LEVEL", "")
	t.Setenv("GOLDTOKEN_LOG_FORMAT", "console")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Level != "info" || cfg.Format != "console" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	logger, err := New("ledger", cfg)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug disabled at info level")
	}
}
