// Package ledger parses ledger server configuration and starts the runtime.
package ledger

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/goldtoken/internal/platform/cmd"
	"github.com/louisbranch/goldtoken/internal/services/ledger/api/grpc/auth"
	server "github.com/louisbranch/goldtoken/internal/services/ledger/app"
	ledgerdomain "github.com/louisbranch/goldtoken/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage/integrity"
	"go.uber.org/zap"
)

// Config holds ledger command configuration.
type Config struct {
	Port   int    `env:"GOLDTOKEN_LEDGER_PORT" envDefault:"8090"`
	Addr   string `env:"GOLDTOKEN_LEDGER_ADDR"`
	DBPath string `env:"GOLDTOKEN_LEDGER_DB_PATH" envDefault:"data/ledger.db"`
	// BootstrapPath is only read when the journal is empty.
	BootstrapPath string `env:"GOLDTOKEN_LEDGER_BOOTSTRAP"`
	LedgerID      string `env:"GOLDTOKEN_LEDGER_ID" envDefault:"goldtoken"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The ledger server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The ledger server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the sqlite journal")
	fs.StringVar(&cfg.BootstrapPath, "bootstrap", cfg.BootstrapPath, "TOML bootstrap used to seed an empty journal")
	fs.StringVar(&cfg.LedgerID, "ledger-id", cfg.LedgerID, "Ledger id that scopes journal signatures")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ListenAddr returns Addr, or ":<Port>" when Addr is empty.
func (c Config) ListenAddr() string {
	if addr := strings.TrimSpace(c.Addr); addr != "" {
		return addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Run starts the ledger API service.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	serverCfg, err := serverConfig(cfg, logger)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLedger, logger, func(ctx context.Context) error {
		return server.Run(ctx, serverCfg)
	})
}

// serverConfig resolves files and secrets named by cfg.
func serverConfig(cfg Config, logger *zap.Logger) (server.Config, error) {
	var bootstrap ledgerdomain.Bootstrap
	if path := strings.TrimSpace(cfg.BootstrapPath); path != "" {
		loaded, err := server.LoadBootstrap(path)
		if err != nil {
			return server.Config{}, err
		}
		bootstrap = loaded
	}
	keyring, err := integrity.KeyringFromEnv()
	if err != nil {
		return server.Config{}, err
	}
	authCfg, err := auth.LoadConfigFromEnv(time.Now)
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		Addr:      cfg.ListenAddr(),
		DBPath:    cfg.DBPath,
		LedgerID:  cfg.LedgerID,
		Bootstrap: bootstrap,
		Keyring:   keyring,
		Auth:      authCfg,
		Logger:    logger,
	}, nil
}
