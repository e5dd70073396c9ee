// Package ledgerctl implements the ledger command line client.
package ledgerctl

import (
	"errors"
	"flag"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/goldtoken/internal/platform/cmd"
	"github.com/louisbranch/goldtoken/internal/platform/timeouts"
)

// Config holds ledgerctl configuration.
type Config struct {
	Addr string `env:"GOLDTOKEN_LEDGERCTL_ADDR" envDefault:"localhost:8090"`
	// Caller is the account commands are issued as.
	Caller string `env:"GOLDTOKEN_LEDGERCTL_CALLER"`
	// PrivateKey signs caller tokens. Empty sends the caller header instead.
	PrivateKey string        `env:"GOLDTOKEN_CALLER_TOKEN_PRIVATE_KEY"`
	Issuer     string        `env:"GOLDTOKEN_CALLER_TOKEN_ISSUER" envDefault:"goldtoken"`
	Audience   string        `env:"GOLDTOKEN_CALLER_TOKEN_AUDIENCE" envDefault:"goldtoken-ledger"`
	Locale     string        `env:"GOLDTOKEN_LEDGERCTL_LOCALE"`
	Timeout    time.Duration `env:"GOLDTOKEN_LEDGERCTL_TIMEOUT"`
	RequestID  string
	// Raw reads and prints amounts in base units instead of token units.
	Raw        bool
	JSONOutput bool

	Command string
	Args    []string
}

// ParseConfig parses environment and flags into a Config. The first
// positional argument names the command; the rest are its arguments.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.GRPCRequest
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "ledger server address")
	fs.StringVar(&cfg.Caller, "as", cfg.Caller, "caller account address")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "preferred error message language, e.g. pt-BR")
	fs.StringVar(&cfg.RequestID, "request-id", "", "request id recorded on committed events")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	fs.BoolVar(&cfg.Raw, "raw", false, "amounts are base units rather than token units")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "print responses as JSON")
	fs.Usage = func() { printUsage(fs.Output(), fs) }
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, errors.New("a command is required; run with -h for the list")
	}
	cfg.Command = strings.TrimSpace(rest[0])
	cfg.Args = rest[1:]
	return cfg, nil
}
