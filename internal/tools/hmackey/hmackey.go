// Package hmackey generates journal signing keys.
package hmackey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// minBytes is the shortest key Run will generate.
const minBytes = 16

// Config holds configuration for HMAC key generation.
type Config struct {
	Bytes int
	// KeyID names the key in the keyring so it can be rotated later.
	KeyID string
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Bytes: 32, KeyID: "v1"}
	fs.IntVar(&cfg.Bytes, "bytes", cfg.Bytes, "number of random bytes")
	fs.StringVar(&cfg.KeyID, "id", cfg.KeyID, "key id recorded with every signature")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates the key and writes the journal keyring exports to out.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if cfg.Bytes < minBytes {
		return fmt.Errorf("bytes must be at least %d", minBytes)
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" || strings.ContainsAny(keyID, "=, \t") {
		return fmt.Errorf("key id %q must be non-empty without '=', ',' or spaces", cfg.KeyID)
	}
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	buf := make([]byte, cfg.Bytes)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return fmt.Errorf("generate random bytes: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export GOLDTOKEN_LEDGER_EVENT_HMAC_KEY=%s\n", hex.EncodeToString(buf)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "export GOLDTOKEN_LEDGER_EVENT_HMAC_KEY_ID=%s\n", keyID)
	return err
}
