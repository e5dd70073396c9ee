package integrity

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	envHMACKeys  = "GOLDTOKEN_LEDGER_EVENT_HMAC_KEYS"
	envHMACKey   = "GOLDTOKEN_LEDGER_EVENT_HMAC_KEY"
	envHMACKeyID = "GOLDTOKEN_LEDGER_EVENT_HMAC_KEY_ID"
)

type keyringEnv struct {
	// Keys is a comma-separated list of id=secret pairs.
	Keys  string `env:"GOLDTOKEN_LEDGER_EVENT_HMAC_KEYS"`
	Key   string `env:"GOLDTOKEN_LEDGER_EVENT_HMAC_KEY"`
	KeyID string `env:"GOLDTOKEN_LEDGER_EVENT_HMAC_KEY_ID" envDefault:"v1"`
}

// KeyringFromEnv loads the HMAC keyring from the environment. A single key
// may be given on its own; rotation uses the id=secret list form.
func KeyringFromEnv() (*Keyring, error) {
	var cfg keyringEnv
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse keyring env: %w", err)
	}
	keyID := strings.TrimSpace(cfg.KeyID)

	spec := strings.TrimSpace(cfg.Keys)
	if spec == "" {
		raw := strings.TrimSpace(cfg.Key)
		if raw == "" {
			return nil, fmt.Errorf("%s or %s is required", envHMACKey, envHMACKeys)
		}
		return NewKeyring(map[string][]byte{keyID: []byte(raw)}, keyID)
	}

	keys := make(map[string][]byte)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, value, ok := strings.Cut(entry, "=")
		id, value = strings.TrimSpace(id), strings.TrimSpace(value)
		if !ok || id == "" || value == "" {
			return nil, fmt.Errorf("invalid %s entry", envHMACKeys)
		}
		keys[id] = []byte(value)
	}
	if _, ok := keys[keyID]; !ok {
		return nil, fmt.Errorf("%s=%q is not listed in %s", envHMACKeyID, keyID, envHMACKeys)
	}
	return NewKeyring(keys, keyID)
}
