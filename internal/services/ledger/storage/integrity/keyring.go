package integrity

import (
	"crypto/hkdf"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrSignatureMismatch indicates a chain hash whose signature does not verify.
var ErrSignatureMismatch = errors.New("signature mismatch")

// Keyring stores root HMAC keys and the active key id.
type Keyring struct {
	keys        map[string][]byte
	activeKeyID string
}

// NewKeyring constructs a keyring for HMAC signing and verification.
func NewKeyring(keys map[string][]byte, activeKeyID string) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("hmac keys are required")
	}
	activeKeyID = strings.TrimSpace(activeKeyID)
	if activeKeyID == "" {
		return nil, fmt.Errorf("active hmac key id is required")
	}
	if _, ok := keys[activeKeyID]; !ok {
		return nil, fmt.Errorf("active hmac key id %q is not configured", activeKeyID)
	}
	return &Keyring{keys: keys, activeKeyID: activeKeyID}, nil
}

// ActiveKeyID returns the configured signing key id.
func (k *Keyring) ActiveKeyID() string {
	if k == nil {
		return ""
	}
	return k.activeKeyID
}

// Sign returns the signature of chainHash under ledgerID's derived key and
// the id of the root key used.
func (k *Keyring) Sign(ledgerID, chainHash string) (signature, keyID string, err error) {
	if k == nil {
		return "", "", fmt.Errorf("hmac keyring is not configured")
	}
	key, err := deriveLedgerKey(k.keys[k.activeKeyID], ledgerID)
	if err != nil {
		return "", "", err
	}
	return hmacSHA256Hex(key, chainHash), k.activeKeyID, nil
}

// Verify checks a chain hash signature. Rotated-out keys still verify as long
// as they stay in the keyring.
func (k *Keyring) Verify(ledgerID, chainHash, signature, keyID string) error {
	if k == nil {
		return fmt.Errorf("hmac keyring is not configured")
	}
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return fmt.Errorf("signature key id is required")
	}
	rootKey, ok := k.keys[keyID]
	if !ok {
		return fmt.Errorf("signature key id %q is unknown", keyID)
	}
	key, err := deriveLedgerKey(rootKey, ledgerID)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(hmacSHA256Hex(key, chainHash)), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

func deriveLedgerKey(rootKey []byte, ledgerID string) ([]byte, error) {
	ledgerID = strings.TrimSpace(ledgerID)
	if ledgerID == "" {
		return nil, fmt.Errorf("ledger id is required")
	}
	key, err := hkdf.Key(sha256.New, rootKey, nil, "ledger:"+ledgerID, 32)
	if err != nil {
		return nil, fmt.Errorf("derive ledger key: %w", err)
	}
	return key, nil
}

func hmacSHA256Hex(key []byte, value string) string {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
