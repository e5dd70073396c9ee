// Package callerkey generates the Ed25519 keypair used to sign and verify
// ledger caller tokens.
package callerkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	privateKeyEnv = "GOLDTOKEN_CALLER_TOKEN_PRIVATE_KEY"
	publicKeyEnv  = "GOLDTOKEN_CALLER_TOKEN_PUBLIC_KEY"
)

// Run generates a keypair and writes shell exports for ledgerctl (private
// key) and the ledger server (public key).
func Run(out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate caller token key: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export %s=%s\n", privateKeyEnv, base64.RawStdEncoding.EncodeToString(privateKey)); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "export %s=%s\n", publicKeyEnv, base64.RawStdEncoding.EncodeToString(publicKey))
	return err
}
