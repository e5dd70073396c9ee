// Command caller-key prints a fresh Ed25519 keypair for ledger caller
// tokens as shell exports.
package main

import (
	"os"

	"github.com/louisbranch/goldtoken/internal/platform/config"
	"github.com/louisbranch/goldtoken/internal/tools/callerkey"
)

func main() {
	if err := callerkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate caller key: %v", err)
	}
}
