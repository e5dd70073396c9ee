// Command ledgerctl issues commands and queries against a ledger server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	ledgerctl "github.com/louisbranch/goldtoken/internal/cmd/ledgerctl"
	entrypoint "github.com/louisbranch/goldtoken/internal/platform/cmd"
	"github.com/louisbranch/goldtoken/internal/platform/config"
	"github.com/louisbranch/goldtoken/internal/platform/logging"
)

func main() {
	cfg, err := ledgerctl.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	logger, err := logging.NewFromEnv(entrypoint.ServiceLedgerCtl)
	if err != nil {
		config.Exitf("Error: build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ledgerctl.Run(ctx, cfg, os.Stdout, logger); err != nil {
		_ = logger.Sync()
		ledgerctl.Exit(err)
	}
}
