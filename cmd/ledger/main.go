// Command ledger serves the goldtoken ledger over gRPC.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	ledgercmd "github.com/louisbranch/goldtoken/internal/cmd/ledger"
	entrypoint "github.com/louisbranch/goldtoken/internal/platform/cmd"
	"github.com/louisbranch/goldtoken/internal/platform/config"
	"github.com/louisbranch/goldtoken/internal/platform/logging"
	"go.uber.org/zap"
)

func main() {
	cfg, err := ledgercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	logger, err := logging.NewFromEnv(entrypoint.ServiceLedger)
	if err != nil {
		config.Exitf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ledgercmd.Run(ctx, cfg, logger); err != nil {
		logger.Error("ledger stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
