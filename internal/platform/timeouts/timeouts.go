// Package timeouts defines shared timeout constants used by the ledger
// server and its clients.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing the ledger service.
const GRPCDial = 2 * time.Second

// GRPCRequest caps the time allowed for a single ledgerctl request.
const GRPCRequest = 5 * time.Second

// Shutdown limits how long the server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// OTelShutdown limits how long pending spans may take to flush.
const OTelShutdown = 5 * time.Second
