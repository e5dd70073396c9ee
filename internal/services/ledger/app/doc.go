// Package server wires the ledger journal, state machine and gRPC API into
// a runnable process.
//
// Startup opens the sqlite journal with the configured HMAC keyring,
// replays it (or seeds it from the bootstrap when empty), and serves
// goldtoken.ledger.v1.LedgerService plus the standard health service.
package server
