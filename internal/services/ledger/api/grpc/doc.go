// Package grpc groups the ledger's gRPC transport: request metadata, caller
// authentication and the LedgerService itself.
package grpc
