// Package storage defines the ledger's persistence contracts.
package storage

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/trace"
)

var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrSequenceConflict indicates an append whose first sequence does not
	// follow the stored journal.
	ErrSequenceConflict = errors.New("journal sequence conflict")
)

// TraceQuery selects trace records by sequence range, account and filter.
type TraceQuery struct {
	// Account restricts results to records debiting or crediting it. The zero
	// address means every account.
	Account common.Address
	FromSeq uint64
	// ToSeq is inclusive. trace.Latest means no upper bound.
	ToSeq uint64
	// Filter is an AIP-160 expression over kind, from, to, reference,
	// successor, request_id, seq and ts.
	Filter string
	Limit  int
}

// TraceStore answers filtered trace queries from durable storage.
type TraceStore interface {
	QueryTrace(ctx context.Context, q TraceQuery) ([]trace.Record, error)
}
