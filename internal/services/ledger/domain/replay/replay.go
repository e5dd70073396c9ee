// Package replay rebuilds folded state from the journal.
package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
)

const defaultPageSize = 500

var (
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrApplierRequired indicates a missing applier.
	ErrApplierRequired = errors.New("applier is required")
	// ErrSequenceGap indicates a missing or repeated sequence number.
	ErrSequenceGap = errors.New("event sequence gap")
)

// EventStore lists journal events in sequence order.
type EventStore interface {
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
}

// Applier folds one event.
type Applier interface {
	Apply(evt event.Event) error
}

// ApplierFunc adapts a function to Applier.
type ApplierFunc func(evt event.Event) error

func (f ApplierFunc) Apply(evt event.Event) error { return f(evt) }

// Options configures replay behavior.
type Options struct {
	AfterSeq uint64
	UntilSeq uint64
	PageSize int
}

// Result captures replay outcomes.
type Result struct {
	LastSeq uint64
	Applied int
}

// Replay pages through the store and applies events strictly in sequence.
func Replay(ctx context.Context, store EventStore, applier Applier, options Options) (Result, error) {
	if store == nil {
		return Result{}, ErrEventStoreRequired
	}
	if applier == nil {
		return Result{}, ErrApplierRequired
	}
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result := Result{LastSeq: options.AfterSeq}
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		events, err := store.ListEvents(ctx, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(events) == 0 {
			return result, nil
		}
		for _, evt := range events {
			if options.UntilSeq > 0 && evt.Seq > options.UntilSeq {
				return result, nil
			}
			expectedSeq := result.LastSeq + 1
			if evt.Seq != expectedSeq {
				return result, fmt.Errorf("%w: expected %d got %d", ErrSequenceGap, expectedSeq, evt.Seq)
			}
			if err := applier.Apply(evt); err != nil {
				return result, fmt.Errorf("replay seq %d: %w", evt.Seq, err)
			}
			result.LastSeq = evt.Seq
			result.Applied++
		}
	}
}
