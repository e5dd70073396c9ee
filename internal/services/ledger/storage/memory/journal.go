// Package memory provides a process-local journal for tests and ephemeral
// ledgers.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage"
)

// Journal keeps sealed events in memory. It is safe for concurrent use.
type Journal struct {
	mu     sync.RWMutex
	events []event.Event
}

// NewJournal returns an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// AppendEvents seals and stores the batch, or nothing on error.
func (j *Journal) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	prevChain := ""
	if n := len(j.events); n > 0 {
		prevChain = j.events[n-1].ChainHash
	}
	next := uint64(len(j.events)) + 1
	sealed := make([]event.Event, len(events))
	for i, evt := range events {
		if evt.Seq != next+uint64(i) {
			return nil, fmt.Errorf("%w: expected seq %d, got %d", storage.ErrSequenceConflict, next+uint64(i), evt.Seq)
		}
		if err := event.Seal(&evt, prevChain); err != nil {
			return nil, err
		}
		prevChain = evt.ChainHash
		sealed[i] = evt
	}
	j.events = append(j.events, sealed...)
	return sealed, nil
}

// ListEvents returns up to limit events with Seq > afterSeq.
func (j *Journal) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	if afterSeq >= uint64(len(j.events)) {
		return nil, nil
	}
	end := uint64(len(j.events))
	if limit > 0 && afterSeq+uint64(limit) < end {
		end = afterSeq + uint64(limit)
	}
	return append([]event.Event(nil), j.events[afterSeq:end]...), nil
}

// Len returns the number of stored events.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.events)
}
