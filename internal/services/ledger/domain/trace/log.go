package trace

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
)

// Latest is the open upper bound of a sequence range.
const Latest uint64 = math.MaxUint64

// ErrSequenceGap reports a commit whose first sequence does not follow the
// last committed one.
var ErrSequenceGap = errors.New("trace sequence gap")

type entry struct {
	evt    event.Event
	rec    Record
	traced bool
}

// Log is the append-only event arena. Committed entries are never modified,
// so iterators read a snapshot of the arena without holding the lock.
type Log struct {
	mu        sync.RWMutex
	entries   []entry
	byAccount map[common.Address][]uint64
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{byAccount: make(map[common.Address][]uint64)}
}

// LastSeq returns the last committed sequence number, 0 when empty.
func (l *Log) LastSeq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.entries))
}

// Stage assigns contiguous sequence numbers following the last committed
// event. Nothing is recorded until Commit.
func (l *Log) Stage(events []event.Event) []event.Event {
	next := l.LastSeq() + 1
	staged := make([]event.Event, len(events))
	for i, evt := range events {
		evt.Seq = next + uint64(i)
		staged[i] = evt
	}
	return staged
}

// Commit appends a contiguous batch. Either the whole batch is recorded or
// none of it is.
func (l *Log) Commit(events []event.Event) error {
	if len(events) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	expected := uint64(len(l.entries)) + 1
	batch := make([]entry, len(events))
	for i, evt := range events {
		if evt.Seq != expected+uint64(i) {
			return fmt.Errorf("%w: expected seq %d, got %d", ErrSequenceGap, expected+uint64(i), evt.Seq)
		}
		rec, traced, err := Project(evt)
		if err != nil {
			return err
		}
		batch[i] = entry{evt: evt, rec: rec, traced: traced}
	}

	l.entries = append(l.entries, batch...)
	for _, e := range batch {
		if !e.traced {
			continue
		}
		l.index(e.rec.From, e.rec.Seq)
		if e.rec.To != e.rec.From {
			l.index(e.rec.To, e.rec.Seq)
		}
	}
	return nil
}

func (l *Log) index(account common.Address, seq uint64) {
	if address.IsZero(account) {
		return
	}
	l.byAccount[account] = append(l.byAccount[account], seq)
}

// Event returns the committed event with the given sequence number.
func (l *Log) Event(seq uint64) (event.Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if seq == 0 || seq > uint64(len(l.entries)) {
		return event.Event{}, false
	}
	return l.entries[seq-1].evt, true
}

// Record returns the trace record with the given sequence number. ok is
// false when seq is unknown or names an event that moves no balance.
func (l *Log) Record(seq uint64) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if seq == 0 || seq > uint64(len(l.entries)) {
		return Record{}, false
	}
	e := l.entries[seq-1]
	return e.rec, e.traced
}

// Events yields committed events with Seq > afterSeq in order.
func (l *Log) Events(afterSeq uint64) iter.Seq[event.Event] {
	return func(yield func(event.Event) bool) {
		entries := l.snapshot()
		for i := afterSeq; i < uint64(len(entries)); i++ {
			if !yield(entries[i].evt) {
				return
			}
		}
	}
}

// Records yields every trace record with fromSeq <= Seq <= toSeq. Pass
// Latest for an open range.
func (l *Log) Records(fromSeq, toSeq uint64) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		entries := l.snapshot()
		start := max(fromSeq, 1)
		end := min(uint64(len(entries)), toSeq)
		for seq := start; seq <= end; seq++ {
			e := entries[seq-1]
			if !e.traced {
				continue
			}
			if !yield(e.rec) {
				return
			}
		}
	}
}

// Query yields the trace records touching account with fromSeq <= Seq <=
// toSeq, ascending. Pass Latest for an open range. Each range over the
// returned sequence starts afresh from the committed log.
func (l *Log) Query(account common.Address, fromSeq, toSeq uint64) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		l.mu.RLock()
		entries := l.entries
		seqs := l.byAccount[account]
		l.mu.RUnlock()

		start, _ := slices.BinarySearch(seqs, fromSeq)
		for _, seq := range seqs[start:] {
			if seq > toSeq {
				return
			}
			if !yield(entries[seq-1].rec) {
				return
			}
		}
	}
}

func (l *Log) snapshot() []entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries
}
