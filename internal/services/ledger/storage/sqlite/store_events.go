package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/event"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/trace"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage/integrity"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const eventColumns = `seq, event_type, timestamp_ns, actor_type, actor_id, request_id, command_type,
payload_json, event_hash, prev_hash, chain_hash, signature_key_id, signature`

const insertEventSQL = `INSERT INTO events (` + eventColumns + `,
trace_kind, trace_from, trace_to, trace_amount, trace_reference, trace_successor)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// AppendEvents seals, signs and stores a contiguous batch in one
// transaction. The first event must follow the last stored sequence.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	lastSeq, prevChain, err := lastLink(ctx, tx)
	if err != nil {
		return nil, err
	}

	stored := make([]event.Event, len(events))
	for i, evt := range events {
		want := lastSeq + 1 + uint64(i)
		if evt.Seq != want {
			return nil, fmt.Errorf("%w: expected seq %d, got %d", storage.ErrSequenceConflict, want, evt.Seq)
		}
		evt.Timestamp = fromNanos(toNanos(evt.Timestamp))
		if err := integrity.SealAndSign(s.keyring, s.ledgerID, &evt, prevChain); err != nil {
			return nil, fmt.Errorf("seal seq %d: %w", evt.Seq, err)
		}
		cols, err := traceColumns(evt)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, insertEventSQL, append([]any{
			int64(evt.Seq), string(evt.Type), toNanos(evt.Timestamp), string(evt.ActorType),
			evt.ActorID, evt.RequestID, evt.CommandType, evt.PayloadJSON,
			evt.Hash, evt.PrevHash, evt.ChainHash, evt.SignatureKeyID, evt.Signature,
		}, cols...)...); err != nil {
			if isConstraintError(err) {
				return nil, fmt.Errorf("%w: seq %d: %v", storage.ErrSequenceConflict, evt.Seq, err)
			}
			return nil, fmt.Errorf("append seq %d: %w", evt.Seq, err)
		}
		prevChain = evt.ChainHash
		stored[i] = evt
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

func lastLink(ctx context.Context, tx *sql.Tx) (uint64, string, error) {
	var (
		seq   int64
		chain string
	)
	err := tx.QueryRowContext(ctx, "SELECT seq, chain_hash FROM events ORDER BY seq DESC LIMIT 1").Scan(&seq, &chain)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("load last event: %w", err)
	}
	return uint64(seq), chain, nil
}

// traceColumns projects the trace columns of evt, all NULL for events that
// do not move balances.
func traceColumns(evt event.Event) ([]any, error) {
	rec, ok, err := trace.Project(evt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []any{nil, nil, nil, nil, nil, nil}, nil
	}
	var reference, successor sql.NullString
	if rec.ExternalReference != "" {
		reference = sql.NullString{String: rec.ExternalReference, Valid: true}
	}
	if rec.Successor != nil {
		successor = sql.NullString{String: address.Key(*rec.Successor), Valid: true}
	}
	return []any{
		string(rec.Kind), address.Key(rec.From), address.Key(rec.To), rec.Amount.String(), reference, successor,
	}, nil
}

// ListEvents returns up to limit events with Seq > afterSeq in order. A
// limit of 0 or less returns every remaining event.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE seq > ? ORDER BY seq LIMIT ?",
		int64(afterSeq), limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// GetEventBySeq returns one event or storage.ErrNotFound.
func (s *Store) GetEventBySeq(ctx context.Context, seq uint64) (event.Event, error) {
	if err := s.ready(ctx); err != nil {
		return event.Event{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE seq = ?", int64(seq))
	evt, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, storage.ErrNotFound
	}
	return evt, err
}

// LatestSeq returns the last stored sequence, 0 for an empty journal.
func (s *Store) LatestSeq(ctx context.Context) (uint64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var seq int64
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM events").Scan(&seq); err != nil {
		return 0, fmt.Errorf("latest seq: %w", err)
	}
	return uint64(seq), nil
}

// VerifyEventIntegrity walks the whole journal checking sequence
// contiguity, content hashes, chain links and signatures.
func (s *Store) VerifyEventIntegrity(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	verifier := integrity.NewVerifier(s.keyring, s.ledgerID)
	for {
		events, err := s.ListEvents(ctx, verifier.LastSeq(), 200)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		for _, evt := range events {
			if err := verifier.Check(evt); err != nil {
				return fmt.Errorf("journal integrity: %w", err)
			}
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		evt       event.Event
		seq, ts   int64
		eventType string
		actorType string
	)
	if err := row.Scan(&seq, &eventType, &ts, &actorType, &evt.ActorID, &evt.RequestID, &evt.CommandType,
		&evt.PayloadJSON, &evt.Hash, &evt.PrevHash, &evt.ChainHash, &evt.SignatureKeyID, &evt.Signature); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, err
		}
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}
	evt.Seq = uint64(seq)
	evt.Type = event.Type(eventType)
	evt.Timestamp = fromNanos(ts)
	evt.ActorType = event.ActorType(actorType)
	return evt, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
