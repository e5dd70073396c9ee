package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/address"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/amount"
	"github.com/louisbranch/goldtoken/internal/services/ledger/domain/trace"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage/filter"
)

const defaultTraceLimit = 200

// QueryTrace returns trace records matching q in ascending sequence order.
func (s *Store) QueryTrace(ctx context.Context, q storage.TraceQuery) ([]trace.Record, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	cond, err := filter.ParseTraceFilter(q.Filter)
	if err != nil {
		return nil, err
	}

	clauses := []string{"trace_kind IS NOT NULL", "seq >= ?"}
	params := []any{int64(q.FromSeq)}
	if q.ToSeq < math.MaxInt64 {
		clauses = append(clauses, "seq <= ?")
		params = append(params, int64(q.ToSeq))
	}
	if !address.IsZero(q.Account) {
		key := address.Key(q.Account)
		clauses = append(clauses, "(trace_from = ? OR trace_to = ?)")
		params = append(params, key, key)
	}
	if cond.Clause != "" {
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultTraceLimit
	}
	params = append(params, limit)

	query := `SELECT seq, trace_kind, trace_from, trace_to, trace_amount, trace_reference, trace_successor, timestamp_ns
FROM events WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY seq LIMIT ?`
	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	var out []trace.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace: %w", err)
	}
	return out, nil
}

func scanRecord(row rowScanner) (trace.Record, error) {
	var (
		seq, ts                int64
		kind, from, to, amt    string
		reference, successorID sql.NullString
	)
	if err := row.Scan(&seq, &kind, &from, &to, &amt, &reference, &successorID, &ts); err != nil {
		return trace.Record{}, fmt.Errorf("scan trace: %w", err)
	}
	rec := trace.Record{
		Seq:               uint64(seq),
		Kind:              trace.Kind(kind),
		ExternalReference: reference.String,
		Timestamp:         fromNanos(ts),
	}
	var err error
	if rec.From, err = address.Parse(from); err != nil {
		return trace.Record{}, fmt.Errorf("trace seq %d from: %w", seq, err)
	}
	if rec.To, err = address.Parse(to); err != nil {
		return trace.Record{}, fmt.Errorf("trace seq %d to: %w", seq, err)
	}
	if rec.Amount, err = amount.Parse(amt); err != nil {
		return trace.Record{}, fmt.Errorf("trace seq %d amount: %w", seq, err)
	}
	if successorID.Valid {
		successor, err := address.Parse(successorID.String)
		if err != nil {
			return trace.Record{}, fmt.Errorf("trace seq %d successor: %w", seq, err)
		}
		rec.Successor = &successor
	}
	return rec, nil
}
