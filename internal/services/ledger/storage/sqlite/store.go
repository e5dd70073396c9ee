package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/goldtoken/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage/integrity"
	"github.com/louisbranch/goldtoken/internal/services/ledger/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func toNanos(value time.Time) int64 {
	return value.UTC().UnixNano()
}

func fromNanos(value int64) time.Time {
	return time.Unix(0, value).UTC()
}

// Store is a SQLite-backed ledger journal.
type Store struct {
	sqlDB    *sql.DB
	keyring  *integrity.Keyring
	ledgerID string
}

// Open opens the journal at path, applying embedded migrations. ledgerID
// scopes the signing key so journals of different ledgers cannot be
// spliced together.
func Open(ctx context.Context, path string, keyring *integrity.Keyring, ledgerID string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if keyring == nil {
		return nil, fmt.Errorf("event integrity keyring is required")
	}
	if strings.TrimSpace(ledgerID) == "" {
		return nil, fmt.Errorf("ledger id is required")
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.JournalFS, "journal"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, keyring: keyring, ledgerID: strings.TrimSpace(ledgerID)}, nil
}

// Close closes the underlying database. It is nil-safe.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}
