// Package sqlite implements interfaces.StorageManager on an embedded SQLite
// database. Money columns are TEXT with fixed scale; timestamps are fixed
// width UTC TEXT so they order lexically.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/interfaces"

	_ "modernc.org/sqlite"
)

// tsLayout keeps every stored timestamp the same width.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements interfaces.StorageManager.
type Store struct {
	db     *sql.DB
	path   string
	logger *common.Logger
}

// Compile-time check
var _ interfaces.StorageManager = (*Store)(nil)

// NewStore opens (creating if needed) the database at path and applies
// pending migrations. A single connection serialises writers; transactions
// start with BEGIN IMMEDIATE.
func NewStore(path string, logger *common.Logger) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)&_txlock=immediate", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	if err := Migrate(db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("SQLite storage opened")
	return &Store{db: db, path: path, logger: logger}, nil
}

// RunInTx runs fn inside one database transaction. Calls through the Store's
// own accessors from inside fn block until the unit finishes.
func (s *Store) RunInTx(ctx context.Context, fn interfaces.TxFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(ctx, unit{session{q: tx}}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn().Err(rbErr).Msg("Failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Accounts() interfaces.AccountStore       { return accountRepo{s.session()} }
func (s *Store) Ledger() interfaces.LedgerStore          { return ledgerRepo{s.session()} }
func (s *Store) Trades() interfaces.TradeStore           { return tradeRepo{s.session()} }
func (s *Store) Instruments() interfaces.InstrumentStore { return instrumentRepo{s.session()} }
func (s *Store) Prices() interfaces.PriceStore           { return priceRepo{s.session()} }
func (s *Store) Groups() interfaces.GroupStore           { return groupRepo{s.session()} }
func (s *Store) Backend() string                         { return common.BackendSQLite }

// SchemaVersion reports the applied migration version and whether the last
// migration left the schema dirty.
func (s *Store) SchemaVersion(ctx context.Context) (uint, bool, error) {
	var (
		version int64
		dirty   bool
	)
	err := s.db.QueryRowContext(ctx, "SELECT version, dirty FROM "+migrationsTable+" LIMIT 1").Scan(&version, &dirty)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return uint(version), dirty, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close sqlite database: %w", err)
	}
	return nil
}

func (s *Store) session() session {
	return session{q: s.db, db: s.db}
}

// session binds repositories to either the database or a transaction. db is
// set only outside a unit of work.
type session struct {
	q  querier
	db *sql.DB
}

// atomic runs fn in its own transaction when the session is not already in
// one.
func (s session) atomic(ctx context.Context, fn func(q querier) error) error {
	if s.db == nil {
		return fn(s.q)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

type unit struct {
	session
}

func (u unit) Accounts() interfaces.AccountStore       { return accountRepo{u.session} }
func (u unit) Ledger() interfaces.LedgerStore          { return ledgerRepo{u.session} }
func (u unit) Trades() interfaces.TradeStore           { return tradeRepo{u.session} }
func (u unit) Instruments() interfaces.InstrumentStore { return instrumentRepo{u.session} }
func (u unit) Prices() interfaces.PriceStore           { return priceRepo{u.session} }
func (u unit) Groups() interfaces.GroupStore           { return groupRepo{u.session} }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scopeClause(scope interfaces.Scope) string {
	if scope == interfaces.ScopeAll {
		return ""
	}
	return " WHERE deleted = 0"
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
