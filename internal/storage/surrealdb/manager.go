// Package surrealdb implements interfaces.StorageManager on SurrealDB.
//
// Writes made inside RunInTx are buffered and sent as a single
// BEGIN/COMMIT TRANSACTION script when the unit succeeds. Reads inside a unit
// see committed state; units in one process are serialised by the Manager.
package surrealdb

import (
	"context"
	"fmt"
	"sync"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// tsLayout keeps stored timestamps fixed width so string ordering is time ordering.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

var tables = []string{"account", "ledger_entry", "trade", "instrument", "price_point", "account_group", "group_member", "counter"}

var indexes = []string{
	"DEFINE INDEX IF NOT EXISTS ledger_from ON ledger_entry FIELDS account_id_from",
	"DEFINE INDEX IF NOT EXISTS ledger_to ON ledger_entry FIELDS account_id_to",
	"DEFINE INDEX IF NOT EXISTS trade_account ON trade FIELDS account_id",
	"DEFINE INDEX IF NOT EXISTS price_name ON price_point FIELDS name, observed_at",
	"DEFINE INDEX IF NOT EXISTS group_name ON account_group FIELDS name UNIQUE",
}

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger
	mu     sync.Mutex
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)

// NewManager creates a new StorageManager connected to SurrealDB.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()
	cfg := config.Storage.SurrealDB

	// Connect to SurrealDB
	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	// Sign in
	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	// Select namespace and database
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	m, err := newManager(ctx, db, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

// newManager defines the schema on an already selected database.
func newManager(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*Manager, error) {
	// SurrealDB v3 errors on querying non-existent tables
	for _, table := range tables {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}
	for _, sql := range indexes {
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define index: %w", err)
		}
	}
	return &Manager{db: db, logger: logger}, nil
}

// RunInTx runs fn with buffered writes and commits them as one transaction.
func (m *Manager) RunInTx(ctx context.Context, fn interfaces.TxFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := newBatch()
	if err := fn(ctx, unit{session{m: m, batch: b}}); err != nil {
		m.logger.Debug().Err(err).Int("statements", b.len()).Msg("SurrealDB unit of work discarded")
		return err
	}
	if b.len() == 0 {
		return nil
	}

	results, err := surrealdb.Query[any](ctx, m.db, b.script(), b.vars)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	if results != nil {
		for i, r := range *results {
			if r.Status != "OK" {
				return fmt.Errorf("failed to commit transaction: statement %d returned %s", i, r.Status)
			}
		}
	}
	return nil
}

func (m *Manager) Accounts() interfaces.AccountStore       { return accountRepo{session{m: m}} }
func (m *Manager) Ledger() interfaces.LedgerStore          { return ledgerRepo{session{m: m}} }
func (m *Manager) Trades() interfaces.TradeStore           { return tradeRepo{session{m: m}} }
func (m *Manager) Instruments() interfaces.InstrumentStore { return instrumentRepo{session{m: m}} }
func (m *Manager) Prices() interfaces.PriceStore           { return priceRepo{session{m: m}} }
func (m *Manager) Groups() interfaces.GroupStore           { return groupRepo{session{m: m}} }
func (m *Manager) Backend() string                         { return common.BackendSurrealDB }

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// nextID increments the named counter. Ids taken by a discarded unit are
// not reused.
func (m *Manager) nextID(ctx context.Context, name string) (int64, error) {
	type seqResult struct {
		Seq int64 `json:"seq"`
	}
	rows, err := query[seqResult](ctx, m.db, "UPSERT $rid SET seq = (seq OR 0) + 1 RETURN seq", map[string]any{
		"rid": surrealmodels.NewRecordID("counter", name),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", name, err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("failed to allocate %s id: empty result", name)
	}
	return rows[0].Seq, nil
}

// session routes writes to the unit's batch, or straight to the database
// outside a unit.
type session struct {
	m     *Manager
	batch *batch
}

func (s session) db() *surrealdb.DB {
	return s.m.db
}

func (s session) write(ctx context.Context, sql string, vars map[string]any) error {
	if s.batch != nil {
		s.batch.add(sql, vars)
		return nil
	}
	_, err := surrealdb.Query[any](ctx, s.m.db, sql, vars)
	return err
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

// query runs a single statement and returns its rows.
func query[T any](ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) ([]T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, sql, vars)
	if err != nil {
		return nil, err
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}
