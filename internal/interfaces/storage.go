// Package interfaces defines service contracts for Tracket
package interfaces

import (
	"context"
	"errors"

	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
)

// ErrNotFound is returned by store mutations addressed to a missing record.
// Lookups report absence as a nil result instead.
var ErrNotFound = errors.New("record not found")

// Scope is the single soft-delete predicate applied at the repository boundary.
type Scope int

const (
	// ScopeActive excludes soft-deleted records.
	ScopeActive Scope = iota
	// ScopeAll includes soft-deleted records.
	ScopeAll
)

// Includes reports whether a record with the given deleted flag is in scope.
func (s Scope) Includes(deleted bool) bool {
	return s == ScopeAll || !deleted
}

// Repositories groups the per-entity stores. Inside RunInTx every accessor is
// bound to the same unit of work.
type Repositories interface {
	Accounts() AccountStore
	Ledger() LedgerStore
	Trades() TradeStore
	Instruments() InstrumentStore
	Prices() PriceStore
	Groups() GroupStore
}

// TxFunc is the body of a unit of work.
type TxFunc func(ctx context.Context, repos Repositories) error

// StorageManager coordinates the storage backend
type StorageManager interface {
	Repositories

	// RunInTx runs fn as one atomic unit. Nothing fn writes is visible when it
	// returns an error, and concurrent units never observe partial writes.
	RunInTx(ctx context.Context, fn TxFunc) error

	// Backend names the storage engine ("memory", "sqlite", "surrealdb").
	Backend() string

	// Lifecycle
	Close() error
}

// AccountStore persists accounts and their materialised cash balances.
type AccountStore interface {
	// FindByID returns nil, nil when the account does not exist.
	// Deleted accounts are returned with Deleted set.
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	// Create assigns the id, stores the account and returns the id.
	Create(ctx context.Context, account *models.Account) (int64, error)
	UpdateDetails(ctx context.Context, id int64, name, description string) error
	SoftDelete(ctx context.Context, id int64) error
	// AdjustBalance applies balance = balance + delta inside the store.
	AdjustBalance(ctx context.Context, id int64, delta money.Money) error
	List(ctx context.Context, scope Scope) ([]*models.Account, error)
}

// LedgerStore is the append-only audit log of money movements.
type LedgerStore interface {
	Append(ctx context.Context, entry *models.LedgerEntry) (int64, error)
	// PageByAccount lists entries where the account is the source or the
	// destination, newest first.
	PageByAccount(ctx context.Context, accountID int64, page, size int) (models.Page[models.LedgerEntry], error)
}

// TradeStore is the append-only trade log.
type TradeStore interface {
	FindByAccount(ctx context.Context, accountID int64) ([]*models.Trade, error)
	// FindByID returns nil, nil when the trade does not exist.
	FindByID(ctx context.Context, id int64) (*models.Trade, error)
	Save(ctx context.Context, trade *models.Trade) (int64, error)
	// PageByAccount lists an account's trades newest first.
	PageByAccount(ctx context.Context, accountID int64, page, size int) (models.Page[models.Trade], error)
}

// PositionAggregator is optionally implemented by a TradeStore that can fold
// trades into positions itself. Rows must match the in-core fold exactly,
// including the exclusion of deleted accounts and instruments.
type PositionAggregator interface {
	AggregatePositions(ctx context.Context, accountID int64) ([]*models.Position, error)
}

// InstrumentStore persists tradable instruments keyed by name.
type InstrumentStore interface {
	// FindByName returns nil, nil when the instrument does not exist.
	FindByName(ctx context.Context, name string) (*models.Instrument, error)
	// Save creates or replaces the instrument.
	Save(ctx context.Context, instrument *models.Instrument) error
	SoftDelete(ctx context.Context, name string) error
	List(ctx context.Context, scope Scope) ([]*models.Instrument, error)
}

// GroupStore persists account groups and their membership.
type GroupStore interface {
	// FindByID returns nil, nil when the group does not exist.
	FindByID(ctx context.Context, id int64) (*models.AccountGroup, error)
	// FindByName returns nil, nil when the group does not exist.
	FindByName(ctx context.Context, name string) (*models.AccountGroup, error)
	// Create assigns the id, stores the group and returns the id.
	Create(ctx context.Context, group *models.AccountGroup) (int64, error)
	// List returns every group ordered by id.
	List(ctx context.Context) ([]*models.AccountGroup, error)
	// AddMember is a no-op when the account is already in the group.
	AddMember(ctx context.Context, groupID, accountID int64) error
	// RemoveMember is a no-op when the account is not in the group.
	RemoveMember(ctx context.Context, groupID, accountID int64) error
	// Members returns all assignments ordered by group id, then account id.
	Members(ctx context.Context) ([]models.GroupMember, error)
}

// PriceOracle returns the most recent known price for an instrument.
type PriceOracle interface {
	// LatestPrice returns nil, nil when no price point exists.
	LatestPrice(ctx context.Context, instrument string) (*models.PricePoint, error)
}

// PriceStore is a PriceOracle that also accepts new observations.
type PriceStore interface {
	PriceOracle
	RecordPrice(ctx context.Context, point *models.PricePoint) error
}

// PriceCache is notified when a price is recorded so cached lookups refresh.
type PriceCache interface {
	Invalidate(instrument string)
}
