// Package memory implements interfaces.StorageManager in process memory.
// One store-wide mutex serialises units of work; a failed unit restores the
// snapshot taken when it started.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
)

type dataset struct {
	accounts    map[int64]models.Account
	ledger      []models.LedgerEntry
	trades      map[int64]models.Trade
	instruments map[string]models.Instrument
	prices      map[string][]models.PricePoint
	groups      map[int64]models.AccountGroup
	members     map[models.GroupMember]struct{}

	nextAccountID int64
	nextEntryID   int64
	nextTradeID   int64
	nextGroupID   int64
}

func newDataset() *dataset {
	return &dataset{
		accounts:    make(map[int64]models.Account),
		trades:      make(map[int64]models.Trade),
		instruments: make(map[string]models.Instrument),
		prices:      make(map[string][]models.PricePoint),
		groups:      make(map[int64]models.AccountGroup),
		members:     make(map[models.GroupMember]struct{}),
	}
}

// clone copies every container. Records are stored by value so a shallow
// copy of each map is a full snapshot.
func (d *dataset) clone() *dataset {
	c := &dataset{
		accounts:      maps.Clone(d.accounts),
		ledger:        append([]models.LedgerEntry(nil), d.ledger...),
		trades:        maps.Clone(d.trades),
		instruments:   maps.Clone(d.instruments),
		prices:        make(map[string][]models.PricePoint, len(d.prices)),
		groups:        maps.Clone(d.groups),
		members:       maps.Clone(d.members),
		nextAccountID: d.nextAccountID,
		nextEntryID:   d.nextEntryID,
		nextTradeID:   d.nextTradeID,
		nextGroupID:   d.nextGroupID,
	}
	for k, v := range d.prices {
		c.prices[k] = append([]models.PricePoint(nil), v...)
	}
	return c
}

// Store implements interfaces.StorageManager.
type Store struct {
	mu     sync.Mutex
	data   *dataset
	logger *common.Logger
}

// NewStore creates an empty in-memory store.
func NewStore(logger *common.Logger) *Store {
	return &Store{data: newDataset(), logger: logger}
}

// Compile-time check
var _ interfaces.StorageManager = (*Store)(nil)

// RunInTx holds the store lock for the whole unit. It is not reentrant.
func (s *Store) RunInTx(ctx context.Context, fn interfaces.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx, unit{session{store: s, inTx: true}}); err != nil {
		s.data = snapshot
		s.logger.Debug().Err(err).Msg("Memory unit of work rolled back")
		return err
	}
	return nil
}

func (s *Store) Accounts() interfaces.AccountStore       { return accountRepo{session{store: s}} }
func (s *Store) Ledger() interfaces.LedgerStore          { return ledgerRepo{session{store: s}} }
func (s *Store) Trades() interfaces.TradeStore           { return tradeRepo{session{store: s}} }
func (s *Store) Instruments() interfaces.InstrumentStore { return instrumentRepo{session{store: s}} }
func (s *Store) Prices() interfaces.PriceStore           { return priceRepo{session{store: s}} }
func (s *Store) Groups() interfaces.GroupStore           { return groupRepo{session{store: s}} }
func (s *Store) Backend() string                         { return common.BackendMemory }
func (s *Store) Close() error                            { return nil }

// session binds repositories to the store. Outside a unit of work each call
// takes the store lock itself.
type session struct {
	store *Store
	inTx  bool
}

func (s session) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.store.mu.Lock()
	return s.store.mu.Unlock
}

func (s session) data() *dataset {
	return s.store.data
}

// unit is the Repositories view handed to a unit of work.
type unit struct {
	session
}

func (u unit) Accounts() interfaces.AccountStore       { return accountRepo{u.session} }
func (u unit) Ledger() interfaces.LedgerStore          { return ledgerRepo{u.session} }
func (u unit) Trades() interfaces.TradeStore           { return tradeRepo{u.session} }
func (u unit) Instruments() interfaces.InstrumentStore { return instrumentRepo{u.session} }
func (u unit) Prices() interfaces.PriceStore           { return priceRepo{u.session} }
func (u unit) Groups() interfaces.GroupStore           { return groupRepo{u.session} }

// page slices items (already sorted newest first) into one page.
func page[T any](items []T, pageNum, size int) models.Page[T] {
	start := pageNum * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size + 1
	if end > len(items) {
		end = len(items)
	}
	return models.NewPage(append([]T(nil), items[start:end]...), pageNum, size)
}
