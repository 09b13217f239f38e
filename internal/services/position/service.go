// Package position derives per-instrument holdings from trade history and
// values them against the latest known prices
package position

import (
	"context"
	"fmt"
	"sort"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
	"github.com/bobmcallan/tracket/internal/services/validation"
)

// Compile-time interface check
var _ interfaces.PositionService = (*Service)(nil)

// Service implements PositionService
type Service struct {
	storage interfaces.StorageManager
	oracle  interfaces.PriceOracle
	config  common.ValuationConfig
	logger  *common.Logger
}

// NewService creates a new position service. Prices are read through oracle,
// or straight from the store when oracle is nil.
//
// The oracle is bound to the manager rather than to a unit of work, so price
// lookups run after the unit that snapshots positions has returned. Calling
// it from inside RunInTx would block on the memory store's unit lock, which
// is not reentrant. A valuation therefore pairs a consistent trade snapshot
// with the latest prices at the time it is priced.
func NewService(storage interfaces.StorageManager, oracle interfaces.PriceOracle, config common.ValuationConfig, logger *common.Logger) *Service {
	if oracle == nil {
		oracle = storage.Prices()
	}
	return &Service{
		storage: storage,
		oracle:  oracle,
		config:  config,
		logger:  logger,
	}
}

// Positions folds an account's trades into one position per instrument.
// A deleted account has no positions; trades against deleted or unknown
// instruments are ignored.
func (s *Service) Positions(ctx context.Context, accountID int64) (map[string]*models.Position, error) {
	var positions map[string]*models.Position
	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		account, err := s.loadAccount(ctx, repos, accountID)
		if err != nil {
			return err
		}
		positions, err = s.positions(ctx, repos, account)
		return err
	})
	if err != nil {
		return nil, err
	}
	return positions, nil
}

func (s *Service) loadAccount(ctx context.Context, repos interfaces.Repositories, id int64) (*models.Account, error) {
	account, err := repos.Accounts().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %d: %w", id, err)
	}
	if err := validation.First(validation.AccountMustExist(account, id)); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) positions(ctx context.Context, repos interfaces.Repositories, account *models.Account) (map[string]*models.Position, error) {
	positions := make(map[string]*models.Position)
	if account.Deleted {
		return positions, nil
	}

	if agg, ok := repos.Trades().(interfaces.PositionAggregator); ok && s.config.StoreAggregation {
		rows, err := agg.AggregatePositions(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate positions for account %d: %w", account.ID, err)
		}
		for _, p := range rows {
			positions[p.Instrument] = p
		}
		return positions, nil
	}

	trades, err := repos.Trades().FindByAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades for account %d: %w", account.ID, err)
	}

	instruments := make(map[string]*models.Instrument)
	for _, t := range trades {
		inst, seen := instruments[t.Instrument]
		if !seen {
			inst, err = repos.Instruments().FindByName(ctx, t.Instrument)
			if err != nil {
				return nil, fmt.Errorf("failed to load instrument %s: %w", t.Instrument, err)
			}
			instruments[t.Instrument] = inst
		}
		if inst == nil || inst.Deleted {
			continue
		}

		p, ok := positions[t.Instrument]
		if !ok {
			p = models.NewPosition(inst)
			positions[t.Instrument] = p
		}
		p.Apply(*t)
	}
	return positions, nil
}

// Valuate values every position of the account. A missing price makes that
// position contribute zero; it is logged and valuation continues.
func (s *Service) Valuate(ctx context.Context, accountID int64) (*models.AccountValuation, error) {
	var (
		account   *models.Account
		positions map[string]*models.Position
	)
	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		var err error
		account, err = s.loadAccount(ctx, repos, accountID)
		if err != nil {
			return err
		}
		positions, err = s.positions(ctx, repos, account)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.valuate(ctx, account, positions)
}

func (s *Service) valuate(ctx context.Context, account *models.Account, positions map[string]*models.Position) (*models.AccountValuation, error) {
	v := &models.AccountValuation{
		Account:    account,
		Positions:  positions,
		AssetValue: money.Zero,
		CostBasis:  money.Zero,
	}

	for _, name := range sortedNames(positions) {
		p := positions[name]
		point, err := s.oracle.LatestPrice(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest price for %s: %w", name, err)
		}
		if point == nil {
			s.logger.Warn().
				Int64("account_id", account.ID).
				Str("instrument", name).
				Msg("No price for instrument, valuing position at zero")
			p.Value(nil)
			v.Unpriced = append(v.Unpriced, name)
		} else {
			p.Value(&point.Price)
		}

		v.AssetValue = v.AssetValue.Add(p.MarketValue)
		v.CostBasis = v.CostBasis.Add(p.Cost())
	}
	v.ProfitLoss = v.AssetValue.Sub(v.CostBasis)
	return v, nil
}

// AssetValue is the sum of market values across the account's positions.
func (s *Service) AssetValue(ctx context.Context, accountID int64) (money.Money, error) {
	v, err := s.Valuate(ctx, accountID)
	if err != nil {
		return money.Zero, err
	}
	return v.AssetValue, nil
}

// CostBasis is the sum of cost basis plus fees across positions. It needs no prices.
func (s *Service) CostBasis(ctx context.Context, accountID int64) (money.Money, error) {
	positions, err := s.Positions(ctx, accountID)
	if err != nil {
		return money.Zero, err
	}
	total := money.Zero
	for _, p := range positions {
		total = total.Add(p.Cost())
	}
	return total, nil
}

// TotalAssetValue returns the same total as AssetValue without building
// per-instrument valuations.
func (s *Service) TotalAssetValue(ctx context.Context, accountID int64) (money.Money, error) {
	positions, err := s.Positions(ctx, accountID)
	if err != nil {
		return money.Zero, err
	}

	total := money.Zero
	for name, p := range positions {
		point, err := s.oracle.LatestPrice(ctx, name)
		if err != nil {
			return money.Zero, fmt.Errorf("failed to get latest price for %s: %w", name, err)
		}
		if point == nil {
			s.logger.Warn().Int64("account_id", accountID).Str("instrument", name).Msg("No price for instrument, valuing position at zero")
			continue
		}
		total = total.Add(point.Price.MulInt(p.UnitsHeld))
	}
	return total, nil
}

// ValuateAll values every account that is not deleted. Accounts without
// trades produce an empty valuation.
func (s *Service) ValuateAll(ctx context.Context) ([]*models.AccountValuation, error) {
	type snapshot struct {
		account   *models.Account
		positions map[string]*models.Position
	}
	var snapshots []snapshot

	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		accounts, err := repos.Accounts().List(ctx, interfaces.ScopeActive)
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}
		for _, a := range accounts {
			positions, err := s.positions(ctx, repos, a)
			if err != nil {
				return err
			}
			snapshots = append(snapshots, snapshot{account: a, positions: positions})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*models.AccountValuation, 0, len(snapshots))
	for _, snap := range snapshots {
		v, err := s.valuate(ctx, snap.account, snap.positions)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func sortedNames(positions map[string]*models.Position) []string {
	names := make([]string, 0, len(positions))
	for name := range positions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
