// Package trade records trades and manages the instruments they reference
package trade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
	"github.com/bobmcallan/tracket/internal/services/validation"
)

// Compile-time interface check
var _ interfaces.TradeService = (*Service)(nil)

// Service implements TradeService
type Service struct {
	storage    interfaces.StorageManager
	priceCache interfaces.PriceCache
	logger     *common.Logger
	now        func() time.Time
}

// NewService creates a new trade service
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetPriceCache registers a cache to invalidate whenever a price is recorded.
func (s *Service) SetPriceCache(c interfaces.PriceCache) {
	s.priceCache = c
}

// RecordTrade validates a trade against its account, instrument and (for
// SELL) the referenced buy, then appends it. Cash balances are not touched.
func (s *Service) RecordTrade(ctx context.Context, req interfaces.TradeRequest) (*models.Trade, error) {
	t, err := s.parseTrade(req)
	if err != nil {
		return nil, err
	}

	err = s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		instrument, err := repos.Instruments().FindByName(ctx, t.Instrument)
		if err != nil {
			return fmt.Errorf("failed to load instrument %s: %w", t.Instrument, err)
		}
		account, err := repos.Accounts().FindByID(ctx, t.AccountID)
		if err != nil {
			return fmt.Errorf("failed to load account %d: %w", t.AccountID, err)
		}

		var buy *models.Trade
		if t.Kind == models.TradeSell && t.BuyID != nil {
			buy, err = repos.Trades().FindByID(ctx, *t.BuyID)
			if err != nil {
				return fmt.Errorf("failed to load trade %d: %w", *t.BuyID, err)
			}
		}

		if err := validation.First(
			validation.StockMustExist(instrument, t.Instrument),
			validation.AccountMustExist(account, t.AccountID),
			validation.CurrencyMustMatch(account, instrument),
			validation.StockNotDeleted(instrument),
			validation.AccountNotDeleted(account),
			validation.SellMustHaveBuyID(t),
			validation.SellWhatIsBought(t, buy),
			validation.SellWrongStock(t, buy),
		); err != nil {
			return err
		}

		id, err := repos.Trades().Save(ctx, t)
		if err != nil {
			return fmt.Errorf("failed to save trade: %w", err)
		}
		t.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("correlation_id", common.CorrelationIDFromContext(ctx)).
		Int64("trade_id", t.ID).
		Str("kind", string(t.Kind)).
		Str("instrument", t.Instrument).
		Int64("account_id", t.AccountID).
		Int64("units", t.Units).
		Str("price", t.PricePerUnit.String()).
		Msg("Trade recorded")

	return t, nil
}

func (s *Service) parseTrade(req interfaces.TradeRequest) (*models.Trade, error) {
	kind := models.TradeKind(strings.ToUpper(strings.TrimSpace(string(req.Kind))))
	if !models.ValidTradeKind(kind) {
		return nil, models.InvalidArgument("trade_type", "must be BUY, SELL or DIVIDEND, got %q", req.Kind)
	}
	if req.Units < 0 {
		return nil, models.InvalidArgument("num_of_units", "must not be negative")
	}
	name := strings.TrimSpace(req.Instrument)
	if name == "" {
		return nil, models.InvalidArgument("name", "is required")
	}
	price, err := money.Parse(req.PricePerUnit)
	if err != nil {
		return nil, models.InvalidArgument("price_per_unit", "%v", err)
	}
	if price.IsNegative() {
		return nil, models.InvalidArgument("price_per_unit", "must not be negative")
	}

	fee := money.Zero
	if strings.TrimSpace(req.Fee) != "" {
		fee, err = money.Parse(req.Fee)
		if err != nil {
			return nil, models.InvalidArgument("fee", "%v", err)
		}
		if fee.IsNegative() {
			return nil, models.InvalidArgument("fee", "must not be negative")
		}
	}

	ts := s.now()
	if req.TimestampMillis != 0 {
		ts = time.UnixMilli(req.TimestampMillis).UTC()
	}

	t := &models.Trade{
		Timestamp:    ts,
		Kind:         kind,
		Units:        req.Units,
		PricePerUnit: price,
		Instrument:   name,
		AccountID:    req.AccountID,
		Fee:          fee,
	}
	// Only SELL carries a back-reference to its buy.
	if kind == models.TradeSell && req.BuyID != nil {
		id := *req.BuyID
		t.BuyID = &id
	}
	return t, nil
}
