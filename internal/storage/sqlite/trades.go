package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
)

type tradeRepo struct{ session }

var (
	_ interfaces.TradeStore         = tradeRepo{}
	_ interfaces.PositionAggregator = tradeRepo{}
)

const tradeColumns = "id, ts, trade_type, units, price_per_unit, name, account_id, fee, buy_id"

func scanTrade(row rowScanner) (*models.Trade, error) {
	var (
		t     models.Trade
		ts    string
		kind  string
		buyID sql.NullInt64
	)
	if err := row.Scan(&t.ID, &ts, &kind, &t.Units, &t.PricePerUnit, &t.Instrument, &t.AccountID, &t.Fee, &buyID); err != nil {
		return nil, err
	}
	parsed, err := parseTime(ts)
	if err != nil {
		return nil, fmt.Errorf("trade %d has invalid timestamp: %w", t.ID, err)
	}
	t.Timestamp = parsed
	t.Kind = models.TradeKind(kind)
	t.BuyID = int64Ptr(buyID)
	return &t, nil
}

func (r tradeRepo) FindByAccount(ctx context.Context, accountID int64) ([]*models.Trade, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT "+tradeColumns+" FROM trades WHERE account_id = ? ORDER BY id", accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var out []*models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r tradeRepo) FindByID(ctx context.Context, id int64) (*models.Trade, error) {
	t, err := scanTrade(r.q.QueryRowContext(ctx, "SELECT "+tradeColumns+" FROM trades WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read trade %d: %w", id, err)
	}
	return t, nil
}

func (r tradeRepo) Save(ctx context.Context, trade *models.Trade) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO trades (ts, trade_type, units, price_per_unit, name, account_id, fee, buy_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		formatTime(trade.Timestamp), string(trade.Kind), trade.Units, trade.PricePerUnit,
		trade.Instrument, trade.AccountID, trade.Fee, nullInt64(trade.BuyID))
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read trade id: %w", err)
	}
	trade.ID = id
	return id, nil
}

func (r tradeRepo) PageByAccount(ctx context.Context, accountID int64, pageNum, size int) (models.Page[models.Trade], error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+tradeColumns+" FROM trades WHERE account_id = ? ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?",
		accountID, size+1, pageNum*size)
	if err != nil {
		return models.Page[models.Trade]{}, fmt.Errorf("failed to query trades for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var items []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return models.Page[models.Trade]{}, fmt.Errorf("failed to scan trade: %w", err)
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Trade]{}, err
	}
	return models.NewPage(items, pageNum, size), nil
}

// AggregatePositions joins trades with their account and instrument so that
// deleted rows drop out in the query, then folds the surviving trades. Sums
// stay in Go because SQLite would add TEXT amounts as REAL.
func (r tradeRepo) AggregatePositions(ctx context.Context, accountID int64) ([]*models.Position, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT t.name, i.currency, i.asset_class, t.trade_type, t.units, t.price_per_unit, t.fee
		FROM trades t
		JOIN instruments i ON i.name = t.name
		JOIN accounts a ON a.id = t.account_id
		WHERE t.account_id = ? AND i.deleted = 0 AND a.deleted = 0
		ORDER BY t.name, t.id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate positions for account %d: %w", accountID, err)
	}
	defer rows.Close()

	byName := make(map[string]*models.Position)
	for rows.Next() {
		var (
			inst models.Instrument
			t    models.Trade
			kind string
		)
		if err := rows.Scan(&inst.Name, &inst.Currency, &inst.AssetClass, &kind, &t.Units, &t.PricePerUnit, &t.Fee); err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		t.Kind = models.TradeKind(kind)
		p, ok := byName[inst.Name]
		if !ok {
			p = models.NewPosition(&inst)
			byName[inst.Name] = p
		}
		p.Apply(t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.Position, 0, len(byName))
	for _, p := range byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instrument < out[j].Instrument })
	return out, nil
}
