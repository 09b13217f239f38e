package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const tradeSelectFields = "trade_id, ts, trade_type, num_of_units, price_per_unit, name, account_id, fee, buy_id"

type tradeRecord struct {
	TradeID      int64  `json:"trade_id"`
	Timestamp    string `json:"ts"`
	TradeType    string `json:"trade_type"`
	Units        int64  `json:"num_of_units"`
	PricePerUnit string `json:"price_per_unit"`
	Name         string `json:"name"`
	AccountID    int64  `json:"account_id"`
	Fee          string `json:"fee"`
	BuyID        *int64 `json:"buy_id"`
}

func (r tradeRecord) toModel() (*models.Trade, error) {
	t := &models.Trade{
		ID:         r.TradeID,
		Kind:       models.TradeKind(r.TradeType),
		Units:      r.Units,
		Instrument: r.Name,
		AccountID:  r.AccountID,
		BuyID:      r.BuyID,
	}
	var err error
	if t.Timestamp, err = time.Parse(tsLayout, r.Timestamp); err != nil {
		return nil, fmt.Errorf("trade %d has invalid timestamp: %w", r.TradeID, err)
	}
	if t.PricePerUnit, err = money.ParseExact(r.PricePerUnit); err != nil {
		return nil, fmt.Errorf("trade %d: %w", r.TradeID, err)
	}
	if t.Fee, err = money.ParseExact(r.Fee); err != nil {
		return nil, fmt.Errorf("trade %d: %w", r.TradeID, err)
	}
	return t, nil
}

func tradeRID(id int64) surrealmodels.RecordID {
	return surrealmodels.NewRecordID("trade", id)
}

type tradeRepo struct{ session }

var _ interfaces.TradeStore = tradeRepo{}

func (r tradeRepo) FindByAccount(ctx context.Context, accountID int64) ([]*models.Trade, error) {
	sql := "SELECT " + tradeSelectFields + " FROM trade WHERE account_id = $account_id ORDER BY trade_id ASC"
	rows, err := query[tradeRecord](ctx, r.db(), sql, map[string]any{"account_id": accountID})
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for account %d: %w", accountID, err)
	}
	out := make([]*models.Trade, 0, len(rows))
	for _, row := range rows {
		t, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r tradeRepo) FindByID(ctx context.Context, id int64) (*models.Trade, error) {
	record, err := surrealdb.Select[tradeRecord](ctx, r.db(), tradeRID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to select trade %d: %w", id, err)
	}
	if record == nil || record.TradeID == 0 {
		return nil, nil
	}
	return record.toModel()
}

func (r tradeRepo) Save(ctx context.Context, trade *models.Trade) (int64, error) {
	id, err := r.m.nextID(ctx, "trade")
	if err != nil {
		return 0, err
	}
	sql := `CREATE $rid SET
		trade_id = $trade_id, ts = $ts, trade_type = $trade_type, num_of_units = $num_of_units,
		price_per_unit = $price_per_unit, name = $name, account_id = $account_id, fee = $fee, buy_id = $buy_id`
	vars := map[string]any{
		"rid":            tradeRID(id),
		"trade_id":       id,
		"ts":             trade.Timestamp.UTC().Format(tsLayout),
		"trade_type":     string(trade.Kind),
		"num_of_units":   trade.Units,
		"price_per_unit": trade.PricePerUnit.String(),
		"name":           trade.Instrument,
		"account_id":     trade.AccountID,
		"fee":            trade.Fee.String(),
		"buy_id":         trade.BuyID,
	}
	if err := r.write(ctx, sql, vars); err != nil {
		return 0, fmt.Errorf("failed to save trade: %w", err)
	}
	trade.ID = id
	return id, nil
}

func (r tradeRepo) PageByAccount(ctx context.Context, accountID int64, pageNum, size int) (models.Page[models.Trade], error) {
	sql := "SELECT " + tradeSelectFields + " FROM trade WHERE account_id = $account_id" +
		" ORDER BY ts DESC, trade_id DESC LIMIT $limit START $start"
	vars := map[string]any{
		"account_id": accountID,
		"limit":      size + 1,
		"start":      pageNum * size,
	}
	rows, err := query[tradeRecord](ctx, r.db(), sql, vars)
	if err != nil {
		return models.Page[models.Trade]{}, fmt.Errorf("failed to query trades for account %d: %w", accountID, err)
	}
	items := make([]models.Trade, 0, len(rows))
	for _, row := range rows {
		t, err := row.toModel()
		if err != nil {
			return models.Page[models.Trade]{}, err
		}
		items = append(items, *t)
	}
	return models.NewPage(items, pageNum, size), nil
}
