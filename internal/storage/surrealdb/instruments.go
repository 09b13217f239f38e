package surrealdb

import (
	"context"
	"fmt"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const instrumentSelectFields = "name, currency, asset_class, display_ticker, deleted"

type instrumentRecord struct {
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	AssetClass    string `json:"asset_class"`
	DisplayTicker string `json:"display_ticker"`
	Deleted       bool   `json:"deleted"`
}

func (r instrumentRecord) toModel() *models.Instrument {
	return &models.Instrument{
		Name:          r.Name,
		Currency:      r.Currency,
		AssetClass:    models.AssetClass(r.AssetClass),
		DisplayTicker: r.DisplayTicker,
		Deleted:       r.Deleted,
	}
}

func instrumentRID(name string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID("instrument", name)
}

type instrumentRepo struct{ session }

var _ interfaces.InstrumentStore = instrumentRepo{}

func (r instrumentRepo) FindByName(ctx context.Context, name string) (*models.Instrument, error) {
	record, err := surrealdb.Select[instrumentRecord](ctx, r.db(), instrumentRID(name))
	if err != nil {
		return nil, fmt.Errorf("failed to select instrument %s: %w", name, err)
	}
	if record == nil || record.Name == "" {
		return nil, nil
	}
	return record.toModel(), nil
}

func (r instrumentRepo) Save(ctx context.Context, instrument *models.Instrument) error {
	sql := `UPSERT $rid SET
		name = $name, currency = $currency, asset_class = $asset_class,
		display_ticker = $display_ticker, deleted = $deleted`
	vars := map[string]any{
		"rid":            instrumentRID(instrument.Name),
		"name":           instrument.Name,
		"currency":       instrument.Currency,
		"asset_class":    string(instrument.AssetClass),
		"display_ticker": instrument.DisplayTicker,
		"deleted":        instrument.Deleted,
	}
	if err := r.write(ctx, sql, vars); err != nil {
		return fmt.Errorf("failed to save instrument %s: %w", instrument.Name, err)
	}
	return nil
}

func (r instrumentRepo) SoftDelete(ctx context.Context, name string) error {
	existing, err := r.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("instrument %s: %w", name, interfaces.ErrNotFound)
	}
	if err := r.write(ctx, "UPDATE $rid SET deleted = true", map[string]any{"rid": instrumentRID(name)}); err != nil {
		return fmt.Errorf("failed to delete instrument %s: %w", name, err)
	}
	return nil
}

func (r instrumentRepo) List(ctx context.Context, scope interfaces.Scope) ([]*models.Instrument, error) {
	sql := "SELECT " + instrumentSelectFields + " FROM instrument"
	if scope == interfaces.ScopeActive {
		sql += " WHERE deleted = false"
	}
	sql += " ORDER BY name ASC"

	rows, err := query[instrumentRecord](ctx, r.db(), sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	out := make([]*models.Instrument, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}
