package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
)

type instrumentRepo struct{ session }

var _ interfaces.InstrumentStore = instrumentRepo{}

const instrumentColumns = "name, currency, asset_class, display_ticker, deleted"

func scanInstrument(row rowScanner) (*models.Instrument, error) {
	var i models.Instrument
	if err := row.Scan(&i.Name, &i.Currency, &i.AssetClass, &i.DisplayTicker, &i.Deleted); err != nil {
		return nil, err
	}
	return &i, nil
}

func (r instrumentRepo) FindByName(ctx context.Context, name string) (*models.Instrument, error) {
	i, err := scanInstrument(r.q.QueryRowContext(ctx, "SELECT "+instrumentColumns+" FROM instruments WHERE name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read instrument %s: %w", name, err)
	}
	return i, nil
}

func (r instrumentRepo) Save(ctx context.Context, instrument *models.Instrument) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO instruments (name, currency, asset_class, display_ticker, deleted)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			currency = excluded.currency,
			asset_class = excluded.asset_class,
			display_ticker = excluded.display_ticker,
			deleted = excluded.deleted`,
		instrument.Name, instrument.Currency, string(instrument.AssetClass),
		instrument.DisplayTicker, boolToInt(instrument.Deleted))
	if err != nil {
		return fmt.Errorf("failed to save instrument %s: %w", instrument.Name, err)
	}
	return nil
}

func (r instrumentRepo) SoftDelete(ctx context.Context, name string) error {
	res, err := r.q.ExecContext(ctx, "UPDATE instruments SET deleted = 1 WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete instrument %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("instrument %s: %w", name, interfaces.ErrNotFound)
	}
	return nil
}

func (r instrumentRepo) List(ctx context.Context, scope interfaces.Scope) ([]*models.Instrument, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT "+instrumentColumns+" FROM instruments"+scopeClause(scope)+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Instrument, 0)
	for rows.Next() {
		i, err := scanInstrument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
