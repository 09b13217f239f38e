package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
)

type priceRepo struct{ session }

var _ interfaces.PriceStore = priceRepo{}

func (r priceRepo) LatestPrice(ctx context.Context, instrument string) (*models.PricePoint, error) {
	var (
		p        models.PricePoint
		observed string
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT name, price, observed_at, source
		FROM price_points
		WHERE name = ?
		ORDER BY observed_at DESC, id DESC
		LIMIT 1`, instrument).Scan(&p.Instrument, &p.Price, &observed, &p.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest price for %s: %w", instrument, err)
	}
	if p.ObservedAt, err = parseTime(observed); err != nil {
		return nil, fmt.Errorf("price for %s has invalid observed_at: %w", instrument, err)
	}
	return &p, nil
}

func (r priceRepo) RecordPrice(ctx context.Context, point *models.PricePoint) error {
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO price_points (name, price, observed_at, source) VALUES (?, ?, ?, ?)",
		point.Instrument, point.Price, formatTime(point.ObservedAt), point.Source)
	if err != nil {
		return fmt.Errorf("failed to record price for %s: %w", point.Instrument, err)
	}
	return nil
}
