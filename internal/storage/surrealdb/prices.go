package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

type priceRecord struct {
	Name       string `json:"name"`
	Price      string `json:"price"`
	ObservedAt string `json:"observed_at"`
	Source     string `json:"source"`
	PointID    int64  `json:"point_id"`
}

type priceRepo struct{ session }

var _ interfaces.PriceStore = priceRepo{}

func (r priceRepo) LatestPrice(ctx context.Context, instrument string) (*models.PricePoint, error) {
	sql := "SELECT name, price, observed_at, source, point_id FROM price_point WHERE name = $name" +
		" ORDER BY observed_at DESC, point_id DESC LIMIT 1"
	rows, err := query[priceRecord](ctx, r.db(), sql, map[string]any{"name": instrument})
	if err != nil {
		return nil, fmt.Errorf("failed to read latest price for %s: %w", instrument, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	price, err := money.ParseExact(row.Price)
	if err != nil {
		return nil, fmt.Errorf("price for %s: %w", instrument, err)
	}
	observed, err := time.Parse(tsLayout, row.ObservedAt)
	if err != nil {
		return nil, fmt.Errorf("price for %s has invalid observed_at: %w", instrument, err)
	}
	return &models.PricePoint{Instrument: row.Name, Price: price, ObservedAt: observed, Source: row.Source}, nil
}

// RecordPrice numbers each point so observations sharing a timestamp resolve
// to the one recorded last.
func (r priceRepo) RecordPrice(ctx context.Context, point *models.PricePoint) error {
	id, err := r.m.nextID(ctx, "price_point")
	if err != nil {
		return err
	}
	sql := "CREATE $rid SET point_id = $point_id, name = $name, price = $price, observed_at = $observed_at, source = $source"
	vars := map[string]any{
		"rid":         surrealmodels.NewRecordID("price_point", id),
		"point_id":    id,
		"name":        point.Instrument,
		"price":       point.Price.String(),
		"observed_at": point.ObservedAt.UTC().Format(tsLayout),
		"source":      point.Source,
	}
	if err := r.write(ctx, sql, vars); err != nil {
		return fmt.Errorf("failed to record price for %s: %w", point.Instrument, err)
	}
	return nil
}
