package memory

import (
	"context"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
)

type priceRepo struct{ session }

var _ interfaces.PriceStore = priceRepo{}

// LatestPrice returns the point with the greatest observation time.
func (r priceRepo) LatestPrice(_ context.Context, instrument string) (*models.PricePoint, error) {
	defer r.lock()()
	var latest *models.PricePoint
	for _, p := range r.data().prices[instrument] {
		if latest == nil || !p.ObservedAt.Before(latest.ObservedAt) {
			latest = &p
		}
	}
	return latest, nil
}

func (r priceRepo) RecordPrice(_ context.Context, point *models.PricePoint) error {
	defer r.lock()()
	d := r.data()
	d.prices[point.Instrument] = append(d.prices[point.Instrument], *point)
	return nil
}
