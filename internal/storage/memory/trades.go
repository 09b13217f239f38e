package memory

import (
	"context"
	"sort"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
)

type tradeRepo struct{ session }

var _ interfaces.TradeStore = tradeRepo{}

func (r tradeRepo) FindByAccount(_ context.Context, accountID int64) ([]*models.Trade, error) {
	defer r.lock()()
	var out []*models.Trade
	for _, t := range r.data().trades {
		if t.AccountID == accountID {
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r tradeRepo) FindByID(_ context.Context, id int64) (*models.Trade, error) {
	defer r.lock()()
	t, ok := r.data().trades[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r tradeRepo) Save(_ context.Context, trade *models.Trade) (int64, error) {
	defer r.lock()()
	d := r.data()
	d.nextTradeID++
	trade.ID = d.nextTradeID
	d.trades[trade.ID] = *trade
	return trade.ID, nil
}

func (r tradeRepo) PageByAccount(_ context.Context, accountID int64, pageNum, size int) (models.Page[models.Trade], error) {
	defer r.lock()()
	var matched []models.Trade
	for _, t := range r.data().trades {
		if t.AccountID == accountID {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID > matched[j].ID
	})
	return page(matched, pageNum, size), nil
}
