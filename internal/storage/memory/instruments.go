package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
)

type instrumentRepo struct{ session }

var _ interfaces.InstrumentStore = instrumentRepo{}

func (r instrumentRepo) FindByName(_ context.Context, name string) (*models.Instrument, error) {
	defer r.lock()()
	i, ok := r.data().instruments[name]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

func (r instrumentRepo) Save(_ context.Context, instrument *models.Instrument) error {
	defer r.lock()()
	r.data().instruments[instrument.Name] = *instrument
	return nil
}

func (r instrumentRepo) SoftDelete(_ context.Context, name string) error {
	defer r.lock()()
	i, ok := r.data().instruments[name]
	if !ok {
		return fmt.Errorf("instrument %s: %w", name, interfaces.ErrNotFound)
	}
	i.Deleted = true
	r.data().instruments[name] = i
	return nil
}

func (r instrumentRepo) List(_ context.Context, scope interfaces.Scope) ([]*models.Instrument, error) {
	defer r.lock()()
	out := make([]*models.Instrument, 0, len(r.data().instruments))
	for _, i := range r.data().instruments {
		if scope.Includes(i.Deleted) {
			out = append(out, &i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
