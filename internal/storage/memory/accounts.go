package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
)

type accountRepo struct{ session }

var _ interfaces.AccountStore = accountRepo{}

func (r accountRepo) FindByID(_ context.Context, id int64) (*models.Account, error) {
	defer r.lock()()
	a, ok := r.data().accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r accountRepo) Create(_ context.Context, account *models.Account) (int64, error) {
	defer r.lock()()
	d := r.data()
	d.nextAccountID++
	account.ID = d.nextAccountID
	d.accounts[account.ID] = *account
	return account.ID, nil
}

// update applies fn to a stored account.
func (r accountRepo) update(id int64, fn func(a *models.Account)) error {
	defer r.lock()()
	a, ok := r.data().accounts[id]
	if !ok {
		return fmt.Errorf("account %d: %w", id, interfaces.ErrNotFound)
	}
	fn(&a)
	r.data().accounts[id] = a
	return nil
}

func (r accountRepo) UpdateDetails(_ context.Context, id int64, name, description string) error {
	return r.update(id, func(a *models.Account) {
		a.Name = name
		a.Description = description
	})
}

func (r accountRepo) SoftDelete(_ context.Context, id int64) error {
	return r.update(id, func(a *models.Account) { a.Deleted = true })
}

func (r accountRepo) AdjustBalance(_ context.Context, id int64, delta money.Money) error {
	return r.update(id, func(a *models.Account) { a.Balance = a.Balance.Add(delta) })
}

func (r accountRepo) List(_ context.Context, scope interfaces.Scope) ([]*models.Account, error) {
	defer r.lock()()
	out := make([]*models.Account, 0, len(r.data().accounts))
	for _, a := range r.data().accounts {
		if scope.Includes(a.Deleted) {
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
