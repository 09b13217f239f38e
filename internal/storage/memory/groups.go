package memory

import (
	"context"
	"sort"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
)

type groupRepo struct{ session }

var _ interfaces.GroupStore = groupRepo{}

func (r groupRepo) FindByID(_ context.Context, id int64) (*models.AccountGroup, error) {
	defer r.lock()()
	g, ok := r.data().groups[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (r groupRepo) FindByName(_ context.Context, name string) (*models.AccountGroup, error) {
	defer r.lock()()
	for _, g := range r.data().groups {
		if g.Name == name {
			return &g, nil
		}
	}
	return nil, nil
}

func (r groupRepo) Create(_ context.Context, group *models.AccountGroup) (int64, error) {
	defer r.lock()()
	d := r.data()
	d.nextGroupID++
	group.ID = d.nextGroupID
	d.groups[group.ID] = *group
	return group.ID, nil
}

func (r groupRepo) List(_ context.Context) ([]*models.AccountGroup, error) {
	defer r.lock()()
	out := make([]*models.AccountGroup, 0, len(r.data().groups))
	for _, g := range r.data().groups {
		out = append(out, &g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r groupRepo) AddMember(_ context.Context, groupID, accountID int64) error {
	defer r.lock()()
	r.data().members[models.GroupMember{GroupID: groupID, AccountID: accountID}] = struct{}{}
	return nil
}

func (r groupRepo) RemoveMember(_ context.Context, groupID, accountID int64) error {
	defer r.lock()()
	delete(r.data().members, models.GroupMember{GroupID: groupID, AccountID: accountID})
	return nil
}

func (r groupRepo) Members(_ context.Context) ([]models.GroupMember, error) {
	defer r.lock()()
	out := make([]models.GroupMember, 0, len(r.data().members))
	for m := range r.data().members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out, nil
}
