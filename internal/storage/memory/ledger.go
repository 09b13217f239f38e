package memory

import (
	"context"
	"sort"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
)

type ledgerRepo struct{ session }

var _ interfaces.LedgerStore = ledgerRepo{}

func (r ledgerRepo) Append(_ context.Context, entry *models.LedgerEntry) (int64, error) {
	defer r.lock()()
	d := r.data()
	d.nextEntryID++
	entry.ID = d.nextEntryID
	d.ledger = append(d.ledger, *entry)
	return entry.ID, nil
}

func (r ledgerRepo) PageByAccount(_ context.Context, accountID int64, pageNum, size int) (models.Page[models.LedgerEntry], error) {
	defer r.lock()()
	var matched []models.LedgerEntry
	for _, e := range r.data().ledger {
		if e.FromAccountID == accountID || (e.ToAccountID != nil && *e.ToAccountID == accountID) {
			matched = append(matched, e)
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
