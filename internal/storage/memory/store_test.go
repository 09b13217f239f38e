package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(common.NewSilentLogger())
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	id, err := s.Accounts().Create(ctx, &models.Account{Name: "cash", Currency: "USD", Balance: money.MustParse("10")})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		require.NoError(t, repos.Accounts().AdjustBalance(ctx, id, money.MustParse("-4")))
		_, err := repos.Ledger().Append(ctx, &models.LedgerEntry{FromAccountID: id, Kind: models.TxWithdraw, Amount: money.MustParse("4")})
		require.NoError(t, err)
		_, err = repos.Accounts().Create(ctx, &models.Account{Name: "ghost"})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	a, err := s.Accounts().FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "10.000000", a.Balance.String())

	page, err := s.Ledger().PageByAccount(ctx, id, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	all, err := s.Accounts().List(ctx, interfaces.ScopeAll)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	next, err := s.Accounts().Create(ctx, &models.Account{Name: "next"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), next, "ids allocated in a failed unit are released")
}

func TestRunInTx_CommitsOnSuccess(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	err := s.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		id, err := repos.Accounts().Create(ctx, &models.Account{Name: "cash"})
		if err != nil {
			return err
		}
		return repos.Accounts().AdjustBalance(ctx, id, money.MustParse("2.5"))
	})
	require.NoError(t, err)

	a, err := s.Accounts().FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "2.500000", a.Balance.String())
}

func TestAccounts_ScopeExcludesDeleted(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	keep, _ := s.Accounts().Create(ctx, &models.Account{Name: "keep"})
	gone, _ := s.Accounts().Create(ctx, &models.Account{Name: "gone"})
	require.NoError(t, s.Accounts().SoftDelete(ctx, gone))

	active, err := s.Accounts().List(ctx, interfaces.ScopeActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, keep, active[0].ID)

	all, err := s.Accounts().List(ctx, interfaces.ScopeAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	a, err := s.Accounts().FindByID(ctx, gone)
	require.NoError(t, err)
	require.NotNil(t, a, "deleted accounts still resolve")
	assert.True(t, a.Deleted)
}

func TestAccounts_MissingRecord(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	a, err := s.Accounts().FindByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, a)

	err = s.Accounts().AdjustBalance(ctx, 99, money.One)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestAccounts_ReturnedCopiesAreDetached(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	id, _ := s.Accounts().Create(ctx, &models.Account{Name: "cash"})
	a, _ := s.Accounts().FindByID(ctx, id)
	a.Name = "mutated"

	again, _ := s.Accounts().FindByID(ctx, id)
	assert.Equal(t, "cash", again.Name)
}

func TestLedger_PageNewestFirst(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	other := int64(2)

	for i := 0; i < 12; i++ {
		_, err := s.Ledger().Append(ctx, &models.LedgerEntry{
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
			FromAccountID: 1,
			Kind:          models.TxDeposit,
			Amount:        money.FromInt(int64(i)),
		})
		require.NoError(t, err)
	}
	_, err := s.Ledger().Append(ctx, &models.LedgerEntry{Timestamp: base, FromAccountID: other, ToAccountID: ptr(1), Kind: models.TxTransfer})
	require.NoError(t, err)
	_, err = s.Ledger().Append(ctx, &models.LedgerEntry{Timestamp: base, FromAccountID: 3, Kind: models.TxDeposit})
	require.NoError(t, err)

	first, err := s.Ledger().PageByAccount(ctx, 1, 0, 10)
	require.NoError(t, err)
	require.Len(t, first.Items, 10)
	assert.True(t, first.HasNext)
	assert.Equal(t, 1, first.NextPage)
	assert.Equal(t, "11.000000", first.Items[0].Amount.String())

	second, err := s.Ledger().PageByAccount(ctx, 1, 1, 10)
	require.NoError(t, err)
	require.Len(t, second.Items, 3, "incoming transfers are listed for the destination")
	assert.False(t, second.HasNext)
	assert.Equal(t, models.TxTransfer, second.Items[1].Kind, "same timestamp orders by id descending")
	assert.Equal(t, int64(1), second.Items[2].ID)

	beyond, err := s.Ledger().PageByAccount(ctx, 1, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
}

func TestPrices_LatestByObservation(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	none, err := s.Prices().LatestPrice(ctx, "AAPL")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, s.Prices().RecordPrice(ctx, &models.PricePoint{Instrument: "AAPL", Price: money.MustParse("2"), ObservedAt: base.Add(time.Hour)}))
	require.NoError(t, s.Prices().RecordPrice(ctx, &models.PricePoint{Instrument: "AAPL", Price: money.MustParse("1"), ObservedAt: base}))

	latest, err := s.Prices().LatestPrice(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2.000000", latest.Price.String())
}

func TestInstruments_SaveAndSoftDelete(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Instruments().Save(ctx, &models.Instrument{Name: "AAPL", Currency: "USD"}))
	require.NoError(t, s.Instruments().Save(ctx, &models.Instrument{Name: "D05", Currency: "SGD"}))
	require.NoError(t, s.Instruments().SoftDelete(ctx, "D05"))
	assert.ErrorIs(t, s.Instruments().SoftDelete(ctx, "NOPE"), interfaces.ErrNotFound)

	active, err := s.Instruments().List(ctx, interfaces.ScopeActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "AAPL", active[0].Name)
}

func TestGroups_MembershipIsIdempotent(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	id, err := s.Groups().Create(ctx, &models.AccountGroup{Name: "family", Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.NoError(t, s.Groups().AddMember(ctx, id, 3))
	require.NoError(t, s.Groups().AddMember(ctx, id, 3))
	require.NoError(t, s.Groups().AddMember(ctx, id, 1))
	require.NoError(t, s.Groups().RemoveMember(ctx, id, 9))

	members, err := s.Groups().Members(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.GroupMember{{GroupID: id, AccountID: 1}, {GroupID: id, AccountID: 3}}, members)

	g, err := s.Groups().FindByName(ctx, "family")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, id, g.ID)

	missing, err := s.Groups().FindByID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGroups_RolledBackWithUnit(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		id, err := repos.Groups().Create(ctx, &models.AccountGroup{Name: "tmp", Currency: "EUR"})
		require.NoError(t, err)
		require.NoError(t, repos.Groups().AddMember(ctx, id, 1))
		return boom
	})
	require.ErrorIs(t, err, boom)

	groups, err := s.Groups().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
	members, err := s.Groups().Members(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func ptr(v int64) *int64 { return &v }
