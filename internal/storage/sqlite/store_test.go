package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "tracket.db"), common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createAccount(t *testing.T, s *Store, name, balance string) int64 {
	t.Helper()
	id, err := s.Accounts().Create(context.Background(), &models.Account{
		Name:      name,
		Currency:  "USD",
		Type:      models.AccountTypeInvestment,
		Balance:   money.MustParse(balance),
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	return id
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tracket.db")
	logger := common.NewSilentLogger()

	s, err := NewStore(path, logger)
	require.NoError(t, err)
	id, err := s.Accounts().Create(context.Background(), &models.Account{Name: "cash", Currency: "EUR", Balance: money.MustParse("1.5"), CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(path, logger)
	require.NoError(t, err)
	defer s.Close()

	a, err := s.Accounts().FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "cash", a.Name)
	assert.Equal(t, "1.500000", a.Balance.String())
	assert.Equal(t, common.BackendSQLite, s.Backend())
}

func TestSchemaVersion_LatestMigration(t *testing.T) {
	s := newTestStore(t)

	version, dirty, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
}

func TestGroups_CreateAndMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createAccount(t, s, "a", "0")
	b := createAccount(t, s, "b", "0")

	id, err := s.Groups().Create(ctx, &models.AccountGroup{Name: "family", Currency: "USD"})
	require.NoError(t, err)

	_, err = s.Groups().Create(ctx, &models.AccountGroup{Name: "family", Currency: "EUR"})
	assert.Error(t, err, "group names are unique")

	require.NoError(t, s.Groups().AddMember(ctx, id, b))
	require.NoError(t, s.Groups().AddMember(ctx, id, a))
	require.NoError(t, s.Groups().AddMember(ctx, id, a))

	members, err := s.Groups().Members(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.GroupMember{{GroupID: id, AccountID: a}, {GroupID: id, AccountID: b}}, members)

	require.NoError(t, s.Groups().RemoveMember(ctx, id, a))
	require.NoError(t, s.Groups().RemoveMember(ctx, id, a))
	members, err = s.Groups().Members(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.GroupMember{{GroupID: id, AccountID: b}}, members)

	g, err := s.Groups().FindByName(ctx, "family")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "USD", g.Currency)

	missing, err := s.Groups().FindByID(ctx, id+1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := createAccount(t, s, "cash", "10")

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		if err := repos.Accounts().AdjustBalance(ctx, id, money.MustParse("-4")); err != nil {
			return err
		}
		if _, err := repos.Ledger().Append(ctx, &models.LedgerEntry{
			Timestamp:     time.Now(),
			FromAccountID: id,
			Kind:          models.TxWithdraw,
			Amount:        money.MustParse("4"),
			ExchangeRate:  money.One,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	a, err := s.Accounts().FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "10.000000", a.Balance.String())

	page, err := s.Ledger().PageByAccount(ctx, id, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestAdjustBalance_KeepsAllDigits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := createAccount(t, s, "big", "123456789012.123456")

	require.NoError(t, s.Accounts().AdjustBalance(ctx, id, money.MustParse("0.000001")))

	a, err := s.Accounts().FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "123456789012.123457", a.Balance.String())

	err = s.Accounts().AdjustBalance(ctx, 999, money.One)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestAccounts_ScopeAndMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	keep := createAccount(t, s, "keep", "0")
	gone := createAccount(t, s, "gone", "0")
	require.NoError(t, s.Accounts().SoftDelete(ctx, gone))

	active, err := s.Accounts().List(ctx, interfaces.ScopeActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, keep, active[0].ID)

	all, err := s.Accounts().List(ctx, interfaces.ScopeAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	missing, err := s.Accounts().FindByID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, s.Accounts().UpdateDetails(ctx, 42, "x", ""), interfaces.ErrNotFound)
	require.NoError(t, s.Accounts().UpdateDetails(ctx, keep, "renamed", "notes"))
	a, _ := s.Accounts().FindByID(ctx, keep)
	assert.Equal(t, "renamed", a.Name)
	assert.Equal(t, "notes", a.Description)
}

func TestLedger_PageIncludesIncomingTransfers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := createAccount(t, s, "a", "0")
	b := createAccount(t, s, "b", "0")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []models.LedgerEntry{
		{Timestamp: base, FromAccountID: a, Kind: models.TxDeposit, Amount: money.MustParse("100")},
		{Timestamp: base.Add(time.Minute), FromAccountID: b, ToAccountID: &a, Kind: models.TxTransfer, Amount: money.MustParse("5")},
		{Timestamp: base.Add(2 * time.Minute), FromAccountID: a, Kind: models.TxWithdraw, Amount: money.MustParse("1")},
		{Timestamp: base.Add(3 * time.Minute), FromAccountID: b, Kind: models.TxDeposit, Amount: money.MustParse("7")},
	}
	for i := range entries {
		entries[i].ExchangeRate = money.One
		_, err := s.Ledger().Append(ctx, &entries[i])
		require.NoError(t, err)
	}

	first, err := s.Ledger().PageByAccount(ctx, a, 0, 2)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.True(t, first.HasNext)
	assert.Equal(t, 1, first.NextPage)
	assert.Equal(t, models.TxWithdraw, first.Items[0].Kind)
	assert.Equal(t, models.TxTransfer, first.Items[1].Kind)
	require.NotNil(t, first.Items[1].ToAccountID)
	assert.Equal(t, a, *first.Items[1].ToAccountID)
	assert.True(t, first.Items[1].Timestamp.Equal(base.Add(time.Minute)))

	second, err := s.Ledger().PageByAccount(ctx, a, 1, 2)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.False(t, second.HasNext)
	assert.Equal(t, "100.000000", second.Items[0].Amount.String())
	assert.Nil(t, second.Items[0].ToAccountID)
}

func TestInstruments_UpsertAndSoftDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Instruments().Save(ctx, &models.Instrument{Name: "AAPL", Currency: "USD", AssetClass: models.AssetEquity}))
	require.NoError(t, s.Instruments().Save(ctx, &models.Instrument{Name: "AAPL", Currency: "USD", AssetClass: models.AssetEquity, DisplayTicker: "NASDAQ:AAPL"}))
	require.NoError(t, s.Instruments().Save(ctx, &models.Instrument{Name: "BTC", Currency: "USD", AssetClass: models.AssetCryptocurrency}))

	inst, err := s.Instruments().FindByName(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, "NASDAQ:AAPL", inst.DisplayTicker)
	assert.Equal(t, models.AssetEquity, inst.AssetClass)

	require.NoError(t, s.Instruments().SoftDelete(ctx, "BTC"))
	assert.ErrorIs(t, s.Instruments().SoftDelete(ctx, "NOPE"), interfaces.ErrNotFound)

	active, err := s.Instruments().List(ctx, interfaces.ScopeActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "AAPL", active[0].Name)

	all, err := s.Instruments().List(ctx, interfaces.ScopeAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	missing, err := s.Instruments().FindByName(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPrices_LatestWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	none, err := s.Prices().LatestPrice(ctx, "AAPL")
	require.NoError(t, err)
	assert.Nil(t, none)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Prices().RecordPrice(ctx, &models.PricePoint{Instrument: "AAPL", Price: money.MustParse("190.5"), ObservedAt: base.Add(time.Hour), Source: "manual"}))
	require.NoError(t, s.Prices().RecordPrice(ctx, &models.PricePoint{Instrument: "AAPL", Price: money.MustParse("180"), ObservedAt: base, Source: "manual"}))

	p, err := s.Prices().LatestPrice(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "190.500000", p.Price.String())
	assert.True(t, p.ObservedAt.Equal(base.Add(time.Hour)))
}

func TestTrades_SaveAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	acct := createAccount(t, s, "broker", "0")
	require.NoError(t, s.Instruments().Save(ctx, &models.Instrument{Name: "AAPL", Currency: "USD", AssetClass: models.AssetEquity}))

	buy := &models.Trade{Timestamp: time.Now(), Kind: models.TradeBuy, Units: 3, PricePerUnit: money.MustParse("1.1"), Instrument: "AAPL", AccountID: acct, Fee: money.MustParse("0.5")}
	buyID, err := s.Trades().Save(ctx, buy)
	require.NoError(t, err)

	sell := &models.Trade{Timestamp: time.Now(), Kind: models.TradeSell, Units: 1, PricePerUnit: money.MustParse("2"), Instrument: "AAPL", AccountID: acct, Fee: money.Zero, BuyID: &buyID}
	_, err = s.Trades().Save(ctx, sell)
	require.NoError(t, err)

	got, err := s.Trades().FindByID(ctx, sell.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.BuyID)
	assert.Equal(t, buyID, *got.BuyID)
	assert.Equal(t, models.TradeSell, got.Kind)

	missing, err := s.Trades().FindByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	trades, err := s.Trades().FindByAccount(ctx, acct)
	require.NoError(t, err)
	assert.Len(t, trades, 2)

	page, err := s.Trades().PageByAccount(ctx, acct, 0, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.HasNext)
}

// foldInCore mirrors the position service fold for parity checks.
func foldInCore(t *testing.T, s *Store, accountID int64) map[string]*models.Position {
	t.Helper()
	ctx := context.Background()
	out := make(map[string]*models.Position)
	trades, err := s.Trades().FindByAccount(ctx, accountID)
	require.NoError(t, err)
	for _, tr := range trades {
		inst, err := s.Instruments().FindByName(ctx, tr.Instrument)
		require.NoError(t, err)
		if inst == nil || inst.Deleted {
			continue
		}
		p, ok := out[inst.Name]
		if !ok {
			p = models.NewPosition(inst)
			out[inst.Name] = p
		}
		p.Apply(*tr)
	}
	return out
}

func TestAggregatePositions_MatchesInCoreFold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	acct := createAccount(t, s, "broker", "0")
	for _, name := range []string{"AAPL", "MSFT", "GONE"} {
		require.NoError(t, s.Instruments().Save(ctx, &models.Instrument{Name: name, Currency: "USD", AssetClass: models.AssetEquity}))
	}

	trades := []models.Trade{
		{Kind: models.TradeBuy, Units: 10, PricePerUnit: money.MustParse("100.25"), Instrument: "AAPL", Fee: money.MustParse("1")},
		{Kind: models.TradeSell, Units: 4, PricePerUnit: money.MustParse("120"), Instrument: "AAPL", Fee: money.MustParse("0.75")},
		{Kind: models.TradeDividend, Units: 0, PricePerUnit: money.Zero, Instrument: "AAPL", Fee: money.MustParse("0.1")},
		{Kind: models.TradeBuy, Units: 2, PricePerUnit: money.MustParse("300.333333"), Instrument: "MSFT", Fee: money.Zero},
		{Kind: models.TradeBuy, Units: 5, PricePerUnit: money.MustParse("1"), Instrument: "GONE", Fee: money.Zero},
	}
	for i := range trades {
		trades[i].AccountID = acct
		trades[i].Timestamp = time.Now()
		_, err := s.Trades().Save(ctx, &trades[i])
		require.NoError(t, err)
	}
	require.NoError(t, s.Instruments().SoftDelete(ctx, "GONE"))

	rows, err := s.Trades().(interfaces.PositionAggregator).AggregatePositions(ctx, acct)
	require.NoError(t, err)
	expected := foldInCore(t, s, acct)

	require.Len(t, rows, len(expected))
	for _, p := range rows {
		want, ok := expected[p.Instrument]
		require.True(t, ok, p.Instrument)
		assert.Equal(t, want.UnitsHeld, p.UnitsHeld, p.Instrument)
		assert.Equal(t, want.CostBasis.String(), p.CostBasis.String(), p.Instrument)
		assert.Equal(t, want.TotalFee.String(), p.TotalFee.String(), p.Instrument)
		assert.Equal(t, want.Currency, p.Currency)
	}
	assert.Equal(t, "AAPL", rows[0].Instrument)
	assert.Equal(t, int64(6), rows[0].UnitsHeld)
	assert.Equal(t, "522.500000", rows[0].CostBasis.String())
	assert.Equal(t, "1.850000", rows[0].TotalFee.String())

	require.NoError(t, s.Accounts().SoftDelete(ctx, acct))
	rows, err = s.Trades().(interfaces.PositionAggregator).AggregatePositions(ctx, acct)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
