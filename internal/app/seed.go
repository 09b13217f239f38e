package app

import (
	"context"
	"fmt"
	"os"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"gopkg.in/yaml.v3"
)

// Fixtures is a YAML document describing a set of accounts, instruments and
// their history. Accounts and trades carry a ref so later entries can point
// at them before ids are known.
type Fixtures struct {
	Instruments  []InstrumentFixture  `yaml:"instruments"`
	Accounts     []AccountFixture     `yaml:"accounts"`
	Transactions []TransactionFixture `yaml:"transactions"`
	Trades       []TradeFixture       `yaml:"trades"`
	Prices       []PriceFixture       `yaml:"prices"`
}

type InstrumentFixture struct {
	Name          string `yaml:"name"`
	Currency      string `yaml:"currency"`
	AssetClass    string `yaml:"asset_class"`
	DisplayTicker string `yaml:"display_ticker,omitempty"`
}

type AccountFixture struct {
	Ref            string `yaml:"ref"`
	Name           string `yaml:"name"`
	Currency       string `yaml:"currency"`
	Type           string `yaml:"account_type"`
	Description    string `yaml:"description,omitempty"`
	InitialBalance string `yaml:"initial_balance,omitempty"`
}

type TransactionFixture struct {
	From         string `yaml:"from"`
	To           string `yaml:"to,omitempty"`
	Kind         string `yaml:"transaction_type"`
	Amount       string `yaml:"amount"`
	ExchangeRate string `yaml:"exchange_rate,omitempty"`
}

type TradeFixture struct {
	Ref          string `yaml:"ref,omitempty"`
	Account      string `yaml:"account"`
	Kind         string `yaml:"trade_type"`
	Instrument   string `yaml:"name"`
	Units        int64  `yaml:"num_of_units"`
	PricePerUnit string `yaml:"price_per_unit"`
	Fee          string `yaml:"fee,omitempty"`
	Buy          string `yaml:"buy,omitempty"`
}

type PriceFixture struct {
	Instrument string `yaml:"name"`
	Price      string `yaml:"price"`
	ObservedAt string `yaml:"observed_at,omitempty"`
	Source     string `yaml:"source,omitempty"`
}

// SeedResult counts what was created.
type SeedResult struct {
	Instruments  int `json:"instruments"`
	Accounts     int `json:"accounts"`
	Transactions int `json:"transactions"`
	Trades       int `json:"trades"`
	Prices       int `json:"prices"`
}

// LoadFixtures reads a fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures file: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes a fixtures document.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// Seed applies fixtures through the services, so every entry passes the same
// validation as an API call. It stops at the first failure.
func (a *App) Seed(ctx context.Context, f *Fixtures) (*SeedResult, error) {
	res := &SeedResult{}

	for i, inst := range f.Instruments {
		if _, err := a.TradeService.CreateInstrument(ctx, interfaces.InstrumentRequest{
			Name:          inst.Name,
			Currency:      inst.Currency,
			AssetClass:    models.AssetClass(inst.AssetClass),
			DisplayTicker: inst.DisplayTicker,
		}); err != nil {
			return res, fmt.Errorf("instrument %d (%s): %w", i, inst.Name, err)
		}
		res.Instruments++
	}

	accounts := make(map[string]int64, len(f.Accounts))
	for i, acc := range f.Accounts {
		created, err := a.LedgerService.CreateAccount(ctx, interfaces.CreateAccountRequest{
			Name:           acc.Name,
			Currency:       acc.Currency,
			Type:           models.AccountType(acc.Type),
			Description:    acc.Description,
			InitialBalance: acc.InitialBalance,
		})
		if err != nil {
			return res, fmt.Errorf("account %d (%s): %w", i, acc.Name, err)
		}
		if acc.Ref != "" {
			accounts[acc.Ref] = created.ID
		}
		res.Accounts++
	}

	lookup := func(ref string) (int64, error) {
		id, ok := accounts[ref]
		if !ok {
			return 0, fmt.Errorf("unknown account ref %q", ref)
		}
		return id, nil
	}

	for i, tx := range f.Transactions {
		from, err := lookup(tx.From)
		if err != nil {
			return res, fmt.Errorf("transaction %d: %w", i, err)
		}
		req := interfaces.TransactionRequest{
			AccountIDFrom: from,
			Amount:        tx.Amount,
			Kind:          models.TransactionKind(tx.Kind),
			ExchangeRate:  tx.ExchangeRate,
		}
		if tx.To != "" {
			to, err := lookup(tx.To)
			if err != nil {
				return res, fmt.Errorf("transaction %d: %w", i, err)
			}
			req.AccountIDTo = &to
		}
		if _, err := a.LedgerService.Transact(ctx, req); err != nil {
			return res, fmt.Errorf("transaction %d: %w", i, err)
		}
		res.Transactions++
	}

	trades := make(map[string]int64, len(f.Trades))
	for i, tr := range f.Trades {
		account, err := lookup(tr.Account)
		if err != nil {
			return res, fmt.Errorf("trade %d: %w", i, err)
		}
		req := interfaces.TradeRequest{
			Kind:         models.TradeKind(tr.Kind),
			Units:        tr.Units,
			PricePerUnit: tr.PricePerUnit,
			Instrument:   tr.Instrument,
			AccountID:    account,
			Fee:          tr.Fee,
		}
		if tr.Buy != "" {
			buyID, ok := trades[tr.Buy]
			if !ok {
				return res, fmt.Errorf("trade %d: unknown trade ref %q", i, tr.Buy)
			}
			req.BuyID = &buyID
		}
		saved, err := a.TradeService.RecordTrade(ctx, req)
		if err != nil {
			return res, fmt.Errorf("trade %d: %w", i, err)
		}
		if tr.Ref != "" {
			trades[tr.Ref] = saved.ID
		}
		res.Trades++
	}

	for i, p := range f.Prices {
		if _, err := a.TradeService.RecordPrice(ctx, p.Instrument, interfaces.PriceRequest{
			Price:      p.Price,
			ObservedAt: p.ObservedAt,
			Source:     p.Source,
		}); err != nil {
			return res, fmt.Errorf("price %d (%s): %w", i, p.Instrument, err)
		}
		res.Prices++
	}

	a.Logger.Info().
		Int("instruments", res.Instruments).
		Int("accounts", res.Accounts).
		Int("transactions", res.Transactions).
		Int("trades", res.Trades).
		Int("prices", res.Prices).
		Msg("Fixtures seeded")

	return res, nil
}
