package models

import "github.com/bobmcallan/tracket/internal/money"

// Position is an account's derived holding in one instrument.
// It is recomputed from the trade history on every request.
type Position struct {
	Instrument  string       `json:"name"`
	Currency    string       `json:"currency"`
	AssetClass  AssetClass   `json:"asset_class"`
	UnitsHeld   int64        `json:"units_held"`
	CostBasis   money.Money  `json:"cost_basis"`
	TotalFee    money.Money  `json:"total_fee"`
	LatestPrice *money.Money `json:"latest_price,omitempty"`
	MarketValue money.Money  `json:"market_value"`
	Priced      bool         `json:"priced"`
}

// NewPosition returns an empty position for the instrument.
func NewPosition(inst *Instrument) *Position {
	return &Position{
		Instrument:  inst.Name,
		Currency:    inst.Currency,
		AssetClass:  inst.AssetClass,
		CostBasis:   money.Zero,
		TotalFee:    money.Zero,
		MarketValue: money.Zero,
	}
}

// Apply folds one trade into the position. The fold is commutative, so
// trades may be applied in any order.
//
// SELL reduces cost basis by its own units × price (net-proceeds model),
// not by the cost of the referenced buy.
func (p *Position) Apply(t Trade) {
	switch t.Kind {
	case TradeBuy:
		p.UnitsHeld += t.Units
		p.CostBasis = p.CostBasis.Add(t.Notional())
	case TradeSell:
		p.UnitsHeld -= t.Units
		p.CostBasis = p.CostBasis.Sub(t.Notional())
	case TradeDividend:
	}
	p.TotalFee = p.TotalFee.Add(t.Fee)
}

// Cost is cost basis plus accrued fees.
func (p *Position) Cost() money.Money {
	return p.CostBasis.Add(p.TotalFee)
}

// Value sets the latest price and derives market value. A nil price marks the
// position as unpriced with zero market value.
func (p *Position) Value(price *money.Money) {
	if price == nil {
		p.LatestPrice = nil
		p.MarketValue = money.Zero
		p.Priced = false
		return
	}
	v := *price
	p.LatestPrice = &v
	p.MarketValue = v.MulInt(p.UnitsHeld)
	p.Priced = true
}

// AccountValuation is the valued view of one account's holdings.
type AccountValuation struct {
	Account    *Account             `json:"account"`
	Positions  map[string]*Position `json:"positions,omitempty"`
	AssetValue money.Money          `json:"asset_value"`
	CostBasis  money.Money          `json:"cost_basis"`
	ProfitLoss money.Money          `json:"profit_loss"`
	Unpriced   []string             `json:"unpriced,omitempty"`
}
