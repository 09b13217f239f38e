package models

import (
	"time"

	"github.com/bobmcallan/tracket/internal/money"
)

// TradeKind is the direction of a trade.
type TradeKind string

const (
	TradeBuy      TradeKind = "BUY"
	TradeSell     TradeKind = "SELL"
	TradeDividend TradeKind = "DIVIDEND"
)

var validTradeKinds = map[TradeKind]bool{
	TradeBuy:      true,
	TradeSell:     true,
	TradeDividend: true,
}

// ValidTradeKind returns true if k is a known trade kind.
func ValidTradeKind(k TradeKind) bool {
	return validTradeKinds[k]
}

// Trade is an immutable record of a buy, sell or dividend.
// BuyID is set only on SELL trades and points at the originating BUY.
type Trade struct {
	ID           int64       `json:"id"`
	Timestamp    time.Time   `json:"timestamp"`
	Kind         TradeKind   `json:"trade_type"`
	Units        int64       `json:"num_of_units"`
	PricePerUnit money.Money `json:"price_per_unit"`
	Instrument   string      `json:"name"`
	AccountID    int64       `json:"account_id"`
	Fee          money.Money `json:"fee"`
	BuyID        *int64      `json:"buy_id,omitempty"`
}

// Notional returns units × price per unit.
func (t Trade) Notional() money.Money {
	return t.PricePerUnit.MulInt(t.Units)
}

// PricePoint is one observed market price for an instrument.
type PricePoint struct {
	Instrument string      `json:"name"`
	Price      money.Money `json:"price"`
	ObservedAt time.Time   `json:"observed_at"`
	Source     string      `json:"source"`
}
