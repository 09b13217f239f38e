package models

import (
	"time"

	"github.com/bobmcallan/tracket/internal/money"
)

// TransactionKind categorises a ledger entry.
type TransactionKind string

const (
	TxDeposit  TransactionKind = "DEPOSIT"
	TxWithdraw TransactionKind = "WITHDRAW"
	TxTransfer TransactionKind = "TRANSFER"
)

var validTransactionKinds = map[TransactionKind]bool{
	TxDeposit:  true,
	TxWithdraw: true,
	TxTransfer: true,
}

// ValidTransactionKind returns true if k is a known transaction kind.
func ValidTransactionKind(k TransactionKind) bool {
	return validTransactionKinds[k]
}

// LedgerEntry is one immutable audit record of a deposit, withdrawal or transfer.
// Amount is stored as entered, never pre-negated.
type LedgerEntry struct {
	ID            int64           `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	FromAccountID int64           `json:"account_id_from"`
	ToAccountID   *int64          `json:"account_id_to,omitempty"`
	Amount        money.Money     `json:"amount"`
	Kind          TransactionKind `json:"transaction_type"`
	ExchangeRate  money.Money     `json:"exchange_rate"`
}

// Page is one slice of a newest-first listing.
type Page[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	NextPage int  `json:"next_page"`
}

// NewPage builds a page from items fetched with one extra row beyond size,
// which signals that another page exists.
func NewPage[T any](items []T, page, size int) Page[T] {
	p := Page[T]{Page: page, PageSize: size, NextPage: page}
	if len(items) > size {
		items = items[:size]
		p.HasNext = true
		p.NextPage = page + 1
	}
	if items == nil {
		items = []T{}
	}
	p.Items = items
	return p
}

// AccountActivity pairs a page of ledger entries with a page of trades.
type AccountActivity struct {
	AccountID int64             `json:"account_id"`
	Ledger    Page[LedgerEntry] `json:"ledger"`
	Trades    Page[Trade]       `json:"trades"`
}
