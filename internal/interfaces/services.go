package interfaces

import (
	"context"

	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
)

// TransactionRequest is unparsed caller input for a money movement.
type TransactionRequest struct {
	AccountIDFrom int64                  `json:"account_id_from"`
	AccountIDTo   *int64                 `json:"account_id_to,omitempty"`
	Amount        string                 `json:"amount"`
	Kind          models.TransactionKind `json:"transaction_type"`
	ExchangeRate  string                 `json:"exchange_rate,omitempty"`
}

// CreateAccountRequest is caller input for opening an account.
type CreateAccountRequest struct {
	Name           string             `json:"name"`
	Currency       string             `json:"currency"`
	Type           models.AccountType `json:"account_type"`
	Description    string             `json:"description"`
	InitialBalance string             `json:"initial_balance,omitempty"`
}

// UpdateAccountRequest changes the descriptive fields of an account.
type UpdateAccountRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TradeRequest is unparsed caller input for recording a trade.
type TradeRequest struct {
	Kind            models.TradeKind `json:"trade_type"`
	Units           int64            `json:"num_of_units"`
	PricePerUnit    string           `json:"price_per_unit"`
	Instrument      string           `json:"name"`
	AccountID       int64            `json:"account_id"`
	Fee             string           `json:"fee,omitempty"`
	BuyID           *int64           `json:"buy_id,omitempty"`
	TimestampMillis int64            `json:"timestamp,omitempty"` // 0 means now
}

// InstrumentRequest is caller input for creating or updating an instrument.
type InstrumentRequest struct {
	Name          string            `json:"name"`
	Currency      string            `json:"currency"`
	AssetClass    models.AssetClass `json:"asset_class"`
	DisplayTicker string            `json:"display_ticker"`
}

// PriceRequest is caller input for recording a price observation.
type PriceRequest struct {
	Price      string `json:"price"`
	ObservedAt string `json:"observed_at,omitempty"`
	Source     string `json:"source"`
}

// GroupRequest is caller input for creating an account group.
type GroupRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// GroupMembershipRequest assigns an account to, or removes it from, a group.
type GroupMembershipRequest struct {
	AccountID int64 `json:"account_id"`
	GroupID   int64 `json:"account_group_id"`
}

// LedgerService moves money between accounts and manages account lifecycle.
type LedgerService interface {
	Transact(ctx context.Context, req TransactionRequest) (*models.LedgerEntry, error)
	CreateAccount(ctx context.Context, req CreateAccountRequest) (*models.Account, error)
	UpdateAccount(ctx context.Context, id int64, req UpdateAccountRequest) (*models.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	Activity(ctx context.Context, id int64, ledgerPage, tradePage int) (*models.AccountActivity, error)

	CreateGroup(ctx context.Context, req GroupRequest) (*models.AccountGroup, error)
	GroupAccount(ctx context.Context, req GroupMembershipRequest) error
	UngroupAccount(ctx context.Context, req GroupMembershipRequest) error
	GroupMappings(ctx context.Context) ([]*models.GroupMapping, error)
}

// TradeService records trades and manages instruments and their prices.
type TradeService interface {
	RecordTrade(ctx context.Context, req TradeRequest) (*models.Trade, error)
	CreateInstrument(ctx context.Context, req InstrumentRequest) (*models.Instrument, error)
	UpdateInstrument(ctx context.Context, name string, req InstrumentRequest) (*models.Instrument, error)
	DeleteInstrument(ctx context.Context, name string) error
	GetInstrument(ctx context.Context, name string) (*models.Instrument, error)
	ListInstruments(ctx context.Context) ([]*models.Instrument, error)
	RecordPrice(ctx context.Context, instrument string, req PriceRequest) (*models.PricePoint, error)
}

// PositionService derives and values positions from trade history.
type PositionService interface {
	Positions(ctx context.Context, accountID int64) (map[string]*models.Position, error)
	Valuate(ctx context.Context, accountID int64) (*models.AccountValuation, error)
	AssetValue(ctx context.Context, accountID int64) (money.Money, error)
	CostBasis(ctx context.Context, accountID int64) (money.Money, error)
	TotalAssetValue(ctx context.Context, accountID int64) (money.Money, error)
	ValuateAll(ctx context.Context) ([]*models.AccountValuation, error)
}
