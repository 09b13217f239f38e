package ledger

import (
	"strings"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
)

// Movement is a parsed, well-formed money movement. The set of
// implementations is closed: Deposit, Withdraw and Transfer.
type Movement interface {
	Kind() models.TransactionKind
	Source() int64
	isMovement()
}

// Deposit credits Amount to the account.
type Deposit struct {
	AccountID int64
	Amount    money.Money
}

// Withdraw debits Amount from the account.
type Withdraw struct {
	AccountID int64
	Amount    money.Money
}

// Transfer debits Amount from From and credits Amount × Rate to To.
type Transfer struct {
	From   int64
	To     int64
	Amount money.Money
	Rate   money.Money
}

func (Deposit) Kind() models.TransactionKind  { return models.TxDeposit }
func (Withdraw) Kind() models.TransactionKind { return models.TxWithdraw }
func (Transfer) Kind() models.TransactionKind { return models.TxTransfer }

func (d Deposit) Source() int64  { return d.AccountID }
func (w Withdraw) Source() int64 { return w.AccountID }
func (t Transfer) Source() int64 { return t.From }

func (Deposit) isMovement()  {}
func (Withdraw) isMovement() {}
func (Transfer) isMovement() {}

// Credit is the amount the destination receives.
func (t Transfer) Credit() money.Money {
	return t.Amount.Mul(t.Rate)
}

// ParseMovement validates caller input and builds the matching Movement.
// All failures are *models.InvalidArgumentError.
func ParseMovement(req interfaces.TransactionRequest) (Movement, error) {
	kind := models.TransactionKind(strings.ToUpper(strings.TrimSpace(string(req.Kind))))
	if !models.ValidTransactionKind(kind) {
		return nil, models.InvalidArgument("transaction_type", "must be DEPOSIT, WITHDRAW or TRANSFER, got %q", req.Kind)
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		return nil, models.InvalidArgument("amount", "%v", err)
	}
	if amount.IsNegative() {
		return nil, models.InvalidArgument("amount", "must not be negative")
	}

	switch kind {
	case models.TxDeposit, models.TxWithdraw:
		if req.AccountIDTo != nil {
			return nil, models.InvalidArgument("account_id_to", "only allowed for TRANSFER")
		}
		if kind == models.TxDeposit {
			return Deposit{AccountID: req.AccountIDFrom, Amount: amount}, nil
		}
		return Withdraw{AccountID: req.AccountIDFrom, Amount: amount}, nil
	default:
		if req.AccountIDTo == nil {
			return nil, models.InvalidArgument("account_id_to", "required for TRANSFER")
		}
		if strings.TrimSpace(req.ExchangeRate) == "" {
			return nil, models.InvalidArgument("exchange_rate", "required for TRANSFER")
		}
		rate, err := money.Parse(req.ExchangeRate)
		if err != nil {
			return nil, models.InvalidArgument("exchange_rate", "%v", err)
		}
		if rate.IsZero() {
			return nil, models.InvalidArgument("exchange_rate", "must not be zero")
		}
		return Transfer{From: req.AccountIDFrom, To: *req.AccountIDTo, Amount: amount, Rate: rate}, nil
	}
}
