package models

import (
	"strings"
	"time"

	"github.com/bobmcallan/tracket/internal/money"
)

// AccountType classifies what an account is used for.
type AccountType string

const (
	AccountTypeInvestment AccountType = "INVESTMENT"
	AccountTypeBudget     AccountType = "BUDGET"
)

// validAccountTypes lists all accepted account types.
var validAccountTypes = map[AccountType]bool{
	AccountTypeInvestment: true,
	AccountTypeBudget:     true,
}

// ValidAccountType returns true if t is a known account type.
func ValidAccountType(t AccountType) bool {
	return validAccountTypes[t]
}

// MaxCurrencyLength is the longest currency code accepted on accounts and instruments.
const MaxCurrencyLength = 4

// Account holds a cash balance. Balance only changes through ledger entries.
type Account struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Currency    string      `json:"currency"`
	Type        AccountType `json:"account_type"`
	Description string      `json:"description"`
	Balance     money.Money `json:"balance"`
	CreatedAt   time.Time   `json:"created_at"`
	Deleted     bool        `json:"deleted"`
}

// SameCurrency compares currency codes case-insensitively, ignoring padding.
func SameCurrency(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
