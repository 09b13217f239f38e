// Package validation holds the pure business-key checks run before a mutation
// commits. Checks never touch storage: callers fetch entities first and pass
// nil for anything that did not resolve.
package validation

import (
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
)

// Check is a deferred predicate returning nil or a *models.Violation.
type Check func() *models.Violation

// First runs checks in order and returns the first violation.
func First(checks ...Check) error {
	for _, c := range checks {
		if v := c(); v != nil {
			return v
		}
	}
	return nil
}

// AccountMustExist fails when the account did not resolve.
func AccountMustExist(account *models.Account, id int64) Check {
	return func() *models.Violation {
		if account == nil {
			return &models.Violation{Key: models.KeyAccountMustExist, AccountIDs: []int64{id}}
		}
		return nil
	}
}

// AccountNotDeleted fails for a soft-deleted account. A nil account passes;
// existence is AccountMustExist's concern.
func AccountNotDeleted(account *models.Account) Check {
	return func() *models.Violation {
		if account != nil && account.Deleted {
			return &models.Violation{Key: models.KeyAccountNotDeleted, AccountIDs: []int64{account.ID}}
		}
		return nil
	}
}

// ActiveAccount is AccountMustExist followed by AccountNotDeleted.
func ActiveAccount(account *models.Account, id int64) Check {
	return func() *models.Violation {
		if v := AccountMustExist(account, id)(); v != nil {
			return v
		}
		return AccountNotDeleted(account)()
	}
}

// GroupMustExist fails when the account group did not resolve.
func GroupMustExist(group *models.AccountGroup, id int64) Check {
	return func() *models.Violation {
		if group == nil {
			return &models.Violation{Key: models.KeyGroupMustExist, GroupID: &id}
		}
		return nil
	}
}

// StockMustExist fails when the instrument did not resolve.
func StockMustExist(instrument *models.Instrument, name string) Check {
	return func() *models.Violation {
		if instrument == nil {
			return &models.Violation{Key: models.KeyStockMustExist, Instrument: name}
		}
		return nil
	}
}

// StockNotDeleted fails for a soft-deleted instrument.
func StockNotDeleted(instrument *models.Instrument) Check {
	return func() *models.Violation {
		if instrument != nil && instrument.Deleted {
			return &models.Violation{Key: models.KeyStockNotDeleted, Instrument: instrument.Name}
		}
		return nil
	}
}

// CurrencyMustMatch fails when account and instrument trade in different
// currencies. Comparison is case-insensitive.
func CurrencyMustMatch(account *models.Account, instrument *models.Instrument) Check {
	return func() *models.Violation {
		if account == nil || instrument == nil {
			return nil
		}
		if !models.SameCurrency(account.Currency, instrument.Currency) {
			return &models.Violation{
				Key:        models.KeyAccountStockCurrency,
				AccountIDs: []int64{account.ID},
				Instrument: instrument.Name,
			}
		}
		return nil
	}
}

// SellMustHaveBuyID fails when a SELL does not reference a buy.
func SellMustHaveBuyID(t *models.Trade) Check {
	return func() *models.Violation {
		if t.Kind == models.TradeSell && t.BuyID == nil {
			return &models.Violation{
				Key:        models.KeySellMustHaveBuyID,
				AccountIDs: []int64{t.AccountID},
				Instrument: t.Instrument,
			}
		}
		return nil
	}
}

// SellWhatIsBought fails when the referenced buy did not resolve.
func SellWhatIsBought(t *models.Trade, buy *models.Trade) Check {
	return func() *models.Violation {
		if t.Kind == models.TradeSell && buy == nil {
			return &models.Violation{
				Key:        models.KeySellWhatIsBought,
				AccountIDs: []int64{t.AccountID},
				Instrument: t.Instrument,
				TradeID:    t.BuyID,
			}
		}
		return nil
	}
}

// SellWrongStock fails when the referenced buy belongs to another account or
// instrument.
func SellWrongStock(t *models.Trade, buy *models.Trade) Check {
	return func() *models.Violation {
		if t.Kind != models.TradeSell || buy == nil {
			return nil
		}
		if buy.AccountID != t.AccountID || buy.Instrument != t.Instrument {
			id := buy.ID
			return &models.Violation{
				Key:        models.KeySellWrongStock,
				AccountIDs: []int64{t.AccountID, buy.AccountID},
				Instrument: t.Instrument,
				TradeID:    &id,
			}
		}
		return nil
	}
}

// SufficientFunds fails when debiting amount would leave the account negative.
// It is skipped entirely when overdraft is allowed.
func SufficientFunds(account *models.Account, amount money.Money, allowOverdraft bool) Check {
	return func() *models.Violation {
		if allowOverdraft || account == nil {
			return nil
		}
		if account.Balance.Sub(amount).IsNegative() {
			return &models.Violation{Key: models.KeyAccountSufficientFunds, AccountIDs: []int64{account.ID}}
		}
		return nil
	}
}
