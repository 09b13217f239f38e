package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// BusinessKey names a cross-entity consistency rule.
type BusinessKey string

const (
	KeyAccountMustExist        BusinessKey = "ACCOUNT_MUST_EXIST"
	KeyAccountNotDeleted       BusinessKey = "ACCOUNT_NOT_DELETED"
	KeyStockMustExist          BusinessKey = "STOCK_MUST_EXIST"
	KeyStockNotDeleted         BusinessKey = "STOCK_NOT_DELETED"
	KeyAccountStockCurrency    BusinessKey = "ACCOUNT_STOCK_CURRENCY_MUST_BE_SAME"
	KeySellMustHaveBuyID       BusinessKey = "SELL_MUST_HAVE_BUY_ID"
	KeySellWhatIsBought        BusinessKey = "SELL_WHAT_IS_BOUGHT"
	KeySellWrongStock          BusinessKey = "SELL_WRONG_STOCK"
	KeyAccountSufficientFunds  BusinessKey = "ACCOUNT_SUFFICIENT_FUNDS"
	KeyInstrumentAlreadyExists BusinessKey = "STOCK_ALREADY_EXISTS"
	KeyGroupMustExist          BusinessKey = "GROUP_MUST_EXIST"
	KeyGroupAlreadyExists      BusinessKey = "GROUP_ALREADY_EXISTS"
)

// ErrorKind is the coarse classification callers map to responses.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindInvariant
	KindInvalidArgument
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvariant:
		return "invariant_violation"
	case KindInvalidArgument:
		return "invalid_argument"
	default:
		return "internal"
	}
}

// notFoundKeys are the keys whose failure means a reference did not resolve.
var notFoundKeys = map[BusinessKey]bool{
	KeyAccountMustExist: true,
	KeyStockMustExist:   true,
	KeySellWhatIsBought: true,
	KeyGroupMustExist:   true,
}

// Violation reports a failed business rule together with the entities involved.
type Violation struct {
	Key        BusinessKey `json:"key"`
	AccountIDs []int64     `json:"account_ids,omitempty"`
	Instrument string      `json:"instrument,omitempty"`
	TradeID    *int64      `json:"trade_id,omitempty"`
	GroupID    *int64      `json:"group_id,omitempty"`
}

// Kind returns KindNotFound for unresolved references, KindInvariant otherwise.
func (v *Violation) Kind() ErrorKind {
	if notFoundKeys[v.Key] {
		return KindNotFound
	}
	return KindInvariant
}

func (v *Violation) Error() string {
	var refs []string
	for _, id := range v.AccountIDs {
		refs = append(refs, "account="+strconv.FormatInt(id, 10))
	}
	if v.Instrument != "" {
		refs = append(refs, "instrument="+v.Instrument)
	}
	if v.TradeID != nil {
		refs = append(refs, "trade="+strconv.FormatInt(*v.TradeID, 10))
	}
	if v.GroupID != nil {
		refs = append(refs, "group="+strconv.FormatInt(*v.GroupID, 10))
	}
	if len(refs) == 0 {
		return string(v.Key)
	}
	return fmt.Sprintf("%s (%s)", v.Key, strings.Join(refs, ", "))
}

// InvalidArgumentError rejects malformed caller input before any store access.
type InvalidArgumentError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// InvalidArgument builds an InvalidArgumentError.
func InvalidArgument(field, format string, args ...any) error {
	return &InvalidArgumentError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf classifies err. Unrecognised errors are internal.
func KindOf(err error) ErrorKind {
	var v *Violation
	if errors.As(err, &v) {
		return v.Kind()
	}
	var ia *InvalidArgumentError
	if errors.As(err, &ia) {
		return KindInvalidArgument
	}
	return KindInternal
}

// AsViolation extracts the Violation from err, if any.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	ok := errors.As(err, &v)
	return v, ok
}
