package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const ledgerSelectFields = "entry_id, ts, account_id_from, account_id_to, amount, transaction_type, exchange_rate"

type ledgerRecord struct {
	EntryID         int64  `json:"entry_id"`
	Timestamp       string `json:"ts"`
	AccountIDFrom   int64  `json:"account_id_from"`
	AccountIDTo     *int64 `json:"account_id_to"`
	Amount          string `json:"amount"`
	TransactionType string `json:"transaction_type"`
	ExchangeRate    string `json:"exchange_rate"`
}

func (r ledgerRecord) toModel() (models.LedgerEntry, error) {
	e := models.LedgerEntry{
		ID:            r.EntryID,
		FromAccountID: r.AccountIDFrom,
		ToAccountID:   r.AccountIDTo,
		Kind:          models.TransactionKind(r.TransactionType),
	}
	var err error
	if e.Timestamp, err = time.Parse(tsLayout, r.Timestamp); err != nil {
		return e, fmt.Errorf("ledger entry %d has invalid timestamp: %w", r.EntryID, err)
	}
	if e.Amount, err = money.ParseExact(r.Amount); err != nil {
		return e, fmt.Errorf("ledger entry %d: %w", r.EntryID, err)
	}
	if e.ExchangeRate, err = money.ParseExact(r.ExchangeRate); err != nil {
		return e, fmt.Errorf("ledger entry %d: %w", r.EntryID, err)
	}
	return e, nil
}

type ledgerRepo struct{ session }

var _ interfaces.LedgerStore = ledgerRepo{}

func (r ledgerRepo) Append(ctx context.Context, entry *models.LedgerEntry) (int64, error) {
	id, err := r.m.nextID(ctx, "ledger_entry")
	if err != nil {
		return 0, err
	}
	sql := `CREATE $rid SET
		entry_id = $entry_id, ts = $ts, account_id_from = $account_id_from, account_id_to = $account_id_to,
		amount = $amount, transaction_type = $transaction_type, exchange_rate = $exchange_rate`
	vars := map[string]any{
		"rid":              surrealmodels.NewRecordID("ledger_entry", id),
		"entry_id":         id,
		"ts":               entry.Timestamp.UTC().Format(tsLayout),
		"account_id_from":  entry.FromAccountID,
		"account_id_to":    entry.ToAccountID,
		"amount":           entry.Amount.String(),
		"transaction_type": string(entry.Kind),
		"exchange_rate":    entry.ExchangeRate.String(),
	}
	if err := r.write(ctx, sql, vars); err != nil {
		return 0, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	entry.ID = id
	return id, nil
}

func (r ledgerRepo) PageByAccount(ctx context.Context, accountID int64, pageNum, size int) (models.Page[models.LedgerEntry], error) {
	sql := "SELECT " + ledgerSelectFields + " FROM ledger_entry" +
		" WHERE account_id_from = $account_id OR account_id_to = $account_id" +
		" ORDER BY ts DESC, entry_id DESC LIMIT $limit START $start"
	vars := map[string]any{
		"account_id": accountID,
		"limit":      size + 1,
		"start":      pageNum * size,
	}

	rows, err := query[ledgerRecord](ctx, r.db(), sql, vars)
	if err != nil {
		return models.Page[models.LedgerEntry]{}, fmt.Errorf("failed to query ledger for account %d: %w", accountID, err)
	}
	items := make([]models.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		e, err := row.toModel()
		if err != nil {
			return models.Page[models.LedgerEntry]{}, err
		}
		items = append(items, e)
	}
	return models.NewPage(items, pageNum, size), nil
}
