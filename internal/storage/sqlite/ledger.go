package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
)

type ledgerRepo struct{ session }

var _ interfaces.LedgerStore = ledgerRepo{}

func (r ledgerRepo) Append(ctx context.Context, entry *models.LedgerEntry) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO ledger_entries (ts, account_id_from, account_id_to, amount, transaction_type, exchange_rate) VALUES (?, ?, ?, ?, ?, ?)",
		formatTime(entry.Timestamp), entry.FromAccountID, nullInt64(entry.ToAccountID),
		entry.Amount, string(entry.Kind), entry.ExchangeRate)
	if err != nil {
		return 0, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read ledger entry id: %w", err)
	}
	entry.ID = id
	return id, nil
}

func (r ledgerRepo) PageByAccount(ctx context.Context, accountID int64, pageNum, size int) (models.Page[models.LedgerEntry], error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, ts, account_id_from, account_id_to, amount, transaction_type, exchange_rate
		FROM ledger_entries
		WHERE account_id_from = ? OR account_id_to = ?
		ORDER BY ts DESC, id DESC
		LIMIT ? OFFSET ?`,
		accountID, accountID, size+1, pageNum*size)
	if err != nil {
		return models.Page[models.LedgerEntry]{}, fmt.Errorf("failed to query ledger for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var items []models.LedgerEntry
	for rows.Next() {
		var (
			e    models.LedgerEntry
			ts   string
			to   sql.NullInt64
			kind string
		)
		if err := rows.Scan(&e.ID, &ts, &e.FromAccountID, &to, &e.Amount, &kind, &e.ExchangeRate); err != nil {
			return models.Page[models.LedgerEntry]{}, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return models.Page[models.LedgerEntry]{}, fmt.Errorf("ledger entry %d has invalid timestamp: %w", e.ID, err)
		}
		e.ToAccountID = int64Ptr(to)
		e.Kind = models.TransactionKind(kind)
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.LedgerEntry]{}, err
	}
	return models.NewPage(items, pageNum, size), nil
}
