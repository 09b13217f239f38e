package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
)

type accountRepo struct{ session }

var _ interfaces.AccountStore = accountRepo{}

const accountColumns = "id, name, currency, account_type, description, balance, created_at, deleted"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a       models.Account
		kind    string
		created string
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Currency, &kind, &a.Description, &a.Balance, &created, &a.Deleted); err != nil {
		return nil, err
	}
	a.Type = models.AccountType(kind)
	ts, err := parseTime(created)
	if err != nil {
		return nil, fmt.Errorf("account %d has invalid created_at: %w", a.ID, err)
	}
	a.CreatedAt = ts
	return &a, nil
}

func (r accountRepo) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	a, err := scanAccount(r.q.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account %d: %w", id, err)
	}
	return a, nil
}

func (r accountRepo) Create(ctx context.Context, account *models.Account) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO accounts (name, currency, account_type, description, balance, created_at, deleted) VALUES (?, ?, ?, ?, ?, ?, ?)",
		account.Name, account.Currency, string(account.Type), account.Description,
		account.Balance, formatTime(account.CreatedAt), boolToInt(account.Deleted))
	if err != nil {
		return 0, fmt.Errorf("failed to insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read account id: %w", err)
	}
	account.ID = id
	return id, nil
}

func (r accountRepo) UpdateDetails(ctx context.Context, id int64, name, description string) error {
	return r.exec(ctx, id, "UPDATE accounts SET name = ?, description = ? WHERE id = ?", name, description, id)
}

func (r accountRepo) SoftDelete(ctx context.Context, id int64) error {
	return r.exec(ctx, id, "UPDATE accounts SET deleted = 1 WHERE id = ?", id)
}

// AdjustBalance reads and rewrites the balance inside one write transaction.
// SQLite arithmetic on TEXT would go through REAL and lose digits.
func (r accountRepo) AdjustBalance(ctx context.Context, id int64, delta money.Money) error {
	return r.atomic(ctx, func(q querier) error {
		var balance money.Money
		err := q.QueryRowContext(ctx, "SELECT balance FROM accounts WHERE id = ?", id).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("account %d: %w", id, interfaces.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read balance of account %d: %w", id, err)
		}
		if _, err := q.ExecContext(ctx, "UPDATE accounts SET balance = ? WHERE id = ?", balance.Add(delta), id); err != nil {
			return fmt.Errorf("failed to update balance of account %d: %w", id, err)
		}
		return nil
	})
}

func (r accountRepo) List(ctx context.Context, scope interfaces.Scope) ([]*models.Account, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT "+accountColumns+" FROM accounts"+scopeClause(scope)+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r accountRepo) exec(ctx context.Context, id int64, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update account %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update account %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("account %d: %w", id, interfaces.ErrNotFound)
	}
	return nil
}
