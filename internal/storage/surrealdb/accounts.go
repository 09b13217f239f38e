package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const accountSelectFields = "account_id, name, currency, account_type, description, balance, created_at, deleted"

// accountRecord is the stored shape; money and time are strings.
type accountRecord struct {
	AccountID   int64  `json:"account_id"`
	Name        string `json:"name"`
	Currency    string `json:"currency"`
	AccountType string `json:"account_type"`
	Description string `json:"description"`
	Balance     string `json:"balance"`
	CreatedAt   string `json:"created_at"`
	Deleted     bool   `json:"deleted"`
}

func (r accountRecord) toModel() (*models.Account, error) {
	balance, err := money.ParseExact(r.Balance)
	if err != nil {
		return nil, fmt.Errorf("account %d: %w", r.AccountID, err)
	}
	created, err := time.Parse(tsLayout, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("account %d has invalid created_at: %w", r.AccountID, err)
	}
	return &models.Account{
		ID:          r.AccountID,
		Name:        r.Name,
		Currency:    r.Currency,
		Type:        models.AccountType(r.AccountType),
		Description: r.Description,
		Balance:     balance,
		CreatedAt:   created,
		Deleted:     r.Deleted,
	}, nil
}

func accountRID(id int64) surrealmodels.RecordID {
	return surrealmodels.NewRecordID("account", id)
}

type accountRepo struct{ session }

var _ interfaces.AccountStore = accountRepo{}

func (r accountRepo) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	record, err := surrealdb.Select[accountRecord](ctx, r.db(), accountRID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to select account %d: %w", id, err)
	}
	if record == nil || record.AccountID == 0 {
		return nil, nil
	}
	return record.toModel()
}

func (r accountRepo) Create(ctx context.Context, account *models.Account) (int64, error) {
	id, err := r.m.nextID(ctx, "account")
	if err != nil {
		return 0, err
	}
	sql := `CREATE $rid SET
		account_id = $account_id, name = $name, currency = $currency, account_type = $account_type,
		description = $description, balance = $balance, created_at = $created_at, deleted = $deleted`
	vars := map[string]any{
		"rid":          accountRID(id),
		"account_id":   id,
		"name":         account.Name,
		"currency":     account.Currency,
		"account_type": string(account.Type),
		"description":  account.Description,
		"balance":      account.Balance.String(),
		"created_at":   account.CreatedAt.UTC().Format(tsLayout),
		"deleted":      account.Deleted,
	}
	if err := r.write(ctx, sql, vars); err != nil {
		return 0, fmt.Errorf("failed to create account: %w", err)
	}
	account.ID = id
	return id, nil
}

// mustExist reports ErrNotFound for an unknown id. Writes addressed to a
// missing record would otherwise silently do nothing.
func (r accountRepo) mustExist(ctx context.Context, id int64) error {
	a, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("account %d: %w", id, interfaces.ErrNotFound)
	}
	return nil
}

func (r accountRepo) UpdateDetails(ctx context.Context, id int64, name, description string) error {
	if err := r.mustExist(ctx, id); err != nil {
		return err
	}
	sql := "UPDATE $rid SET name = $name, description = $description"
	vars := map[string]any{"rid": accountRID(id), "name": name, "description": description}
	if err := r.write(ctx, sql, vars); err != nil {
		return fmt.Errorf("failed to update account %d: %w", id, err)
	}
	return nil
}

func (r accountRepo) SoftDelete(ctx context.Context, id int64) error {
	if err := r.mustExist(ctx, id); err != nil {
		return err
	}
	if err := r.write(ctx, "UPDATE $rid SET deleted = true", map[string]any{"rid": accountRID(id)}); err != nil {
		return fmt.Errorf("failed to delete account %d: %w", id, err)
	}
	return nil
}

// AdjustBalance increments the stored balance in the database using decimal
// arithmetic.
func (r accountRepo) AdjustBalance(ctx context.Context, id int64, delta money.Money) error {
	if err := r.mustExist(ctx, id); err != nil {
		return err
	}
	sql := "UPDATE $rid SET balance = <string>(<decimal>balance + <decimal>$delta)"
	vars := map[string]any{"rid": accountRID(id), "delta": delta.String()}
	if err := r.write(ctx, sql, vars); err != nil {
		return fmt.Errorf("failed to adjust balance of account %d: %w", id, err)
	}
	return nil
}

func (r accountRepo) List(ctx context.Context, scope interfaces.Scope) ([]*models.Account, error) {
	sql := "SELECT " + accountSelectFields + " FROM account"
	if scope == interfaces.ScopeActive {
		sql += " WHERE deleted = false"
	}
	sql += " ORDER BY account_id ASC"

	rows, err := query[accountRecord](ctx, r.db(), sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	out := make([]*models.Account, 0, len(rows))
	for _, row := range rows {
		a, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
