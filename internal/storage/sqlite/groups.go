package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
)

type groupRepo struct{ session }

var _ interfaces.GroupStore = groupRepo{}

const groupColumns = "id, name, currency"

func scanGroup(row rowScanner) (*models.AccountGroup, error) {
	var g models.AccountGroup
	if err := row.Scan(&g.ID, &g.Name, &g.Currency); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r groupRepo) FindByID(ctx context.Context, id int64) (*models.AccountGroup, error) {
	g, err := scanGroup(r.q.QueryRowContext(ctx, "SELECT "+groupColumns+" FROM account_groups WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read group %d: %w", id, err)
	}
	return g, nil
}

func (r groupRepo) FindByName(ctx context.Context, name string) (*models.AccountGroup, error) {
	g, err := scanGroup(r.q.QueryRowContext(ctx, "SELECT "+groupColumns+" FROM account_groups WHERE name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read group %s: %w", name, err)
	}
	return g, nil
}

func (r groupRepo) Create(ctx context.Context, group *models.AccountGroup) (int64, error) {
	res, err := r.q.ExecContext(ctx, "INSERT INTO account_groups (name, currency) VALUES (?, ?)", group.Name, group.Currency)
	if err != nil {
		return 0, fmt.Errorf("failed to create group %s: %w", group.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read group id: %w", err)
	}
	group.ID = id
	return id, nil
}

func (r groupRepo) List(ctx context.Context) ([]*models.AccountGroup, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT "+groupColumns+" FROM account_groups ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	out := make([]*models.AccountGroup, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r groupRepo) AddMember(ctx context.Context, groupID, accountID int64) error {
	_, err := r.q.ExecContext(ctx,
		"INSERT OR IGNORE INTO account_group_members (group_id, account_id) VALUES (?, ?)", groupID, accountID)
	if err != nil {
		return fmt.Errorf("failed to add account %d to group %d: %w", accountID, groupID, err)
	}
	return nil
}

func (r groupRepo) RemoveMember(ctx context.Context, groupID, accountID int64) error {
	_, err := r.q.ExecContext(ctx,
		"DELETE FROM account_group_members WHERE group_id = ? AND account_id = ?", groupID, accountID)
	if err != nil {
		return fmt.Errorf("failed to remove account %d from group %d: %w", accountID, groupID, err)
	}
	return nil
}

func (r groupRepo) Members(ctx context.Context) ([]models.GroupMember, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT group_id, account_id FROM account_group_members ORDER BY group_id, account_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	out := make([]models.GroupMember, 0)
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.GroupID, &m.AccountID); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
