package surrealdb

import (
	"context"
	"fmt"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const groupSelectFields = "group_id, name, currency"

type groupRecord struct {
	GroupID  int64  `json:"group_id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

func (r groupRecord) toModel() *models.AccountGroup {
	return &models.AccountGroup{ID: r.GroupID, Name: r.Name, Currency: r.Currency}
}

type memberRecord struct {
	GroupID   int64 `json:"group_id"`
	AccountID int64 `json:"account_id"`
}

func groupRID(id int64) surrealmodels.RecordID {
	return surrealmodels.NewRecordID("account_group", id)
}

// memberRID keys a membership by both ids so adding it twice is an upsert.
func memberRID(groupID, accountID int64) surrealmodels.RecordID {
	return surrealmodels.NewRecordID("group_member", fmt.Sprintf("%d_%d", groupID, accountID))
}

type groupRepo struct{ session }

var _ interfaces.GroupStore = groupRepo{}

func (r groupRepo) FindByID(ctx context.Context, id int64) (*models.AccountGroup, error) {
	record, err := surrealdb.Select[groupRecord](ctx, r.db(), groupRID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to select group %d: %w", id, err)
	}
	if record == nil || record.GroupID == 0 {
		return nil, nil
	}
	return record.toModel(), nil
}

func (r groupRepo) FindByName(ctx context.Context, name string) (*models.AccountGroup, error) {
	sql := "SELECT " + groupSelectFields + " FROM account_group WHERE name = $name LIMIT 1"
	rows, err := query[groupRecord](ctx, r.db(), sql, map[string]any{"name": name})
	if err != nil {
		return nil, fmt.Errorf("failed to read group %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toModel(), nil
}

func (r groupRepo) Create(ctx context.Context, group *models.AccountGroup) (int64, error) {
	id, err := r.m.nextID(ctx, "account_group")
	if err != nil {
		return 0, err
	}
	sql := "CREATE $rid SET group_id = $group_id, name = $name, currency = $currency"
	vars := map[string]any{
		"rid":      groupRID(id),
		"group_id": id,
		"name":     group.Name,
		"currency": group.Currency,
	}
	if err := r.write(ctx, sql, vars); err != nil {
		return 0, fmt.Errorf("failed to create group %s: %w", group.Name, err)
	}
	group.ID = id
	return id, nil
}

func (r groupRepo) List(ctx context.Context) ([]*models.AccountGroup, error) {
	rows, err := query[groupRecord](ctx, r.db(), "SELECT "+groupSelectFields+" FROM account_group ORDER BY group_id ASC", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	out := make([]*models.AccountGroup, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r groupRepo) AddMember(ctx context.Context, groupID, accountID int64) error {
	sql := "UPSERT $rid SET group_id = $group_id, account_id = $account_id"
	vars := map[string]any{
		"rid":        memberRID(groupID, accountID),
		"group_id":   groupID,
		"account_id": accountID,
	}
	if err := r.write(ctx, sql, vars); err != nil {
		return fmt.Errorf("failed to add account %d to group %d: %w", accountID, groupID, err)
	}
	return nil
}

func (r groupRepo) RemoveMember(ctx context.Context, groupID, accountID int64) error {
	if err := r.write(ctx, "DELETE $rid", map[string]any{"rid": memberRID(groupID, accountID)}); err != nil {
		return fmt.Errorf("failed to remove account %d from group %d: %w", accountID, groupID, err)
	}
	return nil
}

func (r groupRepo) Members(ctx context.Context) ([]models.GroupMember, error) {
	sql := "SELECT group_id, account_id FROM group_member ORDER BY group_id ASC, account_id ASC"
	rows, err := query[memberRecord](ctx, r.db(), sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	out := make([]models.GroupMember, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.GroupMember{GroupID: row.GroupID, AccountID: row.AccountID})
	}
	return out, nil
}
