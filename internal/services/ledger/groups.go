package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/services/validation"
)

// CreateGroup registers an account group. Names are unique.
func (s *Service) CreateGroup(ctx context.Context, req interfaces.GroupRequest) (*models.AccountGroup, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.InvalidArgument("name", "is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" || len(currency) > models.MaxCurrencyLength {
		return nil, models.InvalidArgument("currency", "must be 1 to %d characters", models.MaxCurrencyLength)
	}
	group := &models.AccountGroup{Name: name, Currency: currency}

	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		existing, err := repos.Groups().FindByName(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to load group %s: %w", name, err)
		}
		if existing != nil {
			return &models.Violation{Key: models.KeyGroupAlreadyExists, GroupID: &existing.ID}
		}
		if _, err := repos.Groups().Create(ctx, group); err != nil {
			return fmt.Errorf("failed to create group %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("correlation_id", common.CorrelationIDFromContext(ctx)).
		Int64("group_id", group.ID).
		Str("name", group.Name).
		Msg("Account group created")
	return group, nil
}

// GroupAccount adds an active account to a group. Adding it twice is a no-op.
func (s *Service) GroupAccount(ctx context.Context, req interfaces.GroupMembershipRequest) error {
	return s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		if _, err := s.activeAccount(ctx, repos.Accounts(), req.AccountID); err != nil {
			return err
		}
		if err := s.groupMustExist(ctx, repos.Groups(), req.GroupID); err != nil {
			return err
		}
		if err := repos.Groups().AddMember(ctx, req.GroupID, req.AccountID); err != nil {
			return fmt.Errorf("failed to group account %d: %w", req.AccountID, err)
		}
		s.logger.Info().
			Str("correlation_id", common.CorrelationIDFromContext(ctx)).
			Int64("group_id", req.GroupID).
			Int64("account_id", req.AccountID).
			Msg("Account grouped")
		return nil
	})
}

// UngroupAccount removes an account from a group. Deleted accounts may still
// be ungrouped; removing a non-member is a no-op.
func (s *Service) UngroupAccount(ctx context.Context, req interfaces.GroupMembershipRequest) error {
	return s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		account, err := repos.Accounts().FindByID(ctx, req.AccountID)
		if err != nil {
			return fmt.Errorf("failed to load account %d: %w", req.AccountID, err)
		}
		if err := validation.First(validation.AccountMustExist(account, req.AccountID)); err != nil {
			return err
		}
		if err := s.groupMustExist(ctx, repos.Groups(), req.GroupID); err != nil {
			return err
		}
		if err := repos.Groups().RemoveMember(ctx, req.GroupID, req.AccountID); err != nil {
			return fmt.Errorf("failed to ungroup account %d: %w", req.AccountID, err)
		}
		s.logger.Info().
			Str("correlation_id", common.CorrelationIDFromContext(ctx)).
			Int64("group_id", req.GroupID).
			Int64("account_id", req.AccountID).
			Msg("Account ungrouped")
		return nil
	})
}

// GroupMappings lists every group with the ids of its member accounts.
// Soft-deleted accounts are left out.
func (s *Service) GroupMappings(ctx context.Context) ([]*models.GroupMapping, error) {
	var mappings []*models.GroupMapping
	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		groups, err := repos.Groups().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list groups: %w", err)
		}
		members, err := repos.Groups().Members(ctx)
		if err != nil {
			return fmt.Errorf("failed to list group members: %w", err)
		}
		active, err := repos.Accounts().List(ctx, interfaces.ScopeActive)
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}

		live := make(map[int64]bool, len(active))
		for _, a := range active {
			live[a.ID] = true
		}
		mappings = models.BuildGroupMappings(groups, members, func(id int64) bool { return live[id] })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mappings, nil
}

func (s *Service) groupMustExist(ctx context.Context, groups interfaces.GroupStore, id int64) error {
	group, err := groups.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load group %d: %w", id, err)
	}
	return validation.First(validation.GroupMustExist(group, id))
}
