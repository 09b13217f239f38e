// Package ledger moves cash between accounts and manages the account lifecycle
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
	"github.com/bobmcallan/tracket/internal/services/validation"
)

// Compile-time interface check
var _ interfaces.LedgerService = (*Service)(nil)

// Service implements LedgerService
type Service struct {
	storage interfaces.StorageManager
	config  common.LedgerConfig
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new ledger service
func NewService(storage interfaces.StorageManager, config common.LedgerConfig, logger *common.Logger) *Service {
	if config.PageSize <= 0 {
		config.PageSize = 10
	}
	return &Service{
		storage: storage,
		config:  config,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Transact parses req and executes it as one unit of work.
func (s *Service) Transact(ctx context.Context, req interfaces.TransactionRequest) (*models.LedgerEntry, error) {
	m, err := ParseMovement(req)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, m)
}

// Execute applies a parsed movement. The ledger entry and every balance
// adjustment commit together or not at all.
func (s *Service) Execute(ctx context.Context, m Movement) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry

	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		accounts := repos.Accounts()

		source, err := s.activeAccount(ctx, accounts, m.Source())
		if err != nil {
			return err
		}

		entry = &models.LedgerEntry{
			Timestamp:     s.now(),
			FromAccountID: source.ID,
			Kind:          m.Kind(),
			ExchangeRate:  money.One,
		}

		// balance deltas keyed by account id, applied after the entry is appended
		var deltas []balanceDelta

		switch mv := m.(type) {
		case Deposit:
			entry.Amount = mv.Amount
			deltas = append(deltas, balanceDelta{source.ID, mv.Amount})

		case Withdraw:
			if err := validation.First(validation.SufficientFunds(source, mv.Amount, s.config.AllowOverdraft)); err != nil {
				return err
			}
			entry.Amount = mv.Amount
			deltas = append(deltas, balanceDelta{source.ID, mv.Amount.Neg()})

		case Transfer:
			dest, err := s.activeAccount(ctx, accounts, mv.To)
			if err != nil {
				return err
			}
			if err := validation.First(validation.SufficientFunds(source, mv.Amount, s.config.AllowOverdraft)); err != nil {
				return err
			}
			to := dest.ID
			entry.ToAccountID = &to
			entry.Amount = mv.Amount
			entry.ExchangeRate = mv.Rate
			deltas = append(deltas,
				balanceDelta{source.ID, mv.Amount.Neg()},
				balanceDelta{dest.ID, mv.Credit()},
			)

		default:
			return fmt.Errorf("unsupported movement %T", m)
		}

		id, err := repos.Ledger().Append(ctx, entry)
		if err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
		entry.ID = id

		for _, d := range deltas {
			if err := accounts.AdjustBalance(ctx, d.accountID, d.delta); err != nil {
				return fmt.Errorf("failed to adjust balance of account %d: %w", d.accountID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Debug().
			Str("kind", string(m.Kind())).
			Int64("account_id", m.Source()).
			Err(err).
			Msg("Transaction rejected")
		return nil, err
	}

	s.logger.Info().
		Str("correlation_id", common.CorrelationIDFromContext(ctx)).
		Int64("entry_id", entry.ID).
		Str("kind", string(entry.Kind)).
		Int64("account_id", entry.FromAccountID).
		Str("amount", entry.Amount.String()).
		Str("rate", entry.ExchangeRate.String()).
		Msg("Transaction applied")

	return entry, nil
}

type balanceDelta struct {
	accountID int64
	delta     money.Money
}

// activeAccount resolves id and applies ACCOUNT_MUST_EXIST then ACCOUNT_NOT_DELETED.
func (s *Service) activeAccount(ctx context.Context, accounts interfaces.AccountStore, id int64) (*models.Account, error) {
	account, err := accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %d: %w", id, err)
	}
	if err := validation.First(validation.ActiveAccount(account, id)); err != nil {
		return nil, err
	}
	return account, nil
}

// CreateAccount opens an account with a zero or non-negative seed balance.
func (s *Service) CreateAccount(ctx context.Context, req interfaces.CreateAccountRequest) (*models.Account, error) {
	account, err := parseAccount(req)
	if err != nil {
		return nil, err
	}
	account.CreatedAt = s.now()

	err = s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		id, err := repos.Accounts().Create(ctx, account)
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		account.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("correlation_id", common.CorrelationIDFromContext(ctx)).
		Int64("account_id", account.ID).
		Str("name", account.Name).
		Str("currency", account.Currency).
		Msg("Account created")

	return account, nil
}

func parseAccount(req interfaces.CreateAccountRequest) (*models.Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.InvalidArgument("name", "is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" || len(currency) > models.MaxCurrencyLength {
		return nil, models.InvalidArgument("currency", "must be 1 to %d characters", models.MaxCurrencyLength)
	}
	accountType := models.AccountType(strings.ToUpper(strings.TrimSpace(string(req.Type))))
	if !models.ValidAccountType(accountType) {
		return nil, models.InvalidArgument("account_type", "must be INVESTMENT or BUDGET, got %q", req.Type)
	}

	balance := money.Zero
	if strings.TrimSpace(req.InitialBalance) != "" {
		b, err := money.Parse(req.InitialBalance)
		if err != nil {
			return nil, models.InvalidArgument("initial_balance", "%v", err)
		}
		if b.IsNegative() {
			return nil, models.InvalidArgument("initial_balance", "must not be negative")
		}
		balance = b
	}

	return &models.Account{
		Name:        name,
		Currency:    currency,
		Type:        accountType,
		Description: strings.TrimSpace(req.Description),
		Balance:     balance,
	}, nil
}

// UpdateAccount changes the name and description of an active account.
// The returned account is the one loaded before the write with the new
// details applied, since some backends only expose writes after commit.
func (s *Service) UpdateAccount(ctx context.Context, id int64, req interfaces.UpdateAccountRequest) (*models.Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.InvalidArgument("name", "is required")
	}
	description := strings.TrimSpace(req.Description)

	var updated *models.Account
	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		accounts := repos.Accounts()
		account, err := s.activeAccount(ctx, accounts, id)
		if err != nil {
			return err
		}
		if err := accounts.UpdateDetails(ctx, id, name, description); err != nil {
			return fmt.Errorf("failed to update account %d: %w", id, err)
		}
		account.Name = name
		account.Description = description
		updated = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("correlation_id", common.CorrelationIDFromContext(ctx)).
		Int64("account_id", id).
		Str("name", name).
		Msg("Account updated")

	return updated, nil
}

// DeleteAccount soft-deletes an account. Deleting twice is a no-op.
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	return s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		accounts := repos.Accounts()
		account, err := accounts.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load account %d: %w", id, err)
		}
		if err := validation.First(validation.AccountMustExist(account, id)); err != nil {
			return err
		}
		if account.Deleted {
			return nil
		}
		if err := accounts.SoftDelete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete account %d: %w", id, err)
		}
		s.logger.Info().
			Str("correlation_id", common.CorrelationIDFromContext(ctx)).
			Int64("account_id", id).
			Msg("Account deleted")
		return nil
	})
}

// GetAccount returns an active account.
func (s *Service) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	var account *models.Account
	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		a, err := s.activeAccount(ctx, repos.Accounts(), id)
		account = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListAccounts returns all accounts that are not deleted.
func (s *Service) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	var list []*models.Account
	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		l, err := repos.Accounts().List(ctx, interfaces.ScopeActive)
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}
		list = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Activity returns one page of ledger entries and one page of trades for an
// account, newest first. Deleted accounts keep their history readable.
func (s *Service) Activity(ctx context.Context, id int64, ledgerPage, tradePage int) (*models.AccountActivity, error) {
	if ledgerPage < 0 {
		return nil, models.InvalidArgument("ledger_page", "must not be negative")
	}
	if tradePage < 0 {
		return nil, models.InvalidArgument("trade_page", "must not be negative")
	}

	activity := &models.AccountActivity{AccountID: id}
	err := s.storage.RunInTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		account, err := repos.Accounts().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load account %d: %w", id, err)
		}
		if err := validation.First(validation.AccountMustExist(account, id)); err != nil {
			return err
		}

		activity.Ledger, err = repos.Ledger().PageByAccount(ctx, id, ledgerPage, s.config.PageSize)
		if err != nil {
			return fmt.Errorf("failed to page ledger entries: %w", err)
		}
		activity.Trades, err = repos.Trades().PageByAccount(ctx, id, tradePage, s.config.PageSize)
		if err != nil {
			return fmt.Errorf("failed to page trades: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}
