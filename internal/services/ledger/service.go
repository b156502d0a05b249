// Package ledger owns account balance mutations. All mutations for a given
// account are serialized through a per-account mutex, so balance checks and
// updates are atomic with respect to each other.
package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domainerrors "corebank/internal/errors"
	"corebank/internal/models"
	"corebank/internal/repositories"
)

type Service struct {
	accounts repositories.AccountRepository
	alerter  SecurityAlerter
	logger   *zap.Logger

	locks sync.Map // account ID -> *sync.Mutex
}

func NewService(accounts repositories.AccountRepository, alerter SecurityAlerter, logger *zap.Logger) *Service {
	if accounts == nil {
		panic("account repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{accounts: accounts, alerter: alerter, logger: logger}
}

func (s *Service) lockFor(accountID uint) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(accountID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Debit withdraws amount from the account. The account must be ACTIVE and
// the amount must not exceed the available balance (balance plus overdraft
// limit).
func (s *Service) Debit(ctx context.Context, accountID uint, amount decimal.Decimal) (*models.Account, error) {
	mu := s.lockFor(accountID)
	mu.Lock()
	defer mu.Unlock()

	return s.debitLocked(ctx, accountID, amount)
}

func (s *Service) debitLocked(ctx context.Context, accountID uint, amount decimal.Decimal) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, domainerrors.ErrInactiveAccount
	}
	if account.Available().LessThan(amount) {
		return nil, domainerrors.ErrInsufficientFunds
	}

	account.Balance = account.Balance.Sub(amount)
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Credit deposits amount into the account. The account must be ACTIVE.
func (s *Service) Credit(ctx context.Context, accountID uint, amount decimal.Decimal) (*models.Account, error) {
	mu := s.lockFor(accountID)
	mu.Lock()
	defer mu.Unlock()

	return s.creditLocked(ctx, accountID, amount, false)
}

func (s *Service) creditLocked(ctx context.Context, accountID uint, amount decimal.Decimal, force bool) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !force && !account.IsActive() {
		return nil, domainerrors.ErrInactiveAccount
	}

	account.Balance = account.Balance.Add(amount)
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Transfer moves amount from one account to another as a two-step saga:
// debit the source, then credit the destination. If the credit fails the
// source is refunded with a compensating credit. A failed compensation is
// not retried; it raises a security alert and returns
// ErrReconciliationRequired so the discrepancy is resolved out of band.
func (s *Service) Transfer(ctx context.Context, fromID, toID uint, amount decimal.Decimal) (from, to *models.Account, err error) {
	from, err = s.Debit(ctx, fromID, amount)
	if err != nil {
		return nil, nil, err
	}

	to, err = s.Credit(ctx, toID, amount)
	if err == nil {
		return from, to, nil
	}
	creditErr := err

	// Compensation ignores the source account's status: the money was just
	// debited and must go back even if the account was frozen in between.
	mu := s.lockFor(fromID)
	mu.Lock()
	_, compErr := s.creditLocked(ctx, fromID, amount, true)
	mu.Unlock()

	if compErr != nil {
		s.logger.Error("transfer compensation failed, manual reconciliation required",
			zap.Uint("from_account_id", fromID),
			zap.Uint("to_account_id", toID),
			zap.String("amount", amount.String()),
			zap.Error(compErr))
		if s.alerter != nil {
			_ = s.alerter.SendSecurityAlert(ctx, "transfer compensation failed", map[string]interface{}{
				"from_account_id": fromID,
				"to_account_id":   toID,
				"amount":          amount.String(),
				"credit_error":    creditErr.Error(),
				"comp_error":      compErr.Error(),
			})
		}
		return nil, nil, domainerrors.ErrReconciliationRequired.WithCause(compErr)
	}

	s.logger.Warn("transfer credit failed, source refunded",
		zap.Uint("from_account_id", fromID),
		zap.Uint("to_account_id", toID),
		zap.String("amount", amount.String()),
		zap.Error(creditErr))
	return nil, nil, creditErr
}
