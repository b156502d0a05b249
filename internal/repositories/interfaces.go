package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"corebank/internal/models"
)

// AccountRepository is the persistence boundary for accounts. Failures other
// than ErrAccountNotFound are persistence errors and are wrapped as such by
// the implementations.
type AccountRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
}

// TransactionRepository is the persistence boundary for transaction records.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	// UpdateStatus transitions a transaction from one status to another.
	// The transition is guarded: if the record is no longer in the from
	// status the write does not happen and ErrInvalidStatus is returned.
	UpdateStatus(ctx context.Context, transactionID string, from, to models.TransactionStatus, reason string) (*models.Transaction, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	// GetAccountDailyTotal sums COMPLETED transactions of the given type for
	// the account on the calendar day containing ts (UTC).
	GetAccountDailyTotal(ctx context.Context, accountID uint, txType models.TransactionType, ts time.Time) (decimal.Decimal, error)
}
