package transaction

import (
	"context"

	"github.com/shopspring/decimal"

	"corebank/internal/models"
	"corebank/internal/services/rules"
)

// Ledger applies balance mutations with per-account serialization.
type Ledger interface {
	Debit(ctx context.Context, accountID uint, amount decimal.Decimal) (*models.Account, error)
	Credit(ctx context.Context, accountID uint, amount decimal.Decimal) (*models.Account, error)
	Transfer(ctx context.Context, fromID, toID uint, amount decimal.Decimal) (*models.Account, *models.Account, error)
}

// PolicyEngine evaluates transaction policy: structure, limits, fees and
// the verification gate.
type PolicyEngine interface {
	ValidateStructure(tx *models.Transaction) []rules.Violation
	CheckLimits(ctx context.Context, tx *models.Transaction) (*rules.Violation, error)
	RequiresAdditionalVerification(tx *models.Transaction) bool
	Fee(tx *models.Transaction) decimal.Decimal
}

// FraudChecker screens a transaction and returns the gating decision.
type FraudChecker interface {
	Evaluate(ctx context.Context, tx *models.Transaction) *models.FraudDecision
}

// Notifier delivers customer notifications about transaction outcomes.
type Notifier interface {
	SendTransactionNotification(ctx context.Context, customerID uint, tx *models.Transaction, outcome string) error
	SendErrorNotification(ctx context.Context, customerID uint, message string) error
}
