// Package rules enforces transaction-level banking policy: structural
// validation, daily aggregate limits, fee computation and the
// additional-verification gate.
package rules

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"corebank/internal/config"
	domainerrors "corebank/internal/errors"
	"corebank/internal/models"
	"corebank/internal/repositories"
)

// Violation is one failed policy check, with the stable code clients
// match on.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Metadata keys consulted by the verification gate.
const (
	MetadataInternational = "international"
	MetadataFlagged       = "flagged_suspicious"
)

// Engine evaluates transactions against the configured policy. It is
// stateless; the only external dependency is the transaction repository
// used for daily-limit aggregation.
type Engine struct {
	limits config.LimitsConfig
	fees   config.FeeConfig
	txRepo repositories.TransactionRepository
	logger *zap.Logger
}

func NewEngine(limits config.LimitsConfig, fees config.FeeConfig, txRepo repositories.TransactionRepository, logger *zap.Logger) *Engine {
	if txRepo == nil {
		panic("transaction repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{limits: limits, fees: fees, txRepo: txRepo, logger: logger}
}

// ValidateStructure checks the request's structural fields. Violations here
// mean the request is malformed and no transaction record is created.
func (e *Engine) ValidateStructure(tx *models.Transaction) []Violation {
	var violations []Violation

	if !tx.Amount.IsPositive() {
		violations = append(violations, Violation{
			Code:    "INVALID_AMOUNT",
			Message: "amount must be positive",
		})
	}
	if !tx.Type.Valid() {
		violations = append(violations, Violation{
			Code:    "INVALID_TYPE",
			Message: "unknown transaction type",
		})
	}
	if tx.Type == models.TransactionTypeTransfer {
		if tx.DestinationAccountID == nil && tx.Recipient == "" {
			violations = append(violations, Violation{
				Code:    "MISSING_DESTINATION",
				Message: "transfer requires a destination account",
			})
		} else if tx.DestinationAccountID != nil && *tx.DestinationAccountID == tx.AccountID {
			violations = append(violations, Violation{
				Code:    "SAME_ACCOUNT",
				Message: "cannot transfer to the same account",
			})
		}
	}

	return violations
}

// CheckLimits compares the transaction against the type-specific daily
// aggregate limit. The aggregate covers COMPLETED transactions of the same
// type on the current UTC calendar day.
func (e *Engine) CheckLimits(ctx context.Context, tx *models.Transaction) (*Violation, error) {
	limit, ok := e.dailyLimit(tx.Type)
	if !ok {
		return nil, nil
	}

	total, err := e.txRepo.GetAccountDailyTotal(ctx, tx.AccountID, tx.Type, time.Now().UTC())
	if err != nil {
		return nil, domainerrors.ErrPersistence.WithCause(err)
	}

	if total.Add(tx.Amount).GreaterThan(limit) {
		e.logger.Info("daily limit exceeded",
			zap.Uint("account_id", tx.AccountID),
			zap.String("type", string(tx.Type)),
			zap.String("daily_total", total.String()),
			zap.String("amount", tx.Amount.String()),
			zap.String("limit", limit.String()))
		return &Violation{
			Code:    domainerrors.ErrLimitExceeded.Code,
			Message: "daily " + string(tx.Type) + " limit exceeded",
		}, nil
	}
	return nil, nil
}

// RequiresAdditionalVerification reports whether the transaction must be
// parked for a separate verification step before funds move.
func (e *Engine) RequiresAdditionalVerification(tx *models.Transaction) bool {
	if tx.Amount.GreaterThanOrEqual(e.limits.HighValueThreshold) {
		return true
	}
	if tx.Metadata != nil {
		if v, ok := tx.Metadata[MetadataInternational].(bool); ok && v {
			return true
		}
		if v, ok := tx.Metadata[MetadataFlagged].(bool); ok && v {
			return true
		}
	}
	return false
}

func (e *Engine) dailyLimit(txType models.TransactionType) (decimal.Decimal, bool) {
	switch txType {
	case models.TransactionTypeWithdrawal:
		return e.limits.DailyWithdrawal, true
	case models.TransactionTypeTransfer:
		return e.limits.DailyTransfer, true
	default:
		return decimal.Zero, false
	}
}
