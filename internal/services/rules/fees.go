package rules

import (
	"github.com/shopspring/decimal"

	"corebank/internal/models"
)

// Fee computes the fee for a transaction. The result depends only on the
// transaction type, amount and whether a transfer stays inside the bank,
// so callers can quote it before execution.
func (e *Engine) Fee(tx *models.Transaction) decimal.Decimal {
	switch tx.Type {
	case models.TransactionTypeWithdrawal:
		return e.withdrawalFee(tx.Amount)
	case models.TransactionTypeTransfer:
		if tx.DestinationAccountID != nil {
			return decimal.Zero
		}
		return tx.Amount.Mul(e.fees.ExternalTransferPercent).Round(2)
	case models.TransactionTypePayment:
		return tx.Amount.Mul(e.fees.ExternalTransferPercent).Round(2)
	default:
		// Deposits, refunds, interest and reversals never carry a fee.
		return decimal.Zero
	}
}

func (e *Engine) withdrawalFee(amount decimal.Decimal) decimal.Decimal {
	if amount.LessThan(e.fees.WithdrawalFreeBelow) {
		return decimal.Zero
	}
	if amount.LessThan(e.fees.WithdrawalFlatBelow) {
		return e.fees.WithdrawalFlatFee
	}
	return amount.Mul(e.fees.WithdrawalPercent).Round(2)
}
