package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	domainerrors "corebank/internal/errors"
	"corebank/internal/models"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a gorm-backed TransactionRepository.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	if db == nil {
		panic("db is required")
	}
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return domainerrors.ErrPersistence.WithCause(err)
	}
	return nil
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, transactionID string, from, to models.TransactionStatus, reason string) (*models.Transaction, error) {
	updates := map[string]interface{}{
		"status":         to,
		"failure_reason": reason,
	}
	if to == models.TransactionStatusCompleted {
		now := time.Now().UTC()
		updates["completed_at"] = &now
	}

	// Compare-and-swap on the prior status so concurrent transitions
	// cannot both apply.
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("transaction_id = ? AND status = ?", transactionID, from).
		Updates(updates)
	if res.Error != nil {
		return nil, domainerrors.ErrPersistence.WithCause(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByTransactionID(ctx, transactionID); err != nil {
			return nil, err
		}
		return nil, domainerrors.ErrInvalidStatus
	}
	return r.GetByTransactionID(ctx, transactionID)
}

func (r *transactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrTransactionNotFound
		}
		return nil, domainerrors.ErrPersistence.WithCause(err)
	}
	return &tx, nil
}

func (r *transactionRepository) GetAccountDailyTotal(ctx context.Context, accountID uint, txType models.TransactionType, ts time.Time) (decimal.Decimal, error) {
	day := ts.UTC()
	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24 * time.Hour)

	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("SUM(amount)").
		Where("account_id = ? AND type = ? AND status = ? AND created_at >= ? AND created_at < ?",
			accountID, txType, models.TransactionStatusCompleted, startOfDay, endOfDay).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, domainerrors.ErrPersistence.WithCause(err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
