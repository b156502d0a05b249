package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domainerrors "corebank/internal/errors"
	"corebank/internal/models"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a gorm-backed AccountRepository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	if db == nil {
		panic("db is required")
	}
	return &accountRepository{db: db}
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrAccountNotFound
		}
		return nil, domainerrors.ErrPersistence.WithCause(err)
	}
	return &account, nil
}

func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		return domainerrors.ErrPersistence.WithCause(err)
	}
	return nil
}
