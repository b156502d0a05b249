package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account statuses
type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "ACTIVE"
	AccountStatusDormant AccountStatus = "DORMANT"
	AccountStatusClosed  AccountStatus = "CLOSED"
	AccountStatusFrozen  AccountStatus = "FROZEN"
)

// Account holds a customer's balance and standing. Balance is only ever
// mutated through the ledger service; account lifecycle (open/close) belongs
// to the external account-management collaborator.
type Account struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	CustomerID     uint            `gorm:"not null;index" json:"customer_id"`
	Balance        decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"balance"`
	OverdraftLimit decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"overdraft_limit"`
	Currency       string          `gorm:"default:'USD'" json:"currency"`
	Status         AccountStatus   `gorm:"not null;default:'ACTIVE'" json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Available returns the amount the account can still be debited:
// balance plus the overdraft allowance.
func (a *Account) Available() decimal.Decimal {
	return a.Balance.Add(a.OverdraftLimit)
}

// IsActive reports whether the account may be debited or credited.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
