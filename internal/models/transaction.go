package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeReversal   TransactionType = "REVERSAL"
	TransactionTypePayment    TransactionType = "PAYMENT"
	TransactionTypeRefund     TransactionType = "REFUND"
	TransactionTypeCharge     TransactionType = "CHARGE"
	TransactionTypeInterest   TransactionType = "INTEREST"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer,
		TransactionTypeReversal, TransactionTypePayment, TransactionTypeRefund,
		TransactionTypeCharge, TransactionTypeInterest:
		return true
	}
	return false
}

// Debits reports whether the type removes funds from the source account.
func (t TransactionType) Debits() bool {
	switch t {
	case TransactionTypeWithdrawal, TransactionTypeTransfer, TransactionTypePayment, TransactionTypeCharge:
		return true
	}
	return false
}

// Transaction statuses. Transitions are one-directional:
// PENDING -> COMPLETED | FAILED, COMPLETED -> REVERSED.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusReversed  TransactionStatus = "REVERSED"
)

// Transaction is the record of a single ledger operation. Amount is immutable
// once the record is created; only Status, FailureReason and CompletedAt
// change afterwards.
type Transaction struct {
	ID                   uint              `gorm:"primarykey" json:"id"`
	TransactionID        string            `gorm:"uniqueIndex;not null" json:"transaction_id"`
	AccountID            uint              `gorm:"not null;index" json:"account_id"`
	DestinationAccountID *uint             `json:"destination_account_id,omitempty"`
	CustomerID           uint              `gorm:"index" json:"customer_id"`
	Type                 TransactionType   `gorm:"not null" json:"type"`
	Amount               decimal.Decimal   `gorm:"type:numeric(20,4);not null" json:"amount"`
	Fee                  decimal.Decimal   `gorm:"type:numeric(20,4)" json:"fee"`
	Currency             string            `gorm:"default:'USD'" json:"currency"`
	Status               TransactionStatus `gorm:"not null;default:'PENDING'" json:"status"`
	FailureReason        string            `json:"failure_reason,omitempty"`
	Channel              string            `json:"channel,omitempty"`
	Recipient            string            `json:"recipient,omitempty"`
	Location             *Location         `gorm:"embedded;embeddedPrefix:location_" json:"location,omitempty"`
	Metadata             JSON              `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the transaction has reached a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted ||
		t.Status == TransactionStatusFailed ||
		t.Status == TransactionStatusReversed
}

// Location is a geographic point attached to a transaction.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country,omitempty"`
}
