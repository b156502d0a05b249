package transaction

import (
	"github.com/shopspring/decimal"

	"corebank/internal/models"
	"corebank/internal/services/rules"
)

// Request describes a transaction to execute. Location and Metadata are
// optional; DestinationAccountID is set for internal transfers, Recipient
// for external ones.
type Request struct {
	AccountID            uint                   `json:"account_id"`
	DestinationAccountID *uint                  `json:"destination_account_id,omitempty"`
	CustomerID           uint                   `json:"customer_id"`
	Type                 models.TransactionType `json:"type"`
	Amount               decimal.Decimal        `json:"amount"`
	Currency             string                 `json:"currency,omitempty"`
	Channel              string                 `json:"channel"`
	Recipient            string                 `json:"recipient,omitempty"`
	Location             *models.Location       `json:"location,omitempty"`
	Metadata             map[string]interface{} `json:"metadata,omitempty"`
}

// Outcome is the terminal disposition of an execution attempt.
type Outcome string

const (
	OutcomeCompleted Outcome = "COMPLETED"
	OutcomeReviewed  Outcome = "REVIEWED"
	OutcomeBlocked   Outcome = "BLOCKED"
	OutcomeFailed    Outcome = "FAILED"
)

// Result reports how an execution attempt ended. ErrorCode and
// FailureReason are set for BLOCKED and FAILED outcomes; Violations
// carries the limit violation when one fired.
type Result struct {
	Outcome       Outcome                `json:"outcome"`
	Transaction   *models.Transaction    `json:"transaction"`
	Fraud         *models.FraudDecision  `json:"fraud,omitempty"`
	ErrorCode     string                 `json:"error_code,omitempty"`
	FailureReason string                 `json:"failure_reason,omitempty"`
	Violations    []rules.Violation      `json:"violations,omitempty"`
}
