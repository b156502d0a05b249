package models

import "time"

// Risk levels derived from a 0-100 risk score.
type RiskLevel string

const (
	RiskLevelVeryLow RiskLevel = "VERY_LOW"
	RiskLevelLow     RiskLevel = "LOW"
	RiskLevelMedium  RiskLevel = "MEDIUM"
	RiskLevelHigh    RiskLevel = "HIGH"
)

// Entity types the risk scoring engine understands.
type EntityType string

const (
	EntityTypeCustomer    EntityType = "customer"
	EntityTypeAccount     EntityType = "account"
	EntityTypeTransaction EntityType = "transaction"
)

// RiskAssessment is the weighted multi-factor score for a single entity.
// Components holds the raw per-factor sub-scores before weighting.
type RiskAssessment struct {
	EntityType EntityType         `json:"entity_type"`
	EntityID   string             `json:"entity_id"`
	Score      float64            `json:"score"`
	Level      RiskLevel          `json:"level"`
	Factors    []string           `json:"factors"`
	Components map[string]float64 `json:"components"`
	AssessedAt time.Time          `json:"assessed_at"`
}

// Fraud decision actions, ordered by severity.
type FraudAction string

const (
	FraudActionAllow  FraudAction = "ALLOW"
	FraudActionReview FraudAction = "REVIEW"
	FraudActionBlock  FraudAction = "BLOCK"
)

// FraudDecision is the per-transaction verdict of the fraud engine.
// Score is capped at 100 for decision purposes; RawScore keeps the
// uncapped rule sum for reporting.
type FraudDecision struct {
	TransactionID string      `json:"transaction_id"`
	Suspicious    bool        `json:"suspicious"`
	Score         int         `json:"score"`
	RawScore      int         `json:"raw_score"`
	Factors       []string    `json:"factors"`
	Action        FraudAction `json:"action"`
	EvaluatedAt   time.Time   `json:"evaluated_at"`
}
