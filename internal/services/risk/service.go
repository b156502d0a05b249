// Package risk implements the weighted multi-factor risk scoring engine for
// customer, account and transaction entities.
package risk

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"corebank/internal/config"
	"corebank/internal/models"
)

// contributingScore is the sub-score at or above which a factor is listed
// in the assessment's factor tags.
const contributingScore = 50

// Service computes weighted risk scores with a per-entity TTL cache.
type Service struct {
	cfg    config.RiskConfig
	cache  *ttlCache
	logger *zap.Logger
}

// NewService creates a risk scoring service.
func NewService(cfg config.RiskConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:    cfg,
		cache:  newTTLCache(cfg.CacheTTL),
		logger: logger,
	}
}

// ScoreCustomer assesses a customer. forceRefresh bypasses the cache.
func (s *Service) ScoreCustomer(ctx context.Context, entityID string, data CustomerData, forceRefresh bool) *models.RiskAssessment {
	if !forceRefresh {
		if a, ok := s.cache.get(models.EntityTypeCustomer, entityID); ok {
			return a
		}
	}

	components := map[string]float64{
		FactorAge:                 scoreAge(data.Age),
		FactorCreditScore:         scoreCreditScore(data.CreditScore),
		FactorEmploymentStability: scoreEmploymentStability(data.EmploymentYears),
		FactorIncome:              scoreIncome(data.AnnualIncome),
		FactorAddressTenure:       scoreAddressTenure(data.YearsAtAddress),
		FactorDelinquencies:       scoreDelinquencies(data.DelinquencyCount),
		FactorBankingTenure:       scoreBankingTenure(data.BankingYears),
		FactorKYCStatus:           scoreKYC(data.KYCVerified),
	}

	return s.assess(models.EntityTypeCustomer, entityID, components, s.cfg.CustomerWeights)
}

// ScoreAccount assesses an account.
func (s *Service) ScoreAccount(ctx context.Context, entityID string, data AccountData, forceRefresh bool) *models.RiskAssessment {
	if !forceRefresh {
		if a, ok := s.cache.get(models.EntityTypeAccount, entityID); ok {
			return a
		}
	}

	components := map[string]float64{
		FactorAccountType:      scoreAccountType(data.AccountType),
		FactorAccountAge:       scoreAccountAge(data.AgeMonths),
		FactorVolatility:       scoreVolatility(data.Volatility),
		FactorOverdraftUsage:   scoreOverdraftUsage(data.OverdraftCount),
		FactorCustomerStanding: clamp(data.CustomerScore),
	}

	return s.assess(models.EntityTypeAccount, entityID, components, s.cfg.AccountWeights)
}

// ScoreTransaction assesses a transaction.
func (s *Service) ScoreTransaction(ctx context.Context, entityID string, data TransactionData, forceRefresh bool) *models.RiskAssessment {
	if !forceRefresh {
		if a, ok := s.cache.get(models.EntityTypeTransaction, entityID); ok {
			return a
		}
	}

	components := map[string]float64{
		FactorAmountRatio:      scoreAmountRatio(data.Amount, data.AverageAmount),
		FactorTransactionType:  scoreTransactionType(data.Type),
		FactorRecipientNovelty: scoreRecipientNovelty(data.NewRecipient),
	}

	return s.assess(models.EntityTypeTransaction, entityID, components, s.cfg.TransactionWeights)
}

// ClearCache drops every cached assessment.
func (s *Service) ClearCache() {
	s.cache.clearAll()
}

// ClearCacheType drops cached assessments of one entity type.
func (s *Service) ClearCacheType(entityType models.EntityType) {
	s.cache.clearType(entityType)
}

// ClearCacheEntity drops the cached assessment for one entity.
func (s *Service) ClearCacheEntity(entityType models.EntityType, entityID string) {
	s.cache.clearEntity(entityType, entityID)
}

func (s *Service) assess(entityType models.EntityType, entityID string, components map[string]float64, weights map[string]float64) *models.RiskAssessment {
	var score float64
	for factor, sub := range components {
		w, ok := weights[factor]
		if !ok {
			continue
		}
		score += sub * w
	}
	score = clamp(score)

	a := &models.RiskAssessment{
		EntityType: entityType,
		EntityID:   entityID,
		Score:      score,
		Level:      s.level(score),
		Factors:    contributingFactors(components),
		Components: components,
		AssessedAt: time.Now().UTC(),
	}

	s.cache.put(a)

	s.logger.Debug("risk assessment computed",
		zap.String("entity_type", string(entityType)),
		zap.String("entity_id", entityID),
		zap.Float64("score", score),
		zap.String("level", string(a.Level)))

	return a
}

func (s *Service) level(score float64) models.RiskLevel {
	switch {
	case score < s.cfg.LevelLowBelow:
		return models.RiskLevelVeryLow
	case score < s.cfg.LevelMediumBelow:
		return models.RiskLevelLow
	case score < s.cfg.LevelHighBelow:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelHigh
	}
}

// contributingFactors lists factor tags with sub-scores at or above the
// contribution cutoff, highest first.
func contributingFactors(components map[string]float64) []string {
	factors := make([]string, 0, len(components))
	for f, sub := range components {
		if sub >= contributingScore {
			factors = append(factors, f)
		}
	}
	sort.Slice(factors, func(i, j int) bool {
		if components[factors[i]] == components[factors[j]] {
			return factors[i] < factors[j]
		}
		return components[factors[i]] > components[factors[j]]
	})
	return factors
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
