package fraud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"corebank/internal/config"
	"corebank/internal/models"
	"corebank/internal/services/anomaly"
	"corebank/internal/services/velocity"
)

func testFraudConfig() config.FraudConfig {
	return config.FraudConfig{
		HighAmountThreshold: decimal.NewFromInt(10000),
		VelocityThreshold:   10,
		NewRecipientAmount:  decimal.NewFromInt(1000),
		MaxTravelSpeedKmh:   900,
		LocationRadiusKm:    500,
		LocationWindow:      time.Hour,
		AnomalyScoreCutoff:  0.8,
		AnomalyPenalty:      40,
		ScorerTimeout:       100 * time.Millisecond,
		MonitorQueueSize:    16,
		SuspiciousThreshold: 50,
		ReviewThreshold:     50,
		BlockThreshold:      80,
	}
}

type stubScorer struct {
	score float64
	err   error
}

func (s *stubScorer) Score(context.Context, anomaly.Features) (float64, error) {
	return s.score, s.err
}

func newTestEngine(t *testing.T, scorerScore float64, scorerErr error, withScorer bool) (*Engine, *velocity.Cache) {
	t.Helper()
	cache := velocity.NewCache(time.Hour, 100, 0)
	t.Cleanup(cache.Close)

	var e *Engine
	if withScorer {
		e = NewEngine(testFraudConfig(), cache, &stubScorer{score: scorerScore, err: scorerErr}, zap.NewNop(), nil)
	} else {
		e = NewEngine(testFraudConfig(), cache, nil, zap.NewNop(), nil)
	}
	t.Cleanup(e.Close)
	return e, cache
}

func baseTransaction(amount int64) *models.Transaction {
	return &models.Transaction{
		TransactionID: "TX-1",
		AccountID:     1,
		CustomerID:    7,
		Type:          models.TransactionTypeWithdrawal,
		Amount:        decimal.NewFromInt(amount),
		CreatedAt:     time.Now().UTC(),
	}
}

func TestEngine_CleanTransactionAllowed(t *testing.T) {
	e, _ := newTestEngine(t, 0, nil, false)

	d := e.Evaluate(context.Background(), baseTransaction(100))

	assert.Equal(t, 0, d.Score)
	assert.False(t, d.Suspicious)
	assert.Equal(t, models.FraudActionAllow, d.Action)
	assert.Empty(t, d.Factors)
}

func TestEngine_HighAmountRule(t *testing.T) {
	e, _ := newTestEngine(t, 0, nil, false)

	d := e.Evaluate(context.Background(), baseTransaction(15000))

	assert.Equal(t, 30, d.Score)
	assert.Contains(t, d.Factors, FactorHighAmount)
	assert.Equal(t, models.FraudActionAllow, d.Action)
}

func TestEngine_VelocityRule(t *testing.T) {
	e, cache := newTestEngine(t, 0, nil, false)

	now := time.Now().UTC()
	for i := 0; i < 11; i++ {
		cache.Record(7, velocity.Entry{Timestamp: now})
	}

	d := e.Evaluate(context.Background(), baseTransaction(100))

	assert.Equal(t, 25, d.Score)
	assert.Contains(t, d.Factors, FactorHighVelocity)
}

func TestEngine_NewRecipientRule(t *testing.T) {
	e, cache := newTestEngine(t, 0, nil, false)

	tx := baseTransaction(5000)
	tx.Type = models.TransactionTypeTransfer
	tx.Recipient = "acct-99"

	d := e.Evaluate(context.Background(), tx)
	assert.Contains(t, d.Factors, FactorNewRecipient)
	assert.Equal(t, 20, d.Score)

	// Same recipient again: now known inside the window.
	cache.Record(7, velocity.Entry{Timestamp: time.Now().UTC(), Recipient: "acct-99"})
	tx2 := baseTransaction(5000)
	tx2.TransactionID = "TX-2"
	tx2.Type = models.TransactionTypeTransfer
	tx2.Recipient = "acct-99"

	d2 := e.Evaluate(context.Background(), tx2)
	assert.NotContains(t, d2.Factors, FactorNewRecipient)
}

func TestEngine_NewRecipientOnlyForTransfers(t *testing.T) {
	e, _ := newTestEngine(t, 0, nil, false)

	tx := baseTransaction(5000)
	tx.Recipient = "acct-99" // withdrawal, not a transfer

	d := e.Evaluate(context.Background(), tx)
	assert.NotContains(t, d.Factors, FactorNewRecipient)
}

func TestEngine_UnusualLocationRule(t *testing.T) {
	e, cache := newTestEngine(t, 0, nil, false)

	// Last seen in New York an hour ago.
	cache.Record(7, velocity.Entry{
		Timestamp: time.Now().UTC().Add(-time.Hour),
		Location:  &models.Location{Latitude: 40.7128, Longitude: -74.0060},
	})

	// Now transacting from London: ~5570km in one hour.
	tx := baseTransaction(100)
	tx.Location = &models.Location{Latitude: 51.5074, Longitude: -0.1278}

	d := e.Evaluate(context.Background(), tx)
	assert.Contains(t, d.Factors, FactorUnusualLocation)
	assert.Equal(t, 35, d.Score)
}

func TestEngine_PlausibleLocationNotFlagged(t *testing.T) {
	e, cache := newTestEngine(t, 0, nil, false)

	// Last seen in Manhattan yesterday.
	cache.Record(7, velocity.Entry{
		Timestamp: time.Now().UTC().Add(-24 * time.Hour),
		Location:  &models.Location{Latitude: 40.7128, Longitude: -74.0060},
	})

	// Brooklyn today.
	tx := baseTransaction(100)
	tx.Location = &models.Location{Latitude: 40.6782, Longitude: -73.9442}

	d := e.Evaluate(context.Background(), tx)
	assert.NotContains(t, d.Factors, FactorUnusualLocation)
}

func TestEngine_BlockOnCombinedRules(t *testing.T) {
	e, cache := newTestEngine(t, 0, nil, false)

	cache.Record(7, velocity.Entry{
		Timestamp: time.Now().UTC().Add(-time.Hour),
		Location:  &models.Location{Latitude: 48.8566, Longitude: 2.3522},
	})

	// High amount + new recipient + implausible location: 30+20+35 = 85.
	tx := baseTransaction(15000)
	tx.Type = models.TransactionTypeTransfer
	tx.Recipient = "acct-new"
	tx.Location = &models.Location{Latitude: 40.7128, Longitude: -74.0060}

	d := e.Evaluate(context.Background(), tx)
	assert.Equal(t, 85, d.Score)
	assert.True(t, d.Suspicious)
	assert.Equal(t, models.FraudActionBlock, d.Action)
}

func TestEngine_ReviewBand(t *testing.T) {
	e, cache := newTestEngine(t, 0, nil, false)

	now := time.Now().UTC()
	for i := 0; i < 11; i++ {
		cache.Record(7, velocity.Entry{Timestamp: now})
	}

	// High amount (30) + velocity (25) = 55: review, not block.
	d := e.Evaluate(context.Background(), baseTransaction(15000))
	assert.Equal(t, 55, d.Score)
	assert.True(t, d.Suspicious)
	assert.Equal(t, models.FraudActionReview, d.Action)
}

func TestEngine_ScoreSaturation(t *testing.T) {
	e, cache := newTestEngine(t, 0.95, nil, true)

	now := time.Now().UTC()
	for i := 0; i < 11; i++ {
		cache.Record(7, velocity.Entry{Timestamp: now})
	}
	cache.Record(7, velocity.Entry{
		Timestamp: now.Add(-time.Hour),
		Location:  &models.Location{Latitude: 35.6762, Longitude: 139.6503},
	})

	// All rules plus anomaly: 30+25+20+35+40 = 150 raw.
	tx := baseTransaction(15000)
	tx.Type = models.TransactionTypeTransfer
	tx.Recipient = "acct-new"
	tx.Location = &models.Location{Latitude: 40.7128, Longitude: -74.0060}

	d := e.Evaluate(context.Background(), tx)
	assert.Equal(t, 150, d.RawScore)
	assert.Equal(t, 100, d.Score)
	assert.Equal(t, models.FraudActionBlock, d.Action)
}

func TestEngine_AnomalyForcesSuspicious(t *testing.T) {
	e, _ := newTestEngine(t, 0.95, nil, true)

	// Rules contribute nothing; anomaly alone adds 40 and forces suspicious.
	d := e.Evaluate(context.Background(), baseTransaction(100))

	assert.Equal(t, 40, d.Score)
	assert.True(t, d.Suspicious)
	assert.Contains(t, d.Factors, FactorAnomalyDetected)
	assert.Equal(t, models.FraudActionAllow, d.Action)
}

func TestEngine_ScorerFailureDegrades(t *testing.T) {
	e, _ := newTestEngine(t, 0, errors.New("model backend down"), true)

	d := e.Evaluate(context.Background(), baseTransaction(15000))

	assert.Equal(t, 30, d.Score)
	assert.NotContains(t, d.Factors, FactorAnomalyDetected)
}

func TestEngine_Monotonicity(t *testing.T) {
	// Each additional triggered rule can only raise the score.
	e1, _ := newTestEngine(t, 0, nil, false)
	base := e1.Evaluate(context.Background(), baseTransaction(100)).Score

	e2, _ := newTestEngine(t, 0, nil, false)
	one := e2.Evaluate(context.Background(), baseTransaction(15000)).Score

	e3, cache3 := newTestEngine(t, 0, nil, false)
	now := time.Now().UTC()
	for i := 0; i < 11; i++ {
		cache3.Record(7, velocity.Entry{Timestamp: now})
	}
	two := e3.Evaluate(context.Background(), baseTransaction(15000)).Score

	assert.LessOrEqual(t, base, one)
	assert.LessOrEqual(t, one, two)
}

func TestEngine_EvaluationRecordsVelocity(t *testing.T) {
	e, cache := newTestEngine(t, 0, nil, false)

	assert.Equal(t, 0, cache.Count(7))
	e.Evaluate(context.Background(), baseTransaction(100))
	assert.Equal(t, 1, cache.Count(7))
}
