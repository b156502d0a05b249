// Package anomaly provides the optional statistical scorer blended into the
// fraud decision. The scorer is a pluggable strategy: the fraud engine runs
// rule-only when no scorer is wired in or when scoring fails.
package anomaly

import (
	"context"
	"errors"
	"math"
	"sync"

	"corebank/internal/models"
)

// ErrNotReady is returned while the model has seen too few observations to
// produce a meaningful score. Callers treat it as "no anomaly signal".
var ErrNotReady = errors.New("anomaly model has insufficient observations")

const featureCount = 5

// Features is the fixed feature vector extracted from a transaction.
type Features struct {
	Amount    float64
	Channel   float64
	TxType    float64
	HourOfDay float64
	DayOfWeek float64
}

func (f Features) vector() [featureCount]float64 {
	return [featureCount]float64{f.Amount, f.Channel, f.TxType, f.HourOfDay, f.DayOfWeek}
}

// Scorer produces a normalized anomaly score in [0,1] for a feature vector.
type Scorer interface {
	Score(ctx context.Context, f Features) (float64, error)
}

// Observer is implemented by scorers that learn online from completed
// transactions.
type Observer interface {
	Observe(f Features)
}

var channelCodes = map[string]float64{
	"branch": 0, "atm": 1, "web": 2, "mobile": 3, "api": 4,
}

var typeCodes = map[models.TransactionType]float64{
	models.TransactionTypeDeposit:    0,
	models.TransactionTypeWithdrawal: 1,
	models.TransactionTypeTransfer:   2,
	models.TransactionTypePayment:    3,
	models.TransactionTypeRefund:     4,
	models.TransactionTypeCharge:     5,
	models.TransactionTypeInterest:   6,
	models.TransactionTypeReversal:   7,
}

// Extract builds the feature vector for a transaction.
func Extract(tx *models.Transaction) Features {
	amount, _ := tx.Amount.Float64()
	created := tx.CreatedAt
	return Features{
		Amount:    amount,
		Channel:   channelCodes[tx.Channel],
		TxType:    typeCodes[tx.Type],
		HourOfDay: float64(created.Hour()),
		DayOfWeek: float64(created.Weekday()),
	}
}

type runningStat struct {
	n    int64
	mean float64
	m2   float64
}

// update applies Welford's online algorithm.
func (s *runningStat) update(x float64) {
	s.n++
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (x - s.mean)
}

func (s *runningStat) stdDev() float64 {
	if s.n < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.n-1))
}

// StatScorer scores a transaction by how far its feature vector deviates
// from the running per-feature distribution of everything observed so far.
// The mean absolute z-score across features is squashed into [0,1).
type StatScorer struct {
	mu              sync.Mutex
	stats           [featureCount]runningStat
	minObservations int64
}

// NewStatScorer creates a scorer that stays ErrNotReady until it has seen
// minObservations transactions.
func NewStatScorer(minObservations int) *StatScorer {
	if minObservations < 2 {
		minObservations = 2
	}
	return &StatScorer{minObservations: int64(minObservations)}
}

// Observe feeds a completed transaction's features into the model.
func (s *StatScorer) Observe(f Features) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := f.vector()
	for i := range s.stats {
		s.stats[i].update(v[i])
	}
}

// Score returns the normalized anomaly score for f.
func (s *StatScorer) Score(ctx context.Context, f Features) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stats[0].n < s.minObservations {
		return 0, ErrNotReady
	}

	v := f.vector()
	var sum float64
	for i := range s.stats {
		sd := s.stats[i].stdDev()
		if sd == 0 {
			continue
		}
		sum += math.Abs(v[i]-s.stats[i].mean) / sd
	}
	meanZ := sum / featureCount

	// 1-exp(-z/2): z=0 -> 0, z≈2 -> 0.63, z≈6 -> 0.95
	return 1 - math.Exp(-meanZ/2), nil
}
