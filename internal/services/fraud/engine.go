// Package fraud evaluates transactions against rule-based and statistical
// signals and produces an actionable decision: allow, review or block.
package fraud

import (
	"context"
	"time"

	"go.uber.org/zap"

	"corebank/internal/config"
	"corebank/internal/metrics"
	"corebank/internal/models"
	"corebank/internal/services/anomaly"
	"corebank/internal/services/velocity"
)

// Risk factor tags attached to decisions.
const (
	FactorHighAmount      = "HIGH_AMOUNT"
	FactorHighVelocity    = "HIGH_VELOCITY"
	FactorNewRecipient    = "NEW_RECIPIENT_HIGH_AMOUNT"
	FactorUnusualLocation = "UNUSUAL_LOCATION"
	FactorAnomalyDetected = "ML_ANOMALY_DETECTED"
)

// Rule score contributions.
const (
	scoreHighAmount      = 30
	scoreHighVelocity    = 25
	scoreNewRecipient    = 20
	scoreUnusualLocation = 35
)

// Engine runs the fraud rules. Rules are independent and order-insensitive;
// each adds its contribution to the score and its tag to the factor list.
type Engine struct {
	cfg     config.FraudConfig
	window  VelocityWindow
	scorer  anomaly.Scorer
	monitor *Monitor
	logger  *zap.Logger
	metrics metrics.Collector
}

// NewEngine creates a fraud engine. scorer may be nil: evaluation then runs
// rule-only. metrics may be nil.
func NewEngine(cfg config.FraudConfig, window VelocityWindow, scorer anomaly.Scorer, logger *zap.Logger, collector metrics.Collector) *Engine {
	if window == nil {
		panic("velocity window is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Engine{
		cfg:     cfg,
		window:  window,
		scorer:  scorer,
		monitor: NewMonitor(cfg.MonitorQueueSize, logger, collector),
		logger:  logger,
		metrics: collector,
	}
}

// Evaluate scores a transaction and records it into the user's velocity
// window. The current transaction is not counted against itself.
func (e *Engine) Evaluate(ctx context.Context, tx *models.Transaction) *models.FraudDecision {
	start := time.Now()

	decision := &models.FraudDecision{
		TransactionID: tx.TransactionID,
		Factors:       []string{},
		EvaluatedAt:   start.UTC(),
	}

	raw := 0
	raw += e.checkHighAmount(tx, decision)
	raw += e.checkVelocity(tx, decision)
	raw += e.checkNewRecipient(tx, decision)
	raw += e.checkLocation(tx, decision)

	forced := e.blendAnomalyScore(ctx, tx, decision, &raw)

	decision.RawScore = raw
	decision.Score = raw
	if decision.Score > 100 {
		decision.Score = 100
	}
	decision.Suspicious = raw >= e.cfg.SuspiciousThreshold || forced
	decision.Action = e.decide(decision.Score)

	e.record(tx)
	e.monitor.Offer(decision)

	e.metrics.RecordFraudDecision(string(decision.Action), decision.Score)
	e.metrics.RecordEvaluationDuration("fraud", time.Since(start))

	if decision.Action != models.FraudActionAllow {
		e.logger.Warn("transaction flagged",
			zap.String("transaction_id", tx.TransactionID),
			zap.Int("score", decision.Score),
			zap.Strings("factors", decision.Factors),
			zap.String("action", string(decision.Action)))
	}

	return decision
}

// Close shuts down the background monitor.
func (e *Engine) Close() {
	e.monitor.Close()
}

func (e *Engine) checkHighAmount(tx *models.Transaction, d *models.FraudDecision) int {
	if tx.Amount.GreaterThan(e.cfg.HighAmountThreshold) {
		d.Factors = append(d.Factors, FactorHighAmount)
		return scoreHighAmount
	}
	return 0
}

func (e *Engine) checkVelocity(tx *models.Transaction, d *models.FraudDecision) int {
	if e.window.Count(tx.CustomerID) > e.cfg.VelocityThreshold {
		d.Factors = append(d.Factors, FactorHighVelocity)
		return scoreHighVelocity
	}
	return 0
}

func (e *Engine) checkNewRecipient(tx *models.Transaction, d *models.FraudDecision) int {
	if tx.Type != models.TransactionTypeTransfer || tx.Recipient == "" {
		return 0
	}
	if tx.Amount.GreaterThan(e.cfg.NewRecipientAmount) && !e.window.KnownRecipient(tx.CustomerID, tx.Recipient) {
		d.Factors = append(d.Factors, FactorNewRecipient)
		return scoreNewRecipient
	}
	return 0
}

func (e *Engine) checkLocation(tx *models.Transaction, d *models.FraudDecision) int {
	if tx.Location == nil {
		return 0
	}
	last, ok := e.window.LastLocation(tx.CustomerID)
	if !ok {
		return 0
	}

	distance := haversineKm(last.Location.Latitude, last.Location.Longitude,
		tx.Location.Latitude, tx.Location.Longitude)
	elapsed := tx.CreatedAt.Sub(last.Timestamp)

	if implausibleTravel(distance, elapsed, e.cfg.MaxTravelSpeedKmh) ||
		(distance > e.cfg.LocationRadiusKm && elapsed <= e.cfg.LocationWindow) {
		d.Factors = append(d.Factors, FactorUnusualLocation)
		return scoreUnusualLocation
	}
	return 0
}

// blendAnomalyScore consults the optional statistical scorer. Any failure
// degrades to rule-only scoring; it never fails the evaluation. Returns
// whether the decision is forced suspicious.
func (e *Engine) blendAnomalyScore(ctx context.Context, tx *models.Transaction, d *models.FraudDecision, raw *int) bool {
	if e.scorer == nil {
		return false
	}

	scoreCtx, cancel := context.WithTimeout(ctx, e.cfg.ScorerTimeout)
	defer cancel()

	score, err := e.scorer.Score(scoreCtx, anomaly.Extract(tx))
	if err != nil {
		if err != anomaly.ErrNotReady {
			e.logger.Warn("anomaly scorer unavailable, falling back to rule-only scoring",
				zap.String("transaction_id", tx.TransactionID), zap.Error(err))
			e.metrics.RecordError("anomaly_score", "unavailable")
		}
		return false
	}

	if score > e.cfg.AnomalyScoreCutoff {
		d.Factors = append(d.Factors, FactorAnomalyDetected)
		*raw += e.cfg.AnomalyPenalty
		return true
	}
	return false
}

func (e *Engine) decide(score int) models.FraudAction {
	switch {
	case score >= e.cfg.BlockThreshold:
		return models.FraudActionBlock
	case score >= e.cfg.ReviewThreshold:
		return models.FraudActionReview
	default:
		return models.FraudActionAllow
	}
}

func (e *Engine) record(tx *models.Transaction) {
	ts := tx.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	e.window.Record(tx.CustomerID, velocity.Entry{
		Amount:    tx.Amount,
		Timestamp: ts,
		Recipient: tx.Recipient,
		Location:  tx.Location,
	})

	if obs, ok := e.scorer.(anomaly.Observer); ok {
		obs.Observe(anomaly.Extract(tx))
	}
}
