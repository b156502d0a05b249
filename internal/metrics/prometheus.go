package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector on top of a prometheus registry.
type PrometheusCollector struct {
	transactions   *prometheus.CounterVec
	volume         *prometheus.CounterVec
	outcomes       *prometheus.CounterVec
	fraudDecisions *prometheus.CounterVec
	fraudScores    prometheus.Histogram
	durations      *prometheus.HistogramVec
	errors         *prometheus.CounterVec
}

// NewPrometheusCollector registers the core's metrics with reg and returns
// the collector. Pass prometheus.DefaultRegisterer in production.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corebank_transactions_total",
			Help: "Transactions processed, by type.",
		}, []string{"type"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corebank_transaction_volume_total",
			Help: "Total transaction volume, by type.",
		}, []string{"type"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corebank_transaction_outcomes_total",
			Help: "Orchestration outcomes, by transaction type and outcome.",
		}, []string{"type", "outcome"}),
		fraudDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corebank_fraud_decisions_total",
			Help: "Fraud decisions, by action.",
		}, []string{"action"}),
		fraudScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "corebank_fraud_score",
			Help:    "Distribution of fraud risk scores.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corebank_evaluation_duration_seconds",
			Help:    "Evaluation latency, by component.",
			Buckets: prometheus.DefBuckets,
		}, []string{"component"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corebank_errors_total",
			Help: "Errors, by operation and error type.",
		}, []string{"operation", "error"}),
	}

	reg.MustRegister(c.transactions, c.volume, c.outcomes, c.fraudDecisions,
		c.fraudScores, c.durations, c.errors)
	return c
}

func (c *PrometheusCollector) RecordTransaction(txType string, amount float64) {
	c.transactions.WithLabelValues(txType).Inc()
	c.volume.WithLabelValues(txType).Add(amount)
}

func (c *PrometheusCollector) RecordOutcome(txType, outcome string) {
	c.outcomes.WithLabelValues(txType, outcome).Inc()
}

func (c *PrometheusCollector) RecordFraudDecision(action string, score int) {
	c.fraudDecisions.WithLabelValues(action).Inc()
	c.fraudScores.Observe(float64(score))
}

func (c *PrometheusCollector) RecordEvaluationDuration(component string, d time.Duration) {
	c.durations.WithLabelValues(component).Observe(d.Seconds())
}

func (c *PrometheusCollector) RecordError(operation, errType string) {
	c.errors.WithLabelValues(operation, errType).Inc()
}
