package metrics

import "time"

// Collector defines the metrics the core emits. Implementations must be
// safe for concurrent use; all methods are called on the transaction path.
type Collector interface {
	RecordTransaction(txType string, amount float64)
	RecordOutcome(txType, outcome string)
	RecordFraudDecision(action string, score int)
	RecordEvaluationDuration(component string, d time.Duration)
	RecordError(operation, errType string)
}

// NoopCollector discards all metrics.
type NoopCollector struct{}

func (NoopCollector) RecordTransaction(string, float64)              {}
func (NoopCollector) RecordOutcome(string, string)                   {}
func (NoopCollector) RecordFraudDecision(string, int)                {}
func (NoopCollector) RecordEvaluationDuration(string, time.Duration) {}
func (NoopCollector) RecordError(string, string)                     {}
