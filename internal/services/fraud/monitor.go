package fraud

import (
	"sync"

	"go.uber.org/zap"

	"corebank/internal/metrics"
	"corebank/internal/models"
)

// Monitor consumes completed fraud decisions off the synchronous path for
// telemetry. Submission never blocks: when the queue is full the decision
// is dropped and counted.
type Monitor struct {
	queue   chan *models.FraudDecision
	logger  *zap.Logger
	metrics metrics.Collector

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewMonitor(queueSize int, logger *zap.Logger, collector metrics.Collector) *Monitor {
	if queueSize <= 0 {
		queueSize = 256
	}
	m := &Monitor{
		queue:   make(chan *models.FraudDecision, queueSize),
		logger:  logger,
		metrics: collector,
		done:    make(chan struct{}),
	}
	m.wg.Add(1)
	go m.run()
	return m
}

// Offer submits a decision fire-and-forget. Drops on a full queue.
func (m *Monitor) Offer(d *models.FraudDecision) {
	select {
	case m.queue <- d:
	default:
		m.metrics.RecordError("fraud_monitor", "queue_full")
	}
}

// Close stops the consumer after draining what is already queued.
func (m *Monitor) Close() {
	m.once.Do(func() { close(m.done) })
	m.wg.Wait()
}

func (m *Monitor) run() {
	defer m.wg.Done()
	for {
		select {
		case d := <-m.queue:
			m.observe(d)
		case <-m.done:
			for {
				select {
				case d := <-m.queue:
					m.observe(d)
				default:
					return
				}
			}
		}
	}
}

func (m *Monitor) observe(d *models.FraudDecision) {
	if d.Suspicious {
		m.logger.Info("suspicious transaction observed",
			zap.String("transaction_id", d.TransactionID),
			zap.Int("raw_score", d.RawScore),
			zap.Strings("factors", d.Factors))
	}
}
