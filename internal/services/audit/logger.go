// Package audit publishes an append-only trail of transaction lifecycle
// events to Kafka. Publishing is best-effort: a broker outage is logged
// and never blocks transaction processing.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event is one audit trail entry.
type Event struct {
	EventID       string                 `json:"event_id"`
	TransactionID string                 `json:"transaction_id"`
	AccountID     uint                   `json:"account_id"`
	CustomerID    uint                   `json:"customer_id"`
	Action        string                 `json:"action"`
	Outcome       string                 `json:"outcome"`
	Details       map[string]interface{} `json:"details,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// Logger records audit events.
type Logger interface {
	Record(ctx context.Context, event Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaLogger publishes events to a Kafka topic, keyed by transaction ID
// so all events for one transaction land on the same partition.
type KafkaLogger struct {
	writer  messageWriter
	logger  *zap.Logger
	timeout time.Duration
}

func NewKafkaLogger(brokers []string, topic string, logger *zap.Logger) *KafkaLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &KafkaLogger{writer: w, logger: logger, timeout: 5 * time.Second}
}

func (l *KafkaLogger) Record(ctx context.Context, event Event) error {
	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	err = l.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TransactionID),
		Value: payload,
	})
	if err != nil {
		l.logger.Error("audit publish failed",
			zap.String("transaction_id", event.TransactionID),
			zap.String("action", event.Action),
			zap.Error(err))
		return err
	}
	return nil
}

func (l *KafkaLogger) Close() error {
	return l.writer.Close()
}

// NoopLogger drops all events. Used in tests and when auditing is
// disabled in configuration.
type NoopLogger struct{}

func (NoopLogger) Record(ctx context.Context, event Event) error { return nil }
func (NoopLogger) Close() error                                  { return nil }
