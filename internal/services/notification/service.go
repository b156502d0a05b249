// Package notification delivers customer-facing notifications and
// operator security alerts. Delivery is currently log-based; the service
// is the single place to swap in an email or push provider.
package notification

import (
	"context"

	"go.uber.org/zap"

	"corebank/internal/models"
)

type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// SendTransactionNotification informs the customer about the terminal
// outcome of a transaction.
func (s *Service) SendTransactionNotification(ctx context.Context, customerID uint, tx *models.Transaction, outcome string) error {
	s.logger.Info("transaction notification",
		zap.Uint("customer_id", customerID),
		zap.String("transaction_id", tx.TransactionID),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()),
		zap.String("outcome", outcome))
	return nil
}

// SendErrorNotification informs the customer that a transaction failed.
func (s *Service) SendErrorNotification(ctx context.Context, customerID uint, message string) error {
	s.logger.Info("error notification",
		zap.Uint("customer_id", customerID),
		zap.String("message", message))
	return nil
}

// SendSecurityAlert raises an operator alert for conditions that need
// manual attention.
func (s *Service) SendSecurityAlert(ctx context.Context, message string, metadata map[string]interface{}) error {
	s.logger.Warn("security alert",
		zap.String("message", message),
		zap.Any("metadata", metadata))
	return nil
}
