// Package transaction orchestrates the full lifecycle of a transaction:
// structural validation, limit checks, fraud screening, fee computation,
// ledger mutation and terminal notification.
package transaction

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domainerrors "corebank/internal/errors"
	"corebank/internal/metrics"
	"corebank/internal/models"
	"corebank/internal/repositories"
	"corebank/internal/services/audit"
	"corebank/internal/services/rules"
)

const (
	auditActionExecuted = "transaction.executed"
	auditActionVerified = "transaction.verified"
	auditActionReversed = "transaction.reversed"

	metadataOriginalTransactionID = "original_transaction_id"

	defaultCurrency = "USD"
)

type Service struct {
	txRepo    repositories.TransactionRepository
	ledger    Ledger
	policy    PolicyEngine
	fraud     FraudChecker
	notifier  Notifier
	auditor   audit.Logger
	logger    *zap.Logger
	collector metrics.Collector

	notified sync.Map // transaction ID -> struct{}
	txLocks  sync.Map // transaction ID -> *sync.Mutex
}

func NewService(
	txRepo repositories.TransactionRepository,
	ledger Ledger,
	policy PolicyEngine,
	fraud FraudChecker,
	notifier Notifier,
	auditor audit.Logger,
	logger *zap.Logger,
	collector metrics.Collector,
) *Service {
	if txRepo == nil {
		panic("transaction repository is required")
	}
	if ledger == nil {
		panic("ledger is required")
	}
	if policy == nil {
		panic("policy engine is required")
	}
	if fraud == nil {
		panic("fraud checker is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditor == nil {
		auditor = audit.NoopLogger{}
	}
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Service{
		txRepo:    txRepo,
		ledger:    ledger,
		policy:    policy,
		fraud:     fraud,
		notifier:  notifier,
		auditor:   auditor,
		logger:    logger,
		collector: collector,
	}
}

// Execute runs a transaction end to end. Structural validation failures
// return a VALIDATION_FAILED error and create no state; every later
// disposition is persisted and reported through the Result.
func (s *Service) Execute(ctx context.Context, req Request) (*Result, error) {
	tx := s.buildTransaction(req)

	if tx.Type == models.TransactionTypeReversal {
		return nil, domainerrors.ErrValidation.WithMessage("reversals are created through the reverse operation")
	}
	if violations := s.policy.ValidateStructure(tx); len(violations) > 0 {
		msgs := make([]string, len(violations))
		for i, v := range violations {
			msgs[i] = v.Message
		}
		return nil, domainerrors.ErrValidation.WithMessage(strings.Join(msgs, "; "))
	}

	tx.Fee = s.policy.Fee(tx)
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, err
	}
	amount, _ := tx.Amount.Float64()
	s.collector.RecordTransaction(string(tx.Type), amount)

	violation, err := s.policy.CheckLimits(ctx, tx)
	if err != nil {
		s.markFailedBestEffort(ctx, tx, "limit check unavailable")
		return nil, err
	}
	if violation != nil {
		result, err := s.fail(ctx, tx, violation.Code, violation.Message)
		if result != nil {
			result.Violations = []rules.Violation{*violation}
		}
		return result, err
	}

	decision := s.fraud.Evaluate(ctx, tx)
	if decision.Action == models.FraudActionBlock {
		result, err := s.fail(ctx, tx, domainerrors.ErrTransactionBlocked.Code, "blocked by fraud screening")
		if result != nil {
			result.Outcome = OutcomeBlocked
			result.Fraud = decision
		}
		return result, err
	}

	if decision.Action == models.FraudActionReview || s.policy.RequiresAdditionalVerification(tx) {
		s.logger.Info("transaction parked for verification",
			zap.String("transaction_id", tx.TransactionID),
			zap.String("action", string(decision.Action)))
		s.collector.RecordOutcome(string(tx.Type), string(OutcomeReviewed))
		s.audit(tx, auditActionExecuted, string(OutcomeReviewed), nil)
		return &Result{Outcome: OutcomeReviewed, Transaction: tx, Fraud: decision}, nil
	}

	if err := s.applyLedger(ctx, tx); err != nil {
		var domainErr *domainerrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Code != domainerrors.ErrPersistence.Code {
			result, failErr := s.fail(ctx, tx, domainErr.Code, domainErr.Message)
			if result != nil {
				result.Fraud = decision
			}
			return result, failErr
		}
		s.markFailedBestEffort(ctx, tx, "ledger unavailable")
		return nil, err
	}

	completed, err := s.txRepo.UpdateStatus(ctx, tx.TransactionID, models.TransactionStatusPending, models.TransactionStatusCompleted, "")
	if err != nil {
		return nil, err
	}
	s.collector.RecordOutcome(string(tx.Type), string(OutcomeCompleted))
	s.finalize(completed, auditActionExecuted, string(OutcomeCompleted))
	return &Result{Outcome: OutcomeCompleted, Transaction: completed, Fraud: decision}, nil
}

// CompleteVerified finishes a transaction previously parked for review or
// additional verification: the ledger mutation runs and the record becomes
// COMPLETED. Calls for the same transaction are serialized, so at most one
// caller sees the PENDING state and moves the money.
func (s *Service) CompleteVerified(ctx context.Context, transactionID string) (*Result, error) {
	mu := s.lockFor(transactionID)
	mu.Lock()
	defer mu.Unlock()

	tx, err := s.txRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.Status != models.TransactionStatusPending {
		return nil, domainerrors.ErrInvalidStatus.WithMessage("only pending transactions can be verified")
	}

	if err := s.applyLedger(ctx, tx); err != nil {
		var domainErr *domainerrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Code != domainerrors.ErrPersistence.Code {
			return s.fail(ctx, tx, domainErr.Code, domainErr.Message)
		}
		return nil, err
	}

	completed, err := s.txRepo.UpdateStatus(ctx, tx.TransactionID, models.TransactionStatusPending, models.TransactionStatusCompleted, "")
	if err != nil {
		return nil, err
	}
	s.collector.RecordOutcome(string(tx.Type), string(OutcomeCompleted))
	s.finalize(completed, auditActionVerified, string(OutcomeCompleted))
	return &Result{Outcome: OutcomeCompleted, Transaction: completed}, nil
}

// Reverse undoes a COMPLETED transaction: the inverse ledger mutation runs,
// a linked REVERSAL record is created and the original becomes REVERSED.
// Calls for the same transaction are serialized so the inverse mutation
// applies at most once.
func (s *Service) Reverse(ctx context.Context, transactionID string) (*Result, error) {
	mu := s.lockFor(transactionID)
	mu.Lock()
	defer mu.Unlock()

	original, err := s.txRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if original.Status != models.TransactionStatusCompleted {
		return nil, domainerrors.ErrInvalidStatus.WithMessage("only completed transactions can be reversed")
	}

	if err := s.applyInverseLedger(ctx, original); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reversal := &models.Transaction{
		TransactionID: newTransactionID(),
		AccountID:     original.AccountID,
		CustomerID:    original.CustomerID,
		Type:          models.TransactionTypeReversal,
		Status:        models.TransactionStatusCompleted,
		Amount:        original.Amount,
		Fee:           decimal.Zero,
		Channel:       original.Channel,
		CompletedAt:   &now,
		Metadata: models.NewJSON(map[string]interface{}{
			metadataOriginalTransactionID: original.TransactionID,
		}),
	}
	if err := s.txRepo.Create(ctx, reversal); err != nil {
		return nil, err
	}

	reversed, err := s.txRepo.UpdateStatus(ctx, original.TransactionID, models.TransactionStatusCompleted, models.TransactionStatusReversed, "")
	if err != nil {
		return nil, err
	}

	s.collector.RecordOutcome(string(original.Type), string(models.TransactionStatusReversed))
	s.audit(reversed, auditActionReversed, string(models.TransactionStatusReversed), map[string]interface{}{
		"reversal_transaction_id": reversal.TransactionID,
	})
	s.finalize(reversal, auditActionReversed, string(models.TransactionStatusReversed))
	return &Result{Outcome: OutcomeCompleted, Transaction: reversal}, nil
}

// Get returns a transaction by its public identifier.
func (s *Service) Get(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return s.txRepo.GetByTransactionID(ctx, transactionID)
}

func (s *Service) lockFor(transactionID string) *sync.Mutex {
	mu, _ := s.txLocks.LoadOrStore(transactionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *Service) buildTransaction(req Request) *models.Transaction {
	var meta models.JSON
	if req.Metadata != nil {
		meta = models.NewJSON(req.Metadata)
	}
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	return &models.Transaction{
		TransactionID:        newTransactionID(),
		AccountID:            req.AccountID,
		DestinationAccountID: req.DestinationAccountID,
		CustomerID:           req.CustomerID,
		Type:                 req.Type,
		Status:               models.TransactionStatusPending,
		Amount:               req.Amount,
		Currency:             currency,
		Channel:              req.Channel,
		Recipient:            req.Recipient,
		Location:             req.Location,
		Metadata:             meta,
	}
}

// applyLedger moves the money. Debit-side types withdraw amount plus fee
// in one mutation so the balance check covers both.
func (s *Service) applyLedger(ctx context.Context, tx *models.Transaction) error {
	switch {
	case tx.Type == models.TransactionTypeTransfer && tx.DestinationAccountID != nil:
		_, _, err := s.ledger.Transfer(ctx, tx.AccountID, *tx.DestinationAccountID, tx.Amount)
		return err
	case tx.Type.Debits():
		_, err := s.ledger.Debit(ctx, tx.AccountID, tx.Amount.Add(tx.Fee))
		return err
	default:
		_, err := s.ledger.Credit(ctx, tx.AccountID, tx.Amount)
		return err
	}
}

func (s *Service) applyInverseLedger(ctx context.Context, tx *models.Transaction) error {
	switch {
	case tx.Type == models.TransactionTypeTransfer && tx.DestinationAccountID != nil:
		_, _, err := s.ledger.Transfer(ctx, *tx.DestinationAccountID, tx.AccountID, tx.Amount)
		return err
	case tx.Type.Debits():
		_, err := s.ledger.Credit(ctx, tx.AccountID, tx.Amount.Add(tx.Fee))
		return err
	default:
		_, err := s.ledger.Debit(ctx, tx.AccountID, tx.Amount)
		return err
	}
}

// fail marks the transaction FAILED with the given reason and reports the
// failure to the customer. The audit event and notification go through the
// same once-per-transaction guard as successful completions.
func (s *Service) fail(ctx context.Context, tx *models.Transaction, code, reason string) (*Result, error) {
	failed, err := s.txRepo.UpdateStatus(ctx, tx.TransactionID, models.TransactionStatusPending, models.TransactionStatusFailed, reason)
	if err != nil {
		return nil, err
	}
	s.collector.RecordOutcome(string(tx.Type), string(OutcomeFailed))
	s.collector.RecordError("transaction", code)
	if _, loaded := s.notified.LoadOrStore(tx.TransactionID, struct{}{}); !loaded {
		s.audit(failed, auditActionExecuted, string(OutcomeFailed), map[string]interface{}{"reason": reason})
		s.notifyError(failed, reason)
	}
	return &Result{
		Outcome:       OutcomeFailed,
		Transaction:   failed,
		ErrorCode:     code,
		FailureReason: reason,
	}, nil
}

// markFailedBestEffort closes out a created record when an infrastructure
// error aborts the pipeline, so no row is left PENDING forever. The
// original error still propagates to the caller.
func (s *Service) markFailedBestEffort(ctx context.Context, tx *models.Transaction, reason string) {
	if _, err := s.txRepo.UpdateStatus(ctx, tx.TransactionID, models.TransactionStatusPending, models.TransactionStatusFailed, reason); err != nil {
		s.logger.Error("failed to close out transaction record",
			zap.String("transaction_id", tx.TransactionID),
			zap.String("reason", reason),
			zap.Error(err))
	}
	s.collector.RecordOutcome(string(tx.Type), string(OutcomeFailed))
}

// finalize delivers the terminal notification and audit event exactly once
// per transaction, detached from the caller's context.
func (s *Service) finalize(tx *models.Transaction, action, outcome string) {
	if _, loaded := s.notified.LoadOrStore(tx.TransactionID, struct{}{}); loaded {
		return
	}
	s.audit(tx, action, outcome, nil)
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.notifier.SendTransactionNotification(ctx, tx.CustomerID, tx, outcome); err != nil {
		s.logger.Warn("transaction notification failed",
			zap.String("transaction_id", tx.TransactionID),
			zap.Error(err))
	}
}

func (s *Service) notifyError(tx *models.Transaction, reason string) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.notifier.SendErrorNotification(ctx, tx.CustomerID, reason); err != nil {
		s.logger.Warn("error notification failed",
			zap.String("transaction_id", tx.TransactionID),
			zap.Error(err))
	}
}

func (s *Service) audit(tx *models.Transaction, action, outcome string, details map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.auditor.Record(ctx, audit.Event{
		TransactionID: tx.TransactionID,
		AccountID:     tx.AccountID,
		CustomerID:    tx.CustomerID,
		Action:        action,
		Outcome:       outcome,
		Details:       details,
	})
}

func newTransactionID() string {
	return "TX-" + uuid.New().String()
}
