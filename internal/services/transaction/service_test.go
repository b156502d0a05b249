package transaction

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"corebank/internal/config"
	domainerrors "corebank/internal/errors"
	"corebank/internal/models"
	"corebank/internal/services/audit"
	"corebank/internal/services/ledger"
	"corebank/internal/services/rules"
)

// fakeTxRepo is an in-memory transaction store. Daily totals are computed
// from the stored COMPLETED records, so limit tests exercise the real
// aggregation semantics.
type fakeTxRepo struct {
	mu  sync.Mutex
	txs map[string]*models.Transaction
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{txs: make(map[string]*models.Transaction)}
}

func (r *fakeTxRepo) Create(ctx context.Context, tx *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tx
	r.txs[tx.TransactionID] = &cp
	return nil
}

func (r *fakeTxRepo) UpdateStatus(ctx context.Context, transactionID string, from, to models.TransactionStatus, reason string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[transactionID]
	if !ok {
		return nil, domainerrors.ErrTransactionNotFound
	}
	if tx.Status != from {
		return nil, domainerrors.ErrInvalidStatus
	}
	tx.Status = to
	tx.FailureReason = reason
	if to == models.TransactionStatusCompleted {
		now := time.Now().UTC()
		tx.CompletedAt = &now
	}
	cp := *tx
	return &cp, nil
}

func (r *fakeTxRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[transactionID]
	if !ok {
		return nil, domainerrors.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (r *fakeTxRepo) GetAccountDailyTotal(ctx context.Context, accountID uint, txType models.TransactionType, ts time.Time) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, tx := range r.txs {
		if tx.AccountID == accountID && tx.Type == txType && tx.Status == models.TransactionStatusCompleted {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (r *fakeTxRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.txs)
}

func (r *fakeTxRepo) single(t *testing.T) *models.Transaction {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.txs) != 1 {
		t.Fatalf("expected exactly one stored transaction, got %d", len(r.txs))
	}
	for _, tx := range r.txs {
		cp := *tx
		return &cp
	}
	return nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uint]*models.Account
}

func newFakeAccountRepo(accounts ...*models.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: make(map[uint]*models.Account)}
	for _, a := range accounts {
		cp := *a
		r.accounts[a.ID] = &cp
	}
	return r
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, domainerrors.ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (r *fakeAccountRepo) Update(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) balance(id uint) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id].Balance
}

// stubFraud returns a canned decision per action.
type stubFraud struct {
	action models.FraudAction
	score  int
}

func (f *stubFraud) Evaluate(ctx context.Context, tx *models.Transaction) *models.FraudDecision {
	return &models.FraudDecision{
		TransactionID: tx.TransactionID,
		Action:        f.action,
		Score:         f.score,
		Suspicious:    f.action != models.FraudActionAllow,
		EvaluatedAt:   time.Now().UTC(),
	}
}

type recordingNotifier struct {
	mu            sync.Mutex
	transactional int
	errors        int
}

func (n *recordingNotifier) SendTransactionNotification(ctx context.Context, customerID uint, tx *models.Transaction, outcome string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transactional++
	return nil
}

func (n *recordingNotifier) SendErrorNotification(ctx context.Context, customerID uint, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors++
	return nil
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *recordingAuditor) Record(ctx context.Context, event audit.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func (a *recordingAuditor) Close() error { return nil }

type testEnv struct {
	svc      *Service
	txRepo   *fakeTxRepo
	accounts *fakeAccountRepo
	notifier *recordingNotifier
	auditor  *recordingAuditor
}

func newTestEnv(t *testing.T, fraudAction models.FraudAction, accounts ...*models.Account) *testEnv {
	t.Helper()
	txRepo := newFakeTxRepo()
	accountRepo := newFakeAccountRepo(accounts...)
	limits := config.LimitsConfig{
		DailyWithdrawal:    decimal.NewFromInt(1000),
		DailyTransfer:      decimal.NewFromInt(5000),
		HighValueThreshold: decimal.NewFromInt(10000),
	}
	fees := config.FeeConfig{
		WithdrawalFreeBelow:     decimal.NewFromInt(100),
		WithdrawalFlatBelow:     decimal.NewFromInt(1000),
		WithdrawalFlatFee:       decimal.NewFromFloat(2.50),
		WithdrawalPercent:       decimal.NewFromFloat(0.005),
		ExternalTransferPercent: decimal.NewFromFloat(0.01),
	}
	notifier := &recordingNotifier{}
	auditor := &recordingAuditor{}
	svc := NewService(
		txRepo,
		ledger.NewService(accountRepo, nil, zap.NewNop()),
		rules.NewEngine(limits, fees, txRepo, zap.NewNop()),
		&stubFraud{action: fraudAction},
		notifier,
		auditor,
		zap.NewNop(),
		nil,
	)
	return &testEnv{svc: svc, txRepo: txRepo, accounts: accountRepo, notifier: notifier, auditor: auditor}
}

func activeAccount(id uint, balance int64) *models.Account {
	return &models.Account{
		ID:         id,
		CustomerID: 100 + id,
		Balance:    decimal.NewFromInt(balance),
		Currency:   "USD",
		Status:     models.AccountStatusActive,
	}
}

func withdrawal(accountID uint, amount int64) Request {
	return Request{
		AccountID:  accountID,
		CustomerID: 100 + accountID,
		Type:       models.TransactionTypeWithdrawal,
		Amount:     decimal.NewFromInt(amount),
		Channel:    "ATM",
	}
}

func TestExecuteWithdrawalCompletes(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 5000))

	result, err := env.svc.Execute(context.Background(), withdrawal(1, 100))
	assert.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.Equal(t, models.TransactionStatusCompleted, result.Transaction.Status)
	assert.NotNil(t, result.Transaction.CompletedAt)
	assert.True(t, decimal.NewFromFloat(2.50).Equal(result.Transaction.Fee))
	// 5000 - 100 - 2.50 flat fee
	assert.True(t, decimal.NewFromFloat(4897.50).Equal(env.accounts.balance(1)))
	assert.Equal(t, 1, env.notifier.transactional)
}

func TestExecuteInsufficientFunds(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 50))

	result, err := env.svc.Execute(context.Background(), withdrawal(1, 100))
	assert.NoError(t, err)
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, domainerrors.ErrInsufficientFunds.Code, result.ErrorCode)
	assert.Equal(t, models.TransactionStatusFailed, result.Transaction.Status)
	assert.True(t, decimal.NewFromInt(50).Equal(env.accounts.balance(1)), "balance untouched")
	assert.Equal(t, 1, env.notifier.errors)
}

func TestExecuteDailyLimit(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 100000))

	first, err := env.svc.Execute(context.Background(), withdrawal(1, 900))
	assert.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, first.Outcome)

	second, err := env.svc.Execute(context.Background(), withdrawal(1, 200))
	assert.NoError(t, err)
	assert.Equal(t, OutcomeFailed, second.Outcome)
	assert.Equal(t, domainerrors.ErrLimitExceeded.Code, second.ErrorCode)
	assert.Len(t, second.Violations, 1)
}

func TestExecuteBlocked(t *testing.T) {
	env := newTestEnv(t, models.FraudActionBlock, activeAccount(1, 5000))

	result, err := env.svc.Execute(context.Background(), withdrawal(1, 100))
	assert.NoError(t, err)
	assert.Equal(t, OutcomeBlocked, result.Outcome)
	assert.Equal(t, domainerrors.ErrTransactionBlocked.Code, result.ErrorCode)
	assert.Equal(t, models.TransactionStatusFailed, result.Transaction.Status)
	assert.NotNil(t, result.Fraud)
	assert.True(t, decimal.NewFromInt(5000).Equal(env.accounts.balance(1)), "no funds move on block")
}

func TestExecuteDepositAlwaysAllowed(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 0))

	result, err := env.svc.Execute(context.Background(), Request{
		AccountID:  1,
		CustomerID: 101,
		Type:       models.TransactionTypeDeposit,
		Amount:     decimal.NewFromInt(500000),
		Channel:    "BRANCH",
	})
	assert.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.True(t, result.Transaction.Fee.IsZero())
	assert.True(t, decimal.NewFromInt(500000).Equal(env.accounts.balance(1)))
}

func TestExecuteValidationFailureCreatesNoState(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 5000))

	_, err := env.svc.Execute(context.Background(), withdrawal(1, -10))
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, 0, env.txRepo.count())
}

func TestExecuteRejectsReversalType(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 5000))

	req := withdrawal(1, 10)
	req.Type = models.TransactionTypeReversal
	_, err := env.svc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, 0, env.txRepo.count())
}

func TestExecuteInternalTransfer(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 1000), activeAccount(2, 200))

	dest := uint(2)
	result, err := env.svc.Execute(context.Background(), Request{
		AccountID:            1,
		DestinationAccountID: &dest,
		CustomerID:           101,
		Type:                 models.TransactionTypeTransfer,
		Amount:               decimal.NewFromInt(300),
		Channel:              "ONLINE",
	})
	assert.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.True(t, result.Transaction.Fee.IsZero(), "internal transfers are free")
	assert.True(t, decimal.NewFromInt(700).Equal(env.accounts.balance(1)))
	assert.True(t, decimal.NewFromInt(500).Equal(env.accounts.balance(2)))
}

func TestExecuteReviewParksTransaction(t *testing.T) {
	env := newTestEnv(t, models.FraudActionReview, activeAccount(1, 5000))

	result, err := env.svc.Execute(context.Background(), withdrawal(1, 100))
	assert.NoError(t, err)
	assert.Equal(t, OutcomeReviewed, result.Outcome)
	assert.Equal(t, models.TransactionStatusPending, result.Transaction.Status)
	assert.True(t, decimal.NewFromInt(5000).Equal(env.accounts.balance(1)), "funds held until verification")
}

func TestExecuteHighValueRequiresVerification(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 50000))

	result, err := env.svc.Execute(context.Background(), Request{
		AccountID:  1,
		CustomerID: 101,
		Type:       models.TransactionTypeDeposit,
		Amount:     decimal.NewFromInt(10000),
		Channel:    "BRANCH",
	})
	assert.NoError(t, err)
	assert.Equal(t, OutcomeReviewed, result.Outcome)
	assert.Equal(t, models.TransactionStatusPending, result.Transaction.Status)
}

func TestCompleteVerified(t *testing.T) {
	env := newTestEnv(t, models.FraudActionReview, activeAccount(1, 5000))

	parked, err := env.svc.Execute(context.Background(), withdrawal(1, 100))
	assert.NoError(t, err)
	assert.Equal(t, OutcomeReviewed, parked.Outcome)

	result, err := env.svc.CompleteVerified(context.Background(), parked.Transaction.TransactionID)
	assert.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.True(t, decimal.NewFromFloat(4897.50).Equal(env.accounts.balance(1)))

	_, err = env.svc.CompleteVerified(context.Background(), parked.Transaction.TransactionID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidStatus, "verification is not repeatable")
}

func TestCompleteVerifiedUnknownTransaction(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 5000))

	_, err := env.svc.CompleteVerified(context.Background(), "TX-missing")
	assert.ErrorIs(t, err, domainerrors.ErrTransactionNotFound)
}

func TestReverse(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 5000))

	completed, err := env.svc.Execute(context.Background(), withdrawal(1, 100))
	assert.NoError(t, err)

	result, err := env.svc.Reverse(context.Background(), completed.Transaction.TransactionID)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionTypeReversal, result.Transaction.Type)
	assert.Equal(t, completed.Transaction.TransactionID, result.Transaction.Metadata["original_transaction_id"])
	// amount plus fee is credited back
	assert.True(t, decimal.NewFromInt(5000).Equal(env.accounts.balance(1)))

	original, err := env.svc.Get(context.Background(), completed.Transaction.TransactionID)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusReversed, original.Status)

	_, err = env.svc.Reverse(context.Background(), completed.Transaction.TransactionID)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidStatus, "a reversed transaction cannot be reversed again")
}

func TestFinalizeNotifiesOnce(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 5000))

	tx := &models.Transaction{TransactionID: "TX-once", CustomerID: 101}
	env.svc.finalize(tx, auditActionExecuted, string(OutcomeCompleted))
	env.svc.finalize(tx, auditActionExecuted, string(OutcomeCompleted))
	assert.Equal(t, 1, env.notifier.transactional)
}

func TestConcurrentVerifyCompletesOnce(t *testing.T) {
	env := newTestEnv(t, models.FraudActionReview, activeAccount(1, 5000))

	parked, err := env.svc.Execute(context.Background(), withdrawal(1, 100))
	assert.NoError(t, err)
	assert.Equal(t, OutcomeReviewed, parked.Outcome)

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.CompleteVerified(context.Background(), parked.Transaction.TransactionID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domainerrors.ErrInvalidStatus)
		}
	}
	assert.Equal(t, 1, successes, "exactly one verification wins")
	assert.True(t, decimal.NewFromFloat(4897.50).Equal(env.accounts.balance(1)), "the debit applies once")
}

func TestConcurrentReverseAppliesOnce(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 5000))

	completed, err := env.svc.Execute(context.Background(), withdrawal(1, 100))
	assert.NoError(t, err)

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Reverse(context.Background(), completed.Transaction.TransactionID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domainerrors.ErrInvalidStatus)
		}
	}
	assert.Equal(t, 1, successes, "exactly one reversal wins")
	assert.True(t, decimal.NewFromInt(5000).Equal(env.accounts.balance(1)), "the refund applies once")
}

func TestVerifiedCompletionAuditsOnce(t *testing.T) {
	env := newTestEnv(t, models.FraudActionReview, activeAccount(1, 5000))

	parked, err := env.svc.Execute(context.Background(), withdrawal(1, 100))
	assert.NoError(t, err)

	result, err := env.svc.CompleteVerified(context.Background(), parked.Transaction.TransactionID)
	assert.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, result.Outcome)

	env.auditor.mu.Lock()
	defer env.auditor.mu.Unlock()
	terminal := 0
	for _, event := range env.auditor.events {
		if event.TransactionID == parked.Transaction.TransactionID && event.Outcome == string(OutcomeCompleted) {
			terminal++
			assert.Equal(t, "transaction.verified", event.Action)
		}
	}
	assert.Equal(t, 1, terminal, "one audit event per terminal transition")
	assert.Equal(t, 1, env.notifier.transactional)
}

// policy wrapper whose limit check always fails with an infrastructure
// error.
type limitUnavailablePolicy struct {
	PolicyEngine
}

func (p limitUnavailablePolicy) CheckLimits(ctx context.Context, tx *models.Transaction) (*rules.Violation, error) {
	return nil, domainerrors.ErrPersistence
}

func TestLimitCheckFailureClosesRecord(t *testing.T) {
	txRepo := newFakeTxRepo()
	accountRepo := newFakeAccountRepo(activeAccount(1, 5000))
	limits := config.LimitsConfig{
		DailyWithdrawal:    decimal.NewFromInt(1000),
		DailyTransfer:      decimal.NewFromInt(5000),
		HighValueThreshold: decimal.NewFromInt(10000),
	}
	svc := NewService(
		txRepo,
		ledger.NewService(accountRepo, nil, zap.NewNop()),
		limitUnavailablePolicy{rules.NewEngine(limits, config.FeeConfig{}, txRepo, zap.NewNop())},
		&stubFraud{action: models.FraudActionAllow},
		&recordingNotifier{},
		&recordingAuditor{},
		zap.NewNop(),
		nil,
	)

	_, err := svc.Execute(context.Background(), withdrawal(1, 100))
	assert.ErrorIs(t, err, domainerrors.ErrPersistence)

	stored := txRepo.single(t)
	assert.Equal(t, models.TransactionStatusFailed, stored.Status, "no record is left pending")
	assert.True(t, decimal.NewFromInt(5000).Equal(accountRepo.balance(1)))
}

func TestExecuteCurrencyDefaults(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 5000))

	result, err := env.svc.Execute(context.Background(), withdrawal(1, 50))
	assert.NoError(t, err)
	assert.Equal(t, "USD", result.Transaction.Currency)

	req := Request{
		AccountID:  1,
		CustomerID: 101,
		Type:       models.TransactionTypeDeposit,
		Amount:     decimal.NewFromInt(10),
		Currency:   "EUR",
		Channel:    "BRANCH",
	}
	result, err = env.svc.Execute(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, "EUR", result.Transaction.Currency)
}

func TestAuditTrail(t *testing.T) {
	env := newTestEnv(t, models.FraudActionAllow, activeAccount(1, 5000))

	result, err := env.svc.Execute(context.Background(), withdrawal(1, 100))
	assert.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, result.Outcome)

	env.auditor.mu.Lock()
	defer env.auditor.mu.Unlock()
	if assert.NotEmpty(t, env.auditor.events) {
		event := env.auditor.events[0]
		assert.Equal(t, "transaction.executed", event.Action)
		assert.Equal(t, string(OutcomeCompleted), event.Outcome)
		assert.Equal(t, result.Transaction.TransactionID, event.TransactionID)
	}
}
