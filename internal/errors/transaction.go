package errors

var (
	ErrValidation = &DomainError{
		Code:    "VALIDATION_FAILED",
		Message: "transaction request failed validation",
	}
	ErrInsufficientFunds = &DomainError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: "insufficient available balance",
	}
	ErrInactiveAccount = &DomainError{
		Code:    "INACTIVE_ACCOUNT",
		Message: "account is not active",
	}
	ErrLimitExceeded = &DomainError{
		Code:    "LIMIT_EXCEEDED",
		Message: "daily transaction limit exceeded",
	}
	ErrTransactionBlocked = &DomainError{
		Code:    "TRANSACTION_BLOCKED",
		Message: "transaction blocked by fraud decision",
	}
	ErrAccountNotFound = &DomainError{
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "account not found",
	}
	ErrTransactionNotFound = &DomainError{
		Code:    "TRANSACTION_NOT_FOUND",
		Message: "transaction not found",
	}
	ErrInvalidStatus = &DomainError{
		Code:    "INVALID_STATUS",
		Message: "transaction is not in a state that permits this operation",
	}
	ErrPersistence = &DomainError{
		Code:    "PERSISTENCE_ERROR",
		Message: "persistence operation failed",
	}
	// ErrReconciliationRequired is returned when a transfer's compensating
	// credit itself fails: the books are inconsistent and an operator has to
	// reconcile manually. Never retried automatically.
	ErrReconciliationRequired = &DomainError{
		Code:    "RECONCILIATION_REQUIRED",
		Message: "compensation failed, manual reconciliation required",
	}
)
