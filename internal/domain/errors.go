package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrNegativeBalance   = fmt.Errorf("%w: initial balance cannot be negative", ErrValidation)
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrValidation)
	ErrCurrencyMismatch  = fmt.Errorf("%w: currency mismatch", ErrValidation)
	ErrInvalidCurrency   = fmt.Errorf("%w: invalid currency", ErrValidation)
	ErrInvalidAccount    = fmt.Errorf("%w: invalid account reference", ErrValidation)

	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrAccountNotActive = errors.New("account not active")
	ErrAccountFrozen    = fmt.Errorf("%w: account frozen", ErrAccountNotActive)
	ErrAccountClosed    = fmt.Errorf("%w: account closed", ErrAccountNotActive)

	ErrAccountNotFound     = errors.New("account not found")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrCompensationFailed  = errors.New("transfer compensation failed")
	ErrUnknownEventKind    = errors.New("unknown event kind")
)

// Failure is the closed set of outcomes an account operation can report
// besides success.
type Failure string

const (
	FailureNone                Failure = ""
	FailureValidation          Failure = "validation"
	FailureInsufficientFunds   Failure = "insufficient_funds"
	FailureAccountFrozen       Failure = "account_frozen"
	FailureAccountClosed       Failure = "account_closed"
	FailureNotFound            Failure = "not_found"
	FailureConcurrencyConflict Failure = "concurrency_conflict"
	FailureUnexpected          Failure = "unexpected"
)

// FailureOf maps an error onto the failure taxonomy. Errors outside the
// taxonomy are reported as FailureUnexpected.
func FailureOf(err error) Failure {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrCompensationFailed):
		return FailureUnexpected
	case errors.Is(err, ErrValidation):
		return FailureValidation
	case errors.Is(err, ErrInsufficientFunds):
		return FailureInsufficientFunds
	case errors.Is(err, ErrAccountFrozen):
		return FailureAccountFrozen
	case errors.Is(err, ErrAccountClosed):
		return FailureAccountClosed
	case errors.Is(err, ErrAccountNotFound):
		return FailureNotFound
	case errors.Is(err, ErrConcurrencyConflict):
		return FailureConcurrencyConflict
	default:
		return FailureUnexpected
	}
}
