package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrForbidden        = &AppError{http.StatusForbidden, "FORBIDDEN", "Operator role required"}

	ErrAccountNotFound    = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrInvalidAmount      = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrNegativeBalance    = &AppError{http.StatusBadRequest, "NEGATIVE_INITIAL_BALANCE", "Initial balance cannot be negative"}
	ErrInvalidCurrency    = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrInvalidAccountRef  = &AppError{http.StatusUnprocessableEntity, "INVALID_ACCOUNT_REFERENCE", "Counterparty account is missing or the same account"}
	ErrCurrencyMismatch   = &AppError{http.StatusUnprocessableEntity, "CURRENCY_MISMATCH", "Currency mismatch"}
	ErrInvalidTransition  = &AppError{http.StatusUnprocessableEntity, "INVALID_STATUS_TRANSITION", "Operation not allowed in the account's current status"}
	ErrInsufficientFunds  = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrAccountFrozen      = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_FROZEN", "Account is frozen"}
	ErrAccountClosed      = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_CLOSED", "Account is closed"}
	ErrVersionConflict    = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Account was modified concurrently, please retry"}
	ErrTransferUnresolved = &AppError{http.StatusInternalServerError, "TRANSFER_COMPENSATION_FAILED", "Transfer could not be completed or reversed and needs manual repair"}
)
