package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/logging"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError maps err onto the API error for its failure class.
// Anything outside the domain taxonomy is logged and reported as a 500.
func RespondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	RespondAppError(w, appErrorFor(r, err), nil)
}

func appErrorFor(r *http.Request, err error) *AppError {
	log := logging.FromContext(r.Context())

	if errors.Is(err, domain.ErrCompensationFailed) {
		log.Error("transfer left unresolved", "error", err)
		return ErrTransferUnresolved
	}

	switch domain.FailureOf(err) {
	case domain.FailureNotFound:
		return ErrAccountNotFound
	case domain.FailureInsufficientFunds:
		return ErrInsufficientFunds
	case domain.FailureAccountFrozen:
		return ErrAccountFrozen
	case domain.FailureAccountClosed:
		return ErrAccountClosed
	case domain.FailureConcurrencyConflict:
		return ErrVersionConflict
	case domain.FailureValidation:
		return validationAppError(err)
	default:
		log.Error("unhandled error", "error", err)
		return ErrInternalError
	}
}

func validationAppError(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, domain.ErrNegativeBalance):
		return ErrNegativeBalance
	case errors.Is(err, domain.ErrInvalidCurrency):
		return ErrInvalidCurrency
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return ErrCurrencyMismatch
	case errors.Is(err, domain.ErrInvalidTransition):
		return ErrInvalidTransition
	case errors.Is(err, domain.ErrInvalidAccount):
		return ErrInvalidAccountRef
	default:
		return ErrValidationFailed
	}
}
