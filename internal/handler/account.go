package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/logging"
	"github.com/josh-kwaku/eventledger/internal/service"
)

type accountService interface {
	Open(ctx context.Context, customerID string, initialBalance domain.Money) (*domain.Account, error)
	Deposit(ctx context.Context, accountID string, amount domain.Money, description string) (*domain.Account, error)
	Withdraw(ctx context.Context, accountID string, amount domain.Money, description string) (*domain.Account, error)
	Transfer(ctx context.Context, fromID, toID string, amount domain.Money, description string) (*service.TransferResult, error)
	Freeze(ctx context.Context, accountID, reason string) (*domain.Account, error)
	Unfreeze(ctx context.Context, accountID string) (*domain.Account, error)
	Close(ctx context.Context, accountID, reason string) (*domain.Account, error)
	ChargeOverdraftFee(ctx context.Context, accountID string, fee domain.Money) (*domain.Account, error)
	AccrueInterest(ctx context.Context, accountID string, amount domain.Money) (*domain.Account, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type moneyRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (m moneyRequest) money() domain.Money {
	c, _ := domain.ParseCurrency(m.Currency)
	return domain.NewMoney(m.Amount, c)
}

func validateCurrency(errs []FieldError, currency string) []FieldError {
	if strings.TrimSpace(currency) == "" {
		return append(errs, FieldError{Field: "currency", Message: "required"})
	}
	if _, err := domain.ParseCurrency(currency); err != nil {
		return append(errs, FieldError{Field: "currency", Message: "must be a three-letter ISO code"})
	}
	return errs
}

func validatePositive(errs []FieldError, field string, amount decimal.Decimal) []FieldError {
	if !amount.IsPositive() {
		return append(errs, FieldError{Field: field, Message: "must be greater than 0"})
	}
	return errs
}

type openAccountRequest struct {
	CustomerID     string          `json:"customer_id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Currency       string          `json:"currency"`
}

func (r openAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.CustomerID) == "" {
		errs = append(errs, FieldError{Field: "customer_id", Message: "required"})
	}
	if r.InitialBalance.IsNegative() {
		errs = append(errs, FieldError{Field: "initial_balance", Message: "must not be negative"})
	}
	return validateCurrency(errs, r.Currency)
}

type movementRequest struct {
	moneyRequest
	Description string `json:"description"`
}

func (r movementRequest) Validate() []FieldError {
	errs := validatePositive(nil, "amount", r.Amount)
	return validateCurrency(errs, r.Currency)
}

type transferRequest struct {
	movementRequest
	ToAccountID string `json:"to_account_id"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.ToAccountID) == "" {
		errs = append(errs, FieldError{Field: "to_account_id", Message: "required"})
	}
	return append(errs, r.movementRequest.Validate()...)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type accountDTO struct {
	ID                string          `json:"id"`
	CustomerID        string          `json:"customer_id"`
	Balance           decimal.Decimal `json:"balance"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	LastTransactionAt *time.Time      `json:"last_transaction_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	dto := accountDTO{
		ID:         a.ID(),
		CustomerID: a.CustomerID(),
		Balance:    a.Balance().Amount,
		Currency:   string(a.Balance().Currency),
		Status:     string(a.Status()),
		Version:    a.Version(),
		CreatedAt:  a.CreatedAt(),
	}
	if at := a.LastTransactionAt(); !at.IsZero() {
		dto.LastTransactionAt = &at
	}
	return dto
}

type transferDTO struct {
	Source      accountDTO `json:"source"`
	Destination accountDTO `json:"destination"`
}

func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	initial := moneyRequest{Amount: req.InitialBalance, Currency: req.Currency}.money()
	account, err := h.accounts.Open(r.Context(), req.CustomerID, initial)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to open account", "error", err)
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.accounts.Deposit)
}

func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.accounts.Withdraw)
}

func (h *AccountHandler) movement(
	w http.ResponseWriter,
	r *http.Request,
	run func(context.Context, string, domain.Money, string) (*domain.Account, error),
) {
	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := run(r.Context(), r.PathValue("id"), req.money(), req.Description)
	h.respond(w, r, account, err)
}

func (h *AccountHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.accounts.Transfer(r.Context(), r.PathValue("id"), req.ToAccountID, req.money(), req.Description)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, transferDTO{
		Source:      toAccountDTO(res.Source),
		Destination: toAccountDTO(res.Destination),
	})
}

func (h *AccountHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReason(w, r)
	if !ok {
		return
	}
	account, err := h.accounts.Freeze(r.Context(), r.PathValue("id"), req.Reason)
	h.respond(w, r, account, err)
}

func (h *AccountHandler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Unfreeze(r.Context(), r.PathValue("id"))
	h.respond(w, r, account, err)
}

func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReason(w, r)
	if !ok {
		return
	}
	account, err := h.accounts.Close(r.Context(), r.PathValue("id"), req.Reason)
	h.respond(w, r, account, err)
}

func (h *AccountHandler) ChargeFee(w http.ResponseWriter, r *http.Request) {
	h.posting(w, r, h.accounts.ChargeOverdraftFee)
}

func (h *AccountHandler) AccrueInterest(w http.ResponseWriter, r *http.Request) {
	h.posting(w, r, h.accounts.AccrueInterest)
}

// posting handles the bank-initiated entries, which carry no description.
func (h *AccountHandler) posting(
	w http.ResponseWriter,
	r *http.Request,
	run func(context.Context, string, domain.Money) (*domain.Account, error),
) {
	var req moneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	fields := validateCurrency(validatePositive(nil, "amount", req.Amount), req.Currency)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := run(r.Context(), r.PathValue("id"), req.money())
	h.respond(w, r, account, err)
}

func (h *AccountHandler) respond(w http.ResponseWriter, r *http.Request, account *domain.Account, err error) {
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

// decodeReason accepts an empty body; the reason then falls back to the
// domain default.
func decodeReason(w http.ResponseWriter, r *http.Request) (reasonRequest, bool) {
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondAppError(w, ErrInvalidRequest, nil)
		return req, false
	}
	return req, true
}
