package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/eventstore"
	"github.com/josh-kwaku/eventledger/internal/readmodel"
)

type queryService interface {
	GetAccountSummary(ctx context.Context, accountID string) (*readmodel.AccountSummary, error)
	GetTransactionHistory(ctx context.Context, accountID string, filter readmodel.TransactionFilter) ([]readmodel.Transaction, error)
	ListCustomerAccounts(ctx context.Context, customerID string) ([]readmodel.AccountSummary, error)
	ListAccountsByStatus(ctx context.Context, status domain.AccountStatus) ([]readmodel.AccountSummary, error)
	GetAccountAsOf(ctx context.Context, accountID string, t time.Time) (*domain.Account, error)
	GetAccountEvents(ctx context.Context, accountID string, r eventstore.Range) ([]domain.Event, error)
}

type QueryHandler struct {
	queries queryService
}

func NewQueryHandler(queries queryService) *QueryHandler {
	return &QueryHandler{queries: queries}
}

type eventDTO struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Version   int64           `json:"version"`
	Kind      string          `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func toEventDTO(e domain.Event) (eventDTO, error) {
	data, err := json.Marshal(e.Data())
	if err != nil {
		return eventDTO{}, err
	}
	return eventDTO{
		ID:        e.ID(),
		AccountID: e.AggregateID(),
		Version:   e.Version(),
		Kind:      string(e.Kind()),
		Timestamp: e.Timestamp(),
		Data:      data,
	}, nil
}

func (h *QueryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.queries.GetAccountSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, sum)
}

func (h *QueryHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var fields []FieldError

	filter := readmodel.TransactionFilter{Kind: readmodel.TransactionKind(q.Get("kind"))}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		fields = append(fields, FieldError{Field: "kind", Message: "unknown transaction kind"})
	}
	filter.Limit, fields = intParam(q.Get("limit"), "limit", fields)
	filter.Offset, fields = intParam(q.Get("offset"), "offset", fields)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txs, err := h.queries.GetTransactionHistory(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, txs)
}

func (h *QueryHandler) Events(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		rng    eventstore.Range
		fields []FieldError
		from   int
		to     int
	)
	from, fields = intParam(q.Get("from"), "from", fields)
	to, fields = intParam(q.Get("to"), "to", fields)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	rng.From, rng.To = int64(from), int64(to)

	events, err := h.queries.GetAccountEvents(r.Context(), r.PathValue("id"), rng)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	dtos := make([]eventDTO, len(events))
	for i, e := range events {
		dto, err := toEventDTO(e)
		if err != nil {
			RespondDomainError(w, r, err)
			return
		}
		dtos[i] = dto
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *QueryHandler) AsOf(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		RespondValidationError(w, []FieldError{{Field: "at", Message: "required"}})
		return
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "at", Message: "must be an RFC 3339 timestamp"}})
		return
	}

	account, err := h.queries.GetAccountAsOf(r.Context(), r.PathValue("id"), at)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *QueryHandler) CustomerAccounts(w http.ResponseWriter, r *http.Request) {
	sums, err := h.queries.ListCustomerAccounts(r.Context(), r.PathValue("id"))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, sums)
}

func (h *QueryHandler) AccountsByStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		RespondValidationError(w, []FieldError{{Field: "status", Message: "required"}})
		return
	}

	sums, err := h.queries.ListAccountsByStatus(r.Context(), domain.AccountStatus(status))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, sums)
}

// intParam parses an optional non-negative query parameter. Empty means 0.
func intParam(raw, field string, fields []FieldError) (int, []FieldError) {
	if raw == "" {
		return 0, fields
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, append(fields, FieldError{Field: field, Message: "must be a non-negative integer"})
	}
	return n, fields
}
