// Package readmodel holds the query-side views built from account events.
// Rows are derived data: they may lag the event store and can always be
// rebuilt from it.
package readmodel

import (
	"context"
	"time"

	"github.com/josh-kwaku/eventledger/internal/domain"
)

type AccountSummary struct {
	AccountID         string               `json:"account_id"`
	CustomerID        string               `json:"customer_id"`
	Balance           domain.Money         `json:"balance"`
	Status            domain.AccountStatus `json:"status"`
	Version           int64                `json:"version"`
	TransactionCount  int64                `json:"transaction_count"`
	OpenedAt          time.Time            `json:"opened_at"`
	LastTransactionAt *time.Time           `json:"last_transaction_at,omitempty"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

type TransactionKind string

const (
	TransactionDeposit          TransactionKind = "deposit"
	TransactionWithdrawal       TransactionKind = "withdrawal"
	TransactionTransferOut      TransactionKind = "transfer_out"
	TransactionTransferIn       TransactionKind = "transfer_in"
	TransactionFee              TransactionKind = "fee"
	TransactionInterest         TransactionKind = "interest"
	TransactionTransferReversal TransactionKind = "transfer_reversal"
)

func (k TransactionKind) IsValid() bool {
	switch k {
	case TransactionDeposit, TransactionWithdrawal, TransactionTransferOut, TransactionTransferIn,
		TransactionFee, TransactionInterest, TransactionTransferReversal:
		return true
	}
	return false
}

// Transaction is one balance movement as seen from AccountID. A transfer
// between two accounts yields two rows, one per side.
type Transaction struct {
	EventID               string          `json:"event_id"`
	AccountID             string          `json:"account_id"`
	EventVersion          int64           `json:"event_version"`
	Kind                  TransactionKind `json:"kind"`
	Amount                domain.Money    `json:"amount"`
	Description           string          `json:"description"`
	CounterpartyAccountID string          `json:"counterparty_account_id,omitempty"`
	OccurredAt            time.Time       `json:"occurred_at"`
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// TransactionFilter narrows a history listing. A zero Kind matches every
// kind; Limit is clamped to (0, MaxPageSize].
type TransactionFilter struct {
	Kind   TransactionKind
	Limit  int
	Offset int
}

func (f TransactionFilter) normalized() TransactionFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, accountID string, filter TransactionFilter) ([]Transaction, error)
	DeleteTransactions(ctx context.Context, accountID string) error
}

// Store pairs a summary store with a transaction store, letting a cache sit
// in front of one side only.
type Store struct {
	SummaryStore
	TransactionStore
}
