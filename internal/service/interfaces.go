package service

import (
	"context"
	"time"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/eventstore"
	"github.com/josh-kwaku/eventledger/internal/readmodel"
)

type accountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	Save(ctx context.Context, a *domain.Account) ([]domain.Event, error)
}

type historicalAccounts interface {
	GetAsOf(ctx context.Context, id string, t time.Time) (*domain.Account, error)
}

type eventDispatcher interface {
	DispatchAll(ctx context.Context, events []domain.Event) error
}

type eventReader interface {
	GetEvents(ctx context.Context, aggregateID string, r eventstore.Range) ([]domain.Event, error)
	Exists(ctx context.Context, aggregateID string) (bool, error)
}

type summaryReader interface {
	GetSummary(ctx context.Context, accountID string) (*readmodel.AccountSummary, error)
	ListSummariesByCustomer(ctx context.Context, customerID string) ([]readmodel.AccountSummary, error)
	ListSummariesByStatus(ctx context.Context, status domain.AccountStatus) ([]readmodel.AccountSummary, error)
}

type transactionReader interface {
	ListTransactions(ctx context.Context, accountID string, filter readmodel.TransactionFilter) ([]readmodel.Transaction, error)
}
