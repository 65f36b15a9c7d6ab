package service

import (
	"context"
	"fmt"
	"time"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/eventstore"
	"github.com/josh-kwaku/eventledger/internal/readmodel"
)

// QueryService answers reads. Summaries and history come from the read
// models and may trail the latest commands; point-in-time and raw event
// reads go to the event store.
type QueryService struct {
	summaries    summaryReader
	transactions transactionReader
	history      historicalAccounts
	events       eventReader
}

func NewQueryService(summaries summaryReader, transactions transactionReader, history historicalAccounts, events eventReader) *QueryService {
	return &QueryService{
		summaries:    summaries,
		transactions: transactions,
		history:      history,
		events:       events,
	}
}

func (s *QueryService) GetAccountSummary(ctx context.Context, accountID string) (*readmodel.AccountSummary, error) {
	sum, err := s.summaries.GetSummary(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("GetAccountSummary: %w", err)
	}
	return sum, nil
}

func (s *QueryService) GetTransactionHistory(ctx context.Context, accountID string, filter readmodel.TransactionFilter) ([]readmodel.Transaction, error) {
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, fmt.Errorf("GetTransactionHistory: kind %q: %w", filter.Kind, domain.ErrValidation)
	}
	if _, err := s.summaries.GetSummary(ctx, accountID); err != nil {
		return nil, fmt.Errorf("GetTransactionHistory: %w", err)
	}
	txs, err := s.transactions.ListTransactions(ctx, accountID, filter)
	if err != nil {
		return nil, fmt.Errorf("GetTransactionHistory: %w", err)
	}
	return txs, nil
}

func (s *QueryService) ListCustomerAccounts(ctx context.Context, customerID string) ([]readmodel.AccountSummary, error) {
	sums, err := s.summaries.ListSummariesByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("ListCustomerAccounts: %w", err)
	}
	return sums, nil
}

func (s *QueryService) ListAccountsByStatus(ctx context.Context, status domain.AccountStatus) ([]readmodel.AccountSummary, error) {
	switch status {
	case domain.AccountStatusActive, domain.AccountStatusFrozen, domain.AccountStatusClosed:
	default:
		return nil, fmt.Errorf("ListAccountsByStatus: status %q: %w", status, domain.ErrValidation)
	}
	sums, err := s.summaries.ListSummariesByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("ListAccountsByStatus: %w", err)
	}
	return sums, nil
}

// GetAccountAsOf replays the account's events up to t.
func (s *QueryService) GetAccountAsOf(ctx context.Context, accountID string, t time.Time) (*domain.Account, error) {
	a, err := s.history.GetAsOf(ctx, accountID, t)
	if err != nil {
		return nil, fmt.Errorf("GetAccountAsOf: %w", err)
	}
	return a, nil
}

func (s *QueryService) GetAccountEvents(ctx context.Context, accountID string, r eventstore.Range) ([]domain.Event, error) {
	events, err := s.events.GetEvents(ctx, accountID, r)
	if err != nil {
		return nil, fmt.Errorf("GetAccountEvents: %w", err)
	}
	if len(events) == 0 {
		exists, err := s.events.Exists(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("GetAccountEvents: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("GetAccountEvents: %s: %w", accountID, domain.ErrAccountNotFound)
		}
	}
	return events, nil
}
