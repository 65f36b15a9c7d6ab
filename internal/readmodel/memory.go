package readmodel

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/josh-kwaku/eventledger/internal/domain"
)

// MemoryStore is an in-process read model store with the same semantics as
// SQLStore.
type MemoryStore struct {
	mu           sync.RWMutex
	summaries    map[string]AccountSummary
	transactions map[string]Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		summaries:    make(map[string]AccountSummary),
		transactions: make(map[string]Transaction),
	}
}

func (s *MemoryStore) GetSummary(_ context.Context, accountID string) (*AccountSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.summaries[accountID]
	if !ok {
		return nil, fmt.Errorf("GetSummary: %s: %w", accountID, domain.ErrAccountNotFound)
	}
	return &sum, nil
}

func (s *MemoryStore) InsertSummary(_ context.Context, sum *AccountSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.summaries[sum.AccountID]; !ok {
		s.summaries[sum.AccountID] = *sum
	}
	return nil
}

func (s *MemoryStore) UpdateSummary(_ context.Context, sum *AccountSummary) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.summaries[sum.AccountID]
	if !ok || cur.Version >= sum.Version {
		return false, nil
	}
	s.summaries[sum.AccountID] = *sum
	return true, nil
}

func (s *MemoryStore) DeleteSummary(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.summaries, accountID)
	return nil
}

func (s *MemoryStore) ListSummariesByCustomer(_ context.Context, customerID string) ([]AccountSummary, error) {
	return s.listSummaries(func(sum AccountSummary) bool { return sum.CustomerID == customerID }), nil
}

func (s *MemoryStore) ListSummariesByStatus(_ context.Context, status domain.AccountStatus) ([]AccountSummary, error) {
	return s.listSummaries(func(sum AccountSummary) bool { return sum.Status == status }), nil
}

func (s *MemoryStore) listSummaries(match func(AccountSummary) bool) []AccountSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []AccountSummary{}
	for _, sum := range s.summaries {
		if match(sum) {
			out = append(out, sum)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].OpenedAt.Before(out[j].OpenedAt)
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out
}

func (s *MemoryStore) InsertTransaction(_ context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[tx.EventID]; !ok {
		s.transactions[tx.EventID] = *tx
	}
	return nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, accountID string, filter TransactionFilter) ([]Transaction, error) {
	f := filter.normalized()

	s.mu.RLock()
	matched := []Transaction{}
	for _, tx := range s.transactions {
		if tx.AccountID == accountID && (f.Kind == "" || tx.Kind == f.Kind) {
			matched = append(matched, tx)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].EventVersion > matched[j].EventVersion })

	if f.Offset >= len(matched) {
		return []Transaction{}, nil
	}
	end := min(f.Offset+f.Limit, len(matched))
	return matched[f.Offset:end], nil
}

func (s *MemoryStore) DeleteTransactions(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, tx := range s.transactions {
		if tx.AccountID == accountID {
			delete(s.transactions, id)
		}
	}
	return nil
}
