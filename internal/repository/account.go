package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/eventstore"
)

type EventStore interface {
	Append(ctx context.Context, aggregateID string, expectedVersion int64, events []domain.Event) (int64, error)
	GetEvents(ctx context.Context, aggregateID string, r eventstore.Range) ([]domain.Event, error)
}

// AccountRepository rebuilds Account aggregates from their event streams and
// persists the events they produce.
type AccountRepository struct {
	store EventStore
	opts  []domain.Option
}

// NewAccountRepository returns a repository over store. opts are passed to
// every hydrated aggregate so commands issued on it use the same clock and
// id generator.
func NewAccountRepository(store EventStore, opts ...domain.Option) *AccountRepository {
	return &AccountRepository{store: store, opts: opts}
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	events, err := r.store.GetEvents(ctx, id, eventstore.Range{})
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	a, err := r.hydrate(events)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %s: %w", id, err)
	}
	return a, nil
}

// Save appends the account's uncommitted events and returns them as stored.
// It is a no-op when there is nothing to save. The buffer is cleared only
// after the append succeeds, so a conflicted account keeps its events.
func (r *AccountRepository) Save(ctx context.Context, a *domain.Account) ([]domain.Event, error) {
	pending := a.Uncommitted()
	if len(pending) == 0 {
		return nil, nil
	}

	expected := a.Version() - int64(len(pending))
	if _, err := r.store.Append(ctx, a.ID(), expected, pending); err != nil {
		return nil, fmt.Errorf("Save: %s: %w", a.ID(), err)
	}
	a.MarkCommitted()

	committed := make([]domain.Event, len(pending))
	for i, e := range pending {
		committed[i] = e.Stamp(a.ID(), expected+int64(i)+1)
	}
	return committed, nil
}

// GetEventsUpTo returns the events of id's stream with a timestamp at or
// before t.
func (r *AccountRepository) GetEventsUpTo(ctx context.Context, id string, t time.Time) ([]domain.Event, error) {
	events, err := r.store.GetEvents(ctx, id, eventstore.Range{})
	if err != nil {
		return nil, fmt.Errorf("GetEventsUpTo: %w", err)
	}
	upTo := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if !e.Timestamp().After(t) {
			upTo = append(upTo, e)
		}
	}
	return upTo, nil
}

// GetAsOf returns the account as it was at t. It is read-only: the result
// must not be saved.
func (r *AccountRepository) GetAsOf(ctx context.Context, id string, t time.Time) (*domain.Account, error) {
	events, err := r.GetEventsUpTo(ctx, id, t)
	if err != nil {
		return nil, fmt.Errorf("GetAsOf: %w", err)
	}
	a, err := r.hydrate(events)
	if err != nil {
		return nil, fmt.Errorf("GetAsOf: %s at %s: %w", id, t.Format(time.RFC3339), err)
	}
	return a, nil
}

func (r *AccountRepository) hydrate(events []domain.Event) (*domain.Account, error) {
	if len(events) == 0 {
		return nil, domain.ErrAccountNotFound
	}
	a := domain.NewAccount(r.opts...)
	if err := a.LoadFromHistory(events); err != nil {
		return nil, err
	}
	return a, nil
}
