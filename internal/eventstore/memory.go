package eventstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/josh-kwaku/eventledger/internal/domain"
)

// MemoryStore keeps encoded records in process memory. The mutex makes the
// version check and the write one step.
type MemoryStore struct {
	mu      sync.RWMutex
	streams map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{streams: make(map[string][]Record)}
}

func (s *MemoryStore) Append(ctx context.Context, aggregateID string, expectedVersion int64, events []domain.Event) (int64, error) {
	if err := validateAppend(aggregateID, expectedVersion); err != nil {
		return 0, fmt.Errorf("Append: %w", err)
	}
	records, err := stampAll(aggregateID, expectedVersion, events)
	if err != nil {
		return 0, fmt.Errorf("Append: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("Append: %w", err)
	}

	current := int64(len(s.streams[aggregateID]))
	if current != expectedVersion {
		return 0, fmt.Errorf("Append: stream %s is at version %d, expected %d: %w",
			aggregateID, current, expectedVersion, domain.ErrConcurrencyConflict)
	}

	s.streams[aggregateID] = append(s.streams[aggregateID], records...)
	return expectedVersion + int64(len(records)), nil
}

func (s *MemoryStore) GetEvents(ctx context.Context, aggregateID string, r Range) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("GetEvents: %w", err)
	}
	from, to := r.bounds()

	s.mu.RLock()
	defer s.mu.RUnlock()

	events := []domain.Event{}
	for _, rec := range s.streams[aggregateID] {
		if rec.Version < from || rec.Version > to {
			continue
		}
		e, err := Decode(rec)
		if err != nil {
			return nil, fmt.Errorf("GetEvents: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *MemoryStore) GetCurrentVersion(ctx context.Context, aggregateID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("GetCurrentVersion: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.streams[aggregateID])), nil
}

func (s *MemoryStore) Exists(ctx context.Context, aggregateID string) (bool, error) {
	v, err := s.GetCurrentVersion(ctx, aggregateID)
	if err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return v > 0, nil
}

func (s *MemoryStore) StreamIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("StreamIDs: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.streams))
	for id := range s.streams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
