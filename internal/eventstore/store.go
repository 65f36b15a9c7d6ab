// Package eventstore persists per-aggregate event streams with optimistic
// concurrency control.
//
// Every implementation follows the same contract: Append is all-or-nothing
// per call and rejects a batch with domain.ErrConcurrencyConflict when the
// stream is not at the expected version; reads return events in ascending
// version order and an empty slice for unknown streams.
package eventstore

import (
	"fmt"
	"math"
	"strings"
)

// Range bounds a read by version, inclusive. Zero means unbounded.
type Range struct {
	From int64
	To   int64
}

func (r Range) bounds() (int64, int64) {
	from, to := r.From, r.To
	if from < 1 {
		from = 1
	}
	if to <= 0 {
		to = math.MaxInt64
	}
	return from, to
}

func validateAppend(aggregateID string, expectedVersion int64) error {
	if strings.TrimSpace(aggregateID) == "" {
		return fmt.Errorf("aggregate id is required")
	}
	if expectedVersion < 0 {
		return fmt.Errorf("expected version must not be negative, got %d", expectedVersion)
	}
	return nil
}
