package domain

import (
	"fmt"
	"slices"
)

// Root carries the bookkeeping shared by event-sourced aggregates: identity,
// version and the buffer of events not yet appended to the store.
type Root struct {
	id          string
	version     int64
	uncommitted []Event
	clock       Clock
	ids         IDGenerator
}

type Option func(*Root)

func WithClock(c Clock) Option {
	return func(r *Root) { r.clock = c }
}

func WithIDGenerator(g IDGenerator) Option {
	return func(r *Root) { r.ids = g }
}

func newRoot(opts []Option) Root {
	r := Root{clock: SystemClock, ids: RandomIDs{}}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r *Root) ID() string {
	return r.id
}

func (r *Root) Version() int64 {
	return r.version
}

// Uncommitted returns a copy of the pending events in the order they were applied.
func (r *Root) Uncommitted() []Event {
	return slices.Clone(r.uncommitted)
}

func (r *Root) MarkCommitted() {
	r.uncommitted = nil
}

func (r *Root) apply(data EventData, fold Visitor) error {
	e := NewEvent(r.ids.NewEventID(), r.id, r.version+1, r.clock.Now(), data)
	if err := e.Accept(fold); err != nil {
		return fmt.Errorf("apply %s: %w", data.Kind(), err)
	}
	r.uncommitted = append(r.uncommitted, e)
	r.version++
	return nil
}

// loadFromHistory trusts the input order; it neither re-stamps versions nor
// buffers the events.
func (r *Root) loadFromHistory(events []Event, fold Visitor) error {
	for _, e := range events {
		if err := e.Accept(fold); err != nil {
			return fmt.Errorf("loadFromHistory: version %d: %w", e.Version(), err)
		}
		r.version++
	}
	return nil
}
