// Package projection keeps read models in step with the event stream.
package projection

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/logging"
)

type Handler interface {
	Name() string
	Handle(ctx context.Context, e domain.Event) error
}

// Dispatcher routes committed events to the handlers registered for their
// kind. Registration happens once at wiring time; Dispatch is safe for
// concurrent use afterwards.
type Dispatcher struct {
	handlers map[domain.Kind][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[domain.Kind][]Handler)}
}

// Register subscribes h to kinds. A handler registered for a kind twice runs
// twice.
func (d *Dispatcher) Register(h Handler, kinds ...domain.Kind) {
	for _, k := range kinds {
		d.handlers[k] = append(d.handlers[k], h)
	}
}

// Handlers returns the handlers subscribed to kind in registration order.
func (d *Dispatcher) Handlers(kind domain.Kind) []Handler {
	return d.handlers[kind]
}

// Dispatch runs every handler for e's kind in registration order. A failing
// handler does not stop the ones after it; the first error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, e domain.Event) error {
	log := logging.FromContext(ctx)

	handlers := d.handlers[e.Kind()]
	if len(handlers) == 0 {
		log.Debug("no projection handler for event", "event_kind", e.Kind(), "account_id", e.AggregateID())
		return nil
	}

	var first error
	for _, h := range handlers {
		if err := h.Handle(ctx, e); err != nil {
			log.Error("projection failed",
				"projection", h.Name(),
				"event_kind", e.Kind(),
				"account_id", e.AggregateID(),
				"version", e.Version(),
				"error", err,
			)
			if first == nil {
				first = fmt.Errorf("Dispatch: %s: %w", h.Name(), err)
			}
		}
	}
	return first
}

// DispatchAll dispatches events in order and returns the first error.
func (d *Dispatcher) DispatchAll(ctx context.Context, events []domain.Event) error {
	var first error
	for _, e := range events {
		if err := d.Dispatch(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
