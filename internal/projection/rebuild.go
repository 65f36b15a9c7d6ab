package projection

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/eventstore"
	"github.com/josh-kwaku/eventledger/internal/logging"
)

type EventSource interface {
	GetEvents(ctx context.Context, aggregateID string, r eventstore.Range) ([]domain.Event, error)
	StreamIDs(ctx context.Context) ([]string, error)
}

// ReadModelResetter drops everything projected for one account.
type ReadModelResetter interface {
	DeleteSummary(ctx context.Context, accountID string) error
	DeleteTransactions(ctx context.Context, accountID string) error
}

// Rebuilder regenerates read models from the event store. It is the repair
// path for projections that fell behind after a failed dispatch.
type Rebuilder struct {
	events      EventSource
	models      ReadModelResetter
	dispatcher  *Dispatcher
	concurrency int
}

func NewRebuilder(events EventSource, models ReadModelResetter, dispatcher *Dispatcher, concurrency int) *Rebuilder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Rebuilder{events: events, models: models, dispatcher: dispatcher, concurrency: concurrency}
}

type RebuildReport struct {
	Rebuilt int      `json:"rebuilt"`
	Skipped []string `json:"skipped,omitempty"`
}

// Rebuild clears accountID's read models and replays its stream through the
// dispatcher.
func (r *Rebuilder) Rebuild(ctx context.Context, accountID string) error {
	events, err := r.events.GetEvents(ctx, accountID, eventstore.Range{})
	if err != nil {
		return fmt.Errorf("Rebuild: %s: %w", accountID, err)
	}
	if len(events) == 0 {
		return fmt.Errorf("Rebuild: %s: %w", accountID, domain.ErrAccountNotFound)
	}

	if err := r.models.DeleteTransactions(ctx, accountID); err != nil {
		return fmt.Errorf("Rebuild: %w", err)
	}
	if err := r.models.DeleteSummary(ctx, accountID); err != nil {
		return fmt.Errorf("Rebuild: %w", err)
	}

	for _, e := range events {
		if err := r.dispatcher.Dispatch(ctx, e); err != nil {
			return fmt.Errorf("Rebuild: %s v%d: %w", accountID, e.Version(), err)
		}
	}

	logging.FromContext(ctx).Debug("account projections rebuilt", "account_id", accountID, "events", len(events))
	return nil
}

// RebuildAll rebuilds every stream, at most r.concurrency at a time. Streams
// holding an event kind this build cannot decode are logged and skipped; any
// other failure aborts the run.
func (r *Rebuilder) RebuildAll(ctx context.Context) (RebuildReport, error) {
	log := logging.FromContext(ctx)

	ids, err := r.events.StreamIDs(ctx)
	if err != nil {
		return RebuildReport{}, fmt.Errorf("RebuildAll: %w", err)
	}

	var (
		rebuilt atomic.Int64
		skipped = make([]bool, len(ids))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			err := r.Rebuild(gctx, id)
			switch {
			case err == nil:
				rebuilt.Add(1)
				return nil
			case errors.Is(err, domain.ErrUnknownEventKind):
				log.Warn("skipping stream with unknown event kind", "account_id", id, "error", err)
				skipped[i] = true
				return nil
			default:
				return err
			}
		})
	}
	if err := g.Wait(); err != nil {
		return RebuildReport{}, fmt.Errorf("RebuildAll: %w", err)
	}

	report := RebuildReport{Rebuilt: int(rebuilt.Load())}
	for i, s := range skipped {
		if s {
			report.Skipped = append(report.Skipped, ids[i])
		}
	}

	log.Info("projections rebuilt", "streams", len(ids), "rebuilt", report.Rebuilt, "skipped", len(report.Skipped))
	return report, nil
}
