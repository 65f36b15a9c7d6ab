package eventstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/storage"
)

const eventColumns = `stream_id, version, event_id, event_kind, payload, occurred_at`

// SQLStore keeps streams in the events table of a Postgres or SQLite
// database. The (stream_id, version) primary key backs the version check: of
// two writers racing on the same expected version only one can insert.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) Append(ctx context.Context, aggregateID string, expectedVersion int64, events []domain.Event) (int64, error) {
	if err := validateAppend(aggregateID, expectedVersion); err != nil {
		return 0, fmt.Errorf("Append: %w", err)
	}
	records, err := stampAll(aggregateID, expectedVersion, events)
	if err != nil {
		return 0, fmt.Errorf("Append: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("Append: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("Append: begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := currentVersion(ctx, tx, aggregateID)
	if err != nil {
		return 0, fmt.Errorf("Append: %w", err)
	}
	if current != expectedVersion {
		return 0, fmt.Errorf("Append: stream %s is at version %d, expected %d: %w",
			aggregateID, current, expectedVersion, domain.ErrConcurrencyConflict)
	}

	for _, r := range records {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO events (`+eventColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
			r.StreamID, r.Version, r.EventID, string(r.EventKind), string(r.Payload), storage.FormatTime(r.Timestamp),
		)
		if err != nil {
			if storage.IsUniqueViolation(err) || storage.IsBusy(err) {
				return 0, fmt.Errorf("Append: stream %s version %d: %w", aggregateID, r.Version, domain.ErrConcurrencyConflict)
			}
			return 0, fmt.Errorf("Append: insert version %d: %w", r.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		if storage.IsUniqueViolation(err) || storage.IsBusy(err) {
			return 0, fmt.Errorf("Append: commit: %w", domain.ErrConcurrencyConflict)
		}
		return 0, fmt.Errorf("Append: commit: %w", err)
	}

	return expectedVersion + int64(len(records)), nil
}

func (s *SQLStore) GetEvents(ctx context.Context, aggregateID string, r Range) ([]domain.Event, error) {
	from, to := r.bounds()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		WHERE stream_id = $1 AND version >= $2 AND version <= $3
		ORDER BY version`,
		aggregateID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("GetEvents: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("GetEvents: scan: %w", err)
		}
		e, err := Decode(rec)
		if err != nil {
			return nil, fmt.Errorf("GetEvents: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetEvents: rows: %w", err)
	}
	return events, nil
}

func (s *SQLStore) GetCurrentVersion(ctx context.Context, aggregateID string) (int64, error) {
	v, err := currentVersion(ctx, s.db, aggregateID)
	if err != nil {
		return 0, fmt.Errorf("GetCurrentVersion: %w", err)
	}
	return v, nil
}

func (s *SQLStore) Exists(ctx context.Context, aggregateID string) (bool, error) {
	v, err := currentVersion(ctx, s.db, aggregateID)
	if err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return v > 0, nil
}

func (s *SQLStore) StreamIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT stream_id FROM events ORDER BY stream_id`)
	if err != nil {
		return nil, fmt.Errorf("StreamIDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("StreamIDs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("StreamIDs: rows: %w", err)
	}
	return ids, nil
}

func currentVersion(ctx context.Context, q queryRower, aggregateID string) (int64, error) {
	var v int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM events WHERE stream_id = $1`, aggregateID,
	).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("current version: %w", err)
	}
	return v, nil
}

func scanRecord(s storage.Scanner) (Record, error) {
	var (
		r          Record
		kind       string
		occurredAt string
	)
	if err := s.Scan(&r.StreamID, &r.Version, &r.EventID, &kind, &r.Payload, &occurredAt); err != nil {
		return Record{}, err
	}
	ts, err := storage.ParseTime(occurredAt)
	if err != nil {
		return Record{}, err
	}
	r.EventKind = domain.Kind(kind)
	r.Timestamp = ts
	return r, nil
}
