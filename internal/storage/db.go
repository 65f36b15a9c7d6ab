package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type PoolConfig struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetimeS int
	ConnMaxIdleTimeS int
}

func NewPostgresDB(ctx context.Context, databaseURL string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open(DialectPostgres.DriverName(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresDB: open: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeS) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("NewPostgresDB: ping: %w", err)
	}

	return db, nil
}

// NewSQLiteDB opens a SQLite database at path (":memory:" for a private
// in-memory database). SQLite allows one writer, so the pool is limited to a
// single connection that is never recycled.
func NewSQLiteDB(ctx context.Context, path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("NewSQLiteDB: path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open(DialectSQLite.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteDB: open: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("NewSQLiteDB: ping: %w", err)
	}

	return db, nil
}

// Open connects to the database for dialect and applies pending migrations.
func Open(ctx context.Context, dialect Dialect, dsn string, pool PoolConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case DialectPostgres:
		db, err = NewPostgresDB(ctx, dsn, pool)
	case DialectSQLite:
		db, err = NewSQLiteDB(ctx, dsn)
	default:
		return nil, fmt.Errorf("Open: unsupported dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}

	if err := ApplyMigrations(ctx, db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: %w", err)
	}
	return db, nil
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// timeLayout is RFC 3339 with a fixed microsecond fraction, so stored text
// sorts in time order.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTime renders t the way every table stores timestamps.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime reads a timestamp column scanned into a string. Postgres
// TIMESTAMPTZ values arrive through database/sql already in RFC 3339 form.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseTime: %w", err)
	}
	return t.UTC(), nil
}
