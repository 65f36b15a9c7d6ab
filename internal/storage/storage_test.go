package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMigrations_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLiteDB(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, ApplyMigrations(ctx, db, DialectSQLite))
	require.NoError(t, ApplyMigrations(ctx, db, DialectSQLite), "second run must be a no-op")

	var applied int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 2, applied)

	for _, table := range []string{"events", "account_summaries", "account_transactions"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, DialectSQLite, ":memory:", PoolConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	insert := `INSERT INTO events (stream_id, version, event_id, event_kind, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = db.Exec(insert, "ACC1", 1, "e1", "AccountFrozen", "{}", FormatTime(time.Now()))
	require.NoError(t, err)

	_, err = db.Exec(insert, "ACC1", 1, "e2", "AccountFrozen", "{}", FormatTime(time.Now()))
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", err)))

	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestIsBusy(t *testing.T) {
	assert.True(t, IsBusy(&pq.Error{Code: "40001"}))
	assert.False(t, IsBusy(&pq.Error{Code: "23505"}))
	assert.False(t, IsBusy(errors.New("boom")))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("sqlite")
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, d)

	_, err = ParseDialect("mysql")
	assert.Error(t, err)
}

func TestTimeRoundTrip(t *testing.T) {
	in := time.Date(2026, 3, 4, 5, 6, 7, 123456000, time.FixedZone("X", 3600))

	out, err := ParseTime(FormatTime(in))
	require.NoError(t, err)
	assert.True(t, in.Equal(out))
	assert.Equal(t, time.UTC, out.Location())

	whole := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "2026-03-04T05:06:07.000000Z", FormatTime(whole))
	assert.Less(t, FormatTime(whole), FormatTime(whole.Add(500*time.Millisecond)))
}

func TestUpSection(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id INT);\n", upSection(content))
	assert.Equal(t, "SELECT 1;", upSection("SELECT 1;"))
}
