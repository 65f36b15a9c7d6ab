package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/josh-kwaku/eventledger/internal/storage/migrations"
)

const migrationTable = "schema_migrations"

// ApplyMigrations runs the embedded migrations for dialect in file name order,
// each at most once.
func ApplyMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	return applyMigrations(ctx, db, migrations.FS, string(dialect))
}

func applyMigrations(ctx context.Context, db *sql.DB, migrationFS fs.FS, root string) error {
	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return fmt.Errorf("ApplyMigrations: read dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationTable+` (
		name TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("ApplyMigrations: ensure table: %w", err)
	}

	for _, f := range files {
		name := root + "/" + f

		applied, err := isApplied(ctx, db, name)
		if err != nil {
			return fmt.Errorf("ApplyMigrations: check %s: %w", name, err)
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(migrationFS, path.Join(root, f))
		if err != nil {
			return fmt.Errorf("ApplyMigrations: read %s: %w", name, err)
		}

		if err := applyOne(ctx, db, name, upSection(string(content))); err != nil {
			return fmt.Errorf("ApplyMigrations: %w", err)
		}
	}
	return nil
}

func applyOne(ctx context.Context, db *sql.DB, name, upSQL string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", name, err)
	}
	defer tx.Rollback()

	if strings.TrimSpace(upSQL) != "" {
		if _, err := tx.ExecContext(ctx, upSQL); err != nil {
			return fmt.Errorf("exec %s: %w", name, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO `+migrationTable+` (name, applied_at) VALUES ($1, $2)`,
		name, FormatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("record %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	return nil
}

func upSection(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	start := strings.Index(content, up)
	if start == -1 {
		return content
	}
	body := content[start+len(up):]
	if end := strings.Index(body, down); end != -1 {
		body = body[:end]
	}
	return body
}

func isApplied(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var found int
	err := db.QueryRowContext(ctx,
		`SELECT 1 FROM `+migrationTable+` WHERE name = $1`, name,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
