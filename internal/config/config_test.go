package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/eventledger/internal/storage"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("ADMIN_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, storage.DialectSQLite, cfg.Dialect())
	assert.Equal(t, "eventledger.db", cfg.DSN())
	assert.Equal(t, 3, cfg.MaxConflictRetries)
	assert.Equal(t, 4, cfg.RebuildConcurrency)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, time.Minute, cfg.SummaryCacheTTL())
	assert.Equal(t, 25, cfg.Pool().MaxOpenConns)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_Postgres(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://ledger@localhost/ledger")
	t.Setenv("MAX_CONFLICT_RETRIES", "7")
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://ledger@localhost/ledger", cfg.DSN())
	assert.Equal(t, 7, cfg.MaxConflictRetries)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORE_DRIVER": "mysql"}},
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres", "DATABASE_URL": ""}},
		{"negative retries", map[string]string{"STORE_DRIVER": "sqlite", "MAX_CONFLICT_RETRIES": "-1"}},
		{"zero rebuild concurrency", map[string]string{"STORE_DRIVER": "sqlite", "REBUILD_CONCURRENCY": "0"}},
		{"bad integer", map[string]string{"STORE_DRIVER": "sqlite", "PORT": "eighty"}},
		{"production without admin secret", map[string]string{"STORE_DRIVER": "sqlite", "APP_ENV": "production", "ADMIN_JWT_SECRET": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ADMIN_JWT_SECRET", "s3cret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
