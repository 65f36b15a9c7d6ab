package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"

	"github.com/josh-kwaku/eventledger/internal/storage"
)

type Config struct {
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"eventledger.db"`

	RedisURL         string `env:"REDIS_URL"`
	SummaryCacheTTLS int    `env:"SUMMARY_CACHE_TTL_S" envDefault:"60"`

	AdminJWTSecret string `env:"ADMIN_JWT_SECRET"`

	MaxConflictRetries int `env:"MAX_CONFLICT_RETRIES" envDefault:"3"`
	RebuildConcurrency int `env:"REBUILD_CONCURRENCY" envDefault:"4"`

	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c Config) validate() error {
	dialect, err := storage.ParseDialect(c.StoreDriver)
	if err != nil {
		return err
	}
	if dialect == storage.DialectPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
	}
	if c.AppEnv == "production" && c.AdminJWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is required when APP_ENV=production")
	}
	if c.MaxConflictRetries < 0 {
		return fmt.Errorf("MAX_CONFLICT_RETRIES must not be negative")
	}
	if c.RebuildConcurrency < 1 {
		return fmt.Errorf("REBUILD_CONCURRENCY must be at least 1")
	}
	return nil
}

func (c Config) Dialect() storage.Dialect {
	return storage.Dialect(c.StoreDriver)
}

// DSN is the connection string for the configured driver.
func (c Config) DSN() string {
	if c.Dialect() == storage.DialectSQLite {
		return c.SQLitePath
	}
	return c.DatabaseURL
}

func (c Config) Pool() storage.PoolConfig {
	return storage.PoolConfig{
		MaxOpenConns:     c.DBMaxOpenConns,
		MaxIdleConns:     c.DBMaxIdleConns,
		ConnMaxLifetimeS: c.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: c.DBConnMaxIdleTimeS,
	}
}

func (c Config) SummaryCacheTTL() time.Duration {
	return time.Duration(c.SummaryCacheTTLS) * time.Second
}
