package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/josh-kwaku/eventledger/internal/config"
	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/eventstore"
	"github.com/josh-kwaku/eventledger/internal/handler"
	"github.com/josh-kwaku/eventledger/internal/logging"
	"github.com/josh-kwaku/eventledger/internal/middleware"
	"github.com/josh-kwaku/eventledger/internal/projection"
	"github.com/josh-kwaku/eventledger/internal/readmodel"
	"github.com/josh-kwaku/eventledger/internal/repository"
	"github.com/josh-kwaku/eventledger/internal/service"
	"github.com/josh-kwaku/eventledger/internal/storage"
)

type redisPinger struct{ *redis.Client }

func (p redisPinger) PingContext(ctx context.Context) error { return p.Ping(ctx).Err() }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("eventledger-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	checks := map[string]handler.Pinger{"database": db}

	// Projections read and write the tables; only queries go through the
	// summary cache.
	models := readmodel.NewSQLStore(db)
	var (
		projected readmodel.SummaryStore = models
		summaries readmodel.SummaryStore = models
	)
	if cfg.RedisURL != "" {
		rdb, err := connectRedis(cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		projected = readmodel.NewEvictingSummaries(models, rdb)
		summaries = readmodel.NewCachedSummaries(models, rdb, cfg.SummaryCacheTTL())
		checks["redis"] = redisPinger{rdb}
	}
	projectionModels := readmodel.Store{SummaryStore: projected, TransactionStore: models}
	queryModels := readmodel.Store{SummaryStore: summaries, TransactionStore: models}

	events := eventstore.NewSQLStore(db)
	dispatcher := newDispatcher(projectionModels)
	accountsRepo := repository.NewAccountRepository(events)

	accounts := service.NewAccountService(accountsRepo, dispatcher, cfg.MaxConflictRetries)
	queries := service.NewQueryService(queryModels, queryModels, accountsRepo, events)
	rebuilder := projection.NewRebuilder(events, projectionModels, dispatcher, cfg.RebuildConcurrency)

	handlers := handler.Handlers{
		Accounts: handler.NewAccountHandler(accounts),
		Queries:  handler.NewQueryHandler(queries),
		Admin:    handler.NewAdminHandler(rebuilder),
		Health:   handler.NewHealthHandler(checks),
	}
	if cfg.AdminJWTSecret != "" {
		handlers.AdminAuth = middleware.RequireAdmin(cfg.AdminJWTSecret)
	} else {
		slog.Warn("ADMIN_JWT_SECRET not set, admin endpoints are unauthenticated")
	}

	mux := http.NewServeMux()
	handlers.Register(mux)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Chain(mux, middleware.Tracing, middleware.Logging, middleware.Recovery),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "store", cfg.StoreDriver, "cache", cfg.RedisURL != "")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func newDispatcher(models readmodel.Store) *projection.Dispatcher {
	d := projection.NewDispatcher()
	d.Register(projection.NewAccountSummaryProjection(models), domain.Kinds()...)
	d.Register(projection.NewTransactionHistoryProjection(models), projection.MovementKinds()...)
	return d
}

// connectDB retries while the database container is still starting.
func connectDB(cfg *config.Config) (*sql.DB, error) {
	var err error
	for i := range 30 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var db *sql.DB
		db, err = storage.Open(ctx, cfg.Dialect(), cfg.DSN(), cfg.Pool())
		cancel()
		if err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1, "error", err)
		time.Sleep(time.Second)
	}
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}

func connectRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("connectRedis: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connectRedis: %w", err)
	}
	return rdb, nil
}
