// Command rebuild regenerates the account read models from the event store.
// With -account it replays a single stream, otherwise every stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/josh-kwaku/eventledger/internal/config"
	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/eventstore"
	"github.com/josh-kwaku/eventledger/internal/logging"
	"github.com/josh-kwaku/eventledger/internal/projection"
	"github.com/josh-kwaku/eventledger/internal/readmodel"
	"github.com/josh-kwaku/eventledger/internal/storage"
)

func main() {
	accountID := flag.String("account", "", "rebuild only this account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("eventledger-rebuild", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.Dialect(), cfg.DSN(), cfg.Pool())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	models := readmodel.NewSQLStore(db)
	var summaries readmodel.SummaryStore = models
	if cfg.RedisURL != "" {
		rdb, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		// Rebuilt rows evict the API's cached copies as they are written.
		summaries = readmodel.NewEvictingSummaries(models, rdb)
	}
	rm := readmodel.Store{SummaryStore: summaries, TransactionStore: models}

	d := projection.NewDispatcher()
	d.Register(projection.NewAccountSummaryProjection(rm), domain.Kinds()...)
	d.Register(projection.NewTransactionHistoryProjection(rm), projection.MovementKinds()...)
	rebuilder := projection.NewRebuilder(eventstore.NewSQLStore(db), rm, d, cfg.RebuildConcurrency)

	if *accountID != "" {
		if err := rebuilder.Rebuild(ctx, *accountID); err != nil {
			slog.Error("rebuild failed", "account_id", *accountID, "error", err)
			os.Exit(1)
		}
		slog.Info("rebuild finished", "account_id", *accountID)
		return
	}

	report, err := rebuilder.RebuildAll(ctx)
	if err != nil {
		slog.Error("rebuild failed", "error", err)
		os.Exit(1)
	}
	slog.Info("rebuild finished", "rebuilt", report.Rebuilt, "skipped", report.Skipped)
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("connectRedis: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connectRedis: %w", err)
	}
	return rdb, nil
}
