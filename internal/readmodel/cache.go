package readmodel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/logging"
)

type SummaryStore interface {
	GetSummary(ctx context.Context, accountID string) (*AccountSummary, error)
	InsertSummary(ctx context.Context, sum *AccountSummary) error
	UpdateSummary(ctx context.Context, sum *AccountSummary) (bool, error)
	DeleteSummary(ctx context.Context, accountID string) error
	ListSummariesByCustomer(ctx context.Context, customerID string) ([]AccountSummary, error)
	ListSummariesByStatus(ctx context.Context, status domain.AccountStatus) ([]AccountSummary, error)
}

const summaryKeyPrefix = "eventledger:summary:"

// EvictingSummaries forwards every call to the store and evicts the cached
// row after each write. It never reads Redis, so projections built on it
// always start from the stored row.
type EvictingSummaries struct {
	SummaryStore
	rdb *redis.Client
}

func NewEvictingSummaries(store SummaryStore, rdb *redis.Client) *EvictingSummaries {
	return &EvictingSummaries{SummaryStore: store, rdb: rdb}
}

func (c *EvictingSummaries) InsertSummary(ctx context.Context, sum *AccountSummary) error {
	if err := c.SummaryStore.InsertSummary(ctx, sum); err != nil {
		return err
	}
	c.evict(ctx, sum.AccountID)
	return nil
}

func (c *EvictingSummaries) UpdateSummary(ctx context.Context, sum *AccountSummary) (bool, error) {
	changed, err := c.SummaryStore.UpdateSummary(ctx, sum)
	if err != nil {
		return false, err
	}
	if changed {
		c.evict(ctx, sum.AccountID)
	}
	return changed, nil
}

func (c *EvictingSummaries) DeleteSummary(ctx context.Context, accountID string) error {
	if err := c.SummaryStore.DeleteSummary(ctx, accountID); err != nil {
		return err
	}
	c.evict(ctx, accountID)
	return nil
}

func (c *EvictingSummaries) evict(ctx context.Context, accountID string) {
	if err := c.rdb.Del(ctx, summaryKey(accountID)).Err(); err != nil {
		logging.FromContext(ctx).Warn("summary cache evict failed", "account_id", accountID, "error", err)
	}
}

// CachedSummaries puts a Redis cache-aside layer in front of a SummaryStore
// for the query side. Writes go to the store first and then evict the key.
// Redis failures are logged and never fail the call: the store stays the
// source of truth. Projections must not read through it; a cached row can
// be older than the stored one.
type CachedSummaries struct {
	*EvictingSummaries
	ttl time.Duration
}

func NewCachedSummaries(store SummaryStore, rdb *redis.Client, ttl time.Duration) *CachedSummaries {
	return &CachedSummaries{EvictingSummaries: NewEvictingSummaries(store, rdb), ttl: ttl}
}

func summaryKey(accountID string) string {
	return summaryKeyPrefix + accountID
}

func (c *CachedSummaries) GetSummary(ctx context.Context, accountID string) (*AccountSummary, error) {
	log := logging.FromContext(ctx)
	key := summaryKey(accountID)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var sum AccountSummary
		if jerr := json.Unmarshal(data, &sum); jerr == nil {
			return &sum, nil
		}
		log.Warn("discarding undecodable cached summary", "account_id", accountID)
	case !errors.Is(err, redis.Nil):
		log.Warn("summary cache read failed", "account_id", accountID, "error", err)
	}

	sum, err := c.SummaryStore.GetSummary(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("GetSummary: %w", err)
	}

	payload, err := json.Marshal(sum)
	if err != nil {
		return nil, fmt.Errorf("GetSummary: marshal: %w", err)
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.Warn("summary cache write failed", "account_id", accountID, "error", err)
	}
	return sum, nil
}
