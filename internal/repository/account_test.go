package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/eventstore"
	"github.com/josh-kwaku/eventledger/internal/testutil"
)

func newRepo(t *testing.T) (*AccountRepository, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock()
	store := eventstore.NewSQLStore(testutil.SetupSQLiteDB(t))
	return NewAccountRepository(store, domain.WithClock(clock), domain.WithIDGenerator(&testutil.SeqIDs{})), clock
}

func TestAccountRepository_SaveAndGetByID(t *testing.T) {
	ctx := context.Background()
	repo, clock := newRepo(t)

	a := testutil.OpenAccount(t, "CUST1", "1000", domain.WithClock(clock), domain.WithIDGenerator(&testutil.SeqIDs{}))
	require.NoError(t, a.Deposit(testutil.USD("500"), "Salary"))
	require.NoError(t, a.Withdraw(testutil.USD("200"), ""))

	committed, err := repo.Save(ctx, a)
	require.NoError(t, err)
	require.Len(t, committed, 3)
	assert.Empty(t, a.Uncommitted())
	assert.Equal(t, int64(3), a.Version())
	for i, e := range committed {
		assert.Equal(t, a.ID(), e.AggregateID())
		assert.Equal(t, int64(i+1), e.Version())
	}

	loaded, err := repo.GetByID(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, a.ID(), loaded.ID())
	assert.Equal(t, "CUST1", loaded.CustomerID())
	assert.True(t, loaded.Balance().Equal(testutil.USD("1300")))
	assert.Equal(t, domain.AccountStatusActive, loaded.Status())
	assert.Equal(t, int64(3), loaded.Version())
	assert.Empty(t, loaded.Uncommitted())
	assert.True(t, loaded.CreatedAt().Equal(a.CreatedAt()))
	assert.True(t, loaded.LastTransactionAt().Equal(a.LastTransactionAt()))
}

func TestAccountRepository_SaveAfterReload(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	a := testutil.OpenAccount(t, "CUST1", "100")
	_, err := repo.Save(ctx, a)
	require.NoError(t, err)

	loaded, err := repo.GetByID(ctx, a.ID())
	require.NoError(t, err)
	require.NoError(t, loaded.Freeze("review"))

	committed, err := repo.Save(ctx, loaded)
	require.NoError(t, err)
	require.Len(t, committed, 1)
	assert.Equal(t, int64(2), committed[0].Version())

	again, err := repo.GetByID(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusFrozen, again.Status())
}

func TestAccountRepository_SaveNothingIsNoop(t *testing.T) {
	repo, _ := newRepo(t)

	committed, err := repo.Save(context.Background(), domain.NewAccount())
	require.NoError(t, err)
	assert.Empty(t, committed)
}

func TestAccountRepository_GetByID_NotFound(t *testing.T) {
	repo, _ := newRepo(t)

	_, err := repo.GetByID(context.Background(), "ACC404")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountRepository_StaleSaveConflicts(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	a := testutil.OpenAccount(t, "CUST1", "100")
	_, err := repo.Save(ctx, a)
	require.NoError(t, err)

	first, err := repo.GetByID(ctx, a.ID())
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, a.ID())
	require.NoError(t, err)

	require.NoError(t, first.Deposit(testutil.USD("10"), ""))
	require.NoError(t, second.Withdraw(testutil.USD("10"), ""))

	_, err = repo.Save(ctx, first)
	require.NoError(t, err)

	_, err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.Len(t, second.Uncommitted(), 1, "a failed save keeps the pending events")

	loaded, err := repo.GetByID(ctx, a.ID())
	require.NoError(t, err)
	assert.True(t, loaded.Balance().Equal(testutil.USD("110")))
}

func TestAccountRepository_PointInTime(t *testing.T) {
	ctx := context.Background()
	repo, clock := newRepo(t)

	// Opened at Epoch, then one event per second.
	a := testutil.OpenAccount(t, "CUST1", "1000", domain.WithClock(clock))
	require.NoError(t, a.Deposit(testutil.USD("500"), ""))
	require.NoError(t, a.Withdraw(testutil.USD("300"), ""))
	require.NoError(t, a.Freeze(""))
	_, err := repo.Save(ctx, a)
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		events  int
		balance string
		status  domain.AccountStatus
	}{
		{"at opening", testutil.Epoch, 1, "1000", domain.AccountStatusActive},
		{"between events", testutil.Epoch.Add(1500 * time.Millisecond), 2, "1500", domain.AccountStatusActive},
		{"exactly on withdrawal", testutil.Epoch.Add(2 * time.Second), 3, "1200", domain.AccountStatusActive},
		{"after everything", testutil.Epoch.Add(time.Hour), 4, "1200", domain.AccountStatusFrozen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := repo.GetEventsUpTo(ctx, a.ID(), tt.at)
			require.NoError(t, err)
			assert.Len(t, events, tt.events)

			past, err := repo.GetAsOf(ctx, a.ID(), tt.at)
			require.NoError(t, err)
			assert.True(t, past.Balance().Equal(testutil.USD(tt.balance)), past.Balance().String())
			assert.Equal(t, tt.status, past.Status())
			assert.Equal(t, int64(tt.events), past.Version())
		})
	}

	_, err = repo.GetAsOf(ctx, a.ID(), testutil.Epoch.Add(-time.Second))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

type failingStore struct {
	err error
}

func (s failingStore) Append(context.Context, string, int64, []domain.Event) (int64, error) {
	return 0, s.err
}

func (s failingStore) GetEvents(context.Context, string, eventstore.Range) ([]domain.Event, error) {
	return nil, s.err
}

func TestAccountRepository_StoreErrors(t *testing.T) {
	boom := errors.New("boom")
	repo := NewAccountRepository(failingStore{err: boom})

	_, err := repo.GetByID(context.Background(), "ACC1")
	assert.ErrorIs(t, err, boom)

	a := testutil.OpenAccount(t, "CUST1", "1")
	_, err = repo.Save(context.Background(), a)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.Uncommitted(), 1)
}
