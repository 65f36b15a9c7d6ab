package readmodel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/testutil"
)

type store interface {
	SummaryStore
	TransactionStore
}

var (
	_ store = (*SQLStore)(nil)
	_ store = (*MemoryStore)(nil)
	_ store = Store{}
)

func eachStore(t *testing.T, fn func(t *testing.T, s store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, NewSQLStore(testutil.SetupSQLiteDB(t))) })
}

func summary(id, customer, balance string, version int64, opened time.Time) *AccountSummary {
	return &AccountSummary{
		AccountID:  id,
		CustomerID: customer,
		Balance:    testutil.USD(balance),
		Status:     domain.AccountStatusActive,
		Version:    version,
		OpenedAt:   opened,
		UpdatedAt:  opened,
	}
}

func TestSummaries_InsertGetUpdate(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()

		require.NoError(t, s.InsertSummary(ctx, summary("ACC1", "CUST1", "1000", 1, testutil.Epoch)))

		got, err := s.GetSummary(ctx, "ACC1")
		require.NoError(t, err)
		assert.Equal(t, "CUST1", got.CustomerID)
		assert.True(t, got.Balance.Equal(testutil.USD("1000")))
		assert.Equal(t, int64(1), got.Version)
		assert.Nil(t, got.LastTransactionAt)
		assert.True(t, got.OpenedAt.Equal(testutil.Epoch))

		last := testutil.Epoch.Add(time.Minute)
		next := summary("ACC1", "CUST1", "1500.25", 2, testutil.Epoch)
		next.TransactionCount = 1
		next.LastTransactionAt = &last
		next.UpdatedAt = last

		changed, err := s.UpdateSummary(ctx, next)
		require.NoError(t, err)
		assert.True(t, changed)

		got, err = s.GetSummary(ctx, "ACC1")
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(testutil.USD("1500.25")), got.Balance.String())
		assert.Equal(t, int64(2), got.Version)
		assert.Equal(t, int64(1), got.TransactionCount)
		require.NotNil(t, got.LastTransactionAt)
		assert.True(t, got.LastTransactionAt.Equal(last))
	})
}

func TestSummaries_VersionGuard(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()

		require.NoError(t, s.InsertSummary(ctx, summary("ACC1", "CUST1", "10", 3, testutil.Epoch)))

		for _, v := range []int64{2, 3} {
			changed, err := s.UpdateSummary(ctx, summary("ACC1", "CUST1", "999", v, testutil.Epoch))
			require.NoError(t, err)
			assert.False(t, changed, "version %d", v)
		}

		require.NoError(t, s.InsertSummary(ctx, summary("ACC1", "CUST2", "0", 1, testutil.Epoch)), "duplicate insert is ignored")

		got, err := s.GetSummary(ctx, "ACC1")
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(testutil.USD("10")))
		assert.Equal(t, "CUST1", got.CustomerID)

		changed, err := s.UpdateSummary(ctx, summary("ACC404", "CUST1", "1", 9, testutil.Epoch))
		require.NoError(t, err)
		assert.False(t, changed)
	})
}

func TestSummaries_NotFoundAndDelete(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()

		_, err := s.GetSummary(ctx, "ACC404")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)

		require.NoError(t, s.InsertSummary(ctx, summary("ACC1", "CUST1", "10", 1, testutil.Epoch)))
		require.NoError(t, s.DeleteSummary(ctx, "ACC1"))

		_, err = s.GetSummary(ctx, "ACC1")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestSummaries_Lists(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()

		require.NoError(t, s.InsertSummary(ctx, summary("ACC2", "CUST1", "1", 1, testutil.Epoch.Add(time.Hour))))
		require.NoError(t, s.InsertSummary(ctx, summary("ACC1", "CUST1", "1", 1, testutil.Epoch)))
		frozen := summary("ACC3", "CUST2", "1", 1, testutil.Epoch)
		frozen.Status = domain.AccountStatusFrozen
		require.NoError(t, s.InsertSummary(ctx, frozen))

		byCustomer, err := s.ListSummariesByCustomer(ctx, "CUST1")
		require.NoError(t, err)
		require.Len(t, byCustomer, 2)
		assert.Equal(t, "ACC1", byCustomer[0].AccountID)
		assert.Equal(t, "ACC2", byCustomer[1].AccountID)

		byStatus, err := s.ListSummariesByStatus(ctx, domain.AccountStatusFrozen)
		require.NoError(t, err)
		require.Len(t, byStatus, 1)
		assert.Equal(t, "ACC3", byStatus[0].AccountID)

		none, err := s.ListSummariesByCustomer(ctx, "CUST404")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}

func transaction(eventID, account string, version int64, kind TransactionKind, amount string) *Transaction {
	return &Transaction{
		EventID:      eventID,
		AccountID:    account,
		EventVersion: version,
		Kind:         kind,
		Amount:       testutil.USD(amount),
		Description:  string(kind),
		OccurredAt:   testutil.Epoch.Add(time.Duration(version) * time.Second),
	}
}

func TestTransactions_InsertIsIdempotent(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()

		tx := transaction("e2", "ACC1", 2, TransactionDeposit, "500")
		require.NoError(t, s.InsertTransaction(ctx, tx))
		require.NoError(t, s.InsertTransaction(ctx, tx))

		txs, err := s.ListTransactions(ctx, "ACC1", TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, TransactionDeposit, txs[0].Kind)
		assert.True(t, txs[0].Amount.Equal(testutil.USD("500")))
		assert.True(t, txs[0].OccurredAt.Equal(tx.OccurredAt))
	})
}

func TestTransactions_ListFilterAndPaging(t *testing.T) {
	eachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()

		rows := []*Transaction{
			transaction("e2", "ACC1", 2, TransactionDeposit, "500"),
			transaction("e3", "ACC1", 3, TransactionWithdrawal, "100"),
			transaction("e4", "ACC1", 4, TransactionDeposit, "50"),
			transaction("e5", "ACC1", 5, TransactionTransferOut, "25"),
			transaction("x2", "ACC2", 2, TransactionTransferIn, "25"),
		}
		rows[3].CounterpartyAccountID = "ACC2"
		for _, r := range rows {
			require.NoError(t, s.InsertTransaction(ctx, r))
		}

		versions := func(txs []Transaction) []int64 {
			out := []int64{}
			for _, tx := range txs {
				out = append(out, tx.EventVersion)
			}
			return out
		}

		tests := []struct {
			name   string
			filter TransactionFilter
			want   []int64
		}{
			{"all newest first", TransactionFilter{}, []int64{5, 4, 3, 2}},
			{"by kind", TransactionFilter{Kind: TransactionDeposit}, []int64{4, 2}},
			{"limit", TransactionFilter{Limit: 2}, []int64{5, 4}},
			{"offset", TransactionFilter{Limit: 2, Offset: 2}, []int64{3, 2}},
			{"offset past end", TransactionFilter{Offset: 10}, []int64{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				txs, err := s.ListTransactions(ctx, "ACC1", tt.filter)
				require.NoError(t, err)
				assert.Equal(t, tt.want, versions(txs))
			})
		}

		out, err := s.ListTransactions(ctx, "ACC1", TransactionFilter{Kind: TransactionTransferOut})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "ACC2", out[0].CounterpartyAccountID)

		require.NoError(t, s.DeleteTransactions(ctx, "ACC1"))
		txs, err := s.ListTransactions(ctx, "ACC1", TransactionFilter{})
		require.NoError(t, err)
		assert.Empty(t, txs)

		other, err := s.ListTransactions(ctx, "ACC2", TransactionFilter{})
		require.NoError(t, err)
		assert.Len(t, other, 1)
	})
}

func TestTransactionFilter_Normalized(t *testing.T) {
	assert.Equal(t, DefaultPageSize, TransactionFilter{}.normalized().Limit)
	assert.Equal(t, MaxPageSize, TransactionFilter{Limit: 10_000}.normalized().Limit)
	assert.Equal(t, 0, TransactionFilter{Offset: -3}.normalized().Offset)
}

func TestTransactionKind_IsValid(t *testing.T) {
	assert.True(t, TransactionTransferReversal.IsValid())
	assert.False(t, TransactionKind("refund").IsValid())
}
