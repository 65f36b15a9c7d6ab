package projection

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/readmodel"
	"github.com/josh-kwaku/eventledger/internal/testutil"
)

type recordingHandler struct {
	name string
	err  error
	seen *[]string
}

func (h recordingHandler) Name() string { return h.name }

func (h recordingHandler) Handle(_ context.Context, e domain.Event) error {
	*h.seen = append(*h.seen, h.name+":"+string(e.Kind()))
	return h.err
}

func newDispatcher(store *readmodel.MemoryStore) *Dispatcher {
	d := NewDispatcher()
	d.Register(NewAccountSummaryProjection(store), domain.Kinds()...)
	d.Register(NewTransactionHistoryProjection(store), MovementKinds()...)
	return d
}

func opts(clock *testutil.FakeClock, ids *testutil.SeqIDs) []domain.Option {
	return []domain.Option{domain.WithClock(clock), domain.WithIDGenerator(ids)}
}

func TestDispatcher_RunsHandlersInOrder(t *testing.T) {
	var seen []string
	boom := errors.New("boom")

	d := NewDispatcher()
	d.Register(recordingHandler{name: "a", err: boom, seen: &seen}, domain.KindMoneyDeposited)
	d.Register(recordingHandler{name: "b", seen: &seen}, domain.KindMoneyDeposited, domain.KindAccountFrozen)

	a := testutil.OpenAccount(t, "CUST1", "10")
	require.NoError(t, a.Deposit(testutil.USD("1"), ""))
	deposit := a.Uncommitted()[1]

	err := d.Dispatch(context.Background(), deposit)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a:MoneyDeposited", "b:MoneyDeposited"}, seen, "a failing handler does not stop the rest")
	assert.Len(t, d.Handlers(domain.KindAccountFrozen), 1)
}

func TestDispatcher_UnhandledKindIsIgnored(t *testing.T) {
	var seen []string
	d := NewDispatcher()
	d.Register(recordingHandler{name: "a", seen: &seen}, domain.KindMoneyDeposited)

	a := testutil.OpenAccount(t, "CUST1", "10")
	require.NoError(t, d.Dispatch(context.Background(), a.Uncommitted()[0]))
	assert.Empty(t, seen)
}

func TestAccountSummaryProjection_TracksAggregate(t *testing.T) {
	ctx := context.Background()
	store := readmodel.NewMemoryStore()
	d := newDispatcher(store)
	clock := testutil.NewFakeClock()

	a := testutil.OpenAccount(t, "CUST1", "1000", opts(clock, &testutil.SeqIDs{})...)
	require.NoError(t, a.Deposit(testutil.USD("500"), "Salary"))
	require.NoError(t, a.Withdraw(testutil.USD("200"), ""))
	require.NoError(t, a.Transfer(testutil.USD("100"), "ACC99999999", "Rent"))
	require.NoError(t, a.ChargeOverdraftFee(testutil.USD("35")))
	require.NoError(t, a.AccrueInterest(testutil.USD("0.50")))
	require.NoError(t, a.Freeze("review"))

	require.NoError(t, d.DispatchAll(ctx, a.Uncommitted()))

	sum, err := store.GetSummary(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, "CUST1", sum.CustomerID)
	assert.True(t, sum.Balance.Equal(a.Balance()), "row %s, aggregate %s", sum.Balance, a.Balance())
	assert.Equal(t, a.Status(), sum.Status)
	assert.Equal(t, a.Version(), sum.Version)
	assert.Equal(t, int64(5), sum.TransactionCount)
	require.NotNil(t, sum.LastTransactionAt)
	assert.True(t, sum.LastTransactionAt.Equal(a.LastTransactionAt()))
	assert.True(t, sum.OpenedAt.Equal(a.CreatedAt()))
}

func TestAccountSummaryProjection_RedeliveryIsSkipped(t *testing.T) {
	ctx := context.Background()
	store := readmodel.NewMemoryStore()
	d := newDispatcher(store)

	a := testutil.OpenAccount(t, "CUST1", "100")
	require.NoError(t, a.Deposit(testutil.USD("50"), ""))
	events := a.Uncommitted()

	require.NoError(t, d.DispatchAll(ctx, events))
	require.NoError(t, d.DispatchAll(ctx, events))

	sum, err := store.GetSummary(ctx, a.ID())
	require.NoError(t, err)
	assert.True(t, sum.Balance.Equal(testutil.USD("150")))
	assert.Equal(t, int64(1), sum.TransactionCount)

	txs, err := store.ListTransactions(ctx, a.ID(), readmodel.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestAccountSummaryProjection_MissingRow(t *testing.T) {
	store := readmodel.NewMemoryStore()
	p := NewAccountSummaryProjection(store)

	a := testutil.OpenAccount(t, "CUST1", "100")
	require.NoError(t, a.Deposit(testutil.USD("50"), ""))

	err := p.Handle(context.Background(), a.Uncommitted()[1])
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestTransactionHistoryProjection_TransferHasTwoSides(t *testing.T) {
	ctx := context.Background()
	store := readmodel.NewMemoryStore()
	d := newDispatcher(store)
	ids := &testutil.SeqIDs{}

	src := testutil.OpenAccount(t, "CUST1", "1000", domain.WithIDGenerator(ids))
	dst := testutil.OpenAccount(t, "CUST2", "0", domain.WithIDGenerator(ids))
	require.NoError(t, src.Transfer(testutil.USD("400"), dst.ID(), "Rent"))
	require.NoError(t, dst.ReceiveTransfer(testutil.USD("400"), src.ID(), "Rent"))

	require.NoError(t, d.DispatchAll(ctx, src.Uncommitted()))
	require.NoError(t, d.DispatchAll(ctx, dst.Uncommitted()))

	out, err := store.ListTransactions(ctx, src.ID(), readmodel.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, readmodel.TransactionTransferOut, out[0].Kind)
	assert.Equal(t, dst.ID(), out[0].CounterpartyAccountID)
	assert.Equal(t, "Rent", out[0].Description)

	in, err := store.ListTransactions(ctx, dst.ID(), readmodel.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, readmodel.TransactionTransferIn, in[0].Kind)
	assert.Equal(t, src.ID(), in[0].CounterpartyAccountID)

	srcSum, err := store.GetSummary(ctx, src.ID())
	require.NoError(t, err)
	assert.True(t, srcSum.Balance.Equal(testutil.USD("600")))
	dstSum, err := store.GetSummary(ctx, dst.ID())
	require.NoError(t, err)
	assert.True(t, dstSum.Balance.Equal(testutil.USD("400")))
}

func TestTransactionHistoryProjection_Kinds(t *testing.T) {
	ctx := context.Background()
	store := readmodel.NewMemoryStore()
	d := newDispatcher(store)

	a := testutil.OpenAccount(t, "CUST1", "100")
	require.NoError(t, a.Deposit(testutil.USD("10"), ""))
	require.NoError(t, a.Withdraw(testutil.USD("5"), "ATM"))
	require.NoError(t, a.Transfer(testutil.USD("20"), "ACC00000042", ""))
	require.NoError(t, a.ReverseTransfer(testutil.USD("20"), "ACC00000042", ""))
	require.NoError(t, a.ChargeOverdraftFee(testutil.USD("1")))
	require.NoError(t, a.AccrueInterest(testutil.USD("2")))
	require.NoError(t, a.Freeze(""))
	require.NoError(t, a.Unfreeze())
	require.NoError(t, a.Close(""))
	require.NoError(t, d.DispatchAll(ctx, a.Uncommitted()))

	txs, err := store.ListTransactions(ctx, a.ID(), readmodel.TransactionFilter{})
	require.NoError(t, err)

	var kinds []readmodel.TransactionKind
	for _, tx := range txs {
		kinds = append(kinds, tx.Kind)
	}
	assert.Equal(t, []readmodel.TransactionKind{
		readmodel.TransactionInterest,
		readmodel.TransactionFee,
		readmodel.TransactionTransferReversal,
		readmodel.TransactionTransferOut,
		readmodel.TransactionWithdrawal,
		readmodel.TransactionDeposit,
	}, kinds)
	assert.Equal(t, "Interest", txs[0].Description)
	assert.Equal(t, "Overdraft fee", txs[1].Description)
	assert.Equal(t, "ATM", txs[4].Description)
	assert.Equal(t, "Deposit", txs[5].Description)

	sum, err := store.GetSummary(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusClosed, sum.Status)
	assert.True(t, sum.Balance.Equal(testutil.USD("106")), sum.Balance.String())
	assert.Equal(t, a.Version(), sum.Version)
}

func TestHistoryRows_ForeignTransfer(t *testing.T) {
	e := domain.NewEvent("e1", "ACC3", 2, time.Now(), domain.MoneyTransferred{
		Amount:        testutil.USD("1"),
		FromAccountID: "ACC1",
		ToAccountID:   "ACC2",
	})
	err := NewTransactionHistoryProjection(readmodel.NewMemoryStore()).Handle(context.Background(), e)
	assert.Error(t, err)
}

func TestAccountSummaryProjection_IgnoresStaleCache(t *testing.T) {
	ctx := context.Background()
	rdb, mock := redismock.NewClientMock()
	store := readmodel.NewMemoryStore()
	d := newDispatcher(store)

	a := testutil.OpenAccount(t, "CUST1", "1000")
	require.NoError(t, a.Deposit(testutil.USD("200"), ""))
	require.NoError(t, a.Deposit(testutil.USD("100"), ""))
	require.NoError(t, a.Deposit(testutil.USD("50"), ""))
	events := a.Uncommitted()
	key := "eventledger:summary:" + a.ID()

	require.NoError(t, d.DispatchAll(ctx, events[:2]))
	stale, err := store.GetSummary(ctx, a.ID())
	require.NoError(t, err)
	payload, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, d.Dispatch(ctx, events[2]))

	// The query side still serves the v2 row from Redis.
	mock.ExpectGet(key).SetVal(string(payload))
	cached, err := readmodel.NewCachedSummaries(store, rdb, time.Minute).GetSummary(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(2), cached.Version)

	p := NewAccountSummaryProjection(readmodel.NewEvictingSummaries(store, rdb))
	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, p.Handle(ctx, events[3]))
	assert.NoError(t, mock.ExpectationsWereMet())

	sum, err := store.GetSummary(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(4), sum.Version)
	assert.True(t, sum.Balance.Equal(testutil.USD("1350")), sum.Balance.String())
}

func TestAccountSummaryProjection_RefusesVersionGap(t *testing.T) {
	ctx := context.Background()
	store := readmodel.NewMemoryStore()
	d := newDispatcher(store)

	a := testutil.OpenAccount(t, "CUST1", "1000")
	require.NoError(t, a.Deposit(testutil.USD("100"), ""))
	require.NoError(t, a.Deposit(testutil.USD("200"), ""))
	events := a.Uncommitted()

	require.NoError(t, d.Dispatch(ctx, events[0]))

	err := d.Dispatch(ctx, events[2])
	assert.ErrorIs(t, err, ErrVersionGap)
	sum, err := store.GetSummary(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.Version, "row left at the last applied version")
	assert.True(t, sum.Balance.Equal(testutil.USD("1000")))

	require.NoError(t, d.Dispatch(ctx, events[1]))
	require.NoError(t, d.Dispatch(ctx, events[2]), "redelivery in order catches up")

	sum, err = store.GetSummary(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Version)
	assert.True(t, sum.Balance.Equal(testutil.USD("1300")), sum.Balance.String())
}

// movedStore reports every update as lost to a concurrent writer.
type movedStore struct {
	*readmodel.MemoryStore
}

func (movedStore) UpdateSummary(context.Context, *readmodel.AccountSummary) (bool, error) {
	return false, nil
}

func TestAccountSummaryProjection_LostUpdateIsAnError(t *testing.T) {
	ctx := context.Background()
	store := movedStore{readmodel.NewMemoryStore()}
	p := NewAccountSummaryProjection(store)

	a := testutil.OpenAccount(t, "CUST1", "10")
	require.NoError(t, a.Deposit(testutil.USD("5"), ""))
	events := a.Uncommitted()

	require.NoError(t, p.Handle(ctx, events[0]))
	assert.ErrorIs(t, p.Handle(ctx, events[1]), ErrSummaryMoved)
}
