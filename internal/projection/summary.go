package projection

import (
	"context"
	"errors"
	"fmt"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/readmodel"
)

var (
	// ErrVersionGap means an event arrived before one it depends on. The row
	// is left as it was and needs a rebuild to catch up.
	ErrVersionGap = errors.New("event version gap")
	// ErrSummaryMoved means another writer advanced the row between read
	// and write.
	ErrSummaryMoved = errors.New("summary row changed concurrently")
)

type SummaryStore interface {
	GetSummary(ctx context.Context, accountID string) (*readmodel.AccountSummary, error)
	InsertSummary(ctx context.Context, sum *readmodel.AccountSummary) error
	UpdateSummary(ctx context.Context, sum *readmodel.AccountSummary) (bool, error)
}

// AccountSummaryProjection maintains one AccountSummary row per account,
// applying the same balance and status changes as the aggregate. Events at
// or below the row's version are skipped, so redelivery is harmless. An event
// must follow the row's version directly; anything further ahead is refused
// with ErrVersionGap.
type AccountSummaryProjection struct {
	store SummaryStore
}

func NewAccountSummaryProjection(store SummaryStore) *AccountSummaryProjection {
	return &AccountSummaryProjection{store: store}
}

func (p *AccountSummaryProjection) Name() string { return "account_summary" }

func (p *AccountSummaryProjection) Handle(ctx context.Context, e domain.Event) error {
	if opened, ok := e.Data().(domain.AccountOpened); ok {
		return p.insert(ctx, e, opened)
	}

	row, err := p.store.GetSummary(ctx, e.AggregateID())
	if err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	if e.Version() <= row.Version {
		return nil
	}
	if e.Version() != row.Version+1 {
		return fmt.Errorf("%s: %s at v%d, got v%d: %w", p.Name(), e.AggregateID(), row.Version, e.Version(), ErrVersionGap)
	}

	if err := e.Accept(&summaryFold{row: row}); err != nil {
		return fmt.Errorf("%s: %s v%d: %w", p.Name(), e.AggregateID(), e.Version(), err)
	}
	row.Version = e.Version()
	row.UpdatedAt = e.Timestamp()

	changed, err := p.store.UpdateSummary(ctx, row)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	if !changed {
		return fmt.Errorf("%s: %s v%d: %w", p.Name(), e.AggregateID(), e.Version(), ErrSummaryMoved)
	}
	return nil
}

func (p *AccountSummaryProjection) insert(ctx context.Context, e domain.Event, d domain.AccountOpened) error {
	err := p.store.InsertSummary(ctx, &readmodel.AccountSummary{
		AccountID:  e.AggregateID(),
		CustomerID: d.CustomerID,
		Balance:    d.InitialBalance,
		Status:     domain.AccountStatusActive,
		Version:    e.Version(),
		OpenedAt:   e.Timestamp(),
		UpdatedAt:  e.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	return nil
}

// summaryFold applies one event to a summary row.
type summaryFold struct {
	row *readmodel.AccountSummary
}

var _ domain.Visitor = (*summaryFold)(nil)

func (f *summaryFold) VisitAccountOpened(_ domain.Event, d domain.AccountOpened) error {
	f.row.CustomerID = d.CustomerID
	f.row.Balance = d.InitialBalance
	f.row.Status = domain.AccountStatusActive
	return nil
}

func (f *summaryFold) VisitMoneyDeposited(e domain.Event, d domain.MoneyDeposited) error {
	return f.credit(e, d.Amount)
}

func (f *summaryFold) VisitMoneyWithdrawn(e domain.Event, d domain.MoneyWithdrawn) error {
	return f.debit(e, d.Amount)
}

func (f *summaryFold) VisitMoneyTransferred(e domain.Event, d domain.MoneyTransferred) error {
	switch f.row.AccountID {
	case d.FromAccountID:
		return f.debit(e, d.Amount)
	case d.ToAccountID:
		return f.credit(e, d.Amount)
	default:
		return fmt.Errorf("transfer %s -> %s does not involve account %s", d.FromAccountID, d.ToAccountID, f.row.AccountID)
	}
}

func (f *summaryFold) VisitTransferReversed(e domain.Event, d domain.TransferReversed) error {
	return f.credit(e, d.Amount)
}

func (f *summaryFold) VisitAccountFrozen(domain.Event, domain.AccountFrozen) error {
	f.row.Status = domain.AccountStatusFrozen
	return nil
}

func (f *summaryFold) VisitAccountUnfrozen(domain.Event, domain.AccountUnfrozen) error {
	f.row.Status = domain.AccountStatusActive
	return nil
}

func (f *summaryFold) VisitAccountClosed(domain.Event, domain.AccountClosed) error {
	f.row.Status = domain.AccountStatusClosed
	return nil
}

func (f *summaryFold) VisitOverdraftFeeCharged(e domain.Event, d domain.OverdraftFeeCharged) error {
	return f.debit(e, d.Fee)
}

func (f *summaryFold) VisitInterestAccrued(e domain.Event, d domain.InterestAccrued) error {
	return f.credit(e, d.Amount)
}

func (f *summaryFold) credit(e domain.Event, amount domain.Money) error {
	balance, err := f.row.Balance.Add(amount)
	if err != nil {
		return err
	}
	f.moved(e, balance)
	return nil
}

func (f *summaryFold) debit(e domain.Event, amount domain.Money) error {
	balance, err := f.row.Balance.Sub(amount)
	if err != nil {
		return err
	}
	f.moved(e, balance)
	return nil
}

func (f *summaryFold) moved(e domain.Event, balance domain.Money) {
	at := e.Timestamp()
	f.row.Balance = balance
	f.row.TransactionCount++
	f.row.LastTransactionAt = &at
}
