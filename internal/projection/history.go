package projection

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/readmodel"
)

const (
	overdraftFeeDescription = "Overdraft fee"
	interestDescription     = "Interest"
)

type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx *readmodel.Transaction) error
}

// TransactionHistoryProjection writes one history row per balance movement,
// from the point of view of the stream the event belongs to.
type TransactionHistoryProjection struct {
	store TransactionStore
}

func NewTransactionHistoryProjection(store TransactionStore) *TransactionHistoryProjection {
	return &TransactionHistoryProjection{store: store}
}

func (p *TransactionHistoryProjection) Name() string { return "transaction_history" }

func (p *TransactionHistoryProjection) Handle(ctx context.Context, e domain.Event) error {
	rows := historyRows{}
	if err := e.Accept(&rows); err != nil {
		return fmt.Errorf("%s: %s v%d: %w", p.Name(), e.AggregateID(), e.Version(), err)
	}
	if rows.tx == nil {
		return nil
	}
	if err := p.store.InsertTransaction(ctx, rows.tx); err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	return nil
}

// MovementKinds are the event kinds that produce a history row.
func MovementKinds() []domain.Kind {
	return []domain.Kind{
		domain.KindMoneyDeposited,
		domain.KindMoneyWithdrawn,
		domain.KindMoneyTransferred,
		domain.KindTransferReversed,
		domain.KindOverdraftFeeCharged,
		domain.KindInterestAccrued,
	}
}

// historyRows maps an event to its history row; lifecycle events map to none.
type historyRows struct {
	tx *readmodel.Transaction
}

var _ domain.Visitor = (*historyRows)(nil)

func (h *historyRows) row(e domain.Event, kind readmodel.TransactionKind, amount domain.Money, description, counterparty string) {
	h.tx = &readmodel.Transaction{
		EventID:               e.ID(),
		AccountID:             e.AggregateID(),
		EventVersion:          e.Version(),
		Kind:                  kind,
		Amount:                amount,
		Description:           description,
		CounterpartyAccountID: counterparty,
		OccurredAt:            e.Timestamp(),
	}
}

func (h *historyRows) VisitAccountOpened(domain.Event, domain.AccountOpened) error { return nil }

func (h *historyRows) VisitMoneyDeposited(e domain.Event, d domain.MoneyDeposited) error {
	h.row(e, readmodel.TransactionDeposit, d.Amount, d.Description, "")
	return nil
}

func (h *historyRows) VisitMoneyWithdrawn(e domain.Event, d domain.MoneyWithdrawn) error {
	h.row(e, readmodel.TransactionWithdrawal, d.Amount, d.Description, "")
	return nil
}

func (h *historyRows) VisitMoneyTransferred(e domain.Event, d domain.MoneyTransferred) error {
	switch e.AggregateID() {
	case d.FromAccountID:
		h.row(e, readmodel.TransactionTransferOut, d.Amount, d.Description, d.ToAccountID)
	case d.ToAccountID:
		h.row(e, readmodel.TransactionTransferIn, d.Amount, d.Description, d.FromAccountID)
	default:
		return fmt.Errorf("transfer %s -> %s does not involve account %s", d.FromAccountID, d.ToAccountID, e.AggregateID())
	}
	return nil
}

func (h *historyRows) VisitTransferReversed(e domain.Event, d domain.TransferReversed) error {
	h.row(e, readmodel.TransactionTransferReversal, d.Amount, d.Reason, d.ToAccountID)
	return nil
}

func (h *historyRows) VisitAccountFrozen(domain.Event, domain.AccountFrozen) error {
	return nil
}

func (h *historyRows) VisitAccountUnfrozen(domain.Event, domain.AccountUnfrozen) error {
	return nil
}

func (h *historyRows) VisitAccountClosed(domain.Event, domain.AccountClosed) error {
	return nil
}

func (h *historyRows) VisitOverdraftFeeCharged(e domain.Event, d domain.OverdraftFeeCharged) error {
	h.row(e, readmodel.TransactionFee, d.Fee, overdraftFeeDescription, "")
	return nil
}

func (h *historyRows) VisitInterestAccrued(e domain.Event, d domain.InterestAccrued) error {
	h.row(e, readmodel.TransactionInterest, d.Amount, interestDescription, "")
	return nil
}
