package domain

import "fmt"

// accountFold is the state transition function of Account. It must stay
// deterministic: replay correctness depends on it.
type accountFold Account

func (f *accountFold) VisitAccountOpened(e Event, d AccountOpened) error {
	f.id = e.AggregateID()
	f.customerID = d.CustomerID
	f.balance = d.InitialBalance
	f.status = AccountStatusActive
	f.createdAt = e.Timestamp()
	return nil
}

func (f *accountFold) VisitMoneyDeposited(e Event, d MoneyDeposited) error {
	return f.credit(e, d.Amount)
}

func (f *accountFold) VisitMoneyWithdrawn(e Event, d MoneyWithdrawn) error {
	return f.debit(e, d.Amount)
}

func (f *accountFold) VisitMoneyTransferred(e Event, d MoneyTransferred) error {
	switch f.id {
	case d.FromAccountID:
		return f.debit(e, d.Amount)
	case d.ToAccountID:
		return f.credit(e, d.Amount)
	default:
		return fmt.Errorf("transfer %s -> %s does not involve account %s", d.FromAccountID, d.ToAccountID, f.id)
	}
}

func (f *accountFold) VisitTransferReversed(e Event, d TransferReversed) error {
	return f.credit(e, d.Amount)
}

func (f *accountFold) VisitAccountFrozen(_ Event, _ AccountFrozen) error {
	f.status = AccountStatusFrozen
	return nil
}

func (f *accountFold) VisitAccountUnfrozen(_ Event, _ AccountUnfrozen) error {
	f.status = AccountStatusActive
	return nil
}

func (f *accountFold) VisitAccountClosed(_ Event, _ AccountClosed) error {
	f.status = AccountStatusClosed
	return nil
}

func (f *accountFold) VisitOverdraftFeeCharged(e Event, d OverdraftFeeCharged) error {
	return f.debit(e, d.Fee)
}

func (f *accountFold) VisitInterestAccrued(e Event, d InterestAccrued) error {
	return f.credit(e, d.Amount)
}

func (f *accountFold) credit(e Event, amount Money) error {
	balance, err := f.balance.Add(amount)
	if err != nil {
		return err
	}
	f.balance = balance
	f.lastTransactionAt = e.Timestamp()
	return nil
}

func (f *accountFold) debit(e Event, amount Money) error {
	balance, err := f.balance.Sub(amount)
	if err != nil {
		return err
	}
	f.balance = balance
	f.lastTransactionAt = e.Timestamp()
	return nil
}
