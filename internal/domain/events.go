package domain

type AccountOpened struct {
	CustomerID     string `json:"customer_id"`
	InitialBalance Money  `json:"initial_balance"`
}

type MoneyDeposited struct {
	Amount      Money  `json:"amount"`
	Description string `json:"description"`
}

type MoneyWithdrawn struct {
	Amount      Money  `json:"amount"`
	Description string `json:"description"`
}

// MoneyTransferred is written to both streams of a transfer. The replaying
// aggregate decides the direction by comparing its id with the two ends.
type MoneyTransferred struct {
	Amount        Money  `json:"amount"`
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Description   string `json:"description"`
}

// TransferReversed credits the source of a transfer whose destination leg
// could not be recorded.
type TransferReversed struct {
	Amount        Money  `json:"amount"`
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Reason        string `json:"reason"`
}

type AccountFrozen struct {
	Reason string `json:"reason"`
}

type AccountUnfrozen struct{}

type AccountClosed struct {
	Reason string `json:"reason"`
}

type OverdraftFeeCharged struct {
	Fee Money `json:"fee"`
}

type InterestAccrued struct {
	Amount Money `json:"amount"`
}

func (AccountOpened) Kind() Kind       { return KindAccountOpened }
func (MoneyDeposited) Kind() Kind      { return KindMoneyDeposited }
func (MoneyWithdrawn) Kind() Kind      { return KindMoneyWithdrawn }
func (MoneyTransferred) Kind() Kind    { return KindMoneyTransferred }
func (TransferReversed) Kind() Kind    { return KindTransferReversed }
func (AccountFrozen) Kind() Kind       { return KindAccountFrozen }
func (AccountUnfrozen) Kind() Kind     { return KindAccountUnfrozen }
func (AccountClosed) Kind() Kind       { return KindAccountClosed }
func (OverdraftFeeCharged) Kind() Kind { return KindOverdraftFeeCharged }
func (InterestAccrued) Kind() Kind     { return KindInterestAccrued }

func (d AccountOpened) accept(e Event, v Visitor) error {
	return v.VisitAccountOpened(e, d)
}

func (d MoneyDeposited) accept(e Event, v Visitor) error {
	return v.VisitMoneyDeposited(e, d)
}

func (d MoneyWithdrawn) accept(e Event, v Visitor) error {
	return v.VisitMoneyWithdrawn(e, d)
}

func (d MoneyTransferred) accept(e Event, v Visitor) error {
	return v.VisitMoneyTransferred(e, d)
}

func (d TransferReversed) accept(e Event, v Visitor) error {
	return v.VisitTransferReversed(e, d)
}

func (d AccountFrozen) accept(e Event, v Visitor) error {
	return v.VisitAccountFrozen(e, d)
}

func (d AccountUnfrozen) accept(e Event, v Visitor) error {
	return v.VisitAccountUnfrozen(e, d)
}

func (d AccountClosed) accept(e Event, v Visitor) error {
	return v.VisitAccountClosed(e, d)
}

func (d OverdraftFeeCharged) accept(e Event, v Visitor) error {
	return v.VisitOverdraftFeeCharged(e, d)
}

func (d InterestAccrued) accept(e Event, v Visitor) error {
	return v.VisitInterestAccrued(e, d)
}
