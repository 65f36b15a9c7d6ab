package domain

import (
	"fmt"
	"strings"
	"time"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "Active"
	AccountStatusFrozen AccountStatus = "Frozen"
	AccountStatusClosed AccountStatus = "Closed"
)

const (
	defaultDepositDescription    = "Deposit"
	defaultWithdrawalDescription = "Withdrawal"
	defaultTransferDescription   = "Transfer"
	defaultFreezeReason          = "No reason provided"
	defaultCloseReason           = "No reason provided"
	defaultReversalReason        = "Transfer could not be credited"
)

// Account is the event-sourced bank account aggregate. A zero status means
// no event has been applied yet.
type Account struct {
	Root
	customerID        string
	balance           Money
	status            AccountStatus
	createdAt         time.Time
	lastTransactionAt time.Time
}

// NewAccount returns an empty aggregate ready for LoadFromHistory.
func NewAccount(opts ...Option) *Account {
	return &Account{Root: newRoot(opts)}
}

// OpenAccount is the only way to create a non-empty account outside replay.
func OpenAccount(customerID string, initialBalance Money, opts ...Option) (*Account, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, fmt.Errorf("OpenAccount: customer id is required: %w", ErrValidation)
	}
	if !initialBalance.Currency.IsValid() {
		return nil, fmt.Errorf("OpenAccount: %w", ErrInvalidCurrency)
	}
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("OpenAccount: %w", ErrNegativeBalance)
	}

	a := NewAccount(opts...)
	a.id = a.ids.NewAccountID()
	if err := a.apply(AccountOpened{CustomerID: customerID, InitialBalance: initialBalance}); err != nil {
		return nil, fmt.Errorf("OpenAccount: %w", err)
	}
	return a, nil
}

func (a *Account) CustomerID() string           { return a.customerID }
func (a *Account) Balance() Money               { return a.balance }
func (a *Account) Status() AccountStatus        { return a.status }
func (a *Account) CreatedAt() time.Time         { return a.createdAt }
func (a *Account) LastTransactionAt() time.Time { return a.lastTransactionAt }

// Exists reports whether at least one event has been applied.
func (a *Account) Exists() bool { return a.status != "" }

func (a *Account) LoadFromHistory(events []Event) error {
	return a.loadFromHistory(events, (*accountFold)(a))
}

func (a *Account) Deposit(amount Money, description string) error {
	if err := a.checkMovement(amount); err != nil {
		return fmt.Errorf("Deposit: %w", err)
	}
	return a.apply(MoneyDeposited{
		Amount:      amount,
		Description: orDefault(description, defaultDepositDescription),
	})
}

func (a *Account) Withdraw(amount Money, description string) error {
	if err := a.checkDebit(amount); err != nil {
		return fmt.Errorf("Withdraw: %w", err)
	}
	return a.apply(MoneyWithdrawn{
		Amount:      amount,
		Description: orDefault(description, defaultWithdrawalDescription),
	})
}

// Transfer records the debit side of a transfer. Crediting toAccountID is
// the caller's job (see ReceiveTransfer).
func (a *Account) Transfer(amount Money, toAccountID, description string) error {
	if strings.TrimSpace(toAccountID) == "" || toAccountID == a.id {
		return fmt.Errorf("Transfer: destination %q: %w", toAccountID, ErrInvalidAccount)
	}
	if err := a.checkDebit(amount); err != nil {
		return fmt.Errorf("Transfer: %w", err)
	}
	return a.apply(MoneyTransferred{
		Amount:        amount,
		FromAccountID: a.id,
		ToAccountID:   toAccountID,
		Description:   orDefault(description, defaultTransferDescription),
	})
}

// ReceiveTransfer records the credit side of a transfer in this account's stream.
func (a *Account) ReceiveTransfer(amount Money, fromAccountID, description string) error {
	if strings.TrimSpace(fromAccountID) == "" || fromAccountID == a.id {
		return fmt.Errorf("ReceiveTransfer: source %q: %w", fromAccountID, ErrInvalidAccount)
	}
	if err := a.checkMovement(amount); err != nil {
		return fmt.Errorf("ReceiveTransfer: %w", err)
	}
	return a.apply(MoneyTransferred{
		Amount:        amount,
		FromAccountID: fromAccountID,
		ToAccountID:   a.id,
		Description:   orDefault(description, defaultTransferDescription),
	})
}

// ReverseTransfer gives back the amount of a transfer this account sent.
// Status is not checked: the ledger must balance even on frozen or closed
// accounts.
func (a *Account) ReverseTransfer(amount Money, toAccountID, reason string) error {
	if !a.Exists() {
		return fmt.Errorf("ReverseTransfer: %w", ErrAccountNotFound)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("ReverseTransfer: %w", ErrInvalidAmount)
	}
	if amount.Currency != a.balance.Currency {
		return fmt.Errorf("ReverseTransfer: %w", ErrCurrencyMismatch)
	}
	return a.apply(TransferReversed{
		Amount:        amount,
		FromAccountID: a.id,
		ToAccountID:   toAccountID,
		Reason:        orDefault(reason, defaultReversalReason),
	})
}

func (a *Account) Freeze(reason string) error {
	switch a.status {
	case "":
		return fmt.Errorf("Freeze: %w", ErrAccountNotFound)
	case AccountStatusClosed:
		return fmt.Errorf("Freeze: account is closed: %w", ErrInvalidTransition)
	case AccountStatusFrozen:
		return fmt.Errorf("Freeze: account is already frozen: %w", ErrInvalidTransition)
	}
	return a.apply(AccountFrozen{Reason: orDefault(reason, defaultFreezeReason)})
}

func (a *Account) Unfreeze() error {
	if !a.Exists() {
		return fmt.Errorf("Unfreeze: %w", ErrAccountNotFound)
	}
	if a.status != AccountStatusFrozen {
		return fmt.Errorf("Unfreeze: account is %s: %w", a.status, ErrInvalidTransition)
	}
	return a.apply(AccountUnfrozen{})
}

func (a *Account) Close(reason string) error {
	if !a.Exists() {
		return fmt.Errorf("Close: %w", ErrAccountNotFound)
	}
	if a.status == AccountStatusClosed {
		return fmt.Errorf("Close: account is already closed: %w", ErrInvalidTransition)
	}
	return a.apply(AccountClosed{Reason: orDefault(reason, defaultCloseReason)})
}

// ChargeOverdraftFee posts regardless of status; fees may land on frozen
// accounts by policy.
func (a *Account) ChargeOverdraftFee(fee Money) error {
	if !a.Exists() {
		return fmt.Errorf("ChargeOverdraftFee: %w", ErrAccountNotFound)
	}
	if !fee.IsPositive() {
		return fmt.Errorf("ChargeOverdraftFee: %w", ErrInvalidAmount)
	}
	if fee.Currency != a.balance.Currency {
		return fmt.Errorf("ChargeOverdraftFee: %w", ErrCurrencyMismatch)
	}
	return a.apply(OverdraftFeeCharged{Fee: fee})
}

// AccrueInterest posts regardless of status, like ChargeOverdraftFee.
func (a *Account) AccrueInterest(amount Money) error {
	if !a.Exists() {
		return fmt.Errorf("AccrueInterest: %w", ErrAccountNotFound)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("AccrueInterest: %w", ErrInvalidAmount)
	}
	if amount.Currency != a.balance.Currency {
		return fmt.Errorf("AccrueInterest: %w", ErrCurrencyMismatch)
	}
	return a.apply(InterestAccrued{Amount: amount})
}

func (a *Account) apply(data EventData) error {
	return a.Root.apply(data, (*accountFold)(a))
}

// checkMovement validates an amount moving into or out of an active account.
func (a *Account) checkMovement(amount Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	switch a.status {
	case "":
		return ErrAccountNotFound
	case AccountStatusFrozen:
		return ErrAccountFrozen
	case AccountStatusClosed:
		return ErrAccountClosed
	}
	if amount.Currency != a.balance.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}

func (a *Account) checkDebit(amount Money) error {
	if err := a.checkMovement(amount); err != nil {
		return err
	}
	if a.balance.Amount.LessThan(amount.Amount) {
		return ErrInsufficientFunds
	}
	return nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
