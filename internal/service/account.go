package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/logging"
)

const DefaultMaxConflictRetries = 3

// AccountService runs account commands: load the aggregate, execute, save,
// then hand the committed events to the projections.
type AccountService struct {
	accounts   accountRepository
	dispatcher eventDispatcher
	maxRetries int
	opts       []domain.Option
}

// NewAccountService wires the command side. maxRetries bounds how many times
// a command is reloaded and re-executed after a concurrency conflict; opts
// apply to accounts created by Open.
func NewAccountService(accounts accountRepository, dispatcher eventDispatcher, maxRetries int, opts ...domain.Option) *AccountService {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &AccountService{
		accounts:   accounts,
		dispatcher: dispatcher,
		maxRetries: maxRetries,
		opts:       opts,
	}
}

func (s *AccountService) Open(ctx context.Context, customerID string, initialBalance domain.Money) (*domain.Account, error) {
	a, err := domain.OpenAccount(customerID, initialBalance, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}

	committed, err := s.accounts.Save(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	s.dispatch(ctx, committed)

	logging.FromContext(ctx).Info("account opened",
		"account_id", a.ID(),
		"customer_id", customerID,
		"initial_balance", initialBalance.String(),
	)
	return a, nil
}

func (s *AccountService) Deposit(ctx context.Context, accountID string, amount domain.Money, description string) (*domain.Account, error) {
	return s.execute(ctx, "Deposit", accountID, func(a *domain.Account) error {
		return a.Deposit(amount, description)
	})
}

func (s *AccountService) Withdraw(ctx context.Context, accountID string, amount domain.Money, description string) (*domain.Account, error) {
	return s.execute(ctx, "Withdraw", accountID, func(a *domain.Account) error {
		return a.Withdraw(amount, description)
	})
}

func (s *AccountService) Freeze(ctx context.Context, accountID, reason string) (*domain.Account, error) {
	return s.execute(ctx, "Freeze", accountID, func(a *domain.Account) error {
		return a.Freeze(reason)
	})
}

func (s *AccountService) Unfreeze(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.execute(ctx, "Unfreeze", accountID, func(a *domain.Account) error {
		return a.Unfreeze()
	})
}

func (s *AccountService) Close(ctx context.Context, accountID, reason string) (*domain.Account, error) {
	return s.execute(ctx, "Close", accountID, func(a *domain.Account) error {
		return a.Close(reason)
	})
}

func (s *AccountService) ChargeOverdraftFee(ctx context.Context, accountID string, fee domain.Money) (*domain.Account, error) {
	return s.execute(ctx, "ChargeOverdraftFee", accountID, func(a *domain.Account) error {
		return a.ChargeOverdraftFee(fee)
	})
}

func (s *AccountService) AccrueInterest(ctx context.Context, accountID string, amount domain.Money) (*domain.Account, error) {
	return s.execute(ctx, "AccrueInterest", accountID, func(a *domain.Account) error {
		return a.AccrueInterest(amount)
	})
}

// execute loads accountID, applies cmd and saves. On a concurrency conflict
// the account is reloaded and cmd re-run against the fresh state, up to
// maxRetries times. Domain failures are returned as they are.
func (s *AccountService) execute(ctx context.Context, op, accountID string, cmd func(*domain.Account) error) (*domain.Account, error) {
	ctx, log := logging.With(ctx, "account_id", accountID)

	for attempt := 0; ; attempt++ {
		a, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := cmd(a); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		committed, err := s.accounts.Save(ctx, a)
		if err == nil {
			s.dispatch(ctx, committed)
			log.Info("account command applied",
				"command", op,
				"version", a.Version(),
				"balance", a.Balance().String(),
			)
			return a, nil
		}
		if !errors.Is(err, domain.ErrConcurrencyConflict) || attempt >= s.maxRetries {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		log.Warn("concurrency conflict, retrying", "command", op, "attempt", attempt+1)
	}
}

// dispatch updates the read models. Failures leave them behind the event
// store until a rebuild; the command itself has already succeeded, so the
// caller's cancellation does not apply.
func (s *AccountService) dispatch(ctx context.Context, committed []domain.Event) {
	if err := s.dispatcher.DispatchAll(context.WithoutCancel(ctx), committed); err != nil {
		logging.FromContext(ctx).Error("projection dispatch failed, read models need a rebuild", "error", err)
	}
}
