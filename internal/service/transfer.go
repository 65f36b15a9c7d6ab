package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/logging"
)

// settleTimeout bounds the credit and any compensation once the debit has
// committed. They no longer follow the caller's cancellation.
const settleTimeout = 30 * time.Second

type TransferResult struct {
	Source      *domain.Account
	Destination *domain.Account
}

// Transfer moves amount between two accounts as two separate appends: the
// debit on the source stream, then the credit on the destination stream.
// There is no transaction spanning both. If the credit cannot be recorded
// after the debit committed, the source is compensated with a
// TransferReversed event. When that fails too the error wraps
// domain.ErrCompensationFailed and the ledger needs manual repair. Both
// steps after the debit run to completion even if ctx is cancelled.
func (s *AccountService) Transfer(ctx context.Context, fromID, toID string, amount domain.Money, description string) (*TransferResult, error) {
	ctx, log := logging.With(ctx, "from_account_id", fromID, "to_account_id", toID)

	if fromID == toID {
		return nil, fmt.Errorf("Transfer: destination %q: %w", toID, domain.ErrInvalidAccount)
	}

	// Reject transfers the destination would refuse before any money moves.
	dest, err := s.accounts.GetByID(ctx, toID)
	if err != nil {
		return nil, fmt.Errorf("Transfer: destination: %w", err)
	}
	if err := dest.ReceiveTransfer(amount, fromID, description); err != nil {
		return nil, fmt.Errorf("Transfer: destination: %w", err)
	}

	source, err := s.execute(ctx, "Transfer", fromID, func(a *domain.Account) error {
		return a.Transfer(amount, toID, description)
	})
	if err != nil {
		return nil, err
	}

	// The debit is on the ledger; a client going away must not stop the
	// other leg from settling.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	dest, creditErr := s.execute(ctx, "ReceiveTransfer", toID, func(a *domain.Account) error {
		return a.ReceiveTransfer(amount, fromID, description)
	})
	if creditErr == nil {
		log.Info("transfer completed", "amount", amount.String())
		return &TransferResult{Source: source, Destination: dest}, nil
	}

	log.Warn("transfer credit failed, reversing debit", "amount", amount.String(), "error", creditErr)

	reason := fmt.Sprintf("Transfer to %s could not be credited", toID)
	_, compErr := s.execute(ctx, "ReverseTransfer", fromID, func(a *domain.Account) error {
		return a.ReverseTransfer(amount, toID, reason)
	})
	if compErr != nil {
		log.Error("transfer compensation failed, ledger needs manual repair",
			"amount", amount.String(),
			"credit_error", creditErr,
			"error", compErr,
		)
		return nil, fmt.Errorf("Transfer: %w", errors.Join(domain.ErrCompensationFailed, creditErr, compErr))
	}

	return nil, fmt.Errorf("Transfer: debit reversed: %w", creditErr)
}
