package readmodel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/eventledger/internal/domain"
	"github.com/josh-kwaku/eventledger/internal/storage"
)

const summaryColumns = `account_id, customer_id, balance, currency, status, version,
	transaction_count, opened_at, last_transaction_at, updated_at`

const transactionColumns = `event_id, account_id, event_version, kind, amount, currency,
	description, counterparty_account_id, occurred_at`

// SQLStore keeps read models in the account_summaries and
// account_transactions tables. Every write is a single statement.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) GetSummary(ctx context.Context, accountID string) (*AccountSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+summaryColumns+` FROM account_summaries WHERE account_id = $1`, accountID,
	)
	sum, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetSummary: %s: %w", accountID, domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetSummary: %w", err)
	}
	return sum, nil
}

// InsertSummary creates the row for a newly opened account. An existing row
// is left untouched.
func (s *SQLStore) InsertSummary(ctx context.Context, sum *AccountSummary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO account_summaries (`+summaryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (account_id) DO NOTHING`,
		summaryArgs(sum)...,
	)
	if err != nil {
		return fmt.Errorf("InsertSummary: %w", err)
	}
	return nil
}

// UpdateSummary overwrites the row only when sum carries a newer version.
// It reports whether a row changed.
func (s *SQLStore) UpdateSummary(ctx context.Context, sum *AccountSummary) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE account_summaries SET
			customer_id = $2, balance = $3, currency = $4, status = $5, version = $6,
			transaction_count = $7, opened_at = $8, last_transaction_at = $9, updated_at = $10
		WHERE account_id = $1 AND version < $6`,
		summaryArgs(sum)...,
	)
	if err != nil {
		return false, fmt.Errorf("UpdateSummary: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("UpdateSummary: rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) DeleteSummary(ctx context.Context, accountID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM account_summaries WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("DeleteSummary: %w", err)
	}
	return nil
}

func (s *SQLStore) ListSummariesByCustomer(ctx context.Context, customerID string) ([]AccountSummary, error) {
	return s.listSummaries(ctx, "ListSummariesByCustomer",
		`SELECT `+summaryColumns+` FROM account_summaries WHERE customer_id = $1 ORDER BY opened_at, account_id`,
		customerID,
	)
}

func (s *SQLStore) ListSummariesByStatus(ctx context.Context, status domain.AccountStatus) ([]AccountSummary, error) {
	return s.listSummaries(ctx, "ListSummariesByStatus",
		`SELECT `+summaryColumns+` FROM account_summaries WHERE status = $1 ORDER BY opened_at, account_id`,
		string(status),
	)
}

func (s *SQLStore) listSummaries(ctx context.Context, op, query string, args ...any) ([]AccountSummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	summaries := []AccountSummary{}
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		summaries = append(summaries, *sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return summaries, nil
}

// InsertTransaction records one history row. Rows are keyed by event id, so
// replaying an event is a no-op.
func (s *SQLStore) InsertTransaction(ctx context.Context, tx *Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO account_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING`,
		tx.EventID, tx.AccountID, tx.EventVersion, string(tx.Kind),
		tx.Amount.Amount.String(), string(tx.Amount.Currency),
		tx.Description, tx.CounterpartyAccountID, storage.FormatTime(tx.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	return nil
}

// ListTransactions returns accountID's history, newest first.
func (s *SQLStore) ListTransactions(ctx context.Context, accountID string, filter TransactionFilter) ([]Transaction, error) {
	f := filter.normalized()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM account_transactions
		WHERE account_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY event_version DESC
		LIMIT $3 OFFSET $4`,
		accountID, string(f.Kind), f.Limit, f.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	defer rows.Close()

	txs := []Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: scan: %w", err)
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListTransactions: rows: %w", err)
	}
	return txs, nil
}

func (s *SQLStore) DeleteTransactions(ctx context.Context, accountID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM account_transactions WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("DeleteTransactions: %w", err)
	}
	return nil
}

func summaryArgs(sum *AccountSummary) []any {
	var lastTx sql.NullString
	if sum.LastTransactionAt != nil {
		lastTx = sql.NullString{String: storage.FormatTime(*sum.LastTransactionAt), Valid: true}
	}
	return []any{
		sum.AccountID, sum.CustomerID, sum.Balance.Amount.String(), string(sum.Balance.Currency),
		string(sum.Status), sum.Version, sum.TransactionCount,
		storage.FormatTime(sum.OpenedAt), lastTx, storage.FormatTime(sum.UpdatedAt),
	}
}

func scanSummary(s storage.Scanner) (*AccountSummary, error) {
	var (
		sum                       AccountSummary
		balance, currency, status string
		openedAt, updatedAt       string
		lastTransactionAt         sql.NullString
	)
	err := s.Scan(&sum.AccountID, &sum.CustomerID, &balance, &currency, &status, &sum.Version,
		&sum.TransactionCount, &openedAt, &lastTransactionAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	sum.Balance = domain.NewMoney(amount, domain.Currency(currency))
	sum.Status = domain.AccountStatus(status)

	if sum.OpenedAt, err = storage.ParseTime(openedAt); err != nil {
		return nil, err
	}
	if sum.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	if lastTransactionAt.Valid {
		t, err := storage.ParseTime(lastTransactionAt.String)
		if err != nil {
			return nil, err
		}
		sum.LastTransactionAt = &t
	}
	return &sum, nil
}

func scanTransaction(s storage.Scanner) (*Transaction, error) {
	var (
		tx                     Transaction
		kind, amount, currency string
		occurredAt             string
	)
	err := s.Scan(&tx.EventID, &tx.AccountID, &tx.EventVersion, &kind, &amount, &currency,
		&tx.Description, &tx.CounterpartyAccountID, &occurredAt)
	if err != nil {
		return nil, err
	}

	a, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	tx.Amount = domain.NewMoney(a, domain.Currency(currency))
	tx.Kind = TransactionKind(kind)
	if tx.OccurredAt, err = storage.ParseTime(occurredAt); err != nil {
		return nil, err
	}
	return &tx, nil
}
