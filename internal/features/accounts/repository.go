// repository.go performs all operations against the accounts and
// transactions tables. Money movements run inside database transactions
// so the balance update and the ledger entry commit together.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nomercy-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create registers a new account. On JID conflict only the push name is
// refreshed; balances, status and flags are left untouched.
func (r *Repository) Create(ctx context.Context, jid, name string, startBalance, startChips int64, commandLimit int) error {
	query := `
		INSERT INTO accounts (jid, name, balance, chips, status, command_limit)
		VALUES ($1, $2, $3, $4, 'basic', $5)
		ON CONFLICT (jid) DO UPDATE
		SET name = EXCLUDED.name, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, jid, name, startBalance, startChips, commandLimit)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByJID returns the account for the JID, or common.ErrAccountNotFound.
func (r *Repository) GetByJID(ctx context.Context, jid string) (*Account, error) {
	query := `
		SELECT id, jid, name, balance, chips, status, premium_until,
		       command_limit, is_banned, created_at, updated_at
		FROM accounts
		WHERE jid = $1
	`
	var a Account
	err := r.db.QueryRow(ctx, query, jid).Scan(
		&a.ID, &a.JID, &a.Name, &a.Balance, &a.Chips, &a.Status,
		&a.PremiumUntil, &a.CommandLimit, &a.IsBanned, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to read account (jid=%s): %w", jid, err)
	}
	return &a, nil
}

func (r *Repository) Exists(ctx context.Context, jid string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE jid = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, jid).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return exists, nil
}

// AddBalance credits the main currency and records a ledger entry.
func (r *Repository) AddBalance(ctx context.Context, jid string, amount int64, txType, description string) error {
	return r.credit(ctx, jid, amount, CurrencyBalance, txType, description, `
		UPDATE accounts SET balance = balance + $2, updated_at = NOW() WHERE jid = $1
	`)
}

// AddChips credits chips and records a ledger entry.
func (r *Repository) AddChips(ctx context.Context, jid string, amount int64, txType, description string) error {
	return r.credit(ctx, jid, amount, CurrencyChips, txType, description, `
		UPDATE accounts SET chips = chips + $2, updated_at = NOW() WHERE jid = $1
	`)
}

func (r *Repository) credit(ctx context.Context, jid string, amount int64, currency, txType, description, updateSQL string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, updateSQL, jid, amount)
	if err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrAccountNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (jid, amount, currency, transaction_type, description)
		VALUES ($1, $2, $3, $4, $5)
	`, jid, amount, currency, txType, description)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	return tx.Commit(ctx)
}

// GetTransactions returns the user's latest N ledger entries.
func (r *Repository) GetTransactions(ctx context.Context, jid string, limit int) ([]*Transaction, error) {
	query := `
		SELECT id, jid, amount, currency, transaction_type, description, created_at
		FROM transactions
		WHERE jid = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, jid, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.JID, &t.Amount, &t.Currency,
			&t.TransactionType, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}

// ExpireLapsedPremium downgrades every premium account whose premium_until
// has passed: status back to basic, command limit restored, expiry cleared.
// Returns the number of accounts downgraded.
func (r *Repository) ExpireLapsedPremium(ctx context.Context, now time.Time, defaultCommandLimit int) (int64, error) {
	query := `
		UPDATE accounts
		SET status = 'basic', command_limit = $2, premium_until = NULL, updated_at = NOW()
		WHERE status = 'premium' AND (premium_until IS NULL OR premium_until <= $1)
	`
	tag, err := r.db.Exec(ctx, query, now, defaultCommandLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to expire premium accounts: %w", err)
	}
	return tag.RowsAffected(), nil
}
