// repository.go is the PostgreSQL implementation of Store. The claim
// transition runs in a single transaction: account row locked FOR UPDATE,
// conditional claim-record update guarded on last_claim_date, reward
// applied to the account, ledger entry written. Either everything commits
// or nothing does.
package dailylogin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nomercy-bot/internal/common"
	"nomercy-bot/internal/features/accounts"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const recordColumns = `id, jid, current_streak, current_day, last_claim_date,
	total_claims, can_claim, created_at, updated_at`

func scanRecord(row pgx.Row) (*ClaimRecord, error) {
	var rec ClaimRecord
	err := row.Scan(
		&rec.ID, &rec.JID, &rec.CurrentStreak, &rec.CurrentDay,
		&rec.LastClaimDate, &rec.TotalClaims, &rec.CanClaim,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrClaimRecordNotFound
		}
		return nil, fmt.Errorf("failed to read claim record: %w", err)
	}
	return &rec, nil
}

// GetRecord returns the claim record for the JID.
func (r *Repository) GetRecord(ctx context.Context, jid string) (*ClaimRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM daily_login_status WHERE jid = $1`
	return scanRecord(r.db.QueryRow(ctx, query, jid))
}

// ApplyClaim persists one claim atomically and returns the committed
// record.
func (r *Repository) ApplyClaim(ctx context.Context, m ClaimMutation) (*ClaimRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the account row first. Also serializes concurrent claims for
	// the same JID, so the guarded update below is race-free.
	var status string
	var premiumUntil *time.Time
	err = tx.QueryRow(ctx, `
		SELECT status, premium_until FROM accounts WHERE jid = $1 FOR UPDATE
	`, m.JID).Scan(&status, &premiumUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	// Lazily create the claim record on the first claim.
	_, err = tx.Exec(ctx, `
		INSERT INTO daily_login_status (jid) VALUES ($1)
		ON CONFLICT (jid) DO NOTHING
	`, m.JID)
	if err != nil {
		return nil, fmt.Errorf("failed to create claim record: %w", err)
	}

	// Guarded transition: refuses a second claim for the same calendar day.
	// No row back means a concurrent claim got here first.
	var rec ClaimRecord
	err = tx.QueryRow(ctx, `
		UPDATE daily_login_status
		SET current_streak = $2,
		    current_day = $3,
		    last_claim_date = $4,
		    total_claims = total_claims + 1,
		    can_claim = FALSE,
		    updated_at = NOW()
		WHERE jid = $1
		  AND (last_claim_date IS NULL OR last_claim_date < $4)
		RETURNING `+recordColumns+`
	`, m.JID, m.Streak, m.NextDay, m.Today).Scan(
		&rec.ID, &rec.JID, &rec.CurrentStreak, &rec.CurrentDay,
		&rec.LastClaimDate, &rec.TotalClaims, &rec.CanClaim,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to update claim record: %w", err)
	}

	if err := applyReward(ctx, tx, m, status, premiumUntil); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &rec, nil
}

// applyReward credits the account and records the ledger entry inside the
// claim transaction.
func applyReward(ctx context.Context, tx pgx.Tx, m ClaimMutation, status string, premiumUntil *time.Time) error {
	description := LedgerDescription(m.ClaimedDay)

	switch m.Reward.RewardType {
	case RewardBalance:
		_, err := tx.Exec(ctx, `
			UPDATE accounts SET balance = balance + $2, updated_at = NOW() WHERE jid = $1
		`, m.JID, m.Reward.RewardAmount)
		if err != nil {
			return fmt.Errorf("failed to credit balance: %w", err)
		}
		return insertLedger(ctx, tx, m.JID, m.Reward.RewardAmount,
			accounts.CurrencyBalance, accounts.TxTypeDailyBalance, description)

	case RewardChips:
		_, err := tx.Exec(ctx, `
			UPDATE accounts SET chips = chips + $2, updated_at = NOW() WHERE jid = $1
		`, m.JID, m.Reward.RewardAmount)
		if err != nil {
			return fmt.Errorf("failed to credit chips: %w", err)
		}
		return insertLedger(ctx, tx, m.JID, m.Reward.RewardAmount,
			accounts.CurrencyChips, accounts.TxTypeDailyChips, description)

	case RewardPremium:
		days := 0
		if m.Reward.PremiumDuration != nil {
			days = *m.Reward.PremiumDuration
		}
		// Active subscriptions stack additively; lapsed ones restart from now.
		until := accounts.ExtendPremium(m.Now, status, premiumUntil, days)
		_, err := tx.Exec(ctx, `
			UPDATE accounts
			SET status = 'premium', premium_until = $2, command_limit = $3, updated_at = NOW()
			WHERE jid = $1
		`, m.JID, until, accounts.UnlimitedCommandLimit)
		if err != nil {
			return fmt.Errorf("failed to grant premium: %w", err)
		}
		return insertLedger(ctx, tx, m.JID, int64(days),
			accounts.CurrencyPremiumDays, accounts.TxTypeDailyPremium, description)
	}

	return common.ErrInvalidRewardType
}

func insertLedger(ctx context.Context, tx pgx.Tx, jid string, amount int64, currency, txType, description string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (jid, amount, currency, transaction_type, description)
		VALUES ($1, $2, $3, $4, $5)
	`, jid, amount, currency, txType, description)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

// ResetRecord rewinds a user's claim state to the initial values.
func (r *Repository) ResetRecord(ctx context.Context, jid string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE daily_login_status
		SET current_streak = 0, current_day = 1, last_claim_date = NULL,
		    can_claim = TRUE, updated_at = NOW()
		WHERE jid = $1
	`, jid)
	if err != nil {
		return fmt.Errorf("failed to reset claim record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrClaimRecordNotFound
	}
	return nil
}

// RefreshClaimFlags flips the informational can_claim cache back on for
// everyone who has not claimed today.
func (r *Repository) RefreshClaimFlags(ctx context.Context, today time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE daily_login_status
		SET can_claim = TRUE, updated_at = NOW()
		WHERE can_claim = FALSE
		  AND (last_claim_date IS NULL OR last_claim_date < $1)
	`, today)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh claim flags: %w", err)
	}
	return tag.RowsAffected(), nil
}

const rewardColumns = `id, day, reward_type, reward_amount, premium_duration,
	is_active, created_at, updated_at`

func scanReward(row pgx.Row) (*RewardConfig, error) {
	var cfg RewardConfig
	err := row.Scan(
		&cfg.ID, &cfg.Day, &cfg.RewardType, &cfg.RewardAmount,
		&cfg.PremiumDuration, &cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetActiveReward returns the active config for one cycle day.
func (r *Repository) GetActiveReward(ctx context.Context, day int) (*RewardConfig, error) {
	query := `SELECT ` + rewardColumns + ` FROM daily_login_rewards WHERE day = $1 AND is_active = TRUE`
	cfg, err := scanReward(r.db.QueryRow(ctx, query, day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNoRewardConfigured
		}
		return nil, fmt.Errorf("failed to read reward config (day=%d): %w", day, err)
	}
	return cfg, nil
}

// ListActiveRewards returns all active configs ordered by day.
func (r *Repository) ListActiveRewards(ctx context.Context) ([]*RewardConfig, error) {
	query := `SELECT ` + rewardColumns + ` FROM daily_login_rewards WHERE is_active = TRUE ORDER BY day`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reward configs: %w", err)
	}
	defer rows.Close()

	var out []*RewardConfig
	for rows.Next() {
		cfg, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward config: %w", err)
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reward configs: %w", err)
	}
	return out, nil
}

// UpsertReward creates or updates the config for cfg.Day.
func (r *Repository) UpsertReward(ctx context.Context, cfg RewardConfig) (*RewardConfig, error) {
	query := `
		INSERT INTO daily_login_rewards (day, reward_type, reward_amount, premium_duration, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (day) DO UPDATE
		SET reward_type = EXCLUDED.reward_type,
		    reward_amount = EXCLUDED.reward_amount,
		    premium_duration = EXCLUDED.premium_duration,
		    is_active = EXCLUDED.is_active,
		    updated_at = NOW()
		RETURNING ` + rewardColumns
	out, err := scanReward(r.db.QueryRow(ctx, query,
		cfg.Day, cfg.RewardType, cfg.RewardAmount, cfg.PremiumDuration, cfg.IsActive))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert reward config (day=%d): %w", cfg.Day, err)
	}
	return out, nil
}

// SeedDefaultRewards inserts any missing default rows; existing (possibly
// admin-edited) rows are never overwritten.
func (r *Repository) SeedDefaultRewards(ctx context.Context, defaults []RewardConfig) error {
	for _, cfg := range defaults {
		_, err := r.db.Exec(ctx, `
			INSERT INTO daily_login_rewards (day, reward_type, reward_amount, premium_duration, is_active)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (day) DO NOTHING
		`, cfg.Day, cfg.RewardType, cfg.RewardAmount, cfg.PremiumDuration, cfg.IsActive)
		if err != nil {
			return fmt.Errorf("failed to seed reward config (day=%d): %w", cfg.Day, err)
		}
	}
	return nil
}
