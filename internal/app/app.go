// Package app is the assembly point: it builds the database pool, runs
// migrations, constructs repositories, services, handlers and wires
// them into the Bot, the HTTP API and the scheduler.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"nomercy-bot/internal/api"
	"nomercy-bot/internal/bot"
	"nomercy-bot/internal/bot/filters"
	"nomercy-bot/internal/common"
	"nomercy-bot/internal/config"
	"nomercy-bot/internal/db/postgres"
	"nomercy-bot/internal/features/accounts"
	"nomercy-bot/internal/features/dailylogin"
	"nomercy-bot/internal/jobs"
)

// App holds all long-lived components.
type App struct {
	Bot       *bot.Bot
	API       *api.Server
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
}

// New creates and initializes the application. Initialization order
// matters: the database comes first, then services, then the bot.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Database ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}

	// === 2. Repositories ===
	accountRepo := accounts.NewRepository(pool)
	dailyRepo := dailylogin.NewRepository(pool)

	// === 3. Services ===
	accountService := accounts.NewService(accountRepo, cfg)
	loc := common.LoadLocation(cfg.AppTimezone)
	dailyService := dailylogin.NewService(dailyRepo, loc)

	// Seed the 7-day reward table on first start.
	if err := dailyService.EnsureDefaults(ctx); err != nil {
		return nil, fmt.Errorf("reward seeding failed: %w", err)
	}

	// === 4. WhatsApp client ===
	client, err := bot.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("whatsapp client failed: %w", err)
	}

	// === 5. Filters and the bot itself ===
	chatFilter := filters.NewChatFilter(cfg.GroupJID, accountService)
	b := bot.New(client, cfg, accountService, chatFilter)

	// === 6. Handlers (they reply through the bot) ===
	accountHandler := accounts.NewHandler(accountService, b, cfg)
	dailyHandler := dailylogin.NewHandler(dailyService, b, cfg)
	b.SetHandlers(accountHandler, dailyHandler)

	// === 7. HTTP API and scheduler ===
	server := api.NewServer(cfg, dailyService)
	scheduler := jobs.NewScheduler(cfg, dailyService, accountService)

	log.Info("Application components initialized")

	return &App{
		Bot:       b,
		API:       server,
		Scheduler: scheduler,
		DB:        pool,
	}, nil
}

// runMigrations applies all SQL migrations in order.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.InitMigrations(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Accounts},
		{2, migration002Transactions},
		{3, migration003DailyLoginRewards},
		{4, migration004DailyLoginStatus},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
	}

	return nil
}

// SQL migrations are embedded in the binary to keep deployment a single
// container image.

var migration001Accounts = `
CREATE TABLE IF NOT EXISTS accounts (
    id BIGSERIAL PRIMARY KEY,
    jid VARCHAR(64) UNIQUE NOT NULL,
    name VARCHAR(255) NOT NULL DEFAULT '',
    balance BIGINT NOT NULL DEFAULT 0,
    chips BIGINT NOT NULL DEFAULT 0,
    status VARCHAR(16) NOT NULL DEFAULT 'basic',
    premium_until TIMESTAMPTZ,
    command_limit INTEGER NOT NULL DEFAULT 25,
    is_banned BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_accounts_jid ON accounts(jid);
CREATE INDEX IF NOT EXISTS idx_accounts_premium_until ON accounts(premium_until);
`

var migration002Transactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    jid VARCHAR(64) NOT NULL REFERENCES accounts(jid),
    amount BIGINT NOT NULL,
    currency VARCHAR(32) NOT NULL,
    transaction_type VARCHAR(50) NOT NULL,
    description TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_jid ON transactions(jid);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

var migration003DailyLoginRewards = `
CREATE TABLE IF NOT EXISTS daily_login_rewards (
    id BIGSERIAL PRIMARY KEY,
    day INTEGER UNIQUE NOT NULL CHECK (day BETWEEN 1 AND 7),
    reward_type VARCHAR(16) NOT NULL,
    reward_amount BIGINT NOT NULL DEFAULT 0,
    premium_duration INTEGER,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration004DailyLoginStatus = `
CREATE TABLE IF NOT EXISTS daily_login_status (
    id BIGSERIAL PRIMARY KEY,
    jid VARCHAR(64) UNIQUE NOT NULL REFERENCES accounts(jid),
    current_streak INTEGER NOT NULL DEFAULT 0,
    current_day INTEGER NOT NULL DEFAULT 1,
    last_claim_date DATE,
    total_claims INTEGER NOT NULL DEFAULT 0,
    can_claim BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_daily_login_status_jid ON daily_login_status(jid);
`
