// Package accounts manages bot user accounts: registration, balances,
// chips and premium status. models.go describes the account structures.
package accounts

import "time"

// Account statuses
const (
	StatusBasic   = "basic"
	StatusPremium = "premium"
)

// UnlimitedCommandLimit is the sentinel stored in command_limit while an
// account holds premium status.
const UnlimitedCommandLimit = -1

// Account represents one WhatsApp user known to the bot, keyed by JID.
type Account struct {
	ID           int64      `db:"id"`
	JID          string     `db:"jid"`           // WhatsApp JID user part, e.g. "628123456789"
	Name         string     `db:"name"`          // Push name from WhatsApp (may be empty)
	Balance      int64      `db:"balance"`       // Main currency
	Chips        int64      `db:"chips"`         // Casino currency
	Status       string     `db:"status"`        // "basic" or "premium"
	PremiumUntil *time.Time `db:"premium_until"` // nil unless premium was ever granted
	CommandLimit int        `db:"command_limit"` // Daily command quota, -1 = unlimited
	IsBanned     bool       `db:"is_banned"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// IsPremiumActive reports whether the account holds a premium subscription
// that has not lapsed as of now. A premium status with a missing or passed
// premium_until counts as lapsed.
func (a *Account) IsPremiumActive(now time.Time) bool {
	return a.Status == StatusPremium && a.PremiumUntil != nil && a.PremiumUntil.After(now)
}

// ExtendPremium computes the new premium expiry when `days` premium days
// are granted at `now` to an account in `status`. An active premium
// subscription is extended additively; a lapsed, absent or non-premium one
// restarts from now (a leftover future premium_until on a basic account
// does not stack).
func ExtendPremium(now time.Time, status string, until *time.Time, days int) time.Time {
	grant := time.Duration(days) * 24 * time.Hour
	if status == StatusPremium && until != nil && until.After(now) {
		return until.Add(grant)
	}
	return now.Add(grant)
}

// Transaction represents one ledger entry. Every balance, chip or premium
// movement is recorded here.
type Transaction struct {
	ID              int64     `db:"id"`
	JID             string    `db:"jid"`
	Amount          int64     `db:"amount"`   // Always positive
	Currency        string    `db:"currency"` // 'balance', 'chips' or 'premium_days'
	TransactionType string    `db:"transaction_type"`
	Description     string    `db:"description"`
	CreatedAt       time.Time `db:"created_at"`
}

// Ledger currencies
const (
	CurrencyBalance     = "balance"
	CurrencyChips       = "chips"
	CurrencyPremiumDays = "premium_days"
)

// Transaction types
const (
	TxTypeDailyBalance = "daily_login_balance" // Daily login balance reward
	TxTypeDailyChips   = "daily_login_chips"   // Daily login chip reward
	TxTypeDailyPremium = "daily_login_premium" // Daily login premium grant
	TxTypeAdminGive    = "admin_give"
)
