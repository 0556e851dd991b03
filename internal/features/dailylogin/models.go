// Package dailylogin implements the daily-login streak engine: per-user
// claim state across calendar days, streak continue/reset decisions and
// reward resolution over a repeating 7-day cycle.
// models.go describes the persisted structures and operation results.
package dailylogin

import "time"

// CycleDays is the length of the repeating reward cycle.
const CycleDays = 7

// Reward types
const (
	RewardBalance = "balance"
	RewardChips   = "chips"
	RewardPremium = "premium"
)

// RewardConfig is one row of the weekly reward table, keyed by cycle day.
type RewardConfig struct {
	ID           int64     `db:"id"`
	Day          int       `db:"day"`           // 1..7, unique
	RewardType   string    `db:"reward_type"`   // balance | chips | premium
	RewardAmount int64     `db:"reward_amount"` // quantity for balance/chips
	// Days of premium granted; only meaningful (and only stored) for
	// the premium reward type.
	PremiumDuration *int      `db:"premium_duration"`
	IsActive        bool      `db:"is_active"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// ClaimRecord is one user's claim state, keyed by JID.
//
// CurrentDay is the cycle day the user will claim NEXT: it advances
// (wrapping 7→1) as part of each successful claim. CanClaim is an
// informational cache only; eligibility is always recomputed from
// LastClaimDate against today.
type ClaimRecord struct {
	ID            int64      `db:"id"`
	JID           string     `db:"jid"`
	CurrentStreak int        `db:"current_streak"`
	CurrentDay    int        `db:"current_day"`
	LastClaimDate *time.Time `db:"last_claim_date"` // calendar day, nil = never claimed
	TotalClaims   int        `db:"total_claims"`
	CanClaim      bool       `db:"can_claim"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// Reason codes surfaced to callers. Machine readable; the bot handler and
// the web API translate them into user-facing phrasing.
const (
	ReasonAlreadyClaimed = "already_claimed_today"
	ReasonNoReward       = "no_reward_configured"
	ReasonUserNotFound   = "user_not_found"
	ReasonError          = "error"
)

// Eligibility is the result of a side-effect-free eligibility check.
type Eligibility struct {
	Eligible    bool
	Reason      string // set when not eligible
	NewUser     bool   // no claim record exists yet
	StreakReset bool   // the upcoming claim restarts the cycle at day 1
}

// ClaimResult is the outcome of a claim attempt.
type ClaimResult struct {
	Success           bool
	Reason            string // set on failure
	Streak            int    // streak after this claim
	Day               int    // cycle day that was claimed
	NextDay           int    // cycle day stored for the following claim
	TotalClaims       int
	Reward            *RewardConfig
	RewardDescription string
}

// Status is the read-only summary used for display.
type Status struct {
	JID           string
	CurrentStreak int
	// Cycle day of the next claim. Already reflects post-claim advancement,
	// so display code must not advance it again.
	NextDay       int
	TotalClaims   int
	CanClaim      bool
	Reason        string // why not, when CanClaim is false
	ClaimedToday  bool
	StreakReset   bool // the next claim will restart at day 1
	LastClaimDate *time.Time
	Rewards       []*RewardConfig // active configs, ordered by day
}

// ResetResult is the outcome of an admin reset.
type ResetResult struct {
	Success bool
	Reason  string
}

// RewardUpdate carries the admin-editable fields of a reward config.
type RewardUpdate struct {
	RewardType      string
	RewardAmount    int64
	PremiumDuration *int
	IsActive        *bool // nil defaults to true
}

// ClaimMutation is everything ApplyClaim persists in one transaction:
// the claim-record transition plus the account-side reward grant.
type ClaimMutation struct {
	JID        string
	Today      time.Time // normalized claim date in the canonical zone
	Streak     int
	ClaimedDay int
	NextDay    int
	Reward     *RewardConfig
	Now        time.Time // wall-clock instant, for premium expiry arithmetic
}
