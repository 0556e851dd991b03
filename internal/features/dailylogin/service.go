// service.go contains the claim engine itself: eligibility, the streak
// state transition and reward resolution. Storage is injected through the
// Store interface so the engine can be tested against an in-memory fake.
package dailylogin

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"nomercy-bot/internal/common"
)

// Store is the persistence boundary of the engine. The postgres Repository
// implements it; tests substitute an in-memory fake.
//
// ApplyClaim must be atomic and must itself re-check that the record was
// not claimed for m.Today (returning common.ErrAlreadyClaimed otherwise),
// so that two concurrent claims can never both succeed.
type Store interface {
	// GetRecord returns the claim record for the JID, or
	// common.ErrClaimRecordNotFound if the user never claimed.
	GetRecord(ctx context.Context, jid string) (*ClaimRecord, error)
	// ApplyClaim persists the claim-record transition, the account reward
	// and the ledger entry in one transaction and returns the committed
	// record. Errors: common.ErrAlreadyClaimed, common.ErrAccountNotFound.
	ApplyClaim(ctx context.Context, m ClaimMutation) (*ClaimRecord, error)
	// ResetRecord zeroes the streak, rewinds the cycle to day 1, clears the
	// last claim date and lifts the claim lock. common.ErrClaimRecordNotFound
	// if the user has no record.
	ResetRecord(ctx context.Context, jid string) error
	// RefreshClaimFlags re-enables the informational can_claim flag for every
	// record not claimed today. Returns the number of rows touched.
	RefreshClaimFlags(ctx context.Context, today time.Time) (int64, error)

	// GetActiveReward returns the active config for the cycle day, or
	// common.ErrNoRewardConfigured when the day has no active config.
	GetActiveReward(ctx context.Context, day int) (*RewardConfig, error)
	ListActiveRewards(ctx context.Context) ([]*RewardConfig, error)
	UpsertReward(ctx context.Context, cfg RewardConfig) (*RewardConfig, error)
	// SeedDefaultRewards inserts the default table for any missing day.
	SeedDefaultRewards(ctx context.Context, defaults []RewardConfig) error
}

// Service is the daily-login engine.
type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time // injectable clock for tests
}

// NewService creates the engine. loc is the canonical timezone used for
// every day-boundary decision.
func NewService(store Store, loc *time.Location) *Service {
	return &Service{store: store, loc: loc, now: time.Now}
}

// today returns the current calendar day, midnight-normalized in the
// canonical zone.
func (s *Service) today() time.Time {
	return common.DateOf(s.now(), s.loc)
}

// EnsureDefaults seeds the reward table with the default 7-day cycle.
// Called once at startup; existing rows are left untouched.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	return s.store.SeedDefaultRewards(ctx, DefaultRewards)
}

// CheckEligibility decides whether the user can claim right now. Read-only
// and idempotent: safe to call repeatedly for status displays.
func (s *Service) CheckEligibility(ctx context.Context, jid string) Eligibility {
	today := s.today()

	rec, err := s.store.GetRecord(ctx, jid)
	if err != nil {
		if errors.Is(err, common.ErrClaimRecordNotFound) {
			return Eligibility{Eligible: true, NewUser: true, StreakReset: true}
		}
		log.WithError(err).WithField("jid", jid).Error("Eligibility check failed")
		return Eligibility{Eligible: false, Reason: ReasonError}
	}

	if rec.LastClaimDate == nil {
		// Record exists (e.g. after an admin reset) but nothing was claimed yet.
		return Eligibility{Eligible: true, StreakReset: true}
	}
	if common.SameDay(*rec.LastClaimDate, today) {
		return Eligibility{Eligible: false, Reason: ReasonAlreadyClaimed}
	}
	if common.DaysBetween(*rec.LastClaimDate, today) > 1 {
		// At least one full day missed: the next claim restarts the cycle.
		return Eligibility{Eligible: true, StreakReset: true}
	}
	return Eligibility{Eligible: true}
}

// Claim performs one daily claim: re-checks eligibility, resolves the
// reward for the cycle day being claimed, and applies the record
// transition plus the account reward atomically.
//
// The reward granted always belongs to the day the user was sitting on
// going into the claim; the stored current_day is advanced to the next
// cycle day only as part of the same transaction. When the claimed day has
// no active reward config the claim fails with no_reward_configured and
// nothing is persisted (the streak is not advanced).
func (s *Service) Claim(ctx context.Context, jid string) *ClaimResult {
	today := s.today()

	var rec *ClaimRecord
	if r, err := s.store.GetRecord(ctx, jid); err != nil {
		if !errors.Is(err, common.ErrClaimRecordNotFound) {
			log.WithError(err).WithField("jid", jid).Error("Claim: record read failed")
			return &ClaimResult{Reason: ReasonError}
		}
	} else {
		rec = r
	}

	if rec != nil && rec.LastClaimDate != nil && common.SameDay(*rec.LastClaimDate, today) {
		return &ClaimResult{Reason: ReasonAlreadyClaimed}
	}

	reset := rec == nil || rec.LastClaimDate == nil ||
		common.DaysBetween(*rec.LastClaimDate, today) > 1

	claimDay, streak := 1, 1
	if !reset {
		claimDay = clampDay(rec.CurrentDay)
		streak = rec.CurrentStreak + 1
	}

	reward, err := s.store.GetActiveReward(ctx, claimDay)
	if err != nil {
		if errors.Is(err, common.ErrNoRewardConfigured) {
			return &ClaimResult{Reason: ReasonNoReward}
		}
		log.WithError(err).WithField("jid", jid).Error("Claim: reward lookup failed")
		return &ClaimResult{Reason: ReasonError}
	}

	nextDay := claimDay%CycleDays + 1

	committed, err := s.store.ApplyClaim(ctx, ClaimMutation{
		JID:        jid,
		Today:      today,
		Streak:     streak,
		ClaimedDay: claimDay,
		NextDay:    nextDay,
		Reward:     reward,
		Now:        s.now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAlreadyClaimed):
			// Lost a race against a concurrent claim for the same JID.
			return &ClaimResult{Reason: ReasonAlreadyClaimed}
		case errors.Is(err, common.ErrAccountNotFound):
			return &ClaimResult{Reason: ReasonUserNotFound}
		default:
			log.WithError(err).WithField("jid", jid).Error("Claim: apply failed")
			return &ClaimResult{Reason: ReasonError}
		}
	}

	log.WithFields(log.Fields{
		"jid":    jid,
		"day":    claimDay,
		"streak": streak,
		"reward": DescribeReward(reward),
	}).Info("Daily login claimed")

	return &ClaimResult{
		Success:           true,
		Streak:            streak,
		Day:               claimDay,
		NextDay:           nextDay,
		TotalClaims:       committed.TotalClaims,
		Reward:            reward,
		RewardDescription: DescribeReward(reward),
	}
}

// GetStatus returns the read-only claim summary plus the active reward
// table for rendering a 7-day preview. Never mutates persisted state.
func (s *Service) GetStatus(ctx context.Context, jid string) (*Status, error) {
	today := s.today()

	status := &Status{JID: jid, NextDay: 1, CanClaim: true, StreakReset: true}

	rec, err := s.store.GetRecord(ctx, jid)
	if err != nil && !errors.Is(err, common.ErrClaimRecordNotFound) {
		return nil, err
	}
	if rec != nil {
		status.CurrentStreak = rec.CurrentStreak
		status.TotalClaims = rec.TotalClaims
		status.LastClaimDate = rec.LastClaimDate

		if rec.LastClaimDate != nil {
			switch {
			case common.SameDay(*rec.LastClaimDate, today):
				// current_day was already advanced by today's claim;
				// it IS the day of tomorrow's claim, no re-advance.
				status.ClaimedToday = true
				status.CanClaim = false
				status.Reason = ReasonAlreadyClaimed
				status.NextDay = clampDay(rec.CurrentDay)
				status.StreakReset = false
			case common.DaysBetween(*rec.LastClaimDate, today) == 1:
				status.NextDay = clampDay(rec.CurrentDay)
				status.StreakReset = false
			}
			// Gap of 2+ days keeps the reset defaults: next claim is day 1.
		}
	}

	rewards, err := s.store.ListActiveRewards(ctx)
	if err != nil {
		return nil, err
	}
	status.Rewards = rewards

	return status, nil
}

// ResetUser zeroes a user's streak state (admin operation). Resetting a
// user who never claimed fails with user_not_found; resetting an
// already-reset record succeeds trivially.
func (s *Service) ResetUser(ctx context.Context, jid string) *ResetResult {
	err := s.store.ResetRecord(ctx, jid)
	if err != nil {
		if errors.Is(err, common.ErrClaimRecordNotFound) {
			return &ResetResult{Reason: ReasonUserNotFound}
		}
		log.WithError(err).WithField("jid", jid).Error("Daily login reset failed")
		return &ResetResult{Reason: ReasonError}
	}

	log.WithField("jid", jid).Info("Daily login state reset")
	return &ResetResult{Success: true}
}

// UpsertRewardConfig creates or updates the reward config for a cycle day
// (admin operation). PremiumDuration is persisted only for the premium
// type; IsActive defaults to true when not supplied.
func (s *Service) UpsertRewardConfig(ctx context.Context, day int, upd RewardUpdate) (*RewardConfig, error) {
	if day < 1 || day > CycleDays {
		return nil, common.ErrInvalidDay
	}
	if !ValidRewardType(upd.RewardType) {
		return nil, common.ErrInvalidRewardType
	}

	cfg := RewardConfig{
		Day:          day,
		RewardType:   upd.RewardType,
		RewardAmount: upd.RewardAmount,
		IsActive:     true,
	}
	if upd.RewardType == RewardPremium {
		cfg.PremiumDuration = upd.PremiumDuration
	}
	if upd.IsActive != nil {
		cfg.IsActive = *upd.IsActive
	}

	return s.store.UpsertReward(ctx, cfg)
}

// ListRewards returns the active reward table ordered by day.
func (s *Service) ListRewards(ctx context.Context) ([]*RewardConfig, error) {
	return s.store.ListActiveRewards(ctx)
}

// RefreshClaimFlags re-enables the informational can_claim cache for every
// user who has not claimed today. Run by the scheduler at midnight.
func (s *Service) RefreshClaimFlags(ctx context.Context) error {
	n, err := s.store.RefreshClaimFlags(ctx, s.today())
	if err != nil {
		return err
	}
	log.WithField("count", n).Info("Daily claim flags refreshed")
	return nil
}

// clampDay guards against corrupted records: current_day outside [1,7]
// falls back to day 1.
func clampDay(day int) int {
	if day < 1 || day > CycleDays {
		return 1
	}
	return day
}
