package dailylogin

import (
	"context"
	"sync"
	"testing"
	"time"

	"nomercy-bot/internal/common"
	"nomercy-bot/internal/features/accounts"
)

// ---------------------------------------------------------------------------
// In-memory Store fake
// ---------------------------------------------------------------------------

type fakeAccount struct {
	balance      int64
	chips        int64
	status       string
	premiumUntil *time.Time
	commandLimit int
}

type fakeLedgerEntry struct {
	jid      string
	amount   int64
	currency string
	txType   string
}

// fakeStore mirrors the atomicity contract of the postgres Repository: the
// claim guard inside ApplyClaim is re-checked under the lock, so concurrent
// claims race exactly like they do against the real conditional UPDATE.
type fakeStore struct {
	mu       sync.Mutex
	records  map[string]*ClaimRecord
	accounts map[string]*fakeAccount
	rewards  map[int]*RewardConfig
	ledger   []fakeLedgerEntry

	// invoked under the lock after a record read, for interleaving tests
	afterGet func()
}

func newFakeStore() *fakeStore {
	s := &fakeStore{
		records:  make(map[string]*ClaimRecord),
		accounts: make(map[string]*fakeAccount),
		rewards:  make(map[int]*RewardConfig),
	}
	for i := range DefaultRewards {
		r := DefaultRewards[i]
		s.rewards[r.Day] = &r
	}
	return s
}

func (s *fakeStore) addAccount(jid string) {
	s.accounts[jid] = &fakeAccount{status: accounts.StatusBasic, commandLimit: 25}
}

func (s *fakeStore) GetRecord(_ context.Context, jid string) (*ClaimRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[jid]
	if !ok {
		return nil, common.ErrClaimRecordNotFound
	}
	cp := *rec
	if s.afterGet != nil {
		s.afterGet()
	}
	return &cp, nil
}

func (s *fakeStore) ApplyClaim(_ context.Context, m ClaimMutation) (*ClaimRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[m.JID]
	if !ok {
		return nil, common.ErrAccountNotFound
	}

	rec, ok := s.records[m.JID]
	if ok && rec.LastClaimDate != nil && !rec.LastClaimDate.Before(m.Today) {
		return nil, common.ErrAlreadyClaimed
	}
	if !ok {
		rec = &ClaimRecord{JID: m.JID, CurrentDay: 1, CanClaim: true}
		s.records[m.JID] = rec
	}

	today := m.Today
	rec.CurrentStreak = m.Streak
	rec.CurrentDay = m.NextDay
	rec.LastClaimDate = &today
	rec.TotalClaims++
	rec.CanClaim = false

	switch m.Reward.RewardType {
	case RewardBalance:
		acc.balance += m.Reward.RewardAmount
		s.ledger = append(s.ledger, fakeLedgerEntry{m.JID, m.Reward.RewardAmount, accounts.CurrencyBalance, accounts.TxTypeDailyBalance})
	case RewardChips:
		acc.chips += m.Reward.RewardAmount
		s.ledger = append(s.ledger, fakeLedgerEntry{m.JID, m.Reward.RewardAmount, accounts.CurrencyChips, accounts.TxTypeDailyChips})
	case RewardPremium:
		days := 0
		if m.Reward.PremiumDuration != nil {
			days = *m.Reward.PremiumDuration
		}
		until := accounts.ExtendPremium(m.Now, acc.status, acc.premiumUntil, days)
		acc.premiumUntil = &until
		acc.status = accounts.StatusPremium
		acc.commandLimit = accounts.UnlimitedCommandLimit
		s.ledger = append(s.ledger, fakeLedgerEntry{m.JID, int64(days), accounts.CurrencyPremiumDays, accounts.TxTypeDailyPremium})
	}

	cp := *rec
	return &cp, nil
}

func (s *fakeStore) ResetRecord(_ context.Context, jid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[jid]
	if !ok {
		return common.ErrClaimRecordNotFound
	}
	rec.CurrentStreak = 0
	rec.CurrentDay = 1
	rec.LastClaimDate = nil
	rec.CanClaim = true
	return nil
}

func (s *fakeStore) RefreshClaimFlags(_ context.Context, today time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, rec := range s.records {
		if !rec.CanClaim && (rec.LastClaimDate == nil || rec.LastClaimDate.Before(today)) {
			rec.CanClaim = true
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) GetActiveReward(_ context.Context, day int) (*RewardConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rewards[day]
	if !ok || !r.IsActive {
		return nil, common.ErrNoRewardConfigured
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) ListActiveRewards(_ context.Context) ([]*RewardConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*RewardConfig
	for day := 1; day <= CycleDays; day++ {
		if r, ok := s.rewards[day]; ok && r.IsActive {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertReward(_ context.Context, cfg RewardConfig) (*RewardConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rewards[cfg.Day] = &cfg
	cp := cfg
	return &cp, nil
}

func (s *fakeStore) SeedDefaultRewards(_ context.Context, defaults []RewardConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range defaults {
		if _, ok := s.rewards[defaults[i].Day]; !ok {
			r := defaults[i]
			s.rewards[r.Day] = &r
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const testJID = "628123456789"

func newTestService(store *fakeStore, now time.Time) *Service {
	loc := common.LoadLocation(common.DefaultTimezone)
	svc := NewService(store, loc)
	svc.now = func() time.Time { return now }
	return svc
}

func jakartaNoon(year int, month time.Month, day int) time.Time {
	loc := common.LoadLocation(common.DefaultTimezone)
	return time.Date(year, month, day, 12, 0, 0, 0, loc)
}

// ---------------------------------------------------------------------------
// Claim
// ---------------------------------------------------------------------------

func TestClaimNewUser(t *testing.T) {
	store := newFakeStore()
	store.addAccount(testJID)
	svc := newTestService(store, jakartaNoon(2025, 1, 1))

	res := svc.Claim(context.Background(), testJID)

	if !res.Success {
		t.Fatalf("expected success, got reason %q", res.Reason)
	}
	if res.Day != 1 || res.Streak != 1 || res.NextDay != 2 || res.TotalClaims != 1 {
		t.Errorf("got day=%d streak=%d nextDay=%d total=%d, want 1/1/2/1",
			res.Day, res.Streak, res.NextDay, res.TotalClaims)
	}
	if store.accounts[testJID].balance != 500 {
		t.Errorf("balance = %d, want 500", store.accounts[testJID].balance)
	}
	if res.RewardDescription != "+500 balance" {
		t.Errorf("description = %q", res.RewardDescription)
	}
}

func TestClaimSameDayDuplicate(t *testing.T) {
	store := newFakeStore()
	store.addAccount(testJID)
	svc := newTestService(store, jakartaNoon(2025, 1, 1))

	if res := svc.Claim(context.Background(), testJID); !res.Success {
		t.Fatalf("first claim failed: %q", res.Reason)
	}

	res := svc.Claim(context.Background(), testJID)
	if res.Success || res.Reason != ReasonAlreadyClaimed {
		t.Errorf("got success=%v reason=%q, want already_claimed_today", res.Success, res.Reason)
	}
	if store.accounts[testJID].balance != 500 {
		t.Errorf("duplicate claim changed balance: %d", store.accounts[testJID].balance)
	}
}

func TestClaimConsecutiveDays(t *testing.T) {
	store := newFakeStore()
	store.addAccount(testJID)
	svc := newTestService(store, jakartaNoon(2025, 1, 1))

	svc.Claim(context.Background(), testJID)

	svc.now = func() time.Time { return jakartaNoon(2025, 1, 2) }
	res := svc.Claim(context.Background(), testJID)

	if !res.Success {
		t.Fatalf("second claim failed: %q", res.Reason)
	}
	if res.Day != 2 || res.Streak != 2 || res.NextDay != 3 {
		t.Errorf("got day=%d streak=%d nextDay=%d, want 2/2/3", res.Day, res.Streak, res.NextDay)
	}
	if store.accounts[testJID].chips != 100 {
		t.Errorf("chips = %d, want 100", store.accounts[testJID].chips)
	}
}

func TestClaimAfterGapResets(t *testing.T) {
	store := newFakeStore()
	store.addAccount(testJID)
	svc := newTestService(store, jakartaNoon(2025, 1, 1))

	svc.Claim(context.Background(), testJID)
	svc.now = func() time.Time { return jakartaNoon(2025, 1, 2) }
	svc.Claim(context.Background(), testJID)

	// Skip Jan 3 entirely.
	svc.now = func() time.Time { return jakartaNoon(2025, 1, 4) }
	res := svc.Claim(context.Background(), testJID)

	if !res.Success {
		t.Fatalf("claim after gap failed: %q", res.Reason)
	}
	if res.Day != 1 || res.Streak != 1 || res.NextDay != 2 {
		t.Errorf("got day=%d streak=%d nextDay=%d, want reset to 1/1/2", res.Day, res.Streak, res.NextDay)
	}
	if res.TotalClaims != 3 {
		t.Errorf("total = %d, want 3 (reset keeps lifetime count)", res.TotalClaims)
	}
}

func TestClaimDaySevenGrantsPremiumAndWraps(t *testing.T) {
	store := newFakeStore()
	store.addAccount(testJID)
	svc := newTestService(store, jakartaNoon(2025, 1, 1))

	// Walk the full cycle, day by day.
	var res *ClaimResult
	for d := 0; d < 7; d++ {
		day := jakartaNoon(2025, 1, 1+d)
		svc.now = func() time.Time { return day }
		res = svc.Claim(context.Background(), testJID)
		if !res.Success {
			t.Fatalf("claim %d failed: %q", d+1, res.Reason)
		}
	}

	if res.Day != 7 || res.Streak != 7 || res.NextDay != 1 {
		t.Errorf("got day=%d streak=%d nextDay=%d, want 7/7/1", res.Day, res.Streak, res.NextDay)
	}

	acc := store.accounts[testJID]
	if acc.status != accounts.StatusPremium {
		t.Errorf("status = %q, want premium", acc.status)
	}
	if acc.commandLimit != accounts.UnlimitedCommandLimit {
		t.Errorf("command_limit = %d, want %d", acc.commandLimit, accounts.UnlimitedCommandLimit)
	}
	if acc.premiumUntil == nil {
		t.Fatal("premium_until not set")
	}
	wantUntil := jakartaNoon(2025, 1, 7).Add(24 * time.Hour)
	if !acc.premiumUntil.Equal(wantUntil) {
		t.Errorf("premium_until = %v, want %v", acc.premiumUntil, wantUntil)
	}

	// Day 8 wraps back to cycle day 1 while the streak keeps growing.
	svc.now = func() time.Time { return jakartaNoon(2025, 1, 8) }
	res = svc.Claim(context.Background(), testJID)
	if !res.Success || res.Day != 1 || res.Streak != 8 {
		t.Errorf("wrap claim: success=%v day=%d streak=%d, want true/1/8", res.Success, res.Day, res.Streak)
	}
}

func TestClaimNoRewardConfigured(t *testing.T) {
	store := newFakeStore()
	store.addAccount(testJID)
	delete(store.rewards, 1)
	svc := newTestService(store, jakartaNoon(2025, 1, 1))

	res := svc.Claim(context.Background(), testJID)

	if res.Success || res.Reason != ReasonNoReward {
		t.Errorf("got success=%v reason=%q, want no_reward_configured", res.Success, res.Reason)
	}
	// Nothing may be persisted: the user can claim again once a config exists.
	if _, err := store.GetRecord(context.Background(), testJID); err == nil {
		t.Error("claim record was created despite missing reward config")
	}
	if store.accounts[testJID].balance != 0 {
		t.Errorf("balance changed: %d", store.accounts[testJID].balance)
	}
}

func TestClaimUnknownAccount(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, jakartaNoon(2025, 1, 1))

	res := svc.Claim(context.Background(), testJID)

	if res.Success || res.Reason != ReasonUserNotFound {
		t.Errorf("got success=%v reason=%q, want user_not_found", res.Success, res.Reason)
	}
}

func TestClaimDayBoundaryInCanonicalZone(t *testing.T) {
	store := newFakeStore()
	store.addAccount(testJID)

	// 23:30 UTC on Jan 1 is already Jan 2 in Jakarta.
	svc := newTestService(store, time.Date(2025, 1, 1, 23, 30, 0, 0, time.UTC))
	if res := svc.Claim(context.Background(), testJID); !res.Success {
		t.Fatalf("first claim failed: %q", res.Reason)
	}

	// Ten UTC-hours later it is still Jan 2 in Jakarta: same day, no claim.
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC) }
	res := svc.Claim(context.Background(), testJID)
	if res.Success || res.Reason != ReasonAlreadyClaimed {
		t.Errorf("got success=%v reason=%q, want already_claimed_today", res.Success, res.Reason)
	}
}

func TestClaimConcurrentSingleWinner(t *testing.T) {
	store := newFakeStore()
	store.addAccount(testJID)
	svc := newTestService(store, jakartaNoon(2025, 1, 1))

	const n = 16
	results := make([]*ClaimResult, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Claim(context.Background(), testJID)
		}(i)
	}
	wg.Wait()

	var wins int
	for _, res := range results {
		if res.Success {
			wins++
		} else if res.Reason != ReasonAlreadyClaimed {
			t.Errorf("loser got reason %q, want already_claimed_today", res.Reason)
		}
	}
	if wins != 1 {
		t.Errorf("%d claims succeeded, want exactly 1", wins)
	}
	if store.accounts[testJID].balance != 500 {
		t.Errorf("balance = %d, want 500 (reward granted once)", store.accounts[testJID].balance)
	}
}

func TestClaimTotalReflectsCommittedValue(t *testing.T) {
	store := newFakeStore()
	store.addAccount(testJID)
	svc := newTestService(store, jakartaNoon(2025, 1, 1))

	svc.Claim(context.Background(), testJID)

	// An out-of-band write lands between the engine's read and its apply;
	// the result must carry the total the transaction actually committed.
	store.afterGet = func() {
		store.records[testJID].TotalClaims += 4
		store.afterGet = nil
	}

	svc.now = func() time.Time { return jakartaNoon(2025, 1, 2) }
	res := svc.Claim(context.Background(), testJID)

	if !res.Success {
		t.Fatalf("claim failed: %q", res.Reason)
	}
	if want := store.records[testJID].TotalClaims; res.TotalClaims != want {
		t.Errorf("TotalClaims = %d, want committed value %d", res.TotalClaims, want)
	}
	if res.TotalClaims != 6 {
		t.Errorf("TotalClaims = %d, want 6", res.TotalClaims)
	}
}

// ---------------------------------------------------------------------------
// Eligibility and status
// ---------------------------------------------------------------------------

func TestCheckEligibility(t *testing.T) {
	store := newFakeStore()
	store.addAccount(testJID)
	svc := newTestService(store, jakartaNoon(2025, 1, 1))

	el := svc.CheckEligibility(context.Background(), testJID)
	if !el.Eligible || !el.NewUser || !el.StreakReset {
		t.Errorf("new user: %+v", el)
	}

	svc.Claim(context.Background(), testJID)

	el = svc.CheckEligibility(context.Background(), testJID)
	if el.Eligible || el.Reason != ReasonAlreadyClaimed {
		t.Errorf("after claim: %+v", el)
	}

	svc.now = func() time.Time { return jakartaNoon(2025, 1, 2) }
	el = svc.CheckEligibility(context.Background(), testJID)
	if !el.Eligible || el.StreakReset {
		t.Errorf("next day: %+v", el)
	}

	svc.now = func() time.Time { return jakartaNoon(2025, 1, 5) }
	el = svc.CheckEligibility(context.Background(), testJID)
	if !el.Eligible || !el.StreakReset {
		t.Errorf("after gap: %+v", el)
	}
}

func TestGetStatus(t *testing.T) {
	store := newFakeStore()
	store.addAccount(testJID)
	svc := newTestService(store, jakartaNoon(2025, 1, 1))

	t.Run("new user", func(t *testing.T) {
		st, err := svc.GetStatus(context.Background(), testJID)
		if err != nil {
			t.Fatal(err)
		}
		if !st.CanClaim || st.NextDay != 1 || !st.StreakReset {
			t.Errorf("new user status: %+v", st)
		}
		if len(st.Rewards) != 7 {
			t.Errorf("rewards = %d, want 7", len(st.Rewards))
		}
	})

	svc.Claim(context.Background(), testJID)

	t.Run("claimed today", func(t *testing.T) {
		st, err := svc.GetStatus(context.Background(), testJID)
		if err != nil {
			t.Fatal(err)
		}
		if st.CanClaim || !st.ClaimedToday || st.Reason != ReasonAlreadyClaimed {
			t.Errorf("claimed-today status: %+v", st)
		}
		// current_day is already advanced: it IS tomorrow's day.
		if st.NextDay != 2 {
			t.Errorf("NextDay = %d, want 2", st.NextDay)
		}
	})

	t.Run("next day", func(t *testing.T) {
		svc.now = func() time.Time { return jakartaNoon(2025, 1, 2) }
		st, _ := svc.GetStatus(context.Background(), testJID)
		if !st.CanClaim || st.NextDay != 2 || st.StreakReset {
			t.Errorf("next-day status: %+v", st)
		}
	})

	t.Run("after gap", func(t *testing.T) {
		svc.now = func() time.Time { return jakartaNoon(2025, 1, 10) }
		st, _ := svc.GetStatus(context.Background(), testJID)
		if !st.CanClaim || st.NextDay != 1 || !st.StreakReset {
			t.Errorf("post-gap status: %+v", st)
		}
		if st.CurrentStreak != 1 {
			t.Errorf("streak = %d, want 1 (status never mutates)", st.CurrentStreak)
		}
	})
}

// ---------------------------------------------------------------------------
// Reset and maintenance
// ---------------------------------------------------------------------------

func TestResetUser(t *testing.T) {
	store := newFakeStore()
	store.addAccount(testJID)
	svc := newTestService(store, jakartaNoon(2025, 1, 5))

	svc.Claim(context.Background(), testJID)

	res := svc.ResetUser(context.Background(), testJID)
	if !res.Success {
		t.Fatalf("reset failed: %q", res.Reason)
	}

	// Immediately claimable again, back at day 1.
	claim := svc.Claim(context.Background(), testJID)
	if !claim.Success || claim.Day != 1 || claim.Streak != 1 {
		t.Errorf("post-reset claim: success=%v day=%d streak=%d", claim.Success, claim.Day, claim.Streak)
	}

	res = svc.ResetUser(context.Background(), "unknown")
	if res.Success || res.Reason != ReasonUserNotFound {
		t.Errorf("reset of unknown user: %+v", res)
	}
}

func TestRefreshClaimFlags(t *testing.T) {
	store := newFakeStore()
	store.addAccount(testJID)
	svc := newTestService(store, jakartaNoon(2025, 1, 1))

	svc.Claim(context.Background(), testJID)
	if store.records[testJID].CanClaim {
		t.Fatal("can_claim should be false right after a claim")
	}

	svc.now = func() time.Time { return jakartaNoon(2025, 1, 2) }
	if err := svc.RefreshClaimFlags(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !store.records[testJID].CanClaim {
		t.Error("can_claim not re-enabled for a past-day claim")
	}
}

// ---------------------------------------------------------------------------
// Reward config admin
// ---------------------------------------------------------------------------

func TestUpsertRewardConfig(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, jakartaNoon(2025, 1, 1))
	ctx := context.Background()

	t.Run("day out of range", func(t *testing.T) {
		if _, err := svc.UpsertRewardConfig(ctx, 0, RewardUpdate{RewardType: RewardBalance}); err != common.ErrInvalidDay {
			t.Errorf("day 0: err = %v", err)
		}
		if _, err := svc.UpsertRewardConfig(ctx, 8, RewardUpdate{RewardType: RewardBalance}); err != common.ErrInvalidDay {
			t.Errorf("day 8: err = %v", err)
		}
	})

	t.Run("invalid type", func(t *testing.T) {
		if _, err := svc.UpsertRewardConfig(ctx, 1, RewardUpdate{RewardType: "gold"}); err != common.ErrInvalidRewardType {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("premium duration only kept for premium", func(t *testing.T) {
		days := 3
		cfg, err := svc.UpsertRewardConfig(ctx, 2, RewardUpdate{
			RewardType: RewardBalance, RewardAmount: 750, PremiumDuration: &days,
		})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.PremiumDuration != nil {
			t.Error("premium_duration stored for a balance reward")
		}

		cfg, err = svc.UpsertRewardConfig(ctx, 7, RewardUpdate{
			RewardType: RewardPremium, PremiumDuration: &days,
		})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.PremiumDuration == nil || *cfg.PremiumDuration != 3 {
			t.Errorf("premium_duration = %v, want 3", cfg.PremiumDuration)
		}
	})

	t.Run("is_active defaults to true", func(t *testing.T) {
		cfg, err := svc.UpsertRewardConfig(ctx, 3, RewardUpdate{RewardType: RewardChips, RewardAmount: 50})
		if err != nil {
			t.Fatal(err)
		}
		if !cfg.IsActive {
			t.Error("is_active should default to true")
		}

		off := false
		cfg, err = svc.UpsertRewardConfig(ctx, 3, RewardUpdate{RewardType: RewardChips, RewardAmount: 50, IsActive: &off})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.IsActive {
			t.Error("is_active = true, want false")
		}
	})

	t.Run("deactivated day blocks the claim", func(t *testing.T) {
		store.addAccount(testJID)
		off := false
		if _, err := svc.UpsertRewardConfig(ctx, 1, RewardUpdate{RewardType: RewardBalance, RewardAmount: 500, IsActive: &off}); err != nil {
			t.Fatal(err)
		}
		res := svc.Claim(ctx, testJID)
		if res.Success || res.Reason != ReasonNoReward {
			t.Errorf("got success=%v reason=%q, want no_reward_configured", res.Success, res.Reason)
		}
	})
}
