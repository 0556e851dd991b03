// rewards.go holds the default 7-day reward table and reward formatting.
package dailylogin

import "fmt"

// defaultPremiumDays is the premium duration seeded for day 7.
var defaultPremiumDays = 1

// DefaultRewards is the table seeded when a cycle day has no config yet.
// Admins edit it afterwards through UpsertRewardConfig; rows are never
// deleted, only deactivated.
var DefaultRewards = []RewardConfig{
	{Day: 1, RewardType: RewardBalance, RewardAmount: 500, IsActive: true},
	{Day: 2, RewardType: RewardChips, RewardAmount: 100, IsActive: true},
	{Day: 3, RewardType: RewardBalance, RewardAmount: 1000, IsActive: true},
	{Day: 4, RewardType: RewardChips, RewardAmount: 200, IsActive: true},
	{Day: 5, RewardType: RewardBalance, RewardAmount: 1500, IsActive: true},
	{Day: 6, RewardType: RewardChips, RewardAmount: 300, IsActive: true},
	{Day: 7, RewardType: RewardPremium, RewardAmount: 0, PremiumDuration: &defaultPremiumDays, IsActive: true},
}

// ValidRewardType reports whether t is one of the known reward types.
func ValidRewardType(t string) bool {
	return t == RewardBalance || t == RewardChips || t == RewardPremium
}

// DescribeReward renders a short user-facing description of a reward.
func DescribeReward(cfg *RewardConfig) string {
	switch cfg.RewardType {
	case RewardBalance:
		return fmt.Sprintf("+%d balance", cfg.RewardAmount)
	case RewardChips:
		return fmt.Sprintf("+%d chips", cfg.RewardAmount)
	case RewardPremium:
		days := 0
		if cfg.PremiumDuration != nil {
			days = *cfg.PremiumDuration
		}
		return fmt.Sprintf("Premium %d hari", days)
	}
	return "?"
}

// LedgerDescription is the description recorded with the reward transaction.
func LedgerDescription(day int) string {
	return fmt.Sprintf("Daily login reward - Day %d", day)
}
