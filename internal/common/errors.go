// errors.go defines the sentinel errors shared by all features.
// Repositories wrap infrastructure errors with %w; services match these
// sentinels with errors.Is and translate them into reason codes for callers.
package common

import "errors"

// Daily-login errors
var (
	// ErrAlreadyClaimed: the user already claimed today's reward
	ErrAlreadyClaimed = errors.New("daily reward already claimed today")
	// ErrNoRewardConfigured: no active reward config for the claimed cycle day
	ErrNoRewardConfigured = errors.New("no active reward configured for this day")
	// ErrClaimRecordNotFound: the user has no claim record (never claimed)
	ErrClaimRecordNotFound = errors.New("daily login record not found")
	// ErrInvalidDay: cycle day outside [1,7]
	ErrInvalidDay = errors.New("cycle day must be between 1 and 7")
	// ErrInvalidRewardType: reward type is not balance/chips/premium
	ErrInvalidRewardType = errors.New("unknown reward type")
)

// Account errors
var (
	// ErrAccountNotFound: no account exists for the JID
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidAmount: credit amount must be positive
	ErrInvalidAmount = errors.New("amount must be positive")
)
