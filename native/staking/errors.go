package staking

import "errors"

var (
	ErrNilState        = errors.New("staking: state not configured")
	ErrInvalidTier     = errors.New("staking: invalid tier")
	ErrInvalidAmount   = errors.New("staking: amount must be positive")
	ErrBelowMinimum    = errors.New("staking: amount below minimum stake")
	ErrAddressBlocked  = errors.New("staking: address is blocked")
	ErrStakeNotFound   = errors.New("staking: stake not found")
	ErrStakeNotActive  = errors.New("staking: stake not active")
	ErrNotStakeOwner   = errors.New("staking: not stake owner")
	ErrNoRewards       = errors.New("staking: no rewards to harvest")
	ErrStakingCap      = errors.New("staking: global staking cap reached")
	ErrTierAFull       = errors.New("staking: tier A is full")
	ErrStillLocked     = errors.New("staking: still in lock period")
	ErrVestingLocked   = errors.New("staking: vesting stake cannot be unstaked before TGE")
	ErrNoCooldown      = errors.New("staking: unstake not initiated")
	ErrStillInCooldown = errors.New("staking: still in cooldown period")
	ErrInsufficientNOC = errors.New("staking: insufficient token balance")
	ErrAmountOverflow  = errors.New("staking: arithmetic overflow")
	ErrElapsedNegative = errors.New("staking: clock moved backwards")
)
