package vesting

import "errors"

var (
	// ErrNilState is returned when the engine has no state backend configured.
	ErrNilState = errors.New("vesting: state not configured")
	// ErrNotAdmin gates schedule creation on the admin identity.
	ErrNotAdmin = errors.New("vesting: caller is not the admin")
	// ErrInvalidAmount rejects zero or negative allocations.
	ErrInvalidAmount = errors.New("vesting: invalid amount")
	// ErrPoolExhausted rejects allocations exceeding the team pool.
	ErrPoolExhausted = errors.New("vesting: team pool exhausted")
	// ErrScheduleExists rejects a second schedule for the same member.
	ErrScheduleExists = errors.New("vesting: schedule already exists")
	// ErrScheduleNotFound is returned when a member has no schedule.
	ErrScheduleNotFound = errors.New("vesting: schedule not found")
	// ErrCliffNotReached rejects claims before the cliff.
	ErrCliffNotReached = errors.New("vesting: cliff not reached")
	// ErrAlreadyClaimed rejects a second claim of the same schedule.
	ErrAlreadyClaimed = errors.New("vesting: already claimed")
	// ErrVaultShort is returned when the custody vault cannot cover the claim.
	ErrVaultShort = errors.New("vesting: vault balance insufficient")
)
