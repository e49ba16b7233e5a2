package staking

import "math/big"

// Time constants used by the reward calculator and the unstake state machine.
const (
	SecondsPerDay  int64 = 86400
	SecondsPerYear int64 = 31536000
	// CooldownSeconds is the mandatory delay between initiating and finalizing
	// an unstake request.
	CooldownSeconds int64 = 172800 // 48 hours
)

// Tier identifies one of the three fixed {lock duration, APY} configurations a
// stake commits to at creation.
type Tier uint8

const (
	TierA Tier = iota // 365 days, 128% APY
	TierB             // 182 days, 68% APY
	TierC             // 90 days, 34% APY
)

// Valid reports whether the tier is one of the three supported variants.
func (t Tier) Valid() bool {
	switch t {
	case TierA, TierB, TierC:
		return true
	default:
		return false
	}
}

func (t Tier) String() string {
	switch t {
	case TierA:
		return "tierA"
	case TierB:
		return "tierB"
	case TierC:
		return "tierC"
	default:
		return "unknown"
	}
}

// tierParams is the closed lookup table mapping each tier to its APY and lock
// duration. There is no open extensibility: three variants only.
var tierParams = map[Tier]struct {
	APYPercent uint64
	LockDays   uint64
}{
	TierA: {APYPercent: 128, LockDays: 365},
	TierB: {APYPercent: 68, LockDays: 182},
	TierC: {APYPercent: 34, LockDays: 90},
}

// APYPercent returns the annual percentage yield for the tier.
func (t Tier) APYPercent() uint64 { return tierParams[t].APYPercent }

// LockDays returns the lock duration in days for the tier.
func (t Tier) LockDays() uint64 { return tierParams[t].LockDays }

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("staking: invalid big integer constant")
	}
	return v
}

var (
	// MaxTotalStaked caps the staking pool at 20% of total supply
	// (51.2M NOC in base units).
	MaxTotalStaked = mustBigInt("51200000000000000")
	// MaxStakeTierA caps the highest-yield tier at 50M NOC to preserve its APY.
	MaxStakeTierA = mustBigInt("50000000000000000")
	// DefaultMinStakeAmount is 100 NOC in base units.
	DefaultMinStakeAmount = mustBigInt("100000000000")
)
