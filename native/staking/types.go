package staking

import "math/big"

// Stake captures a single staking position and its reward/unbonding lifecycle.
// Vesting stakes are addressed by (owner, tier) so repeated presale purchases
// accumulate into one position; direct stakes are addressed by (owner, id).
type Stake struct {
	ID                    uint64
	Owner                 [20]byte
	Amount                *big.Int
	Tier                  Tier
	StartTime             int64
	LockDays              uint64
	LastRewardCalculation int64
	PendingRewards        *big.Int
	Active                bool
	AutoCompound          bool
	CooldownStart         int64
	IsVesting             bool
	TotalAdded            *big.Int
}

// Clone returns a deep copy so callers cannot mutate shared pointers.
func (s *Stake) Clone() *Stake {
	if s == nil {
		return nil
	}
	out := *s
	out.Amount = cloneBigInt(s.Amount)
	out.PendingRewards = cloneBigInt(s.PendingRewards)
	out.TotalAdded = cloneBigInt(s.TotalAdded)
	return &out
}

// PoolState is the staking half of the global sale counters: every stake path
// reads and updates it before any value movement.
type PoolState struct {
	TotalStaked             *big.Int
	TotalStakedTierA        *big.Int
	TotalStakers            uint64
	NextStakeID             uint64
	TotalRewardsDistributed *big.Int
	MinStakeAmount          *big.Int
}

// NewPoolState returns the pool singleton in its genesis configuration.
func NewPoolState() *PoolState {
	return &PoolState{
		TotalStaked:             big.NewInt(0),
		TotalStakedTierA:        big.NewInt(0),
		NextStakeID:             1,
		TotalRewardsDistributed: big.NewInt(0),
		MinStakeAmount:          new(big.Int).Set(DefaultMinStakeAmount),
	}
}

// Clone returns a deep copy of the pool counters.
func (p *PoolState) Clone() *PoolState {
	if p == nil {
		return nil
	}
	out := *p
	out.TotalStaked = cloneBigInt(p.TotalStaked)
	out.TotalStakedTierA = cloneBigInt(p.TotalStakedTierA)
	out.TotalRewardsDistributed = cloneBigInt(p.TotalRewardsDistributed)
	out.MinStakeAmount = cloneBigInt(p.MinStakeAmount)
	return &out
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
