package staking

import "math/big"

var rewardDivisor = big.NewInt(100 * SecondsPerYear)

// Accrue returns the total unharvested reward owed on the stake up to now:
// the already-pending balance plus floor(amount * apy * elapsed / (100 * year)).
// Calling it twice at the same instant returns the pending balance unchanged.
// The function never mutates the stake; callers decide whether the result is
// folded into principal (auto-compound) or into the pending balance, and must
// advance the watermark themselves.
func Accrue(stake *Stake, now int64) (*big.Int, error) {
	if stake == nil || !stake.Active {
		return nil, ErrStakeNotActive
	}
	if now == stake.LastRewardCalculation {
		return cloneBigInt(stake.PendingRewards), nil
	}
	elapsed := now - stake.LastRewardCalculation
	if elapsed < 0 {
		return nil, ErrElapsedNegative
	}
	if stake.Amount == nil || stake.Amount.Sign() <= 0 {
		return cloneBigInt(stake.PendingRewards), nil
	}
	reward := new(big.Int).SetUint64(stake.Tier.APYPercent())
	reward.Mul(reward, stake.Amount)
	reward.Mul(reward, big.NewInt(elapsed))
	reward.Quo(reward, rewardDivisor)
	return reward.Add(reward, cloneBigInt(stake.PendingRewards)), nil
}
