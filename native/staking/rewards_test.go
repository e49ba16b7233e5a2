package staking

import (
	"errors"
	"math/big"
	"testing"
)

func baseStake(amount int64, tier Tier) *Stake {
	return &Stake{
		ID:                    1,
		Amount:                big.NewInt(amount),
		Tier:                  tier,
		StartTime:             0,
		LockDays:              tier.LockDays(),
		LastRewardCalculation: 0,
		PendingRewards:        big.NewInt(0),
		Active:                true,
		TotalAdded:            big.NewInt(amount),
	}
}

func TestAccrueFullYearTierA(t *testing.T) {
	stake := baseStake(1_000_000, TierA)
	reward, err := Accrue(stake, SecondsPerYear)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if reward.Cmp(big.NewInt(1_280_000)) != 0 {
		t.Fatalf("reward = %s, want 1280000", reward)
	}
}

func TestAccrueFloorsPartialUnits(t *testing.T) {
	stake := baseStake(1_000, TierC)
	// One second of 34% APY on 1,000 units floors to zero.
	reward, err := Accrue(stake, 1)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if reward.Sign() != 0 {
		t.Fatalf("reward = %s, want 0", reward)
	}
}

func TestAccrueSameInstantKeepsPending(t *testing.T) {
	stake := baseStake(1_000_000, TierB)
	stake.PendingRewards = big.NewInt(42)
	reward, err := Accrue(stake, 0)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if reward.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("reward = %s, want pending unchanged", reward)
	}
}

func TestAccrueRejectsNegativeElapsed(t *testing.T) {
	stake := baseStake(1_000_000, TierB)
	stake.LastRewardCalculation = 100
	if _, err := Accrue(stake, 50); !errors.Is(err, ErrElapsedNegative) {
		t.Fatalf("expected ErrElapsedNegative, got %v", err)
	}
}

func TestAccrueRejectsInactiveStake(t *testing.T) {
	stake := baseStake(1_000_000, TierA)
	stake.Active = false
	if _, err := Accrue(stake, 10); !errors.Is(err, ErrStakeNotActive) {
		t.Fatalf("expected ErrStakeNotActive, got %v", err)
	}
}

func TestAccrueDoesNotMutateStake(t *testing.T) {
	stake := baseStake(1_000_000, TierA)
	if _, err := Accrue(stake, SecondsPerYear); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if stake.PendingRewards.Sign() != 0 {
		t.Fatalf("pending mutated to %s", stake.PendingRewards)
	}
	if stake.LastRewardCalculation != 0 {
		t.Fatalf("watermark mutated to %d", stake.LastRewardCalculation)
	}
}

func TestTierTable(t *testing.T) {
	cases := []struct {
		tier Tier
		apy  uint64
		lock uint64
	}{
		{TierA, 128, 365},
		{TierB, 68, 182},
		{TierC, 34, 90},
	}
	for _, tc := range cases {
		if got := tc.tier.APYPercent(); got != tc.apy {
			t.Fatalf("%s apy = %d, want %d", tc.tier, got, tc.apy)
		}
		if got := tc.tier.LockDays(); got != tc.lock {
			t.Fatalf("%s lock = %d, want %d", tc.tier, got, tc.lock)
		}
	}
	if Tier(9).Valid() {
		t.Fatal("tier 9 should be invalid")
	}
}
