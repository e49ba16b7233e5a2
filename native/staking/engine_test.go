package staking

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"noctura/core/types"
)

type stakeKey struct {
	owner [20]byte
	id    uint64
}

type vestKey struct {
	owner [20]byte
	tier  Tier
}

type mockState struct {
	pool     *PoolState
	stakes   map[stakeKey]*Stake
	vesting  map[vestKey]*Stake
	accounts map[[20]byte]*types.Account
	vault    [20]byte
	tge      int64
}

func newMockState() *mockState {
	return &mockState{
		stakes:   make(map[stakeKey]*Stake),
		vesting:  make(map[vestKey]*Stake),
		accounts: make(map[[20]byte]*types.Account),
		vault:    newTestAddress(0xEE),
		tge:      1_000_000,
	}
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func (m *mockState) PoolGet() (*PoolState, error) {
	if m.pool == nil {
		return nil, nil
	}
	return m.pool.Clone(), nil
}

func (m *mockState) PoolPut(pool *PoolState) error {
	m.pool = pool.Clone()
	return nil
}

func (m *mockState) StakeGet(owner [20]byte, id uint64) (*Stake, bool, error) {
	s, ok := m.stakes[stakeKey{owner, id}]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (m *mockState) VestingStakeGet(owner [20]byte, tier Tier) (*Stake, bool, error) {
	s, ok := m.vesting[vestKey{owner, tier}]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (m *mockState) StakePut(s *Stake) error {
	if s.IsVesting {
		m.vesting[vestKey{s.Owner, s.Tier}] = s.Clone()
		return nil
	}
	m.stakes[stakeKey{s.Owner, s.ID}] = s.Clone()
	return nil
}

func key20(addr []byte) [20]byte {
	var out [20]byte
	copy(out[:], addr)
	return out
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	acc, ok := m.accounts[key20(addr)]
	if !ok {
		return (&types.Account{}).Normalize(), nil
	}
	clone := *acc
	return (&clone).Normalize(), nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	clone := *account
	m.accounts[key20(addr)] = (&clone).Normalize()
	return nil
}

func (m *mockState) ModuleVaultAddress() [20]byte { return m.vault }

func (m *mockState) TGETimestamp() (int64, error) { return m.tge, nil }

func (m *mockState) setNOC(addr [20]byte, amount int64) {
	m.accounts[addr] = (&types.Account{BalanceNOC: big.NewInt(amount)}).Normalize()
}

func (m *mockState) nocOf(addr [20]byte) *big.Int {
	acc, ok := m.accounts[addr]
	if !ok {
		return big.NewInt(0)
	}
	return acc.BalanceNOC
}

func newTestEngine(state *mockState, now int64) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return now })
	return engine
}

func TestStakeCreatesRecordAndMovesPrincipal(t *testing.T) {
	state := newMockState()
	owner := newTestAddress(0x01)
	state.setNOC(owner, 500_000_000_000)
	engine := newTestEngine(state, 100)

	stake, err := engine.Stake(owner, big.NewInt(200_000_000_000), TierB, false)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if stake.ID != 1 {
		t.Fatalf("expected first stake id 1, got %d", stake.ID)
	}
	if stake.LockDays != 182 {
		t.Fatalf("expected tierB lock 182, got %d", stake.LockDays)
	}
	if got := state.nocOf(owner); got.Cmp(big.NewInt(300_000_000_000)) != 0 {
		t.Fatalf("owner balance = %s", got)
	}
	if got := state.nocOf(state.vault); got.Cmp(big.NewInt(200_000_000_000)) != 0 {
		t.Fatalf("vault balance = %s", got)
	}
	if state.pool.NextStakeID != 2 {
		t.Fatalf("next id = %d", state.pool.NextStakeID)
	}
	if state.pool.TotalStakers != 1 {
		t.Fatalf("total stakers = %d", state.pool.TotalStakers)
	}
}

func TestStakeRejectsBelowMinimum(t *testing.T) {
	state := newMockState()
	owner := newTestAddress(0x02)
	state.setNOC(owner, 500_000_000_000)
	engine := newTestEngine(state, 100)

	_, err := engine.Stake(owner, big.NewInt(99_000_000_000), TierC, false)
	if !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
}

func TestStakeRejectsInsufficientBalance(t *testing.T) {
	state := newMockState()
	owner := newTestAddress(0x03)
	state.setNOC(owner, 100_000_000_000)
	engine := newTestEngine(state, 100)

	_, err := engine.Stake(owner, big.NewInt(200_000_000_000), TierC, false)
	if !errors.Is(err, ErrInsufficientNOC) {
		t.Fatalf("expected ErrInsufficientNOC, got %v", err)
	}
}

func TestStakeRejectsBlockedAddress(t *testing.T) {
	state := newMockState()
	owner := newTestAddress(0x04)
	state.accounts[owner] = (&types.Account{BalanceNOC: big.NewInt(500_000_000_000), Blocked: true}).Normalize()
	engine := newTestEngine(state, 100)

	_, err := engine.Stake(owner, big.NewInt(200_000_000_000), TierC, false)
	if !errors.Is(err, ErrAddressBlocked) {
		t.Fatalf("expected ErrAddressBlocked, got %v", err)
	}
}

func TestStakeEnforcesTierACap(t *testing.T) {
	state := newMockState()
	owner := newTestAddress(0x05)
	state.setNOC(owner, 1_000_000_000_000)
	state.pool = NewPoolState()
	state.pool.TotalStakedTierA = new(big.Int).Set(MaxStakeTierA)
	engine := newTestEngine(state, 100)

	_, err := engine.Stake(owner, big.NewInt(100_000_000_000), TierA, false)
	if !errors.Is(err, ErrTierAFull) {
		t.Fatalf("expected ErrTierAFull, got %v", err)
	}
	if _, err := engine.Stake(owner, big.NewInt(100_000_000_000), TierB, false); err != nil {
		t.Fatalf("tierB should still accept: %v", err)
	}
}

func TestStakeEnforcesGlobalCap(t *testing.T) {
	state := newMockState()
	owner := newTestAddress(0x06)
	state.setNOC(owner, 1_000_000_000_000)
	state.pool = NewPoolState()
	state.pool.TotalStaked = new(big.Int).Sub(MaxTotalStaked, big.NewInt(50_000_000_000))
	engine := newTestEngine(state, 100)

	_, err := engine.Stake(owner, big.NewInt(100_000_000_000), TierC, false)
	if !errors.Is(err, ErrStakingCap) {
		t.Fatalf("expected ErrStakingCap, got %v", err)
	}
}

func TestHarvestPaysAccruedRewards(t *testing.T) {
	state := newMockState()
	owner := newTestAddress(0x07)
	state.setNOC(owner, 1_000_000)
	state.setNOC(state.vault, 10_000_000)
	state.pool = NewPoolState()
	state.pool.MinStakeAmount = big.NewInt(1)
	engine := newTestEngine(state, 0)

	stake, err := engine.Stake(owner, big.NewInt(1_000_000), TierA, false)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	// One full year at 128% on 1,000,000 units.
	engine.SetNowFunc(func() int64 { return SecondsPerYear })
	reward, err := engine.Harvest(owner, Locator{ID: stake.ID})
	if err != nil {
		t.Fatalf("harvest: %v", err)
	}
	if reward.Cmp(big.NewInt(1_280_000)) != 0 {
		t.Fatalf("reward = %s, want 1280000", reward)
	}
	if got := state.nocOf(owner); got.Cmp(big.NewInt(1_280_000)) != 0 {
		t.Fatalf("owner balance = %s", got)
	}
	if state.pool.TotalRewardsDistributed.Cmp(big.NewInt(1_280_000)) != 0 {
		t.Fatalf("distributed = %s", state.pool.TotalRewardsDistributed)
	}
}

func TestHarvestRejectsZeroRewards(t *testing.T) {
	state := newMockState()
	owner := newTestAddress(0x08)
	state.setNOC(owner, 1_000_000_000_000)
	engine := newTestEngine(state, 500)

	stake, err := engine.Stake(owner, big.NewInt(200_000_000_000), TierC, false)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	_, err = engine.Harvest(owner, Locator{ID: stake.ID})
	if !errors.Is(err, ErrNoRewards) {
		t.Fatalf("expected ErrNoRewards, got %v", err)
	}
}

func TestHarvestCompoundsIntoPrincipal(t *testing.T) {
	state := newMockState()
	owner := newTestAddress(0x09)
	state.setNOC(owner, 1_000_000)
	state.pool = NewPoolState()
	state.pool.MinStakeAmount = big.NewInt(1)
	engine := newTestEngine(state, 0)

	stake, err := engine.Stake(owner, big.NewInt(1_000_000), TierA, true)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	engine.SetNowFunc(func() int64 { return SecondsPerYear })
	reward, err := engine.Harvest(owner, Locator{ID: stake.ID})
	if err != nil {
		t.Fatalf("harvest: %v", err)
	}
	updated := state.stakes[stakeKey{owner, stake.ID}]
	if updated.Amount.Cmp(big.NewInt(2_280_000)) != 0 {
		t.Fatalf("principal = %s, want 2280000", updated.Amount)
	}
	if state.pool.TotalStaked.Cmp(big.NewInt(2_280_000)) != 0 {
		t.Fatalf("pool total = %s", state.pool.TotalStaked)
	}
	// Nothing leaves the vault on compound.
	if got := state.nocOf(owner); got.Sign() != 0 {
		t.Fatalf("owner balance = %s", got)
	}
	if reward.Cmp(big.NewInt(1_280_000)) != 0 {
		t.Fatalf("reward = %s", reward)
	}
}

func TestVestPurchaseTopUpSettlesRewardsFirst(t *testing.T) {
	state := newMockState()
	owner := newTestAddress(0x0A)
	engine := newTestEngine(state, 0)

	if _, err := engine.VestPurchase(owner, big.NewInt(1_000_000), TierA, false); err != nil {
		t.Fatalf("vest purchase: %v", err)
	}
	engine.SetNowFunc(func() int64 { return SecondsPerYear })
	stake, err := engine.VestPurchase(owner, big.NewInt(500_000), TierA, false)
	if err != nil {
		t.Fatalf("top up: %v", err)
	}
	if stake.PendingRewards.Cmp(big.NewInt(1_280_000)) != 0 {
		t.Fatalf("pending = %s, want rewards on old principal only", stake.PendingRewards)
	}
	if stake.Amount.Cmp(big.NewInt(1_500_000)) != 0 {
		t.Fatalf("principal = %s", stake.Amount)
	}
	if stake.LastRewardCalculation != SecondsPerYear {
		t.Fatalf("watermark = %d", stake.LastRewardCalculation)
	}
	if !stake.IsVesting {
		t.Fatal("expected vesting stake")
	}
}

func TestInitiateUnstakeEnforcesLockAndTGE(t *testing.T) {
	state := newMockState()
	owner := newTestAddress(0x0B)
	state.setNOC(owner, 1_000_000_000_000)
	engine := newTestEngine(state, 0)

	stake, err := engine.Stake(owner, big.NewInt(200_000_000_000), TierC, false)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	lock := int64(stake.LockDays) * SecondsPerDay

	engine.SetNowFunc(func() int64 { return lock - 1 })
	if err := engine.InitiateUnstake(owner, Locator{ID: stake.ID}); !errors.Is(err, ErrStillLocked) {
		t.Fatalf("expected ErrStillLocked, got %v", err)
	}
	engine.SetNowFunc(func() int64 { return lock })
	if err := engine.InitiateUnstake(owner, Locator{ID: stake.ID}); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	// Vesting stakes additionally wait for the token genesis event.
	state.tge = lock * 10
	vest, err := engine.VestPurchase(owner, big.NewInt(1_000_000), TierC, false)
	if err != nil {
		t.Fatalf("vest purchase: %v", err)
	}
	engine.SetNowFunc(func() int64 { return lock + int64(vest.LockDays)*SecondsPerDay })
	err = engine.InitiateUnstake(owner, Locator{Vesting: true, Tier: TierC})
	if !errors.Is(err, ErrVestingLocked) {
		t.Fatalf("expected ErrVestingLocked, got %v", err)
	}
}

func TestFinalizeUnstakePaysPrincipalPlusReward(t *testing.T) {
	state := newMockState()
	owner := newTestAddress(0x0C)
	state.setNOC(owner, 1_000_000)
	state.setNOC(state.vault, 50_000_000)
	state.pool = NewPoolState()
	state.pool.MinStakeAmount = big.NewInt(1)
	engine := newTestEngine(state, 0)

	stake, err := engine.Stake(owner, big.NewInt(1_000_000), TierC, false)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	loc := Locator{ID: stake.ID}
	lock := int64(stake.LockDays) * SecondsPerDay

	engine.SetNowFunc(func() int64 { return lock })
	if _, err := engine.FinalizeUnstake(owner, loc); !errors.Is(err, ErrNoCooldown) {
		t.Fatalf("expected ErrNoCooldown, got %v", err)
	}
	if err := engine.InitiateUnstake(owner, loc); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	engine.SetNowFunc(func() int64 { return lock + CooldownSeconds - 1 })
	if _, err := engine.FinalizeUnstake(owner, loc); !errors.Is(err, ErrStillInCooldown) {
		t.Fatalf("expected ErrStillInCooldown, got %v", err)
	}

	final := lock + CooldownSeconds
	engine.SetNowFunc(func() int64 { return final })
	payout, err := engine.FinalizeUnstake(owner, loc)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	expectedReward := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(34))
	expectedReward.Mul(expectedReward, big.NewInt(final))
	expectedReward.Quo(expectedReward, big.NewInt(100*SecondsPerYear))
	expectedPayout := new(big.Int).Add(big.NewInt(1_000_000), expectedReward)
	if payout.Cmp(expectedPayout) != 0 {
		t.Fatalf("payout = %s, want %s", payout, expectedPayout)
	}
	updated := state.stakes[stakeKey{owner, stake.ID}]
	if updated.Active {
		t.Fatal("stake should be inactive")
	}
	if state.pool.TotalStaked.Sign() != 0 {
		t.Fatalf("pool total = %s", state.pool.TotalStaked)
	}
	if _, err := engine.FinalizeUnstake(owner, loc); !errors.Is(err, ErrStakeNotActive) {
		t.Fatalf("expected ErrStakeNotActive on second finalize, got %v", err)
	}
}

func TestToggleAutoCompound(t *testing.T) {
	state := newMockState()
	owner := newTestAddress(0x0D)
	state.setNOC(owner, 1_000_000_000_000)
	engine := newTestEngine(state, 0)

	stake, err := engine.Stake(owner, big.NewInt(200_000_000_000), TierB, false)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	enabled, err := engine.ToggleAutoCompound(owner, Locator{ID: stake.ID})
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !enabled {
		t.Fatal("expected auto-compound enabled")
	}
	other := newTestAddress(0x0E)
	if _, err := engine.ToggleAutoCompound(other, Locator{ID: stake.ID}); !errors.Is(err, ErrStakeNotFound) {
		t.Fatalf("expected ErrStakeNotFound for other owner, got %v", err)
	}
}
