package sale

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"noctura/core/types"
	"noctura/native/staking"
)

type stakeKey struct {
	owner [20]byte
	id    uint64
}

type vestKey struct {
	owner [20]byte
	tier  staking.Tier
}

// mockState backs both the sale and staking engines so claim-and-stake and
// vesting purchases run against a single ledger.
type mockState struct {
	global      *GlobalState
	allocations map[[20]byte]*Allocation
	pool        *staking.PoolState
	stakes      map[stakeKey]*staking.Stake
	vesting     map[vestKey]*staking.Stake
	accounts    map[[20]byte]*types.Account
	vault       [20]byte
}

func newMockState() *mockState {
	return &mockState{
		allocations: make(map[[20]byte]*Allocation),
		stakes:      make(map[stakeKey]*staking.Stake),
		vesting:     make(map[vestKey]*staking.Stake),
		accounts:    make(map[[20]byte]*types.Account),
		vault:       newTestAddress(0xEE),
	}
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func (m *mockState) GlobalGet() (*GlobalState, bool, error) {
	if m.global == nil {
		return nil, false, nil
	}
	return m.global.Clone(), true, nil
}

func (m *mockState) GlobalPut(global *GlobalState) error {
	m.global = global.Clone()
	return nil
}

func (m *mockState) AllocationGet(owner [20]byte) (*Allocation, bool, error) {
	alloc, ok := m.allocations[owner]
	if !ok {
		return nil, false, nil
	}
	return alloc.Clone(), true, nil
}

func (m *mockState) AllocationPut(alloc *Allocation) error {
	m.allocations[alloc.Owner] = alloc.Clone()
	return nil
}

func (m *mockState) PoolGet() (*staking.PoolState, error) {
	if m.pool == nil {
		return nil, nil
	}
	return m.pool.Clone(), nil
}

func (m *mockState) PoolPut(pool *staking.PoolState) error {
	m.pool = pool.Clone()
	return nil
}

func (m *mockState) StakeGet(owner [20]byte, id uint64) (*staking.Stake, bool, error) {
	s, ok := m.stakes[stakeKey{owner, id}]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (m *mockState) VestingStakeGet(owner [20]byte, tier staking.Tier) (*staking.Stake, bool, error) {
	s, ok := m.vesting[vestKey{owner, tier}]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (m *mockState) StakePut(s *staking.Stake) error {
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

func (m *mockState) TGETimestamp() (int64, error) {
	if m.global == nil {
		return 0, ErrNotInitialized
	}
	return m.global.TGETimestamp, nil
}

type fixedOracle struct {
	quote Quote
}

func (o fixedOracle) NativeUSD() (Quote, error) { return o.quote, nil }

var (
	testAdmin       = newTestAddress(0xA0)
	testTreasury    = newTestAddress(0xB0)
	testCoordinator = newTestAddress(0xC0)
)

func newTestEngine(t *testing.T, state *mockState, now int64) (*Engine, *staking.Engine) {
	t.Helper()
	stakingEng := staking.NewEngine()
	stakingEng.SetState(state)
	stakingEng.SetNowFunc(func() int64 { return now })

	engine := NewEngine()
	engine.SetState(state)
	engine.SetStakingEngine(stakingEng)
	engine.SetNowFunc(func() int64 { return now })
	if _, err := engine.Initialize(testAdmin, testTreasury, testCoordinator, 0, 10_000_000); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return engine, stakingEng
}

func fundUSDT(state *mockState, addr [20]byte, amount int64) {
	state.accounts[addr] = (&types.Account{BalanceUSDT: big.NewInt(amount)}).Normalize()
}

// usdt converts whole dollars to USDT base units.
func usdt(dollars int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(dollars), big.NewInt(StablecoinDecimalsFactor))
}

func TestInitializeIsExactlyOnce(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 0)
	_, err := engine.Initialize(testAdmin, testTreasury, testCoordinator, 0, 1)
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestPurchaseWithStableCreditsAllocation(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x01)
	fundUSDT(state, buyer, 1_000_000_000)

	alloc, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(100))
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	expected, _ := TokensForUSD(10_000, 0)
	if alloc.TotalTokens.Cmp(expected) != 0 {
		t.Fatalf("tokens = %s, want %s", alloc.TotalTokens, expected)
	}
	if alloc.TotalSpentCents != 10_000 {
		t.Fatalf("spent = %d", alloc.TotalSpentCents)
	}
	if alloc.PurchaseCount != 1 {
		t.Fatalf("count = %d", alloc.PurchaseCount)
	}
	if state.global.TotalUSDRaised != 10_000 {
		t.Fatalf("raised = %d", state.global.TotalUSDRaised)
	}
	// Payment settles to the admin account for stablecoins.
	adminAcc := state.accounts[testAdmin]
	if adminAcc == nil || adminAcc.BalanceUSDT.Cmp(usdt(100)) != 0 {
		t.Fatal("stablecoin payment not settled to admin")
	}
}

func TestPurchaseRejectsBelowMinimum(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x02)
	fundUSDT(state, buyer, 1_000_000_000)

	_, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(24))
	if !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
}

func TestPurchaseRejectsAboveMaximum(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x03)
	fundUSDT(state, buyer, 100_000_000_000)

	_, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(50_001))
	if !errors.Is(err, ErrAboveMaximum) {
		t.Fatalf("expected ErrAboveMaximum, got %v", err)
	}
}

func TestPurchaseEnforcesUserLifetimeCap(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x04)
	fundUSDT(state, buyer, 1_000_000_000_000)

	for i := 0; i < 4; i++ {
		if _, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(50_000)); err != nil {
			t.Fatalf("purchase %d: %v", i, err)
		}
	}
	_, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(25))
	if !errors.Is(err, ErrUserCapExceeded) {
		t.Fatalf("expected ErrUserCapExceeded, got %v", err)
	}
}

func TestPurchaseRejectsInsufficientFunds(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x05)
	fundUSDT(state, buyer, 1_000_000)

	_, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(100))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestPurchaseBeforeStartRejected(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	if err := engine.SetPresaleStartTime(testAdmin, 500); err != nil {
		t.Fatalf("set start: %v", err)
	}
	buyer := newTestAddress(0x06)
	fundUSDT(state, buyer, 1_000_000_000)

	_, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(100))
	if !errors.Is(err, ErrSaleNotStarted) {
		t.Fatalf("expected ErrSaleNotStarted, got %v", err)
	}
}

func TestPurchaseBlockedBuyerRejected(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x07)
	fundUSDT(state, buyer, 1_000_000_000)
	if err := engine.SetAddressBlocked(testAdmin, buyer, true); err != nil {
		t.Fatalf("block: %v", err)
	}

	_, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(100))
	if !errors.Is(err, ErrAddressBlocked) {
		t.Fatalf("expected ErrAddressBlocked, got %v", err)
	}
}

func TestPurchaseWithSOLUsesOracle(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 1_000)
	engine.SetOracle(fixedOracle{quote: Quote{Price: 15_000_000_000, Expo: -8, Timestamp: 950}})
	buyer := newTestAddress(0x08)
	state.accounts[buyer] = (&types.Account{BalanceSOL: big.NewInt(2 * LamportsPerSOL)}).Normalize()

	// 1 SOL at $150.00.
	alloc, err := engine.PurchaseWithSOL(buyer, big.NewInt(LamportsPerSOL))
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if alloc.TotalSpentCents != 15_000 {
		t.Fatalf("spent = %d, want 15000", alloc.TotalSpentCents)
	}
	treasuryAcc := state.accounts[testTreasury]
	if treasuryAcc == nil || treasuryAcc.BalanceSOL.Cmp(big.NewInt(LamportsPerSOL)) != 0 {
		t.Fatal("native payment not settled to treasury")
	}
}

func TestPurchaseWithSOLRejectsStaleQuote(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 1_000)
	engine.SetOracle(fixedOracle{quote: Quote{Price: 15_000_000_000, Expo: -8, Timestamp: 1_000 - OracleMaxAgeSeconds - 1}})
	buyer := newTestAddress(0x09)
	state.accounts[buyer] = (&types.Account{BalanceSOL: big.NewInt(2 * LamportsPerSOL)}).Normalize()

	_, err := engine.PurchaseWithSOL(buyer, big.NewInt(LamportsPerSOL))
	if !errors.Is(err, ErrStaleOracle) {
		t.Fatalf("expected ErrStaleOracle, got %v", err)
	}
}

func TestReferralBonusFirstPurchaseOnly(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x0A)
	referrer := newTestAddress(0x0B)
	fundUSDT(state, buyer, 1_000_000_000)

	if err := engine.RegisterReferrer(buyer, referrer); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(100)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	tokens, _ := TokensForUSD(10_000, 0)
	bonus := new(big.Int).Quo(new(big.Int).Mul(tokens, big.NewInt(ReferralBonusPercent)), big.NewInt(100))
	refAlloc := state.allocations[referrer]
	if refAlloc == nil || refAlloc.ReferralBonusTokens.Cmp(bonus) != 0 {
		t.Fatalf("referrer bonus missing or wrong")
	}
	if state.global.TotalReferralBonuses.Cmp(bonus) != 0 {
		t.Fatalf("global bonus counter = %s", state.global.TotalReferralBonuses)
	}

	// Second purchase must not mint another bonus.
	if _, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(100)); err != nil {
		t.Fatalf("second purchase: %v", err)
	}
	if state.allocations[referrer].ReferralBonusTokens.Cmp(bonus) != 0 {
		t.Fatal("bonus minted twice")
	}
}

func TestReferralBonusDegradesWhenPoolExhausted(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x0C)
	referrer := newTestAddress(0x0D)
	fundUSDT(state, buyer, 1_000_000_000)

	if err := engine.RegisterReferrer(buyer, referrer); err != nil {
		t.Fatalf("register: %v", err)
	}
	state.global.TotalReferralBonuses = new(big.Int).Set(CommunityPool)

	if _, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(100)); err != nil {
		t.Fatalf("purchase should still settle: %v", err)
	}
	if ref, ok := state.allocations[referrer]; ok && ref.ReferralBonusTokens.Sign() != 0 {
		t.Fatal("bonus minted past pool cap")
	}
}

func TestRegisterReferrerRules(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x0E)
	referrer := newTestAddress(0x0F)

	if err := engine.RegisterReferrer(buyer, buyer); !errors.Is(err, ErrSelfReferral) {
		t.Fatalf("expected ErrSelfReferral, got %v", err)
	}
	if err := engine.RegisterReferrer(buyer, [20]byte{}); !errors.Is(err, ErrZeroReferrer) {
		t.Fatalf("expected ErrZeroReferrer, got %v", err)
	}
	if err := engine.RegisterReferrer(buyer, referrer); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := engine.RegisterReferrer(buyer, newTestAddress(0x10)); !errors.Is(err, ErrReferrerSet) {
		t.Fatalf("expected ErrReferrerSet, got %v", err)
	}
}

func TestClaimGatesAndPaysOnce(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x11)
	fundUSDT(state, buyer, 1_000_000_000)
	state.accounts[state.vault] = (&types.Account{BalanceNOC: mustBigInt("1000000000000000000")}).Normalize()

	if _, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(100)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := engine.Claim(buyer); !errors.Is(err, ErrClaimBeforeTGE) {
		t.Fatalf("expected ErrClaimBeforeTGE, got %v", err)
	}

	engine.SetNowFunc(func() int64 { return 10_000_001 })
	amount, err := engine.Claim(buyer)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	buyerAcc := state.accounts[buyer]
	if buyerAcc.BalanceNOC.Cmp(amount) != 0 {
		t.Fatalf("buyer NOC = %s, want %s", buyerAcc.BalanceNOC, amount)
	}
	if _, err := engine.Claim(buyer); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
}

func TestAdminClaimForRequiresAdmin(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 10_000_001)
	buyer := newTestAddress(0x12)
	if _, err := engine.AdminClaimFor(buyer, buyer); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
}

func TestClaimAndStakeMarksClaimedAndStakes(t *testing.T) {
	state := newMockState()
	engine, stakingEng := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x13)
	fundUSDT(state, buyer, 1_000_000_000)

	if _, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(200)); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	engine.SetNowFunc(func() int64 { return 10_000_001 })
	stakingEng.SetNowFunc(func() int64 { return 10_000_001 })

	stake, err := engine.ClaimAndStake(buyer, staking.TierB, false)
	if err != nil {
		t.Fatalf("claim and stake: %v", err)
	}
	entitlement, _ := TokensForUSD(20_000, 0)
	if stake.Amount.Cmp(entitlement) != 0 {
		t.Fatalf("stake amount = %s, want %s", stake.Amount, entitlement)
	}
	if !state.allocations[buyer].Claimed {
		t.Fatal("allocation not marked claimed")
	}
	// No tokens leave custody on claim-and-stake.
	if acc, ok := state.accounts[buyer]; ok && acc.BalanceNOC.Sign() != 0 {
		t.Fatal("tokens paid out despite staking")
	}
	if _, err := engine.ClaimAndStake(buyer, staking.TierB, false); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
}

func TestPurchaseAndVestStakeTopsUpSameTier(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x14)
	fundUSDT(state, buyer, 10_000_000_000)

	first, err := engine.PurchaseAndVestStakeStable(buyer, InstrumentUSDT, usdt(100), staking.TierA, false)
	if err != nil {
		t.Fatalf("vest purchase: %v", err)
	}
	second, err := engine.PurchaseAndVestStakeStable(buyer, InstrumentUSDT, usdt(100), staking.TierA, false)
	if err != nil {
		t.Fatalf("vest top-up: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same vesting stake, ids %d vs %d", first.ID, second.ID)
	}
	tokens, _ := TokensForUSD(10_000, 0)
	expected := new(big.Int).Mul(tokens, big.NewInt(2))
	if second.Amount.Cmp(expected) != 0 {
		t.Fatalf("principal = %s, want %s", second.Amount, expected)
	}
	// The allocation records spend but no claimable entitlement.
	alloc := state.allocations[buyer]
	if alloc.TotalTokens.Sign() != 0 {
		t.Fatalf("allocation tokens = %s, want 0", alloc.TotalTokens)
	}
	if alloc.TotalSpentCents != 20_000 {
		t.Fatalf("spent = %d", alloc.TotalSpentCents)
	}
}

func TestAdminGrantDrawsCommunityPool(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	recipient := newTestAddress(0x15)

	if err := engine.AdminGrantAllocation(recipient, recipient, big.NewInt(100)); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	if err := engine.AdminGrantAllocation(testAdmin, recipient, big.NewInt(1_000)); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if state.global.TotalReferralBonuses.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("pool counter = %s", state.global.TotalReferralBonuses)
	}
	over := new(big.Int).Set(CommunityPool)
	if err := engine.AdminGrantAllocation(testAdmin, recipient, over); !errors.Is(err, ErrCommunityPoolEmpty) {
		t.Fatalf("expected ErrCommunityPoolEmpty, got %v", err)
	}
}

func TestAdminWithdrawLeavesStakedBacking(t *testing.T) {
	state := newMockState()
	engine, stakingEng := newTestEngine(t, state, 100)
	recipient := newTestAddress(0x16)
	owner := newTestAddress(0x17)
	state.accounts[owner] = (&types.Account{BalanceNOC: big.NewInt(500_000_000_000)}).Normalize()
	state.accounts[state.vault] = (&types.Account{BalanceNOC: big.NewInt(100_000_000_000)}).Normalize()

	if _, err := stakingEng.Stake(owner, big.NewInt(200_000_000_000), staking.TierC, false); err != nil {
		t.Fatalf("stake: %v", err)
	}
	// Vault now holds 300e9 of which 200e9 backs the stake.
	if err := engine.AdminWithdraw(testAdmin, recipient, big.NewInt(100_000_000_001)); !errors.Is(err, ErrWithdrawLocked) {
		t.Fatalf("expected ErrWithdrawLocked, got %v", err)
	}
	if err := engine.AdminWithdraw(testAdmin, recipient, big.NewInt(100_000_000_000)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if state.accounts[recipient].BalanceNOC.Cmp(big.NewInt(100_000_000_000)) != 0 {
		t.Fatal("withdrawal not settled")
	}
}

func TestHardCapClosesSale(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x18)
	fundUSDT(state, buyer, 1_000_000_000_000)

	// Leave room for less than the next purchase.
	sold := new(big.Int).Sub(PresaleCap, big.NewInt(1))
	state.global.TokensSold = sold

	_, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(100))
	if !errors.Is(err, ErrHardCapReached) {
		t.Fatalf("expected ErrHardCapReached, got %v", err)
	}

	state.global.TokensSold = new(big.Int).Set(PresaleCap)
	_, err = engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(100))
	if !errors.Is(err, ErrSaleEnded) {
		t.Fatalf("expected ErrSaleEnded, got %v", err)
	}
}

func TestStablecoinRegistration(t *testing.T) {
	state := newMockState()
	engine, _ := newTestEngine(t, state, 100)
	buyer := newTestAddress(0x19)
	fundUSDT(state, buyer, 1_000_000_000)

	if err := engine.SetStablecoinEnabled(testAdmin, InstrumentUSDT, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	_, err := engine.PurchaseWithStable(buyer, InstrumentUSDT, usdt(100))
	if !errors.Is(err, ErrUnsupportedStable) {
		t.Fatalf("expected ErrUnsupportedStable, got %v", err)
	}
	if _, err := engine.PurchaseWithStable(buyer, "DAI", usdt(100)); !errors.Is(err, ErrUnsupportedStable) {
		t.Fatalf("expected ErrUnsupportedStable for unknown instrument, got %v", err)
	}
}
