package state

import (
	"errors"
	"math/big"
	"testing"

	"noctura/core/types"
	"noctura/native/crosschain"
	"noctura/native/sale"
	"noctura/native/staking"
	"noctura/native/vesting"
	"noctura/storage"
)

func newTestManager() *Manager {
	return NewManager(storage.NewMemDB())
}

func addr(fill byte) [20]byte {
	var out [20]byte
	for i := range out {
		out[i] = fill
	}
	return out
}

func TestAccountDefaultsToZero(t *testing.T) {
	manager := newTestManager()
	owner := addr(0x01)
	acc, err := manager.GetAccount(owner[:])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if acc.BalanceNOC == nil || acc.BalanceNOC.Sign() != 0 {
		t.Fatal("missing account not zeroed")
	}
}

func TestAccountRoundTrip(t *testing.T) {
	manager := newTestManager()
	owner := addr(0x02)
	in := &types.Account{
		Nonce:       7,
		BalanceNOC:  big.NewInt(123),
		BalanceSOL:  big.NewInt(456),
		BalanceUSDT: big.NewInt(789),
		Blocked:     true,
		HasStaked:   true,
	}
	if err := manager.PutAccount(owner[:], in); err != nil {
		t.Fatalf("put: %v", err)
	}
	out, err := manager.GetAccount(owner[:])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Nonce != 7 || out.BalanceNOC.Cmp(big.NewInt(123)) != 0 || !out.Blocked || !out.HasStaked {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if out.BalanceUSDC == nil || out.BalanceUSDC.Sign() != 0 {
		t.Fatal("untouched balance not normalized")
	}
}

func TestSaleGlobalRoundTrip(t *testing.T) {
	manager := newTestManager()
	if _, ok, err := manager.GlobalGet(); err != nil || ok {
		t.Fatalf("expected absent global, ok=%v err=%v", ok, err)
	}

	in := sale.NewGlobalState()
	in.Stage = 3
	in.TokensSold = big.NewInt(42)
	in.TotalUSDRaised = 99
	in.PresaleStartTime = 1_000
	in.TGETimestamp = 2_000
	in.PresaleActive = true
	in.USDTEnabled = true
	in.Admin = addr(0xA0)
	in.Treasury = addr(0xB0)
	in.Coordinator = addr(0xC0)
	if err := manager.GlobalPut(in); err != nil {
		t.Fatalf("put: %v", err)
	}

	out, ok, err := manager.GlobalGet()
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.Stage != 3 || out.TokensSold.Cmp(big.NewInt(42)) != 0 || out.TotalUSDRaised != 99 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if out.PresaleStartTime != 1_000 || out.TGETimestamp != 2_000 {
		t.Fatal("timestamps mangled")
	}
	if out.Admin != in.Admin || out.Treasury != in.Treasury || out.Coordinator != in.Coordinator {
		t.Fatal("role addresses mangled")
	}

	if admin, err := manager.AdminAddress(); err != nil || admin != in.Admin {
		t.Fatalf("admin = %x err=%v", admin, err)
	}
	if tge, err := manager.TGETimestamp(); err != nil || tge != 2_000 {
		t.Fatalf("tge = %d err=%v", tge, err)
	}
}

func TestRoleLookupsRequireGenesis(t *testing.T) {
	manager := newTestManager()
	if _, err := manager.AdminAddress(); !errors.Is(err, sale.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := manager.TGETimestamp(); !errors.Is(err, sale.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestAllocationRoundTrip(t *testing.T) {
	manager := newTestManager()
	owner := addr(0x03)
	if _, ok, err := manager.AllocationGet(owner); err != nil || ok {
		t.Fatalf("expected absent allocation, ok=%v err=%v", ok, err)
	}

	in := sale.NewAllocation(owner)
	in.TotalTokens = big.NewInt(500)
	in.TotalSpentCents = 10_000
	in.PurchaseCount = 2
	in.FirstPurchaseTime = 111
	in.LastPurchaseTime = 222
	in.Referrer = addr(0x04)
	if err := manager.AllocationPut(in); err != nil {
		t.Fatalf("put: %v", err)
	}

	out, ok, err := manager.AllocationGet(owner)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.TotalTokens.Cmp(big.NewInt(500)) != 0 || out.PurchaseCount != 2 || out.Referrer != in.Referrer {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if out.ReferralBonusTokens == nil || out.ReferralBonusTokens.Sign() != 0 {
		t.Fatal("zero bonus not normalized")
	}
}

func TestStakeKeyRouting(t *testing.T) {
	manager := newTestManager()
	owner := addr(0x05)

	direct := &staking.Stake{
		ID:        4,
		Owner:     owner,
		Amount:    big.NewInt(1_000),
		Tier:      staking.TierB,
		StartTime: 100,
		LockDays:  staking.TierB.LockDays(),
		Active:    true,
	}
	vest := &staking.Stake{
		ID:        4,
		Owner:     owner,
		Amount:    big.NewInt(2_000),
		Tier:      staking.TierB,
		StartTime: 200,
		LockDays:  staking.TierB.LockDays(),
		Active:    true,
		IsVesting: true,
	}
	if err := manager.StakePut(direct); err != nil {
		t.Fatalf("put direct: %v", err)
	}
	if err := manager.StakePut(vest); err != nil {
		t.Fatalf("put vesting: %v", err)
	}

	// The two records share an id and tier but live under distinct keys.
	gotDirect, ok, err := manager.StakeGet(owner, 4)
	if err != nil || !ok {
		t.Fatalf("get direct: ok=%v err=%v", ok, err)
	}
	if gotDirect.Amount.Cmp(big.NewInt(1_000)) != 0 || gotDirect.IsVesting {
		t.Fatalf("direct stake mismatch: %+v", gotDirect)
	}
	gotVest, ok, err := manager.VestingStakeGet(owner, staking.TierB)
	if err != nil || !ok {
		t.Fatalf("get vesting: ok=%v err=%v", ok, err)
	}
	if gotVest.Amount.Cmp(big.NewInt(2_000)) != 0 || !gotVest.IsVesting {
		t.Fatalf("vesting stake mismatch: %+v", gotVest)
	}
}

func TestStakingPoolRoundTrip(t *testing.T) {
	manager := newTestManager()
	if pool, err := manager.PoolGet(); err != nil || pool != nil {
		t.Fatalf("expected nil pool, got %+v err=%v", pool, err)
	}

	in := staking.NewPoolState()
	in.TotalStaked = big.NewInt(9_000)
	in.TotalStakedTierA = big.NewInt(4_000)
	in.TotalStakers = 3
	in.NextStakeID = 17
	if err := manager.PoolPut(in); err != nil {
		t.Fatalf("put: %v", err)
	}
	out, err := manager.PoolGet()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.TotalStaked.Cmp(big.NewInt(9_000)) != 0 || out.TotalStakers != 3 || out.NextStakeID != 17 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if out.MinStakeAmount.Cmp(in.MinStakeAmount) != 0 {
		t.Fatal("min stake mangled")
	}
}

func TestCrossAllocationKeyedByChain(t *testing.T) {
	manager := newTestManager()
	identity := addr(0x06)

	eth := crosschain.NewAllocation(identity, crosschain.ChainIDEthereum)
	eth.TotalTokens = big.NewInt(111)
	bnb := crosschain.NewAllocation(identity, crosschain.ChainIDBNB)
	bnb.TotalTokens = big.NewInt(222)
	bnb.LinkedWallet = addr(0x07)
	if err := manager.CrossAllocationPut(eth); err != nil {
		t.Fatalf("put eth: %v", err)
	}
	if err := manager.CrossAllocationPut(bnb); err != nil {
		t.Fatalf("put bnb: %v", err)
	}

	gotEth, ok, err := manager.CrossAllocationGet(identity, crosschain.ChainIDEthereum)
	if err != nil || !ok {
		t.Fatalf("get eth: ok=%v err=%v", ok, err)
	}
	if gotEth.TotalTokens.Cmp(big.NewInt(111)) != 0 {
		t.Fatalf("eth entry mismatch: %+v", gotEth)
	}
	gotBNB, ok, err := manager.CrossAllocationGet(identity, crosschain.ChainIDBNB)
	if err != nil || !ok {
		t.Fatalf("get bnb: ok=%v err=%v", ok, err)
	}
	if gotBNB.TotalTokens.Cmp(big.NewInt(222)) != 0 || gotBNB.LinkedWallet != bnb.LinkedWallet {
		t.Fatalf("bnb entry mismatch: %+v", gotBNB)
	}
}

func TestCrossReferralRoundTrip(t *testing.T) {
	manager := newTestManager()
	referrer := addr(0x08)

	in := crosschain.NewReferral(referrer, crosschain.ChainIDPolygon)
	in.TotalBonus = big.NewInt(333)
	in.ReferralCount = 5
	if err := manager.ReferralPut(in); err != nil {
		t.Fatalf("put: %v", err)
	}
	out, ok, err := manager.ReferralGet(referrer, crosschain.ChainIDPolygon)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.TotalBonus.Cmp(big.NewInt(333)) != 0 || out.ReferralCount != 5 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if _, ok, _ := manager.ReferralGet(referrer, crosschain.ChainIDEthereum); ok {
		t.Fatal("referral leaked across chains")
	}
}

func TestTeamVestingRoundTrip(t *testing.T) {
	manager := newTestManager()
	member := addr(0x09)

	in := &vesting.TeamVesting{
		Member:          member,
		TotalAllocation: big.NewInt(777),
		ClaimedAmount:   big.NewInt(0),
		CreatedAt:       100,
		CliffEnd:        200,
		IsActive:        true,
	}
	if err := manager.VestingPut(in); err != nil {
		t.Fatalf("put: %v", err)
	}
	out, ok, err := manager.VestingGet(member)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.TotalAllocation.Cmp(big.NewInt(777)) != 0 || out.CliffEnd != 200 || !out.IsActive {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	if pool, err := manager.VestingPoolGet(); err != nil || pool != nil {
		t.Fatalf("expected nil pool, got %+v err=%v", pool, err)
	}
	if err := manager.VestingPoolPut(&vesting.PoolState{TotalAllocated: big.NewInt(777)}); err != nil {
		t.Fatalf("put pool: %v", err)
	}
	pool, err := manager.VestingPoolGet()
	if err != nil || pool == nil || pool.TotalAllocated.Cmp(big.NewInt(777)) != 0 {
		t.Fatalf("pool round trip mismatch: %+v err=%v", pool, err)
	}
}

func TestModuleVaultAddressIsStable(t *testing.T) {
	manager := newTestManager()
	if manager.ModuleVaultAddress() != ModuleVaultAddress() {
		t.Fatal("vault address not deterministic")
	}
	if manager.ModuleVaultAddress() == ([20]byte{}) {
		t.Fatal("vault address is zero")
	}
}
