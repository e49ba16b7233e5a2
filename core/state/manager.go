package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"noctura/core/types"
	"noctura/native/crosschain"
	"noctura/native/sale"
	"noctura/native/staking"
	"noctura/native/vesting"
	"noctura/storage"
)

// Manager persists every module record as an RLP payload under a keccak
// derived key. It implements the state interfaces of the sale, staking,
// cross-chain and vesting engines.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager over the given database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// ModuleVaultAddress returns the custody account shared by all modules.
func (m *Manager) ModuleVaultAddress() [20]byte {
	return ModuleVaultAddress()
}

func (m *Manager) load(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode record: %w", err)
	}
	return true, nil
}

func (m *Manager) store(key []byte, record interface{}) error {
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return fmt.Errorf("state: encode record: %w", err)
	}
	return m.db.Put(key, encoded)
}

// RLP has no signed integers, so stored records carry timestamps as uint64.
func tsOut(ts int64) uint64 {
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func tsIn(ts uint64) int64 {
	return int64(ts)
}

func nz(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// --- accounts ---

type storedAccount struct {
	Nonce       uint64
	BalanceNOC  *big.Int
	BalanceSOL  *big.Int
	BalanceUSDT *big.Int
	BalanceUSDC *big.Int
	Blocked     bool
	HasStaked   bool
}

// GetAccount returns the account for the address, zeroed if absent.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	var rec storedAccount
	ok, err := m.load(accountKey(addr), &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return (&types.Account{}).Normalize(), nil
	}
	acc := &types.Account{
		Nonce:       rec.Nonce,
		BalanceNOC:  rec.BalanceNOC,
		BalanceSOL:  rec.BalanceSOL,
		BalanceUSDT: rec.BalanceUSDT,
		BalanceUSDC: rec.BalanceUSDC,
		Blocked:     rec.Blocked,
		HasStaked:   rec.HasStaked,
	}
	return acc.Normalize(), nil
}

// PutAccount stores the account under the address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	account = account.Normalize()
	rec := storedAccount{
		Nonce:       account.Nonce,
		BalanceNOC:  account.BalanceNOC,
		BalanceSOL:  account.BalanceSOL,
		BalanceUSDT: account.BalanceUSDT,
		BalanceUSDC: account.BalanceUSDC,
		Blocked:     account.Blocked,
		HasStaked:   account.HasStaked,
	}
	return m.store(accountKey(addr), &rec)
}

// --- sale global ---

type storedSaleGlobal struct {
	Stage                uint8
	StageTokensSold      *big.Int
	TokensSold           *big.Int
	CrossChainTokensSold *big.Int
	TotalUSDRaised       uint64
	TotalReferralBonuses *big.Int
	PresaleStartTime     uint64
	TGETimestamp         uint64
	PresaleActive        bool
	USDTEnabled          bool
	USDCEnabled          bool
	MinPurchaseOverride  uint64
	MaxPurchaseOverride  uint64
	Admin                [20]byte
	Treasury             [20]byte
	Coordinator          [20]byte
}

// GlobalGet returns the sale ledger singleton.
func (m *Manager) GlobalGet() (*sale.GlobalState, bool, error) {
	var rec storedSaleGlobal
	ok, err := m.load(saleGlobalKey, &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	global := &sale.GlobalState{
		Stage:                rec.Stage,
		StageTokensSold:      nz(rec.StageTokensSold),
		TokensSold:           nz(rec.TokensSold),
		CrossChainTokensSold: nz(rec.CrossChainTokensSold),
		TotalUSDRaised:       rec.TotalUSDRaised,
		TotalReferralBonuses: nz(rec.TotalReferralBonuses),
		PresaleStartTime:     tsIn(rec.PresaleStartTime),
		TGETimestamp:         tsIn(rec.TGETimestamp),
		PresaleActive:        rec.PresaleActive,
		USDTEnabled:          rec.USDTEnabled,
		USDCEnabled:          rec.USDCEnabled,
		MinPurchaseOverride:  rec.MinPurchaseOverride,
		MaxPurchaseOverride:  rec.MaxPurchaseOverride,
		Admin:                rec.Admin,
		Treasury:             rec.Treasury,
		Coordinator:          rec.Coordinator,
	}
	return global, true, nil
}

// GlobalPut stores the sale ledger singleton.
func (m *Manager) GlobalPut(global *sale.GlobalState) error {
	if global == nil {
		return fmt.Errorf("state: nil sale global")
	}
	rec := storedSaleGlobal{
		Stage:                global.Stage,
		StageTokensSold:      nz(global.StageTokensSold),
		TokensSold:           nz(global.TokensSold),
		CrossChainTokensSold: nz(global.CrossChainTokensSold),
		TotalUSDRaised:       global.TotalUSDRaised,
		TotalReferralBonuses: nz(global.TotalReferralBonuses),
		PresaleStartTime:     tsOut(global.PresaleStartTime),
		TGETimestamp:         tsOut(global.TGETimestamp),
		PresaleActive:        global.PresaleActive,
		USDTEnabled:          global.USDTEnabled,
		USDCEnabled:          global.USDCEnabled,
		MinPurchaseOverride:  global.MinPurchaseOverride,
		MaxPurchaseOverride:  global.MaxPurchaseOverride,
		Admin:                global.Admin,
		Treasury:             global.Treasury,
		Coordinator:          global.Coordinator,
	}
	return m.store(saleGlobalKey, &rec)
}

// SaleGlobalGet aliases GlobalGet for the cross-chain engine.
func (m *Manager) SaleGlobalGet() (*sale.GlobalState, bool, error) { return m.GlobalGet() }

// SaleGlobalPut aliases GlobalPut for the cross-chain engine.
func (m *Manager) SaleGlobalPut(global *sale.GlobalState) error { return m.GlobalPut(global) }

// AdminAddress returns the admin identity recorded at sale genesis.
func (m *Manager) AdminAddress() ([20]byte, error) {
	global, ok, err := m.GlobalGet()
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, sale.ErrNotInitialized
	}
	return global.Admin, nil
}

// TGETimestamp returns the token genesis event timestamp from the sale ledger.
func (m *Manager) TGETimestamp() (int64, error) {
	global, ok, err := m.GlobalGet()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, sale.ErrNotInitialized
	}
	return global.TGETimestamp, nil
}

// --- sale allocations ---

type storedAllocation struct {
	Owner               [20]byte
	TotalTokens         *big.Int
	ReferralBonusTokens *big.Int
	TotalSpentCents     uint64
	PurchaseCount       uint64
	FirstPurchaseTime   uint64
	LastPurchaseTime    uint64
	Referrer            [20]byte
	Claimed             bool
}

// AllocationGet returns the presale allocation for the owner.
func (m *Manager) AllocationGet(owner [20]byte) (*sale.Allocation, bool, error) {
	var rec storedAllocation
	ok, err := m.load(allocationKey(owner), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	alloc := &sale.Allocation{
		Owner:               rec.Owner,
		TotalTokens:         nz(rec.TotalTokens),
		ReferralBonusTokens: nz(rec.ReferralBonusTokens),
		TotalSpentCents:     rec.TotalSpentCents,
		PurchaseCount:       rec.PurchaseCount,
		FirstPurchaseTime:   tsIn(rec.FirstPurchaseTime),
		LastPurchaseTime:    tsIn(rec.LastPurchaseTime),
		Referrer:            rec.Referrer,
		Claimed:             rec.Claimed,
	}
	return alloc, true, nil
}

// AllocationPut stores the presale allocation under its owner.
func (m *Manager) AllocationPut(alloc *sale.Allocation) error {
	if alloc == nil {
		return fmt.Errorf("state: nil allocation")
	}
	rec := storedAllocation{
		Owner:               alloc.Owner,
		TotalTokens:         nz(alloc.TotalTokens),
		ReferralBonusTokens: nz(alloc.ReferralBonusTokens),
		TotalSpentCents:     alloc.TotalSpentCents,
		PurchaseCount:       alloc.PurchaseCount,
		FirstPurchaseTime:   tsOut(alloc.FirstPurchaseTime),
		LastPurchaseTime:    tsOut(alloc.LastPurchaseTime),
		Referrer:            alloc.Referrer,
		Claimed:             alloc.Claimed,
	}
	return m.store(allocationKey(alloc.Owner), &rec)
}

// --- staking ---

type storedStake struct {
	ID                    uint64
	Owner                 [20]byte
	Amount                *big.Int
	Tier                  uint8
	StartTime             uint64
	LockDays              uint64
	LastRewardCalculation uint64
	PendingRewards        *big.Int
	Active                bool
	AutoCompound          bool
	CooldownStart         uint64
	IsVesting             bool
	TotalAdded            *big.Int
}

func stakeFromStored(rec *storedStake) *staking.Stake {
	return &staking.Stake{
		ID:                    rec.ID,
		Owner:                 rec.Owner,
		Amount:                nz(rec.Amount),
		Tier:                  staking.Tier(rec.Tier),
		StartTime:             tsIn(rec.StartTime),
		LockDays:              rec.LockDays,
		LastRewardCalculation: tsIn(rec.LastRewardCalculation),
		PendingRewards:        nz(rec.PendingRewards),
		Active:                rec.Active,
		AutoCompound:          rec.AutoCompound,
		CooldownStart:         tsIn(rec.CooldownStart),
		IsVesting:             rec.IsVesting,
		TotalAdded:            nz(rec.TotalAdded),
	}
}

func storedFromStake(s *staking.Stake) *storedStake {
	return &storedStake{
		ID:                    s.ID,
		Owner:                 s.Owner,
		Amount:                nz(s.Amount),
		Tier:                  uint8(s.Tier),
		StartTime:             tsOut(s.StartTime),
		LockDays:              s.LockDays,
		LastRewardCalculation: tsOut(s.LastRewardCalculation),
		PendingRewards:        nz(s.PendingRewards),
		Active:                s.Active,
		AutoCompound:          s.AutoCompound,
		CooldownStart:         tsOut(s.CooldownStart),
		IsVesting:             s.IsVesting,
		TotalAdded:            nz(s.TotalAdded),
	}
}

// StakeGet returns a direct stake by owner and sequence id.
func (m *Manager) StakeGet(owner [20]byte, id uint64) (*staking.Stake, bool, error) {
	var rec storedStake
	ok, err := m.load(stakeKey(owner, id), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return stakeFromStored(&rec), true, nil
}

// VestingStakeGet returns the deterministic (owner, tier) vesting stake.
func (m *Manager) VestingStakeGet(owner [20]byte, tier staking.Tier) (*staking.Stake, bool, error) {
	var rec storedStake
	ok, err := m.load(vestStakeKey(owner, uint8(tier)), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return stakeFromStored(&rec), true, nil
}

// StakePut stores the stake under its deterministic key. Vesting stakes live
// under (owner, tier), direct stakes under (owner, id).
func (m *Manager) StakePut(s *staking.Stake) error {
	if s == nil {
		return fmt.Errorf("state: nil stake")
	}
	key := stakeKey(s.Owner, s.ID)
	if s.IsVesting {
		key = vestStakeKey(s.Owner, uint8(s.Tier))
	}
	return m.store(key, storedFromStake(s))
}

type storedStakingPool struct {
	TotalStaked             *big.Int
	TotalStakedTierA        *big.Int
	TotalStakers            uint64
	NextStakeID             uint64
	TotalRewardsDistributed *big.Int
	MinStakeAmount          *big.Int
}

// PoolGet returns the staking pool counters, nil if never written.
func (m *Manager) PoolGet() (*staking.PoolState, error) {
	var rec storedStakingPool
	ok, err := m.load(stakingPoolKey, &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &staking.PoolState{
		TotalStaked:             nz(rec.TotalStaked),
		TotalStakedTierA:        nz(rec.TotalStakedTierA),
		TotalStakers:            rec.TotalStakers,
		NextStakeID:             rec.NextStakeID,
		TotalRewardsDistributed: nz(rec.TotalRewardsDistributed),
		MinStakeAmount:          nz(rec.MinStakeAmount),
	}, nil
}

// PoolPut stores the staking pool counters.
func (m *Manager) PoolPut(pool *staking.PoolState) error {
	if pool == nil {
		return fmt.Errorf("state: nil staking pool")
	}
	rec := storedStakingPool{
		TotalStaked:             nz(pool.TotalStaked),
		TotalStakedTierA:        nz(pool.TotalStakedTierA),
		TotalStakers:            pool.TotalStakers,
		NextStakeID:             pool.NextStakeID,
		TotalRewardsDistributed: nz(pool.TotalRewardsDistributed),
		MinStakeAmount:          nz(pool.MinStakeAmount),
	}
	return m.store(stakingPoolKey, &rec)
}

// --- cross-chain ---

type storedCrossAllocation struct {
	ETHAddress          [20]byte
	ChainID             uint64
	TotalTokens         *big.Int
	ReferralBonusTokens *big.Int
	TotalSpentCents     uint64
	PurchaseCount       uint64
	FirstPurchaseTime   uint64
	LastPurchaseTime    uint64
	ReferrerETH         [20]byte
	LinkedWallet        [20]byte
	Claimed             bool
}

// CrossAllocationGet returns the cross-chain entry for the identity.
func (m *Manager) CrossAllocationGet(ethAddress [20]byte, chainID uint64) (*crosschain.Allocation, bool, error) {
	var rec storedCrossAllocation
	ok, err := m.load(crossAllocationKey(ethAddress, chainID), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	entry := &crosschain.Allocation{
		ETHAddress:          rec.ETHAddress,
		ChainID:             rec.ChainID,
		TotalTokens:         nz(rec.TotalTokens),
		ReferralBonusTokens: nz(rec.ReferralBonusTokens),
		TotalSpentCents:     rec.TotalSpentCents,
		PurchaseCount:       rec.PurchaseCount,
		FirstPurchaseTime:   tsIn(rec.FirstPurchaseTime),
		LastPurchaseTime:    tsIn(rec.LastPurchaseTime),
		ReferrerETH:         rec.ReferrerETH,
		LinkedWallet:        rec.LinkedWallet,
		Claimed:             rec.Claimed,
	}
	return entry, true, nil
}

// CrossAllocationPut stores the cross-chain entry under its identity.
func (m *Manager) CrossAllocationPut(entry *crosschain.Allocation) error {
	if entry == nil {
		return fmt.Errorf("state: nil cross-chain allocation")
	}
	rec := storedCrossAllocation{
		ETHAddress:          entry.ETHAddress,
		ChainID:             entry.ChainID,
		TotalTokens:         nz(entry.TotalTokens),
		ReferralBonusTokens: nz(entry.ReferralBonusTokens),
		TotalSpentCents:     entry.TotalSpentCents,
		PurchaseCount:       entry.PurchaseCount,
		FirstPurchaseTime:   tsOut(entry.FirstPurchaseTime),
		LastPurchaseTime:    tsOut(entry.LastPurchaseTime),
		ReferrerETH:         entry.ReferrerETH,
		LinkedWallet:        entry.LinkedWallet,
		Claimed:             entry.Claimed,
	}
	return m.store(crossAllocationKey(entry.ETHAddress, entry.ChainID), &rec)
}

type storedCrossReferral struct {
	Referrer      [20]byte
	ChainID       uint64
	TotalBonus    *big.Int
	ReferralCount uint64
}

// ReferralGet returns the referral record for the identity.
func (m *Manager) ReferralGet(referrer [20]byte, chainID uint64) (*crosschain.Referral, bool, error) {
	var rec storedCrossReferral
	ok, err := m.load(crossReferralKey(referrer, chainID), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	record := &crosschain.Referral{
		Referrer:      rec.Referrer,
		ChainID:       rec.ChainID,
		TotalBonus:    nz(rec.TotalBonus),
		ReferralCount: rec.ReferralCount,
	}
	return record, true, nil
}

// ReferralPut stores the referral record under its identity.
func (m *Manager) ReferralPut(record *crosschain.Referral) error {
	if record == nil {
		return fmt.Errorf("state: nil referral record")
	}
	rec := storedCrossReferral{
		Referrer:      record.Referrer,
		ChainID:       record.ChainID,
		TotalBonus:    nz(record.TotalBonus),
		ReferralCount: record.ReferralCount,
	}
	return m.store(crossReferralKey(record.Referrer, record.ChainID), &rec)
}

// --- team vesting ---

type storedTeamVesting struct {
	Member          [20]byte
	TotalAllocation *big.Int
	ClaimedAmount   *big.Int
	CreatedAt       uint64
	CliffEnd        uint64
	IsActive        bool
}

// VestingGet returns the member's team vesting schedule.
func (m *Manager) VestingGet(member [20]byte) (*vesting.TeamVesting, bool, error) {
	var rec storedTeamVesting
	ok, err := m.load(teamVestingKey(member), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	schedule := &vesting.TeamVesting{
		Member:          rec.Member,
		TotalAllocation: nz(rec.TotalAllocation),
		ClaimedAmount:   nz(rec.ClaimedAmount),
		CreatedAt:       tsIn(rec.CreatedAt),
		CliffEnd:        tsIn(rec.CliffEnd),
		IsActive:        rec.IsActive,
	}
	return schedule, true, nil
}

// VestingPut stores the schedule under its member.
func (m *Manager) VestingPut(schedule *vesting.TeamVesting) error {
	if schedule == nil {
		return fmt.Errorf("state: nil vesting schedule")
	}
	rec := storedTeamVesting{
		Member:          schedule.Member,
		TotalAllocation: nz(schedule.TotalAllocation),
		ClaimedAmount:   nz(schedule.ClaimedAmount),
		CreatedAt:       tsOut(schedule.CreatedAt),
		CliffEnd:        tsOut(schedule.CliffEnd),
		IsActive:        schedule.IsActive,
	}
	return m.store(teamVestingKey(schedule.Member), &rec)
}

type storedVestingPool struct {
	TotalAllocated *big.Int
}

// VestingPoolGet returns the team pool counters, nil if never written.
func (m *Manager) VestingPoolGet() (*vesting.PoolState, error) {
	var rec storedVestingPool
	ok, err := m.load(teamVestPoolKey, &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &vesting.PoolState{TotalAllocated: nz(rec.TotalAllocated)}, nil
}

// VestingPoolPut stores the team pool counters.
func (m *Manager) VestingPoolPut(pool *vesting.PoolState) error {
	if pool == nil {
		return fmt.Errorf("state: nil vesting pool")
	}
	return m.store(teamVestPoolKey, &storedVestingPool{TotalAllocated: nz(pool.TotalAllocated)})
}
