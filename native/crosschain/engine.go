package crosschain

import (
	"math/big"
	"time"

	"noctura/core/events"
	"noctura/core/types"
	"noctura/native/sale"
	"noctura/native/staking"
)

type engineState interface {
	SaleGlobalGet() (*sale.GlobalState, bool, error)
	SaleGlobalPut(*sale.GlobalState) error
	CrossAllocationGet(ethAddress [20]byte, chainID uint64) (*Allocation, bool, error)
	CrossAllocationPut(*Allocation) error
	ReferralGet(referrer [20]byte, chainID uint64) (*Referral, bool, error)
	ReferralPut(*Referral) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
	ModuleVaultAddress() [20]byte
}

type chainEvent struct {
	evt *types.Event
}

func (e chainEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e chainEvent) Event() *types.Event { return e.evt }

// Engine maintains the coordinator-attested cross-chain purchase ledger.
// Purchases recorded here draw down the same sale inventory and stage pricing
// as native purchases; the entitlement stays in the ledger until a linked
// wallet claims it after the token genesis event.
type Engine struct {
	state   engineState
	staking *staking.Engine
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a cross-chain engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetStakingEngine wires the staking engine used by MintAndVestStake.
func (e *Engine) SetStakingEngine(engine *staking.Engine) { e.staking = engine }

// SetNowFunc overrides the engine clock, primarily for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter. Nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(chainEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) global() (*sale.GlobalState, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	global, ok, err := e.state.SaleGlobalGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sale.ErrNotInitialized
	}
	return global, nil
}

func (e *Engine) entry(ethAddress [20]byte, chainID uint64) (*Allocation, bool, error) {
	return e.state.CrossAllocationGet(ethAddress, chainID)
}

// validateRecord runs every check of the attested purchase path without
// mutating state and returns the entry plus the priced entitlement.
func (e *Engine) validateRecord(global *sale.GlobalState, caller, ethAddress [20]byte, chainID, usdCents uint64, now int64) (*Allocation, *big.Int, error) {
	if caller != global.Coordinator {
		return nil, nil, ErrNotCoordinator
	}
	if !SupportedChain(chainID) {
		return nil, nil, ErrUnsupportedChain
	}
	if !global.PresaleActive {
		return nil, nil, sale.ErrSaleInactive
	}
	if now < global.PresaleStartTime {
		return nil, nil, sale.ErrSaleNotStarted
	}
	if global.TokensSold.Cmp(sale.PresaleCap) >= 0 {
		return nil, nil, sale.ErrSaleEnded
	}
	if usdCents == 0 {
		return nil, nil, sale.ErrInvalidAmount
	}
	if usdCents < global.MinPurchaseCents() {
		return nil, nil, sale.ErrBelowMinimum
	}
	if usdCents > global.MaxPurchaseCents() {
		return nil, nil, sale.ErrAboveMaximum
	}
	entry, ok, err := e.entry(ethAddress, chainID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		entry = NewAllocation(ethAddress, chainID)
	}
	if entry.PurchaseCount > 0 && now-entry.LastPurchaseTime < PurchaseCooldownSeconds {
		return nil, nil, ErrCooldownActive
	}
	if entry.TotalSpentCents+usdCents > sale.MaxUserTotalUSDCents {
		return nil, nil, sale.ErrUserCapExceeded
	}
	tokens, err := sale.TokensForUSD(usdCents, global.Stage)
	if err != nil {
		return nil, nil, err
	}
	if new(big.Int).Add(global.TokensSold, tokens).Cmp(sale.PresaleCap) > 0 {
		return nil, nil, sale.ErrHardCapReached
	}
	return entry, tokens, nil
}

// applyReferral credits the first-purchase bonus to the referrer's mirror
// allocation and referral record, bounded by the community pool headroom. A
// full pool degrades the bonus to zero, as does a referrer without a ledger
// entry of their own.
func (e *Engine) applyReferral(global *sale.GlobalState, entry *Allocation, referrer [20]byte, tokens *big.Int) error {
	if entry.PurchaseCount != 0 {
		return nil
	}
	if referrer == ([20]byte{}) {
		return nil
	}
	if referrer == entry.ETHAddress {
		return ErrSelfReferral
	}
	entry.ReferrerETH = referrer
	bonus := new(big.Int).Mul(tokens, big.NewInt(sale.ReferralBonusPercent))
	bonus.Quo(bonus, big.NewInt(100))
	if bonus.Sign() == 0 {
		return nil
	}
	if new(big.Int).Add(global.TotalReferralBonuses, bonus).Cmp(sale.CommunityPool) > 0 {
		return nil
	}
	refEntry, ok, err := e.entry(referrer, entry.ChainID)
	if err != nil {
		return err
	}
	if !ok {
		// Only referrers who hold an entry themselves earn the bonus.
		return nil
	}
	record, ok, err := e.state.ReferralGet(referrer, entry.ChainID)
	if err != nil {
		return err
	}
	if !ok {
		record = NewReferral(referrer, entry.ChainID)
	}
	refEntry.ReferralBonusTokens = new(big.Int).Add(refEntry.ReferralBonusTokens, bonus)
	record.TotalBonus = new(big.Int).Add(record.TotalBonus, bonus)
	record.ReferralCount++
	global.TotalReferralBonuses = new(big.Int).Add(global.TotalReferralBonuses, bonus)
	if err := e.state.CrossAllocationPut(refEntry); err != nil {
		return err
	}
	if err := e.state.ReferralPut(record); err != nil {
		return err
	}
	e.emit(NewReferralBonusEvent(referrer, entry.ChainID, bonus))
	return nil
}

// applyRecord commits the entry and the global counters, sharing the stage
// progression and hard-cap close with native purchases.
func (e *Engine) applyRecord(global *sale.GlobalState, entry *Allocation, usdCents uint64, tokens *big.Int, now int64, creditEntry bool) error {
	if creditEntry {
		entry.TotalTokens = new(big.Int).Add(entry.TotalTokens, tokens)
	}
	entry.TotalSpentCents += usdCents
	if entry.PurchaseCount == 0 {
		entry.FirstPurchaseTime = now
	}
	entry.PurchaseCount++
	entry.LastPurchaseTime = now

	global.TokensSold = new(big.Int).Add(global.TokensSold, tokens)
	global.CrossChainTokensSold = new(big.Int).Add(global.CrossChainTokensSold, tokens)
	global.TotalUSDRaised += usdCents
	stageBefore := global.Stage
	sale.AdvanceStage(global, tokens)
	if global.Stage != stageBefore {
		e.emit(sale.NewStageAdvancedEvent(stageBefore, global.Stage))
	}
	if global.TokensSold.Cmp(sale.PresaleCap) >= 0 {
		global.PresaleActive = false
		e.emit(sale.NewClosedEvent("hard_cap"))
	}
	if err := e.state.CrossAllocationPut(entry); err != nil {
		return err
	}
	return e.state.SaleGlobalPut(global)
}

// RecordPurchase stores an attested off-chain purchase. Only the coordinator
// may call it; the entitlement is priced at the current stage.
func (e *Engine) RecordPurchase(caller, ethAddress [20]byte, chainID, usdCents uint64, referrer [20]byte) (*Allocation, error) {
	global, err := e.global()
	if err != nil {
		return nil, err
	}
	now := e.now()
	entry, tokens, err := e.validateRecord(global, caller, ethAddress, chainID, usdCents, now)
	if err != nil {
		return nil, err
	}
	if err := e.applyReferral(global, entry, referrer, tokens); err != nil {
		return nil, err
	}
	if err := e.applyRecord(global, entry, usdCents, tokens, now, true); err != nil {
		return nil, err
	}
	e.emit(NewPurchaseRecordedEvent(entry, usdCents, tokens))
	return entry.Clone(), nil
}

// LinkWallet attests the native wallet allowed to claim the entry. One-way.
func (e *Engine) LinkWallet(caller, ethAddress [20]byte, chainID uint64, wallet [20]byte) error {
	global, err := e.global()
	if err != nil {
		return err
	}
	if caller != global.Coordinator {
		return ErrNotCoordinator
	}
	if wallet == ([20]byte{}) {
		return ErrZeroWallet
	}
	entry, ok, err := e.entry(ethAddress, chainID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAllocationNotFound
	}
	if entry.HasLinkedWallet() {
		return ErrWalletLinked
	}
	entry.LinkedWallet = wallet
	if err := e.state.CrossAllocationPut(entry); err != nil {
		return err
	}
	e.emit(NewWalletLinkedEvent(entry))
	return nil
}

// Claim pays out a cross-chain entitlement to the linked wallet after the
// token genesis event. The claimed flag is set before the transfer.
func (e *Engine) Claim(caller, ethAddress [20]byte, chainID uint64) (*big.Int, error) {
	global, err := e.global()
	if err != nil {
		return nil, err
	}
	if global.TGETimestamp == 0 || e.now() < global.TGETimestamp {
		return nil, sale.ErrClaimBeforeTGE
	}
	entry, ok, err := e.entry(ethAddress, chainID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAllocationNotFound
	}
	if !entry.HasLinkedWallet() {
		return nil, ErrWalletNotLinked
	}
	if caller != entry.LinkedWallet {
		return nil, ErrWrongWallet
	}
	if entry.Claimed {
		return nil, sale.ErrAlreadyClaimed
	}
	entitlement := entry.Entitlement()
	if entitlement.Sign() == 0 {
		return nil, sale.ErrNoAllocation
	}
	vault := e.state.ModuleVaultAddress()
	vaultAcc, err := e.state.GetAccount(vault[:])
	if err != nil {
		return nil, err
	}
	if vaultAcc.Normalize().BalanceNOC.Cmp(entitlement) < 0 {
		return nil, sale.ErrVaultShort
	}
	entry.Claimed = true
	if err := e.state.CrossAllocationPut(entry); err != nil {
		return nil, err
	}
	walletAcc, err := e.state.GetAccount(caller[:])
	if err != nil {
		return nil, err
	}
	vaultAcc = vaultAcc.Normalize()
	walletAcc = walletAcc.Normalize()
	vaultAcc.BalanceNOC = new(big.Int).Sub(vaultAcc.BalanceNOC, entitlement)
	walletAcc.BalanceNOC = new(big.Int).Add(walletAcc.BalanceNOC, entitlement)
	if err := e.state.PutAccount(vault[:], vaultAcc); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(caller[:], walletAcc); err != nil {
		return nil, err
	}
	e.emit(NewClaimedEvent(entry, entitlement))
	return entitlement, nil
}

// MintAndVestStake records an attested purchase for a buyer who supplied a
// native wallet up front and stakes the entitlement straight into the
// deterministic (wallet, tier) vesting position. The staked tokens never enter
// the entry's claimable balance, so earlier recorded purchases stay claimable
// and repeat calls top up the same stake.
func (e *Engine) MintAndVestStake(caller, ethAddress [20]byte, chainID, usdCents uint64, wallet [20]byte, tier staking.Tier, autoCompound bool, referrer [20]byte) (*staking.Stake, error) {
	if e.staking == nil {
		return nil, ErrNilState
	}
	if wallet == ([20]byte{}) {
		return nil, ErrZeroWallet
	}
	global, err := e.global()
	if err != nil {
		return nil, err
	}
	now := e.now()
	entry, tokens, err := e.validateRecord(global, caller, ethAddress, chainID, usdCents, now)
	if err != nil {
		return nil, err
	}
	if entry.PurchaseCount == 0 && referrer != ([20]byte{}) && referrer == ethAddress {
		return nil, ErrSelfReferral
	}
	// The cap checks inside VestPurchase are the last fallible step, so the
	// stake commits before any referral or entry write.
	stake, err := e.staking.VestPurchase(wallet, tokens, tier, autoCompound)
	if err != nil {
		return nil, err
	}
	if err := e.applyReferral(global, entry, referrer, tokens); err != nil {
		return nil, err
	}
	if entry.LinkedWallet == ([20]byte{}) {
		entry.LinkedWallet = wallet
	}
	if err := e.applyRecord(global, entry, usdCents, tokens, now, false); err != nil {
		return nil, err
	}
	e.emit(NewMintVestStakedEvent(entry, wallet, tokens, tier.String()))
	return stake, nil
}

// AllocationOf returns a copy of the entry for the identity.
func (e *Engine) AllocationOf(ethAddress [20]byte, chainID uint64) (*Allocation, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	entry, ok, err := e.entry(ethAddress, chainID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAllocationNotFound
	}
	return entry.Clone(), nil
}

// ReferralOf returns a copy of the referral record for the identity.
func (e *Engine) ReferralOf(referrer [20]byte, chainID uint64) (*Referral, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	record, ok, err := e.state.ReferralGet(referrer, chainID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAllocationNotFound
	}
	return record.Clone(), nil
}
