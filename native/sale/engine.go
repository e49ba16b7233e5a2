package sale

import (
	"math/big"
	"strconv"
	"time"

	"noctura/core/events"
	"noctura/core/types"
	"noctura/native/staking"
)

// Instrument names accepted by the stablecoin purchase path.
const (
	InstrumentSOL  = "SOL"
	InstrumentUSDT = "USDT"
	InstrumentUSDC = "USDC"
)

type engineState interface {
	GlobalGet() (*GlobalState, bool, error)
	GlobalPut(*GlobalState) error
	AllocationGet(owner [20]byte) (*Allocation, bool, error)
	AllocationPut(*Allocation) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
	ModuleVaultAddress() [20]byte
}

type saleEvent struct {
	evt *types.Event
}

func (e saleEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e saleEvent) Event() *types.Event { return e.evt }

// Engine implements the presale ledger: staged pricing, purchase accounting,
// referral bonuses and deferred claims. All validation happens before the first
// state write; the payment transfer is always the final step and the payer's
// balance is verified up front so a committed ledger cannot be stranded by a
// failing transfer.
type Engine struct {
	state   engineState
	staking *staking.Engine
	oracle  Oracle
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a sale engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetStakingEngine wires the staking engine used by vesting purchases and
// claim-and-stake.
func (e *Engine) SetStakingEngine(engine *staking.Engine) { e.staking = engine }

// SetOracle configures the price oracle for native-asset purchases.
func (e *Engine) SetOracle(oracle Oracle) { e.oracle = oracle }

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
	e.emitter.Emit(saleEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) global() (*GlobalState, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	global, ok, err := e.state.GlobalGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return global, nil
}

func (e *Engine) allocation(owner [20]byte) (*Allocation, error) {
	alloc, ok, err := e.state.AllocationGet(owner)
	if err != nil {
		return nil, err
	}
	if !ok {
		return NewAllocation(owner), nil
	}
	return alloc, nil
}

func (e *Engine) isBlocked(addr [20]byte) (bool, error) {
	acc, err := e.state.GetAccount(addr[:])
	if err != nil {
		return false, err
	}
	return acc != nil && acc.Blocked, nil
}

// Initialize seeds the presale ledger exactly once.
func (e *Engine) Initialize(admin, treasury, coordinator [20]byte, presaleStart, tge int64) (*GlobalState, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	_, ok, err := e.state.GlobalGet()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, ErrAlreadyInitialized
	}
	global := NewGlobalState()
	global.Admin = admin
	global.Treasury = treasury
	global.Coordinator = coordinator
	global.PresaleStartTime = presaleStart
	global.TGETimestamp = tge
	global.PresaleActive = true
	global.USDTEnabled = true
	global.USDCEnabled = true
	if err := e.state.GlobalPut(global); err != nil {
		return nil, err
	}
	e.emit(NewInitializedEvent(global))
	return global.Clone(), nil
}

// validatePurchase runs every check of the purchase path without mutating
// state and returns the buyer's allocation plus the priced entitlement at the
// pre-advance stage.
func (e *Engine) validatePurchase(global *GlobalState, buyer [20]byte, usdCents uint64, now int64) (*Allocation, *big.Int, error) {
	if !global.PresaleActive {
		return nil, nil, ErrSaleInactive
	}
	if now < global.PresaleStartTime {
		return nil, nil, ErrSaleNotStarted
	}
	if global.TokensSold.Cmp(PresaleCap) >= 0 {
		return nil, nil, ErrSaleEnded
	}
	blocked, err := e.isBlocked(buyer)
	if err != nil {
		return nil, nil, err
	}
	if blocked {
		return nil, nil, ErrAddressBlocked
	}
	if usdCents == 0 {
		return nil, nil, ErrInvalidAmount
	}
	if usdCents < global.MinPurchaseCents() {
		return nil, nil, ErrBelowMinimum
	}
	if usdCents > global.MaxPurchaseCents() {
		return nil, nil, ErrAboveMaximum
	}
	alloc, err := e.allocation(buyer)
	if err != nil {
		return nil, nil, err
	}
	if alloc.TotalSpentCents+usdCents > MaxUserTotalUSDCents {
		return nil, nil, ErrUserCapExceeded
	}
	tokens, err := TokensForUSD(usdCents, global.Stage)
	if err != nil {
		return nil, nil, err
	}
	if new(big.Int).Add(global.TokensSold, tokens).Cmp(PresaleCap) > 0 {
		return nil, nil, ErrHardCapReached
	}
	return alloc, tokens, nil
}

// applyReferralBonus credits the one-time first-purchase bonus out of the
// community pool headroom. A full pool degrades the bonus to zero; it never
// fails the purchase.
func (e *Engine) applyReferralBonus(global *GlobalState, alloc *Allocation, tokens *big.Int) error {
	if alloc.PurchaseCount != 0 || !alloc.HasReferrer() {
		return nil
	}
	bonus := new(big.Int).Mul(tokens, big.NewInt(ReferralBonusPercent))
	bonus.Quo(bonus, big.NewInt(100))
	if bonus.Sign() == 0 {
		return nil
	}
	if new(big.Int).Add(global.TotalReferralBonuses, bonus).Cmp(CommunityPool) > 0 {
		return nil
	}
	refAlloc, err := e.allocation(alloc.Referrer)
	if err != nil {
		return err
	}
	refAlloc.ReferralBonusTokens = new(big.Int).Add(refAlloc.ReferralBonusTokens, bonus)
	global.TotalReferralBonuses = new(big.Int).Add(global.TotalReferralBonuses, bonus)
	if err := e.state.AllocationPut(refAlloc); err != nil {
		return err
	}
	e.emit(NewReferralBonusEvent(alloc.Referrer, alloc.Owner, bonus))
	return nil
}

// applyPurchase records the entitlement, the referral bonus and the global
// counters, advancing the pricing stage and closing the sale at the hard cap.
func (e *Engine) applyPurchase(global *GlobalState, alloc *Allocation, usdCents uint64, tokens *big.Int, now int64, creditAllocation bool) error {
	if err := e.applyReferralBonus(global, alloc, tokens); err != nil {
		return err
	}
	if creditAllocation {
		alloc.TotalTokens = new(big.Int).Add(alloc.TotalTokens, tokens)
	}
	alloc.TotalSpentCents += usdCents
	if alloc.PurchaseCount == 0 {
		alloc.FirstPurchaseTime = now
	}
	alloc.PurchaseCount++
	alloc.LastPurchaseTime = now

	global.TokensSold = new(big.Int).Add(global.TokensSold, tokens)
	global.TotalUSDRaised += usdCents
	stageBefore := global.Stage
	AdvanceStage(global, tokens)
	if global.Stage != stageBefore {
		e.emit(NewStageAdvancedEvent(stageBefore, global.Stage))
	}
	if global.TokensSold.Cmp(PresaleCap) >= 0 {
		global.PresaleActive = false
		e.emit(NewClosedEvent("hard_cap"))
	}
	if err := e.state.AllocationPut(alloc); err != nil {
		return err
	}
	return e.state.GlobalPut(global)
}

// solQuote fetches and validates the oracle quote, then prices the lamports in
// USD cents.
func (e *Engine) solQuote(lamports *big.Int, now int64) (uint64, error) {
	if e.oracle == nil {
		return 0, ErrInvalidOraclePrice
	}
	quote, err := e.oracle.NativeUSD()
	if err != nil {
		return 0, err
	}
	if err := checkQuoteFreshness(quote, now); err != nil {
		return 0, err
	}
	return usdCentsForLamports(lamports, quote)
}

func stableUSDCents(amount *big.Int) (uint64, error) {
	// Stablecoins carry six decimals and peg 1:1, so cents = amount / 1e4.
	cents := new(big.Int).Quo(amount, big.NewInt(StablecoinDecimalsFactor/100))
	if !cents.IsUint64() {
		return 0, ErrInvalidAmount
	}
	return cents.Uint64(), nil
}

func (e *Engine) checkStableEnabled(global *GlobalState, instrument string) error {
	switch instrument {
	case InstrumentUSDT:
		if !global.USDTEnabled {
			return ErrUnsupportedStable
		}
	case InstrumentUSDC:
		if !global.USDCEnabled {
			return ErrUnsupportedStable
		}
	default:
		return ErrUnsupportedStable
	}
	return nil
}

func instrumentBalance(acc *types.Account, instrument string) *big.Int {
	switch instrument {
	case InstrumentSOL:
		return acc.BalanceSOL
	case InstrumentUSDT:
		return acc.BalanceUSDT
	case InstrumentUSDC:
		return acc.BalanceUSDC
	}
	return nil
}

// transferPayment settles the payment leg. SOL goes to the treasury,
// stablecoins to the admin, matching the settlement accounts of the sale.
func (e *Engine) transferPayment(global *GlobalState, buyer [20]byte, instrument string, amount *big.Int) error {
	recipient := global.Treasury
	if instrument != InstrumentSOL {
		recipient = global.Admin
	}
	buyerAcc, err := e.state.GetAccount(buyer[:])
	if err != nil {
		return err
	}
	recAcc, err := e.state.GetAccount(recipient[:])
	if err != nil {
		return err
	}
	buyerAcc = buyerAcc.Normalize()
	recAcc = recAcc.Normalize()
	from := instrumentBalance(buyerAcc, instrument)
	to := instrumentBalance(recAcc, instrument)
	if from == nil || from.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	from.Sub(from, amount)
	to.Add(to, amount)
	if err := e.state.PutAccount(buyer[:], buyerAcc); err != nil {
		return err
	}
	return e.state.PutAccount(recipient[:], recAcc)
}

// checkPayerBalance verifies the payment leg before any state write.
func (e *Engine) checkPayerBalance(buyer [20]byte, instrument string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	acc, err := e.state.GetAccount(buyer[:])
	if err != nil {
		return err
	}
	balance := instrumentBalance(acc.Normalize(), instrument)
	if balance == nil || balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// PurchaseWithSOL settles an oracle-priced purchase paid in the native asset.
func (e *Engine) PurchaseWithSOL(buyer [20]byte, lamports *big.Int) (*Allocation, error) {
	global, err := e.global()
	if err != nil {
		return nil, err
	}
	now := e.now()
	if err := e.checkPayerBalance(buyer, InstrumentSOL, lamports); err != nil {
		return nil, err
	}
	usdCents, err := e.solQuote(lamports, now)
	if err != nil {
		return nil, err
	}
	alloc, tokens, err := e.validatePurchase(global, buyer, usdCents, now)
	if err != nil {
		return nil, err
	}
	if err := e.applyPurchase(global, alloc, usdCents, tokens, now, true); err != nil {
		return nil, err
	}
	if err := e.transferPayment(global, buyer, InstrumentSOL, lamports); err != nil {
		return nil, err
	}
	e.emit(NewPurchaseEvent(buyer, InstrumentSOL, usdCents, tokens, global.Stage))
	return alloc.Clone(), nil
}

// PurchaseWithStable settles a purchase paid in a registered stablecoin at the
// 1:1 peg.
func (e *Engine) PurchaseWithStable(buyer [20]byte, instrument string, amount *big.Int) (*Allocation, error) {
	global, err := e.global()
	if err != nil {
		return nil, err
	}
	if err := e.checkStableEnabled(global, instrument); err != nil {
		return nil, err
	}
	now := e.now()
	if err := e.checkPayerBalance(buyer, instrument, amount); err != nil {
		return nil, err
	}
	usdCents, err := stableUSDCents(amount)
	if err != nil {
		return nil, err
	}
	alloc, tokens, err := e.validatePurchase(global, buyer, usdCents, now)
	if err != nil {
		return nil, err
	}
	if err := e.applyPurchase(global, alloc, usdCents, tokens, now, true); err != nil {
		return nil, err
	}
	if err := e.transferPayment(global, buyer, instrument, amount); err != nil {
		return nil, err
	}
	e.emit(NewPurchaseEvent(buyer, instrument, usdCents, tokens, global.Stage))
	return alloc.Clone(), nil
}

// purchaseAndVest runs the purchase path but routes the entitlement into the
// buyer's (owner, tier) vesting stake instead of the claimable allocation.
func (e *Engine) purchaseAndVest(buyer [20]byte, instrument string, amount *big.Int, usdCents uint64, tier staking.Tier, autoCompound bool, now int64) (*staking.Stake, error) {
	if e.staking == nil {
		return nil, ErrNilState
	}
	global, err := e.global()
	if err != nil {
		return nil, err
	}
	alloc, tokens, err := e.validatePurchase(global, buyer, usdCents, now)
	if err != nil {
		return nil, err
	}
	// The stake caps are part of validation: VestPurchase checks them before
	// mutating, so a cap rejection leaves the purchase untouched.
	stake, err := e.staking.VestPurchase(buyer, tokens, tier, autoCompound)
	if err != nil {
		return nil, err
	}
	if err := e.applyPurchase(global, alloc, usdCents, tokens, now, false); err != nil {
		return nil, err
	}
	if err := e.transferPayment(global, buyer, instrument, amount); err != nil {
		return nil, err
	}
	e.emit(NewPurchaseEvent(buyer, instrument, usdCents, tokens, global.Stage))
	return stake, nil
}

// PurchaseAndVestStakeSOL is the oracle-priced purchase that vests straight
// into a stake.
func (e *Engine) PurchaseAndVestStakeSOL(buyer [20]byte, lamports *big.Int, tier staking.Tier, autoCompound bool) (*staking.Stake, error) {
	if _, err := e.global(); err != nil {
		return nil, err
	}
	now := e.now()
	if err := e.checkPayerBalance(buyer, InstrumentSOL, lamports); err != nil {
		return nil, err
	}
	usdCents, err := e.solQuote(lamports, now)
	if err != nil {
		return nil, err
	}
	return e.purchaseAndVest(buyer, InstrumentSOL, lamports, usdCents, tier, autoCompound, now)
}

// PurchaseAndVestStakeStable is the stablecoin purchase that vests straight
// into a stake.
func (e *Engine) PurchaseAndVestStakeStable(buyer [20]byte, instrument string, amount *big.Int, tier staking.Tier, autoCompound bool) (*staking.Stake, error) {
	global, err := e.global()
	if err != nil {
		return nil, err
	}
	if err := e.checkStableEnabled(global, instrument); err != nil {
		return nil, err
	}
	now := e.now()
	if err := e.checkPayerBalance(buyer, instrument, amount); err != nil {
		return nil, err
	}
	usdCents, err := stableUSDCents(amount)
	if err != nil {
		return nil, err
	}
	return e.purchaseAndVest(buyer, instrument, amount, usdCents, tier, autoCompound, now)
}

// claimChecks validates a claim without mutating anything.
func (e *Engine) claimChecks(global *GlobalState, owner [20]byte) (*Allocation, *big.Int, error) {
	if global.TGETimestamp == 0 || e.now() < global.TGETimestamp {
		return nil, nil, ErrClaimBeforeTGE
	}
	alloc, ok, err := e.state.AllocationGet(owner)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrNoAllocation
	}
	if alloc.Claimed {
		return nil, nil, ErrAlreadyClaimed
	}
	entitlement := alloc.Entitlement()
	if entitlement.Sign() == 0 {
		return nil, nil, ErrNoAllocation
	}
	return alloc, entitlement, nil
}

func (e *Engine) payoutFromVault(owner [20]byte, amount *big.Int) error {
	vault := e.state.ModuleVaultAddress()
	vaultAcc, err := e.state.GetAccount(vault[:])
	if err != nil {
		return err
	}
	ownerAcc, err := e.state.GetAccount(owner[:])
	if err != nil {
		return err
	}
	vaultAcc = vaultAcc.Normalize()
	ownerAcc = ownerAcc.Normalize()
	if vaultAcc.BalanceNOC.Cmp(amount) < 0 {
		return ErrVaultShort
	}
	vaultAcc.BalanceNOC = new(big.Int).Sub(vaultAcc.BalanceNOC, amount)
	ownerAcc.BalanceNOC = new(big.Int).Add(ownerAcc.BalanceNOC, amount)
	if err := e.state.PutAccount(vault[:], vaultAcc); err != nil {
		return err
	}
	return e.state.PutAccount(owner[:], ownerAcc)
}

func (e *Engine) vaultBalance() (*big.Int, error) {
	vault := e.state.ModuleVaultAddress()
	acc, err := e.state.GetAccount(vault[:])
	if err != nil {
		return nil, err
	}
	return cloneBigInt(acc.Normalize().BalanceNOC), nil
}

// Claim pays out the full entitlement once the token genesis event has passed.
// The claimed flag is set before the transfer.
func (e *Engine) Claim(owner [20]byte) (*big.Int, error) {
	global, err := e.global()
	if err != nil {
		return nil, err
	}
	alloc, entitlement, err := e.claimChecks(global, owner)
	if err != nil {
		return nil, err
	}
	balance, err := e.vaultBalance()
	if err != nil {
		return nil, err
	}
	if balance.Cmp(entitlement) < 0 {
		return nil, ErrVaultShort
	}
	alloc.Claimed = true
	if err := e.state.AllocationPut(alloc); err != nil {
		return nil, err
	}
	if err := e.payoutFromVault(owner, entitlement); err != nil {
		return nil, err
	}
	e.emit(NewClaimedEvent(owner, entitlement))
	return entitlement, nil
}

// AdminClaimFor settles a claim on behalf of a buyer. Same semantics as Claim,
// gated on the admin identity.
func (e *Engine) AdminClaimFor(caller, owner [20]byte) (*big.Int, error) {
	global, err := e.global()
	if err != nil {
		return nil, err
	}
	if caller != global.Admin {
		return nil, ErrNotAdmin
	}
	alloc, entitlement, err := e.claimChecks(global, owner)
	if err != nil {
		return nil, err
	}
	balance, err := e.vaultBalance()
	if err != nil {
		return nil, err
	}
	if balance.Cmp(entitlement) < 0 {
		return nil, ErrVaultShort
	}
	alloc.Claimed = true
	if err := e.state.AllocationPut(alloc); err != nil {
		return nil, err
	}
	if err := e.payoutFromVault(owner, entitlement); err != nil {
		return nil, err
	}
	e.emit(NewClaimedEvent(owner, entitlement))
	return entitlement, nil
}

// ClaimAndStake marks the allocation claimed and opens a fresh stake with the
// entitlement instead of paying it out. The tokens never leave custody.
func (e *Engine) ClaimAndStake(owner [20]byte, tier staking.Tier, autoCompound bool) (*staking.Stake, error) {
	if e.staking == nil {
		return nil, ErrNilState
	}
	global, err := e.global()
	if err != nil {
		return nil, err
	}
	alloc, entitlement, err := e.claimChecks(global, owner)
	if err != nil {
		return nil, err
	}
	stake, err := e.staking.DepositStake(owner, entitlement, tier, autoCompound, false)
	if err != nil {
		return nil, err
	}
	alloc.Claimed = true
	if err := e.state.AllocationPut(alloc); err != nil {
		return nil, err
	}
	e.emit(NewClaimStakedEvent(owner, entitlement, tier.String()))
	return stake, nil
}

// RegisterReferrer records the buyer's referrer, at most once.
func (e *Engine) RegisterReferrer(buyer, referrer [20]byte) error {
	if _, err := e.global(); err != nil {
		return err
	}
	if referrer == ([20]byte{}) {
		return ErrZeroReferrer
	}
	if referrer == buyer {
		return ErrSelfReferral
	}
	blocked, err := e.isBlocked(buyer)
	if err != nil {
		return err
	}
	if blocked {
		return ErrAddressBlocked
	}
	alloc, err := e.allocation(buyer)
	if err != nil {
		return err
	}
	if alloc.HasReferrer() {
		return ErrReferrerSet
	}
	alloc.Referrer = referrer
	if err := e.state.AllocationPut(alloc); err != nil {
		return err
	}
	e.emit(NewReferrerRegisteredEvent(buyer, referrer))
	return nil
}

// AdminGrantAllocation credits a giveaway allocation out of the community pool.
// The grant shares the referral bonus counter, so referral mints and giveaways
// draw down the same headroom.
func (e *Engine) AdminGrantAllocation(caller, recipient [20]byte, amount *big.Int) error {
	global, err := e.global()
	if err != nil {
		return err
	}
	if caller != global.Admin {
		return ErrNotAdmin
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if new(big.Int).Add(global.TotalReferralBonuses, amt).Cmp(CommunityPool) > 0 {
		return ErrCommunityPoolEmpty
	}
	alloc, err := e.allocation(recipient)
	if err != nil {
		return err
	}
	alloc.ReferralBonusTokens = new(big.Int).Add(alloc.ReferralBonusTokens, amt)
	global.TotalReferralBonuses = new(big.Int).Add(global.TotalReferralBonuses, amt)
	if err := e.state.AllocationPut(alloc); err != nil {
		return err
	}
	if err := e.state.GlobalPut(global); err != nil {
		return err
	}
	e.emit(NewGrantEvent(recipient, amt))
	return nil
}

// AdminWithdraw releases sale tokens from the custody vault, never touching
// the portion backing active stakes.
func (e *Engine) AdminWithdraw(caller, recipient [20]byte, amount *big.Int) error {
	global, err := e.global()
	if err != nil {
		return err
	}
	if caller != global.Admin {
		return ErrNotAdmin
	}
	if e.staking == nil {
		return ErrNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := e.vaultBalance()
	if err != nil {
		return err
	}
	pool, err := e.staking.Pool()
	if err != nil {
		return err
	}
	free := new(big.Int).Sub(balance, pool.TotalStaked)
	if free.Cmp(amt) < 0 {
		return ErrWithdrawLocked
	}
	if err := e.payoutFromVault(recipient, amt); err != nil {
		return err
	}
	e.emit(NewWithdrawalEvent(recipient, amt))
	return nil
}

func (e *Engine) adminMutate(caller [20]byte, mutate func(*GlobalState) (string, string)) error {
	global, err := e.global()
	if err != nil {
		return err
	}
	if caller != global.Admin {
		return ErrNotAdmin
	}
	param, value := mutate(global)
	if err := e.state.GlobalPut(global); err != nil {
		return err
	}
	e.emit(NewParamUpdatedEvent(param, value))
	return nil
}

// SetPresaleActive toggles the presale switch.
func (e *Engine) SetPresaleActive(caller [20]byte, active bool) error {
	return e.adminMutate(caller, func(g *GlobalState) (string, string) {
		g.PresaleActive = active
		return "presaleActive", strconv.FormatBool(active)
	})
}

// SetTGETimestamp updates the token genesis event timestamp.
func (e *Engine) SetTGETimestamp(caller [20]byte, tge int64) error {
	return e.adminMutate(caller, func(g *GlobalState) (string, string) {
		g.TGETimestamp = tge
		return "tgeTimestamp", strconv.FormatInt(tge, 10)
	})
}

// SetPresaleStartTime updates the presale window opening time.
func (e *Engine) SetPresaleStartTime(caller [20]byte, start int64) error {
	return e.adminMutate(caller, func(g *GlobalState) (string, string) {
		g.PresaleStartTime = start
		return "presaleStartTime", strconv.FormatInt(start, 10)
	})
}

// SetPurchaseLimits overrides the per-transaction bounds. Zero restores the
// built-in constants.
func (e *Engine) SetPurchaseLimits(caller [20]byte, minCents, maxCents uint64) error {
	return e.adminMutate(caller, func(g *GlobalState) (string, string) {
		g.MinPurchaseOverride = minCents
		g.MaxPurchaseOverride = maxCents
		return "purchaseLimits", strconv.FormatUint(minCents, 10) + "/" + strconv.FormatUint(maxCents, 10)
	})
}

// SetTreasury updates the native-asset settlement account.
func (e *Engine) SetTreasury(caller, treasury [20]byte) error {
	return e.adminMutate(caller, func(g *GlobalState) (string, string) {
		g.Treasury = treasury
		return "treasury", addrAttr(treasury)
	})
}

// SetCoordinator updates the attested cross-chain coordinator identity.
func (e *Engine) SetCoordinator(caller, coordinator [20]byte) error {
	return e.adminMutate(caller, func(g *GlobalState) (string, string) {
		g.Coordinator = coordinator
		return "coordinator", addrAttr(coordinator)
	})
}

// SetStablecoinEnabled registers or deregisters a stablecoin instrument.
func (e *Engine) SetStablecoinEnabled(caller [20]byte, instrument string, enabled bool) error {
	switch instrument {
	case InstrumentUSDT, InstrumentUSDC:
	default:
		return ErrUnsupportedStable
	}
	return e.adminMutate(caller, func(g *GlobalState) (string, string) {
		if instrument == InstrumentUSDT {
			g.USDTEnabled = enabled
		} else {
			g.USDCEnabled = enabled
		}
		return "stablecoin:" + instrument, strconv.FormatBool(enabled)
	})
}

// SetAddressBlocked flips the block flag on a wallet.
func (e *Engine) SetAddressBlocked(caller, addr [20]byte, blocked bool) error {
	global, err := e.global()
	if err != nil {
		return err
	}
	if caller != global.Admin {
		return ErrNotAdmin
	}
	acc, err := e.state.GetAccount(addr[:])
	if err != nil {
		return err
	}
	acc = acc.Normalize()
	acc.Blocked = blocked
	if err := e.state.PutAccount(addr[:], acc); err != nil {
		return err
	}
	e.emit(NewParamUpdatedEvent("blocked:"+addrAttr(addr), strconv.FormatBool(blocked)))
	return nil
}

// Global returns a copy of the presale ledger.
func (e *Engine) Global() (*GlobalState, error) {
	global, err := e.global()
	if err != nil {
		return nil, err
	}
	return global.Clone(), nil
}

// AllocationOf returns a copy of the owner's allocation, empty if none exists.
func (e *Engine) AllocationOf(owner [20]byte) (*Allocation, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	alloc, err := e.allocation(owner)
	if err != nil {
		return nil, err
	}
	return alloc.Clone(), nil
}
