package staking

import (
	"fmt"
	"math/big"
	"time"

	"noctura/core/events"
	"noctura/core/types"
)

type engineState interface {
	PoolGet() (*PoolState, error)
	PoolPut(*PoolState) error
	StakeGet(owner [20]byte, id uint64) (*Stake, bool, error)
	VestingStakeGet(owner [20]byte, tier Tier) (*Stake, bool, error)
	StakePut(*Stake) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
	ModuleVaultAddress() [20]byte
	TGETimestamp() (int64, error)
}

// Locator addresses a stake: vesting stakes are deterministic per (owner, tier)
// while direct stakes carry a globally unique sequence identifier.
type Locator struct {
	Vesting bool
	Tier    Tier
	ID      uint64
}

type stakeEvent struct {
	evt *types.Event
}

func (e stakeEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e stakeEvent) Event() *types.Event { return e.evt }

// Engine wires the staking business logic with external state and event
// emitters. All cap checks run against "current + incoming" before any counter
// is incremented, and value always moves after the ledger writes.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a staking engine with a no-op emitter. Callers can override
// the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
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
	e.emitter.Emit(stakeEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadPool() (*PoolState, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.state.PoolGet()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		pool = NewPoolState()
	}
	return pool, nil
}

func (e *Engine) loadStake(owner [20]byte, loc Locator) (*Stake, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	var (
		stake *Stake
		ok    bool
		err   error
	)
	if loc.Vesting {
		if !loc.Tier.Valid() {
			return nil, ErrInvalidTier
		}
		stake, ok, err = e.state.VestingStakeGet(owner, loc.Tier)
	} else {
		stake, ok, err = e.state.StakeGet(owner, loc.ID)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStakeNotFound
	}
	return stake, nil
}

func (e *Engine) ensureNotBlocked(addr [20]byte) error {
	acc, err := e.state.GetAccount(addr[:])
	if err != nil {
		return err
	}
	if acc != nil && acc.Blocked {
		return ErrAddressBlocked
	}
	return nil
}

func (e *Engine) nocBalance(addr [20]byte) (*big.Int, error) {
	acc, err := e.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return cloneBigInt(acc.Normalize().BalanceNOC), nil
}

// transferNOC moves sale tokens between two accounts. It is always the last
// step of an operation; the available balance is validated up front so the
// transfer cannot fail after the ledger writes are committed.
func (e *Engine) transferNOC(from, to [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return ErrInvalidAmount
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = fromAcc.Normalize()
	toAcc = toAcc.Normalize()
	if fromAcc.BalanceNOC.Cmp(amt) < 0 {
		return ErrInsufficientNOC
	}
	fromAcc.BalanceNOC = new(big.Int).Sub(fromAcc.BalanceNOC, amt)
	toAcc.BalanceNOC = new(big.Int).Add(toAcc.BalanceNOC, amt)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

// checkCaps verifies "current + incoming" against the global staking cap and,
// for TierA, the tier-specific cap. It never mutates state.
func checkCaps(pool *PoolState, tier Tier, incoming *big.Int) error {
	next := new(big.Int).Add(pool.TotalStaked, incoming)
	if next.Cmp(MaxTotalStaked) > 0 {
		return ErrStakingCap
	}
	if tier == TierA {
		nextTier := new(big.Int).Add(pool.TotalStakedTierA, incoming)
		if nextTier.Cmp(MaxStakeTierA) > 0 {
			return ErrTierAFull
		}
	}
	return nil
}

func (e *Engine) markStaker(owner [20]byte, pool *PoolState) error {
	acc, err := e.state.GetAccount(owner[:])
	if err != nil {
		return err
	}
	acc = acc.Normalize()
	if !acc.HasStaked {
		acc.HasStaked = true
		pool.TotalStakers++
		return e.state.PutAccount(owner[:], acc)
	}
	return nil
}

func (e *Engine) addToPool(pool *PoolState, tier Tier, amount *big.Int) {
	pool.TotalStaked = new(big.Int).Add(pool.TotalStaked, amount)
	if tier == TierA {
		pool.TotalStakedTierA = new(big.Int).Add(pool.TotalStakedTierA, amount)
	}
}

// Stake bonds tokens from the owner's wallet into the custody vault under the
// chosen tier. Each direct stake receives a globally unique identifier.
func (e *Engine) Stake(owner [20]byte, amount *big.Int, tier Tier, autoCompound bool) (*Stake, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if !tier.Valid() {
		return nil, ErrInvalidTier
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := e.ensureNotBlocked(owner); err != nil {
		return nil, err
	}
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if amt.Cmp(pool.MinStakeAmount) < 0 {
		return nil, ErrBelowMinimum
	}
	if err := checkCaps(pool, tier, amt); err != nil {
		return nil, err
	}
	balance, err := e.nocBalance(owner)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amt) < 0 {
		return nil, ErrInsufficientNOC
	}

	now := e.now()
	stake := &Stake{
		ID:                    pool.NextStakeID,
		Owner:                 owner,
		Amount:                amt,
		Tier:                  tier,
		StartTime:             now,
		LockDays:              tier.LockDays(),
		LastRewardCalculation: now,
		PendingRewards:        big.NewInt(0),
		Active:                true,
		AutoCompound:          autoCompound,
		IsVesting:             false,
		TotalAdded:            cloneBigInt(amt),
	}
	pool.NextStakeID++
	e.addToPool(pool, tier, amt)
	if err := e.markStaker(owner, pool); err != nil {
		return nil, err
	}
	if err := e.state.StakePut(stake); err != nil {
		return nil, err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}
	if err := e.transferNOC(owner, e.state.ModuleVaultAddress(), amt); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(stake))
	return stake.Clone(), nil
}

// DepositStake records a new stake whose principal is already held by the
// custody vault (claim-and-stake and coordinator-funded positions). No value
// moves from the owner.
func (e *Engine) DepositStake(owner [20]byte, amount *big.Int, tier Tier, autoCompound, vesting bool) (*Stake, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if !tier.Valid() {
		return nil, ErrInvalidTier
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if err := checkCaps(pool, tier, amt); err != nil {
		return nil, err
	}
	now := e.now()
	stake := &Stake{
		ID:                    pool.NextStakeID,
		Owner:                 owner,
		Amount:                amt,
		Tier:                  tier,
		StartTime:             now,
		LockDays:              tier.LockDays(),
		LastRewardCalculation: now,
		PendingRewards:        big.NewInt(0),
		Active:                true,
		AutoCompound:          autoCompound,
		IsVesting:             vesting,
		TotalAdded:            cloneBigInt(amt),
	}
	pool.NextStakeID++
	e.addToPool(pool, tier, amt)
	if err := e.markStaker(owner, pool); err != nil {
		return nil, err
	}
	if err := e.state.StakePut(stake); err != nil {
		return nil, err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(stake))
	return stake.Clone(), nil
}

// VestPurchase creates or tops up the deterministic (owner, tier) vesting
// stake for a presale purchase. On top-up, rewards already earned on the old
// principal are settled first so the new principal cannot inflate them.
func (e *Engine) VestPurchase(owner [20]byte, amount *big.Int, tier Tier, autoCompound bool) (*Stake, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if !tier.Valid() {
		return nil, ErrInvalidTier
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if err := checkCaps(pool, tier, amt); err != nil {
		return nil, err
	}
	now := e.now()
	stake, ok, err := e.state.VestingStakeGet(owner, tier)
	if err != nil {
		return nil, err
	}
	if !ok {
		stake = &Stake{
			ID:                    pool.NextStakeID,
			Owner:                 owner,
			Amount:                amt,
			Tier:                  tier,
			StartTime:             now,
			LockDays:              tier.LockDays(),
			LastRewardCalculation: now,
			PendingRewards:        big.NewInt(0),
			Active:                true,
			AutoCompound:          autoCompound,
			IsVesting:             true,
			TotalAdded:            cloneBigInt(amt),
		}
		pool.NextStakeID++
	} else {
		if !stake.Active {
			return nil, ErrStakeNotActive
		}
		// Settle rewards accrued on the old principal before adding the new.
		reward, err := Accrue(stake, now)
		if err != nil {
			return nil, err
		}
		earned := new(big.Int).Sub(reward, stake.PendingRewards)
		if earned.Sign() > 0 {
			if stake.AutoCompound {
				stake.Amount = new(big.Int).Add(stake.Amount, earned)
				e.addToPool(pool, tier, earned)
				pool.TotalRewardsDistributed = new(big.Int).Add(pool.TotalRewardsDistributed, earned)
			} else {
				stake.PendingRewards = new(big.Int).Add(stake.PendingRewards, earned)
			}
		}
		stake.Amount = new(big.Int).Add(stake.Amount, amt)
		stake.TotalAdded = new(big.Int).Add(stake.TotalAdded, amt)
		stake.LastRewardCalculation = now
		stake.AutoCompound = autoCompound
	}
	e.addToPool(pool, tier, amt)
	if err := e.markStaker(owner, pool); err != nil {
		return nil, err
	}
	if err := e.state.StakePut(stake); err != nil {
		return nil, err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}
	if ok {
		e.emit(NewToppedUpEvent(stake, amt))
	} else {
		e.emit(NewCreatedEvent(stake))
	}
	return stake.Clone(), nil
}

// Harvest settles the accrued reward on an active stake. With auto-compound the
// reward folds into principal and nothing leaves the vault; otherwise the
// pending balance is zeroed and paid out after the counters are updated.
func (e *Engine) Harvest(owner [20]byte, loc Locator) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.ensureNotBlocked(owner); err != nil {
		return nil, err
	}
	stake, err := e.loadStake(owner, loc)
	if err != nil {
		return nil, err
	}
	if stake.Owner != owner {
		return nil, ErrNotStakeOwner
	}
	if !stake.Active {
		return nil, ErrStakeNotActive
	}
	now := e.now()
	reward, err := Accrue(stake, now)
	if err != nil {
		return nil, err
	}
	if reward.Sign() == 0 {
		return nil, ErrNoRewards
	}
	if stake.AutoCompound {
		pool, err := e.loadPool()
		if err != nil {
			return nil, err
		}
		stake.Amount = new(big.Int).Add(stake.Amount, reward)
		stake.PendingRewards = big.NewInt(0)
		stake.LastRewardCalculation = now
		// Compounded rewards become principal, so the pool counters track them.
		e.addToPool(pool, stake.Tier, reward)
		pool.TotalRewardsDistributed = new(big.Int).Add(pool.TotalRewardsDistributed, reward)
		if err := e.state.StakePut(stake); err != nil {
			return nil, err
		}
		if err := e.state.PoolPut(pool); err != nil {
			return nil, err
		}
		e.emit(NewCompoundedEvent(stake, reward))
		return reward, nil
	}
	vault := e.state.ModuleVaultAddress()
	vaultBalance, err := e.nocBalance(vault)
	if err != nil {
		return nil, err
	}
	if vaultBalance.Cmp(reward) < 0 {
		return nil, ErrInsufficientNOC
	}
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	stake.PendingRewards = big.NewInt(0)
	stake.LastRewardCalculation = now
	pool.TotalRewardsDistributed = new(big.Int).Add(pool.TotalRewardsDistributed, reward)
	if err := e.state.StakePut(stake); err != nil {
		return nil, err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}
	if err := e.transferNOC(vault, owner, reward); err != nil {
		return nil, err
	}
	e.emit(NewHarvestedEvent(stake, reward))
	return reward, nil
}

// ToggleAutoCompound flips the compounding preference on an active stake.
func (e *Engine) ToggleAutoCompound(owner [20]byte, loc Locator) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	stake, err := e.loadStake(owner, loc)
	if err != nil {
		return false, err
	}
	if stake.Owner != owner {
		return false, ErrNotStakeOwner
	}
	if !stake.Active {
		return false, ErrStakeNotActive
	}
	stake.AutoCompound = !stake.AutoCompound
	if err := e.state.StakePut(stake); err != nil {
		return false, err
	}
	e.emit(NewAutoCompoundEvent(stake))
	return stake.AutoCompound, nil
}

// InitiateUnstake starts the cooldown once the lock period has fully elapsed.
// Vesting stakes additionally require the token genesis event to have passed.
// Calling it again before finalization restarts the cooldown timer.
func (e *Engine) InitiateUnstake(owner [20]byte, loc Locator) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.ensureNotBlocked(owner); err != nil {
		return err
	}
	stake, err := e.loadStake(owner, loc)
	if err != nil {
		return err
	}
	if stake.Owner != owner {
		return ErrNotStakeOwner
	}
	if !stake.Active {
		return ErrStakeNotActive
	}
	now := e.now()
	if stake.IsVesting {
		tge, err := e.state.TGETimestamp()
		if err != nil {
			return err
		}
		if now < tge {
			return ErrVestingLocked
		}
	}
	unlock := stake.StartTime + int64(stake.LockDays)*SecondsPerDay
	if now < unlock {
		return ErrStillLocked
	}
	stake.CooldownStart = now
	if err := e.state.StakePut(stake); err != nil {
		return err
	}
	e.emit(NewUnstakeInitiatedEvent(stake))
	return nil
}

// FinalizeUnstake deactivates the stake after the cooldown and pays out
// principal plus the final reward as one value movement.
func (e *Engine) FinalizeUnstake(owner [20]byte, loc Locator) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.ensureNotBlocked(owner); err != nil {
		return nil, err
	}
	stake, err := e.loadStake(owner, loc)
	if err != nil {
		return nil, err
	}
	if stake.Owner != owner {
		return nil, ErrNotStakeOwner
	}
	if !stake.Active {
		return nil, ErrStakeNotActive
	}
	if stake.CooldownStart == 0 {
		return nil, ErrNoCooldown
	}
	now := e.now()
	if now < stake.CooldownStart+CooldownSeconds {
		return nil, ErrStillInCooldown
	}
	reward, err := Accrue(stake, now)
	if err != nil {
		return nil, err
	}
	principal := cloneBigInt(stake.Amount)
	payout := new(big.Int).Add(principal, reward)

	vault := e.state.ModuleVaultAddress()
	vaultBalance, err := e.nocBalance(vault)
	if err != nil {
		return nil, err
	}
	if vaultBalance.Cmp(payout) < 0 {
		return nil, ErrInsufficientNOC
	}
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if pool.TotalStaked.Cmp(principal) < 0 {
		return nil, fmt.Errorf("staking: pool underflow: %w", ErrAmountOverflow)
	}

	stake.Active = false
	stake.PendingRewards = big.NewInt(0)
	stake.LastRewardCalculation = now
	pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, principal)
	if stake.Tier == TierA {
		pool.TotalStakedTierA = new(big.Int).Sub(pool.TotalStakedTierA, principal)
	}
	if reward.Sign() > 0 {
		pool.TotalRewardsDistributed = new(big.Int).Add(pool.TotalRewardsDistributed, reward)
	}
	if err := e.state.StakePut(stake); err != nil {
		return nil, err
	}
	if err := e.state.PoolPut(pool); err != nil {
		return nil, err
	}
	if err := e.transferNOC(vault, owner, payout); err != nil {
		return nil, err
	}
	e.emit(NewUnstakeFinalizedEvent(stake, reward, payout))
	return payout, nil
}

// Get returns a copy of the addressed stake.
func (e *Engine) Get(owner [20]byte, loc Locator) (*Stake, error) {
	stake, err := e.loadStake(owner, loc)
	if err != nil {
		return nil, err
	}
	return stake.Clone(), nil
}

// Pool returns a copy of the pool counters.
func (e *Engine) Pool() (*PoolState, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}
