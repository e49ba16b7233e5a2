package vesting

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"time"

	"noctura/core/events"
	"noctura/core/types"
)

const (
	EventTypeScheduleCreated = "vesting.schedule_created"
	EventTypeClaimed         = "vesting.claimed"
)

type engineState interface {
	VestingGet(member [20]byte) (*TeamVesting, bool, error)
	VestingPut(*TeamVesting) error
	VestingPoolGet() (*PoolState, error)
	VestingPoolPut(*PoolState) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
	ModuleVaultAddress() [20]byte
	AdminAddress() ([20]byte, error)
	TGETimestamp() (int64, error)
}

type vestingEvent struct {
	evt *types.Event
}

func (e vestingEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e vestingEvent) Event() *types.Event { return e.evt }

// Engine manages team vesting schedules. One schedule per member, full unlock
// at the cliff, claimed exactly once.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a vesting engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

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
	e.emitter.Emit(vestingEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) pool() (*PoolState, error) {
	pool, err := e.state.VestingPoolGet()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		pool = NewPoolState()
	}
	return pool, nil
}

// Create opens a schedule for the member. Admin only; the cliff is anchored to
// the token genesis event at creation time.
func (e *Engine) Create(caller, member [20]byte, amount *big.Int) (*TeamVesting, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	admin, err := e.state.AdminAddress()
	if err != nil {
		return nil, err
	}
	if caller != admin {
		return nil, ErrNotAdmin
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, ok, err := e.state.VestingGet(member); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrScheduleExists
	}
	pool, err := e.pool()
	if err != nil {
		return nil, err
	}
	if new(big.Int).Add(pool.TotalAllocated, amt).Cmp(TeamPool) > 0 {
		return nil, ErrPoolExhausted
	}
	tge, err := e.state.TGETimestamp()
	if err != nil {
		return nil, err
	}
	now := e.now()
	schedule := &TeamVesting{
		Member:          member,
		TotalAllocation: amt,
		ClaimedAmount:   big.NewInt(0),
		CreatedAt:       now,
		CliffEnd:        tge + CliffSeconds,
		IsActive:        true,
	}
	pool.TotalAllocated = new(big.Int).Add(pool.TotalAllocated, amt)
	if err := e.state.VestingPut(schedule); err != nil {
		return nil, err
	}
	if err := e.state.VestingPoolPut(pool); err != nil {
		return nil, err
	}
	e.emit(&types.Event{
		Type: EventTypeScheduleCreated,
		Attributes: map[string]string{
			"member":   "0x" + hex.EncodeToString(member[:]),
			"amount":   amt.String(),
			"cliffEnd": strconv.FormatInt(schedule.CliffEnd, 10),
		},
	})
	return schedule.Clone(), nil
}

// Claim releases the full allocation once the cliff has passed. The schedule
// is settled before the transfer.
func (e *Engine) Claim(member [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	schedule, ok, err := e.state.VestingGet(member)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrScheduleNotFound
	}
	if !schedule.IsActive || schedule.ClaimedAmount.Sign() > 0 {
		return nil, ErrAlreadyClaimed
	}
	if e.now() < schedule.CliffEnd {
		return nil, ErrCliffNotReached
	}
	amount := cloneBigInt(schedule.TotalAllocation)
	vault := e.state.ModuleVaultAddress()
	vaultAcc, err := e.state.GetAccount(vault[:])
	if err != nil {
		return nil, err
	}
	vaultAcc = vaultAcc.Normalize()
	if vaultAcc.BalanceNOC.Cmp(amount) < 0 {
		return nil, ErrVaultShort
	}
	schedule.ClaimedAmount = cloneBigInt(amount)
	schedule.IsActive = false
	if err := e.state.VestingPut(schedule); err != nil {
		return nil, err
	}
	memberAcc, err := e.state.GetAccount(member[:])
	if err != nil {
		return nil, err
	}
	memberAcc = memberAcc.Normalize()
	vaultAcc.BalanceNOC = new(big.Int).Sub(vaultAcc.BalanceNOC, amount)
	memberAcc.BalanceNOC = new(big.Int).Add(memberAcc.BalanceNOC, amount)
	if err := e.state.PutAccount(vault[:], vaultAcc); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(member[:], memberAcc); err != nil {
		return nil, err
	}
	e.emit(&types.Event{
		Type: EventTypeClaimed,
		Attributes: map[string]string{
			"member": "0x" + hex.EncodeToString(member[:]),
			"amount": amount.String(),
		},
	})
	return amount, nil
}

// StatusOf computes the point-in-time view of a member's schedule.
func (e *Engine) StatusOf(member [20]byte) (*Status, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	schedule, ok, err := e.state.VestingGet(member)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrScheduleNotFound
	}
	now := e.now()
	status := &Status{
		TotalAllocation: cloneBigInt(schedule.TotalAllocation),
		ClaimedAmount:   cloneBigInt(schedule.ClaimedAmount),
		Claimable:       big.NewInt(0),
		CliffEnd:        schedule.CliffEnd,
		IsActive:        schedule.IsActive,
	}
	if now < schedule.CliffEnd {
		status.SecondsToCliff = schedule.CliffEnd - now
	} else if schedule.IsActive && schedule.ClaimedAmount.Sign() == 0 {
		status.Claimable = cloneBigInt(schedule.TotalAllocation)
	}
	return status, nil
}

// Pool returns a copy of the team pool counters.
func (e *Engine) Pool() (*PoolState, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.pool()
	if err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}
