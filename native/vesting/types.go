package vesting

import (
	"fmt"
	"math/big"
)

// CliffSeconds is the team vesting cliff measured from the token genesis
// event: 18 months of 30 days.
const CliffSeconds = 18 * 30 * 86_400

// TeamPool is the total inventory available for team vesting schedules
// (20.48M tokens in base units).
var TeamPool = mustBigInt("20480000000000000")

// TeamVesting is one member's schedule. The claim is all-or-nothing: the full
// allocation unlocks at CliffEnd and can be taken exactly once.
type TeamVesting struct {
	Member          [20]byte
	TotalAllocation *big.Int
	ClaimedAmount   *big.Int
	CreatedAt       int64
	CliffEnd        int64
	IsActive        bool
}

// Clone returns a deep copy of the schedule.
func (v *TeamVesting) Clone() *TeamVesting {
	if v == nil {
		return nil
	}
	clone := *v
	clone.TotalAllocation = cloneBigInt(v.TotalAllocation)
	clone.ClaimedAmount = cloneBigInt(v.ClaimedAmount)
	return &clone
}

// PoolState tracks how much of the team pool has been committed.
type PoolState struct {
	TotalAllocated *big.Int
}

// NewPoolState returns a zeroed pool.
func NewPoolState() *PoolState {
	return &PoolState{TotalAllocated: big.NewInt(0)}
}

// Clone returns a deep copy of the pool counters.
func (p *PoolState) Clone() *PoolState {
	if p == nil {
		return nil
	}
	return &PoolState{TotalAllocated: cloneBigInt(p.TotalAllocated)}
}

// Status is the read-only view of a schedule at a point in time.
type Status struct {
	TotalAllocation *big.Int
	ClaimedAmount   *big.Int
	Claimable       *big.Int
	CliffEnd        int64
	SecondsToCliff  int64
	IsActive        bool
}

func mustBigInt(value string) *big.Int {
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic(fmt.Sprintf("vesting: invalid big integer constant %q", value))
	}
	return parsed
}

func cloneBigInt(value *big.Int) *big.Int {
	if value == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(value)
}
