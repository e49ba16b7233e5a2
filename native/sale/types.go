package sale

import "math/big"

// GlobalState is the singleton presale ledger. Counters only ever move forward;
// presaleActive flips to false once and stays there.
type GlobalState struct {
	Stage                uint8
	StageTokensSold      *big.Int
	TokensSold           *big.Int
	CrossChainTokensSold *big.Int
	TotalUSDRaised       uint64
	TotalReferralBonuses *big.Int
	PresaleStartTime     int64
	TGETimestamp         int64
	PresaleActive        bool
	USDTEnabled          bool
	USDCEnabled          bool
	MinPurchaseOverride  uint64
	MaxPurchaseOverride  uint64
	Admin                [20]byte
	Treasury             [20]byte
	Coordinator          [20]byte
}

// NewGlobalState returns a zeroed state with allocated counters. Stage, window
// and role fields are populated from genesis configuration by the caller.
func NewGlobalState() *GlobalState {
	return &GlobalState{
		StageTokensSold:      big.NewInt(0),
		TokensSold:           big.NewInt(0),
		CrossChainTokensSold: big.NewInt(0),
		TotalReferralBonuses: big.NewInt(0),
	}
}

// Clone returns a deep copy of the state.
func (g *GlobalState) Clone() *GlobalState {
	if g == nil {
		return nil
	}
	clone := *g
	clone.StageTokensSold = cloneBigInt(g.StageTokensSold)
	clone.TokensSold = cloneBigInt(g.TokensSold)
	clone.CrossChainTokensSold = cloneBigInt(g.CrossChainTokensSold)
	clone.TotalReferralBonuses = cloneBigInt(g.TotalReferralBonuses)
	return &clone
}

// MinPurchaseCents returns the effective per-transaction floor.
func (g *GlobalState) MinPurchaseCents() uint64 {
	if g.MinPurchaseOverride > 0 {
		return g.MinPurchaseOverride
	}
	return MinPurchaseUSDCents
}

// MaxPurchaseCents returns the effective per-transaction ceiling.
func (g *GlobalState) MaxPurchaseCents() uint64 {
	if g.MaxPurchaseOverride > 0 {
		return g.MaxPurchaseOverride
	}
	return MaxPurchaseUSDCents
}

// Allocation tracks a buyer's presale entitlement until it is claimed at the
// token genesis event.
type Allocation struct {
	Owner               [20]byte
	TotalTokens         *big.Int
	ReferralBonusTokens *big.Int
	TotalSpentCents     uint64
	PurchaseCount       uint64
	FirstPurchaseTime   int64
	LastPurchaseTime    int64
	Referrer            [20]byte
	Claimed             bool
}

// NewAllocation returns an empty allocation for the owner.
func NewAllocation(owner [20]byte) *Allocation {
	return &Allocation{
		Owner:               owner,
		TotalTokens:         big.NewInt(0),
		ReferralBonusTokens: big.NewInt(0),
	}
}

// Clone returns a deep copy of the allocation.
func (a *Allocation) Clone() *Allocation {
	if a == nil {
		return nil
	}
	clone := *a
	clone.TotalTokens = cloneBigInt(a.TotalTokens)
	clone.ReferralBonusTokens = cloneBigInt(a.ReferralBonusTokens)
	return &clone
}

// HasReferrer reports whether a referrer has been registered.
func (a *Allocation) HasReferrer() bool {
	return a.Referrer != ([20]byte{})
}

// Entitlement is the total claimable amount: purchases plus referral bonuses.
func (a *Allocation) Entitlement() *big.Int {
	return new(big.Int).Add(cloneBigInt(a.TotalTokens), cloneBigInt(a.ReferralBonusTokens))
}
