package crosschain

import "math/big"

const (
	// PurchaseCooldownSeconds is the minimum spacing between two attested
	// purchases for the same (address, chain) entry. The first purchase is
	// exempt.
	PurchaseCooldownSeconds = 30

	ChainIDEthereum = 1
	ChainIDBNB      = 56
	ChainIDPolygon  = 137
)

// SupportedChain reports whether the EVM chain id is in the allow-set.
func SupportedChain(chainID uint64) bool {
	switch chainID {
	case ChainIDEthereum, ChainIDBNB, ChainIDPolygon:
		return true
	}
	return false
}

// Allocation mirrors a presale allocation for a buyer identified by an EVM
// address on a supported chain. LinkedWallet is the native wallet allowed to
// claim; it is set once.
type Allocation struct {
	ETHAddress          [20]byte
	ChainID             uint64
	TotalTokens         *big.Int
	ReferralBonusTokens *big.Int
	TotalSpentCents     uint64
	PurchaseCount       uint64
	FirstPurchaseTime   int64
	LastPurchaseTime    int64
	ReferrerETH         [20]byte
	LinkedWallet        [20]byte
	Claimed             bool
}

// NewAllocation returns an empty cross-chain allocation.
func NewAllocation(ethAddress [20]byte, chainID uint64) *Allocation {
	return &Allocation{
		ETHAddress:          ethAddress,
		ChainID:             chainID,
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

// HasLinkedWallet reports whether a claim wallet has been attested.
func (a *Allocation) HasLinkedWallet() bool {
	return a.LinkedWallet != ([20]byte{})
}

// Entitlement is the claimable total: purchases plus referral bonuses.
func (a *Allocation) Entitlement() *big.Int {
	return new(big.Int).Add(cloneBigInt(a.TotalTokens), cloneBigInt(a.ReferralBonusTokens))
}

// Referral aggregates the bonuses earned by a referrer on one chain.
type Referral struct {
	Referrer      [20]byte
	ChainID       uint64
	TotalBonus    *big.Int
	ReferralCount uint64
}

// NewReferral returns an empty referral record.
func NewReferral(referrer [20]byte, chainID uint64) *Referral {
	return &Referral{
		Referrer:   referrer,
		ChainID:    chainID,
		TotalBonus: big.NewInt(0),
	}
}

// Clone returns a deep copy of the referral record.
func (r *Referral) Clone() *Referral {
	if r == nil {
		return nil
	}
	clone := *r
	clone.TotalBonus = cloneBigInt(r.TotalBonus)
	return &clone
}

func cloneBigInt(value *big.Int) *big.Int {
	if value == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(value)
}
