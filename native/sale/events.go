package sale

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"noctura/core/types"
)

const (
	EventTypeInitialized        = "sale.initialized"
	EventTypePurchase           = "sale.purchase"
	EventTypeStageAdvanced      = "sale.stage_advanced"
	EventTypeClosed             = "sale.closed"
	EventTypeClaimed            = "sale.claimed"
	EventTypeClaimStaked        = "sale.claim_staked"
	EventTypeReferrerRegistered = "sale.referrer_registered"
	EventTypeReferralBonus      = "sale.referral_bonus"
	EventTypeGrant              = "sale.grant"
	EventTypeWithdrawal         = "sale.withdrawal"
	EventTypeParamUpdated       = "sale.param_updated"
)

func addrAttr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func bigAttr(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// NewInitializedEvent returns the payload emitted at presale genesis.
func NewInitializedEvent(g *GlobalState) *types.Event {
	return &types.Event{
		Type: EventTypeInitialized,
		Attributes: map[string]string{
			"admin":     addrAttr(g.Admin),
			"treasury":  addrAttr(g.Treasury),
			"startTime": strconv.FormatInt(g.PresaleStartTime, 10),
			"tge":       strconv.FormatInt(g.TGETimestamp, 10),
		},
	}
}

// NewPurchaseEvent returns the payload for a settled purchase in any
// instrument.
func NewPurchaseEvent(buyer [20]byte, instrument string, usdCents uint64, tokens *big.Int, stage uint8) *types.Event {
	return &types.Event{
		Type: EventTypePurchase,
		Attributes: map[string]string{
			"buyer":      addrAttr(buyer),
			"instrument": instrument,
			"usdCents":   strconv.FormatUint(usdCents, 10),
			"tokens":     bigAttr(tokens),
			"stage":      strconv.FormatUint(uint64(stage), 10),
		},
	}
}

// NewStageAdvancedEvent returns the payload emitted when the pricing stage
// moves forward.
func NewStageAdvancedEvent(from, to uint8) *types.Event {
	return &types.Event{
		Type: EventTypeStageAdvanced,
		Attributes: map[string]string{
			"from": strconv.FormatUint(uint64(from), 10),
			"to":   strconv.FormatUint(uint64(to), 10),
		},
	}
}

// NewClosedEvent returns the payload emitted when the presale closes.
func NewClosedEvent(reason string) *types.Event {
	return &types.Event{
		Type:       EventTypeClosed,
		Attributes: map[string]string{"reason": reason},
	}
}

// NewClaimedEvent returns the payload for a settled allocation claim.
func NewClaimedEvent(owner [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeClaimed,
		Attributes: map[string]string{
			"owner":  addrAttr(owner),
			"amount": bigAttr(amount),
		},
	}
}

// NewClaimStakedEvent returns the payload for an allocation routed straight
// into a stake.
func NewClaimStakedEvent(owner [20]byte, amount *big.Int, tier string) *types.Event {
	return &types.Event{
		Type: EventTypeClaimStaked,
		Attributes: map[string]string{
			"owner":  addrAttr(owner),
			"amount": bigAttr(amount),
			"tier":   tier,
		},
	}
}

// NewReferrerRegisteredEvent returns the payload for a referrer registration.
func NewReferrerRegisteredEvent(buyer, referrer [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeReferrerRegistered,
		Attributes: map[string]string{
			"buyer":    addrAttr(buyer),
			"referrer": addrAttr(referrer),
		},
	}
}

// NewReferralBonusEvent returns the payload for a referral bonus mint.
func NewReferralBonusEvent(referrer, buyer [20]byte, bonus *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeReferralBonus,
		Attributes: map[string]string{
			"referrer": addrAttr(referrer),
			"buyer":    addrAttr(buyer),
			"bonus":    bigAttr(bonus),
		},
	}
}

// NewGrantEvent returns the payload for an administrative allocation grant.
func NewGrantEvent(recipient [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeGrant,
		Attributes: map[string]string{
			"recipient": addrAttr(recipient),
			"amount":    bigAttr(amount),
		},
	}
}

// NewWithdrawalEvent returns the payload for an administrative withdrawal.
func NewWithdrawalEvent(recipient [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawal,
		Attributes: map[string]string{
			"recipient": addrAttr(recipient),
			"amount":    bigAttr(amount),
		},
	}
}

// NewParamUpdatedEvent returns the payload for an administrative parameter
// change.
func NewParamUpdatedEvent(param, value string) *types.Event {
	return &types.Event{
		Type: EventTypeParamUpdated,
		Attributes: map[string]string{
			"param": param,
			"value": value,
		},
	}
}
