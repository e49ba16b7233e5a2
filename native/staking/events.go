package staking

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"noctura/core/types"
)

const (
	EventTypeStakeCreated     = "staking.created"
	EventTypeStakeToppedUp    = "staking.topped_up"
	EventTypeRewardsHarvested = "staking.harvested"
	EventTypeRewardsComposed  = "staking.compounded"
	EventTypeUnstakeInitiated = "staking.unstake_initiated"
	EventTypeUnstakeFinalized = "staking.unstake_finalized"
	EventTypeAutoCompoundSet  = "staking.auto_compound_set"
)

func bigAttr(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newStakeEvent(eventType string, s *Stake) *types.Event {
	if s == nil {
		return &types.Event{Type: eventType, Attributes: map[string]string{}}
	}
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"stakeId": strconv.FormatUint(s.ID, 10),
			"owner":   "0x" + hex.EncodeToString(s.Owner[:]),
			"amount":  bigAttr(s.Amount),
			"tier":    s.Tier.String(),
			"vesting": strconv.FormatBool(s.IsVesting),
		},
	}
}

// NewCreatedEvent returns the canonical payload for a freshly created stake.
func NewCreatedEvent(s *Stake) *types.Event { return newStakeEvent(EventTypeStakeCreated, s) }

// NewToppedUpEvent returns the payload emitted when a vesting stake absorbs an
// additional presale purchase.
func NewToppedUpEvent(s *Stake, added *big.Int) *types.Event {
	evt := newStakeEvent(EventTypeStakeToppedUp, s)
	evt.Attributes["added"] = bigAttr(added)
	return evt
}

// NewHarvestedEvent returns the payload for a reward payout.
func NewHarvestedEvent(s *Stake, reward *big.Int) *types.Event {
	evt := newStakeEvent(EventTypeRewardsHarvested, s)
	evt.Attributes["reward"] = bigAttr(reward)
	return evt
}

// NewCompoundedEvent returns the payload emitted when harvested rewards are
// folded back into principal.
func NewCompoundedEvent(s *Stake, reward *big.Int) *types.Event {
	evt := newStakeEvent(EventTypeRewardsComposed, s)
	evt.Attributes["reward"] = bigAttr(reward)
	return evt
}

// NewUnstakeInitiatedEvent returns the payload for the start of the cooldown.
func NewUnstakeInitiatedEvent(s *Stake) *types.Event {
	return newStakeEvent(EventTypeUnstakeInitiated, s)
}

// NewUnstakeFinalizedEvent returns the payload for a completed unstake.
func NewUnstakeFinalizedEvent(s *Stake, reward, payout *big.Int) *types.Event {
	evt := newStakeEvent(EventTypeUnstakeFinalized, s)
	evt.Attributes["reward"] = bigAttr(reward)
	evt.Attributes["payout"] = bigAttr(payout)
	return evt
}

// NewAutoCompoundEvent returns the payload for an auto-compound toggle.
func NewAutoCompoundEvent(s *Stake) *types.Event {
	evt := newStakeEvent(EventTypeAutoCompoundSet, s)
	evt.Attributes["autoCompound"] = strconv.FormatBool(s.AutoCompound)
	return evt
}
