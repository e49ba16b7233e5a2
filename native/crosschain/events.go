package crosschain

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"noctura/core/types"
)

const (
	EventTypePurchaseRecorded = "crosschain.purchase_recorded"
	EventTypeWalletLinked     = "crosschain.wallet_linked"
	EventTypeClaimed          = "crosschain.claimed"
	EventTypeMintVestStaked   = "crosschain.mint_vest_staked"
	EventTypeReferralBonus    = "crosschain.referral_bonus"
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

func newEntryEvent(eventType string, a *Allocation) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"ethAddress": addrAttr(a.ETHAddress),
			"chainId":    strconv.FormatUint(a.ChainID, 10),
		},
	}
}

// NewPurchaseRecordedEvent returns the payload for an attested purchase.
func NewPurchaseRecordedEvent(a *Allocation, usdCents uint64, tokens *big.Int) *types.Event {
	evt := newEntryEvent(EventTypePurchaseRecorded, a)
	evt.Attributes["usdCents"] = strconv.FormatUint(usdCents, 10)
	evt.Attributes["tokens"] = bigAttr(tokens)
	return evt
}

// NewWalletLinkedEvent returns the payload for a claim-wallet attestation.
func NewWalletLinkedEvent(a *Allocation) *types.Event {
	evt := newEntryEvent(EventTypeWalletLinked, a)
	evt.Attributes["wallet"] = addrAttr(a.LinkedWallet)
	return evt
}

// NewClaimedEvent returns the payload for a settled cross-chain claim.
func NewClaimedEvent(a *Allocation, amount *big.Int) *types.Event {
	evt := newEntryEvent(EventTypeClaimed, a)
	evt.Attributes["wallet"] = addrAttr(a.LinkedWallet)
	evt.Attributes["amount"] = bigAttr(amount)
	return evt
}

// NewMintVestStakedEvent returns the payload for a coordinator-funded vesting
// stake.
func NewMintVestStakedEvent(a *Allocation, wallet [20]byte, tokens *big.Int, tier string) *types.Event {
	evt := newEntryEvent(EventTypeMintVestStaked, a)
	evt.Attributes["wallet"] = addrAttr(wallet)
	evt.Attributes["tokens"] = bigAttr(tokens)
	evt.Attributes["tier"] = tier
	return evt
}

// NewReferralBonusEvent returns the payload for a cross-chain referral mint.
func NewReferralBonusEvent(referrer [20]byte, chainID uint64, bonus *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeReferralBonus,
		Attributes: map[string]string{
			"referrer": addrAttr(referrer),
			"chainId":  strconv.FormatUint(chainID, 10),
			"bonus":    bigAttr(bonus),
		},
	}
}
