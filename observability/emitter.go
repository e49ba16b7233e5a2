package observability

import (
	"log/slog"
	"strconv"

	"noctura/core/events"
	"noctura/core/types"
	"noctura/native/crosschain"
	"noctura/native/sale"
	"noctura/native/staking"
	"noctura/observability/metrics"
)

type eventCarrier interface {
	Event() *types.Event
}

// Emitter forwards module events into the prometheus registries and the
// structured log. It implements events.Emitter for every engine.
type Emitter struct {
	logger *slog.Logger
}

// NewEmitter creates an emitter logging through the given logger.
func NewEmitter(logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{logger: logger}
}

// Emit records the event in metrics and logs it with its attributes.
func (e *Emitter) Emit(evt events.Event) {
	if e == nil || evt == nil {
		return
	}
	carrier, ok := evt.(eventCarrier)
	if !ok || carrier.Event() == nil {
		return
	}
	payload := carrier.Event()
	e.observe(payload)

	args := make([]any, 0, len(payload.Attributes)*2)
	for key, value := range payload.Attributes {
		args = append(args, slog.String(key, value))
	}
	e.logger.Info(payload.Type, args...)
}

func (e *Emitter) observe(payload *types.Event) {
	attrs := payload.Attributes
	switch payload.Type {
	case sale.EventTypePurchase:
		cents, _ := strconv.ParseUint(attrs["usdCents"], 10, 64)
		metrics.Sale().ObservePurchase(attrs["instrument"], cents)
		if stage, err := strconv.ParseUint(attrs["stage"], 10, 8); err == nil {
			metrics.Sale().SetStage(uint8(stage))
		}
	case sale.EventTypeStageAdvanced:
		if stage, err := strconv.ParseUint(attrs["to"], 10, 8); err == nil {
			metrics.Sale().SetStage(uint8(stage))
		}
	case sale.EventTypeClaimed, sale.EventTypeClaimStaked:
		metrics.Sale().ObserveClaim()
	case sale.EventTypeReferralBonus, crosschain.EventTypeReferralBonus:
		metrics.Sale().ObserveReferralBonus()
	case crosschain.EventTypePurchaseRecorded, crosschain.EventTypeMintVestStaked:
		metrics.Sale().ObserveCrossPurchase(attrs["chainId"])
	case staking.EventTypeStakeCreated, staking.EventTypeStakeToppedUp:
		metrics.Staking().ObserveStake(attrs["tier"])
	case staking.EventTypeRewardsHarvested:
		metrics.Staking().ObserveHarvest("payout")
	case staking.EventTypeRewardsComposed:
		metrics.Staking().ObserveHarvest("compound")
	case staking.EventTypeUnstakeInitiated:
		metrics.Staking().ObserveUnstake("initiated")
	case staking.EventTypeUnstakeFinalized:
		metrics.Staking().ObserveUnstake("finalized")
	}
}
