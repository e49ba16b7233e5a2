package sale

import (
	"fmt"
	"math/big"
)

const (
	// StageCount is the number of presale pricing stages.
	StageCount = 10

	// TokenDecimalsFactor converts whole sale tokens to base units.
	TokenDecimalsFactor = 1_000_000_000

	// StablecoinDecimalsFactor converts whole USDT/USDC to base units.
	StablecoinDecimalsFactor = 1_000_000

	// LamportsPerSOL converts whole SOL to lamports.
	LamportsPerSOL = 1_000_000_000

	// PriceScale is the fixed-point scale of stage prices: a price of 1501
	// means $0.1501 per token.
	PriceScale = 10_000

	// OracleMaxAgeSeconds bounds how stale a price quote may be.
	OracleMaxAgeSeconds = 120

	// ReferralBonusPercent is the share of a referee's first purchase minted
	// to the referrer out of the community pool.
	ReferralBonusPercent = 10

	// MinPurchaseUSDCents is the per-transaction floor ($25).
	MinPurchaseUSDCents = 2_500

	// MaxPurchaseUSDCents is the per-transaction ceiling ($50,000).
	MaxPurchaseUSDCents = 5_000_000

	// MaxUserTotalUSDCents caps a wallet's lifetime presale spend ($200,000).
	MaxUserTotalUSDCents = 20_000_000
)

// stagePrices holds the per-stage token price in PriceScale fixed point.
var stagePrices = [StageCount]uint64{
	1501, 1723, 1945, 2167, 2389, 2611, 2833, 3055, 3277, 3499,
}

var (
	// TokensPerStage is the sale inventory of a single stage (10.24M tokens).
	TokensPerStage = mustBigInt("10240000000000000")

	// PresaleCap is the total sale inventory across all stages (102.4M tokens).
	PresaleCap = mustBigInt("102400000000000000")

	// CommunityPool backs referral and giveaway mints (12.8M tokens).
	CommunityPool = mustBigInt("12800000000000000")
)

// StagePrice returns the fixed-point price of the given stage.
func StagePrice(stage uint8) (uint64, error) {
	if int(stage) >= StageCount {
		return 0, fmt.Errorf("sale: stage %d out of range", stage)
	}
	return stagePrices[stage], nil
}

func mustBigInt(value string) *big.Int {
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic(fmt.Sprintf("sale: invalid big integer constant %q", value))
	}
	return parsed
}

func cloneBigInt(value *big.Int) *big.Int {
	if value == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(value)
}
