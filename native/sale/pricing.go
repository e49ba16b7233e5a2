package sale

import "math/big"

var (
	tokenUnitFactor = big.NewInt(TokenDecimalsFactor)
	centsPerDollar  = big.NewInt(100)
)

// TokensForUSD converts a USD amount in cents to token base units at the given
// stage price. The formula floors: tokens = usdCents * 1e9 * 100 / price, where
// price carries four decimal places.
func TokensForUSD(usdCents uint64, stage uint8) (*big.Int, error) {
	price, err := StagePrice(stage)
	if err != nil {
		return nil, err
	}
	tokens := new(big.Int).SetUint64(usdCents)
	tokens.Mul(tokens, tokenUnitFactor)
	tokens.Mul(tokens, centsPerDollar)
	tokens.Quo(tokens, new(big.Int).SetUint64(price))
	return tokens, nil
}

// AdvanceStage rolls the stage counter forward while the per-stage inventory is
// exhausted, carrying the overflow into the next stage. The counter never moves
// past the final stage; any residual overflow stays attributed to it.
func AdvanceStage(global *GlobalState, tokens *big.Int) {
	global.StageTokensSold = new(big.Int).Add(global.StageTokensSold, tokens)
	for global.StageTokensSold.Cmp(TokensPerStage) >= 0 && int(global.Stage) < StageCount-1 {
		global.StageTokensSold = new(big.Int).Sub(global.StageTokensSold, TokensPerStage)
		global.Stage++
	}
}
