package sale

import "math/big"

// Quote is a spot price observation for the native payment asset. Price carries
// Expo decimal places: usd = Price * 10^Expo.
type Quote struct {
	Price     int64
	Expo      int32
	Timestamp int64
}

// Oracle supplies the native-asset/USD price used by oracle-priced purchases.
type Oracle interface {
	NativeUSD() (Quote, error)
}

// usdCentsForLamports converts a lamport amount into USD cents using the quote.
// cents = lamports * price * 100 * 10^expo / 10^9, floored.
func usdCentsForLamports(lamports *big.Int, quote Quote) (uint64, error) {
	if quote.Price <= 0 {
		return 0, ErrInvalidOraclePrice
	}
	value := new(big.Int).Set(lamports)
	value.Mul(value, big.NewInt(quote.Price))
	value.Mul(value, centsPerDollar)
	scale := int64(9) - int64(quote.Expo)
	if scale >= 0 {
		divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(scale), nil)
		value.Quo(value, divisor)
	} else {
		factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(-scale), nil)
		value.Mul(value, factor)
	}
	if !value.IsUint64() {
		return 0, ErrInvalidAmount
	}
	return value.Uint64(), nil
}

// checkQuoteFreshness enforces the staleness bound against the engine clock.
func checkQuoteFreshness(quote Quote, now int64) error {
	if quote.Timestamp <= 0 {
		return ErrStaleOracle
	}
	if now-quote.Timestamp > OracleMaxAgeSeconds {
		return ErrStaleOracle
	}
	return nil
}
