package types

import "math/big"

// Account holds the balances and sale-related flags tracked for every address.
// NOC is the sale token; SOL, USDT and USDC are the accepted payment assets.
type Account struct {
	Nonce       uint64   `json:"nonce"`
	BalanceNOC  *big.Int `json:"balanceNOC"`
	BalanceSOL  *big.Int `json:"balanceSOL"`
	BalanceUSDT *big.Int `json:"balanceUSDT"`
	BalanceUSDC *big.Int `json:"balanceUSDC"`
	Blocked     bool     `json:"blocked"`
	HasStaked   bool     `json:"hasStaked"`
}

// Normalize ensures every balance pointer is non-nil so callers can mutate the
// account without nil checks.
func (a *Account) Normalize() *Account {
	if a == nil {
		return &Account{
			BalanceNOC:  big.NewInt(0),
			BalanceSOL:  big.NewInt(0),
			BalanceUSDT: big.NewInt(0),
			BalanceUSDC: big.NewInt(0),
		}
	}
	if a.BalanceNOC == nil {
		a.BalanceNOC = big.NewInt(0)
	}
	if a.BalanceSOL == nil {
		a.BalanceSOL = big.NewInt(0)
	}
	if a.BalanceUSDT == nil {
		a.BalanceUSDT = big.NewInt(0)
	}
	if a.BalanceUSDC == nil {
		a.BalanceUSDC = big.NewInt(0)
	}
	return a
}
