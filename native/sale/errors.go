package sale

import "errors"

var (
	// ErrNilState is returned when the engine has no state backend configured.
	ErrNilState = errors.New("sale: state not configured")
	// ErrNotInitialized is returned when the presale ledger has not been set up.
	ErrNotInitialized = errors.New("sale: not initialized")
	// ErrAlreadyInitialized rejects a second genesis of the presale ledger.
	ErrAlreadyInitialized = errors.New("sale: already initialized")
	// ErrSaleInactive is returned when the presale has been closed.
	ErrSaleInactive = errors.New("sale: presale not active")
	// ErrSaleNotStarted is returned before the presale window opens.
	ErrSaleNotStarted = errors.New("sale: presale not started")
	// ErrSaleEnded is returned once every pricing stage is exhausted.
	ErrSaleEnded = errors.New("sale: all stages sold out")
	// ErrHardCapReached rejects purchases that would exceed the sale inventory.
	ErrHardCapReached = errors.New("sale: hard cap reached")
	// ErrAddressBlocked rejects operations from a blocked wallet.
	ErrAddressBlocked = errors.New("sale: address blocked")
	// ErrInvalidAmount rejects zero or negative payment amounts.
	ErrInvalidAmount = errors.New("sale: invalid amount")
	// ErrBelowMinimum is returned when a purchase is under the per-tx floor.
	ErrBelowMinimum = errors.New("sale: below minimum purchase")
	// ErrAboveMaximum is returned when a purchase exceeds the per-tx ceiling.
	ErrAboveMaximum = errors.New("sale: above maximum purchase")
	// ErrUserCapExceeded is returned when lifetime spend would pass the cap.
	ErrUserCapExceeded = errors.New("sale: user purchase cap exceeded")
	// ErrStaleOracle rejects price quotes older than the staleness bound.
	ErrStaleOracle = errors.New("sale: oracle price too old")
	// ErrInvalidOraclePrice rejects non-positive oracle prices.
	ErrInvalidOraclePrice = errors.New("sale: invalid oracle price")
	// ErrUnsupportedStable rejects payments in an unregistered stablecoin.
	ErrUnsupportedStable = errors.New("sale: unsupported stablecoin")
	// ErrInsufficientFunds is returned when the payer cannot cover the payment.
	ErrInsufficientFunds = errors.New("sale: insufficient funds")
	// ErrNoAllocation is returned when a buyer has nothing to claim.
	ErrNoAllocation = errors.New("sale: no allocation")
	// ErrAlreadyClaimed rejects a second claim of the same allocation.
	ErrAlreadyClaimed = errors.New("sale: allocation already claimed")
	// ErrClaimBeforeTGE is returned when claiming before the token genesis event.
	ErrClaimBeforeTGE = errors.New("sale: token generation event not reached")
	// ErrSelfReferral rejects registering oneself as referrer.
	ErrSelfReferral = errors.New("sale: self referral not allowed")
	// ErrZeroReferrer rejects the zero address as referrer.
	ErrZeroReferrer = errors.New("sale: referrer address required")
	// ErrReferrerSet rejects changing an already registered referrer.
	ErrReferrerSet = errors.New("sale: referrer already set")
	// ErrNotAdmin gates administrative operations.
	ErrNotAdmin = errors.New("sale: caller is not the admin")
	// ErrCommunityPoolEmpty is returned when a grant exceeds the community pool.
	ErrCommunityPoolEmpty = errors.New("sale: community pool exhausted")
	// ErrVaultShort is returned when the custody vault cannot cover a payout.
	ErrVaultShort = errors.New("sale: vault balance insufficient")
	// ErrWithdrawLocked rejects withdrawing tokens backing active stakes.
	ErrWithdrawLocked = errors.New("sale: amount exceeds unstaked balance")
)
