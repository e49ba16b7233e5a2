package crosschain

import "errors"

var (
	// ErrNilState is returned when the engine has no state backend configured.
	ErrNilState = errors.New("crosschain: state not configured")
	// ErrNotCoordinator gates attested operations on the coordinator identity.
	ErrNotCoordinator = errors.New("crosschain: caller is not the coordinator")
	// ErrUnsupportedChain rejects chain ids outside the allow-set.
	ErrUnsupportedChain = errors.New("crosschain: unsupported chain id")
	// ErrCooldownActive rejects purchases spaced closer than the cooldown.
	ErrCooldownActive = errors.New("crosschain: purchase cooldown active")
	// ErrAllocationNotFound is returned when no entry exists for the identity.
	ErrAllocationNotFound = errors.New("crosschain: allocation not found")
	// ErrWalletLinked rejects re-linking an already attested claim wallet.
	ErrWalletLinked = errors.New("crosschain: wallet already linked")
	// ErrWalletNotLinked is returned when claiming without an attested wallet.
	ErrWalletNotLinked = errors.New("crosschain: no wallet linked")
	// ErrWrongWallet rejects a claim from a wallet other than the linked one.
	ErrWrongWallet = errors.New("crosschain: caller is not the linked wallet")
	// ErrZeroWallet rejects the zero address as a claim wallet.
	ErrZeroWallet = errors.New("crosschain: wallet address required")
	// ErrSelfReferral rejects an identity referring itself.
	ErrSelfReferral = errors.New("crosschain: self referral not allowed")
)
