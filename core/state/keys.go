package state

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Record addresses are keccak digests of a namespace prefix plus the owning
// identity and discriminant. Every access recomputes the expected key, so a
// record can never be read or written under a different identity.
var (
	accountPrefix     = []byte("acct:")
	saleGlobalKey     = ethcrypto.Keccak256([]byte("sale-global"))
	allocationPrefix  = []byte("sale-alloc:")
	stakePrefix       = []byte("stake:")
	vestStakePrefix   = []byte("stake-vest:")
	stakingPoolKey    = ethcrypto.Keccak256([]byte("staking-pool"))
	crossAllocPrefix  = []byte("xchain-alloc:")
	crossRefPrefix    = []byte("xchain-ref:")
	teamVestPrefix    = []byte("team-vesting:")
	teamVestPoolKey   = ethcrypto.Keccak256([]byte("team-vesting-pool"))
	moduleVaultDomain = []byte("noctura/module-vault")
)

func accountKey(addr []byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr)
	return ethcrypto.Keccak256(buf)
}

func allocationKey(owner [20]byte) []byte {
	buf := make([]byte, len(allocationPrefix)+len(owner))
	copy(buf, allocationPrefix)
	copy(buf[len(allocationPrefix):], owner[:])
	return ethcrypto.Keccak256(buf)
}

func stakeKey(owner [20]byte, id uint64) []byte {
	buf := make([]byte, len(stakePrefix)+len(owner)+8)
	copy(buf, stakePrefix)
	copy(buf[len(stakePrefix):], owner[:])
	binary.BigEndian.PutUint64(buf[len(stakePrefix)+len(owner):], id)
	return ethcrypto.Keccak256(buf)
}

func vestStakeKey(owner [20]byte, tier uint8) []byte {
	buf := make([]byte, len(vestStakePrefix)+len(owner)+1)
	copy(buf, vestStakePrefix)
	copy(buf[len(vestStakePrefix):], owner[:])
	buf[len(buf)-1] = tier
	return ethcrypto.Keccak256(buf)
}

func crossAllocationKey(ethAddress [20]byte, chainID uint64) []byte {
	buf := make([]byte, len(crossAllocPrefix)+len(ethAddress)+8)
	copy(buf, crossAllocPrefix)
	copy(buf[len(crossAllocPrefix):], ethAddress[:])
	binary.BigEndian.PutUint64(buf[len(crossAllocPrefix)+len(ethAddress):], chainID)
	return ethcrypto.Keccak256(buf)
}

func crossReferralKey(referrer [20]byte, chainID uint64) []byte {
	buf := make([]byte, len(crossRefPrefix)+len(referrer)+8)
	copy(buf, crossRefPrefix)
	copy(buf[len(crossRefPrefix):], referrer[:])
	binary.BigEndian.PutUint64(buf[len(crossRefPrefix)+len(referrer):], chainID)
	return ethcrypto.Keccak256(buf)
}

func teamVestingKey(member [20]byte) []byte {
	buf := make([]byte, len(teamVestPrefix)+len(member))
	copy(buf, teamVestPrefix)
	copy(buf[len(teamVestPrefix):], member[:])
	return ethcrypto.Keccak256(buf)
}

// ModuleVaultAddress derives the custody account holding sale inventory and
// staked principal. No private key maps to it.
func ModuleVaultAddress() [20]byte {
	digest := ethcrypto.Keccak256(moduleVaultDomain)
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}
