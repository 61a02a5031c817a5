package state

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"paymint/core/types"
)

// Raw storage keys are keccak256 digests of a prefix plus identifying
// bytes, keeping key sizes uniform regardless of prefix shape.
var (
	accountPrefix    = []byte("account:")
	tokenPrefix      = []byte("token:")
	balancePrefix    = []byte("balance:")
	purchasePrefix   = []byte("purchase:")
	splitPrefix      = []byte("split:")
	mintStatePrefix  = []byte("mintstate:")
	credentialPrefix = []byte("credential:")
)

func hashKey(parts ...[]byte) []byte {
	size := 0
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func accountKey(addr types.Address) []byte {
	return hashKey(accountPrefix, addr[:])
}

func tokenKey(symbol string) []byte {
	return hashKey(tokenPrefix, []byte(symbol))
}

func balanceKey(addr types.Address, symbol string) []byte {
	return hashKey(balancePrefix, []byte(symbol), []byte{':'}, addr[:])
}

func purchaseKey(addr types.Address) []byte {
	return hashKey(purchasePrefix, addr[:])
}

func splitKey(addr types.Address) []byte {
	return hashKey(splitPrefix, addr[:])
}

func mintStateKey(addr types.Address) []byte {
	return hashKey(mintStatePrefix, addr[:])
}

func credentialKey(asset, holder types.Address) []byte {
	return hashKey(credentialPrefix, asset[:], []byte{':'}, holder[:])
}
