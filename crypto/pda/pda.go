// Package pda implements program-derived address derivation for the
// settlement programs. Every program-owned account address is a pure
// function of a namespace tag and an ordered seed tuple, so any party can
// recompute it without a directory lookup. The derivation must stay
// bit-exact across deployments: namespace tags and seed order are part of
// the external interface.
package pda

import (
	"encoding/binary"
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"paymint/core/types"
)

// Namespace tags for the settlement programs. Seed order per namespace is
// fixed; see the derivation helpers below.
const (
	NamespaceEscrow        = "escrow"
	NamespaceVault         = "vault"
	NamespaceSplit         = "split"
	NamespaceMintState     = "access_mint_state"
	NamespaceMintAuthority = "access_mint_authority"
	NamespaceCredential    = "access_credential"
)

// ErrNoValidBump is returned when no bump byte yields a usable address.
// With a 256-bit digest this is unreachable in practice; the error exists
// so Derive never silently returns the zero address.
var ErrNoValidBump = errors.New("pda: no valid bump for seed tuple")

// Seed is a single typed derivation input. Seeds are constructed through
// the builder functions so callers cannot accidentally reorder or
// mis-encode fields via ad hoc byte slicing.
type Seed struct {
	raw []byte
}

// Key seeds the derivation with a 32-byte account address.
func Key(a types.Address) Seed {
	return Seed{raw: append([]byte(nil), a[:]...)}
}

// Bytes32 seeds the derivation with a fixed 32-byte value such as a
// content identifier.
func Bytes32(b [32]byte) Seed {
	return Seed{raw: append([]byte(nil), b[:]...)}
}

// Uint64LE seeds the derivation with a little-endian 8-byte integer,
// matching the wire encoding of disambiguators.
func Uint64LE(v uint64) Seed {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return Seed{raw: buf}
}

// Derive computes the program-derived address for the namespace and seed
// tuple together with its bump byte. The bump is searched from 255
// downward; the first candidate that is not the zero address wins. The
// bump participates in the digest, so records storing it can prove which
// candidate was selected.
func Derive(namespace string, seeds ...Seed) (types.Address, uint8, error) {
	payload := make([]byte, 0, len(namespace)+len(seeds)*32+1)
	payload = append(payload, namespace...)
	for _, seed := range seeds {
		payload = append(payload, seed.raw...)
	}
	for bump := 255; bump >= 0; bump-- {
		candidate := ethcrypto.Keccak256(append(payload, byte(bump)))
		var addr types.Address
		copy(addr[:], candidate)
		if !addr.IsZero() {
			return addr, uint8(bump), nil
		}
	}
	return types.Address{}, 0, ErrNoValidBump
}

// Verify reports whether addr is the derivation of the namespace and seed
// tuple under the given bump.
func Verify(addr types.Address, bump uint8, namespace string, seeds ...Seed) bool {
	payload := make([]byte, 0, len(namespace)+len(seeds)*32+1)
	payload = append(payload, namespace...)
	for _, seed := range seeds {
		payload = append(payload, seed.raw...)
	}
	candidate := ethcrypto.Keccak256(append(payload, bump))
	var derived types.Address
	copy(derived[:], candidate)
	return derived == addr
}

// Purchase derives the PurchaseRecord address for a buyer, content and
// disambiguator tuple.
func Purchase(buyer types.Address, contentID [32]byte, disambiguator uint64) (types.Address, uint8, error) {
	return Derive(NamespaceEscrow, Key(buyer), Bytes32(contentID), Uint64LE(disambiguator))
}

// Vault derives the custody account address from its PurchaseRecord.
func Vault(purchase types.Address) (types.Address, uint8, error) {
	return Derive(NamespaceVault, Key(purchase))
}

// Split derives the SplitConfig address for a creator, content and
// disambiguator tuple.
func Split(creator types.Address, contentID [32]byte, disambiguator uint64) (types.Address, uint8, error) {
	return Derive(NamespaceSplit, Key(creator), Bytes32(contentID), Uint64LE(disambiguator))
}

// MintState derives the AccessMintState address for a creator, content and
// disambiguator tuple.
func MintState(creator types.Address, contentID [32]byte, disambiguator uint64) (types.Address, uint8, error) {
	return Derive(NamespaceMintState, Key(creator), Bytes32(contentID), Uint64LE(disambiguator))
}

// MintAuthority derives the mint authority address for a creator, content
// and disambiguator tuple. No signing key exists for this address; only
// the access-mint program's code path can authorize issuance from it.
func MintAuthority(creator types.Address, contentID [32]byte, disambiguator uint64) (types.Address, uint8, error) {
	return Derive(NamespaceMintAuthority, Key(creator), Bytes32(contentID), Uint64LE(disambiguator))
}

// Credential derives the credential asset identifier minted for a content
// item. The asset id is program-derived so the storefront can compute it
// before the first settlement.
func Credential(creator types.Address, contentID [32]byte, disambiguator uint64) (types.Address, uint8, error) {
	return Derive(NamespaceCredential, Key(creator), Bytes32(contentID), Uint64LE(disambiguator))
}
