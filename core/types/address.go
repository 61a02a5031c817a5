package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"lukechampine.com/blake3"
)

// AddressLength is the byte length of ledger account addresses and keys.
const AddressLength = 32

// Address identifies an account on the ledger. Program-derived addresses
// share the same representation as externally keyed accounts; only the
// deriving program can authorize mutations of accounts it owns.
type Address [AddressLength]byte

// Hex returns the 0x-prefixed hexadecimal form of the address.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the all-zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a[:]...)
}

func (a Address) String() string { return a.Hex() }

// ParseAddress decodes a 0x-prefixed 32-byte hex string.
func ParseAddress(s string) (Address, error) {
	var addr Address
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("types: invalid address %q: %w", s, err)
	}
	if len(raw) != AddressLength {
		return addr, fmt.Errorf("types: invalid address length %d", len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

// ContentID derives the canonical 32-byte content identifier for an
// arbitrary content descriptor (URI, manifest, file digest input). Callers
// that already hold a 32-byte identifier pass it through unchanged via
// ParseContentID.
func ContentID(descriptor []byte) [32]byte {
	return blake3.Sum256(descriptor)
}

// ContentIDHex renders a content identifier as 0x-prefixed hex.
func ContentIDHex(id [32]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}

// ParseContentID decodes a 0x-prefixed 32-byte hex content identifier.
func ParseContentID(s string) ([32]byte, error) {
	var id [32]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return id, fmt.Errorf("types: invalid content id %q: %w", s, err)
	}
	if len(raw) != 32 {
		return id, fmt.Errorf("types: invalid content id length %d", len(raw))
	}
	copy(id[:], raw)
	return id, nil
}
