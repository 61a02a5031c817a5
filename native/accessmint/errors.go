package accessmint

import "errors"

var (
	// ErrDuplicateMint flags an initialize against an address that
	// already holds a mint state.
	ErrDuplicateMint = errors.New("accessmint: mint state already exists")
	// ErrMintNotFound flags a mint against a missing state.
	ErrMintNotFound = errors.New("accessmint: mint state not found")
	// ErrMintMismatch flags a mint state whose creator or content does
	// not match the purchase driving the mint.
	ErrMintMismatch = errors.New("accessmint: mint state does not match purchase")
	// ErrInvalidMintAuthority flags a stored authority that fails its
	// derivation proof.
	ErrInvalidMintAuthority = errors.New("accessmint: mint authority mismatch")
	// ErrAlreadyMinted flags a second mint to a buyer who already holds
	// the single-unit entitlement.
	ErrAlreadyMinted = errors.New("accessmint: already minted to this buyer")
	// ErrNumericalOverflow flags counter arithmetic outside uint64 range.
	ErrNumericalOverflow = errors.New("accessmint: numerical overflow")
	// ErrUnauthorized flags a caller that may not act on the mint state.
	ErrUnauthorized = errors.New("accessmint: unauthorized caller")
)
