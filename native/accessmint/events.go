package accessmint

import (
	"encoding/hex"
	"strconv"

	"paymint/core/types"
)

const (
	EventTypeMintInitialized = "accessmint.initialized"
	EventTypeAccessMinted    = "accessmint.minted"
)

// NewMintInitializedEvent returns the canonical payload for a new
// credential asset registration.
func NewMintInitializedEvent(s *AccessMintState) *types.Event {
	if s == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeMintInitialized,
		Attributes: map[string]string{
			"mintState":     s.Address.Hex(),
			"creator":       s.Creator.Hex(),
			"contentId":     "0x" + hex.EncodeToString(s.ContentID[:]),
			"credential":    s.CredentialAsset.Hex(),
			"authority":     s.MintAuthority.Hex(),
			"disambiguator": strconv.FormatUint(s.Disambiguator, 10),
		},
	}
}

// NewAccessMintedEvent returns the canonical payload for a credential
// issuance.
func NewAccessMintedEvent(s *AccessMintState, buyer, payer types.Address) *types.Event {
	if s == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeAccessMinted,
		Attributes: map[string]string{
			"mintState":   s.Address.Hex(),
			"credential":  s.CredentialAsset.Hex(),
			"buyer":       buyer.Hex(),
			"payer":       payer.Hex(),
			"totalMinted": strconv.FormatUint(s.TotalMinted, 10),
		},
	}
}
