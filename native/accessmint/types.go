package accessmint

import "paymint/core/types"

// AccessMintState tracks the non-transferable credential asset issued for
// one content item. The mint authority is a program-derived address with
// no signing key, so only this program's code path can authorize issuance.
// Created once per content item by its creator and never deleted.
type AccessMintState struct {
	Address         types.Address `json:"address"`
	Creator         types.Address `json:"creator"`
	ContentID       [32]byte      `json:"contentId"`
	CredentialAsset types.Address `json:"credentialAsset"`
	MintAuthority   types.Address `json:"mintAuthority"`
	Disambiguator   uint64        `json:"disambiguator"`
	TotalMinted     uint64        `json:"totalMinted"`
	CreatedAt       uint64        `json:"createdAt"`
	Bump            uint8         `json:"bump"`
	AuthorityBump   uint8         `json:"authorityBump"`
}

// Clone returns a copy of the mint state.
func (s *AccessMintState) Clone() *AccessMintState {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
