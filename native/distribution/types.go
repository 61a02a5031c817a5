package distribution

import "paymint/core/types"

const (
	// MaxPlatformFeeBps caps the platform's cut at 10%.
	MaxPlatformFeeBps = 1000
	// MaxCollaborators bounds the fan-out of a single split.
	MaxCollaborators = 10
	// BpsDenominator is the fixed-point basis, 10000 bps = 100%.
	BpsDenominator = 10_000
)

// Collaborator pairs a payout account with its revenue share.
type Collaborator struct {
	Account  types.Address `json:"account"`
	ShareBps uint16        `json:"shareBps"`
}

// SplitConfig defines how settled revenue for one content item fans out
// between the creator, the platform treasury and optional collaborators.
// The configuration is immutable after creation: buyers rely on the
// economics being fixed once published, so no update entry point exists.
type SplitConfig struct {
	Address           types.Address  `json:"address"`
	Creator           types.Address  `json:"creator"`
	PlatformTreasury  types.Address  `json:"platformTreasury"`
	PlatformFeeBps    uint16         `json:"platformFeeBps"`
	Collaborators     []Collaborator `json:"collaborators"`
	ContentID         [32]byte       `json:"contentId"`
	Disambiguator     uint64         `json:"disambiguator"`
	CreatedAt         uint64         `json:"createdAt"`
	LastDistributedAt uint64         `json:"lastDistributedAt"`
	Bump              uint8          `json:"bump"`
}

// Clone returns a deep copy of the split configuration.
func (c *SplitConfig) Clone() *SplitConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Collaborators = append([]Collaborator(nil), c.Collaborators...)
	return &clone
}

// Validate enforces the share invariants: the platform fee stays at or
// under its cap, the collaborator list stays bounded, and the fee plus all
// collaborator shares never exceed 100%.
func (c *SplitConfig) Validate() error {
	if c == nil {
		return ErrSplitNotFound
	}
	if c.PlatformFeeBps > MaxPlatformFeeBps {
		return ErrInvalidPlatformFee
	}
	if len(c.Collaborators) > MaxCollaborators {
		return ErrTooManyCollaborators
	}
	total := uint64(c.PlatformFeeBps)
	for _, collab := range c.Collaborators {
		total += uint64(collab.ShareBps)
		if total > BpsDenominator {
			return ErrInvalidShareDistribution
		}
	}
	return nil
}
