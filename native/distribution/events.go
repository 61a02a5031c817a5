package distribution

import (
	"encoding/hex"
	"strconv"

	"paymint/core/types"
)

const (
	EventTypeSplitInitialized = "distribution.split.initialized"
	EventTypeDistributed      = "distribution.distributed"
)

// NewSplitInitializedEvent returns the canonical payload for a freshly
// created split configuration.
func NewSplitInitializedEvent(cfg *SplitConfig) *types.Event {
	if cfg == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeSplitInitialized,
		Attributes: map[string]string{
			"split":          cfg.Address.Hex(),
			"creator":        cfg.Creator.Hex(),
			"treasury":       cfg.PlatformTreasury.Hex(),
			"contentId":      "0x" + hex.EncodeToString(cfg.ContentID[:]),
			"platformFeeBps": strconv.FormatUint(uint64(cfg.PlatformFeeBps), 10),
			"collaborators":  strconv.Itoa(len(cfg.Collaborators)),
			"disambiguator":  strconv.FormatUint(cfg.Disambiguator, 10),
		},
	}
}

// NewDistributedEvent returns the canonical payload emitted after a payout
// fan-out completes.
func NewDistributedEvent(cfg *SplitConfig, source types.Address, token string, amount uint64, payout *Payout) *types.Event {
	if cfg == nil || payout == nil {
		return nil
	}
	unit := token
	if unit == "" {
		unit = "native"
	}
	return &types.Event{
		Type: EventTypeDistributed,
		Attributes: map[string]string{
			"split":       cfg.Address.Hex(),
			"source":      source.Hex(),
			"paymentUnit": unit,
			"amount":      strconv.FormatUint(amount, 10),
			"platformCut": strconv.FormatUint(payout.Platform, 10),
			"creatorCut":  strconv.FormatUint(payout.Creator, 10),
		},
	}
}
