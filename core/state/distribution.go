package state

import (
	"fmt"

	"paymint/core/types"
	"paymint/native/distribution"
)

// SplitPut stores a split configuration under its derived address.
func (m *Manager) SplitPut(cfg *distribution.SplitConfig) error {
	if cfg == nil {
		return fmt.Errorf("state: nil split config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return m.putRLP(splitKey(cfg.Address), cfg.Clone())
}

// SplitGet loads the split configuration stored at addr.
func (m *Manager) SplitGet(addr types.Address) (*distribution.SplitConfig, bool, error) {
	cfg := new(distribution.SplitConfig)
	ok, err := m.getRLP(splitKey(addr), cfg)
	if err != nil || !ok {
		return nil, false, err
	}
	return cfg, true, nil
}
