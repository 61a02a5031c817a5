package state

import (
	"fmt"

	"paymint/core/types"
	"paymint/native/accessmint"
)

// MintStatePut stores an access-mint state under its derived address.
func (m *Manager) MintStatePut(s *accessmint.AccessMintState) error {
	if s == nil {
		return fmt.Errorf("state: nil mint state")
	}
	return m.putRLP(mintStateKey(s.Address), s.Clone())
}

// MintStateGet loads the access-mint state stored at addr.
func (m *Manager) MintStateGet(addr types.Address) (*accessmint.AccessMintState, bool, error) {
	s := new(accessmint.AccessMintState)
	ok, err := m.getRLP(mintStateKey(addr), s)
	if err != nil || !ok {
		return nil, false, err
	}
	return s, true, nil
}
