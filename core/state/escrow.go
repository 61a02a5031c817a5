package state

import (
	"fmt"

	"paymint/core/types"
	"paymint/native/escrow"
)

// PurchasePut stores a purchase record under its derived address.
func (m *Manager) PurchasePut(record *escrow.PurchaseRecord) error {
	if record == nil {
		return fmt.Errorf("state: nil purchase record")
	}
	if !record.Status.Valid() {
		return fmt.Errorf("state: invalid purchase status %d", record.Status)
	}
	return m.putRLP(purchaseKey(record.Address), record.Clone())
}

// PurchaseGet loads the purchase record stored at addr.
func (m *Manager) PurchaseGet(addr types.Address) (*escrow.PurchaseRecord, bool, error) {
	record := new(escrow.PurchaseRecord)
	ok, err := m.getRLP(purchaseKey(addr), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// PurchaseDelete removes the purchase record at addr, reclaiming its
// storage. Used by cancellation only; completed records are retained as
// receipts.
func (m *Manager) PurchaseDelete(addr types.Address) error {
	m.deleteRaw(purchaseKey(addr))
	return nil
}
