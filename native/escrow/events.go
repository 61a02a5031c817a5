package escrow

import (
	"encoding/hex"
	"strconv"

	"paymint/core/types"
)

const (
	EventTypePurchaseInitialized = "escrow.purchase.initialized"
	EventTypePurchaseCompleted   = "escrow.purchase.completed"
	EventTypePurchaseCancelled   = "escrow.purchase.cancelled"
)

func purchaseAttributes(r *PurchaseRecord) map[string]string {
	unit := r.PaymentToken
	if unit == "" {
		unit = "native"
	}
	return map[string]string{
		"purchase":      r.Address.Hex(),
		"buyer":         r.Buyer.Hex(),
		"creator":       r.Creator.Hex(),
		"contentId":     "0x" + hex.EncodeToString(r.ContentID[:]),
		"price":         strconv.FormatUint(r.Price, 10),
		"paymentUnit":   unit,
		"disambiguator": strconv.FormatUint(r.Disambiguator, 10),
		"status":        r.Status.String(),
	}
}

// NewPurchaseInitializedEvent returns the canonical payload for a freshly
// opened purchase.
func NewPurchaseInitializedEvent(r *PurchaseRecord) *types.Event {
	if r == nil {
		return nil
	}
	return &types.Event{Type: EventTypePurchaseInitialized, Attributes: purchaseAttributes(r)}
}

// NewPurchaseCompletedEvent returns the canonical payload emitted after a
// settle commits.
func NewPurchaseCompletedEvent(r *PurchaseRecord) *types.Event {
	if r == nil {
		return nil
	}
	attrs := purchaseAttributes(r)
	attrs["paymentAmount"] = strconv.FormatUint(r.PaymentAmount, 10)
	attrs["credential"] = r.Credential.Hex()
	return &types.Event{Type: EventTypePurchaseCompleted, Attributes: attrs}
}

// NewPurchaseCancelledEvent returns the canonical payload emitted when a
// buyer cancels before settlement, including any refunded custody amount.
func NewPurchaseCancelledEvent(r *PurchaseRecord, refunded uint64) *types.Event {
	if r == nil {
		return nil
	}
	attrs := purchaseAttributes(r)
	attrs["status"] = StatusCancelled.String()
	attrs["refunded"] = strconv.FormatUint(refunded, 10)
	return &types.Event{Type: EventTypePurchaseCancelled, Attributes: attrs}
}
