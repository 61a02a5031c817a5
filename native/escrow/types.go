package escrow

import "paymint/core/types"

// Status represents the lifecycle of a purchase. The transition happens
// exactly once: Initialized moves to Completed via settle or to Cancelled
// via cancel, and both end states are terminal.
type Status uint8

const (
	StatusInitialized Status = iota + 1
	StatusCompleted
	StatusCancelled
)

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	switch s {
	case StatusInitialized, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusInitialized:
		return "initialized"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// PurchaseRecord captures the state of a single content purchase. The
// record address is derived from (buyer, content, disambiguator), so a
// buyer opens multiple concurrent attempts for the same content by
// choosing fresh disambiguators. PaymentAmount stays zero until
// settlement, then equals the amount actually moved. A cancelled record
// is deleted to reclaim storage; a completed record is retained as the
// purchase receipt.
type PurchaseRecord struct {
	Address       types.Address `json:"address"`
	Buyer         types.Address `json:"buyer"`
	Creator       types.Address `json:"creator"`
	ContentID     [32]byte      `json:"contentId"`
	Price         uint64        `json:"price"`
	PaymentToken  string        `json:"paymentToken"` // "" selects the native asset
	PaymentAmount uint64        `json:"paymentAmount"`
	Credential    types.Address `json:"credential"` // zero until settlement
	CreatedAt     uint64        `json:"createdAt"`
	Disambiguator uint64        `json:"disambiguator"`
	Status        Status        `json:"status"`
	Bump          uint8         `json:"bump"`
}

// Clone returns a copy of the purchase record.
func (r *PurchaseRecord) Clone() *PurchaseRecord {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
