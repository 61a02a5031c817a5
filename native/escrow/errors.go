package escrow

import "errors"

var (
	// ErrDuplicatePurchase flags an initialize against a derived address
	// that already holds a record.
	ErrDuplicatePurchase = errors.New("escrow: purchase already exists for this buyer, content and disambiguator")
	// ErrPurchaseNotFound flags an action against a missing record.
	ErrPurchaseNotFound = errors.New("escrow: purchase not found")
	// ErrInvalidStatus flags an action on a purchase outside the
	// required state, including double settles and late cancels.
	ErrInvalidStatus = errors.New("escrow: purchase not in required status")
	// ErrInvalidPrice flags an initialize with a zero price.
	ErrInvalidPrice = errors.New("escrow: price must be positive")
	// ErrInvalidAmount flags a settle whose payment amount does not
	// match the recorded price.
	ErrInvalidAmount = errors.New("escrow: payment amount does not match price")
	// ErrInsufficientFunds flags a buyer who cannot cover the full
	// payment amount.
	ErrInsufficientFunds = errors.New("escrow: insufficient funds")
	// ErrUnknownToken flags a payment unit that is not registered.
	ErrUnknownToken = errors.New("escrow: unknown payment token")
	// ErrUnauthorized flags a caller other than the record's buyer.
	ErrUnauthorized = errors.New("escrow: unauthorized caller")
)
