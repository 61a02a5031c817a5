package escrow

import (
	"errors"
	"fmt"
	"time"

	"paymint/core/events"
	"paymint/core/types"
	"paymint/crypto/pda"
)

var (
	errNilState       = errors.New("escrow engine: state not configured")
	errNilMinter      = errors.New("escrow engine: access minter not configured")
	errNilDistributor = errors.New("escrow engine: distributor not configured")
)

type engineState interface {
	PurchasePut(*PurchaseRecord) error
	PurchaseGet(addr types.Address) (*PurchaseRecord, bool, error)
	PurchaseDelete(addr types.Address) error
	Transfer(from, to types.Address, token string, amount uint64) error
	BalanceUint64(addr types.Address, token string) (uint64, error)
	HasBalance(addr types.Address, token string, amount uint64) (bool, error)
	TokenExists(symbol string) bool
}

// AccessMinter is the nested entry point into the access-mint program.
// The settlement transaction proves the purchase linkage by passing the
// record's creator and content alongside the mint state address.
type AccessMinter interface {
	MintAccess(state, creator types.Address, contentID [32]byte, buyer, payer types.Address) (types.Address, error)
}

// Distributor is the nested entry point into the distribution program.
// The custody source and the purchase identity travel together so the
// distributor can verify the derivation chain end to end.
type Distributor interface {
	Distribute(split, source, buyer, creator types.Address, contentID [32]byte, purchaseDisambiguator uint64, token string, amount uint64) error
}

type purchaseEvent struct {
	evt *types.Event
}

func (e purchaseEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e purchaseEvent) Event() *types.Event { return e.evt }

// Engine drives the purchase state machine: it owns purchase records and
// their custody accounts, and orchestrates the atomic settle chain into
// the access-mint and distribution programs. The engine itself never
// commits state; it mutates the session it was bound to, and the session
// owner applies or discards everything as one unit.
type Engine struct {
	state       engineState
	minter      AccessMinter
	distributor Distributor
	emitter     events.Emitter
	nowFn       func() int64
}

// NewEngine creates an escrow engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAccessMinter configures the nested access-mint program.
func (e *Engine) SetAccessMinter(minter AccessMinter) { e.minter = minter }

// SetDistributor configures the nested distribution program.
func (e *Engine) SetDistributor(distributor Distributor) { e.distributor = distributor }

// SetEmitter configures the event emitter. Passing nil resets to no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(purchaseEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadPurchase(addr types.Address) (*PurchaseRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.PurchaseGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPurchaseNotFound
	}
	return record, nil
}

// Initialize creates a purchase record in status Initialized together
// with its zero-balance custody account. The caller is the buyer; reusing
// a (buyer, content, disambiguator) tuple is rejected so concurrent
// attempts pick fresh disambiguators.
func (e *Engine) Initialize(buyer, creator types.Address, contentID [32]byte, price uint64, paymentToken string, disambiguator uint64) (*PurchaseRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if buyer.IsZero() || creator.IsZero() {
		return nil, ErrUnauthorized
	}
	if price == 0 {
		return nil, ErrInvalidPrice
	}
	if paymentToken != "" && !e.state.TokenExists(paymentToken) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, paymentToken)
	}
	addr, bump, err := pda.Purchase(buyer, contentID, disambiguator)
	if err != nil {
		return nil, err
	}
	if _, exists, err := e.state.PurchaseGet(addr); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDuplicatePurchase
	}
	record := &PurchaseRecord{
		Address:       addr,
		Buyer:         buyer,
		Creator:       creator,
		ContentID:     contentID,
		Price:         price,
		PaymentToken:  paymentToken,
		CreatedAt:     uint64(e.now()),
		Disambiguator: disambiguator,
		Status:        StatusInitialized,
		Bump:          bump,
	}
	if err := e.state.PurchasePut(record); err != nil {
		return nil, err
	}
	e.emit(NewPurchaseInitializedEvent(record))
	return record.Clone(), nil
}

// Cancel refunds any custody balance to the buyer and removes the record,
// reclaiming its storage. Only the buyer may cancel, and only while the
// purchase is still Initialized; completed and already-cancelled
// purchases are terminal.
func (e *Engine) Cancel(purchase, caller types.Address) error {
	record, err := e.loadPurchase(purchase)
	if err != nil {
		return err
	}
	if caller != record.Buyer {
		return ErrUnauthorized
	}
	if record.Status != StatusInitialized {
		return ErrInvalidStatus
	}
	custody, _, err := pda.Vault(record.Address)
	if err != nil {
		return err
	}
	balance, err := e.state.BalanceUint64(custody, record.PaymentToken)
	if err != nil {
		return err
	}
	if balance > 0 {
		if err := e.state.Transfer(custody, record.Buyer, record.PaymentToken, balance); err != nil {
			return err
		}
	}
	if err := e.state.PurchaseDelete(record.Address); err != nil {
		return err
	}
	e.emit(NewPurchaseCancelledEvent(record, balance))
	return nil
}

// Settle executes the atomic purchase chain: move the payment into
// custody, mint the access credential to the buyer, fan the custody
// balance out through the split, and mark the purchase Completed. The
// engine runs inside one state session, so a failure at any step leaves
// no observable effect: the record stays Initialized and no funds move.
func (e *Engine) Settle(purchase, caller types.Address, paymentAmount uint64, mintState, split types.Address) (*PurchaseRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.minter == nil {
		return nil, errNilMinter
	}
	if e.distributor == nil {
		return nil, errNilDistributor
	}
	record, err := e.loadPurchase(purchase)
	if err != nil {
		return nil, err
	}
	if record.Status != StatusInitialized {
		return nil, ErrInvalidStatus
	}
	if caller != record.Buyer {
		return nil, ErrUnauthorized
	}
	if paymentAmount != record.Price {
		return nil, ErrInvalidAmount
	}
	custody, _, err := pda.Vault(record.Address)
	if err != nil {
		return nil, err
	}
	funded, err := e.state.HasBalance(record.Buyer, record.PaymentToken, paymentAmount)
	if err != nil {
		return nil, err
	}
	if !funded {
		return nil, ErrInsufficientFunds
	}
	if err := e.state.Transfer(record.Buyer, custody, record.PaymentToken, paymentAmount); err != nil {
		return nil, err
	}
	credential, err := e.minter.MintAccess(mintState, record.Creator, record.ContentID, record.Buyer, caller)
	if err != nil {
		return nil, fmt.Errorf("escrow: mint access: %w", err)
	}
	if err := e.distributor.Distribute(split, custody, record.Buyer, record.Creator, record.ContentID, record.Disambiguator, record.PaymentToken, paymentAmount); err != nil {
		return nil, fmt.Errorf("escrow: distribute: %w", err)
	}
	updated := record.Clone()
	updated.PaymentAmount = paymentAmount
	updated.Credential = credential
	updated.Status = StatusCompleted
	if err := e.state.PurchasePut(updated); err != nil {
		return nil, err
	}
	e.emit(NewPurchaseCompletedEvent(updated))
	return updated.Clone(), nil
}
