package accessmint

import (
	"errors"
	"math"
	"time"

	"paymint/core/events"
	"paymint/core/types"
	"paymint/crypto/pda"
)

var errNilState = errors.New("accessmint engine: state not configured")

type engineState interface {
	MintStatePut(*AccessMintState) error
	MintStateGet(addr types.Address) (*AccessMintState, bool, error)
	CredentialBalance(asset, holder types.Address) (uint64, error)
	SetCredentialBalance(asset, holder types.Address, balance uint64) error
}

type mintEvent struct {
	evt *types.Event
}

func (e mintEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e mintEvent) Event() *types.Event { return e.evt }

// Engine owns per-content credential asset types and mints exactly one
// credential unit to a buyer on successful settlement.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates an access-mint engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

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
	e.emitter.Emit(mintEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// InitializeMint creates the zero-fractional-unit credential asset for a
// content item together with its mint state. The caller must be the
// creator. The mint authority and credential asset identifier are both
// program-derived, so the storefront can compute them before the first
// settlement.
func (e *Engine) InitializeMint(caller types.Address, contentID [32]byte, disambiguator uint64) (*AccessMintState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if caller.IsZero() {
		return nil, ErrUnauthorized
	}
	addr, bump, err := pda.MintState(caller, contentID, disambiguator)
	if err != nil {
		return nil, err
	}
	if _, exists, err := e.state.MintStateGet(addr); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDuplicateMint
	}
	authority, authorityBump, err := pda.MintAuthority(caller, contentID, disambiguator)
	if err != nil {
		return nil, err
	}
	credential, _, err := pda.Credential(caller, contentID, disambiguator)
	if err != nil {
		return nil, err
	}
	mintState := &AccessMintState{
		Address:         addr,
		Creator:         caller,
		ContentID:       contentID,
		CredentialAsset: credential,
		MintAuthority:   authority,
		Disambiguator:   disambiguator,
		CreatedAt:       uint64(e.now()),
		Bump:            bump,
		AuthorityBump:   authorityBump,
	}
	if err := e.state.MintStatePut(mintState); err != nil {
		return nil, err
	}
	e.emit(NewMintInitializedEvent(mintState))
	return mintState.Clone(), nil
}

// MintAccess issues exactly one credential unit to the buyer. The caller
// chain must supply the purchase's creator and content so a mint state
// belonging to different content cannot be substituted. The payer need
// not be the buyer: anyone willing to pay may mint on the buyer's behalf,
// but the buyer is always the recipient. A buyer already holding the
// credential is rejected; the entitlement is a single unit.
func (e *Engine) MintAccess(stateAddr, creator types.Address, contentID [32]byte, buyer, payer types.Address) (types.Address, error) {
	if e == nil || e.state == nil {
		return types.Address{}, errNilState
	}
	mintState, ok, err := e.state.MintStateGet(stateAddr)
	if err != nil {
		return types.Address{}, err
	}
	if !ok {
		return types.Address{}, ErrMintNotFound
	}
	if buyer.IsZero() {
		return types.Address{}, ErrUnauthorized
	}
	if mintState.Creator != creator || mintState.ContentID != contentID {
		return types.Address{}, ErrMintMismatch
	}
	// Re-prove the authority derivation before any issuance; a stored
	// state with a tampered authority must never mint.
	if !pda.Verify(mintState.MintAuthority, mintState.AuthorityBump, pda.NamespaceMintAuthority,
		pda.Key(mintState.Creator), pda.Bytes32(mintState.ContentID), pda.Uint64LE(mintState.Disambiguator)) {
		return types.Address{}, ErrInvalidMintAuthority
	}
	balance, err := e.state.CredentialBalance(mintState.CredentialAsset, buyer)
	if err != nil {
		return types.Address{}, err
	}
	if balance >= 1 {
		return types.Address{}, ErrAlreadyMinted
	}
	if mintState.TotalMinted == math.MaxUint64 {
		return types.Address{}, ErrNumericalOverflow
	}
	if err := e.state.SetCredentialBalance(mintState.CredentialAsset, buyer, balance+1); err != nil {
		return types.Address{}, err
	}
	updated := mintState.Clone()
	updated.TotalMinted++
	if err := e.state.MintStatePut(updated); err != nil {
		return types.Address{}, err
	}
	e.emit(NewAccessMintedEvent(updated, buyer, payer))
	return updated.CredentialAsset, nil
}
