package distribution

import (
	"errors"
	"fmt"
	"time"

	"paymint/core/events"
	"paymint/core/types"
	"paymint/crypto/pda"
)

var errNilState = errors.New("distribution engine: state not configured")

type engineState interface {
	SplitPut(*SplitConfig) error
	SplitGet(addr types.Address) (*SplitConfig, bool, error)
	Transfer(from, to types.Address, token string, amount uint64) error
}

type splitEvent struct {
	evt *types.Event
}

func (e splitEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e splitEvent) Event() *types.Event { return e.evt }

// Engine owns the per-content revenue split configuration and performs
// the payout fan-out during settlement.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a distribution engine with a no-op emitter. Callers
// can override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
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
	e.emitter.Emit(splitEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// InitializeSplit creates the immutable revenue split configuration for a
// content item. The caller must be the creator; share invariants are
// validated before anything is stored.
func (e *Engine) InitializeSplit(caller types.Address, contentID [32]byte, platformTreasury types.Address, platformFeeBps uint16, collaborators []Collaborator, disambiguator uint64) (*SplitConfig, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if caller.IsZero() {
		return nil, ErrUnauthorized
	}
	if platformTreasury.IsZero() {
		return nil, fmt.Errorf("distribution: platform treasury required")
	}
	addr, bump, err := pda.Split(caller, contentID, disambiguator)
	if err != nil {
		return nil, err
	}
	if _, exists, err := e.state.SplitGet(addr); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDuplicateSplit
	}
	cfg := &SplitConfig{
		Address:          addr,
		Creator:          caller,
		PlatformTreasury: platformTreasury,
		PlatformFeeBps:   platformFeeBps,
		Collaborators:    append([]Collaborator(nil), collaborators...),
		ContentID:        contentID,
		Disambiguator:    disambiguator,
		CreatedAt:        uint64(e.now()),
		Bump:             bump,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := e.state.SplitPut(cfg); err != nil {
		return nil, err
	}
	e.emit(NewSplitInitializedEvent(cfg))
	return cfg.Clone(), nil
}

// Distribute drains amount units of the payment asset from the custody
// source into the split's recipients. Authorization is structural: the
// source must be the custody address derived from the purchase record
// identified by (buyer, contentID, purchaseDisambiguator), and the split
// must belong to the same creator and content as that record. Any
// mismatch rejects the call before funds move.
func (e *Engine) Distribute(split, source, buyer, creator types.Address, contentID [32]byte, purchaseDisambiguator uint64, token string, amount uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	cfg, ok, err := e.state.SplitGet(split)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSplitNotFound
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	if cfg.Creator != creator || cfg.ContentID != contentID {
		return ErrSplitMismatch
	}
	purchaseAddr, _, err := pda.Purchase(buyer, contentID, purchaseDisambiguator)
	if err != nil {
		return err
	}
	custody, _, err := pda.Vault(purchaseAddr)
	if err != nil {
		return err
	}
	if custody != source {
		return ErrSplitMismatch
	}
	// No recipient may alias the custody source: paying custody out of
	// custody would leave the vault funded after the drain.
	if cfg.Creator == source || cfg.PlatformTreasury == source {
		return ErrSplitMismatch
	}
	for _, collab := range cfg.Collaborators {
		if collab.Account == source {
			return ErrSplitMismatch
		}
	}
	payout, err := ComputeCuts(amount, cfg)
	if err != nil {
		return err
	}
	if payout.Platform > 0 {
		if err := e.state.Transfer(source, cfg.PlatformTreasury, token, payout.Platform); err != nil {
			return err
		}
	}
	for i, collab := range cfg.Collaborators {
		if payout.Collaborators[i] == 0 {
			continue
		}
		if err := e.state.Transfer(source, collab.Account, token, payout.Collaborators[i]); err != nil {
			return err
		}
	}
	if payout.Creator > 0 {
		if err := e.state.Transfer(source, cfg.Creator, token, payout.Creator); err != nil {
			return err
		}
	}
	updated := cfg.Clone()
	updated.LastDistributedAt = uint64(e.now())
	if err := e.state.SplitPut(updated); err != nil {
		return err
	}
	e.emit(NewDistributedEvent(updated, source, token, amount, payout))
	return nil
}
