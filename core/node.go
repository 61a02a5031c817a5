package core

import (
	"log/slog"
	"math/big"
	"sync"
	"time"

	"paymint/core/events"
	"paymint/core/state"
	"paymint/core/types"
	"paymint/crypto/pda"
	"paymint/native/accessmint"
	"paymint/native/distribution"
	"paymint/native/escrow"
	"paymint/observability"
	"paymint/storage"
)

// Node hosts the three settlement programs over shared ledger state and
// provides the transaction boundary the programs rely on. Every public
// mutating operation runs as one session: a copy of the state manager
// that commits in full on success or is dropped in full on any error,
// mirroring whole-transaction atomicity. Sessions are serialized by a
// node-level mutex, which stands in for the host runtime's per-account
// write exclusivity; the later of two conflicting operations observes the
// earlier one's terminal state and fails its own precondition check.
type Node struct {
	mu      sync.Mutex
	db      storage.Database
	state   *state.Manager
	emitter events.Emitter
	logger  *slog.Logger
	metrics *observability.SettlementMetrics
	nowFn   func() int64
}

// NodeOption customises node construction.
type NodeOption func(*Node)

// WithEmitter routes committed events to the provided emitter.
func WithEmitter(emitter events.Emitter) NodeOption {
	return func(n *Node) {
		if emitter != nil {
			n.emitter = emitter
		}
	}
}

// WithLogger attaches a structured logger to the node.
func WithLogger(logger *slog.Logger) NodeOption {
	return func(n *Node) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithNowFunc overrides the node's time source, primarily for tests.
func WithNowFunc(now func() int64) NodeOption {
	return func(n *Node) {
		if now != nil {
			n.nowFn = now
		}
	}
}

// NewNode creates a settlement node over the provided database.
func NewNode(db storage.Database, opts ...NodeOption) *Node {
	n := &Node{
		db:      db,
		state:   state.NewManager(db),
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
		metrics: observability.Settlement(),
		nowFn:   func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// session bundles the speculative state copy with engines bound to it.
type session struct {
	state       *state.Manager
	events      *events.Buffer
	escrow      *escrow.Engine
	distributor *distribution.Engine
	minter      *accessmint.Engine
}

func (n *Node) newSession() *session {
	mgr := n.state.Copy()
	buf := &events.Buffer{}

	dist := distribution.NewEngine()
	dist.SetState(mgr)
	dist.SetEmitter(buf)
	dist.SetNowFunc(n.nowFn)

	mint := accessmint.NewEngine()
	mint.SetState(mgr)
	mint.SetEmitter(buf)
	mint.SetNowFunc(n.nowFn)

	esc := escrow.NewEngine()
	esc.SetState(mgr)
	esc.SetEmitter(buf)
	esc.SetNowFunc(n.nowFn)
	esc.SetAccessMinter(mint)
	esc.SetDistributor(dist)

	return &session{state: mgr, events: buf, escrow: esc, distributor: dist, minter: mint}
}

// withSession runs fn inside a serialized atomic session. Nothing fn does
// becomes visible unless it returns nil and the commit succeeds; buffered
// events flush only after the commit.
func (n *Node) withSession(operation string, fn func(*session) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	started := time.Now()
	s := n.newSession()
	err := fn(s)
	if err == nil {
		err = s.state.Commit()
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else {
		s.events.Flush(n.emitter)
	}
	n.metrics.Operations.WithLabelValues(operation, outcome).Inc()
	n.metrics.Latency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	if err != nil {
		n.logger.Debug("operation rejected", "operation", operation, "err", err)
	}
	return err
}

// --- Escrow operations ---

// InitializePurchase opens a purchase record and custody account for the
// buyer. The creator and price come from the storefront's catalog lookup,
// which is outside this core.
func (n *Node) InitializePurchase(buyer, creator types.Address, contentID [32]byte, price uint64, paymentToken string, disambiguator uint64) (*escrow.PurchaseRecord, error) {
	var record *escrow.PurchaseRecord
	err := n.withSession("escrow_initialize", func(s *session) error {
		var err error
		record, err = s.escrow.Initialize(buyer, creator, contentID, price, paymentToken, disambiguator)
		return err
	})
	if err != nil {
		return nil, err
	}
	n.logger.Info("purchase initialized", "purchase", record.Address.Hex(), "buyer", buyer.Hex())
	return record, nil
}

// SettlePurchase executes the atomic settlement chain for a purchase:
// payment into custody, credential mint, split fan-out, terminal
// Completed status. Any failure aborts the whole chain.
func (n *Node) SettlePurchase(purchase, caller types.Address, paymentAmount uint64, mintState, split types.Address) (*escrow.PurchaseRecord, error) {
	var record *escrow.PurchaseRecord
	err := n.withSession("escrow_settle", func(s *session) error {
		var err error
		record, err = s.escrow.Settle(purchase, caller, paymentAmount, mintState, split)
		return err
	})
	if err != nil {
		return nil, err
	}
	n.metrics.Settled.Inc()
	n.metrics.Minted.Inc()
	unit := record.PaymentToken
	if unit == "" {
		unit = "native"
	}
	n.metrics.ValueSettled.WithLabelValues(unit).Add(float64(record.PaymentAmount))
	n.logger.Info("purchase settled",
		"purchase", record.Address.Hex(),
		"amount", record.PaymentAmount,
		"credential", record.Credential.Hex(),
	)
	return record, nil
}

// CancelPurchase refunds and removes an initialized purchase.
func (n *Node) CancelPurchase(purchase, caller types.Address) error {
	err := n.withSession("escrow_cancel", func(s *session) error {
		return s.escrow.Cancel(purchase, caller)
	})
	if err != nil {
		return err
	}
	n.metrics.Cancelled.Inc()
	n.logger.Info("purchase cancelled", "purchase", purchase.Hex())
	return nil
}

// --- Distribution operations ---

// InitializeSplit creates the immutable revenue split configuration for a
// content item.
func (n *Node) InitializeSplit(creator types.Address, contentID [32]byte, platformTreasury types.Address, platformFeeBps uint16, collaborators []distribution.Collaborator, disambiguator uint64) (*distribution.SplitConfig, error) {
	var cfg *distribution.SplitConfig
	err := n.withSession("distribution_initialize", func(s *session) error {
		var err error
		cfg, err = s.distributor.InitializeSplit(creator, contentID, platformTreasury, platformFeeBps, collaborators, disambiguator)
		return err
	})
	if err != nil {
		return nil, err
	}
	n.logger.Info("split initialized", "split", cfg.Address.Hex(), "creator", creator.Hex())
	return cfg, nil
}

// --- Access-mint operations ---

// InitializeMint registers the credential asset for a content item.
func (n *Node) InitializeMint(creator types.Address, contentID [32]byte, disambiguator uint64) (*accessmint.AccessMintState, error) {
	var mintState *accessmint.AccessMintState
	err := n.withSession("accessmint_initialize", func(s *session) error {
		var err error
		mintState, err = s.minter.InitializeMint(creator, contentID, disambiguator)
		return err
	})
	if err != nil {
		return nil, err
	}
	n.logger.Info("mint initialized", "mintState", mintState.Address.Hex(), "credential", mintState.CredentialAsset.Hex())
	return mintState, nil
}

// MintAccess issues a credential outside the settlement chain. Any payer
// may invoke it on a buyer's behalf; the buyer is the recipient either
// way and the single-unit entitlement still holds.
func (n *Node) MintAccess(mintState, creator types.Address, contentID [32]byte, buyer, payer types.Address) (types.Address, error) {
	var credential types.Address
	err := n.withSession("accessmint_mint", func(s *session) error {
		var err error
		credential, err = s.minter.MintAccess(mintState, creator, contentID, buyer, payer)
		return err
	})
	if err != nil {
		return types.Address{}, err
	}
	n.metrics.Minted.Inc()
	return credential, nil
}

// --- Ledger administration ---

// RegisterToken registers a payment token so purchases may reference it.
func (n *Node) RegisterToken(symbol, name string, decimals uint8) error {
	return n.withSession("token_register", func(s *session) error {
		return s.state.RegisterToken(symbol, name, decimals)
	})
}

// Credit funds an account, used for genesis allocations and faucets on
// development networks.
func (n *Node) Credit(addr types.Address, token string, amount *big.Int) error {
	return n.withSession("ledger_credit", func(s *session) error {
		return s.state.Credit(addr, token, amount)
	})
}

// --- Read-only queries ---

// PurchaseGet returns the purchase record stored at addr.
func (n *Node) PurchaseGet(addr types.Address) (*escrow.PurchaseRecord, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.PurchaseGet(addr)
}

// PurchaseLookup derives the record address for (buyer, content,
// disambiguator) and returns the stored record.
func (n *Node) PurchaseLookup(buyer types.Address, contentID [32]byte, disambiguator uint64) (*escrow.PurchaseRecord, bool, error) {
	addr, _, err := pda.Purchase(buyer, contentID, disambiguator)
	if err != nil {
		return nil, false, err
	}
	return n.PurchaseGet(addr)
}

// SplitGet returns the split configuration stored at addr.
func (n *Node) SplitGet(addr types.Address) (*distribution.SplitConfig, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.SplitGet(addr)
}

// MintStateGet returns the access-mint state stored at addr.
func (n *Node) MintStateGet(addr types.Address) (*accessmint.AccessMintState, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.MintStateGet(addr)
}

// CredentialBalance returns the holder's balance of a credential asset.
// Downstream access checks are exactly this: balance >= 1.
func (n *Node) CredentialBalance(asset, holder types.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.CredentialBalance(asset, holder)
}

// Balance returns an account's balance for a payment unit.
func (n *Node) Balance(addr types.Address, token string) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Balance(addr, token)
}
