package gateway

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"paymint/core/types"
	"paymint/crypto/pda"
)

// PurchaseIntent carries everything a client wallet needs to fund and
// settle a purchase: the derived ledger addresses plus a payment memo
// and QR string.
type PurchaseIntent struct {
	ID              string    `json:"id"`
	Buyer           string    `json:"buyer"`
	Creator         string    `json:"creator"`
	ContentID       string    `json:"contentId"`
	Price           uint64    `json:"price"`
	PaymentToken    string    `json:"paymentToken,omitempty"`
	Disambiguator   uint64    `json:"disambiguator"`
	PurchaseAddress string    `json:"purchaseAddress"`
	VaultAddress    string    `json:"vaultAddress"`
	SplitAddress    string    `json:"splitAddress"`
	MintState       string    `json:"mintState"`
	Memo            string    `json:"memo"`
	QR              string    `json:"qr"`
	CreatedAt       time.Time `json:"createdAt"`
}

// IntentBuilder derives the address set for a planned purchase. The
// split and mint state are derived from the creator side so a wallet can
// present the whole settlement bundle before any ledger state exists.
type IntentBuilder struct{}

func NewIntentBuilder() *IntentBuilder {
	return &IntentBuilder{}
}

func (b *IntentBuilder) Build(buyer, creator types.Address, contentID [32]byte, price uint64, token string, purchaseDisambiguator, creatorDisambiguator uint64) (PurchaseIntent, error) {
	purchaseAddr, _, err := pda.Purchase(buyer, contentID, purchaseDisambiguator)
	if err != nil {
		return PurchaseIntent{}, fmt.Errorf("derive purchase address: %w", err)
	}
	vaultAddr, _, err := pda.Vault(purchaseAddr)
	if err != nil {
		return PurchaseIntent{}, fmt.Errorf("derive vault address: %w", err)
	}
	splitAddr, _, err := pda.Split(creator, contentID, creatorDisambiguator)
	if err != nil {
		return PurchaseIntent{}, fmt.Errorf("derive split address: %w", err)
	}
	mintStateAddr, _, err := pda.MintState(creator, contentID, creatorDisambiguator)
	if err != nil {
		return PurchaseIntent{}, fmt.Errorf("derive mint state address: %w", err)
	}
	id := uuid.NewString()
	memo := "PURCHASE:" + id
	return PurchaseIntent{
		ID:              id,
		Buyer:           buyer.Hex(),
		Creator:         creator.Hex(),
		ContentID:       types.ContentIDHex(contentID),
		Price:           price,
		PaymentToken:    token,
		Disambiguator:   purchaseDisambiguator,
		PurchaseAddress: purchaseAddr.Hex(),
		VaultAddress:    vaultAddr.Hex(),
		SplitAddress:    splitAddr.Hex(),
		MintState:       mintStateAddr.Hex(),
		Memo:            memo,
		QR:              buildQRString(vaultAddr.Hex(), token, price, memo),
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func buildQRString(vaultAddr, token string, amount uint64, memo string) string {
	values := url.Values{}
	if token != "" {
		values.Set("token", token)
	}
	values.Set("amount", fmt.Sprintf("%d", amount))
	values.Set("memo", memo)
	return fmt.Sprintf("paymint:%s?%s", vaultAddr, values.Encode())
}

// IntentStore keeps issued intents in memory so a storefront can fetch
// them back by ID while a checkout is in flight.
type IntentStore struct {
	mu      sync.RWMutex
	intents map[string]PurchaseIntent
}

func NewIntentStore() *IntentStore {
	return &IntentStore{intents: make(map[string]PurchaseIntent)}
}

func (s *IntentStore) Put(intent PurchaseIntent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents[intent.ID] = intent
}

func (s *IntentStore) Get(id string) (PurchaseIntent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	intent, ok := s.intents[id]
	return intent, ok
}
