package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"paymint/core/types"
	"paymint/storage"
)

var (
	// ErrInsufficientBalance is returned when a transfer would overdraw
	// the source account.
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	// ErrUnknownToken is returned when a token symbol has not been
	// registered in the ledger.
	ErrUnknownToken = errors.New("state: unknown token")
)

// Manager provides typed access to settlement state over a raw key-value
// store. Writes accumulate in an overlay until Commit flushes them, so a
// copied manager doubles as a speculative session: run a full operation
// against the copy, commit on success, drop the copy on any error. Reads
// always observe the overlay first.
//
// Manager is not safe for concurrent use; callers serialize sessions.
type Manager struct {
	db      storage.Database
	overlay map[string]overlayEntry
}

type overlayEntry struct {
	value   []byte
	deleted bool
}

// NewManager creates a state manager over the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:      db,
		overlay: make(map[string]overlayEntry),
	}
}

// Copy returns a manager sharing the same backing database with an
// independent overlay seeded from the receiver's pending writes.
func (m *Manager) Copy() *Manager {
	clone := NewManager(m.db)
	for key, entry := range m.overlay {
		clone.overlay[key] = entry
	}
	return clone
}

// Commit flushes all pending writes to the backing database and clears
// the overlay. The host store applies each write durably; atomicity across
// concurrent sessions comes from session serialization, not from here.
func (m *Manager) Commit() error {
	for key, entry := range m.overlay {
		if entry.deleted {
			if err := m.db.Delete([]byte(key)); err != nil {
				return fmt.Errorf("state: commit delete: %w", err)
			}
			continue
		}
		if err := m.db.Put([]byte(key), entry.value); err != nil {
			return fmt.Errorf("state: commit put: %w", err)
		}
	}
	m.overlay = make(map[string]overlayEntry)
	return nil
}

func (m *Manager) readRaw(key []byte) ([]byte, bool, error) {
	if entry, ok := m.overlay[string(key)]; ok {
		if entry.deleted {
			return nil, false, nil
		}
		return entry.value, true, nil
	}
	value, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (m *Manager) writeRaw(key, value []byte) {
	m.overlay[string(key)] = overlayEntry{value: append([]byte(nil), value...)}
}

func (m *Manager) deleteRaw(key []byte) {
	m.overlay[string(key)] = overlayEntry{deleted: true}
}

func (m *Manager) putRLP(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}
	m.writeRaw(key, encoded)
	return nil
}

func (m *Manager) getRLP(key []byte, out interface{}) (bool, error) {
	data, ok, err := m.readRaw(key)
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode: %w", err)
	}
	return true, nil
}

// --- Accounts and balances ---

// GetAccount loads the account stored at addr, returning a zero-valued
// account when none exists yet.
func (m *Manager) GetAccount(addr types.Address) (*types.Account, error) {
	account := &types.Account{Balance: big.NewInt(0)}
	ok, err := m.getRLP(accountKey(addr), account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	if account.Balance == nil {
		account.Balance = big.NewInt(0)
	}
	return account, nil
}

// PutAccount stores the account at addr.
func (m *Manager) PutAccount(addr types.Address, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	stored := account.Clone()
	return m.putRLP(accountKey(addr), stored)
}

// TokenMetadata describes a registered payment token.
type TokenMetadata struct {
	Symbol   string
	Name     string
	Decimals uint8
}

// RegisterToken stores the metadata for a payment token so purchases can
// reference it as a payment unit.
func (m *Manager) RegisterToken(symbol, name string, decimals uint8) error {
	if symbol == "" {
		return fmt.Errorf("state: token symbol required")
	}
	return m.putRLP(tokenKey(symbol), &TokenMetadata{Symbol: symbol, Name: name, Decimals: decimals})
}

// Token returns the metadata for a registered token.
func (m *Manager) Token(symbol string) (*TokenMetadata, bool, error) {
	meta := new(TokenMetadata)
	ok, err := m.getRLP(tokenKey(symbol), meta)
	if err != nil || !ok {
		return nil, false, err
	}
	return meta, true, nil
}

// TokenExists reports whether the symbol names a registered token.
func (m *Manager) TokenExists(symbol string) bool {
	ok, err := m.getRLP(tokenKey(symbol), new(TokenMetadata))
	return err == nil && ok
}

func (m *Manager) tokenBalance(addr types.Address, symbol string) (*big.Int, error) {
	var stored big.Int
	ok, err := m.getRLP(balanceKey(addr, symbol), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return &stored, nil
}

func (m *Manager) setTokenBalance(addr types.Address, symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: negative balance")
	}
	return m.putRLP(balanceKey(addr, symbol), amount)
}

// Balance returns the addr's balance for the given payment unit. An empty
// symbol selects the native asset.
func (m *Manager) Balance(addr types.Address, symbol string) (*big.Int, error) {
	if symbol == "" {
		account, err := m.GetAccount(addr)
		if err != nil {
			return nil, err
		}
		return account.Balance, nil
	}
	if !m.TokenExists(symbol) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, symbol)
	}
	return m.tokenBalance(addr, symbol)
}

// BalanceUint64 returns the balance clamped into a uint64 settlement
// amount. Balances beyond 64 bits report an error rather than truncating.
func (m *Manager) BalanceUint64(addr types.Address, symbol string) (uint64, error) {
	balance, err := m.Balance(addr, symbol)
	if err != nil {
		return 0, err
	}
	if !balance.IsUint64() {
		return 0, fmt.Errorf("state: balance exceeds uint64 range")
	}
	return balance.Uint64(), nil
}

// HasBalance reports whether addr holds at least amount units of the
// payment asset.
func (m *Manager) HasBalance(addr types.Address, symbol string, amount uint64) (bool, error) {
	balance, err := m.Balance(addr, symbol)
	if err != nil {
		return false, err
	}
	return balance.Cmp(new(big.Int).SetUint64(amount)) >= 0, nil
}

// Credit adds amount to the addr's balance for the payment unit. Used for
// genesis allocations and administrative token issuance.
func (m *Manager) Credit(addr types.Address, symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: negative credit")
	}
	if symbol == "" {
		account, err := m.GetAccount(addr)
		if err != nil {
			return err
		}
		account.Balance = new(big.Int).Add(account.Balance, amount)
		return m.PutAccount(addr, account)
	}
	if !m.TokenExists(symbol) {
		return fmt.Errorf("%w: %s", ErrUnknownToken, symbol)
	}
	balance, err := m.tokenBalance(addr, symbol)
	if err != nil {
		return err
	}
	return m.setTokenBalance(addr, symbol, new(big.Int).Add(balance, amount))
}

// Transfer moves amount units of the payment asset between accounts. An
// empty symbol moves the native asset. Transfers never create value: the
// source must hold the full amount.
func (m *Manager) Transfer(from, to types.Address, symbol string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from == to {
		// A self-transfer must still prove the funds exist, but writing
		// both sides back would double the read balance.
		ok, err := m.HasBalance(from, symbol, amount)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientBalance
		}
		return nil
	}
	value := new(big.Int).SetUint64(amount)
	if symbol == "" {
		fromAcc, err := m.GetAccount(from)
		if err != nil {
			return err
		}
		if fromAcc.Balance.Cmp(value) < 0 {
			return ErrInsufficientBalance
		}
		toAcc, err := m.GetAccount(to)
		if err != nil {
			return err
		}
		fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, value)
		toAcc.Balance = new(big.Int).Add(toAcc.Balance, value)
		if err := m.PutAccount(from, fromAcc); err != nil {
			return err
		}
		return m.PutAccount(to, toAcc)
	}
	if !m.TokenExists(symbol) {
		return fmt.Errorf("%w: %s", ErrUnknownToken, symbol)
	}
	fromBal, err := m.tokenBalance(from, symbol)
	if err != nil {
		return err
	}
	if fromBal.Cmp(value) < 0 {
		return ErrInsufficientBalance
	}
	toBal, err := m.tokenBalance(to, symbol)
	if err != nil {
		return err
	}
	if err := m.setTokenBalance(from, symbol, new(big.Int).Sub(fromBal, value)); err != nil {
		return err
	}
	return m.setTokenBalance(to, symbol, new(big.Int).Add(toBal, value))
}

// --- Credential holdings ---

// CredentialBalance returns how many units of the credential asset the
// holder owns. A correct deployment only ever observes 0 or 1.
func (m *Manager) CredentialBalance(asset, holder types.Address) (uint64, error) {
	var stored uint64
	ok, err := m.getRLP(credentialKey(asset, holder), &stored)
	if err != nil || !ok {
		return 0, err
	}
	return stored, nil
}

// SetCredentialBalance stores the holder's credential balance, creating
// the holding entry if absent.
func (m *Manager) SetCredentialBalance(asset, holder types.Address, balance uint64) error {
	return m.putRLP(credentialKey(asset, holder), balance)
}
