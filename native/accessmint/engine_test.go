package accessmint

import (
	"errors"
	"testing"

	"paymint/core/types"
	"paymint/crypto/pda"
)

type mockState struct {
	states      map[types.Address]*AccessMintState
	credentials map[types.Address]map[types.Address]uint64
}

func newMockState() *mockState {
	return &mockState{
		states:      make(map[types.Address]*AccessMintState),
		credentials: make(map[types.Address]map[types.Address]uint64),
	}
}

func (m *mockState) MintStatePut(state *AccessMintState) error {
	m.states[state.Address] = state.Clone()
	return nil
}

func (m *mockState) MintStateGet(addr types.Address) (*AccessMintState, bool, error) {
	state, ok := m.states[addr]
	if !ok {
		return nil, false, nil
	}
	return state.Clone(), true, nil
}

func (m *mockState) CredentialBalance(asset, holder types.Address) (uint64, error) {
	return m.credentials[asset][holder], nil
}

func (m *mockState) SetCredentialBalance(asset, holder types.Address, balance uint64) error {
	if m.credentials[asset] == nil {
		m.credentials[asset] = make(map[types.Address]uint64)
	}
	m.credentials[asset][holder] = balance
	return nil
}

func testAddress(fill byte) types.Address {
	var addr types.Address
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func testContent(fill byte) [32]byte {
	var id [32]byte
	for i := range id {
		id[i] = fill
	}
	return id
}

func newTestEngine(state *mockState) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine
}

func TestInitializeMint(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	creator := testAddress(0x10)
	content := testContent(0x20)

	mintState, err := engine.InitializeMint(creator, content, 0)
	if err != nil {
		t.Fatalf("initialize mint: %v", err)
	}
	expected, _, _ := pda.MintState(creator, content, 0)
	if mintState.Address != expected {
		t.Fatalf("address = %s, want derived %s", mintState.Address, expected)
	}
	authority, authorityBump, _ := pda.MintAuthority(creator, content, 0)
	if mintState.MintAuthority != authority || mintState.AuthorityBump != authorityBump {
		t.Fatal("mint authority must match its derivation")
	}
	credential, _, _ := pda.Credential(creator, content, 0)
	if mintState.CredentialAsset != credential {
		t.Fatal("credential asset must match its derivation")
	}
	if mintState.TotalMinted != 0 {
		t.Fatalf("totalMinted = %d, want 0", mintState.TotalMinted)
	}
	if _, ok, _ := state.MintStateGet(expected); !ok {
		t.Fatal("mint state must be persisted")
	}
}

func TestInitializeMintRejectsDuplicate(t *testing.T) {
	engine := newTestEngine(newMockState())
	creator := testAddress(0x10)
	content := testContent(0x20)
	if _, err := engine.InitializeMint(creator, content, 1); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	if _, err := engine.InitializeMint(creator, content, 1); !errors.Is(err, ErrDuplicateMint) {
		t.Fatalf("err = %v, want ErrDuplicateMint", err)
	}
}

func TestMintAccess(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	creator := testAddress(0x10)
	buyer := testAddress(0x11)
	content := testContent(0x20)
	mintState, err := engine.InitializeMint(creator, content, 0)
	if err != nil {
		t.Fatalf("initialize mint: %v", err)
	}

	credential, err := engine.MintAccess(mintState.Address, creator, content, buyer, buyer)
	if err != nil {
		t.Fatalf("mint access: %v", err)
	}
	if credential != mintState.CredentialAsset {
		t.Fatalf("credential = %s, want %s", credential, mintState.CredentialAsset)
	}
	balance, _ := state.CredentialBalance(credential, buyer)
	if balance != 1 {
		t.Fatalf("balance = %d, want 1", balance)
	}
	updated, _, _ := state.MintStateGet(mintState.Address)
	if updated.TotalMinted != 1 {
		t.Fatalf("totalMinted = %d, want 1", updated.TotalMinted)
	}
}

func TestMintAccessSingleEntitlement(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	creator := testAddress(0x10)
	buyer := testAddress(0x11)
	content := testContent(0x20)
	mintState, err := engine.InitializeMint(creator, content, 0)
	if err != nil {
		t.Fatalf("initialize mint: %v", err)
	}
	if _, err := engine.MintAccess(mintState.Address, creator, content, buyer, buyer); err != nil {
		t.Fatalf("first mint: %v", err)
	}
	if _, err := engine.MintAccess(mintState.Address, creator, content, buyer, buyer); !errors.Is(err, ErrAlreadyMinted) {
		t.Fatalf("err = %v, want ErrAlreadyMinted", err)
	}
	// A different buyer still mints against the same state.
	if _, err := engine.MintAccess(mintState.Address, creator, content, testAddress(0x12), testAddress(0x12)); err != nil {
		t.Fatalf("second buyer: %v", err)
	}
	updated, _, _ := state.MintStateGet(mintState.Address)
	if updated.TotalMinted != 2 {
		t.Fatalf("totalMinted = %d, want 2", updated.TotalMinted)
	}
}

func TestMintAccessPermissivePayer(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	creator := testAddress(0x10)
	buyer := testAddress(0x11)
	sponsor := testAddress(0x13)
	content := testContent(0x20)
	mintState, err := engine.InitializeMint(creator, content, 0)
	if err != nil {
		t.Fatalf("initialize mint: %v", err)
	}

	// The sponsor pays but the buyer receives the credential.
	credential, err := engine.MintAccess(mintState.Address, creator, content, buyer, sponsor)
	if err != nil {
		t.Fatalf("sponsored mint: %v", err)
	}
	buyerBalance, _ := state.CredentialBalance(credential, buyer)
	if buyerBalance != 1 {
		t.Fatalf("buyer balance = %d, want 1", buyerBalance)
	}
	sponsorBalance, _ := state.CredentialBalance(credential, sponsor)
	if sponsorBalance != 0 {
		t.Fatalf("sponsor balance = %d, want 0", sponsorBalance)
	}
}

func TestMintAccessRejectsMismatch(t *testing.T) {
	engine := newTestEngine(newMockState())

	creator := testAddress(0x10)
	buyer := testAddress(0x11)
	content := testContent(0x20)
	mintState, err := engine.InitializeMint(creator, content, 0)
	if err != nil {
		t.Fatalf("initialize mint: %v", err)
	}
	if _, err := engine.MintAccess(mintState.Address, testAddress(0x12), content, buyer, buyer); !errors.Is(err, ErrMintMismatch) {
		t.Fatalf("wrong creator: err = %v, want ErrMintMismatch", err)
	}
	if _, err := engine.MintAccess(mintState.Address, creator, testContent(0x21), buyer, buyer); !errors.Is(err, ErrMintMismatch) {
		t.Fatalf("wrong content: err = %v, want ErrMintMismatch", err)
	}
}

func TestMintAccessRejectsTamperedAuthority(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	creator := testAddress(0x10)
	buyer := testAddress(0x11)
	content := testContent(0x20)
	mintState, err := engine.InitializeMint(creator, content, 0)
	if err != nil {
		t.Fatalf("initialize mint: %v", err)
	}
	tampered := mintState.Clone()
	tampered.MintAuthority = testAddress(0x99)
	if err := state.MintStatePut(tampered); err != nil {
		t.Fatalf("store tampered state: %v", err)
	}
	if _, err := engine.MintAccess(mintState.Address, creator, content, buyer, buyer); !errors.Is(err, ErrInvalidMintAuthority) {
		t.Fatalf("err = %v, want ErrInvalidMintAuthority", err)
	}
}

func TestMintAccessUnknownState(t *testing.T) {
	engine := newTestEngine(newMockState())
	_, err := engine.MintAccess(testAddress(0x50), testAddress(0x10), testContent(0x20), testAddress(0x11), testAddress(0x11))
	if !errors.Is(err, ErrMintNotFound) {
		t.Fatalf("err = %v, want ErrMintNotFound", err)
	}
}
