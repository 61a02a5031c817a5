package escrow

import (
	"errors"
	"testing"

	"paymint/core/types"
	"paymint/crypto/pda"
)

type mockState struct {
	purchases map[types.Address]*PurchaseRecord
	balances  map[string]map[types.Address]uint64
	tokens    map[string]bool
}

func newMockState() *mockState {
	return &mockState{
		purchases: make(map[types.Address]*PurchaseRecord),
		balances:  make(map[string]map[types.Address]uint64),
		tokens:    map[string]bool{"USDX": true},
	}
}

func (m *mockState) PurchasePut(record *PurchaseRecord) error {
	m.purchases[record.Address] = record.Clone()
	return nil
}

func (m *mockState) PurchaseGet(addr types.Address) (*PurchaseRecord, bool, error) {
	record, ok := m.purchases[addr]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *mockState) PurchaseDelete(addr types.Address) error {
	delete(m.purchases, addr)
	return nil
}

func (m *mockState) credit(addr types.Address, token string, amount uint64) {
	if m.balances[token] == nil {
		m.balances[token] = make(map[types.Address]uint64)
	}
	m.balances[token][addr] += amount
}

func (m *mockState) balance(addr types.Address, token string) uint64 {
	return m.balances[token][addr]
}

func (m *mockState) Transfer(from, to types.Address, token string, amount uint64) error {
	if m.balance(from, token) < amount {
		return errors.New("mock: insufficient balance")
	}
	m.balances[token][from] -= amount
	m.credit(to, token, amount)
	return nil
}

func (m *mockState) BalanceUint64(addr types.Address, token string) (uint64, error) {
	return m.balance(addr, token), nil
}

func (m *mockState) HasBalance(addr types.Address, token string, amount uint64) (bool, error) {
	return m.balance(addr, token) >= amount, nil
}

func (m *mockState) TokenExists(symbol string) bool {
	return m.tokens[symbol]
}

type mockMinter struct {
	credential types.Address
	err        error
	calls      int
}

func (m *mockMinter) MintAccess(state, creator types.Address, contentID [32]byte, buyer, payer types.Address) (types.Address, error) {
	m.calls++
	if m.err != nil {
		return types.Address{}, m.err
	}
	return m.credential, nil
}

type mockDistributor struct {
	state *mockState
	err   error
	calls int
}

// Distribute drains the custody source completely, mirroring the real
// fan-out without the payout arithmetic.
func (m *mockDistributor) Distribute(split, source, buyer, creator types.Address, contentID [32]byte, purchaseDisambiguator uint64, token string, amount uint64) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return m.state.Transfer(source, creator, token, amount)
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

type testEnv struct {
	state       *mockState
	engine      *Engine
	minter      *mockMinter
	distributor *mockDistributor
}

func newTestEnv() *testEnv {
	state := newMockState()
	minter := &mockMinter{credential: testAddress(0xCC)}
	distributor := &mockDistributor{state: state}
	engine := NewEngine()
	engine.SetState(state)
	engine.SetAccessMinter(minter)
	engine.SetDistributor(distributor)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return &testEnv{state: state, engine: engine, minter: minter, distributor: distributor}
}

func TestInitialize(t *testing.T) {
	env := newTestEnv()
	buyer := testAddress(0x11)
	creator := testAddress(0x10)
	content := testContent(0x20)

	record, err := env.engine.Initialize(buyer, creator, content, 500, "", 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	expected, bump, _ := pda.Purchase(buyer, content, 0)
	if record.Address != expected || record.Bump != bump {
		t.Fatalf("record address = %s/%d, want %s/%d", record.Address, record.Bump, expected, bump)
	}
	if record.Status != StatusInitialized {
		t.Fatalf("status = %s, want initialized", record.Status)
	}
	if record.PaymentAmount != 0 || !record.Credential.IsZero() {
		t.Fatal("settlement fields must start empty")
	}
}

func TestInitializeRejectsZeroPrice(t *testing.T) {
	env := newTestEnv()
	_, err := env.engine.Initialize(testAddress(0x11), testAddress(0x10), testContent(0x20), 0, "", 0)
	if !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("err = %v, want ErrInvalidPrice", err)
	}
}

func TestInitializeRejectsUnknownToken(t *testing.T) {
	env := newTestEnv()
	_, err := env.engine.Initialize(testAddress(0x11), testAddress(0x10), testContent(0x20), 500, "BOGUS", 0)
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("err = %v, want ErrUnknownToken", err)
	}
	if _, err := env.engine.Initialize(testAddress(0x11), testAddress(0x10), testContent(0x20), 500, "USDX", 0); err != nil {
		t.Fatalf("registered token must pass: %v", err)
	}
}

func TestInitializeRejectsDuplicate(t *testing.T) {
	env := newTestEnv()
	buyer := testAddress(0x11)
	content := testContent(0x20)
	if _, err := env.engine.Initialize(buyer, testAddress(0x10), content, 500, "", 0); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	if _, err := env.engine.Initialize(buyer, testAddress(0x10), content, 500, "", 0); !errors.Is(err, ErrDuplicatePurchase) {
		t.Fatalf("err = %v, want ErrDuplicatePurchase", err)
	}
	// A fresh disambiguator makes the tuple unique again.
	if _, err := env.engine.Initialize(buyer, testAddress(0x10), content, 500, "", 1); err != nil {
		t.Fatalf("fresh disambiguator: %v", err)
	}
}

func TestSettle(t *testing.T) {
	env := newTestEnv()
	buyer := testAddress(0x11)
	creator := testAddress(0x10)
	content := testContent(0x20)

	record, err := env.engine.Initialize(buyer, creator, content, 500, "", 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	env.state.credit(buyer, "", 500)

	settled, err := env.engine.Settle(record.Address, buyer, 500, testAddress(0xAA), testAddress(0xBB))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", settled.Status)
	}
	if settled.PaymentAmount != 500 {
		t.Fatalf("paymentAmount = %d, want 500", settled.PaymentAmount)
	}
	if settled.Credential != env.minter.credential {
		t.Fatalf("credential = %s, want %s", settled.Credential, env.minter.credential)
	}
	if env.minter.calls != 1 || env.distributor.calls != 1 {
		t.Fatalf("nested calls = %d/%d, want 1/1", env.minter.calls, env.distributor.calls)
	}
	if got := env.state.balance(buyer, ""); got != 0 {
		t.Fatalf("buyer balance = %d, want 0", got)
	}
	if got := env.state.balance(creator, ""); got != 500 {
		t.Fatalf("creator balance = %d, want 500", got)
	}
}

func TestSettleRejectsDoubleSettle(t *testing.T) {
	env := newTestEnv()
	buyer := testAddress(0x11)
	record, err := env.engine.Initialize(buyer, testAddress(0x10), testContent(0x20), 500, "", 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	env.state.credit(buyer, "", 1000)
	if _, err := env.engine.Settle(record.Address, buyer, 500, testAddress(0xAA), testAddress(0xBB)); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	if _, err := env.engine.Settle(record.Address, buyer, 500, testAddress(0xAA), testAddress(0xBB)); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestSettleRejectsWrongCaller(t *testing.T) {
	env := newTestEnv()
	buyer := testAddress(0x11)
	record, err := env.engine.Initialize(buyer, testAddress(0x10), testContent(0x20), 500, "", 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := env.engine.Settle(record.Address, testAddress(0x12), 500, testAddress(0xAA), testAddress(0xBB)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestSettleRejectsWrongAmount(t *testing.T) {
	env := newTestEnv()
	buyer := testAddress(0x11)
	record, err := env.engine.Initialize(buyer, testAddress(0x10), testContent(0x20), 500, "", 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	env.state.credit(buyer, "", 1000)
	if _, err := env.engine.Settle(record.Address, buyer, 499, testAddress(0xAA), testAddress(0xBB)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("underpay: err = %v, want ErrInvalidAmount", err)
	}
	if _, err := env.engine.Settle(record.Address, buyer, 501, testAddress(0xAA), testAddress(0xBB)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("overpay: err = %v, want ErrInvalidAmount", err)
	}
}

func TestSettleRejectsInsufficientFunds(t *testing.T) {
	env := newTestEnv()
	buyer := testAddress(0x11)
	record, err := env.engine.Initialize(buyer, testAddress(0x10), testContent(0x20), 500, "", 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	env.state.credit(buyer, "", 499)
	if _, err := env.engine.Settle(record.Address, buyer, 500, testAddress(0xAA), testAddress(0xBB)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestSettleSurfacesNestedFailures(t *testing.T) {
	env := newTestEnv()
	buyer := testAddress(0x11)
	record, err := env.engine.Initialize(buyer, testAddress(0x10), testContent(0x20), 500, "", 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	env.state.credit(buyer, "", 500)

	mintErr := errors.New("mint rejected")
	env.minter.err = mintErr
	if _, err := env.engine.Settle(record.Address, buyer, 500, testAddress(0xAA), testAddress(0xBB)); !errors.Is(err, mintErr) {
		t.Fatalf("err = %v, want wrapped mint error", err)
	}
	if env.distributor.calls != 0 {
		t.Fatal("distribution must not run after a failed mint")
	}

	// The mock state has no session rollback, so the failed attempt left
	// the payment in custody. Refund the buyer for the second scenario.
	env.state.credit(buyer, "", 500)

	env.minter.err = nil
	distErr := errors.New("split rejected")
	env.distributor.err = distErr
	if _, err := env.engine.Settle(record.Address, buyer, 500, testAddress(0xAA), testAddress(0xBB)); !errors.Is(err, distErr) {
		t.Fatalf("err = %v, want wrapped distribute error", err)
	}
	// The record is only rewritten after the whole chain succeeds.
	stored, _, _ := env.state.PurchaseGet(record.Address)
	if stored.Status != StatusInitialized {
		t.Fatalf("status = %s, want initialized after failed chain", stored.Status)
	}
}

func TestCancelRefundsCustody(t *testing.T) {
	env := newTestEnv()
	buyer := testAddress(0x11)
	record, err := env.engine.Initialize(buyer, testAddress(0x10), testContent(0x20), 500, "", 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	custody, _, _ := pda.Vault(record.Address)
	env.state.credit(custody, "", 300)

	if err := env.engine.Cancel(record.Address, buyer); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := env.state.balance(buyer, ""); got != 300 {
		t.Fatalf("buyer refund = %d, want 300", got)
	}
	if _, ok, _ := env.state.PurchaseGet(record.Address); ok {
		t.Fatal("record must be removed on cancel")
	}
}

func TestCancelRejectsNonBuyer(t *testing.T) {
	env := newTestEnv()
	buyer := testAddress(0x11)
	record, err := env.engine.Initialize(buyer, testAddress(0x10), testContent(0x20), 500, "", 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := env.engine.Cancel(record.Address, testAddress(0x12)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestCancelRejectsCompletedPurchase(t *testing.T) {
	env := newTestEnv()
	buyer := testAddress(0x11)
	record, err := env.engine.Initialize(buyer, testAddress(0x10), testContent(0x20), 500, "", 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	env.state.credit(buyer, "", 500)
	if _, err := env.engine.Settle(record.Address, buyer, 500, testAddress(0xAA), testAddress(0xBB)); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if err := env.engine.Cancel(record.Address, buyer); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestCancelUnknownPurchase(t *testing.T) {
	env := newTestEnv()
	if err := env.engine.Cancel(testAddress(0x50), testAddress(0x11)); !errors.Is(err, ErrPurchaseNotFound) {
		t.Fatalf("err = %v, want ErrPurchaseNotFound", err)
	}
}
