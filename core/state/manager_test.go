package state

import (
	"errors"
	"math/big"
	"testing"

	"paymint/core/types"
	"paymint/crypto/pda"
	"paymint/native/accessmint"
	"paymint/native/distribution"
	"paymint/native/escrow"
	"paymint/storage"
)

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

func TestAccountRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	addr := testAddress(0x01)

	account, err := manager.GetAccount(addr)
	if err != nil {
		t.Fatalf("get fresh account: %v", err)
	}
	if account.Balance.Sign() != 0 || account.Nonce != 0 {
		t.Fatal("fresh account must be zero valued")
	}

	account.Nonce = 3
	account.Balance = big.NewInt(1234)
	if err := manager.PutAccount(addr, account); err != nil {
		t.Fatalf("put account: %v", err)
	}
	loaded, err := manager.GetAccount(addr)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if loaded.Nonce != 3 || loaded.Balance.Cmp(big.NewInt(1234)) != 0 {
		t.Fatalf("loaded account = %+v", loaded)
	}
}

func TestOverlayCommitSemantics(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	addr := testAddress(0x02)

	if err := manager.Credit(addr, "", big.NewInt(100)); err != nil {
		t.Fatalf("credit: %v", err)
	}

	// A pending write is invisible to a fresh manager over the same db
	// until committed.
	other := NewManager(db)
	balance, err := other.Balance(addr, "")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Sign() != 0 {
		t.Fatalf("uncommitted write leaked: %s", balance)
	}

	if err := manager.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	balance, err = other.Balance(addr, "")
	if err != nil {
		t.Fatalf("balance after commit: %v", err)
	}
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance = %s, want 100", balance)
	}
}

func TestCopyIsolatesSessions(t *testing.T) {
	db := storage.NewMemDB()
	base := NewManager(db)
	addr := testAddress(0x03)
	if err := base.Credit(addr, "", big.NewInt(50)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := base.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	session := base.Copy()
	if err := session.Credit(addr, "", big.NewInt(25)); err != nil {
		t.Fatalf("session credit: %v", err)
	}
	sessionBalance, _ := session.Balance(addr, "")
	if sessionBalance.Cmp(big.NewInt(75)) != 0 {
		t.Fatalf("session balance = %s, want 75", sessionBalance)
	}

	// Dropping the session leaves the base untouched.
	baseBalance, _ := base.Balance(addr, "")
	if baseBalance.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("base balance = %s, want 50", baseBalance)
	}
}

func TestTransferNative(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	from := testAddress(0x04)
	to := testAddress(0x05)
	if err := manager.Credit(from, "", big.NewInt(100)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := manager.Transfer(from, to, "", 60); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	fromBal, _ := manager.Balance(from, "")
	toBal, _ := manager.Balance(to, "")
	if fromBal.Cmp(big.NewInt(40)) != 0 || toBal.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("balances = %s/%s, want 40/60", fromBal, toBal)
	}
	if err := manager.Transfer(from, to, "", 41); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestTransferSelfLeavesBalanceUnchanged(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	addr := testAddress(0x0A)
	if err := manager.Credit(addr, "", big.NewInt(100)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := manager.Transfer(addr, addr, "", 40); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	bal, _ := manager.Balance(addr, "")
	if bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance = %s after self transfer, want 100", bal)
	}
	if err := manager.Transfer(addr, addr, "", 101); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	if err := manager.RegisterToken("USDX", "Test Dollar", 6); err != nil {
		t.Fatalf("register token: %v", err)
	}
	if err := manager.Credit(addr, "USDX", big.NewInt(100)); err != nil {
		t.Fatalf("credit token: %v", err)
	}
	if err := manager.Transfer(addr, addr, "USDX", 40); err != nil {
		t.Fatalf("self transfer token: %v", err)
	}
	tokenBal, _ := manager.Balance(addr, "USDX")
	if tokenBal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("token balance = %s after self transfer, want 100", tokenBal)
	}
}

func TestTransferToken(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	from := testAddress(0x06)
	to := testAddress(0x07)

	if err := manager.Transfer(from, to, "USDX", 10); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("err = %v, want ErrUnknownToken before registration", err)
	}
	if err := manager.RegisterToken("USDX", "Test Dollar", 6); err != nil {
		t.Fatalf("register token: %v", err)
	}
	if !manager.TokenExists("USDX") {
		t.Fatal("token must exist after registration")
	}
	if err := manager.Credit(from, "USDX", big.NewInt(500)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := manager.Transfer(from, to, "USDX", 200); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	toBal, _ := manager.Balance(to, "USDX")
	if toBal.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("balance = %s, want 200", toBal)
	}
}

func TestPurchaseRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	buyer := testAddress(0x08)
	content := testContent(0x09)
	addr, bump, err := pda.Purchase(buyer, content, 2)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	record := &escrow.PurchaseRecord{
		Address:       addr,
		Buyer:         buyer,
		Creator:       testAddress(0x0A),
		ContentID:     content,
		Price:         1000,
		PaymentToken:  "USDX",
		CreatedAt:     1_700_000_000,
		Disambiguator: 2,
		Status:        escrow.StatusInitialized,
		Bump:          bump,
	}
	if err := manager.PurchasePut(record); err != nil {
		t.Fatalf("put: %v", err)
	}
	loaded, ok, err := manager.PurchaseGet(addr)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if loaded.Buyer != buyer || loaded.Price != 1000 || loaded.Status != escrow.StatusInitialized {
		t.Fatalf("loaded = %+v", loaded)
	}
	if loaded.PaymentToken != "USDX" || loaded.Bump != bump {
		t.Fatalf("loaded = %+v", loaded)
	}
	if err := manager.PurchaseDelete(addr); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := manager.PurchaseGet(addr); ok {
		t.Fatal("record must be gone after delete")
	}
}

func TestSplitRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	creator := testAddress(0x0B)
	content := testContent(0x0C)
	addr, bump, _ := pda.Split(creator, content, 0)
	cfg := &distribution.SplitConfig{
		Address:          addr,
		Creator:          creator,
		PlatformTreasury: testAddress(0x0D),
		PlatformFeeBps:   250,
		Collaborators: []distribution.Collaborator{
			{Account: testAddress(0x0E), ShareBps: 500},
		},
		ContentID: content,
		CreatedAt: 1_700_000_000,
		Bump:      bump,
	}
	if err := manager.SplitPut(cfg); err != nil {
		t.Fatalf("put: %v", err)
	}
	loaded, ok, err := manager.SplitGet(addr)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if loaded.PlatformFeeBps != 250 || len(loaded.Collaborators) != 1 {
		t.Fatalf("loaded = %+v", loaded)
	}
	if loaded.Collaborators[0].ShareBps != 500 {
		t.Fatalf("collaborator = %+v", loaded.Collaborators[0])
	}
}

func TestSplitPutRejectsInvalidConfig(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	cfg := &distribution.SplitConfig{
		Address:          testAddress(0x0F),
		Creator:          testAddress(0x10),
		PlatformTreasury: testAddress(0x11),
		PlatformFeeBps:   2000,
	}
	if err := manager.SplitPut(cfg); !errors.Is(err, distribution.ErrInvalidPlatformFee) {
		t.Fatalf("err = %v, want ErrInvalidPlatformFee", err)
	}
}

func TestMintStateRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	creator := testAddress(0x12)
	content := testContent(0x13)
	addr, bump, _ := pda.MintState(creator, content, 0)
	authority, authorityBump, _ := pda.MintAuthority(creator, content, 0)
	credential, _, _ := pda.Credential(creator, content, 0)
	state := &accessmint.AccessMintState{
		Address:         addr,
		Creator:         creator,
		ContentID:       content,
		CredentialAsset: credential,
		MintAuthority:   authority,
		TotalMinted:     4,
		CreatedAt:       1_700_000_000,
		Bump:            bump,
		AuthorityBump:   authorityBump,
	}
	if err := manager.MintStatePut(state); err != nil {
		t.Fatalf("put: %v", err)
	}
	loaded, ok, err := manager.MintStateGet(addr)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if loaded.TotalMinted != 4 || loaded.MintAuthority != authority {
		t.Fatalf("loaded = %+v", loaded)
	}
}

func TestCredentialBalances(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	asset := testAddress(0x14)
	holder := testAddress(0x15)

	balance, err := manager.CredentialBalance(asset, holder)
	if err != nil {
		t.Fatalf("fresh balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance = %d, want 0", balance)
	}
	if err := manager.SetCredentialBalance(asset, holder, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	balance, _ = manager.CredentialBalance(asset, holder)
	if balance != 1 {
		t.Fatalf("balance = %d, want 1", balance)
	}
	// A different holder of the same asset stays independent.
	otherBalance, _ := manager.CredentialBalance(asset, testAddress(0x16))
	if otherBalance != 0 {
		t.Fatalf("other holder balance = %d, want 0", otherBalance)
	}
}
