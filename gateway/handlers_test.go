package gateway

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"paymint/core"
	"paymint/core/types"
	"paymint/crypto/pda"
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

func newTestGateway(t *testing.T) (http.Handler, *core.Node) {
	t.Helper()
	node := core.NewNode(storage.NewMemDB())
	server := NewServer(node, nil, Config{ServiceName: "gateway-test"})
	return server.Handler(Config{}), node
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestGateway(t)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "ok", recorder.Body.String())
}

func TestCreateAndFetchIntent(t *testing.T) {
	handler, _ := newTestGateway(t)
	buyer := testAddress(0x11)
	creator := testAddress(0x10)
	content := testContent(0x20)

	body, err := json.Marshal(createIntentRequest{
		Buyer:     buyer.Hex(),
		Creator:   creator.Hex(),
		ContentID: types.ContentIDHex(content),
		Price:     1000,
	})
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/intents/", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, recorder.Code)

	var intent PurchaseIntent
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &intent))
	require.NotEmpty(t, intent.ID)
	require.Contains(t, intent.Memo, intent.ID)

	purchaseAddr, _, err := pda.Purchase(buyer, content, 0)
	require.NoError(t, err)
	require.Equal(t, purchaseAddr.Hex(), intent.PurchaseAddress)
	vaultAddr, _, err := pda.Vault(purchaseAddr)
	require.NoError(t, err)
	require.Equal(t, vaultAddr.Hex(), intent.VaultAddress)

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/intents/"+intent.ID, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	var fetched PurchaseIntent
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &fetched))
	require.Equal(t, intent.ID, fetched.ID)

	// The request id header is stamped on every response.
	require.NotEmpty(t, recorder.Header().Get("X-Request-Id"))
}

func TestGetPurchaseReceipt(t *testing.T) {
	handler, node := newTestGateway(t)
	buyer := testAddress(0x11)
	creator := testAddress(0x10)
	content := testContent(0x20)

	record, err := node.InitializePurchase(buyer, creator, content, 500, "", 0)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/purchases/"+record.Address.Hex(), nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var receipt purchaseReceipt
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &receipt))
	require.Equal(t, "initialized", receipt.Status)
	require.Equal(t, uint64(500), receipt.Price)
	require.Empty(t, receipt.Credential)
}

func TestGetPurchaseNotFound(t *testing.T) {
	handler, _ := newTestGateway(t)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/purchases/"+testAddress(0x55).Hex(), nil))
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestSplitPreviewEndpoint(t *testing.T) {
	handler, node := newTestGateway(t)
	creator := testAddress(0x10)
	content := testContent(0x20)
	cfg, err := node.InitializeSplit(creator, content, testAddress(0x30), 250, nil, 0)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/splits/"+cfg.Address.Hex()+"/preview?amount=1000000000", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var preview previewView
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &preview))
	require.Equal(t, uint64(25_000_000), preview.Platform)
	require.Equal(t, uint64(975_000_000), preview.Creator)
}

func TestSplitPreviewRequiresAmount(t *testing.T) {
	handler, node := newTestGateway(t)
	cfg, err := node.InitializeSplit(testAddress(0x10), testContent(0x20), testAddress(0x30), 0, nil, 0)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/splits/"+cfg.Address.Hex()+"/preview", nil))
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCredentialEndpointReportsAccess(t *testing.T) {
	handler, node := newTestGateway(t)
	creator := testAddress(0x10)
	buyer := testAddress(0x11)
	content := testContent(0x20)

	mintState, err := node.InitializeMint(creator, content, 0)
	require.NoError(t, err)
	_, err = node.MintAccess(mintState.Address, creator, content, buyer, buyer)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet,
		"/v1/credentials/"+mintState.CredentialAsset.Hex()+"/"+buyer.Hex(), nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var result struct {
		Balance uint64 `json:"balance"`
		Granted bool   `json:"granted"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	require.Equal(t, uint64(1), result.Balance)
	require.True(t, result.Granted)
}

func TestBalanceEndpoint(t *testing.T) {
	handler, node := newTestGateway(t)
	account := testAddress(0x11)
	require.NoError(t, node.Credit(account, "", big.NewInt(777)))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/balances/"+account.Hex(), nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var result struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	require.Equal(t, "777", result.Balance)
}
