package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/rokso/pf-auctions/core"
	"github.com/rokso/pf-auctions/storage"
)

const (
	sellerHex   = "0x1111111111111111111111111111111111111111"
	buyerHex    = "0x2222222222222222222222222222222222222222"
	outsiderHex = "0x3333333333333333333333333333333333333333"
	lotAssetHex = "0x00000000000000000000000000000000000000a1"
	payAssetHex = "0x00000000000000000000000000000000000000b1"
)

type testEnv struct {
	server *httptest.Server
	node   *core.Node
	token  string
	height uint64
	nextID int
}

func newTestEnv(t *testing.T, authToken string) *testEnv {
	t.Helper()
	env := &testEnv{token: authToken, height: 100}
	node, err := core.NewNode(storage.NewMemDB(), "testnet", func() uint64 { return env.height })
	require.NoError(t, err)
	env.node = node
	env.server = httptest.NewServer(NewServer(node, authToken, nil).Router())
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) call(t *testing.T, method string, params interface{}, auth bool) (*RPCResponse, int) {
	t.Helper()
	e.nextID++
	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      e.nextID,
		"method":  method,
	}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, err := http.NewRequest(http.MethodPost, e.server.URL+"/", bytes.NewReader(body))
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")
	if auth && e.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := &RPCResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return out, resp.StatusCode
}

func (e *testEnv) mustCall(t *testing.T, method string, params interface{}) json.RawMessage {
	t.Helper()
	resp, status := e.call(t, method, params, true)
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error, "method %s: %+v", method, resp.Error)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	return raw
}

// seedMarket registers the lot and payment assets, funds the seller and buyer,
// and approves the engine custodian to pull from both.
func (e *testEnv) seedMarket(t *testing.T) {
	t.Helper()
	custodian := common.Address(core.CustodianAddress("testnet")).Hex()
	for _, asset := range []string{lotAssetHex, payAssetHex} {
		e.mustCall(t, "token_register", map[string]interface{}{
			"caller": sellerHex, "asset": asset, "symbol": "TST", "decimals": 18,
		})
	}
	e.mustCall(t, "token_mint", map[string]interface{}{
		"caller": sellerHex, "asset": lotAssetHex, "to": sellerHex, "amount": "1000",
	})
	e.mustCall(t, "token_mint", map[string]interface{}{
		"caller": buyerHex, "asset": payAssetHex, "to": buyerHex, "amount": "1000",
	})
	e.mustCall(t, "token_approve", map[string]interface{}{
		"asset": lotAssetHex, "holder": sellerHex, "spender": custodian, "amount": "1000",
	})
	e.mustCall(t, "token_approve", map[string]interface{}{
		"asset": payAssetHex, "holder": buyerHex, "spender": custodian, "amount": "1000",
	})
}

func (e *testEnv) createParams() map[string]interface{} {
	return map[string]interface{}{
		"creator":      sellerHex,
		"ceiling":      "20",
		"floor":        "10",
		"paymentAsset": payAssetHex,
		"payee":        sellerHex,
		"endMarker":    e.height + 10,
		"lots":         []map[string]string{{"asset": lotAssetHex, "amount": "50"}},
	}
}

func TestAuctionLifecycleOverRPC(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedMarket(t)

	var created idResult
	require.NoError(t, json.Unmarshal(env.mustCall(t, "auction_create", env.createParams()), &created))
	require.Equal(t, uint64(1), created.ID)

	var price priceResult
	require.NoError(t, json.Unmarshal(env.mustCall(t, "auction_getCurrentPrice", auctionIDParams{ID: created.ID}), &price))
	require.Equal(t, "20", price.Price)

	env.height += 5
	require.NoError(t, json.Unmarshal(env.mustCall(t, "auction_getCurrentPrice", auctionIDParams{ID: created.ID}), &price))
	require.Equal(t, "15", price.Price)

	require.NoError(t, json.Unmarshal(env.mustCall(t, "auction_bid", map[string]interface{}{
		"id": created.ID, "bidder": buyerHex,
	}), &price))
	require.Equal(t, "15", price.Price)

	var record auctionJSON
	require.NoError(t, json.Unmarshal(env.mustCall(t, "auction_get", auctionIDParams{ID: created.ID}), &record))
	require.Equal(t, "won", record.Status)
	require.NotNil(t, record.Winner)
	require.Equal(t, common.HexToAddress(buyerHex).Hex(), *record.Winner)
	require.NotNil(t, record.WinningPrice)
	require.Equal(t, "15", *record.WinningPrice)
	require.Len(t, record.Lots, 1)
	require.Equal(t, "50", record.Lots[0].Amount)

	var balance balanceResult
	require.NoError(t, json.Unmarshal(env.mustCall(t, "token_balanceOf", tokenBalanceParams{
		Asset: lotAssetHex, Holder: buyerHex,
	}), &balance))
	require.Equal(t, "50", balance.Balance)

	var count countResult
	require.NoError(t, json.Unmarshal(env.mustCall(t, "auction_totalAuctions", nil), &count))
	require.Equal(t, uint64(1), count.Count)
}

func TestStopOverRPC(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedMarket(t)

	var created idResult
	require.NoError(t, json.Unmarshal(env.mustCall(t, "auction_create", env.createParams()), &created))

	resp, status := env.call(t, "auction_stop", map[string]interface{}{
		"id": created.ID, "caller": outsiderHex,
	}, false)
	require.Equal(t, http.StatusForbidden, status)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeAuctionForbidden, resp.Error.Code)

	env.mustCall(t, "auction_stop", map[string]interface{}{"id": created.ID, "caller": sellerHex})

	resp, status = env.call(t, "auction_bid", map[string]interface{}{
		"id": created.ID, "bidder": buyerHex,
	}, false)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, codeAuctionConflict, resp.Error.Code)
}

func TestCollectionsOverRPC(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedMarket(t)

	var col idResult
	require.NoError(t, json.Unmarshal(env.mustCall(t, "auction_createCollection", collectionCreateParams{Owner: sellerHex}), &col))

	params := env.createParams()
	params["collectionId"] = col.ID
	var created idResult
	require.NoError(t, json.Unmarshal(env.mustCall(t, "auction_create", params), &created))

	var length lengthResult
	require.NoError(t, json.Unmarshal(env.mustCall(t, "auction_collectionLength", auctionIDParams{ID: col.ID}), &length))
	require.Equal(t, uint64(1), length.Length)

	var member idResult
	require.NoError(t, json.Unmarshal(env.mustCall(t, "auction_auctionOfCollByIndex", collectionIndexParams{ID: col.ID, Index: 0}), &member))
	require.Equal(t, created.ID, member.ID)

	resp, status := env.call(t, "auction_auctionOfCollByIndex", collectionIndexParams{ID: col.ID, Index: 1}, false)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeAuctionInvalidParams, resp.Error.Code)

	env.mustCall(t, "auction_transferCollection", map[string]interface{}{
		"id": col.ID, "caller": sellerHex, "newOwner": buyerHex,
	})
	resp, status = env.call(t, "auction_create", params, false)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, codeAuctionForbidden, resp.Error.Code)

	require.NoError(t, json.Unmarshal(env.mustCall(t, "auction_neerGroupLength", auctioneerParams{Auctioneer: sellerHex}), &length))
	require.Equal(t, uint64(1), length.Length)
}

func TestAuthGatesMutatingMethods(t *testing.T) {
	env := newTestEnv(t, "secret-token")

	resp, status := env.call(t, "auction_createCollection", collectionCreateParams{Owner: sellerHex}, false)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	// Reads stay open.
	resp, status = env.call(t, "auction_totalAuctions", nil, false)
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)

	resp, status = env.call(t, "auction_createCollection", collectionCreateParams{Owner: sellerHex}, true)
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)
}

func TestWrongBearerToken(t *testing.T) {
	env := newTestEnv(t, "secret-token")

	body := `{"jsonrpc":"2.0","id":1,"method":"auction_createCollection","params":[{"owner":"` + sellerHex + `"}]}`
	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMalformedRequests(t *testing.T) {
	env := newTestEnv(t, "")

	post := func(body string) (*RPCResponse, int) {
		resp, err := http.Post(env.server.URL+"/", "application/json", bytes.NewReader([]byte(body)))
		require.NoError(t, err)
		defer resp.Body.Close()
		out := &RPCResponse{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
		return out, resp.StatusCode
	}

	resp, status := post("")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)

	resp, status = post("{not json")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeParseError, resp.Error.Code)

	resp, status = post(`{"jsonrpc":"1.0","id":1,"method":"auction_totalAuctions"}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)

	resp, status = post(`{"jsonrpc":"2.0","id":1}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)

	resp, status = post(`{"jsonrpc":"2.0","id":1,"method":"no_such_method"}`)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	resp, status = post(`{"jsonrpc":"2.0","id":1,"method":"auction_get","params":[]}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	resp, status = post(`{"jsonrpc":"2.0","id":1,"method":"auction_get","params":[{"id":42}]}`)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeAuctionNotFound, resp.Error.Code)
}

func TestInvalidAddressRejected(t *testing.T) {
	env := newTestEnv(t, "")
	resp, status := env.call(t, "auction_createCollection", collectionCreateParams{Owner: "not-an-address"}, false)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeAuctionInvalidParams, resp.Error.Code)
}

func TestListEventsOverRPC(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedMarket(t)

	var created idResult
	require.NoError(t, json.Unmarshal(env.mustCall(t, "auction_create", env.createParams()), &created))
	env.mustCall(t, "auction_stop", map[string]interface{}{"id": created.ID, "caller": sellerHex})

	raw := env.mustCall(t, "auction_listEvents", nil)
	var listed []struct {
		Type       string            `json:"type"`
		Attributes map[string]string `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal(raw, &listed))
	require.Len(t, listed, 2)
	require.Equal(t, "auction.created", listed[0].Type)
	require.Equal(t, "auction.stopped", listed[1].Type)
	require.Equal(t, fmt.Sprintf("%d", created.ID), listed[0].Attributes["id"])
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, "")
	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCounterHeight(t *testing.T) {
	env := newTestEnv(t, "")
	var height heightResult
	require.NoError(t, json.Unmarshal(env.mustCall(t, "counter_height", nil), &height))
	require.Equal(t, env.height, height.Height)
}
