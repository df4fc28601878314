package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcStub answers each JSON-RPC method with a canned result object.
func rpcStub(t *testing.T, results map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		result, ok := results[req.Method]
		if !ok {
			http.Error(w, "unexpected method "+req.Method, http.StatusBadRequest)
			return
		}
		raw, err := json.Marshal(result)
		require.NoError(t, err)
		resp := response{Version: "2.0", ID: json.RawMessage(fmt.Sprintf("%d", req.ID)), Result: raw}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func accountEntryB64(t *testing.T, address string, seq int64) string {
	t.Helper()
	accID := xdr.MustAddress(address)
	data := xdr.LedgerEntryData{
		Type: xdr.LedgerEntryTypeAccount,
		Account: &xdr.AccountEntry{
			AccountId: accID,
			SeqNum:    xdr.SequenceNumber(seq),
		},
	}
	b64, err := xdr.MarshalBase64(data)
	require.NoError(t, err)
	return b64
}

func TestGetAccount(t *testing.T) {
	kp := keypair.MustRandom()
	srv := rpcStub(t, map[string]interface{}{
		"getLedgerEntries": getLedgerEntriesResult{
			Entries: []ledgerEntry{{XDR: accountEntryB64(t, kp.Address(), 123456)}},
		},
	})
	defer srv.Close()

	acc, err := NewClient(srv.URL, nil).GetAccount(context.Background(), kp.Address())
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), acc.ID)
	assert.Equal(t, int64(123456), acc.Sequence)
}

func TestGetAccountNotFound(t *testing.T) {
	srv := rpcStub(t, map[string]interface{}{
		"getLedgerEntries": getLedgerEntriesResult{Entries: nil},
	})
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).GetAccount(context.Background(), keypair.MustRandom().Address())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGetAccountTransportErrorIsNotNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).GetAccount(context.Background(), keypair.MustRandom().Address())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccountNotFound)
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

func TestSimulateTransactionParsesFee(t *testing.T) {
	srv := rpcStub(t, map[string]interface{}{
		"simulateTransaction": map[string]interface{}{
			"transactionData": "AAAA",
			"minResourceFee":  "52641",
			"results":         []map[string]interface{}{{"xdr": "AAAAAQ==", "auth": []string{}}},
			"latestLedger":    100,
		},
	})
	defer srv.Close()

	res, err := NewClient(srv.URL, nil).SimulateTransaction(context.Background(), "ENVELOPE")
	require.NoError(t, err)
	assert.Equal(t, int64(52641), res.MinResourceFee)
	assert.Empty(t, res.Error)
	require.Len(t, res.Results, 1)
}

func TestSendTransaction(t *testing.T) {
	srv := rpcStub(t, map[string]interface{}{
		"sendTransaction": map[string]interface{}{"hash": "deadbeef", "status": StatusPending},
	})
	defer srv.Close()

	res, err := NewClient(srv.URL, nil).SendTransaction(context.Background(), "ENVELOPE")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", res.Hash)
	assert.Equal(t, StatusPending, res.Status)
}

func TestCallSurfacesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := response{Version: "2.0", Error: &protocolError{Code: -32600, Message: "invalid request"}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).GetTransaction(context.Background(), "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request")
}

func TestCheckMinVersion(t *testing.T) {
	srv := rpcStub(t, map[string]interface{}{
		"getVersionInfo": VersionInfo{Version: "21.5.1", ProtocolVersion: 21},
	})
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	assert.NoError(t, c.CheckMinVersion(context.Background(), "21.0.0"))
	assert.Error(t, c.CheckMinVersion(context.Background(), "22.0.0"))
}
