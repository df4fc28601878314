// Package rpc is a minimal JSON-RPC 2.0 client for the Soroban RPC endpoint.
// It covers the five calls the relay needs: account lookup, simulation,
// submission, status polling and server health/version introspection.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	version "github.com/hashicorp/go-version"
	"github.com/stellar/go/support/errors"
	"github.com/stellar/go/xdr"
)

// ErrAccountNotFound reports that the queried account does not exist on the
// ledger. Distinct from transport failures; the account usually just needs
// funding.
var ErrAccountNotFound = errors.New("account not found on ledger")

// TransportError is any network or protocol level failure talking to the RPC
// endpoint, as opposed to an application-level rejection.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("soroban rpc %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Account is a point-in-time ledger account snapshot. Never cached: fetch a
// fresh one per transaction so the sequence number is current.
type Account struct {
	ID       string
	Sequence int64
}

// Client talks to a single Soroban RPC endpoint.
type Client struct {
	url    string
	http   *http.Client
	nextID atomic.Uint64
}

// NewClient returns a client for the given endpoint URL. Pass nil to use a
// default HTTP client with a 30s timeout.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{url: url, http: httpClient}
}

func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	body, err := json.Marshal(request{
		Version: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{Method: method, Err: errors.Errorf("unexpected HTTP status %d", resp.StatusCode)}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	var envelope response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &TransportError{Method: method, Err: errors.Wrap(err, "decoding response")}
	}
	if envelope.Error != nil {
		return &TransportError{Method: method, Err: errors.Errorf("rpc error %d: %s", envelope.Error.Code, envelope.Error.Message)}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return &TransportError{Method: method, Err: errors.Wrap(err, "decoding result")}
	}
	return nil
}

// GetAccount resolves the current ledger state of accountID. Returns
// ErrAccountNotFound when the account does not exist; every other failure is
// a *TransportError.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	accID := xdr.AccountId{}
	if err := accID.SetAddress(accountID); err != nil {
		return nil, errors.Wrapf(err, "invalid account id %q", accountID)
	}
	key := xdr.LedgerKey{
		Type:    xdr.LedgerEntryTypeAccount,
		Account: &xdr.LedgerKeyAccount{AccountId: accID},
	}
	keyB64, err := xdr.MarshalBase64(key)
	if err != nil {
		return nil, errors.Wrap(err, "encoding account ledger key")
	}

	var result getLedgerEntriesResult
	if err := c.call(ctx, "getLedgerEntries", getLedgerEntriesParams{Keys: []string{keyB64}}, &result); err != nil {
		return nil, err
	}
	if len(result.Entries) == 0 {
		return nil, ErrAccountNotFound
	}

	var data xdr.LedgerEntryData
	if err := xdr.SafeUnmarshalBase64(result.Entries[0].XDR, &data); err != nil {
		return nil, &TransportError{Method: "getLedgerEntries", Err: errors.Wrap(err, "decoding account entry")}
	}
	entry, ok := data.GetAccount()
	if !ok {
		return nil, &TransportError{Method: "getLedgerEntries", Err: errors.New("ledger entry is not an account")}
	}
	return &Account{ID: accountID, Sequence: int64(entry.SeqNum)}, nil
}

// SimulateTransaction runs the envelope through the remote simulation
// facility. A non-empty Error field in the result is an application-level
// rejection which callers must surface verbatim; the transport error return
// here covers only wire failures.
func (c *Client) SimulateTransaction(ctx context.Context, envelopeB64 string) (*SimulateResult, error) {
	var result SimulateResult
	if err := c.call(ctx, "simulateTransaction", transactionParams{Transaction: envelopeB64}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendTransaction submits a signed envelope and returns the immediate
// acknowledgment. It is called exactly once per submission.
func (c *Client) SendTransaction(ctx context.Context, envelopeB64 string) (*SendResult, error) {
	var result SendResult
	if err := c.call(ctx, "sendTransaction", transactionParams{Transaction: envelopeB64}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTransaction fetches the current status of a submitted transaction.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*GetTransactionResult, error) {
	var result GetTransactionResult
	if err := c.call(ctx, "getTransaction", hashParams{Hash: hash}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetHealth reports the RPC server's own health.
func (c *Client) GetHealth(ctx context.Context) (*Health, error) {
	var result Health
	if err := c.call(ctx, "getHealth", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetVersionInfo reports the RPC server build version.
func (c *Client) GetVersionInfo(ctx context.Context) (*VersionInfo, error) {
	var result VersionInfo
	if err := c.call(ctx, "getVersionInfo", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckMinVersion verifies the server is at least minVersion. A parse failure
// on the reported version string is returned as-is so callers can decide to
// warn rather than abort.
func (c *Client) CheckMinVersion(ctx context.Context, minVersion string) error {
	info, err := c.GetVersionInfo(ctx)
	if err != nil {
		return err
	}
	min, err := version.NewVersion(minVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid minimum version %q", minVersion)
	}
	got, err := version.NewVersion(info.Version)
	if err != nil {
		return errors.Wrapf(err, "unparseable server version %q", info.Version)
	}
	if got.LessThan(min) {
		return errors.Errorf("soroban rpc server %s is older than minimum supported %s", info.Version, minVersion)
	}
	return nil
}
