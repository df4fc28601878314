package rpc

import "encoding/json"

// request is a JSON-RPC 2.0 request body.
// https://www.jsonrpc.org/specification#request_object
type request struct {
	Version string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// response is a JSON-RPC 2.0 response body.
type response struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *protocolError  `json:"error,omitempty"`
}

// protocolError is the error object inside a JSON-RPC error response.
type protocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type getLedgerEntriesParams struct {
	Keys []string `json:"keys"`
}

type getLedgerEntriesResult struct {
	Entries      []ledgerEntry `json:"entries"`
	LatestLedger uint32        `json:"latestLedger"`
}

type ledgerEntry struct {
	Key                   string `json:"key"`
	XDR                   string `json:"xdr"`
	LastModifiedLedgerSeq uint32 `json:"lastModifiedLedgerSeq"`
}

type transactionParams struct {
	Transaction string `json:"transaction"`
}

type hashParams struct {
	Hash string `json:"hash"`
}

// SimulateResult is the simulation facility's reply: the resource footprint,
// the minimum resource fee, per-invocation auth and return values, or an
// application-level error.
type SimulateResult struct {
	TransactionData string               `json:"transactionData"`
	MinResourceFee  int64                `json:"minResourceFee,string"`
	Results         []SimulateInvocation `json:"results"`
	Error           string               `json:"error"`
	LatestLedger    uint32               `json:"latestLedger"`
}

// SimulateInvocation holds the simulated outcome of a single host function
// invocation: its base64 XDR return value and required auth entries.
type SimulateInvocation struct {
	Auth []string `json:"auth"`
	XDR  string   `json:"xdr"`
}

// SendResult is the immediate acknowledgment of a transaction submission.
type SendResult struct {
	Hash                  string   `json:"hash"`
	Status                string   `json:"status"`
	ErrorResultXDR        string   `json:"errorResultXdr"`
	DiagnosticEventsXDR   []string `json:"diagnosticEventsXdr"`
	LatestLedger          uint32   `json:"latestLedger"`
	LatestLedgerCloseTime int64    `json:"latestLedgerCloseTime,string"`
}

// GetTransactionResult is one poll of a submitted transaction's status.
type GetTransactionResult struct {
	Status        string `json:"status"`
	EnvelopeXDR   string `json:"envelopeXdr"`
	ResultXDR     string `json:"resultXdr"`
	ResultMetaXDR string `json:"resultMetaXdr"`
	Ledger        uint32 `json:"ledger"`
	CreatedAt     int64  `json:"createdAt,string"`
}

// Health is the RPC server's own health report.
type Health struct {
	Status                string `json:"status"`
	LatestLedger          uint32 `json:"latestLedger"`
	OldestLedger          uint32 `json:"oldestLedger"`
	LedgerRetentionWindow uint32 `json:"ledgerRetentionWindow"`
}

// VersionInfo identifies the RPC server build.
type VersionInfo struct {
	Version         string `json:"version"`
	ProtocolVersion int    `json:"protocolVersion"`
}

// Transaction status values shared by sendTransaction and getTransaction.
const (
	StatusPending       = "PENDING"
	StatusNotFound      = "NOT_FOUND"
	StatusSuccess       = "SUCCESS"
	StatusFailed        = "FAILED"
	StatusError         = "ERROR"
	StatusDuplicate     = "DUPLICATE"
	StatusTryAgainLater = "TRY_AGAIN_LATER"
)
