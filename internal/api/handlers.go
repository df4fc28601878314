package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dotandev/vaultrelay/internal/config"
	"github.com/dotandev/vaultrelay/internal/contract"
	"github.com/dotandev/vaultrelay/internal/rpc"
	"github.com/dotandev/vaultrelay/internal/tx"
)

// flexString decodes from either a JSON string or a bare JSON number, since
// wallet frontends have sent amounts both ways.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type prepareTransferRequest struct {
	Amount      flexString `json:"amount"`
	UserAddress string     `json:"user_address"`
}

type createVaultRequest struct {
	VaultName               string  `json:"vault_name"`
	VaultSymbol             string  `json:"vault_symbol"`
	ManagerAddress          string  `json:"manager_address"`
	EmergencyManagerAddress string  `json:"emergency_manager_address"`
	FeeReceiverAddress      string  `json:"fee_receiver_address"`
	FeePercentage           float64 `json:"fee_percentage"`
	AssetID                 string  `json:"asset_id"`
	UserAddress             string  `json:"user_address"`
}

type submitRequest struct {
	SignedXDR string `json:"signed_xdr"`
}

type prepareResponse struct {
	UnsignedXDR string `json:"unsigned_xdr"`
}

type submitResponse struct {
	TransactionHash    string `json:"transaction_hash"`
	Status             string `json:"status"`
	ContractID         string `json:"contract_id,omitempty"`
	ContractIDDetected bool   `json:"contract_id_detected"`
}

type yieldResponse struct {
	CurrentYield   string `json:"current_yield"`
	TotalDeposited string `json:"total_deposited"`
}

type activeVaultBody struct {
	ContractID string `json:"contract_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, s.relay.PrepareDeposit)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handleTransfer(w, r, s.relay.PrepareWithdraw)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request,
	prepare func(ctx context.Context, amount, userAddress string) (string, error)) {
	var req prepareTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	unsigned, err := prepare(r.Context(), string(req.Amount), req.UserAddress)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prepareResponse{UnsignedXDR: unsigned})
}

func (s *Server) handleCreateVault(w http.ResponseWriter, r *http.Request) {
	var req createVaultRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	unsigned, err := s.relay.PrepareCreateVault(r.Context(), contract.VaultParams{
		Name:             req.VaultName,
		Symbol:           req.VaultSymbol,
		Manager:          req.ManagerAddress,
		EmergencyManager: req.EmergencyManagerAddress,
		FeeReceiver:      req.FeeReceiverAddress,
		FeePercentage:    req.FeePercentage,
		AssetID:          req.AssetID,
	}, req.UserAddress)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prepareResponse{UnsignedXDR: unsigned})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SignedXDR == "" {
		s.writeError(w, http.StatusBadRequest, "signed_xdr is required")
		return
	}
	outcome, err := s.relay.SubmitSigned(r.Context(), req.SignedXDR)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		TransactionHash:    outcome.Hash,
		Status:             outcome.Status,
		ContractID:         outcome.ContractID,
		ContractIDDetected: outcome.ContractIDDetected,
	})
}

func (s *Server) handleYields(w http.ResponseWriter, r *http.Request) {
	userAddress := r.URL.Query().Get("user_address")
	if userAddress == "" {
		s.writeError(w, http.StatusBadRequest, "user_address is required")
		return
	}
	report, err := s.relay.ReadYields(r.Context(), userAddress)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, yieldResponse{
		CurrentYield:   report.CurrentYield,
		TotalDeposited: report.TotalDeposited,
	})
}

func (s *Server) handleGetActiveVault(w http.ResponseWriter, r *http.Request) {
	id, ok := s.relay.ActiveVault()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no active vault is bound")
		return
	}
	writeJSON(w, http.StatusOK, activeVaultBody{ContractID: id})
}

func (s *Server) handleSetActiveVault(w http.ResponseWriter, r *http.Request) {
	var req activeVaultBody
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ContractID == "" {
		s.writeError(w, http.StatusBadRequest, "contract_id is required")
		return
	}
	if err := s.relay.SetActiveVault(req.ContractID); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, activeVaultBody{ContractID: req.ContractID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.relay.Health(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "soroban rpc unreachable")
		return
	}
	writeJSON(w, http.StatusOK, health)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Remote application-level detail is preserved verbatim; transport and
// unexpected failures stay generic with the detail in the logs only.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var ve *contract.ValidationError
	var simRejected *tx.SimulationRejected
	var subRejected *tx.SubmissionRejected
	var execFailed *tx.ExecutionFailed

	switch {
	case errors.As(err, &ve):
		s.writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, rpc.ErrAccountNotFound):
		s.writeError(w, http.StatusBadRequest,
			"Source account not found on network or not funded. Fund it via Friendbot (https://friendbot.stellar.org/) and retry.")
	case errors.Is(err, config.ErrNotConfigured):
		s.log.WithError(err).Error("misconfiguration")
		s.writeError(w, http.StatusInternalServerError, "Relay is not configured.")
	case errors.As(err, &simRejected), errors.As(err, &subRejected), errors.As(err, &execFailed):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tx.ErrPollingTimeout):
		s.writeError(w, http.StatusGatewayTimeout,
			"Transaction status polling timed out. Check the transaction hash on an explorer before retrying.")
	default:
		s.log.WithError(err).Error("request failed")
		s.writeError(w, http.StatusInternalServerError, "Internal server error.")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
