package api

import (
	"net/http"

	gorillarpc "github.com/gorilla/rpc"
	gorillajson "github.com/gorilla/rpc/json"

	"github.com/dotandev/vaultrelay/internal/contract"
)

// jsonRPCHandler mirrors the REST operations over JSON-RPC for programmatic
// clients. Method names are "relay.<Operation>".
func (s *Server) jsonRPCHandler() http.Handler {
	server := gorillarpc.NewServer()
	server.RegisterCodec(gorillajson.NewCodec(), "application/json")
	// Registration only fails for malformed receivers, which is a programming
	// error caught by the tests.
	if err := server.RegisterService(&relayRPC{relay: s.relay}, "relay"); err != nil {
		panic(err)
	}
	return server
}

type relayRPC struct {
	relay RelayService
}

type TransferArgs struct {
	Amount      string `json:"amount"`
	UserAddress string `json:"user_address"`
}

type CreateVaultArgs struct {
	VaultName               string  `json:"vault_name"`
	VaultSymbol             string  `json:"vault_symbol"`
	ManagerAddress          string  `json:"manager_address"`
	EmergencyManagerAddress string  `json:"emergency_manager_address"`
	FeeReceiverAddress      string  `json:"fee_receiver_address"`
	FeePercentage           float64 `json:"fee_percentage"`
	AssetID                 string  `json:"asset_id"`
	UserAddress             string  `json:"user_address"`
}

type SubmitArgs struct {
	SignedXDR string `json:"signed_xdr"`
}

type YieldArgs struct {
	UserAddress string `json:"user_address"`
}

type PrepareReply struct {
	UnsignedXDR string `json:"unsigned_xdr"`
}

type SubmitReply struct {
	TransactionHash    string `json:"transaction_hash"`
	Status             string `json:"status"`
	ContractID         string `json:"contract_id,omitempty"`
	ContractIDDetected bool   `json:"contract_id_detected"`
}

type YieldReply struct {
	CurrentYield   string `json:"current_yield"`
	TotalDeposited string `json:"total_deposited"`
}

func (r *relayRPC) PrepareDeposit(req *http.Request, args *TransferArgs, reply *PrepareReply) error {
	unsigned, err := r.relay.PrepareDeposit(req.Context(), args.Amount, args.UserAddress)
	if err != nil {
		return err
	}
	reply.UnsignedXDR = unsigned
	return nil
}

func (r *relayRPC) PrepareWithdraw(req *http.Request, args *TransferArgs, reply *PrepareReply) error {
	unsigned, err := r.relay.PrepareWithdraw(req.Context(), args.Amount, args.UserAddress)
	if err != nil {
		return err
	}
	reply.UnsignedXDR = unsigned
	return nil
}

func (r *relayRPC) PrepareCreateVault(req *http.Request, args *CreateVaultArgs, reply *PrepareReply) error {
	unsigned, err := r.relay.PrepareCreateVault(req.Context(), contract.VaultParams{
		Name:             args.VaultName,
		Symbol:           args.VaultSymbol,
		Manager:          args.ManagerAddress,
		EmergencyManager: args.EmergencyManagerAddress,
		FeeReceiver:      args.FeeReceiverAddress,
		FeePercentage:    args.FeePercentage,
		AssetID:          args.AssetID,
	}, args.UserAddress)
	if err != nil {
		return err
	}
	reply.UnsignedXDR = unsigned
	return nil
}

func (r *relayRPC) SubmitSigned(req *http.Request, args *SubmitArgs, reply *SubmitReply) error {
	outcome, err := r.relay.SubmitSigned(req.Context(), args.SignedXDR)
	if err != nil {
		return err
	}
	reply.TransactionHash = outcome.Hash
	reply.Status = outcome.Status
	reply.ContractID = outcome.ContractID
	reply.ContractIDDetected = outcome.ContractIDDetected
	return nil
}

func (r *relayRPC) ReadYields(req *http.Request, args *YieldArgs, reply *YieldReply) error {
	report, err := r.relay.ReadYields(req.Context(), args.UserAddress)
	if err != nil {
		return err
	}
	reply.CurrentYield = report.CurrentYield
	reply.TotalDeposited = report.TotalDeposited
	return nil
}
