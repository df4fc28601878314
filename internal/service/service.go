// Package service orchestrates the relay's five operations over the rpc,
// contract, tx and vault packages. Handlers stay thin; everything that can
// fail meaningfully fails here with a typed error.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/stellar/go/support/errors"
	"github.com/stellar/go/support/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dotandev/vaultrelay/internal/config"
	"github.com/dotandev/vaultrelay/internal/contract"
	"github.com/dotandev/vaultrelay/internal/rpc"
	"github.com/dotandev/vaultrelay/internal/tx"
	"github.com/dotandev/vaultrelay/internal/vault"
)

// NetworkClient is the slice of the RPC client the service depends on.
type NetworkClient interface {
	GetAccount(ctx context.Context, accountID string) (*rpc.Account, error)
	SimulateTransaction(ctx context.Context, envelopeB64 string) (*rpc.SimulateResult, error)
	SendTransaction(ctx context.Context, envelopeB64 string) (*rpc.SendResult, error)
	GetTransaction(ctx context.Context, hash string) (*rpc.GetTransactionResult, error)
}

// SubmitOutcome is the caller-facing result of a confirmed submission.
type SubmitOutcome struct {
	Hash   string
	Status string
	// ContractID is set when the submission created a vault and its address
	// was recovered from the execution result.
	ContractID string
	// ContractIDDetected is false on a successful creation whose result did
	// not decode; the operator must bind the vault manually.
	ContractIDDetected bool
	// WasVaultCreation reports whether the envelope invoked create_vault.
	WasVaultCreation bool
}

// YieldReport is the read-only yield view, formatted as fixed 3-decimal
// display-unit strings.
type YieldReport struct {
	CurrentYield   string
	TotalDeposited string
}

// Relay is the backend service behind both HTTP front doors.
type Relay struct {
	cfg      *config.Config
	client   NetworkClient
	preparer *tx.Preparer
	tracker  *tx.Tracker
	registry *vault.Registry
	log      *log.Entry
	tracer   trace.Tracer
}

func New(cfg *config.Config, client NetworkClient, registry *vault.Registry, logger *log.Entry) *Relay {
	return &Relay{
		cfg:      cfg,
		client:   client,
		preparer: tx.NewPreparer(client),
		tracker:  tx.NewTracker(client, logger),
		registry: registry,
		log:      logger,
		tracer:   otel.Tracer("vaultrelay/service"),
	}
}

// ActiveVault exposes the registry binding for the configuration endpoints.
func (r *Relay) ActiveVault() (string, bool) { return r.registry.Active() }

// SetActiveVault is the operator override path into the registry.
func (r *Relay) SetActiveVault(contractID string) error {
	return r.registry.SetActive(contractID)
}

// CreatedVaults lists vaults created through this relay.
func (r *Relay) CreatedVaults() ([]vault.Vault, error) { return r.registry.Created() }

// Health proxies the RPC server's health report.
func (r *Relay) Health(ctx context.Context) (*rpc.Health, error) {
	c, ok := r.client.(interface {
		GetHealth(ctx context.Context) (*rpc.Health, error)
	})
	if !ok {
		return &rpc.Health{Status: "healthy"}, nil
	}
	return c.GetHealth(ctx)
}

// PrepareDeposit builds, simulates and returns an unsigned deposit
// transaction for the client to sign.
func (r *Relay) PrepareDeposit(ctx context.Context, amount, userAddress string) (string, error) {
	return r.prepareTransfer(ctx, contract.FnDeposit, amount, userAddress)
}

// PrepareWithdraw mirrors PrepareDeposit for withdrawals.
func (r *Relay) PrepareWithdraw(ctx context.Context, amount, userAddress string) (string, error) {
	return r.prepareTransfer(ctx, contract.FnWithdraw, amount, userAddress)
}

func (r *Relay) prepareTransfer(ctx context.Context, fn, amount, userAddress string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "prepare_"+fn,
		trace.WithAttributes(attribute.String("user_address", userAddress)))
	defer span.End()

	vaultID, ok := r.registry.Active()
	if !ok {
		return "", errors.Wrap(config.ErrNotConfigured, "no active vault contract")
	}

	var inv contract.Invocation
	var err error
	if fn == contract.FnWithdraw {
		inv, err = contract.Withdraw(vaultID, userAddress, amount)
	} else {
		inv, err = contract.Deposit(vaultID, userAddress, amount)
	}
	if err != nil {
		return "", err
	}

	prepared, err := r.prepareFor(ctx, userAddress, inv)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return prepared.EnvelopeXDR, nil
}

// PrepareCreateVault builds an unsigned create_vault transaction against the
// factory contract.
func (r *Relay) PrepareCreateVault(ctx context.Context, p contract.VaultParams, userAddress string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "prepare_create_vault")
	defer span.End()

	if strings.TrimSpace(userAddress) == "" {
		return "", contract.MissingFieldError("user_address")
	}
	inv, err := contract.CreateVault(r.cfg.FactoryContractID, p)
	if err != nil {
		return "", err
	}
	prepared, err := r.prepareFor(ctx, userAddress, inv)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return prepared.EnvelopeXDR, nil
}

// prepareFor runs the resolve → assemble → prepare sequence with the given
// account as the transaction source. The account is fetched fresh every time.
func (r *Relay) prepareFor(ctx context.Context, sourceAddress string, inv contract.Invocation) (*tx.Prepared, error) {
	account, err := r.client.GetAccount(ctx, sourceAddress)
	if err != nil {
		return nil, err
	}
	draft, err := tx.Assemble(account, []contract.Invocation{inv}, tx.DefaultBaseFee)
	if err != nil {
		return nil, err
	}
	return r.preparer.Prepare(ctx, draft)
}

// SubmitSigned submits a client-signed envelope, waits for a terminal status
// and, when the envelope created a vault, promotes the new contract ID into
// the active registry binding.
func (r *Relay) SubmitSigned(ctx context.Context, signedXDR string) (*SubmitOutcome, error) {
	ctx, span := r.tracer.Start(ctx, "submit_signed")
	defer span.End()

	contractID, function, isInvoke, err := tx.InvokedFunction(signedXDR)
	if err != nil {
		return nil, errors.Wrap(err, "invalid signed transaction")
	}
	isCreation := isInvoke && function == contract.FnCreateVault

	// Once accepted, the poll loop runs on its own schedule even if the
	// caller hangs up.
	record, err := r.tracker.SubmitAndConfirm(context.WithoutCancel(ctx), signedXDR)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("hash", record.Hash))

	outcome := &SubmitOutcome{
		Hash:             record.Hash,
		Status:           record.Status,
		WasVaultCreation: isCreation,
	}
	if !isCreation {
		return outcome, nil
	}

	newID, ok := tx.ExtractCreatedContract(record.ResultMetaXDR)
	if !ok {
		// Non-fatal: the creation succeeded, the operator just has to bind
		// the vault by hand.
		r.log.WithField("hash", record.Hash).
			Warn("vault created but contract id not detected in result")
		return outcome, nil
	}
	name, symbol := vaultNameSymbol(signedXDR)
	if err := r.registry.RecordCreated(vault.Vault{
		ContractID: newID,
		Name:       name,
		Symbol:     symbol,
		CreatedAt:  time.Now(),
	}); err != nil {
		r.log.WithError(err).Warn("failed to record created vault")
		return outcome, nil
	}
	r.log.WithFields(log.F{"hash": record.Hash, "contract_id": newID, "factory": contractID}).
		Info("new vault bound as active")
	outcome.ContractID = newID
	outcome.ContractIDDetected = true
	return outcome, nil
}

// vaultNameSymbol best-effort extracts the name and symbol arguments from a
// create_vault envelope for the registry record.
func vaultNameSymbol(envelopeB64 string) (string, string) {
	name, _ := tx.InvocationStringArg(envelopeB64, 0)
	symbol, _ := tx.InvocationStringArg(envelopeB64, 1)
	return name, symbol
}
