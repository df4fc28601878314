package tx

import (
	"context"

	"github.com/stellar/go/support/errors"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"

	"github.com/dotandev/vaultrelay/internal/rpc"
)

// Simulator is the slice of the RPC client the preparer needs.
type Simulator interface {
	SimulateTransaction(ctx context.Context, envelopeB64 string) (*rpc.SimulateResult, error)
}

// Prepared is a draft transaction annotated with its simulated resource
// footprint, ready for client-side signing. Single use: one simulation run
// per draft.
type Prepared struct {
	// EnvelopeXDR is the unsigned base64 envelope handed to the client.
	EnvelopeXDR string
	// ReturnValue is the simulated return of the first invocation, when the
	// simulator reported one. Read-only calls consume this and discard the
	// envelope.
	ReturnValue *xdr.ScVal
	// MinResourceFee is the simulator's resource fee, already folded into the
	// envelope's fee.
	MinResourceFee int64
}

// Preparer runs drafts through the remote simulation facility and merges the
// resulting footprint, auth and resource fee back into the transaction.
type Preparer struct {
	client Simulator
}

func NewPreparer(client Simulator) *Preparer {
	return &Preparer{client: client}
}

// Prepare simulates the draft and returns the prepared form. An error
// reported by the simulation itself surfaces as *SimulationRejected with the
// remote's message verbatim; wire failures keep their transport error type.
// There is no retry at this layer.
func (p *Preparer) Prepare(ctx context.Context, draft *txnbuild.Transaction) (*Prepared, error) {
	draftB64, err := draft.Base64()
	if err != nil {
		return nil, errors.Wrap(err, "encoding draft transaction")
	}

	sim, err := p.client.SimulateTransaction(ctx, draftB64)
	if err != nil {
		return nil, err
	}
	if sim.Error != "" {
		return nil, &SimulationRejected{Message: sim.Error}
	}

	var sorobanData xdr.SorobanTransactionData
	if err := xdr.SafeUnmarshalBase64(sim.TransactionData, &sorobanData); err != nil {
		return nil, errors.Wrap(err, "decoding simulated transaction data")
	}

	ops := draft.Operations()
	invoke, ok := ops[0].(*txnbuild.InvokeHostFunction)
	if !ok {
		return nil, errors.New("first operation is not a contract invocation")
	}
	invoke.Ext = xdr.TransactionExt{V: 1, SorobanData: &sorobanData}

	var returnValue *xdr.ScVal
	if len(sim.Results) > 0 {
		auth := make([]xdr.SorobanAuthorizationEntry, 0, len(sim.Results[0].Auth))
		for _, raw := range sim.Results[0].Auth {
			var entry xdr.SorobanAuthorizationEntry
			if err := xdr.SafeUnmarshalBase64(raw, &entry); err != nil {
				return nil, errors.Wrap(err, "decoding simulated auth entry")
			}
			auth = append(auth, entry)
		}
		invoke.Auth = auth

		if sim.Results[0].XDR != "" {
			var v xdr.ScVal
			if err := xdr.SafeUnmarshalBase64(sim.Results[0].XDR, &v); err != nil {
				return nil, errors.Wrap(err, "decoding simulated return value")
			}
			returnValue = &v
		}
	}

	// The draft already consumed the sequence bump at assembly time.
	source := draft.SourceAccount()
	prepared, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &source,
		IncrementSequenceNum: false,
		Operations:           ops,
		BaseFee:              draft.BaseFee() + sim.MinResourceFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: draft.Timebounds(),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "rebuilding prepared transaction")
	}
	preparedB64, err := prepared.Base64()
	if err != nil {
		return nil, errors.Wrap(err, "encoding prepared transaction")
	}

	return &Prepared{
		EnvelopeXDR:    preparedB64,
		ReturnValue:    returnValue,
		MinResourceFee: sim.MinResourceFee,
	}, nil
}
