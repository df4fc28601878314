// Package tx owns the transaction lifecycle: assembling drafts, preparing
// them against the remote simulator, submitting signed envelopes with status
// polling, and extracting created contract IDs from execution results.
package tx

import (
	"time"

	"github.com/stellar/go/support/errors"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"

	"github.com/dotandev/vaultrelay/internal/contract"
	"github.com/dotandev/vaultrelay/internal/rpc"
	"github.com/dotandev/vaultrelay/internal/scval"
)

// DefaultBaseFee is the per-operation fee in stroops before the simulated
// resource fee is added.
const DefaultBaseFee = txnbuild.MinBaseFee

const draftTimeout = 300 * time.Second

// Assemble builds an unsigned draft transaction from a fresh account
// snapshot and an ordered, non-empty list of contract invocations. Pure
// construction, no network I/O; invocation order is execution order.
func Assemble(account *rpc.Account, invocations []contract.Invocation, baseFee int64) (*txnbuild.Transaction, error) {
	if account == nil {
		return nil, errors.New("source account is required")
	}
	if len(invocations) == 0 {
		return nil, errors.New("at least one operation is required")
	}
	if baseFee <= 0 {
		return nil, errors.Errorf("base fee must be positive, got %d", baseFee)
	}

	ops := make([]txnbuild.Operation, 0, len(invocations))
	for _, inv := range invocations {
		op, err := operation(inv)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	return txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount: &txnbuild.SimpleAccount{
			AccountID: account.ID,
			Sequence:  account.Sequence,
		},
		IncrementSequenceNum: true,
		Operations:           ops,
		BaseFee:              baseFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(int64(draftTimeout.Seconds())),
		},
	})
}

func operation(inv contract.Invocation) (*txnbuild.InvokeHostFunction, error) {
	contractAddr, err := scval.ScAddress(inv.ContractID)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid contract id %q", inv.ContractID)
	}
	return &txnbuild.InvokeHostFunction{
		HostFunction: xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
			InvokeContract: &xdr.InvokeContractArgs{
				ContractAddress: contractAddr,
				FunctionName:    xdr.ScSymbol(inv.Function),
				Args:            inv.Args,
			},
		},
	}, nil
}
