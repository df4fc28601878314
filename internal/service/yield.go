package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/stellar/go/support/errors"
	"github.com/stellar/go/xdr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dotandev/vaultrelay/internal/config"
	"github.com/dotandev/vaultrelay/internal/contract"
	"github.com/dotandev/vaultrelay/internal/rpc"
	"github.com/dotandev/vaultrelay/internal/scval"
	"github.com/dotandev/vaultrelay/internal/tx"
)

// ReadYields simulates the read-only get_user_yield call from the backend's
// own funded account and formats the result. The throwaway draft exists only
// to satisfy the simulator's need for a valid source account; nothing is
// signed or submitted.
func (r *Relay) ReadYields(ctx context.Context, userAddress string) (*YieldReport, error) {
	ctx, span := r.tracer.Start(ctx, "read_yields",
		trace.WithAttributes(attribute.String("user_address", userAddress)))
	defer span.End()

	vaultID, ok := r.registry.Active()
	if !ok {
		return nil, errors.Wrap(config.ErrNotConfigured, "no active vault contract")
	}
	inv, err := contract.GetUserYield(vaultID, userAddress)
	if err != nil {
		return nil, err
	}

	backend := r.cfg.SourceKeypair.Address()
	account, err := r.client.GetAccount(ctx, backend)
	if stderrors.Is(err, rpc.ErrAccountNotFound) {
		// The backend account existing is an operator concern, not a caller one.
		return nil, errors.Wrapf(config.ErrNotConfigured, "backend account %s is not funded", backend)
	}
	if err != nil {
		return nil, err
	}

	prepared, err := r.prepareSimOnly(ctx, account, inv)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if prepared.ReturnValue == nil {
		r.log.WithField("vault", vaultID).Warn("yield simulation returned no value")
		return &YieldReport{CurrentYield: formatStroops(0), TotalDeposited: formatStroops(0)}, nil
	}

	yield, deposited, ok := decodeYield(*prepared.ReturnValue)
	if !ok {
		return nil, errors.New("unexpected yield return shape from vault contract")
	}
	return &YieldReport{
		CurrentYield:   formatStroops(yield),
		TotalDeposited: formatStroops(deposited),
	}, nil
}

func (r *Relay) prepareSimOnly(ctx context.Context, account *rpc.Account, inv contract.Invocation) (*tx.Prepared, error) {
	draft, err := tx.Assemble(account, []contract.Invocation{inv}, tx.DefaultBaseFee)
	if err != nil {
		return nil, err
	}
	return r.preparer.Prepare(ctx, draft)
}

// decodeYield accepts the two return shapes observed across vault contract
// revisions: a two-element vector [current_yield, total_deposited] or a bare
// numeric current_yield.
func decodeYield(v xdr.ScVal) (yield, deposited int64, ok bool) {
	if items, isVec := scval.VecItems(v); isVec {
		if len(items) < 2 {
			return 0, 0, false
		}
		yield, ok = scval.ToInt64(items[0])
		if !ok {
			return 0, 0, false
		}
		deposited, ok = scval.ToInt64(items[1])
		return yield, deposited, ok
	}
	yield, ok = scval.ToInt64(v)
	return yield, 0, ok
}

// formatStroops renders a stroop amount as a display-unit string with fixed
// 3-decimal precision.
func formatStroops(n int64) string {
	return fmt.Sprintf("%.3f", float64(n)/float64(contract.StroopsPerUnit))
}
