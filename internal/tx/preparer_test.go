package tx

import (
	"context"
	"testing"

	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/vaultrelay/internal/rpc"
	"github.com/dotandev/vaultrelay/internal/scval"
)

type fakeSimulator struct {
	result *rpc.SimulateResult
	err    error
	calls  int
}

func (f *fakeSimulator) SimulateTransaction(_ context.Context, _ string) (*rpc.SimulateResult, error) {
	f.calls++
	return f.result, f.err
}

func simulateOK(t *testing.T, minFee int64, retval *xdr.ScVal) *rpc.SimulateResult {
	t.Helper()
	data, err := xdr.MarshalBase64(xdr.SorobanTransactionData{})
	require.NoError(t, err)
	inv := rpc.SimulateInvocation{}
	if retval != nil {
		b64, err := xdr.MarshalBase64(*retval)
		require.NoError(t, err)
		inv.XDR = b64
	}
	return &rpc.SimulateResult{
		TransactionData: data,
		MinResourceFee:  minFee,
		Results:         []rpc.SimulateInvocation{inv},
	}
}

func TestPrepareMergesFootprintAndFee(t *testing.T) {
	acc, user := testAccount(t)
	draft, err := Assemble(acc, testInvocations(t, user)[:1], DefaultBaseFee)
	require.NoError(t, err)

	sim := &fakeSimulator{result: simulateOK(t, 52641, nil)}
	prepared, err := NewPreparer(sim).Prepare(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, 1, sim.calls)
	assert.Equal(t, int64(52641), prepared.MinResourceFee)

	var envelope xdr.TransactionEnvelope
	require.NoError(t, xdr.SafeUnmarshalBase64(prepared.EnvelopeXDR, &envelope))
	assert.Equal(t, uint32(DefaultBaseFee+52641), envelope.Fee())
	require.Len(t, envelope.Operations(), 1)

	// Sequence must not be bumped a second time by the rebuild.
	assert.Equal(t, acc.Sequence+1, envelope.SeqNum())
}

func TestPrepareReturnsSimulatedValue(t *testing.T) {
	acc, user := testAccount(t)
	draft, err := Assemble(acc, testInvocations(t, user)[:1], DefaultBaseFee)
	require.NoError(t, err)

	retval := scval.I128(987)
	prepared, err := NewPreparer(&fakeSimulator{result: simulateOK(t, 100, &retval)}).
		Prepare(context.Background(), draft)
	require.NoError(t, err)
	require.NotNil(t, prepared.ReturnValue)

	n, ok := scval.ToInt64(*prepared.ReturnValue)
	require.True(t, ok)
	assert.Equal(t, int64(987), n)
}

func TestPrepareSurfacesSimulationErrorVerbatim(t *testing.T) {
	acc, user := testAccount(t)
	draft, err := Assemble(acc, testInvocations(t, user)[:1], DefaultBaseFee)
	require.NoError(t, err)

	sim := &fakeSimulator{result: &rpc.SimulateResult{Error: "HostError: contract trap"}}
	_, err = NewPreparer(sim).Prepare(context.Background(), draft)

	var rejected *SimulationRejected
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "HostError: contract trap", rejected.Message)
}

func TestPreparePropagatesTransportError(t *testing.T) {
	acc, user := testAccount(t)
	draft, err := Assemble(acc, testInvocations(t, user)[:1], DefaultBaseFee)
	require.NoError(t, err)

	wireErr := &rpc.TransportError{Method: "simulateTransaction", Err: assert.AnError}
	_, err = NewPreparer(&fakeSimulator{err: wireErr}).Prepare(context.Background(), draft)

	var te *rpc.TransportError
	require.ErrorAs(t, err, &te)
	var rejected *SimulationRejected
	assert.NotErrorAs(t, err, &rejected)
}
