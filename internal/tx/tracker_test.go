package tx

import (
	"context"
	"testing"
	"time"

	"github.com/stellar/go/support/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/vaultrelay/internal/rpc"
)

type fakeNetwork struct {
	sendResult *rpc.SendResult
	sendErr    error
	sendCalls  int

	// polls are returned in order; the last one repeats.
	polls     []*rpc.GetTransactionResult
	pollCalls int
}

func (f *fakeNetwork) SendTransaction(_ context.Context, _ string) (*rpc.SendResult, error) {
	f.sendCalls++
	return f.sendResult, f.sendErr
}

func (f *fakeNetwork) GetTransaction(_ context.Context, _ string) (*rpc.GetTransactionResult, error) {
	i := f.pollCalls
	f.pollCalls++
	if i >= len(f.polls) {
		i = len(f.polls) - 1
	}
	return f.polls[i], nil
}

func newTestTracker(client Network) (*Tracker, *[]time.Duration) {
	tr := NewTracker(client, log.New())
	var slept []time.Duration
	tr.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return tr, &slept
}

func pending() *rpc.GetTransactionResult {
	return &rpc.GetTransactionResult{Status: rpc.StatusNotFound}
}

func TestSubmitAndConfirmSuccessStopsPolling(t *testing.T) {
	client := &fakeNetwork{
		sendResult: &rpc.SendResult{Hash: "abc", Status: rpc.StatusPending},
		polls: []*rpc.GetTransactionResult{
			pending(),
			{Status: rpc.StatusSuccess, ResultMetaXDR: "META", ResultXDR: "RESULT"},
		},
	}
	tr, slept := newTestTracker(client)

	rec, err := tr.SubmitAndConfirm(context.Background(), "SIGNED")
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.Hash)
	assert.Equal(t, rpc.StatusSuccess, rec.Status)
	assert.Equal(t, "META", rec.ResultMetaXDR)

	assert.Equal(t, 1, client.sendCalls)
	assert.Equal(t, 2, client.pollCalls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestSubmitAndConfirmExhaustsSchedule(t *testing.T) {
	client := &fakeNetwork{
		sendResult: &rpc.SendResult{Hash: "abc", Status: rpc.StatusPending},
		polls:      []*rpc.GetTransactionResult{pending()},
	}
	tr, slept := newTestTracker(client)

	_, err := tr.SubmitAndConfirm(context.Background(), "SIGNED")
	require.ErrorIs(t, err, ErrPollingTimeout)

	assert.Equal(t, 1, client.sendCalls)
	assert.Equal(t, MaxPollAttempts, client.pollCalls)
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	assert.Equal(t, want, *slept)

	var total time.Duration
	for _, d := range *slept {
		total += d
	}
	assert.Equal(t, 31*time.Second, total)
}

func TestSubmitAndConfirmRejectedAckFailsFast(t *testing.T) {
	client := &fakeNetwork{
		sendResult: &rpc.SendResult{Hash: "abc", Status: rpc.StatusError, ErrorResultXDR: "raw-detail"},
	}
	tr, slept := newTestTracker(client)

	_, err := tr.SubmitAndConfirm(context.Background(), "SIGNED")
	var rejected *SubmissionRejected
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, rpc.StatusError, rejected.Status)
	assert.Equal(t, "raw-detail", rejected.Detail)

	assert.Zero(t, client.pollCalls, "no polling after a rejected ack")
	assert.Empty(t, *slept)
}

func TestSubmitAndConfirmDuplicateAckStillPolls(t *testing.T) {
	client := &fakeNetwork{
		sendResult: &rpc.SendResult{Hash: "abc", Status: rpc.StatusDuplicate},
		polls:      []*rpc.GetTransactionResult{{Status: rpc.StatusSuccess}},
	}
	tr, _ := newTestTracker(client)

	rec, err := tr.SubmitAndConfirm(context.Background(), "SIGNED")
	require.NoError(t, err)
	assert.Equal(t, rpc.StatusSuccess, rec.Status)
	assert.Equal(t, 1, client.sendCalls)
}

func TestSubmitAndConfirmTerminalFailureCarriesDetail(t *testing.T) {
	client := &fakeNetwork{
		sendResult: &rpc.SendResult{Hash: "abc", Status: rpc.StatusPending},
		polls:      []*rpc.GetTransactionResult{{Status: rpc.StatusFailed, ResultXDR: "not-xdr-payload"}},
	}
	tr, _ := newTestTracker(client)

	_, err := tr.SubmitAndConfirm(context.Background(), "SIGNED")
	var failed *ExecutionFailed
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, rpc.StatusFailed, failed.Status)
	assert.Equal(t, "not-xdr-payload", failed.Detail)
	assert.Equal(t, 1, client.pollCalls)
}

func TestSubmitAndConfirmTerminalFailureWithoutPayload(t *testing.T) {
	client := &fakeNetwork{
		sendResult: &rpc.SendResult{Hash: "abc", Status: rpc.StatusPending},
		polls:      []*rpc.GetTransactionResult{{Status: rpc.StatusFailed}},
	}
	tr, _ := newTestTracker(client)

	_, err := tr.SubmitAndConfirm(context.Background(), "SIGNED")
	var failed *ExecutionFailed
	require.ErrorAs(t, err, &failed)
	assert.NotEmpty(t, failed.Detail, "detail is never empty")
}

func TestSubmitAndConfirmSuccessOnLastAttempt(t *testing.T) {
	client := &fakeNetwork{
		sendResult: &rpc.SendResult{Hash: "abc", Status: rpc.StatusPending},
		polls: []*rpc.GetTransactionResult{
			pending(), pending(), pending(), pending(),
			{Status: rpc.StatusSuccess},
		},
	}
	tr, _ := newTestTracker(client)

	rec, err := tr.SubmitAndConfirm(context.Background(), "SIGNED")
	require.NoError(t, err)
	assert.Equal(t, rpc.StatusSuccess, rec.Status)
	assert.Equal(t, MaxPollAttempts, client.pollCalls)
}
