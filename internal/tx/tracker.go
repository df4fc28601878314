package tx

import (
	"context"
	"time"

	"github.com/stellar/go/support/log"
	"github.com/stellar/go/xdr"

	"github.com/dotandev/vaultrelay/internal/rpc"
)

// MaxPollAttempts bounds the status polling loop. With the doubling delay
// schedule the worst case blocks for 1+2+4+8+16 = 31 base-delay units.
const MaxPollAttempts = 5

// Network is the slice of the RPC client the tracker needs.
type Network interface {
	SendTransaction(ctx context.Context, envelopeB64 string) (*rpc.SendResult, error)
	GetTransaction(ctx context.Context, hash string) (*rpc.GetTransactionResult, error)
}

// SubmissionRecord is the terminal outcome of a confirmed submission.
type SubmissionRecord struct {
	Hash          string
	Status        string
	ResultXDR     string
	ResultMetaXDR string
}

// Tracker submits signed envelopes and polls for a terminal status.
type Tracker struct {
	client    Network
	baseDelay time.Duration
	sleep     func(context.Context, time.Duration) error
	log       *log.Entry
}

// NewTracker returns a tracker polling on a 1s/2s/4s/8s/16s schedule.
func NewTracker(client Network, logger *log.Entry) *Tracker {
	return &Tracker{
		client:    client,
		baseDelay: time.Second,
		sleep:     sleepContext,
		log:       logger,
	}
}

// WithBaseDelay overrides the schedule's base delay unit. The doubling shape
// and the attempt ceiling stay fixed.
func (t *Tracker) WithBaseDelay(d time.Duration) *Tracker {
	t.baseDelay = d
	return t
}

// SubmitAndConfirm submits the signed envelope exactly once and polls its
// status with doubling delays until a terminal status, a failure, or the
// attempt budget runs out (ErrPollingTimeout). The envelope is never
// resubmitted: a retry after a timeout is the caller's call to make.
func (t *Tracker) SubmitAndConfirm(ctx context.Context, signedEnvelopeB64 string) (*SubmissionRecord, error) {
	ack, err := t.client.SendTransaction(ctx, signedEnvelopeB64)
	if err != nil {
		return nil, err
	}
	t.log.WithFields(log.F{"hash": ack.Hash, "status": ack.Status}).Info("transaction submitted")

	switch ack.Status {
	case rpc.StatusError, rpc.StatusTryAgainLater:
		return nil, &SubmissionRejected{Status: ack.Status, Detail: decodeResultDetail(ack.ErrorResultXDR)}
	case rpc.StatusDuplicate:
		// Already accepted earlier; the hash is still pollable.
		t.log.WithField("hash", ack.Hash).Warn("duplicate submission, polling existing transaction")
	}

	for attempt := 0; attempt < MaxPollAttempts; attempt++ {
		if err := t.sleep(ctx, t.baseDelay<<attempt); err != nil {
			return nil, err
		}
		got, err := t.client.GetTransaction(ctx, ack.Hash)
		if err != nil {
			return nil, err
		}
		t.log.WithFields(log.F{"hash": ack.Hash, "status": got.Status, "attempt": attempt + 1}).
			Debug("poll result")

		switch got.Status {
		case rpc.StatusPending, rpc.StatusNotFound:
			continue
		case rpc.StatusSuccess:
			return &SubmissionRecord{
				Hash:          ack.Hash,
				Status:        got.Status,
				ResultXDR:     got.ResultXDR,
				ResultMetaXDR: got.ResultMetaXDR,
			}, nil
		default:
			detail := decodeResultDetail(got.ResultXDR)
			if detail == "" {
				detail = "status " + got.Status
			}
			return nil, &ExecutionFailed{Status: got.Status, Detail: detail}
		}
	}
	return nil, ErrPollingTimeout
}

// decodeResultDetail renders a base64 TransactionResult into its result code
// when it parses, otherwise returns the raw payload unchanged.
func decodeResultDetail(resultB64 string) string {
	if resultB64 == "" {
		return ""
	}
	var result xdr.TransactionResult
	if err := xdr.SafeUnmarshalBase64(resultB64, &result); err != nil {
		return resultB64
	}
	return result.Result.Code.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
