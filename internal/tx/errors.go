package tx

import (
	"fmt"

	"github.com/stellar/go/support/errors"
)

// ErrPollingTimeout means the poll budget was exhausted while the transaction
// was still pending. The true outcome is unknown, not failed: callers should
// check the transaction hash out-of-band before retrying.
var ErrPollingTimeout = errors.New("transaction status polling timed out")

// SimulationRejected is an application-level rejection from the remote
// simulation facility (contract trap, bad argument). Not transient: it is
// surfaced immediately, message verbatim, with no retry.
type SimulationRejected struct {
	Message string
}

func (e *SimulationRejected) Error() string {
	return fmt.Sprintf("simulation rejected: %s", e.Message)
}

// SubmissionRejected is a failed immediate acknowledgment from
// sendTransaction. The transaction never entered the network.
type SubmissionRejected struct {
	Status string
	Detail string
}

func (e *SubmissionRejected) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("submission rejected with status %s", e.Status)
	}
	return fmt.Sprintf("submission rejected with status %s: %s", e.Status, e.Detail)
}

// ExecutionFailed is a terminal non-success status observed while polling.
// Detail carries the result payload when present, the status text otherwise,
// never neither.
type ExecutionFailed struct {
	Status string
	Detail string
}

func (e *ExecutionFailed) Error() string {
	return fmt.Sprintf("transaction failed with status %s: %s", e.Status, e.Detail)
}
