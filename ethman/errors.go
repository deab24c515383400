package ethman

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/stellargate-io/bridge-go/chainadapter"
)

// transientMessages are node responses that clear on their own; a
// resubmission of the same transfer can still go through.
var transientMessages = []string{
	"replacement tx underpriced",
	"nonce too low",
	"tx with the same nonce is already present",
	"too many requests",
}

// classifySubmitError folds a raw client error into the adapter error
// taxonomy: network trouble is retryable, everything else means the
// node rejected the transaction.
func classifySubmitError(err error) error {
	if isTransient(err) {
		return fmt.Errorf("%w: %v", chainadapter.ErrNetworkUnavailable, err)
	}
	return fmt.Errorf("%w: %v", chainadapter.ErrTransactionRejected, err)
}

// classifyStatusError keeps read-path failures retryable; a status poll
// never concludes anything terminal from a flaky node.
func classifyStatusError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", chainadapter.ErrNetworkUnavailable, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := err.Error()
	for _, msg := range transientMessages {
		if strings.Contains(errStr, msg) {
			return true
		}
	}
	return false
}
