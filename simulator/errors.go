package simulator

import (
	"fmt"
	"strings"
)

// TransportError reports an RPC call that could not be completed. The
// transaction itself was never evaluated, so retrying may succeed.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rpc %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExecutionError reports a simulation that ran and failed inside the VM:
// the transaction's own logic is at fault, not the transport.
type ExecutionError struct {
	Detail        string
	Logs          []string
	UnitsConsumed uint64
}

func (e *ExecutionError) Error() string {
	if cause := rootCauseLog(e.Logs); cause != "" {
		return fmt.Sprintf("transaction failed: %s: %s", e.Detail, cause)
	}
	return fmt.Sprintf("transaction failed: %s", e.Detail)
}

// rootCauseLog picks the last program log line that names a failure; the
// node's structured error alone is often too terse to act on.
func rootCauseLog(logs []string) string {
	for i := len(logs) - 1; i >= 0; i-- {
		l := logs[i]
		if strings.Contains(l, "insufficient") ||
			strings.Contains(l, "failed") ||
			strings.Contains(l, "Error") {
			return strings.TrimPrefix(l, "Program log: ")
		}
	}
	return ""
}
