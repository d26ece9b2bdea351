package rollup

import "fmt"

// RawSimulationResult is one batch slot's outcome: a flattened projection
// of the dry-run result for the transaction at the same input index.
type RawSimulationResult struct {
	Success bool
	// CU is the compute units the run consumed; zero when the run never
	// executed.
	CU     uint64
	Result string
}

// Succeed builds the slot for a completed dry run.
func Succeed(cu uint64) RawSimulationResult {
	return RawSimulationResult{
		Success: true,
		CU:      cu,
		Result:  fmt.Sprintf("Transaction executed successfully with %d compute units", cu),
	}
}

// Fail captures a failed or unreachable run in its own slot; the batch
// never sees the error.
func Fail(err error) RawSimulationResult {
	return RawSimulationResult{Result: err.Error()}
}

// NoResults marks a slot the node returned nothing for.
func NoResults() RawSimulationResult {
	return RawSimulationResult{Result: "No transaction results returned"}
}
