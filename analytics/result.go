package analytics

// Status discriminates the three analysis outcomes.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Result is one analyzed batch slot. Exactly the fields of its status are
// set: CU for succeeded, Kind and Message for failed, Reason for skipped.
// PriorityFee is filled on succeeded slots when fee calculation is
// enabled.
type Result struct {
	Status      Status
	CU          uint64
	Kind        FailureKind
	Message     string
	Reason      string
	PriorityFee uint64
}

// Succeeded builds the analysis slot for a completed run.
func Succeeded(cu uint64) Result {
	return Result{Status: StatusSucceeded, CU: cu}
}

// Failed builds the analysis slot for a classified failure.
func Failed(kind FailureKind, message string) Result {
	return Result{Status: StatusFailed, Kind: kind, Message: message}
}

// Skipped builds the analysis slot for a transaction the configuration
// excluded from estimation.
func Skipped(reason string) Result {
	return Result{Status: StatusSkipped, Reason: reason}
}
