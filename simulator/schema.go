package simulator

import "encoding/json"

// rpcRequest is the JSON-RPC 2.0 envelope sent to the node. Params are
// positional, so they marshal as an array.
type rpcRequest struct {
	Version string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse is the JSON-RPC 2.0 envelope the node answers with.
type rpcResponse struct {
	Version string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is the node-level failure object, distinct from a transaction
// failing inside a simulation.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// simulateConfig is the options object of a simulateTransaction call.
type simulateConfig struct {
	Encoding string `json:"encoding"` // always "base64"
	// SigVerify stays false so unsigned messages are simulatable.
	SigVerify bool `json:"sigVerify"`
	// ReplaceRecentBlockhash makes the node substitute a live blockhash,
	// sparing the caller a getLatestBlockhash round trip.
	ReplaceRecentBlockhash bool   `json:"replaceRecentBlockhash"`
	Commitment             string `json:"commitment,omitempty"`
}

// SimulateResult is the value object of a simulateTransaction response.
type SimulateResult struct {
	// Err is null on success; otherwise a string or structured object
	// describing the transaction error.
	Err           json.RawMessage `json:"err"`
	Logs          []string        `json:"logs"`
	UnitsConsumed uint64          `json:"unitsConsumed"`
}

// sendConfig is the options object of a sendTransaction call.
type sendConfig struct {
	Encoding            string `json:"encoding"`
	SkipPreflight       bool   `json:"skipPreflight"`
	PreflightCommitment string `json:"preflightCommitment,omitempty"`
}

// commitmentConfig is the options object of read calls that only take a
// commitment level.
type commitmentConfig struct {
	Commitment string `json:"commitment,omitempty"`
}

// accountConfig is the options object of account fetches.
type accountConfig struct {
	Encoding   string `json:"encoding"` // always "base64"
	Commitment string `json:"commitment,omitempty"`
}

// contextEnvelope wraps value-bearing responses with their slot context.
type contextEnvelope struct {
	Value json.RawMessage `json:"value"`
}

// BlockhashResult is the value object of a getLatestBlockhash response.
type BlockhashResult struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// AccountResult is the value object of account fetches. Data holds the
// payload in [content, encoding] form.
type AccountResult struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"`
	Executable bool     `json:"executable"`
}

// FeeResult is one entry of a getRecentPrioritizationFees response.
type FeeResult struct {
	Slot              uint64 `json:"slot"`
	PrioritizationFee uint64 `json:"prioritizationFee"`
}

// statusConfig is the options object of a getSignatureStatuses call.
type statusConfig struct {
	SearchTransactionHistory bool `json:"searchTransactionHistory"`
}

// SignatureStatus is one entry of a getSignatureStatuses response.
type SignatureStatus struct {
	ConfirmationStatus string          `json:"confirmationStatus"`
	Err                json.RawMessage `json:"err"`
}
