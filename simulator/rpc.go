package simulator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dotandev/solext/solana"
)

const (
	defaultCommitment     = "confirmed"
	defaultConfirmTimeout = 45 * time.Second
	defaultPollInterval   = 500 * time.Millisecond
)

// RPCClient implements Client over a node's JSON-RPC HTTP endpoint.
type RPCClient struct {
	endpoint       string
	hc             *http.Client
	commitment     string
	confirmTimeout time.Duration
	pollInterval   time.Duration
	nextID         atomic.Uint64
}

// RPCOption configures an RPCClient.
type RPCOption func(*RPCClient)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) RPCOption {
	return func(c *RPCClient) { c.hc = hc }
}

// WithCommitment sets the commitment level read calls and simulations run
// at; the default is "confirmed".
func WithCommitment(level string) RPCOption {
	return func(c *RPCClient) { c.commitment = level }
}

// WithConfirmTimeout bounds how long SendAndConfirm polls for
// confirmation.
func WithConfirmTimeout(d time.Duration) RPCOption {
	return func(c *RPCClient) { c.confirmTimeout = d }
}

// NewRPCClient builds a client for the node at endpoint. No network
// activity happens until the first call.
func NewRPCClient(endpoint string, opts ...RPCOption) *RPCClient {
	c := &RPCClient{
		endpoint:       endpoint,
		hc:             &http.Client{Timeout: 30 * time.Second},
		commitment:     defaultCommitment,
		confirmTimeout: defaultConfirmTimeout,
		pollInterval:   defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call performs one JSON-RPC round trip, decoding the result field into
// out. Every failure mode short of a well-formed result is a
// *TransportError.
func (c *RPCClient) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{
		Version: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &TransportError{Method: method, Err: fmt.Errorf("http status %d", resp.StatusCode)}
	}

	var env rpcResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return &TransportError{Method: method, Err: err}
	}
	if env.Error != nil {
		return &TransportError{Method: method, Err: fmt.Errorf("node error %d: %s", env.Error.Code, env.Error.Message)}
	}
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return &TransportError{Method: method, Err: err}
		}
	}
	return nil
}

// callValue unwraps the {context, value} envelope of slot-scoped calls.
func (c *RPCClient) callValue(ctx context.Context, method string, params []interface{}, out interface{}) error {
	var env contextEnvelope
	if err := c.call(ctx, method, params, &env); err != nil {
		return err
	}
	if err := json.Unmarshal(env.Value, out); err != nil {
		return &TransportError{Method: method, Err: err}
	}
	return nil
}

// SimulateTransaction dry-runs tx. Signature verification is disabled and
// the blockhash replaced node-side, so unsigned transactions built from a
// bare message simulate without extra round trips.
func (c *RPCClient) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*Outcome, error) {
	enc, err := tx.MarshalBase64()
	if err != nil {
		return nil, err
	}
	var res SimulateResult
	err = c.callValue(ctx, "simulateTransaction", []interface{}{
		enc,
		simulateConfig{
			Encoding:               "base64",
			SigVerify:              false,
			ReplaceRecentBlockhash: true,
			Commitment:             c.commitment,
		},
	}, &res)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Logs: res.Logs, UnitsConsumed: res.UnitsConsumed}
	if !isJSONNull(res.Err) {
		out.Err = renderTransactionError(res.Err)
	}
	return out, nil
}

// SendAndConfirm submits tx and polls signature status until the node
// reports it confirmed at the client's commitment level.
func (c *RPCClient) SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	enc, err := tx.MarshalBase64()
	if err != nil {
		return solana.Signature{}, err
	}
	var sigStr string
	err = c.call(ctx, "sendTransaction", []interface{}{
		enc,
		sendConfig{Encoding: "base64", PreflightCommitment: c.commitment},
	}, &sigStr)
	if err != nil {
		return solana.Signature{}, err
	}
	sig, err := solana.ParseSignature(sigStr)
	if err != nil {
		return solana.Signature{}, &TransportError{Method: "sendTransaction", Err: err}
	}
	if err := c.waitForConfirmation(ctx, sigStr); err != nil {
		return sig, err
	}
	return sig, nil
}

func (c *RPCClient) waitForConfirmation(ctx context.Context, sig string) error {
	deadline := time.NewTimer(c.confirmTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(c.pollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return &TransportError{Method: "getSignatureStatuses", Err: ctx.Err()}
		case <-deadline.C:
			return &TransportError{Method: "getSignatureStatuses", Err: fmt.Errorf("confirmation timed out after %s", c.confirmTimeout)}
		case <-tick.C:
		}

		var statuses []*SignatureStatus
		err := c.callValue(ctx, "getSignatureStatuses", []interface{}{
			[]string{sig},
			statusConfig{SearchTransactionHistory: false},
		}, &statuses)
		if err != nil {
			return err
		}
		if len(statuses) == 0 || statuses[0] == nil {
			continue
		}
		st := statuses[0]
		if !isJSONNull(st.Err) {
			return &ExecutionError{Detail: renderTransactionError(st.Err)}
		}
		if st.ConfirmationStatus == "confirmed" || st.ConfirmationStatus == "finalized" {
			return nil
		}
	}
}

// LatestBlockhash fetches a fresh blockhash for transaction assembly.
func (c *RPCClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var res BlockhashResult
	err := c.callValue(ctx, "getLatestBlockhash", []interface{}{
		commitmentConfig{Commitment: c.commitment},
	}, &res)
	if err != nil {
		return solana.Hash{}, err
	}
	h, err := solana.ParseHash(res.Blockhash)
	if err != nil {
		return solana.Hash{}, &TransportError{Method: "getLatestBlockhash", Err: err}
	}
	return h, nil
}

// Account fetches one account, returning nil when the address does not
// exist at the client's commitment level.
func (c *RPCClient) Account(ctx context.Context, key solana.Pubkey) (*Account, error) {
	var res *AccountResult
	err := c.callValue(ctx, "getAccountInfo", []interface{}{
		key.String(),
		accountConfig{Encoding: "base64", Commitment: c.commitment},
	}, &res)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return decodeAccount("getAccountInfo", key, res)
}

// MultipleAccounts fetches a cohort in one call; missing accounts come
// back nil at their own index.
func (c *RPCClient) MultipleAccounts(ctx context.Context, keys []solana.Pubkey) ([]*Account, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	addrs := make([]string, len(keys))
	for i, k := range keys {
		addrs[i] = k.String()
	}
	var res []*AccountResult
	err := c.callValue(ctx, "getMultipleAccounts", []interface{}{
		addrs,
		accountConfig{Encoding: "base64", Commitment: c.commitment},
	}, &res)
	if err != nil {
		return nil, err
	}
	if len(res) != len(keys) {
		return nil, &TransportError{Method: "getMultipleAccounts", Err: fmt.Errorf("%d results for %d keys", len(res), len(keys))}
	}
	accounts := make([]*Account, len(keys))
	for i, r := range res {
		if r == nil {
			continue
		}
		acc, err := decodeAccount("getMultipleAccounts", keys[i], r)
		if err != nil {
			return nil, err
		}
		accounts[i] = acc
	}
	return accounts, nil
}

// RecentPrioritizationFees reports the node's recent priority-fee levels
// for transactions locking the given accounts.
func (c *RPCClient) RecentPrioritizationFees(ctx context.Context, keys []solana.Pubkey) ([]PrioritizationFee, error) {
	addrs := make([]string, len(keys))
	for i, k := range keys {
		addrs[i] = k.String()
	}
	var res []FeeResult
	if err := c.call(ctx, "getRecentPrioritizationFees", []interface{}{addrs}, &res); err != nil {
		return nil, err
	}
	fees := make([]PrioritizationFee, len(res))
	for i, f := range res {
		fees[i] = PrioritizationFee{Slot: f.Slot, MicroLamports: f.PrioritizationFee}
	}
	return fees, nil
}

func decodeAccount(method string, key solana.Pubkey, res *AccountResult) (*Account, error) {
	acc := &Account{
		Pubkey:     key,
		Lamports:   res.Lamports,
		Executable: res.Executable,
	}
	owner, err := solana.ParsePubkey(res.Owner)
	if err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}
	acc.Owner = owner
	if len(res.Data) > 0 && res.Data[0] != "" {
		data, err := base64.StdEncoding.DecodeString(res.Data[0])
		if err != nil {
			return nil, &TransportError{Method: method, Err: err}
		}
		acc.Data = data
	}
	return acc, nil
}

// renderTransactionError flattens the node's err field, either a bare
// string or a structured object, into one diagnostic line.
func renderTransactionError(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
