package rpcserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/solext/simulator"
	"github.com/dotandev/solext/solana"
)

// mockNode keys scripted outcomes by the lamport amount of the
// transaction's transfer instruction, since decoded transactions are
// fresh values.
type mockNode struct {
	outcomes map[uint64]*simulator.Outcome
	accounts map[solana.Pubkey]*simulator.Account
	feeRate  uint64
}

func transferAmount(tx *solana.Transaction) uint64 {
	for _, ci := range tx.Message.Instructions {
		if int(ci.ProgramIDIndex) < len(tx.Message.AccountKeys) &&
			tx.Message.AccountKeys[ci.ProgramIDIndex] == solana.SystemProgramID &&
			len(ci.Data) == 12 {
			return binary.LittleEndian.Uint64(ci.Data[4:])
		}
	}
	return 0
}

func (m *mockNode) SimulateTransaction(_ context.Context, tx *solana.Transaction) (*simulator.Outcome, error) {
	if out, ok := m.outcomes[transferAmount(tx)]; ok {
		return out, nil
	}
	return &simulator.Outcome{UnitsConsumed: 100}, nil
}

func (m *mockNode) SendAndConfirm(context.Context, *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func (m *mockNode) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func (m *mockNode) Account(_ context.Context, key solana.Pubkey) (*simulator.Account, error) {
	return m.accounts[key], nil
}

func (m *mockNode) MultipleAccounts(_ context.Context, keys []solana.Pubkey) ([]*simulator.Account, error) {
	out := make([]*simulator.Account, len(keys))
	for i, k := range keys {
		out[i] = m.accounts[k]
	}
	return out, nil
}

func (m *mockNode) RecentPrioritizationFees(context.Context, []solana.Pubkey) ([]simulator.PrioritizationFee, error) {
	return []simulator.PrioritizationFee{{Slot: 1, MicroLamports: m.feeRate}}, nil
}

func encodedTransfer(t *testing.T, lamports uint64) string {
	t.Helper()
	msg, err := solana.NewTransferMessage(solana.Pubkey{1}, solana.Pubkey{2}, lamports, solana.Hash{})
	require.NoError(t, err)
	enc, err := solana.NewUnsignedTransaction(msg).MarshalBase64()
	require.NoError(t, err)
	return enc
}

func base64Of(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

func mustBase64(t *testing.T, s string) []byte {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	return raw
}

func callRPC(t *testing.T, srv *httptest.Server, method string, args, reply interface{}) error {
	t.Helper()
	body, err := json2.EncodeClientRequest(method, args)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	return json2.DecodeClientResponse(resp.Body, reply)
}

func newTestServer(t *testing.T, node *mockNode) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{Client: node})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestSimulateBatchOverRPC(t *testing.T) {
	node := &mockNode{outcomes: map[uint64]*simulator.Outcome{
		100: {UnitsConsumed: 900},
		200: {Err: "AccountNotFound"},
	}}
	srv := newTestServer(t, node)

	var reply SimulateBatchReply
	err := callRPC(t, srv, "Simulation.SimulateBatch", &SimulateBatchArgs{
		Transactions: []string{encodedTransfer(t, 100), encodedTransfer(t, 200)},
	}, &reply)
	require.NoError(t, err)

	require.Len(t, reply.Results, 2)
	require.True(t, reply.Results[0].Success)
	require.Equal(t, uint64(900), reply.Results[0].CU)
	require.False(t, reply.Results[1].Success)
	require.Contains(t, reply.Results[1].Result, "AccountNotFound")
}

func TestSimulateBatchRejectsBadEncoding(t *testing.T) {
	srv := newTestServer(t, &mockNode{})

	var reply SimulateBatchReply
	err := callRPC(t, srv, "Simulation.SimulateBatch", &SimulateBatchArgs{
		Transactions: []string{"not base64!!"},
	}, &reply)
	require.Error(t, err)
}

func TestAnalyzeBatchOverRPC(t *testing.T) {
	node := &mockNode{outcomes: map[uint64]*simulator.Outcome{
		100: {UnitsConsumed: 777},
	}}
	srv := newTestServer(t, node)

	var reply AnalyzeBatchReply
	err := callRPC(t, srv, "Simulation.AnalyzeBatch", &AnalyzeBatchArgs{
		Transactions:         []string{encodedTransfer(t, 100)},
		EstimateComputeUnits: true,
	}, &reply)
	require.NoError(t, err)
	require.Equal(t, "1.0.0", reply.TableVersion)
	require.Len(t, reply.Results, 1)
	require.Equal(t, "succeeded", reply.Results[0].Status)
	require.Equal(t, uint64(777), reply.Results[0].CU)
}

func TestAnalyzeBatchSkipsWhenDisabled(t *testing.T) {
	srv := newTestServer(t, &mockNode{})

	var reply AnalyzeBatchReply
	err := callRPC(t, srv, "Simulation.AnalyzeBatch", &AnalyzeBatchArgs{
		Transactions: []string{encodedTransfer(t, 100)},
	}, &reply)
	require.NoError(t, err)
	require.Equal(t, "skipped", reply.Results[0].Status)
	require.NotEmpty(t, reply.Results[0].Reason)
}

func TestValidateAccountsOverRPC(t *testing.T) {
	present := solana.Pubkey{5}
	node := &mockNode{accounts: map[solana.Pubkey]*simulator.Account{
		present: {Pubkey: present, Lamports: 1},
	}}
	srv := newTestServer(t, node)

	missing := solana.Pubkey{6}
	var reply ValidateAccountsReply
	err := callRPC(t, srv, "Simulation.ValidateAccounts", &ValidateAccountsArgs{
		Accounts: []string{present.String(), missing.String()},
	}, &reply)
	require.NoError(t, err)
	require.Equal(t, []string{missing.String()}, reply.Missing)
}

func TestOptimizeMessageOverRPC(t *testing.T) {
	node := &mockNode{outcomes: map[uint64]*simulator.Outcome{
		100: {UnitsConsumed: 50_000},
	}}
	srv := newTestServer(t, node)

	msg, err := solana.NewTransferMessage(solana.Pubkey{1}, solana.Pubkey{2}, 100, solana.Hash{})
	require.NoError(t, err)
	raw, err := msg.Serialize()
	require.NoError(t, err)

	var reply OptimizeMessageReply
	err = callRPC(t, srv, "Budget.OptimizeMessage", &OptimizeMessageArgs{
		Message: base64Of(raw),
	}, &reply)
	require.NoError(t, err)
	require.Equal(t, uint32(55_000), reply.ComputeUnitLimit)

	rewritten, err := solana.DeserializeMessage(mustBase64(t, reply.Message))
	require.NoError(t, err)
	require.Equal(t, 0, solana.FindComputeUnitLimit(rewritten))
}

func TestPriorityFeeOverRPC(t *testing.T) {
	srv := newTestServer(t, &mockNode{feeRate: 2})

	var reply PriorityFeeReply
	err := callRPC(t, srv, "Budget.PriorityFee", &PriorityFeeArgs{
		Accounts: []string{solana.Pubkey{1}.String()},
		CU:       1_000_000,
	}, &reply)
	require.NoError(t, err)
	require.Equal(t, uint64(2), reply.Lamports)
}
