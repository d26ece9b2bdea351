package budget

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotandev/solext/simulator"
	"github.com/dotandev/solext/solana"
)

// mockSim scripts the node boundary. When baseCU is set, it reports that
// consumption plus declareCost if the simulated message already declares
// a unit limit, mirroring how the declaration itself is metered.
type mockSim struct {
	outcome     *simulator.Outcome
	err         error
	baseCU      uint64
	declareCost uint64
	calls       int
	lastTx      *solana.Transaction
}

func (m *mockSim) SimulateTransaction(_ context.Context, tx *solana.Transaction) (*simulator.Outcome, error) {
	m.calls++
	m.lastTx = tx
	if m.err != nil {
		return nil, m.err
	}
	if m.outcome != nil {
		return m.outcome, nil
	}
	cu := m.baseCU
	if solana.FindComputeUnitLimit(tx.Message) >= 0 {
		cu += m.declareCost
	}
	return &simulator.Outcome{UnitsConsumed: cu}, nil
}

func transferMessage(t *testing.T) *solana.Message {
	t.Helper()
	payer := solana.Pubkey{1}
	msg, err := solana.NewTransferMessage(payer, solana.Pubkey{2}, 1000, solana.Hash{3})
	require.NoError(t, err)
	return msg
}

func TestEstimateUnitsMessage(t *testing.T) {
	sim := &mockSim{outcome: &simulator.Outcome{UnitsConsumed: 4200}}
	cu, err := EstimateUnitsMessage(context.Background(), sim, transferMessage(t))
	require.NoError(t, err)
	require.Equal(t, uint64(4200), cu)
	require.Equal(t, 1, sim.calls)
	require.Len(t, sim.lastTx.Signatures, 1)
	require.True(t, sim.lastTx.Signatures[0].IsZero())
}

func TestEstimateUnitsMessageRejectsInvalidMessage(t *testing.T) {
	sim := &mockSim{}
	_, err := EstimateUnitsMessage(context.Background(), sim, &solana.Message{})
	require.ErrorIs(t, err, solana.ErrNoFeePayer)
	require.Zero(t, sim.calls)
}

func TestEstimateUnitsExecutionFailure(t *testing.T) {
	sim := &mockSim{outcome: &simulator.Outcome{
		Err:           `{"InstructionError":[0,{"Custom":1}]}`,
		Logs:          []string{"Transfer: insufficient lamports 0, need 1000"},
		UnitsConsumed: 150,
	}}
	_, err := EstimateUnitsMessage(context.Background(), sim, transferMessage(t))
	var ee *simulator.ExecutionError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, uint64(150), ee.UnitsConsumed)
	require.Contains(t, ee.Error(), "insufficient lamports")
}

func TestEstimateUnitsTransportFailure(t *testing.T) {
	want := &simulator.TransportError{Method: "simulateTransaction", Err: errors.New("connection refused")}
	sim := &mockSim{err: want}
	_, err := EstimateUnitsMessage(context.Background(), sim, transferMessage(t))
	var te *simulator.TransportError
	require.ErrorAs(t, err, &te)
	require.Same(t, want, te)
}
