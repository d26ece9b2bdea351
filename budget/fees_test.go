package budget

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotandev/solext/simulator"
	"github.com/dotandev/solext/solana"
)

type mockFeeSource struct {
	fees []simulator.PrioritizationFee
	err  error
}

func (m *mockFeeSource) RecentPrioritizationFees(context.Context, []solana.Pubkey) ([]simulator.PrioritizationFee, error) {
	return m.fees, m.err
}

func TestEstimatePriorityFeeUsesHighestRate(t *testing.T) {
	src := &mockFeeSource{fees: []simulator.PrioritizationFee{
		{Slot: 1, MicroLamports: 300},
		{Slot: 2, MicroLamports: 1200},
		{Slot: 3, MicroLamports: 700},
	}}
	lamports, err := EstimatePriorityFee(context.Background(), src, nil, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, uint64(1200), lamports)
}

func TestEstimatePriorityFeeRoundsDown(t *testing.T) {
	src := &mockFeeSource{fees: []simulator.PrioritizationFee{{Slot: 1, MicroLamports: 3}}}
	lamports, err := EstimatePriorityFee(context.Background(), src, nil, 250_000)
	require.NoError(t, err)
	// 3 micro-lamports per CU over 250k CU is 0.75 lamports.
	require.Equal(t, uint64(0), lamports)
}

func TestEstimatePriorityFeeQuietMarket(t *testing.T) {
	src := &mockFeeSource{fees: []simulator.PrioritizationFee{{Slot: 1}, {Slot: 2}}}
	lamports, err := EstimatePriorityFee(context.Background(), src, nil, 200_000)
	require.NoError(t, err)
	require.Zero(t, lamports)
}

func TestEstimatePriorityFeeSaturates(t *testing.T) {
	src := &mockFeeSource{fees: []simulator.PrioritizationFee{{Slot: 1, MicroLamports: math.MaxUint64}}}
	lamports, err := EstimatePriorityFee(context.Background(), src, nil, math.MaxUint64)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), lamports)
}

func TestEstimatePriorityFeePropagatesError(t *testing.T) {
	src := &mockFeeSource{err: errors.New("node down")}
	_, err := EstimatePriorityFee(context.Background(), src, nil, 1000)
	require.Error(t, err)
}
