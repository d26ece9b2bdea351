// Package budget estimates the compute units a transaction consumes and
// rewrites messages to declare a matching limit.
package budget

import (
	"context"

	"github.com/dotandev/solext/simulator"
	"github.com/dotandev/solext/solana"
)

// Simulator is the single node call estimation needs.
type Simulator interface {
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*simulator.Outcome, error)
}

// EstimateUnitsMessage dry-runs msg once and returns the compute units the
// run consumed. The message is wrapped in an unsigned transaction; the
// node verifies no signatures and substitutes a live blockhash, so no
// other round trip happens. A *simulator.TransportError means the call
// never completed; a *simulator.ExecutionError means the transaction's own
// logic failed.
func EstimateUnitsMessage(ctx context.Context, sim Simulator, msg *solana.Message) (uint64, error) {
	if err := msg.Validate(); err != nil {
		return 0, err
	}
	return EstimateUnits(ctx, sim, solana.NewUnsignedTransaction(msg))
}

// EstimateUnits is EstimateUnitsMessage for an already-wrapped unsigned
// transaction.
func EstimateUnits(ctx context.Context, sim Simulator, tx *solana.Transaction) (uint64, error) {
	out, err := sim.SimulateTransaction(ctx, tx)
	if err != nil {
		return 0, err
	}
	if !out.Success() {
		return 0, &simulator.ExecutionError{
			Detail:        out.Err,
			Logs:          out.Logs,
			UnitsConsumed: out.UnitsConsumed,
		}
	}
	return out.UnitsConsumed, nil
}
