package budget

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dotandev/solext/solana"
)

var tracer = otel.Tracer("solext/budget")

// Config tunes the safety margin applied on top of a dry-run estimate.
type Config struct {
	// MarginRatio scales the estimate; 0.10 adds ten percent headroom to
	// absorb runtime variance between estimation and execution.
	MarginRatio float64
	// MarginFixed adds a flat number of units after scaling.
	MarginFixed uint64
	// MaxUnits caps the final limit; zero means the protocol ceiling.
	MaxUnits uint32
}

// DefaultConfig is a ten percent proportional margin capped at the
// protocol ceiling.
func DefaultConfig() Config {
	return Config{MarginRatio: 0.10, MaxUnits: solana.MaxComputeUnitLimit}
}

// BudgetExceededError reports a target limit above the ceiling. The
// message is left untouched: truncating the limit instead would let the
// eventual execution run out of budget midway.
type BudgetExceededError struct {
	Estimated uint64
	Target    uint64
	Max       uint32
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("compute budget exceeded: target %d CU above the %d CU ceiling (estimated %d)",
		e.Target, e.Max, e.Estimated)
}

// Optimizer rewrites messages to declare the compute unit limit their
// estimated consumption plus margin calls for.
type Optimizer struct {
	sim Simulator
	cfg Config
}

// NewOptimizer builds an optimizer over sim. A zero MaxUnits falls back
// to the protocol ceiling; ratios and fixed margins are taken as given.
func NewOptimizer(sim Simulator, cfg Config) *Optimizer {
	if cfg.MaxUnits == 0 || cfg.MaxUnits > solana.MaxComputeUnitLimit {
		cfg.MaxUnits = solana.MaxComputeUnitLimit
	}
	if cfg.MarginRatio < 0 {
		cfg.MarginRatio = 0
	}
	return &Optimizer{sim: sim, cfg: cfg}
}

// target applies the configured margin to an estimate.
func (o *Optimizer) target(estimated uint64) uint64 {
	margin := uint64(math.Ceil(float64(estimated) * o.cfg.MarginRatio))
	return estimated + margin + o.cfg.MarginFixed
}

// OptimizeMessage estimates msg, applies the margin, and returns a new
// message declaring the final limit in exactly one unit-limit instruction:
// an existing one is replaced in place, otherwise one is inserted at the
// front so it takes effect before anything else executes. The input
// message is never modified. Re-running the optimizer on its output
// re-estimates (the declaration itself costs a few units) and lands
// within a small delta of the first limit instead of stacking
// declarations.
func (o *Optimizer) OptimizeMessage(ctx context.Context, msg *solana.Message) (*solana.Message, uint32, error) {
	ctx, span := tracer.Start(ctx, "budget.optimize")
	defer span.End()

	estimated, err := EstimateUnitsMessage(ctx, o.sim, msg)
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}
	target := o.target(estimated)
	span.SetAttributes(
		attribute.Int64("cu.estimated", int64(estimated)),
		attribute.Int64("cu.target", int64(target)),
	)
	if target > uint64(o.cfg.MaxUnits) {
		err := &BudgetExceededError{Estimated: estimated, Target: target, Max: o.cfg.MaxUnits}
		span.RecordError(err)
		return nil, 0, err
	}
	limit := uint32(target)

	declare := solana.SetComputeUnitLimit(limit)
	var rewritten *solana.Message
	if i := solana.FindComputeUnitLimit(msg); i >= 0 {
		rewritten, err = msg.WithInstructionReplaced(i, declare)
	} else {
		rewritten, err = msg.WithInstructionFront(declare)
	}
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}
	return rewritten, limit, nil
}

// OptimizeTransaction runs OptimizeMessage on the transaction's message
// and wraps the result unsigned; any signatures on the input would no
// longer cover the rewritten message.
func (o *Optimizer) OptimizeTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, uint32, error) {
	rewritten, limit, err := o.OptimizeMessage(ctx, tx.Message)
	if err != nil {
		return nil, 0, err
	}
	return solana.NewUnsignedTransaction(rewritten), limit, nil
}
