package budget

import (
	"context"
	"math"
	"math/bits"

	"github.com/dotandev/solext/simulator"
	"github.com/dotandev/solext/solana"
)

// FeeSource is the node call priority-fee estimation needs.
type FeeSource interface {
	RecentPrioritizationFees(ctx context.Context, keys []solana.Pubkey) ([]simulator.PrioritizationFee, error)
}

// PriorityFeeRate returns the highest per-unit rate, in micro-lamports
// per CU, seen in the node's recent fee window for transactions locking
// the given accounts. A quiet fee market yields zero.
func PriorityFeeRate(ctx context.Context, src FeeSource, accounts []solana.Pubkey) (uint64, error) {
	fees, err := src.RecentPrioritizationFees(ctx, accounts)
	if err != nil {
		return 0, err
	}
	var highest uint64
	for _, f := range fees {
		if f.MicroLamports > highest {
			highest = f.MicroLamports
		}
	}
	return highest, nil
}

// FeeForCU prices cu compute units at a micro-lamports-per-CU rate,
// in lamports, saturating instead of overflowing.
func FeeForCU(rate, cu uint64) uint64 {
	hi, lo := bits.Mul64(rate, cu)
	if hi >= 1_000_000 {
		return math.MaxUint64
	}
	lamports, _ := bits.Div64(hi, lo, 1_000_000)
	return lamports
}

// EstimatePriorityFee prices cu compute units at the current highest
// per-unit rate for the given accounts.
func EstimatePriorityFee(ctx context.Context, src FeeSource, accounts []solana.Pubkey, cu uint64) (uint64, error) {
	rate, err := PriorityFeeRate(ctx, src, accounts)
	if err != nil {
		return 0, err
	}
	return FeeForCU(rate, cu), nil
}
