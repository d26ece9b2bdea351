// Package rollup batches transactions through dry-run simulation and
// submission, producing one independent result per input.
//
// Batch members share no execution state: each transaction is evaluated
// against whatever ledger state its own call observes, and a transaction
// never sees the effects of an earlier member unless the ledger itself
// applied them first (sequential submission). Callers needing atomicity
// must build it elsewhere; a batch here is a grouping convenience.
package rollup

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dotandev/solext/simulator"
	"github.com/dotandev/solext/solana"
)

var tracer = otel.Tracer("solext/rollup")

const defaultWorkers = 8

// Client is the node surface the channel drives.
type Client interface {
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*simulator.Outcome, error)
	SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	Account(ctx context.Context, key solana.Pubkey) (*simulator.Account, error)
	MultipleAccounts(ctx context.Context, keys []solana.Pubkey) ([]*simulator.Account, error)
}

// Channel processes ordered batches against one account cohort and one
// shared client. Construction performs no network activity; a channel may
// be reused across batches while the cohort and client stay valid.
type Channel struct {
	accounts []solana.Pubkey
	client   Client
	loader   *simulator.AccountLoader
	workers  int
	onResult func(i int, r RawSimulationResult)
	log      *logrus.Entry
}

// Option configures a Channel.
type Option func(*Channel)

// WithWorkers bounds how many simulations run at once.
func WithWorkers(n int) Option {
	return func(ch *Channel) {
		if n > 0 {
			ch.workers = n
		}
	}
}

// WithOnResult registers a callback invoked as each slot completes, in
// completion order. The callback must be safe for concurrent use.
func WithOnResult(fn func(i int, r RawSimulationResult)) Option {
	return func(ch *Channel) { ch.onResult = fn }
}

// New builds a channel over the account cohort the batch references.
func New(accounts []solana.Pubkey, client Client, opts ...Option) *Channel {
	ch := &Channel{
		accounts: accounts,
		client:   client,
		loader:   simulator.NewAccountLoader(client),
		workers:  defaultWorkers,
		log:      logrus.WithField("component", "rollup"),
	}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// MissingAccountsError reports cohort members absent from the ledger.
type MissingAccountsError struct {
	Missing []solana.Pubkey
}

func (e *MissingAccountsError) Error() string {
	addrs := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		addrs[i] = k.String()
	}
	return fmt.Sprintf("accounts not found: %s", strings.Join(addrs, ", "))
}

// ValidateAccounts checks that every cohort member exists on the ledger.
// Read-only; lookups are cached across calls on the same channel.
func (ch *Channel) ValidateAccounts(ctx context.Context) error {
	found, err := ch.loader.LoadAll(ctx, ch.accounts)
	if err != nil {
		return err
	}
	var missing []solana.Pubkey
	for _, k := range ch.accounts {
		if _, ok := found[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &MissingAccountsError{Missing: missing}
	}
	return nil
}

// SimulateRaw dry-runs the batch and returns one result per transaction.
// result[i] always belongs to txs[i] no matter in which order slots
// complete, and a failing slot never aborts the rest: transport and
// execution failures alike are captured into their own entry. Work fans
// out across the channel's worker bound; a stalled slot does not block
// collection of the others.
func (ch *Channel) SimulateRaw(ctx context.Context, txs []*solana.Transaction) []RawSimulationResult {
	ctx, span := tracer.Start(ctx, "rollup.simulate_batch", trace.WithAttributes(
		attribute.Int("batch.size", len(txs)),
		attribute.Int("batch.workers", ch.workers),
	))
	defer span.End()

	results := make([]RawSimulationResult, len(txs))
	sem := make(chan struct{}, ch.workers)
	var wg sync.WaitGroup
	for i, tx := range txs {
		wg.Add(1)
		go func(i int, tx *solana.Transaction) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			r := ch.simulateOne(ctx, tx)
			results[i] = r
			ch.log.WithFields(logrus.Fields{"index": i, "success": r.Success, "cu": r.CU}).Debug("slot simulated")
			if ch.onResult != nil {
				ch.onResult(i, r)
			}
		}(i, tx)
	}
	wg.Wait()
	return results
}

func (ch *Channel) simulateOne(ctx context.Context, tx *solana.Transaction) RawSimulationResult {
	out, err := ch.client.SimulateTransaction(ctx, tx)
	if err != nil {
		return Fail(err)
	}
	if out == nil {
		return NoResults()
	}
	if !out.Success() {
		return Fail(&simulator.ExecutionError{
			Detail:        out.Err,
			Logs:          out.Logs,
			UnitsConsumed: out.UnitsConsumed,
		})
	}
	return Succeed(out.UnitsConsumed)
}

// ProcessTransfers dry-runs and then submits each transaction in input
// order, waiting for confirmation before moving on; the ledger applies
// members sequentially, which is the only intra-batch ordering offered.
// Submission failures land in the transaction's own slot like simulation
// failures do.
func (ch *Channel) ProcessTransfers(ctx context.Context, txs []*solana.Transaction) []RawSimulationResult {
	ctx, span := tracer.Start(ctx, "rollup.process_transfers", trace.WithAttributes(
		attribute.Int("batch.size", len(txs)),
	))
	defer span.End()

	results := make([]RawSimulationResult, len(txs))
	for i, tx := range txs {
		r := ch.processOne(ctx, tx)
		results[i] = r
		if ch.onResult != nil {
			ch.onResult(i, r)
		}
	}
	return results
}

func (ch *Channel) processOne(ctx context.Context, tx *solana.Transaction) RawSimulationResult {
	r := ch.simulateOne(ctx, tx)
	if !r.Success {
		return r
	}
	sig, err := ch.client.SendAndConfirm(ctx, tx)
	if err != nil {
		return Fail(err)
	}
	ch.log.WithField("signature", sig.String()).Info("transfer confirmed")
	return r
}
