package analytics

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dotandev/solext/budget"
	"github.com/dotandev/solext/rollup"
	"github.com/dotandev/solext/simulator"
	"github.com/dotandev/solext/solana"
)

var tracer = otel.Tracer("solext/analytics")

// Config controls what one analysis pass computes per slot.
type Config struct {
	// EstimateComputeUnits gates the dry runs themselves; when false,
	// every slot comes back skipped.
	EstimateComputeUnits bool
	// CalculatePriorityFee prices each successful slot's units at the
	// current fee-market rate.
	CalculatePriorityFee bool
	// Tag archives the batch under this name when the analyzer has a
	// store; empty means no persistence.
	Tag string
}

const skipReasonEstimationDisabled = "compute unit estimation disabled"

// Analyzer drives batches through the roll-up channel and classifies the
// outcome of every slot.
type Analyzer struct {
	client     simulator.Client
	classifier *Classifier
	store      *Store
	workers    int
	log        *logrus.Entry
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithClassifier swaps the built-in matcher table.
func WithClassifier(c *Classifier) AnalyzerOption {
	return func(a *Analyzer) { a.classifier = c }
}

// WithStore attaches a result archive; batches carrying a tag are saved
// to it.
func WithStore(s *Store) AnalyzerOption {
	return func(a *Analyzer) { a.store = s }
}

// WithWorkers bounds the concurrency of the underlying batch simulation.
func WithWorkers(n int) AnalyzerOption {
	return func(a *Analyzer) { a.workers = n }
}

// NewAnalyzer builds an analyzer over client with the built-in matcher
// table.
func NewAnalyzer(client simulator.Client, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		client: client,
		log:    logrus.WithField("component", "analytics"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.classifier == nil {
		// The built-in table always validates.
		a.classifier, _ = NewClassifier(nil)
	}
	return a
}

// BatchAccounts returns the union of account keys the batch references,
// in first-appearance order. This is the cohort batch channels validate
// and fee estimation prices against.
func BatchAccounts(txs []*solana.Transaction) []solana.Pubkey {
	seen := make(map[solana.Pubkey]struct{})
	var cohort []solana.Pubkey
	for _, tx := range txs {
		if tx == nil || tx.Message == nil {
			continue
		}
		for _, k := range tx.Message.AccountKeys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			cohort = append(cohort, k)
		}
	}
	return cohort
}

// AnalyzeTransactions runs the batch per cfg and returns one analysis
// slot per transaction, order-preserving. With estimation disabled every
// slot is skipped and the node is never contacted. A fee-market lookup
// failure downgrades to a log line rather than discarding the batch; a
// store failure returns the computed results together with the error.
func (a *Analyzer) AnalyzeTransactions(ctx context.Context, txs []*solana.Transaction, cfg Config) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "analytics.analyze_batch")
	defer span.End()
	span.SetAttributes(
		attribute.Int("batch.size", len(txs)),
		attribute.String("batch.tag", cfg.Tag),
	)

	results := make([]Result, len(txs))
	if !cfg.EstimateComputeUnits {
		for i := range results {
			results[i] = Skipped(skipReasonEstimationDisabled)
		}
		return a.persist(ctx, cfg, results)
	}

	cohort := BatchAccounts(txs)
	var chOpts []rollup.Option
	if a.workers > 0 {
		chOpts = append(chOpts, rollup.WithWorkers(a.workers))
	}
	ch := rollup.New(cohort, a.client, chOpts...)
	raws := ch.SimulateRaw(ctx, txs)
	for i, raw := range raws {
		results[i] = a.classifier.Classify(raw)
	}

	if cfg.CalculatePriorityFee {
		rate, err := budget.PriorityFeeRate(ctx, a.client, cohort)
		if err != nil {
			a.log.WithError(err).Warn("priority fee lookup failed; fees omitted")
		} else {
			for i := range results {
				if results[i].Status == StatusSucceeded {
					results[i].PriorityFee = budget.FeeForCU(rate, results[i].CU)
				}
			}
		}
	}
	return a.persist(ctx, cfg, results)
}

func (a *Analyzer) persist(ctx context.Context, cfg Config, results []Result) ([]Result, error) {
	if a.store == nil || cfg.Tag == "" {
		return results, nil
	}
	id, err := a.store.SaveBatch(ctx, cfg.Tag, results)
	if err != nil {
		return results, fmt.Errorf("save batch %q: %w", cfg.Tag, err)
	}
	a.log.WithFields(logrus.Fields{"batch": id, "tag": cfg.Tag}).Info("batch archived")
	return results, nil
}
