package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dotandev/solext/analytics"
	"github.com/dotandev/solext/rollup"
	"github.com/dotandev/solext/solana"
)

var (
	simulateFile    string
	simulateWorkers int
	simulateAnalyze bool
	simulateFee     bool
	simulateTag     string
	storePath       string
	matcherFile     string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Dry-run a batch of transactions and report per-transaction diagnostics",
	Long: `Reads base64 wire-encoded transactions, one per line, from --file or
stdin, simulates each one independently against the node, and prints one
result per input line in input order. A failing transaction never stops
the rest of the batch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		txs, err := readBatch(simulateFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if len(txs) == 0 {
			return fmt.Errorf("no transactions to simulate")
		}

		if simulateAnalyze || simulateTag != "" {
			return analyzeBatch(cmd, txs)
		}

		bar := newBar(len(txs), "simulating")
		ch := rollup.New(analytics.BatchAccounts(txs), newClient(),
			rollup.WithWorkers(simulateWorkers),
			rollup.WithOnResult(func(int, rollup.RawSimulationResult) { barAdd(bar) }),
		)
		results := ch.SimulateRaw(cmd.Context(), txs)
		barFinish(bar)

		for i, r := range results {
			status := "FAIL"
			if r.Success {
				status = "OK"
			}
			fmt.Printf("%3d %-4s %8d CU  %s\n", i, status, r.CU, r.Result)
		}
		return nil
	},
}

// analyzeBatch runs the classified path, optionally archiving the batch.
func analyzeBatch(cmd *cobra.Command, txs []*solana.Transaction) error {
	classifier, err := loadClassifier(matcherFile)
	if err != nil {
		return err
	}
	opts := []analytics.AnalyzerOption{analytics.WithClassifier(classifier)}
	if simulateWorkers > 0 {
		opts = append(opts, analytics.WithWorkers(simulateWorkers))
	}
	if simulateTag != "" {
		store, err := analytics.OpenStore(storePath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, analytics.WithStore(store))
	}

	analyzer := analytics.NewAnalyzer(newClient(), opts...)
	results, err := analyzer.AnalyzeTransactions(cmd.Context(), txs, analytics.Config{
		EstimateComputeUnits: true,
		CalculatePriorityFee: simulateFee,
		Tag:                  simulateTag,
	})
	if err != nil {
		return err
	}
	analytics.PrintBatchReport(simulateTag, results)
	return nil
}

// loadClassifier builds a classifier from a YAML table file, or the
// built-in table when path is empty.
func loadClassifier(path string) (*analytics.Classifier, error) {
	if path == "" {
		return analytics.NewClassifier(nil)
	}
	table, err := readMatcherTable(path)
	if err != nil {
		return nil, err
	}
	logrus.WithField("version", table.Version).Debug("matcher table loaded")
	return analytics.NewClassifier(table)
}

// readBatch decodes base64 transactions, one per line; blank lines and
// lines starting with # are skipped.
func readBatch(path string, stdin io.Reader) ([]*solana.Transaction, error) {
	in := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in = f
	}

	var txs []*solana.Transaction
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		s := strings.TrimSpace(scanner.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		tx, err := solana.DecodeBase64Transaction(s)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

// newBar returns a stderr progress bar, or nil when stderr is not a
// terminal so piped output stays clean.
func newBar(n int, label string) *progressbar.ProgressBar {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(label),
		progressbar.OptionClearOnFinish(),
	)
}

func barAdd(bar *progressbar.ProgressBar) {
	if bar != nil {
		bar.Add(1)
	}
}

func barFinish(bar *progressbar.ProgressBar) {
	if bar != nil {
		bar.Finish()
	}
}

func init() {
	simulateCmd.Flags().StringVarP(&simulateFile, "file", "f", "", "file of base64 transactions, one per line (default stdin)")
	simulateCmd.Flags().IntVar(&simulateWorkers, "workers", 0, "concurrent simulations (0 means the channel default)")
	simulateCmd.Flags().BoolVar(&simulateAnalyze, "analyze", false, "classify each result against the failure-matcher table")
	simulateCmd.Flags().BoolVar(&simulateFee, "fee", false, "price successful slots at the current priority-fee rate")
	simulateCmd.Flags().StringVar(&simulateTag, "tag", "", "archive the analyzed batch under this tag (implies --analyze)")
	simulateCmd.Flags().StringVar(&storePath, "store", "solext.db", "SQLite archive for tagged batches")
	simulateCmd.Flags().StringVar(&matcherFile, "matchers", "", "YAML failure-matcher table overriding the built-in one")
	rootCmd.AddCommand(simulateCmd)
}
