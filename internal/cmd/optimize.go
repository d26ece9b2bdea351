package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotandev/solext/budget"
	"github.com/dotandev/solext/solana"
)

var (
	optimizeFile   string
	marginRatio    float64
	marginFixed    uint64
	maxUnits       uint32
	optimizeInline string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Estimate a transaction's compute units and rewrite it to declare a matching limit",
	Long: `Reads one base64 wire-encoded unsigned transaction, dry-runs it to
measure consumption, and prints the rewritten transaction carrying
exactly one compute-unit-limit declaration sized estimate plus margin.
Existing signatures no longer cover the rewritten message; re-sign
before submitting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := readOneTransaction(optimizeInline, optimizeFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		opt := budget.NewOptimizer(newClient(), budget.Config{
			MarginRatio: marginRatio,
			MarginFixed: marginFixed,
			MaxUnits:    maxUnits,
		})
		rewritten, limit, err := opt.OptimizeTransaction(cmd.Context(), tx)
		if err != nil {
			return err
		}
		encoded, err := rewritten.MarshalBase64()
		if err != nil {
			return err
		}
		fmt.Printf("compute unit limit: %d\n", limit)
		fmt.Println(encoded)
		return nil
	},
}

// readOneTransaction takes the transaction from the inline flag, a file,
// or stdin, in that order of preference.
func readOneTransaction(inline, path string, stdin io.Reader) (*solana.Transaction, error) {
	if inline != "" {
		return solana.DecodeBase64Transaction(inline)
	}
	in := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in = f
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	return solana.DecodeBase64Transaction(strings.TrimSpace(string(data)))
}

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeFile, "file", "f", "", "file holding one base64 transaction (default stdin)")
	optimizeCmd.Flags().StringVar(&optimizeInline, "tx", "", "base64 transaction passed inline")
	optimizeCmd.Flags().Float64Var(&marginRatio, "margin", 0.10, "proportional safety margin on top of the estimate")
	optimizeCmd.Flags().Uint64Var(&marginFixed, "margin-fixed", 0, "flat compute units added after scaling")
	optimizeCmd.Flags().Uint32Var(&maxUnits, "max-units", 0, "limit ceiling (0 means the protocol maximum)")
	rootCmd.AddCommand(optimizeCmd)
}
