package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotandev/solext/budget"
	"github.com/dotandev/solext/solana"
)

var (
	feeAccounts []string
	feeCU       uint64
)

var feeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Price a compute-unit amount at the node's recent priority-fee rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := make([]solana.Pubkey, len(feeAccounts))
		for i, s := range feeAccounts {
			k, err := solana.ParsePubkey(s)
			if err != nil {
				return fmt.Errorf("account %d: %w", i, err)
			}
			keys[i] = k
		}

		ctx := cmd.Context()
		client := newClient()
		rate, err := budget.PriorityFeeRate(ctx, client, keys)
		if err != nil {
			return err
		}
		fmt.Printf("rate: %d micro-lamports/CU\n", rate)
		if feeCU > 0 {
			fmt.Printf("fee for %d CU: %d lamports\n", feeCU, budget.FeeForCU(rate, feeCU))
		}
		return nil
	},
}

func init() {
	feeCmd.Flags().StringSliceVar(&feeAccounts, "accounts", nil, "accounts the transaction would lock")
	feeCmd.Flags().Uint64Var(&feeCU, "cu", 0, "compute units to price at the observed rate")
	rootCmd.AddCommand(feeCmd)
}
