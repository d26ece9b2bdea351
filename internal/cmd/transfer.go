package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dotandev/solext/analytics"
	"github.com/dotandev/solext/budget"
	"github.com/dotandev/solext/rollup"
	"github.com/dotandev/solext/solana"
)

var (
	transferKeyfile  string
	transferTo       string
	transferLamports uint64
	transferValidate bool
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Build, optimize, sign and submit a system transfer",
	RunE: func(cmd *cobra.Command, args []string) error {
		payer, err := solana.LoadKeypair(transferKeyfile)
		if err != nil {
			return err
		}
		recipient, err := solana.ParsePubkey(transferTo)
		if err != nil {
			return fmt.Errorf("recipient: %w", err)
		}

		ctx := cmd.Context()
		client := newClient()
		blockhash, err := client.LatestBlockhash(ctx)
		if err != nil {
			return err
		}
		msg, err := solana.NewTransferMessage(payer.Pubkey(), recipient, transferLamports, blockhash)
		if err != nil {
			return err
		}

		opt := budget.NewOptimizer(client, budget.Config{
			MarginRatio: marginRatio,
			MarginFixed: marginFixed,
		})
		optimized, limit, err := opt.OptimizeMessage(ctx, msg)
		if err != nil {
			return err
		}
		logrus.WithField("cu_limit", limit).Info("budget attached")

		tx := solana.NewUnsignedTransaction(optimized)
		if err := tx.Sign(payer); err != nil {
			return err
		}

		ch := rollup.New(analytics.BatchAccounts([]*solana.Transaction{tx}), client)
		if transferValidate {
			if err := ch.ValidateAccounts(ctx); err != nil {
				return err
			}
		}
		results := ch.ProcessTransfers(ctx, []*solana.Transaction{tx})
		r := results[0]
		if !r.Success {
			return fmt.Errorf("transfer failed: %s", r.Result)
		}
		fmt.Printf("transfer confirmed, %d CU consumed\n", r.CU)
		return nil
	},
}

func init() {
	transferCmd.Flags().StringVar(&transferKeyfile, "from", "", "payer keyfile (Solana CLI JSON format)")
	transferCmd.Flags().StringVar(&transferTo, "to", "", "recipient address")
	transferCmd.Flags().Uint64Var(&transferLamports, "lamports", 0, "amount to transfer")
	transferCmd.Flags().BoolVar(&transferValidate, "validate", false, "check referenced accounts exist before submitting")
	transferCmd.Flags().Float64Var(&marginRatio, "margin", 0.10, "proportional safety margin on top of the estimate")
	transferCmd.Flags().Uint64Var(&marginFixed, "margin-fixed", 0, "flat compute units added after scaling")
	transferCmd.MarkFlagRequired("from")
	transferCmd.MarkFlagRequired("to")
	transferCmd.MarkFlagRequired("lamports")
	rootCmd.AddCommand(transferCmd)
}
