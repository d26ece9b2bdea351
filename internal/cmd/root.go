// Package cmd wires the solext library into its command line surface.
package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dotandev/solext/internal/telemetry"
	"github.com/dotandev/solext/simulator"
)

var (
	rpcEndpoint    string // Solana node JSON-RPC endpoint
	commitment     string // commitment level for node reads
	logLevel       string // log verbosity level
	otlpEndpoint   string // OTLP/HTTP collector; empty disables tracing
	confirmTimeout time.Duration

	shutdownTracing func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "solext",
	Short: "Compute-budget estimation, optimization and roll-up batch simulation for Solana transactions",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)

		shutdownTracing, err = telemetry.Setup(cmd.Context(), otlpEndpoint, "solext")
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTracing == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdownTracing(ctx)
	},
	SilenceUsage: true,
}

// newClient builds the node client every subcommand runs against.
func newClient() *simulator.RPCClient {
	return simulator.NewRPCClient(rpcEndpoint,
		simulator.WithCommitment(commitment),
		simulator.WithConfirmTimeout(confirmTimeout),
	)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rpcEndpoint, "rpc", "http://127.0.0.1:8899", "Solana node JSON-RPC endpoint")
	rootCmd.PersistentFlags().StringVar(&commitment, "commitment", "confirmed", "commitment level for node calls")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp", "", "OTLP/HTTP trace collector endpoint (empty disables tracing)")
	rootCmd.PersistentFlags().DurationVar(&confirmTimeout, "confirm-timeout", 60*time.Second, "how long to wait for transaction confirmation")
}
