package cmd

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dotandev/solext/analytics"
	"github.com/dotandev/solext/budget"
	"github.com/dotandev/solext/internal/rpcserver"
)

var (
	serveListen   string
	serveWorkers  int
	serveStore    string
	serveMatchers string
	serveMargin   float64
	serveFixed    uint64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve batch simulation, analysis and optimization over JSON-RPC",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := rpcserver.Config{
			Client: newClient(),
			Budget: budget.Config{
				MarginRatio: serveMargin,
				MarginFixed: serveFixed,
			},
			Workers: serveWorkers,
		}
		if serveStore != "" {
			store, err := analytics.OpenStore(serveStore)
			if err != nil {
				return err
			}
			defer store.Close()
			cfg.Store = store
		}
		if serveMatchers != "" {
			table, err := readMatcherTable(serveMatchers)
			if err != nil {
				return err
			}
			cfg.Table = table
		}

		handler, err := rpcserver.NewHandler(cfg)
		if err != nil {
			return err
		}
		mux := http.NewServeMux()
		mux.Handle("/rpc", handler)
		srv := &http.Server{
			Addr:              serveListen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		logrus.WithField("listen", serveListen).Info("JSON-RPC server starting")
		return srv.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", ":8080", "listen address")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "concurrent simulations per batch (0 means the channel default)")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "SQLite archive for tagged batches (empty disables persistence)")
	serveCmd.Flags().StringVar(&serveMatchers, "matchers", "", "YAML failure-matcher table overriding the built-in one")
	serveCmd.Flags().Float64Var(&serveMargin, "margin", 0.10, "proportional safety margin on top of estimates")
	serveCmd.Flags().Uint64Var(&serveFixed, "margin-fixed", 0, "flat compute units added after scaling")
	rootCmd.AddCommand(serveCmd)
}
