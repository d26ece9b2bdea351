// Package rpcserver exposes batch simulation, analysis and budget
// optimization over JSON-RPC 2.0.
package rpcserver

import (
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/sirupsen/logrus"

	"github.com/dotandev/solext/analytics"
	"github.com/dotandev/solext/budget"
	"github.com/dotandev/solext/simulator"
)

// Config assembles the server's collaborators.
type Config struct {
	// Client is the node boundary every service method runs against.
	Client simulator.Client
	// Store archives tagged analysis batches; nil disables persistence.
	Store *analytics.Store
	// Table overrides the built-in failure-matcher table.
	Table *analytics.MatcherTable
	// Budget tunes the optimizer's margin policy.
	Budget budget.Config
	// Workers bounds batch concurrency; zero means the channel default.
	Workers int
}

// NewHandler builds the JSON-RPC handler serving the Simulation and
// Budget services.
func NewHandler(cfg Config) (http.Handler, error) {
	classifier, err := analytics.NewClassifier(cfg.Table)
	if err != nil {
		return nil, err
	}

	opts := []analytics.AnalyzerOption{analytics.WithClassifier(classifier)}
	if cfg.Store != nil {
		opts = append(opts, analytics.WithStore(cfg.Store))
	}
	if cfg.Workers > 0 {
		opts = append(opts, analytics.WithWorkers(cfg.Workers))
	}

	srv := rpc.NewServer()
	srv.RegisterCodec(json2.NewCodec(), "application/json")
	err = srv.RegisterService(&SimulationService{
		client:     cfg.Client,
		analyzer:   analytics.NewAnalyzer(cfg.Client, opts...),
		classifier: classifier,
		workers:    cfg.Workers,
	}, "Simulation")
	if err != nil {
		return nil, err
	}
	err = srv.RegisterService(&BudgetService{
		client:    cfg.Client,
		optimizer: budget.NewOptimizer(cfg.Client, cfg.Budget),
	}, "Budget")
	if err != nil {
		return nil, err
	}
	return logged(srv), nil
}

// logged wraps the RPC handler with request logging.
func logged(next http.Handler) http.Handler {
	log := logrus.WithField("component", "rpcserver")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(logrus.Fields{
			"remote":   r.RemoteAddr,
			"duration": time.Since(start),
		}).Debug("request served")
	})
}
