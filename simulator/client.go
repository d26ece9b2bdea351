// Package simulator defines the node boundary the estimation and roll-up
// layers run against, and implements it over a ledger node's JSON-RPC API.
package simulator

import (
	"context"

	"github.com/dotandev/solext/solana"
)

// Outcome is the structured result of one dry run. A fresh value is
// produced per call and never reused; ledger state may change between
// calls.
type Outcome struct {
	// Err is empty when the simulated execution completed; otherwise it
	// carries the node's rendering of the transaction error.
	Err           string
	Logs          []string
	UnitsConsumed uint64
}

// Success reports whether the simulated execution completed without error.
func (o *Outcome) Success() bool { return o.Err == "" }

// Account is the observed on-ledger state of one address.
type Account struct {
	Pubkey     solana.Pubkey
	Lamports   uint64
	Owner      solana.Pubkey
	Data       []byte
	Executable bool
}

// PrioritizationFee is one slot's observed priority-fee level in
// micro-lamports per compute unit.
type PrioritizationFee struct {
	Slot          uint64
	MicroLamports uint64
}

// Client is the full node contract. Implementations must be safe for
// concurrent use; batch layers fan out over one shared client.
type Client interface {
	// SimulateTransaction dry-runs tx without committing any effect.
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*Outcome, error)
	// SendAndConfirm submits tx and blocks until the node confirms it.
	SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	// LatestBlockhash fetches a fresh blockhash for transaction assembly.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	// Account fetches one account, returning nil when it does not exist.
	Account(ctx context.Context, key solana.Pubkey) (*Account, error)
	// MultipleAccounts fetches a cohort; missing accounts come back nil
	// at their own index.
	MultipleAccounts(ctx context.Context, keys []solana.Pubkey) ([]*Account, error)
	// RecentPrioritizationFees reports the node's recent fee levels for
	// transactions touching the given accounts.
	RecentPrioritizationFees(ctx context.Context, keys []solana.Pubkey) ([]PrioritizationFee, error)
}
