package rpcserver

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/dotandev/solext/analytics"
	"github.com/dotandev/solext/budget"
	"github.com/dotandev/solext/rollup"
	"github.com/dotandev/solext/simulator"
	"github.com/dotandev/solext/solana"
)

func invalidReq(format string, args ...interface{}) *json2.Error {
	return &json2.Error{Code: json2.E_INVALID_REQ, Message: fmt.Sprintf(format, args...)}
}

func decodeTransactions(encoded []string) ([]*solana.Transaction, *json2.Error) {
	txs := make([]*solana.Transaction, len(encoded))
	for i, s := range encoded {
		tx, err := solana.DecodeBase64Transaction(s)
		if err != nil {
			return nil, invalidReq("transaction %d: %v", i, err)
		}
		txs[i] = tx
	}
	return txs, nil
}

func decodePubkeys(encoded []string) ([]solana.Pubkey, *json2.Error) {
	keys := make([]solana.Pubkey, len(encoded))
	for i, s := range encoded {
		k, err := solana.ParsePubkey(s)
		if err != nil {
			return nil, invalidReq("account %d: %v", i, err)
		}
		keys[i] = k
	}
	return keys, nil
}

// SimulationService serves batch dry runs and analysis.
type SimulationService struct {
	client     simulator.Client
	analyzer   *analytics.Analyzer
	classifier *analytics.Classifier
	workers    int
}

// BatchSlot is the wire form of one raw batch result.
type BatchSlot struct {
	Success bool   `json:"success"`
	CU      uint64 `json:"cu"`
	Result  string `json:"result"`
}

// SimulateBatchArgs carries base64 wire-encoded transactions.
type SimulateBatchArgs struct {
	Transactions []string `json:"transactions"`
}

// SimulateBatchReply returns one slot per input transaction, in input
// order.
type SimulateBatchReply struct {
	Results []BatchSlot `json:"results"`
}

// SimulateBatch dry-runs the batch and returns raw per-slot results.
func (s *SimulationService) SimulateBatch(r *http.Request, args *SimulateBatchArgs, reply *SimulateBatchReply) error {
	txs, jerr := decodeTransactions(args.Transactions)
	if jerr != nil {
		return jerr
	}
	var opts []rollup.Option
	if s.workers > 0 {
		opts = append(opts, rollup.WithWorkers(s.workers))
	}
	ch := rollup.New(analytics.BatchAccounts(txs), s.client, opts...)
	raws := ch.SimulateRaw(r.Context(), txs)
	reply.Results = make([]BatchSlot, len(raws))
	for i, raw := range raws {
		reply.Results[i] = BatchSlot{Success: raw.Success, CU: raw.CU, Result: raw.Result}
	}
	return nil
}

// AnalyzedSlot is the wire form of one classified batch result.
type AnalyzedSlot struct {
	Status      string `json:"status"`
	CU          uint64 `json:"cu,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Message     string `json:"message,omitempty"`
	Reason      string `json:"reason,omitempty"`
	PriorityFee uint64 `json:"priorityFee,omitempty"`
}

// AnalyzeBatchArgs carries the batch plus the analysis configuration.
type AnalyzeBatchArgs struct {
	Transactions         []string `json:"transactions"`
	EstimateComputeUnits bool     `json:"estimateComputeUnits"`
	CalculatePriorityFee bool     `json:"calculatePriorityFee"`
	Tag                  string   `json:"tag,omitempty"`
}

// AnalyzeBatchReply returns classified slots plus the matcher table
// version that produced them.
type AnalyzeBatchReply struct {
	Results      []AnalyzedSlot `json:"results"`
	TableVersion string         `json:"tableVersion"`
}

// AnalyzeBatch dry-runs and classifies the batch; a tag archives it when
// the server carries a store.
func (s *SimulationService) AnalyzeBatch(r *http.Request, args *AnalyzeBatchArgs, reply *AnalyzeBatchReply) error {
	txs, jerr := decodeTransactions(args.Transactions)
	if jerr != nil {
		return jerr
	}
	results, err := s.analyzer.AnalyzeTransactions(r.Context(), txs, analytics.Config{
		EstimateComputeUnits: args.EstimateComputeUnits,
		CalculatePriorityFee: args.CalculatePriorityFee,
		Tag:                  args.Tag,
	})
	if err != nil {
		return err
	}
	reply.TableVersion = s.classifier.TableVersion()
	reply.Results = make([]AnalyzedSlot, len(results))
	for i, res := range results {
		reply.Results[i] = AnalyzedSlot{
			Status:      string(res.Status),
			CU:          res.CU,
			Kind:        string(res.Kind),
			Message:     res.Message,
			Reason:      res.Reason,
			PriorityFee: res.PriorityFee,
		}
	}
	return nil
}

// ValidateAccountsArgs carries a cohort of base58 addresses.
type ValidateAccountsArgs struct {
	Accounts []string `json:"accounts"`
}

// ValidateAccountsReply lists the cohort members missing from the ledger.
type ValidateAccountsReply struct {
	Missing []string `json:"missing"`
}

// ValidateAccounts checks cohort existence without simulating anything.
func (s *SimulationService) ValidateAccounts(r *http.Request, args *ValidateAccountsArgs, reply *ValidateAccountsReply) error {
	keys, jerr := decodePubkeys(args.Accounts)
	if jerr != nil {
		return jerr
	}
	ch := rollup.New(keys, s.client)
	err := ch.ValidateAccounts(r.Context())
	reply.Missing = []string{}
	if err == nil {
		return nil
	}
	var missing *rollup.MissingAccountsError
	if !errors.As(err, &missing) {
		return err
	}
	for _, k := range missing.Missing {
		reply.Missing = append(reply.Missing, k.String())
	}
	return nil
}

// BudgetService serves estimation and optimization.
type BudgetService struct {
	client    simulator.Client
	optimizer *budget.Optimizer
}

// OptimizeMessageArgs carries one base64 wire-encoded message.
type OptimizeMessageArgs struct {
	Message string `json:"message"`
}

// OptimizeMessageReply returns the rewritten message and the declared
// limit.
type OptimizeMessageReply struct {
	Message          string `json:"message"`
	ComputeUnitLimit uint32 `json:"computeUnitLimit"`
}

// OptimizeMessage estimates the message and rewrites it to declare the
// margin-adjusted unit limit.
func (b *BudgetService) OptimizeMessage(r *http.Request, args *OptimizeMessageArgs, reply *OptimizeMessageReply) error {
	raw, err := base64.StdEncoding.DecodeString(args.Message)
	if err != nil {
		return invalidReq("message: %v", err)
	}
	msg, err := solana.DeserializeMessage(raw)
	if err != nil {
		return invalidReq("message: %v", err)
	}
	rewritten, limit, err := b.optimizer.OptimizeMessage(r.Context(), msg)
	if err != nil {
		return err
	}
	out, err := rewritten.Serialize()
	if err != nil {
		return err
	}
	reply.Message = base64.StdEncoding.EncodeToString(out)
	reply.ComputeUnitLimit = limit
	return nil
}

// PriorityFeeArgs prices CU at the fee-market rate of the given accounts.
type PriorityFeeArgs struct {
	Accounts []string `json:"accounts"`
	CU       uint64   `json:"cu"`
}

// PriorityFeeReply returns the estimated fee in lamports.
type PriorityFeeReply struct {
	Lamports uint64 `json:"lamports"`
}

// PriorityFee estimates the priority fee for CU compute units.
func (b *BudgetService) PriorityFee(r *http.Request, args *PriorityFeeArgs, reply *PriorityFeeReply) error {
	keys, jerr := decodePubkeys(args.Accounts)
	if jerr != nil {
		return jerr
	}
	lamports, err := budget.EstimatePriorityFee(r.Context(), b.client, keys, args.CU)
	if err != nil {
		return err
	}
	reply.Lamports = lamports
	return nil
}
