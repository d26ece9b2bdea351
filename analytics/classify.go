// Package analytics classifies raw batch outcomes into tagged analysis
// results and archives them for later inspection.
package analytics

import (
	"fmt"
	"io"
	"strings"

	goversion "github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/dotandev/solext/rollup"
)

// FailureKind names one category of transaction failure.
type FailureKind string

const (
	KindInsufficientFunds FailureKind = "insufficient_funds"
	KindAccountNotFound   FailureKind = "account_not_found"
	KindBlockhashNotFound FailureKind = "blockhash_not_found"
	KindSignatureFailure  FailureKind = "signature_failure"
	KindBudgetExceeded    FailureKind = "budget_exceeded"
	KindProgramFailed     FailureKind = "program_failed"
	KindInstructionError  FailureKind = "instruction_error"
	KindUnknown           FailureKind = "unknown"
)

var knownKinds = map[FailureKind]struct{}{
	KindInsufficientFunds: {},
	KindAccountNotFound:   {},
	KindBlockhashNotFound: {},
	KindSignatureFailure:  {},
	KindBudgetExceeded:    {},
	KindProgramFailed:     {},
	KindInstructionError:  {},
	KindUnknown:           {},
}

// Matcher binds one failure signature to the kind it indicates. Matching
// is a case-insensitive substring test against the raw result line.
type Matcher struct {
	Kind      FailureKind `yaml:"kind"`
	Signature string      `yaml:"signature"`
}

// MatcherTable is an ordered failure-signature table. Earlier rows win,
// so order is part of the table's contract: specific signatures go before
// the generic ones they would otherwise be shadowed by. Tables are
// versioned so deployments can swap in their own.
type MatcherTable struct {
	Version  string    `yaml:"version"`
	Matchers []Matcher `yaml:"matchers"`
}

// tableConstraint is the table schema range this build understands.
const tableConstraint = ">= 1.0, < 2.0"

// DefaultMatcherTable returns the built-in signature table. Ledger error
// strings appear both in node form (structured error names) and log form
// (program output), so most kinds carry one signature of each.
func DefaultMatcherTable() *MatcherTable {
	return &MatcherTable{
		Version: "1.0.0",
		Matchers: []Matcher{
			{Kind: KindInsufficientFunds, Signature: "insufficient lamports"},
			{Kind: KindInsufficientFunds, Signature: "insufficient funds"},
			{Kind: KindAccountNotFound, Signature: "AccountNotFound"},
			{Kind: KindAccountNotFound, Signature: "could not find account"},
			{Kind: KindBlockhashNotFound, Signature: "BlockhashNotFound"},
			{Kind: KindSignatureFailure, Signature: "SignatureFailure"},
			{Kind: KindSignatureFailure, Signature: "signature verification failure"},
			{Kind: KindBudgetExceeded, Signature: "exceeded CUs meter"},
			{Kind: KindBudgetExceeded, Signature: "compute budget exceeded"},
			{Kind: KindProgramFailed, Signature: "ProgramFailedToComplete"},
			{Kind: KindProgramFailed, Signature: "program failed to complete"},
			{Kind: KindInstructionError, Signature: "InstructionError"},
			{Kind: KindInstructionError, Signature: "custom program error"},
		},
	}
}

// Validate checks the table's version and rows.
func (t *MatcherTable) Validate() error {
	v, err := goversion.NewVersion(t.Version)
	if err != nil {
		return fmt.Errorf("matcher table version %q: %w", t.Version, err)
	}
	constraint, err := goversion.NewConstraint(tableConstraint)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return fmt.Errorf("matcher table version %s outside supported range %s", v, tableConstraint)
	}
	if len(t.Matchers) == 0 {
		return fmt.Errorf("matcher table has no matchers")
	}
	for i, m := range t.Matchers {
		if m.Signature == "" {
			return fmt.Errorf("matcher %d: empty signature", i)
		}
		if _, ok := knownKinds[m.Kind]; !ok {
			return fmt.Errorf("matcher %d: unknown kind %q", i, m.Kind)
		}
	}
	return nil
}

// LoadMatcherTable reads a YAML table and validates it.
func LoadMatcherTable(r io.Reader) (*MatcherTable, error) {
	var t MatcherTable
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("matcher table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Classifier applies a matcher table to raw batch outcomes. Classification
// is pure: the same input always yields the same result.
type Classifier struct {
	table      *MatcherTable
	signatures []string // lowercased, aligned with table.Matchers
}

// NewClassifier builds a classifier; a nil table means the built-in one.
func NewClassifier(table *MatcherTable) (*Classifier, error) {
	if table == nil {
		table = DefaultMatcherTable()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{table: table, signatures: make([]string, len(table.Matchers))}
	for i, m := range table.Matchers {
		c.signatures[i] = strings.ToLower(m.Signature)
	}
	return c, nil
}

// TableVersion reports the version of the table in use.
func (c *Classifier) TableVersion() string { return c.table.Version }

// Classify maps one raw slot into its tagged analysis form: success keeps
// its unit count, failures take the kind of the first matching signature,
// and anything unmatched lands in KindUnknown with the raw line attached.
func (c *Classifier) Classify(raw rollup.RawSimulationResult) Result {
	if raw.Success {
		return Succeeded(raw.CU)
	}
	line := strings.ToLower(raw.Result)
	for i, sig := range c.signatures {
		if strings.Contains(line, sig) {
			return Failed(c.table.Matchers[i].Kind, raw.Result)
		}
	}
	return Failed(KindUnknown, raw.Result)
}
