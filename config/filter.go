package config

import (
	"github.com/hashicorp/go-bexpr"
)

// ScanCandidate is the (chain, account) pair a filter expression is
// evaluated against. Fields left empty by the caller compare as "".
type ScanCandidate struct {
	ChainID string `bexpr:"chain_id"`
	Account string `bexpr:"account"`
}

// AccountFilter evaluates an optional boolean expression against each
// candidate pair. An empty expression matches everything, the "scan
// everything" default spec.md assumes when no filter is configured.
type AccountFilter struct {
	eval *bexpr.Evaluator
}

// NewAccountFilter compiles expr. An empty expr yields a filter that
// always matches.
func NewAccountFilter(expr string) (*AccountFilter, error) {
	if expr == "" {
		return &AccountFilter{}, nil
	}
	eval, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, err
	}
	return &AccountFilter{eval: eval}, nil
}

// Matches reports whether candidate should be scanned.
func (f *AccountFilter) Matches(candidate ScanCandidate) (bool, error) {
	if f.eval == nil {
		return true, nil
	}
	return f.eval.Evaluate(candidate)
}
