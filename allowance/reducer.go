package allowance

import (
	"sort"

	"github.com/walletcore/allowance-scanner/addr"
	"github.com/walletcore/allowance-scanner/allowancecache"
	"github.com/walletcore/allowance-scanner/logfetch"
)

const minTopicsForApproval = 3

// FoldResult is what Fold hands back to the calling ChainScanTask.
type FoldResult struct {
	Allowances    []Allowance
	ConsideredAny bool
}

// Fold implements AllowanceReducer: seed the working map with the prior
// cache, overlay a block/log_index-ordered stream of Approval logs, and
// emit the resulting set of positive allowances. See spec.md §4.6 for the
// algorithm this follows step by step.
func Fold(chainID ChainID, approver addr.Address32Padded, prior allowancecache.ChainCacheEntry, logs []logfetch.LogRecord) FoldResult {
	working := make(map[Key]Allowance, len(prior.AllowancesFound))

	for _, c := range prior.AllowancesFound {
		amount, err := addr.HexToU256(c.Amount)
		if err != nil {
			continue
		}
		a := Allowance{
			ChainID:         chainID,
			ContractAddress: addr.Address20(c.ContractAddress),
			ApproverAddress: addr.Address32Padded(c.ApproverAddress),
			SpenderAddress:  addr.Address32Padded(c.SpenderAddress),
			Amount:          amount,
		}
		key := keyOf(a.ContractAddress, a.ApproverAddress, a.SpenderAddress)
		working[key] = a
	}

	sorted := make([]logfetch.LogRecord, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BlockNumber != sorted[j].BlockNumber {
			return sorted[i].BlockNumber < sorted[j].BlockNumber
		}
		return sorted[i].LogIndex < sorted[j].LogIndex
	})

	consideredAny := false
	for _, log := range sorted {
		if log.BlockNumber == 0 {
			continue
		}
		if len(log.Topics) < minTopicsForApproval {
			continue
		}

		amount, err := addr.HexToU256(log.Data)
		if err != nil {
			continue
		}

		approverFromLog := addr.Address32Padded(log.Topics[1])
		spenderFromLog := addr.Address32Padded(log.Topics[2])
		key := keyOf(log.Address, approverFromLog, spenderFromLog)

		consideredAny = true

		if !amount.IsZero() {
			working[key] = Allowance{
				ChainID:         chainID,
				ContractAddress: log.Address,
				ApproverAddress: approverFromLog,
				SpenderAddress:  spenderFromLog,
				Amount:          amount,
			}
			continue
		}
		delete(working, key)
	}

	out := make([]Allowance, 0, len(working))
	for _, a := range working {
		out = append(out, a)
	}
	sortAllowances(out)

	return FoldResult{Allowances: out, ConsideredAny: consideredAny}
}
