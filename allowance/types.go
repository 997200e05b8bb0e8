// Package allowance implements the scanner's domain core: the allowance
// data model, the fold algorithm that turns Approval logs into a current
// allowance set, the per-(chain,approver) scan unit, and the orchestrator
// that fans work out and replies to callers exactly once. Grounded on
// original_source's EthAllowanceManager, generalized from one account per
// run to many accounts and many chains.
package allowance

import (
	"sort"
	"strings"

	"github.com/walletcore/allowance-scanner/addr"
)

// ChainID is a lowercase "0x"-prefixed hex chain identifier, e.g. "0x1".
// Equality is case-insensitive; callers should not rely on Go string
// equality holding across two differently-cased renderings of the same id.
type ChainID string

// EqualFold compares two ChainIDs ignoring hex-digit case.
func (c ChainID) EqualFold(other ChainID) bool {
	return strings.EqualFold(string(c), string(other))
}

func (c ChainID) normalized() string { return strings.ToLower(string(c)) }

// Allowance is one live ERC-20 approval: a contract letting a spender draw
// up to amount from approver's balance on chainID.
type Allowance struct {
	ChainID         ChainID
	ContractAddress addr.Address20
	ApproverAddress addr.Address32Padded
	SpenderAddress  addr.Address32Padded
	Amount          addr.U256
}

// Key is the Allowance Key: the triple that identifies one allowance slot,
// independent of its current amount.
type Key struct {
	ContractAddress string // lowercased Address20, used only as a map key
	ApproverAddress string // lowercased Address32Padded
	SpenderAddress  string // lowercased Address32Padded
}

func keyOf(contract addr.Address20, approver, spender addr.Address32Padded) Key {
	return Key{
		ContractAddress: strings.ToLower(string(contract)),
		ApproverAddress: strings.ToLower(string(approver)),
		SpenderAddress:  strings.ToLower(string(spender)),
	}
}

// sortAllowances orders a slice in-place by (chain_id ASC, contract_address
// ASC, spender_address ASC), the deterministic order spec.md §5 requires
// for a run's final delivered list.
func sortAllowances(a []Allowance) {
	sort.SliceStable(a, func(i, j int) bool {
		ci, cj := a[i].ChainID.normalized(), a[j].ChainID.normalized()
		if ci != cj {
			return ci < cj
		}
		cai, caj := strings.ToLower(string(a[i].ContractAddress)), strings.ToLower(string(a[j].ContractAddress))
		if cai != caj {
			return cai < caj
		}
		return strings.ToLower(string(a[i].SpenderAddress)) < strings.ToLower(string(a[j].SpenderAddress))
	})
}
