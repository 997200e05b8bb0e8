package allowancecache

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
)

// rootKeyPrefix is prepended to the lowercased chain id to form each chain
// section's key inside the KeyValueStore, echoing the browser preference
// key name the original manager used.
const rootKeyPrefix = "wallet.eth_allowances_cache/"

// CachedAllowance is the on-disk shape of one allowance entry: every field
// is the raw hex string form from the schema in spec.md §6, deliberately
// untyped so this package never needs to import the domain's address/amount
// newtypes.
type CachedAllowance struct {
	ContractAddress string `json:"contract_address"`
	ApproverAddress string `json:"approver_address"`
	SpenderAddress  string `json:"spender_address"`
	Amount          string `json:"amount"`
}

// ChainCacheEntry is the on-disk shape of one chain's cache section.
type ChainCacheEntry struct {
	AllowancesFound []CachedAllowance `json:"allowances_found"`
	LastBlockNumber map[string]string `json:"last_block_number"`
}

// Store is the AllowanceCacheStore: load/write operations against a
// KeyValueStore, one chain section at a time.
type Store struct {
	kv     KeyValueStore
	mirror RemoteMirror
}

// NewStore wraps kv as an AllowanceCacheStore.
func NewStore(kv KeyValueStore) *Store {
	return &Store{kv: kv}
}

// SetMirror attaches an opt-in remote backup target. Every successful
// WriteChain is best-effort mirrored after the local write; a mirror
// failure is never surfaced to WriteChain's caller.
func (s *Store) SetMirror(m RemoteMirror) {
	s.mirror = m
}

func chainKey(chainID string) []byte {
	return []byte(rootKeyPrefix + strings.ToLower(chainID))
}

// LoadChain loads the full cache section for one chain. A missing chain
// returns an empty entry, not an error: "absent" is a valid, meaningful
// state (never scanned, or last scan produced nothing).
func (s *Store) LoadChain(ctx context.Context, chainID string) (ChainCacheEntry, error) {
	raw, err := s.kv.Get(ctx, chainKey(chainID))
	if err != nil {
		if err == ErrNotFound {
			return ChainCacheEntry{LastBlockNumber: map[string]string{}}, nil
		}
		return ChainCacheEntry{}, err
	}

	var entry ChainCacheEntry
	if jsonErr := json.Unmarshal(raw, &entry); jsonErr != nil {
		// Cache corruption is local: treated as no prior data, never an error.
		return ChainCacheEntry{LastBlockNumber: map[string]string{}}, nil
	}
	return sanitize(entry), nil
}

// LoadForApprover loads the chain section and filters it down to only the
// entries belonging to one approver, matching spec.md's "read once per
// (chain, approver) at task start" rule. Matching is case-insensitive.
func (s *Store) LoadForApprover(ctx context.Context, chainID, approverA32 string) (ChainCacheEntry, error) {
	full, err := s.LoadChain(ctx, chainID)
	if err != nil {
		return ChainCacheEntry{}, err
	}

	filtered := ChainCacheEntry{LastBlockNumber: map[string]string{}}
	for _, a := range full.AllowancesFound {
		if strings.EqualFold(a.ApproverAddress, approverA32) {
			filtered.AllowancesFound = append(filtered.AllowancesFound, a)
		}
	}
	for approver, block := range full.LastBlockNumber {
		if strings.EqualFold(approver, approverA32) {
			filtered.LastBlockNumber[approver] = block
		}
	}
	return filtered, nil
}

// WriteChain rewrites a chain's cache section wholesale. An entry with an
// empty AllowancesFound and empty LastBlockNumber is not written at all:
// per spec.md §3, the chain entry is absent when nothing was produced.
func (s *Store) WriteChain(ctx context.Context, chainID string, entry ChainCacheEntry) error {
	if len(entry.AllowancesFound) == 0 && len(entry.LastBlockNumber) == 0 {
		return nil
	}
	if entry.LastBlockNumber == nil {
		entry.LastBlockNumber = map[string]string{}
	}

	sortAllowances(entry.AllowancesFound)

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, chainKey(chainID), raw); err != nil {
		return err
	}
	if s.mirror != nil {
		_ = s.mirror.MirrorChain(ctx, chainID, raw)
	}
	return nil
}

// sortAllowances orders entries (contract_address ASC, spender_address ASC)
// per spec.md §5's within-chain ordering guarantee.
func sortAllowances(a []CachedAllowance) {
	sort.SliceStable(a, func(i, j int) bool {
		ci, cj := strings.ToLower(a[i].ContractAddress), strings.ToLower(a[j].ContractAddress)
		if ci != cj {
			return ci < cj
		}
		return strings.ToLower(a[i].SpenderAddress) < strings.ToLower(a[j].SpenderAddress)
	})
}

// sanitize drops any allowance or last_block_number entry whose hex shape
// is malformed, per spec.md §6's load rule: "the offending entry is
// dropped on load; the rest of the chain survives."
func sanitize(entry ChainCacheEntry) ChainCacheEntry {
	out := ChainCacheEntry{LastBlockNumber: map[string]string{}}
	for _, a := range entry.AllowancesFound {
		if isHex20Padded(a.ContractAddress, 40) &&
			isHex20Padded(a.ApproverAddress, 64) &&
			isHex20Padded(a.SpenderAddress, 64) &&
			isHexAmount(a.Amount) {
			out.AllowancesFound = append(out.AllowancesFound, a)
		}
	}
	for approver, block := range entry.LastBlockNumber {
		if isHex20Padded(approver, 64) && isHexU256(block) {
			out.LastBlockNumber[approver] = block
		}
	}
	return out
}

func isHex20Padded(s string, bodyLen int) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	body := s[2:]
	if len(body) != bodyLen {
		return false
	}
	return isAllHex(body)
}

func isHexAmount(s string) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	body := s[2:]
	if len(body) == 0 || len(body) > 64 {
		return false
	}
	return isAllHex(body)
}

func isHexU256(s string) bool {
	return isHexAmount(s)
}

func isAllHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
