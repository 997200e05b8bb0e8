package allowance

import (
	"context"

	"github.com/walletcore/allowance-scanner/addr"
	"github.com/walletcore/allowance-scanner/allowancecache"
	"github.com/walletcore/allowance-scanner/logfetch"
	"github.com/walletcore/allowance-scanner/scanerr"
)

// Result is one ChainScanResult: what a single ChainScanTask produces on
// success.
type Result struct {
	ChainID     ChainID
	Approver    addr.Address32Padded
	LatestBlock uint64
	Allowances  []Allowance
}

// Task is one ChainScanTask: the scan unit for a single (chain, approver)
// pair. A Task is built fresh per run; its inputs are immutable for its
// lifetime.
type Task struct {
	ID         string
	ChainID    ChainID
	Approver   addr.Address32Padded
	Contracts  []addr.Address20
	Fetcher    logfetch.Fetcher
	PriorCache allowancecache.ChainCacheEntry
}

// Run executes the task to completion. An error return means a LOCAL
// failure (spec.md §7): the caller must not touch the cache for this
// (chain, approver) and must not surface the error to its own caller.
func (t *Task) Run(ctx context.Context) (Result, error) {
	latest, err := t.Fetcher.GetBlockNumber(ctx)
	if err != nil {
		return Result{}, scanerr.New(scanerr.Transport, "allowance.Task.Run", err)
	}

	fromEarliest := true
	fromBlock := uint64(0)
	if cp, ok := t.PriorCache.LastBlockNumber[string(t.Approver)]; ok {
		if n, decErr := hexToUint64(cp); decErr == nil {
			fromEarliest = false
			fromBlock = n + 1
		}
	}

	logs, err := t.Fetcher.GetLogs(ctx, logfetch.Filter{
		Addresses:     t.Contracts,
		ApproverTopic: t.Approver,
		FromEarliest:  fromEarliest,
		FromBlock:     fromBlock,
		ToBlock:       latest,
	})
	if err != nil {
		return Result{}, scanerr.New(scanerr.Transport, "allowance.Task.Run", err)
	}

	fold := Fold(t.ChainID, t.Approver, t.PriorCache, logs)

	return Result{
		ChainID:     t.ChainID,
		Approver:    t.Approver,
		LatestBlock: latest,
		Allowances:  fold.Allowances,
	}, nil
}

func hexToUint64(s string) (uint64, error) {
	body := s
	if len(body) >= 2 && (body[:2] == "0x" || body[:2] == "0X") {
		body = body[2:]
	}
	var n uint64
	for _, c := range body {
		var d uint64
		switch {
		case c >= '0' && c <= '9':
			d = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = uint64(c-'A') + 10
		default:
			return 0, errInvalidHex
		}
		n = n*16 + d
	}
	return n, nil
}

var errInvalidHex = scanerr.New(scanerr.Decode, "allowance.hexToUint64", errNotHex{})

type errNotHex struct{}

func (errNotHex) Error() string { return "not a valid hex string" }
