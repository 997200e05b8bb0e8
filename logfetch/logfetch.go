// Package logfetch implements LogFetcher: the two RPC operations a
// ChainScanTask needs, eth_blockNumber and eth_getLogs, against an
// injected jsonrpc.Client. Transport failures are surfaced verbatim as
// scanerr.Transport; nothing here decides what to do about them.
package logfetch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/walletcore/allowance-scanner/addr"
	"github.com/walletcore/allowance-scanner/jsonrpc"
	"github.com/walletcore/allowance-scanner/scanerr"
	"github.com/walletcore/allowance-scanner/topichash"
)

// LogRecord mirrors the wire shape of one eth_getLogs entry, decoded just
// enough to hand to the reducer: addresses and the amount are left as hex
// strings here, decoded lazily by the reducer so a single malformed log
// never aborts the whole batch.
type LogRecord struct {
	Address     addr.Address20
	BlockNumber uint64
	LogIndex    uint64
	Topics      []string
	Data        string
}

// Filter describes one eth_getLogs query, built by the caller (ChainScanTask).
type Filter struct {
	Addresses     []addr.Address20
	ApproverTopic addr.Address32Padded
	FromBlock     uint64 // ignored if FromEarliest is true
	FromEarliest  bool
	ToBlock       uint64
}

// Fetcher is the LogFetcher interface; ChainScanTask depends on this, not
// on jsonrpc.Client directly, so tests can substitute a fake.
type Fetcher interface {
	GetBlockNumber(ctx context.Context) (uint64, error)
	GetLogs(ctx context.Context, f Filter) ([]LogRecord, error)
}

type fetcher struct {
	client  jsonrpc.Client
	chainID string
}

// New returns a Fetcher bound to one chain's RPC client.
func New(chainID string, client jsonrpc.Client) Fetcher {
	return &fetcher{client: client, chainID: chainID}
}

func (f *fetcher) GetBlockNumber(ctx context.Context) (uint64, error) {
	raw, err := f.client.Call(ctx, "eth_blockNumber", nil)
	if err != nil {
		return 0, scanerr.New(scanerr.Transport, "logfetch.GetBlockNumber", err)
	}
	var hexStr string
	if err := json.Unmarshal(raw, &hexStr); err != nil {
		return 0, scanerr.New(scanerr.Decode, "logfetch.GetBlockNumber", err)
	}
	n, err := hexToUint64(hexStr)
	if err != nil {
		return 0, scanerr.New(scanerr.Decode, "logfetch.GetBlockNumber", err)
	}
	return n, nil
}

func (f *fetcher) GetLogs(ctx context.Context, filt Filter) ([]LogRecord, error) {
	addresses := make([]interface{}, 0, len(filt.Addresses))
	for _, a := range filt.Addresses {
		addresses = append(addresses, string(a))
	}

	fromBlock := "earliest"
	if !filt.FromEarliest {
		fromBlock = fmt.Sprintf("0x%x", filt.FromBlock)
	}

	params := map[string]interface{}{
		"address":   addresses,
		"topics":    []interface{}{topichash.ApprovalTopic, string(filt.ApproverTopic)},
		"fromBlock": fromBlock,
		"toBlock":   fmt.Sprintf("0x%x", filt.ToBlock),
	}

	raw, err := f.client.Call(ctx, "eth_getLogs", []interface{}{params})
	if err != nil {
		return nil, scanerr.New(scanerr.Transport, "logfetch.GetLogs", err)
	}

	var wire []wireLog
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, scanerr.New(scanerr.Decode, "logfetch.GetLogs", err)
	}

	out := make([]LogRecord, 0, len(wire))
	for _, w := range wire {
		rec, ok := w.toLogRecord()
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

type wireLog struct {
	Address     string   `json:"address"`
	BlockNumber string   `json:"blockNumber"`
	LogIndex    string   `json:"logIndex"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
}

// toLogRecord decodes the numeric fields that must parse for the record to
// be usable at all (block number, log index); a malformed numeric field
// here drops the single log rather than failing the whole batch, matching
// the reducer's per-log decode tolerance in spec §4.6.
func (w wireLog) toLogRecord() (LogRecord, bool) {
	bn, err := hexToUint64(w.BlockNumber)
	if err != nil {
		return LogRecord{}, false
	}
	li, err := hexToUint64(w.LogIndex)
	if err != nil {
		return LogRecord{}, false
	}
	return LogRecord{
		Address:     addr.Address20(w.Address),
		BlockNumber: bn,
		LogIndex:    li,
		Topics:      w.Topics,
		Data:        w.Data,
	}, true
}

func hexToUint64(s string) (uint64, error) {
	if len(s) < 2 || (s[:2] != "0x" && s[:2] != "0X") {
		return 0, fmt.Errorf("logfetch: not a 0x-prefixed hex value: %q", s)
	}
	var n uint64
	if _, err := fmt.Sscanf(s[2:], "%x", &n); err != nil {
		return 0, fmt.Errorf("logfetch: malformed hex value %q: %w", s, err)
	}
	return n, nil
}
