package logfetch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/walletcore/allowance-scanner/addr"
	"github.com/walletcore/allowance-scanner/scanerr"
)

type fakeClient struct {
	result json.RawMessage
	err    error
	lastParams []interface{}
	lastMethod string
}

func (f *fakeClient) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	f.lastMethod = method
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeClient) Close() error { return nil }

func TestGetBlockNumberDecodesHex(t *testing.T) {
	fc := &fakeClient{result: json.RawMessage(`"0x2a"`)}
	f := New("0x1", fc)
	n, err := f.GetBlockNumber(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(42), n)
}

func TestGetBlockNumberTransportError(t *testing.T) {
	fc := &fakeClient{err: scanerr.New(scanerr.Transport, "x", context.DeadlineExceeded)}
	f := New("0x1", fc)
	_, err := f.GetBlockNumber(context.Background())
	require.Error(t, err)
	require.True(t, scanerr.Is(err, scanerr.Transport))
}

func TestGetLogsPinsToBlockAndBuildsFilter(t *testing.T) {
	fc := &fakeClient{result: json.RawMessage(`[
		{"address":"0xAAA0000000000000000000000000000000000a","blockNumber":"0x5","logIndex":"0x0","topics":["0xsig","0xapprover","0xspender"],"data":"0x1"}
	]`)}
	f := New("0x1", fc)
	recs, err := f.GetLogs(context.Background(), Filter{
		Addresses:     []addr.Address20{"0xAAA0000000000000000000000000000000000a"},
		ApproverTopic: "0xapprover",
		FromEarliest:  true,
		ToBlock:       5,
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, uint64(5), recs[0].BlockNumber)

	params := fc.lastParams[0].(map[string]interface{})
	require.Equal(t, "earliest", params["fromBlock"])
	require.Equal(t, "0x5", params["toBlock"])
}

func TestGetLogsDropsMalformedEntry(t *testing.T) {
	fc := &fakeClient{result: json.RawMessage(`[
		{"address":"0xa","blockNumber":"not-hex","logIndex":"0x0","topics":["0xsig"],"data":"0x1"}
	]`)}
	f := New("0x1", fc)
	recs, err := f.GetLogs(context.Background(), Filter{ToBlock: 1})
	require.NoError(t, err)
	require.Empty(t, recs)
}
