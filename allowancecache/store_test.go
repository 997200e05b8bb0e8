package allowancecache

import (
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) Get(_ context.Context, key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (m *memKV) Put(_ context.Context, key, value []byte) error {
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Delete(_ context.Context, key []byte) error {
	delete(m.data, string(key))
	return nil
}

func (m *memKV) Close() error { return nil }

func TestLoadChainAbsentReturnsEmpty(t *testing.T) {
	s := NewStore(newMemKV())
	entry, err := s.LoadChain(context.Background(), "0x1")
	require.NoError(t, err)
	require.Empty(t, entry.AllowancesFound)
	require.Empty(t, entry.LastBlockNumber)
}

func TestWriteThenLoadRoundTrip(t *testing.T) {
	s := NewStore(newMemKV())
	entry := ChainCacheEntry{
		AllowancesFound: []CachedAllowance{
			{
				ContractAddress: "0x" + rep("b", 40),
				ApproverAddress: "0x" + rep("0", 24) + rep("a", 40),
				SpenderAddress:  "0x" + rep("0", 24) + rep("c", 40),
				Amount:          "0x1",
			},
		},
		LastBlockNumber: map[string]string{
			"0x" + rep("0", 24) + rep("a", 40): "0x10",
		},
	}
	require.NoError(t, s.WriteChain(context.Background(), "0x1", entry))

	got, err := s.LoadChain(context.Background(), "0x1")
	require.NoError(t, err)
	require.Len(t, got.AllowancesFound, 1)
	require.Equal(t, "0x1", got.AllowancesFound[0].Amount)
}

func TestWriteChainEmptySkipsPersist(t *testing.T) {
	kv := newMemKV()
	s := NewStore(kv)
	require.NoError(t, s.WriteChain(context.Background(), "0x1", ChainCacheEntry{}))
	require.Empty(t, kv.data)
}

func TestLoadDropsMalformedEntries(t *testing.T) {
	kv := newMemKV()
	s := NewStore(kv)
	_ = kv.Put(context.Background(), chainKey("0x1"), []byte(`{
		"allowances_found": [
			{"contract_address":"not-hex","approver_address":"0x`+rep("0", 24)+rep("a", 40)+`","spender_address":"0x`+rep("0", 24)+rep("c", 40)+`","amount":"0x1"},
			{"contract_address":"0x`+rep("b", 40)+`","approver_address":"0x`+rep("0", 24)+rep("a", 40)+`","spender_address":"0x`+rep("0", 24)+rep("c", 40)+`","amount":"0x1"}
		],
		"last_block_number": {"0x`+rep("0", 24)+rep("a", 40)+`":"0x10"}
	}`))

	got, err := s.LoadChain(context.Background(), "0x1")
	require.NoError(t, err)
	require.Len(t, got.AllowancesFound, 1)
	require.Equal(t, "0x"+rep("b", 40), got.AllowancesFound[0].ContractAddress)
}

func TestLoadForApproverFiltersByApprover(t *testing.T) {
	kv := newMemKV()
	s := NewStore(kv)
	approverA := "0x" + rep("0", 24) + rep("a", 40)
	approverB := "0x" + rep("0", 24) + rep("b", 40)
	entry := ChainCacheEntry{
		AllowancesFound: []CachedAllowance{
			{ContractAddress: "0x" + rep("1", 40), ApproverAddress: approverA, SpenderAddress: "0x" + rep("2", 64), Amount: "0x1"},
			{ContractAddress: "0x" + rep("3", 40), ApproverAddress: approverB, SpenderAddress: "0x" + rep("4", 64), Amount: "0x2"},
		},
		LastBlockNumber: map[string]string{approverA: "0x5", approverB: "0x6"},
	}
	require.NoError(t, s.WriteChain(context.Background(), "0x1", entry))

	filtered, err := s.LoadForApprover(context.Background(), "0x1", approverA)
	require.NoError(t, err)
	require.Len(t, filtered.AllowancesFound, 1)
	require.Equal(t, approverA, filtered.AllowancesFound[0].ApproverAddress)
	require.Equal(t, map[string]string{approverA: "0x5"}, filtered.LastBlockNumber)
}

func TestWriteChainRoundTripSnapshot(t *testing.T) {
	kv := newMemKV()
	s := NewStore(kv)
	approverA := "0x" + rep("0", 24) + rep("a", 40)
	want := ChainCacheEntry{
		AllowancesFound: []CachedAllowance{
			{ContractAddress: "0x" + rep("1", 40), ApproverAddress: approverA, SpenderAddress: "0x" + rep("2", 64), Amount: "0x64"},
		},
		LastBlockNumber: map[string]string{approverA: "0x10"},
	}
	require.NoError(t, s.WriteChain(context.Background(), "0x1", want))

	got, err := s.LoadChain(context.Background(), "0x1")
	require.NoError(t, err)

	if diff := pretty.Compare(want, got); diff != "" {
		t.Fatalf("chain cache round trip mismatch (-want +got):\n%s\nwant: %s\ngot: %s", diff, spew.Sdump(want), spew.Sdump(got))
	}
}

func rep(c string, n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = c[0]
	}
	return string(out)
}
