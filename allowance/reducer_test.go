package allowance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/walletcore/allowance-scanner/allowancecache"
	"github.com/walletcore/allowance-scanner/logfetch"
)

const (
	approver32 = "0x000000000000000000000000aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	spender32  = "0x000000000000000000000000bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	contract20 = "0xcccccccccccccccccccccccccccccccccccccc"
	sigTopic   = "0xsignature"
)

func emptyPrior() allowancecache.ChainCacheEntry {
	return allowancecache.ChainCacheEntry{LastBlockNumber: map[string]string{}}
}

func TestFoldFreshApproval(t *testing.T) {
	logs := []logfetch.LogRecord{
		{Address: contract20, BlockNumber: 10, LogIndex: 0, Topics: []string{sigTopic, approver32, spender32}, Data: "0x64"},
	}
	res := Fold("0x1", approver32, emptyPrior(), logs)
	require.Len(t, res.Allowances, 1)
	require.True(t, res.ConsideredAny)
	require.False(t, res.Allowances[0].Amount.IsZero())
}

func TestFoldRevocationRemovesEntry(t *testing.T) {
	logs := []logfetch.LogRecord{
		{Address: contract20, BlockNumber: 10, LogIndex: 0, Topics: []string{sigTopic, approver32, spender32}, Data: "0x64"},
		{Address: contract20, BlockNumber: 11, LogIndex: 0, Topics: []string{sigTopic, approver32, spender32}, Data: "0x0"},
	}
	res := Fold("0x1", approver32, emptyPrior(), logs)
	require.Empty(t, res.Allowances)
}

func TestFoldApproveThenRevokeInSameBlockKeepsLatest(t *testing.T) {
	logs := []logfetch.LogRecord{
		{Address: contract20, BlockNumber: 10, LogIndex: 1, Topics: []string{sigTopic, approver32, spender32}, Data: "0x0"},
		{Address: contract20, BlockNumber: 10, LogIndex: 0, Topics: []string{sigTopic, approver32, spender32}, Data: "0x64"},
	}
	// Same block, log_index ordering matters: index 0 (approve) happens
	// before index 1 (revoke), so the net result is revoked.
	res := Fold("0x1", approver32, emptyPrior(), logs)
	require.Empty(t, res.Allowances)
}

func TestFoldIgnoresPendingLog(t *testing.T) {
	logs := []logfetch.LogRecord{
		{Address: contract20, BlockNumber: 0, LogIndex: 0, Topics: []string{sigTopic, approver32, spender32}, Data: "0x64"},
	}
	res := Fold("0x1", approver32, emptyPrior(), logs)
	require.Empty(t, res.Allowances)
	require.False(t, res.ConsideredAny)
}

func TestFoldIgnoresMalformedTopics(t *testing.T) {
	logs := []logfetch.LogRecord{
		{Address: contract20, BlockNumber: 10, LogIndex: 0, Topics: []string{sigTopic, approver32}, Data: "0x64"},
	}
	res := Fold("0x1", approver32, emptyPrior(), logs)
	require.Empty(t, res.Allowances)
}

func TestFoldSkipsUndecodableAmount(t *testing.T) {
	logs := []logfetch.LogRecord{
		{Address: contract20, BlockNumber: 10, LogIndex: 0, Topics: []string{sigTopic, approver32, spender32}, Data: "not-hex"},
	}
	res := Fold("0x1", approver32, emptyPrior(), logs)
	require.Empty(t, res.Allowances)
}

func TestFoldSeedsFromPriorCache(t *testing.T) {
	prior := allowancecache.ChainCacheEntry{
		AllowancesFound: []allowancecache.CachedAllowance{
			{ContractAddress: contract20, ApproverAddress: approver32, SpenderAddress: spender32, Amount: "0x5"},
		},
		LastBlockNumber: map[string]string{approver32: "0x9"},
	}
	res := Fold("0x1", approver32, prior, nil)
	require.Len(t, res.Allowances, 1)
	require.Equal(t, "0x5", res.Allowances[0].Amount.String())
	require.False(t, res.ConsideredAny)
}

func TestFoldNoOpReplayIsIdempotent(t *testing.T) {
	logs := []logfetch.LogRecord{
		{Address: contract20, BlockNumber: 10, LogIndex: 0, Topics: []string{sigTopic, approver32, spender32}, Data: "0x64"},
	}
	first := Fold("0x1", approver32, emptyPrior(), logs)

	prior := allowancecache.ChainCacheEntry{LastBlockNumber: map[string]string{}}
	for _, a := range first.Allowances {
		prior.AllowancesFound = append(prior.AllowancesFound, allowancecache.CachedAllowance{
			ContractAddress: string(a.ContractAddress),
			ApproverAddress: string(a.ApproverAddress),
			SpenderAddress:  string(a.SpenderAddress),
			Amount:          a.Amount.String(),
		})
	}
	second := Fold("0x1", approver32, prior, nil)
	require.Equal(t, first.Allowances, second.Allowances)
}
