package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveAccountsPadsAndFilters(t *testing.T) {
	accounts, err := resolveAccounts([]string{
		"0x00000000000000000000000000000000000000aa",
		"0x00000000000000000000000000000000000000bb",
	}, "")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Len(t, string(accounts[0]), 66)
	require.Contains(t, string(accounts[0]), "aa")
}

func TestResolveAccountsRejectsMalformed(t *testing.T) {
	_, err := resolveAccounts([]string{"not-an-address"}, "")
	require.Error(t, err)
}

func TestResolveAccountsAppliesFilter(t *testing.T) {
	accounts, err := resolveAccounts([]string{
		"0x00000000000000000000000000000000000000aa",
		"0x00000000000000000000000000000000000000bb",
	}, `account == "0x00000000000000000000000000000000000000aa"`)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
}
