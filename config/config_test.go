package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadParsesChains(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir = "/tmp/wallet"
cache_bytes = 1048576

[[chains]]
chain_id = "0x1"
rpc_endpoint = "https://mainnet.example/rpc"

[[chains]]
chain_id = "0x89"
rpc_endpoint = "https://polygon.example/rpc"
use_ws = true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/wallet", cfg.DataDir)
	require.Len(t, cfg.Chains, 2)
	require.True(t, cfg.Chains[1].UseWS)
}

func TestLoadDefaultsCacheBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`data_dir = "/tmp/wallet"`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 32*1024*1024, cfg.CacheBytes)
}

func TestLoadChainRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chains:
  - chain_id: "0x1"
    name: mainnet
    tokens: ["0xaaa", "0xbbb"]
`), 0o600))

	reg, err := LoadChainRegistry(path)
	require.NoError(t, err)
	require.Len(t, reg.Chains, 1)
	require.Len(t, reg.Chains[0].Tokens, 2)
}
