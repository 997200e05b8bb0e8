package allowance

import (
	"context"
	"sync"

	"github.com/walletcore/allowance-scanner/addr"
)

// AccountSource enumerates the wallet's EVM-capable accounts, standing in
// for the original's KeyringService. Filtering to EVM-capable accounts is
// the source's responsibility, not the scanner's.
type AccountSource interface {
	EVMAccounts(ctx context.Context) ([]addr.Address32Padded, error)
}

// TokenContractSource enumerates the token contracts to watch per
// supported chain, standing in for the original's BlockchainRegistry.
type TokenContractSource interface {
	SupportedChainTokens(ctx context.Context) (map[ChainID][]addr.Address20, error)
}

// StaticAccountSource is a fixed in-memory AccountSource, useful for tests
// and for deployments where the account list is supplied by configuration
// rather than a live keyring.
type StaticAccountSource struct {
	mu       sync.RWMutex
	accounts []addr.Address32Padded
}

// NewStaticAccountSource returns a StaticAccountSource seeded with accounts.
func NewStaticAccountSource(accounts []addr.Address32Padded) *StaticAccountSource {
	return &StaticAccountSource{accounts: append([]addr.Address32Padded(nil), accounts...)}
}

func (s *StaticAccountSource) EVMAccounts(_ context.Context) ([]addr.Address32Padded, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]addr.Address32Padded, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

// SetAccounts replaces the account list, for tests that simulate a wallet
// gaining or losing an account between runs.
func (s *StaticAccountSource) SetAccounts(accounts []addr.Address32Padded) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append([]addr.Address32Padded(nil), accounts...)
}

// StaticTokenContractSource is a fixed in-memory TokenContractSource.
type StaticTokenContractSource struct {
	mu     sync.RWMutex
	tokens map[ChainID][]addr.Address20
}

// NewStaticTokenContractSource returns a StaticTokenContractSource seeded
// with tokens.
func NewStaticTokenContractSource(tokens map[ChainID][]addr.Address20) *StaticTokenContractSource {
	cp := make(map[ChainID][]addr.Address20, len(tokens))
	for k, v := range tokens {
		cp[k] = append([]addr.Address20(nil), v...)
	}
	return &StaticTokenContractSource{tokens: cp}
}

func (s *StaticTokenContractSource) SupportedChainTokens(_ context.Context) (map[ChainID][]addr.Address20, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[ChainID][]addr.Address20, len(s.tokens))
	for k, v := range s.tokens {
		vv := make([]addr.Address20, len(v))
		copy(vv, v)
		cp[k] = vv
	}
	return cp, nil
}
