package allowance

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/walletcore/allowance-scanner/addr"
	"github.com/walletcore/allowance-scanner/allowancecache"
	"github.com/walletcore/allowance-scanner/jsonrpc"
	"github.com/walletcore/allowance-scanner/logfetch"
)

// FetcherFactory builds a LogFetcher for a chain on demand; callers supply
// one jsonrpc.Client per configured chain.
type FetcherFactory func(chainID ChainID) (logfetch.Fetcher, bool)

// NewJSONRPCFetcherFactory adapts a fixed map of chain -> jsonrpc.Client
// into a FetcherFactory, the common case of one statically configured RPC
// endpoint per supported chain.
func NewJSONRPCFetcherFactory(clients map[ChainID]jsonrpc.Client) FetcherFactory {
	return func(chainID ChainID) (logfetch.Fetcher, bool) {
		for cid, c := range clients {
			if cid.EqualFold(chainID) {
				return logfetch.New(string(chainID), c), true
			}
		}
		return nil, false
	}
}

// Scanner is the AllowanceScanner orchestrator. It spawns one Task per
// (chain, approver) pair per run, coalesces concurrent Discover callers,
// and delivers the merged allowance list to every waiting caller exactly
// once per run.
type Scanner struct {
	cache    *allowancecache.Store
	accounts AccountSource
	tokens   TokenContractSource
	fetchers FetcherFactory
	log      *slog.Logger

	mu         sync.Mutex
	running    bool
	pending    []func([]Allowance)
	generation uint64
}

// New builds a Scanner over its collaborators.
func New(cache *allowancecache.Store, accounts AccountSource, tokens TokenContractSource, fetchers FetcherFactory, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		cache:    cache,
		accounts: accounts,
		tokens:   tokens,
		fetchers: fetchers,
		log:      logger,
	}
}

// Discover implements discover(callback): deduplicates concurrent callers
// and fans the eventual result back out to every registered callback, in
// FIFO registration order, exactly once.
func (s *Scanner) Discover(ctx context.Context, callback func([]Allowance)) {
	s.mu.Lock()
	s.pending = append(s.pending, callback)
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	gen := s.generation
	s.mu.Unlock()

	go s.runOnce(ctx, gen)
}

// Reset implements ResetController.reset(): abort the in-progress run,
// reply to every queued caller with an empty result, and allow the next
// Discover call to start a genuinely fresh run. Outstanding RPCs from the
// aborted run are not canceled; their eventual results are discarded by
// the generation checks in finalize (before any cache write) and deliver.
func (s *Scanner) Reset() {
	s.mu.Lock()
	cbs := s.pending
	s.pending = nil
	s.running = false
	s.generation++
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(nil)
	}
}

func (s *Scanner) runOnce(ctx context.Context, gen uint64) {
	runID := uuid.NewString()
	allowances := s.executeRun(ctx, runID, gen)
	s.deliver(gen, allowances)
}

func (s *Scanner) deliver(gen uint64, allowances []Allowance) {
	s.mu.Lock()
	if gen != s.generation {
		// Reset fired while this run was in flight; already-delivered.
		s.mu.Unlock()
		return
	}
	cbs := s.pending
	s.pending = nil
	s.running = false
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(allowances)
	}
}

// executeRun performs one full discovery pass: enumerate, spawn, collect,
// finalize. It never returns an error; every failure mode it encounters is
// local per spec.md §7.
func (s *Scanner) executeRun(ctx context.Context, runID string, gen uint64) []Allowance {
	accountList, err := s.accounts.EVMAccounts(ctx)
	if err != nil || len(accountList) == 0 {
		return nil
	}
	tokens, err := s.tokens.SupportedChainTokens(ctx)
	if err != nil || len(tokens) == 0 {
		return nil
	}

	// De-duplicate the enumerated accounts and the chains that actually
	// have a reachable fetcher before spawning any task.
	accounts := mapset.NewSet(accountList...)
	chainIDs := mapset.NewSet[ChainID]()
	for chainID := range tokens {
		if _, ok := s.fetchers(chainID); ok {
			chainIDs.Add(chainID)
		}
	}

	s.log.Debug("starting discovery run", "run_id", runID, "accounts", accounts.Cardinality(), "chains", chainIDs.Cardinality())

	type spawned struct {
		chainID  ChainID
		approver addr.Address32Padded
		result   Result
		ok       bool
	}

	var wg sync.WaitGroup
	resultsCh := make(chan spawned)

	for chainID := range chainIDs.Iter() {
		contracts := tokens[chainID]
		fetcher, _ := s.fetchers(chainID)
		for approver := range accounts.Iter() {
			wg.Add(1)
			go func(chainID ChainID, contracts []addr.Address20, approver addr.Address32Padded, fetcher logfetch.Fetcher) {
				defer wg.Done()

				prior, err := s.cache.LoadForApprover(ctx, string(chainID), string(approver))
				if err != nil {
					resultsCh <- spawned{chainID: chainID, approver: approver}
					return
				}

				task := &Task{
					ID:         uuid.NewString(),
					ChainID:    chainID,
					Approver:   approver,
					Contracts:  contracts,
					Fetcher:    fetcher,
					PriorCache: prior,
				}
				result, err := task.Run(ctx)
				if err != nil {
					s.log.Warn("chain scan task failed", "run_id", runID, "task_id", task.ID, "chain_id", chainID, "error", err)
					resultsCh <- spawned{chainID: chainID, approver: approver}
					return
				}
				resultsCh <- spawned{chainID: chainID, approver: approver, result: result, ok: true}
			}(chainID, contracts, approver, fetcher)
		}
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	succeeded := map[ChainID]map[string]Result{}
	for r := range resultsCh {
		if !r.ok {
			continue
		}
		if succeeded[r.chainID] == nil {
			succeeded[r.chainID] = map[string]Result{}
		}
		succeeded[r.chainID][string(r.approver)] = r.result
	}

	return s.finalize(ctx, runID, gen, succeeded)
}

// finalize implements §4.7's finalize step: build one cache update per
// chain, skip chains where nothing non-empty was produced, write the
// updates, and return the deterministically ordered union.
func (s *Scanner) finalize(ctx context.Context, runID string, gen uint64, succeeded map[ChainID]map[string]Result) []Allowance {
	var all []Allowance
	writtenChains := mapset.NewSet[ChainID]()

	for chainID, byApproverRaw := range succeeded {
		anyNonEmpty := false
		touched := mapset.NewSet[string]()
		byApprover := make(map[string]Result, len(byApproverRaw))
		for approverStr, r := range byApproverRaw {
			touched.Add(strings.ToLower(approverStr))
			byApprover[approverStr] = r
			if len(r.Allowances) > 0 {
				anyNonEmpty = true
			}
		}
		if !anyNonEmpty {
			continue
		}

		priorFull, err := s.cache.LoadChain(ctx, string(chainID))
		if err != nil {
			priorFull = allowancecache.ChainCacheEntry{LastBlockNumber: map[string]string{}}
		}

		entry := allowancecache.ChainCacheEntry{LastBlockNumber: map[string]string{}}

		for _, c := range priorFull.AllowancesFound {
			if touched.Contains(strings.ToLower(c.ApproverAddress)) {
				continue
			}
			entry.AllowancesFound = append(entry.AllowancesFound, c)
		}
		for approver, block := range priorFull.LastBlockNumber {
			if touched.Contains(strings.ToLower(approver)) {
				continue
			}
			entry.LastBlockNumber[approver] = block
		}

		for approverStr, r := range byApprover {
			if len(r.Allowances) == 0 {
				continue
			}
			entry.LastBlockNumber[approverStr] = hexOfUint64(r.LatestBlock)
			for _, a := range r.Allowances {
				entry.AllowancesFound = append(entry.AllowancesFound, allowancecache.CachedAllowance{
					ContractAddress: string(a.ContractAddress),
					ApproverAddress: string(a.ApproverAddress),
					SpenderAddress:  string(a.SpenderAddress),
					Amount:          addr.U256ToHex(a.Amount),
				})
				all = append(all, a)
			}
		}

		s.mu.Lock()
		stale := gen != s.generation
		s.mu.Unlock()
		if stale {
			// Reset fired while this run was in flight: leave the cache as it is.
			return nil
		}

		if err := s.cache.WriteChain(ctx, string(chainID), entry); err != nil {
			s.log.Error("failed writing chain cache section", "run_id", runID, "chain_id", chainID, "error", err)
			continue
		}
		writtenChains.Add(chainID)
	}

	s.log.Debug("finalized discovery run", "run_id", runID, "chains_written", writtenChains.Cardinality())
	sortAllowances(all)
	return all
}

func hexOfUint64(n uint64) string {
	if n == 0 {
		return "0x0"
	}
	const digits = "0123456789abcdef"
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = digits[n&0xf]
		n >>= 4
	}
	return "0x" + string(buf[i:])
}
