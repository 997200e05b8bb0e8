package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/urfave/cli/v2"

	"github.com/walletcore/allowance-scanner/addr"
	"github.com/walletcore/allowance-scanner/allowance"
	"github.com/walletcore/allowance-scanner/allowancecache"
	"github.com/walletcore/allowance-scanner/config"
	"github.com/walletcore/allowance-scanner/jsonrpc"
)

// app bundles the components a single CLI invocation wires together: the
// parsed config, the durable cache store, and a ready-to-use Scanner.
type app struct {
	cfg      *config.Config
	scanner  *allowance.Scanner
	store    *allowancecache.Store
	kv       allowancecache.KeyValueStore
	accounts *allowance.StaticAccountSource
	logger   *slog.Logger
}

// bootstrap loads configuration and the chain registry, opens the cache
// store, dials every configured chain, and assembles a Scanner. Every CLI
// subcommand that touches the scanner starts here.
func bootstrap(c *cli.Context) (*app, error) {
	logger := newLogger(c)

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: loading config: %w", err)
	}

	registry, err := config.LoadChainRegistry(c.String("registry"))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: loading chain registry: %w", err)
	}

	pebble, err := allowancecache.OpenPebble(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: opening cache store at %q: %w", cfg.DataDir, err)
	}
	readThrough := allowancecache.NewReadThrough(pebble, cfg.CacheBytes)
	store := allowancecache.NewStore(readThrough)

	mirror, err := buildRemoteMirror(context.Background(), cfg.RemoteMirror)
	if err != nil {
		pebble.Close()
		return nil, fmt.Errorf("bootstrap: building remote mirror: %w", err)
	}
	if mirror != nil {
		store.SetMirror(mirror)
	}

	clients := map[allowance.ChainID]jsonrpc.Client{}
	for _, ch := range cfg.Chains {
		if ch.UseWS {
			wsClient, err := jsonrpc.DialWS(context.Background(), ch.RPCEndpoint)
			if err != nil {
				pebble.Close()
				return nil, fmt.Errorf("bootstrap: dialing %s over ws: %w", ch.ChainID, err)
			}
			clients[allowance.ChainID(ch.ChainID)] = wsClient
			continue
		}
		clients[allowance.ChainID(ch.ChainID)] = jsonrpc.NewHTTPClient(ch.RPCEndpoint, 15*time.Second)
	}
	factory := allowance.NewJSONRPCFetcherFactory(clients)

	tokens := map[allowance.ChainID][]addr.Address20{}
	for _, entry := range registry.Chains {
		toks := make([]addr.Address20, len(entry.Tokens))
		for i, t := range entry.Tokens {
			toks[i] = addr.Address20(t)
		}
		tokens[allowance.ChainID(entry.ChainID)] = toks
	}
	tokenSrc := allowance.NewStaticTokenContractSource(tokens)
	accSrc := allowance.NewStaticAccountSource(nil)

	scanner := allowance.New(store, accSrc, tokenSrc, factory, logger)

	return &app{cfg: cfg, scanner: scanner, store: store, kv: pebble, accounts: accSrc, logger: logger}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}

// buildRemoteMirror constructs the configured opt-in cache backup target,
// or returns (nil, nil) when rc.Kind is empty (mirroring disabled).
func buildRemoteMirror(ctx context.Context, rc config.RemoteMirrorConfig) (allowancecache.RemoteMirror, error) {
	switch rc.Kind {
	case "":
		return nil, nil
	case "s3":
		var opts []func(*awsconfig.LoadOptions) error
		if rc.Region != "" {
			opts = append(opts, awsconfig.WithRegion(rc.Region))
		}
		if rc.AccessKeyID != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(rc.AccessKeyID, rc.SecretAccessKey, ""),
			))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading aws config: %w", err)
		}
		return allowancecache.NewS3Mirror(s3.NewFromConfig(awsCfg), rc.Bucket, rc.Prefix), nil
	case "azblob":
		client, err := azblob.NewClientWithNoCredential(rc.Endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("building azure blob client: %w", err)
		}
		return allowancecache.NewAzureBlobMirror(client, rc.Container, rc.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown remote mirror kind %q", rc.Kind)
	}
}

// resolveAccounts pads raw 20-byte account addresses to their topic form
// and applies the optional account filter once per account, before they
// are handed to the Scanner's AccountSource. The filter candidate carries
// only the account; its chain_id is empty. A malformed address fails the
// whole call.
func resolveAccounts(raw []string, filterExpr string) ([]addr.Address32Padded, error) {
	filter, err := config.NewAccountFilter(filterExpr)
	if err != nil {
		return nil, fmt.Errorf("resolveAccounts: compiling filter: %w", err)
	}

	var out []addr.Address32Padded
	for _, a := range raw {
		padded, err := addr.PadToTopic(addr.Address20(a))
		if err != nil {
			return nil, fmt.Errorf("resolveAccounts: %q: %w", a, err)
		}
		ok, err := filter.Matches(config.ScanCandidate{Account: a})
		if err != nil {
			return nil, fmt.Errorf("resolveAccounts: evaluating filter for %q: %w", a, err)
		}
		if !ok {
			continue
		}
		out = append(out, padded)
	}
	return out, nil
}
