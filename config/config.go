// Package config loads the scanner's static deployment settings (per-chain
// RPC endpoints, cache data directory, remote mirror target) from TOML,
// the teacher's own configuration format, and hot-reloads it with fsnotify.
// A YAML seed file supplies the default supported-chain/token registry.
package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/naoina/toml"
	"gopkg.in/yaml.v3"
)

// ChainConfig is one configured chain's RPC target.
type ChainConfig struct {
	ChainID     string `toml:"chain_id"`
	RPCEndpoint string `toml:"rpc_endpoint"`
	UseWS       bool   `toml:"use_ws"`
}

// RemoteMirrorConfig configures the optional cache backup target.
type RemoteMirrorConfig struct {
	Kind            string `toml:"kind"` // "s3", "azblob", or "" (disabled)
	Bucket          string `toml:"bucket"`
	Container       string `toml:"container"`
	Prefix          string `toml:"prefix"`
	Region          string `toml:"region"`           // s3 only; empty uses the SDK default chain
	Endpoint        string `toml:"endpoint"`          // azblob account URL
	AccessKeyID     string `toml:"access_key_id"`     // s3 only; empty uses the SDK default credential chain
	SecretAccessKey string `toml:"secret_access_key"` // s3 only
}

// Config is the full deployment configuration.
type Config struct {
	DataDir       string             `toml:"data_dir"`
	Chains        []ChainConfig      `toml:"chains"`
	RemoteMirror  RemoteMirrorConfig `toml:"remote_mirror"`
	AccountFilter string             `toml:"account_filter"`
	CacheBytes    int                `toml:"cache_bytes"`
}

// Load reads and parses a TOML config file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: opening %q: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %q: %w", path, err)
	}
	if cfg.CacheBytes <= 0 {
		cfg.CacheBytes = 32 * 1024 * 1024
	}
	return &cfg, nil
}

// ChainRegistryEntry is one chain's entry in the YAML supported-chain seed.
type ChainRegistryEntry struct {
	ChainID string   `yaml:"chain_id"`
	Name    string   `yaml:"name"`
	Tokens  []string `yaml:"tokens"`
}

// ChainRegistry is the default supported-chain and token-list seed,
// mirroring the original's static GetChainIdsForAlowanceDiscovering table
// and blockchain_registry token list.
type ChainRegistry struct {
	Chains []ChainRegistryEntry `yaml:"chains"`
}

// LoadChainRegistry reads the YAML seed file at path.
func LoadChainRegistry(path string) (*ChainRegistry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}
	var reg ChainRegistry
	if err := yaml.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	return &reg, nil
}

// Watcher hot-reloads a TOML config file, invoking onChange with the newly
// parsed Config whenever the file is rewritten.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	current  *Config
	onChange func(*Config)
	done     chan struct{}
}

// WatchConfig starts watching path for changes, calling onChange after
// every successful reparse. The initial load happens synchronously before
// WatchConfig returns.
func WatchConfig(path string, onChange func(*Config)) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: creating watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watching %q: %w", path, err)
	}

	w := &Watcher{
		path:     path,
		watcher:  fw,
		current:  cfg,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				continue
			}
			w.mu.Lock()
			w.current = cfg
			w.mu.Unlock()
			if w.onChange != nil {
				w.onChange(cfg)
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
