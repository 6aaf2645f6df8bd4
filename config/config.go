// Package config loads the node's JSON configuration document and
// supports hot-reload on file change, per spec.md §6's external
// interfaces and original_source/src/config/mod.rs's NodeConfig shape.
package config

import (
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/republic-chain/proof-of-stake/primitives"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NetworkConfig controls the gossip collaborator's listen address and
// peering parameters (consumed by that external collaborator, not by
// this core — carried here only because it is part of the one config
// document nodes load).
type NetworkConfig struct {
	NetworkID      primitives.NetworkID `json:"network_id"`
	ListenAddress  string               `json:"listen_address"`
	Port           uint16               `json:"port"`
	MaxPeers       int                  `json:"max_peers"`
	BootstrapNodes []string             `json:"bootstrap_nodes"`
}

// StorageConfig points at the persistence collaborator's data
// directory and cache sizing.
type StorageConfig struct {
	DataDir   string `json:"data_dir"`
	CacheSize int    `json:"cache_size"`
}

// ValidatorConfig controls whether this node proposes/attests and
// where its signing key lives.
type ValidatorConfig struct {
	Enabled       bool   `json:"enabled"`
	KeystorePath  string `json:"keystore_path"`
	FeeRecipient  string `json:"fee_recipient"`
	Graffiti      string `json:"graffiti"`
}

// APIConfig controls the RPC/HTTP collaborator's listen address (an
// external collaborator with no contract owned by this core).
type APIConfig struct {
	Enabled       bool     `json:"enabled"`
	ListenAddress string   `json:"listen_address"`
	CORSOrigins   []string `json:"cors_origins"`
}

// MetricsConfig controls the Prometheus exporter listen address.
type MetricsConfig struct {
	Enabled       bool   `json:"enabled"`
	ListenAddress string `json:"listen_address"`
	Namespace     string `json:"namespace"`
}

// LoggingConfig controls logrus's level and formatter.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // "json" | "pretty" | "compact"
}

// NodeConfig is the full configuration document.
type NodeConfig struct {
	Network   NetworkConfig   `json:"network"`
	Storage   StorageConfig   `json:"storage"`
	Validator ValidatorConfig `json:"validator"`
	API       APIConfig       `json:"api"`
	Metrics   MetricsConfig   `json:"metrics"`
	Logging   LoggingConfig   `json:"logging"`
}

// Default returns the reference configuration, matching
// original_source's ConsensusConfig-adjacent NodeConfig::default().
func Default() *NodeConfig {
	return &NodeConfig{
		Network: NetworkConfig{
			NetworkID:     primitives.Devnet,
			ListenAddress: "0.0.0.0",
			Port:          9000,
			MaxPeers:      50,
		},
		Storage: StorageConfig{
			DataDir:   "./data",
			CacheSize: 100 * 1024 * 1024,
		},
		Validator: ValidatorConfig{
			Enabled: false,
		},
		API: APIConfig{
			Enabled:       true,
			ListenAddress: "127.0.0.1:8080",
			CORSOrigins:   []string{"*"},
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: "127.0.0.1:9090",
			Namespace:     "proof_of_stake",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "pretty",
		},
	}
}

// Load reads and decodes a NodeConfig document from path.
func Load(path string) (*NodeConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}
	cfg := Default()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: decode %s", path)
	}
	return cfg, nil
}

// Store is a hot-reloadable holder of the active NodeConfig.
type Store struct {
	mu  sync.RWMutex
	cfg *NodeConfig
}

// NewStore wraps an already-loaded config for concurrent reads.
func NewStore(cfg *NodeConfig) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) Get() *NodeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Store) set(cfg *NodeConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}
