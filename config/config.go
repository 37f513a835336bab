// Package config provides configuration loading and management for semtags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semtags/vocabulary/tags"
)

// Store backends.
const (
	BackendSPARQL = "sparql"
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendNATS   = "nats"
)

// Config represents the complete semtags configuration
type Config struct {
	Store    StoreConfig     `yaml:"store"`
	NATS     NATSConfig      `yaml:"nats"`
	Ontology tags.Namespaces `yaml:"ontology"`
	Index    IndexConfig     `yaml:"index"`
	Metrics  MetricsConfig   `yaml:"metrics"`
	Graph    GraphConfig     `yaml:"graph"`
}

// StoreConfig selects and configures the tag store
type StoreConfig struct {
	// Backend is one of sparql, memory, badger, nats
	Backend string `yaml:"backend"`
	// Endpoint is the SPARQL query endpoint (sparql backend)
	Endpoint string `yaml:"endpoint"`
	// UpdateEndpoint is a separate SPARQL update endpoint, if the store has one
	UpdateEndpoint string `yaml:"update_endpoint"`
	// Timeout bounds each SPARQL request
	Timeout time.Duration `yaml:"timeout"`
	// Path is the database directory (badger backend, default: user data dir)
	Path string `yaml:"path"`
}

// NATSConfig configures the NATS connection used by the nats backend and
// graph publishing
type NATSConfig struct {
	URL    string `yaml:"url"`
	Bucket string `yaml:"bucket"`
}

// IndexConfig selects the files registered by index and watch
type IndexConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// MetricsConfig configures the prometheus endpoint
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty = disabled)
	Addr string `yaml:"addr"`
}

// GraphConfig configures knowledge graph publishing
type GraphConfig struct {
	// Publish sends tag changes to graph.ingest.entity over NATS
	Publish bool `yaml:"publish"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:  BackendBadger,
			Endpoint: "http://localhost:8080/sparql",
			Timeout:  30 * time.Second,
		},
		NATS: NATSConfig{
			URL:    "nats://localhost:4222",
			Bucket: "SEMTAGS_TRIPLES",
		},
		Ontology: tags.DefaultNamespaces(),
		Index: IndexConfig{
			Exclude: []string{"**/.*", "**/.*/**"},
		},
	}
}

// DataDir returns the default badger directory.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "semtags")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "semtags")
	}
	return filepath.Join(home, ".local", "share", "semtags")
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSPARQL:
		if c.Store.Endpoint == "" {
			return fmt.Errorf("store.endpoint is required for the sparql backend")
		}
	case BackendNATS:
		if c.NATS.URL == "" {
			return fmt.Errorf("nats.url is required for the nats backend")
		}
	case BackendMemory, BackendBadger:
	default:
		return fmt.Errorf("store.backend must be one of sparql, memory, badger, nats (got %q)", c.Store.Backend)
	}
	if c.Store.Timeout < 0 {
		return fmt.Errorf("store.timeout must not be negative")
	}
	if c.Ontology.NIE == "" || c.Ontology.NAO == "" {
		return fmt.Errorf("ontology.nie and ontology.nao are required")
	}
	if c.Graph.Publish && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when graph.publish is set")
	}
	for _, p := range append(append([]string(nil), c.Index.Include...), c.Index.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("index pattern %q is invalid", p)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := readInto(path, config); err != nil {
		return nil, err
	}
	return config, nil
}

// readLayer loads a file without defaults, so only the keys it sets take part
// in a merge.
func readLayer(path string) (*Config, error) {
	config := &Config{}
	if err := readInto(path, config); err != nil {
		return nil, err
	}
	return config, nil
}

func readInto(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Store
	if other.Store.Backend != "" {
		c.Store.Backend = other.Store.Backend
	}
	if other.Store.Endpoint != "" {
		c.Store.Endpoint = other.Store.Endpoint
	}
	if other.Store.UpdateEndpoint != "" {
		c.Store.UpdateEndpoint = other.Store.UpdateEndpoint
	}
	if other.Store.Timeout != 0 {
		c.Store.Timeout = other.Store.Timeout
	}
	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Bucket != "" {
		c.NATS.Bucket = other.NATS.Bucket
	}

	// Ontology
	if other.Ontology.NIE != "" {
		c.Ontology.NIE = other.Ontology.NIE
	}
	if other.Ontology.NAO != "" {
		c.Ontology.NAO = other.Ontology.NAO
	}

	// Index
	if len(other.Index.Include) > 0 {
		c.Index.Include = other.Index.Include
	}
	if len(other.Index.Exclude) > 0 {
		c.Index.Exclude = other.Index.Exclude
	}

	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
	if other.Graph.Publish {
		c.Graph.Publish = true
	}
}
