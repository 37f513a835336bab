package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c360studio/semtags/vocabulary/tags"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Store.Backend != BackendBadger {
		t.Errorf("expected default backend badger, got %s", cfg.Store.Backend)
	}
	if cfg.Store.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", cfg.Store.Timeout)
	}
	if cfg.Ontology != tags.DefaultNamespaces() {
		t.Errorf("expected default ontology, got %+v", cfg.Ontology)
	}
	if cfg.Graph.Publish {
		t.Error("expected graph publishing disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "memory backend",
			modify:  func(c *Config) { c.Store.Backend = BackendMemory },
			wantErr: false,
		},
		{
			name:    "unknown backend",
			modify:  func(c *Config) { c.Store.Backend = "tracker" },
			wantErr: true,
		},
		{
			name: "sparql without endpoint",
			modify: func(c *Config) {
				c.Store.Backend = BackendSPARQL
				c.Store.Endpoint = ""
			},
			wantErr: true,
		},
		{
			name: "nats without url",
			modify: func(c *Config) {
				c.Store.Backend = BackendNATS
				c.NATS.URL = ""
			},
			wantErr: true,
		},
		{
			name: "publish without nats url",
			modify: func(c *Config) {
				c.Graph.Publish = true
				c.NATS.URL = ""
			},
			wantErr: true,
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Store.Timeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "missing nao namespace",
			modify:  func(c *Config) { c.Ontology.NAO = "" },
			wantErr: true,
		},
		{
			name:    "invalid include pattern",
			modify:  func(c *Config) { c.Index.Include = []string{"docs/[a-"} },
			wantErr: true,
		},
		{
			name:    "valid include pattern",
			modify:  func(c *Config) { c.Index.Include = []string{"**/*.{md,txt}"} },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
store:
  backend: sparql
  endpoint: "http://test:1234/sparql"
  timeout: 5s
nats:
  url: "nats://test:4222"
ontology:
  nao: "http://example.org/nao#"
index:
  include:
    - "**/*.md"
graph:
  publish: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Store.Backend != BackendSPARQL {
		t.Errorf("expected backend sparql, got %s", cfg.Store.Backend)
	}
	if cfg.Store.Endpoint != "http://test:1234/sparql" {
		t.Errorf("expected endpoint http://test:1234/sparql, got %s", cfg.Store.Endpoint)
	}
	if cfg.Store.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Store.Timeout)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if cfg.Ontology.NAO != "http://example.org/nao#" {
		t.Errorf("expected overridden nao namespace, got %s", cfg.Ontology.NAO)
	}
	// Keys absent from the file keep their defaults
	if cfg.Ontology.NIE != tags.NIENamespace {
		t.Errorf("expected default nie namespace, got %s", cfg.Ontology.NIE)
	}
	if cfg.NATS.Bucket != "SEMTAGS_TRIPLES" {
		t.Errorf("expected default bucket, got %s", cfg.NATS.Bucket)
	}
	if len(cfg.Index.Include) != 1 {
		t.Errorf("expected 1 include pattern, got %d", len(cfg.Index.Include))
	}
	if !cfg.Graph.Publish {
		t.Error("expected graph publishing enabled")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Store: StoreConfig{
			Backend: BackendMemory,
		},
		Index: IndexConfig{
			Include: []string{"docs/**"},
		},
	}

	base.Merge(override)

	if base.Store.Backend != BackendMemory {
		t.Errorf("expected backend memory, got %s", base.Store.Backend)
	}
	// Endpoint should remain from base since override didn't set it
	if base.Store.Endpoint != "http://localhost:8080/sparql" {
		t.Errorf("expected endpoint to remain default, got %s", base.Store.Endpoint)
	}
	if len(base.Index.Include) != 1 || base.Index.Include[0] != "docs/**" {
		t.Errorf("expected include [docs/**], got %v", base.Index.Include)
	}
	if len(base.Index.Exclude) != 2 {
		t.Errorf("expected default excludes to remain, got %v", base.Index.Exclude)
	}

	base.Merge(nil)
	if base.Store.Backend != BackendMemory {
		t.Error("merging nil should not change the config")
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Store.Backend = BackendNATS
	cfg.Metrics.Addr = ":9090"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Store.Backend != BackendNATS {
		t.Errorf("expected backend nats, got %s", loaded.Store.Backend)
	}
	if loaded.Metrics.Addr != ":9090" {
		t.Errorf("expected metrics addr :9090, got %s", loaded.Metrics.Addr)
	}
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoaderLayers(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	work := filepath.Join(project, "a", "b")
	if err := os.MkdirAll(work, 0755); err != nil {
		t.Fatal(err)
	}

	writeConfig(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
store:
  backend: sparql
  endpoint: "http://user:8080/sparql"
metrics:
  addr: ":9100"
`)
	// Project file sits two levels above the work dir and sets only the endpoint
	writeConfig(t, filepath.Join(project, ProjectConfigFile), `
store:
  endpoint: "http://project:8080/sparql"
`)

	loader := NewLoader(quietLogger(), WithHomeDir(home), WithWorkDir(work))
	cfg, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// The project layer must not reset the user's backend to the default
	if cfg.Store.Backend != BackendSPARQL {
		t.Errorf("expected backend sparql from user config, got %s", cfg.Store.Backend)
	}
	if cfg.Store.Endpoint != "http://project:8080/sparql" {
		t.Errorf("expected project endpoint, got %s", cfg.Store.Endpoint)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("expected metrics addr from user config, got %s", cfg.Metrics.Addr)
	}

	explicit := filepath.Join(t.TempDir(), "explicit.yaml")
	writeConfig(t, explicit, `
store:
  backend: memory
`)
	cfg, err = loader.Load(explicit)
	if err != nil {
		t.Fatalf("Load(explicit) error = %v", err)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("expected explicit backend memory, got %s", cfg.Store.Backend)
	}
}

func TestLoaderDefaults(t *testing.T) {
	loader := NewLoader(quietLogger(), WithHomeDir(t.TempDir()), WithWorkDir(t.TempDir()))
	cfg, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Backend != BackendBadger {
		t.Errorf("expected default backend, got %s", cfg.Store.Backend)
	}
	if cfg.Store.Path == "" {
		t.Error("expected badger path to default to the data dir")
	}
}

func TestLoaderErrors(t *testing.T) {
	loader := NewLoader(quietLogger(), WithHomeDir(t.TempDir()), WithWorkDir(t.TempDir()))

	if _, err := loader.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	writeConfig(t, invalid, "store:\n  backend: tracker\n")
	if _, err := loader.Load(invalid); err == nil {
		t.Error("expected validation error for unknown backend")
	}
}

func TestEnsureUserConfig(t *testing.T) {
	home := t.TempDir()
	loader := NewLoader(quietLogger(), WithHomeDir(home), WithWorkDir(t.TempDir()))

	path, err := loader.EnsureUserConfig()
	if err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	if path != filepath.Join(home, UserConfigDir, UserConfigFile) {
		t.Errorf("unexpected user config path %s", path)
	}
	if _, err := LoadFromFile(path); err != nil {
		t.Errorf("created user config should load: %v", err)
	}

	// An existing file is left alone
	writeConfig(t, path, "store:\n  backend: memory\n")
	if _, err := loader.EnsureUserConfig(); err != nil {
		t.Fatalf("EnsureUserConfig() second call error = %v", err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Error("EnsureUserConfig overwrote an existing file")
	}
}

func TestLoaderOverrides(t *testing.T) {
	home := t.TempDir()
	writeConfig(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
store:
  backend: sparql
  endpoint: ""
`)

	// The endpoint is only supplied by the override layer
	overrides := &Config{Store: StoreConfig{Endpoint: "http://flag:8080/sparql"}}
	loader := NewLoader(quietLogger(), WithHomeDir(home), WithWorkDir(t.TempDir()), WithOverrides(overrides))
	cfg, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Backend != BackendSPARQL || cfg.Store.Endpoint != "http://flag:8080/sparql" {
		t.Errorf("expected sparql backend at flag endpoint, got %s %s", cfg.Store.Backend, cfg.Store.Endpoint)
	}
}
