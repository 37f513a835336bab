package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/c360studio/semstreams/metric"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semtags/config"
	"github.com/c360studio/semtags/graph"
	"github.com/c360studio/semtags/sparql"
	"github.com/c360studio/semtags/tagstore"
	"github.com/c360studio/semtags/triples"
)

// graphStream is the JetStream stream holding graph ingest messages.
const graphStream = "GRAPH"

// App wires the configured tag store and its decorators.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// store is what commands use: instrumented and, when publishing, notifying
	store tagstore.Store
	// base is the undecorated backend store
	base tagstore.Store

	metrics *metric.MetricsRegistry
	nats    *natsclient.Client
	closers []func() error
}

// loadApp configures logging, loads the layered config and opens the store.
func loadApp(ctx context.Context, flags *globalFlags) (*App, error) {
	logger := newLogger(flags.logLevel, os.Stderr)
	slog.SetDefault(logger)

	cfg, err := loadConfig(flags, logger)
	if err != nil {
		return nil, err
	}
	return NewApp(ctx, cfg, logger)
}

func loadConfig(flags *globalFlags, logger *slog.Logger) (*config.Config, error) {
	overrides := &config.Config{
		Store: config.StoreConfig{
			Backend:  flags.backend,
			Endpoint: flags.endpoint,
		},
	}
	cfg, err := config.NewLoader(logger, config.WithOverrides(overrides)).Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// NewApp opens the store selected by cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metric.NewMetricsRegistry(),
	}

	base, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.base = base

	metrics, err := tagstore.NewMetrics(a.metrics)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	var store tagstore.Store = tagstore.Instrument(base, metrics)

	if cfg.Graph.Publish {
		nc, err := a.connectNATS(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := ensureGraphStream(ctx, nc); err != nil {
			a.Close()
			return nil, err
		}
		store = tagstore.Notify(store, graph.NewPublisher(nc), logger)
	}
	a.store = store

	logger.Debug("Tag store ready", "backend", cfg.Store.Backend, "publish", cfg.Graph.Publish)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (tagstore.Store, error) {
	switch a.cfg.Store.Backend {
	case config.BackendSPARQL:
		opts := []sparql.ClientOption{
			sparql.WithLogger(a.logger),
			sparql.WithTimeout(a.cfg.Store.Timeout),
		}
		if a.cfg.Store.UpdateEndpoint != "" {
			opts = append(opts, sparql.WithUpdateURL(a.cfg.Store.UpdateEndpoint))
		}
		client, err := sparql.NewClient(a.cfg.Store.Endpoint, opts...)
		if err != nil {
			return nil, err
		}
		return tagstore.NewSPARQLStore(client, a.cfg.Ontology), nil

	case config.BackendMemory:
		return tagstore.NewGraphStore(triples.NewMemoryGraph()), nil

	case config.BackendBadger:
		path := a.cfg.Store.Path
		if path == "" {
			path = config.DataDir()
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		g, err := triples.OpenBadgerGraph(path)
		if err != nil {
			return nil, fmt.Errorf("open badger store at %s: %w", path, err)
		}
		a.closers = append(a.closers, g.Close)
		return tagstore.NewGraphStore(g), nil

	case config.BackendNATS:
		nc, err := a.connectNATS(ctx)
		if err != nil {
			return nil, err
		}
		g, err := triples.NewKVGraph(ctx, nc, a.cfg.NATS.Bucket)
		if err != nil {
			return nil, err
		}
		return tagstore.NewGraphStore(g), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", a.cfg.Store.Backend)
}

// Store returns the decorated tag store.
func (a *App) Store() tagstore.Store {
	return a.store
}

// Indexer returns the backend as a file indexer. Only the embedded
// backends keep their own file resources.
func (a *App) Indexer() (tagstore.Indexer, error) {
	ix, ok := a.base.(tagstore.Indexer)
	if !ok {
		return nil, fmt.Errorf("backend %s does not index files; its store is filled by the desktop indexer", a.cfg.Store.Backend)
	}
	return ix, nil
}

// Close releases the store and the NATS connection.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) connectNATS(ctx context.Context) (*natsclient.Client, error) {
	if a.nats != nil {
		return a.nats, nil
	}

	url := a.cfg.NATS.URL
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		url = envURL
	}
	a.logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithMetrics(a.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	a.nats = client
	a.closers = append(a.closers, func() error {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Close(closeCtx)
	})
	a.logger.Info("Connected to NATS", "url", url)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker run -p 4222:4222 nats -js

Or set NATS_URL environment variable to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

// ensureGraphStream creates the graph ingest stream unless it already exists.
func ensureGraphStream(ctx context.Context, nc *natsclient.Client) error {
	if _, err := nc.GetStream(ctx, graphStream); err == nil {
		return nil
	}
	_, err := nc.CreateStream(ctx, jetstream.StreamConfig{
		Name:     graphStream,
		Subjects: []string{graph.GraphIngestSubject},
		MaxAge:   24 * time.Hour,
		Storage:  jetstream.FileStorage,
	})
	if err != nil && !errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("ensure %s stream: %w", graphStream, err)
	}
	return nil
}
