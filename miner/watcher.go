package miner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the file watcher
type WatcherConfig struct {
	// Root is the directory to watch recursively
	Root string

	// DebounceDelay is how long changes are collected before they are applied
	DebounceDelay time.Duration

	Logger *slog.Logger
}

// WatchOperation indicates what the watcher did with a file
type WatchOperation string

const (
	OpIndex  WatchOperation = "index"
	OpForget WatchOperation = "forget"
)

// WatchEvent reports one applied change
type WatchEvent struct {
	// Path is the absolute file path
	Path      string
	Operation WatchOperation
	Error     error
}

// Watcher keeps a tag store's file resources in step with a directory tree.
type Watcher struct {
	config  WatcherConfig
	indexer *Indexer
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	events   chan WatchEvent
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error
}

// NewWatcher creates a watcher applying changes through indexer.
func NewWatcher(config WatcherConfig, indexer *Indexer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = 100 * time.Millisecond
	}
	root, err := filepath.Abs(config.Root)
	if err != nil {
		fsw.Close()
		return nil, err
	}
	config.Root = root

	return &Watcher{
		config:  config,
		indexer: indexer,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
		events:  make(chan WatchEvent, 100),
		done:    make(chan struct{}),
	}, nil
}

// Events returns the channel of applied changes. It is closed by Stop.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start adds watches under the root and begins applying changes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	go w.processEvents(ctx)

	w.logger.Info("File watcher started",
		"root", w.config.Root,
		"debounce", w.config.DebounceDelay)
	return nil
}

// Stop stops the watcher and closes the events channel. Later calls return
// the result of the first.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.done
		}
		close(w.events)
		w.stopErr = w.watcher.Close()
	})
	return w.stopErr
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(w.config.Root, path)
		if w.indexer.filter.SkipDir(rel) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	rel, _ := filepath.Rel(w.config.Root, path)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.handleNewDirectory(ctx, path, rel)
			return
		}
	}
	if !w.indexer.filter.Match(rel) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected", "path", rel, "op", event.Op.String())
}

// handleNewDirectory watches a new directory and indexes files that landed
// in it before the watch was added.
func (w *Watcher) handleNewDirectory(ctx context.Context, path, rel string) {
	if w.indexer.filter.SkipDir(rel) {
		return
	}
	if err := w.addWatchesRecursive(path); err != nil {
		w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
		return
	}
	if _, err := w.indexer.indexTree(ctx, w.config.Root, path); err != nil {
		w.logger.Warn("Failed to index new directory", "path", path, "error", err)
	}
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path := range toProcess {
		if ctx.Err() != nil {
			return
		}

		event := WatchEvent{Path: path}
		info, err := os.Stat(path)
		switch {
		case err != nil:
			event.Operation = OpForget
			event.Error = w.indexer.ForgetPath(ctx, path)
		case info.Mode().IsRegular():
			event.Operation = OpIndex
			event.Error = w.indexer.IndexPath(ctx, path)
		default:
			continue
		}
		w.sendEvent(event)
	}
}

func (w *Watcher) sendEvent(event WatchEvent) {
	if event.Error != nil {
		w.logger.Warn("Failed to apply file change",
			"path", event.Path, "op", event.Operation, "error", event.Error)
	}
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event", "path", event.Path, "op", event.Operation)
	default:
		w.logger.Warn("Event channel full, dropping event", "path", event.Path)
	}
}
