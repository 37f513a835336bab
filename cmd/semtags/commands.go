package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semtags/config"
	"github.com/c360studio/semtags/export"
	"github.com/c360studio/semtags/extension"
	"github.com/c360studio/semtags/miner"
	"github.com/c360studio/semtags/tagpage"
	"github.com/c360studio/semtags/tagstore"
)

// runWithApp opens the app for the duration of fn.
func runWithApp(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := loadApp(ctx, flags)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func listCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list PATHS...",
		Short: "Show the tags column for files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, app *App) error {
				return runList(ctx, app, args, cmd.OutOrStdout())
			})
		},
	}
}

func runList(ctx context.Context, app *App, patterns []string, out io.Writer) error {
	paths, err := miner.ResolvePaths(patterns, miner.Files)
	if err != nil {
		return err
	}
	column := extension.NewColumnExtension(app.Store(), app.logger)
	for _, path := range paths {
		file, err := extension.NewLocalFile(path)
		if err != nil {
			return err
		}
		if err := column.UpdateFileInfo(ctx, file); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		labels, _ := file.Attribute(extension.TagsAttribute)
		fmt.Fprintf(out, "%s\t%s\n", path, labels)
	}
	return nil
}

func showCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show PATHS...",
		Short: "Show the tag page for a selection of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, app *App) error {
				session, err := openSession(ctx, app, args)
				if err != nil {
					return err
				}
				defer session.Close()
				printSession(cmd.OutOrStdout(), session)
				return nil
			})
		},
	}
}

func addCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add TAG PATHS...",
		Short: "Check a tag for every file in the selection",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, app *App) error {
				return withSession(ctx, app, args[1:], cmd.OutOrStdout(), func(s *tagpage.Session) error {
					return addTag(ctx, s, args[0])
				})
			})
		},
	}
}

func removeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove TAG PATHS...",
		Short: "Uncheck a tag for every file in the selection",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, app *App) error {
				return withSession(ctx, app, args[1:], cmd.OutOrStdout(), func(s *tagpage.Session) error {
					return removeTag(ctx, s, args[0])
				})
			})
		},
	}
}

func setCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set TAGS PATHS...",
		Short: "Replace the tags of every file with a comma separated list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, app *App) error {
				return withSession(ctx, app, args[1:], cmd.OutOrStdout(), func(s *tagpage.Session) error {
					if err := s.SetEntryText(args[0]); err != nil {
						return err
					}
					return s.CommitEntry(ctx)
				})
			})
		},
	}
}

func renameCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rename OLD NEW PATHS...",
		Short: "Move every file in the selection from one tag to another",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, app *App) error {
				return withSession(ctx, app, args[2:], cmd.OutOrStdout(), func(s *tagpage.Session) error {
					return renameTag(ctx, s, args[0], args[1])
				})
			})
		},
	}
}

// openSession builds the tag page for the files matching patterns.
func openSession(ctx context.Context, app *App, patterns []string) (*tagpage.Session, error) {
	paths, err := miner.ResolvePaths(patterns, miner.Files)
	if err != nil {
		return nil, err
	}
	files := make([]extension.FileInfo, 0, len(paths))
	for _, path := range paths {
		file, err := extension.NewLocalFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	pages, err := extension.NewTagPropertyPage(app.Store(), app.logger).PropertyPages(ctx, files)
	if err != nil {
		return nil, err
	}
	session := pages[0].Session
	session.OnEntryChanged(func(text string) {
		app.logger.Debug("Tag entry edited", "text", text, "files", len(session.Files()))
	})
	return session, nil
}

// withSession runs fn against the tag page and prints the resulting page.
func withSession(ctx context.Context, app *App, patterns []string, out io.Writer, fn func(*tagpage.Session) error) error {
	session, err := openSession(ctx, app, patterns)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := fn(session); err != nil {
		if errors.Is(err, tagstore.ErrNotIndexed) {
			return fmt.Errorf("%w; run 'semtags index' on its directory first", err)
		}
		return err
	}
	printSession(out, session)
	return nil
}

func findRow(s *tagpage.Session, label string) int {
	for i, row := range s.Rows() {
		if row.Label == label {
			return i
		}
	}
	return -1
}

// addTag checks the row for label, adding the row when no file has it yet.
func addTag(ctx context.Context, s *tagpage.Session, label string) error {
	if err := tagstore.ValidateLabel(label); err != nil {
		return err
	}
	i := findRow(s, label)
	if i < 0 {
		var err error
		if i, err = s.AddRow(); err != nil {
			return err
		}
		if err := s.EditLabel(ctx, i, label); err != nil {
			return err
		}
	}
	rows := s.Rows()
	if rows[i].Included {
		return nil
	}
	return s.Toggle(ctx, i)
}

// removeTag unchecks the row for label. A tag on only some files is
// checked first so that unchecking clears it from all of them.
func removeTag(ctx context.Context, s *tagpage.Session, label string) error {
	i := findRow(s, label)
	if i < 0 {
		return nil
	}
	if !s.Rows()[i].Included {
		if err := s.Toggle(ctx, i); err != nil {
			return err
		}
	}
	return s.Toggle(ctx, i)
}

// renameTag edits the label of a checked row.
func renameTag(ctx context.Context, s *tagpage.Session, from, to string) error {
	i := findRow(s, from)
	if i < 0 {
		return fmt.Errorf("no file in the selection has tag %q", from)
	}
	if !s.Rows()[i].Included {
		return fmt.Errorf("tag %q is not on every file in the selection", from)
	}
	return s.EditLabel(ctx, i, to)
}

func printSession(out io.Writer, s *tagpage.Session) {
	total := len(s.Files())
	for _, row := range s.Rows() {
		mark := " "
		switch {
		case row.Included:
			mark = "x"
		case row.Count > 0:
			mark = "-"
		}
		suffix := ""
		if row.Inconsistent {
			suffix = " (inconsistent)"
		}
		fmt.Fprintf(out, "[%s] %s %d/%d%s\n", mark, row.Label, row.Count, total, suffix)
	}
	fmt.Fprintf(out, "Tags: %s\n", s.EntryText())
}

func indexCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "index DIRS...",
		Short: "Register the files under directories with an embedded store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, app *App) error {
				indexer, err := newIndexer(app)
				if err != nil {
					return err
				}
				roots, err := miner.ResolvePaths(args, miner.Dirs)
				if err != nil {
					return err
				}
				for _, root := range roots {
					count, err := indexer.IndexRoot(ctx, root)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d files\n", root, count)
				}
				return nil
			})
		},
	}
}

func newIndexer(app *App) (*miner.Indexer, error) {
	target, err := app.Indexer()
	if err != nil {
		return nil, err
	}
	filter := miner.Filter{
		Include: app.cfg.Index.Include,
		Exclude: app.cfg.Index.Exclude,
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return miner.NewIndexer(target, filter, app.logger), nil
}

func watchCmd(flags *globalFlags) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch DIRS...",
		Short: "Index directories and keep the store in step with changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, app *App) error {
				signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer cancel()
				return runWatch(signalCtx, app, args, debounce)
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "How long file changes are collected before they are applied")
	return cmd
}

func runWatch(ctx context.Context, app *App, patterns []string, debounce time.Duration) error {
	indexer, err := newIndexer(app)
	if err != nil {
		return err
	}
	roots, err := miner.ResolvePaths(patterns, miner.Dirs)
	if err != nil {
		return err
	}

	if addr := app.cfg.Metrics.Addr; addr != "" {
		server := startMetricsServer(app, addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	var watchers []*miner.Watcher
	defer func() {
		for _, w := range watchers {
			if err := w.Stop(); err != nil {
				app.logger.Warn("Failed to stop watcher", "error", err)
			}
		}
	}()

	for _, root := range roots {
		if _, err := indexer.IndexRoot(ctx, root); err != nil {
			return err
		}
		w, err := miner.NewWatcher(miner.WatcherConfig{
			Root:          root,
			DebounceDelay: debounce,
			Logger:        app.logger,
		}, indexer)
		if err != nil {
			return fmt.Errorf("create watcher for %s: %w", root, err)
		}
		if err := w.Start(ctx); err != nil {
			_ = w.Stop()
			return fmt.Errorf("start watcher for %s: %w", root, err)
		}
		watchers = append(watchers, w)
		go logWatchEvents(app, w)
	}

	app.logger.Info("Watching directories", "count", len(roots))
	<-ctx.Done()
	app.logger.Info("Received shutdown signal")
	return nil
}

func logWatchEvents(app *App, w *miner.Watcher) {
	for event := range w.Events() {
		if event.Error != nil {
			continue
		}
		app.logger.Info("Applied file change", "path", event.Path, "op", event.Operation)
	}
}

func startMetricsServer(app *App, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		app.metrics.PrometheusRegistry(),
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()
	app.logger.Info("Serving metrics", "addr", addr)
	return server
}

func exportCmd(flags *globalFlags) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export [PATHS...]",
		Short: "Export files and their tags as RDF",
		Long: `Export files and their tags as RDF.

Without paths, every file known to an embedded store is exported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := export.LookupFormat(export.Format(format)); !ok {
				return fmt.Errorf("unknown export format %q", format)
			}
			return runWithApp(cmd, flags, func(ctx context.Context, app *App) error {
				out := cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create output: %w", err)
					}
					defer f.Close()
					out = f
				}
				return runExport(ctx, app, args, export.Format(format), out)
			})
		},
	}
	var names []string
	for _, info := range export.Formats() {
		names = append(names, string(info.Name))
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatTurtle), "Output format ("+strings.Join(names, ", ")+")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func runExport(ctx context.Context, app *App, patterns []string, format export.Format, out io.Writer) error {
	var urls []string
	if len(patterns) > 0 {
		paths, err := miner.ResolvePaths(patterns, miner.Files)
		if err != nil {
			return err
		}
		for _, path := range paths {
			uri, err := extension.PathToURI(path)
			if err != nil {
				return err
			}
			urls = append(urls, uri)
		}
	}

	var opts []export.TagExporterOption
	if lister, ok := app.base.(tagstore.FileLister); ok {
		opts = append(opts, export.WithFileLister(lister))
	}
	exporter, err := export.NewTagExporter(app.Store(), app.cfg.Ontology, opts...).Collect(ctx, urls)
	if err != nil {
		return err
	}
	return exporter.Write(out, format)
}

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the user config file with defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel, os.Stderr)
			path, err := config.NewLoader(logger).EnsureUserConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, newLogger(flags.logLevel, os.Stderr))
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}
