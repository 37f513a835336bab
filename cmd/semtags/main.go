// Package main provides the semtags binary entry point.
// Semtags tags local files in a desktop triple store and shows those tags
// the way a file manager's tags column and tag property page do.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semtags"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	backend    string
	endpoint   string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Tag files in a desktop triple store",
		Long: `Semtags manages tags on local files stored in an RDF triple store.

It provides:
- A tags column listing the tags of each file
- A tag page to check, uncheck, rename and bulk-set tags on a selection
- Indexing and watching directories for the embedded stores
- RDF export of files and their tags

Tags live in a SPARQL endpoint (such as a desktop indexer) or in an
embedded store (memory, badger, NATS KV).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.backend, "backend", "", "Store backend (sparql, memory, badger, nats)")
	pf.StringVar(&flags.endpoint, "endpoint", "", "SPARQL endpoint URL")

	cmd.AddCommand(
		listCmd(flags),
		showCmd(flags),
		addCmd(flags),
		removeCmd(flags),
		setCmd(flags),
		renameCmd(flags),
		indexCmd(flags),
		watchCmd(flags),
		exportCmd(flags),
		configCmd(flags),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func newLogger(logLevel string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
