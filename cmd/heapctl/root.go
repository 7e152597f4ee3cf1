package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pavanmanishd/heapmgr"
)

var (
	// Global flags
	megabytes int
	verbose   bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Exercise a fixed-capacity heap from the command line",
	Long: `heapctl creates a heap of the requested size and runs scenarios against it:
the capacity guarantee after fragmentation, overrun detection, a concurrent
stress run and a metrics endpoint for long runs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&megabytes, "megabytes", "m", 10, "Heap size in megabytes")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every heap operation")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the logger selected by the global flags.
func newLogger(w io.Writer) (*slog.Logger, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	switch logFormat {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", logFormat)
	}
}

// openHeap creates the heap described by the global flags, logging to stderr.
func openHeap(cmd *cobra.Command) (*heapmgr.HeapManager, error) {
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return heapmgr.NewHeapManager(megabytes, heapmgr.WithLogger(logger))
}
