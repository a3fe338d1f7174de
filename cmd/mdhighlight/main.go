// Package main is the entry point for the mdhighlight CLI.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the mdhighlight CLI.
var rootCmd = &cobra.Command{
	Use:   "mdhighlight",
	Short: "Highlight key phrases in markdown documents",
	Long: `mdhighlight runs documents through a chunked annotation pipeline: the
document is split into chunks at safe markdown boundaries, each chunk is
sent to Claude to wrap key phrases in colored highlight spans, and the
annotated chunks are reassembled in order. Output is always either a
faithfully annotated document or the untouched original text, never a
corrupted in-between.

Single files go through the run subcommand; serve starts an HTTP API with
a job queue for batch use. convert turns PDF, DOCX, HTML, CSV, and plain
text into markdown, and render produces an HTML preview of an annotated
file.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

var verbose bool

// newLogger builds the process logger. Subcommands that produce document
// output on stdout log to stderr.
func newLogger(w *os.File) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
