// Package main provides an interactive shell over a track library.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phroun/tracks"
	"github.com/phroun/tracks/internal/config"
	"github.com/phroun/tracks/internal/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tracks-repl",
		Short: "Interactive editor for shared PCM tracks",
		Long: `tracks-repl edits in-memory 16-bit PCM tracks.

Tracks can borrow sample ranges from each other with 'insert'; writes
through a borrowed range are visible in every track that shares it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runREPL,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default .tracks.yaml in CWD or $HOME)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (text, json)")

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runREPL(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	opts, err := cfg.LibraryOptions(logger)
	if err != nil {
		return err
	}
	lib, err := tracks.Init(opts)
	if err != nil {
		return fmt.Errorf("initializing library: %w", err)
	}
	defer lib.Close()

	logger.Info("library ready", "max_view_depth", opts.MaxViewDepth, "sample_budget", opts.SampleBudget)

	fmt.Println("Tracks REPL - Shared PCM Track Editor")
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println()

	repl := NewREPL(lib, cfg, bufio.NewReader(os.Stdin), os.Stdout)
	repl.Run()
	return nil
}
