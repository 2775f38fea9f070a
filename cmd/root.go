// Package cmd provides the marketlens CLI commands.
//
// Commands:
//   - serve: HTTP API server answering survey questions
//   - ask: one-shot question from the terminal
//   - seed: regenerate the sample survey dataset
//   - mcp: Model Context Protocol server for IDE integration
//
// All long-running commands handle SIGINT/SIGTERM via context
// cancellation and shut down gracefully.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/marketlens/marketlens/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "marketlens",
	Short: "Natural-language analysis of market research survey data",
	Long: `marketlens answers natural-language questions over survey data.

A router agent classifies each question, a SQL agent answers analytical
questions against the flattened response store, and an insights agent
grounds qualitative analysis in verbatim open-ended answers. Run
"marketlens serve" for the HTTP API or "marketlens ask" for a one-shot
question.`,
	SilenceUsage: true,
}

// Execute is the main entry point for the marketlens CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(func() {
		slog.SetDefault(newLogger())
	})
}

// newLogger builds the process logger. DEBUG in the environment enables
// debug level. Output goes to stderr so stdout stays clean for command
// output and for the MCP JSON-RPC stream.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.NewWithWriter(os.Stderr, log.Config{Level: level})
}
