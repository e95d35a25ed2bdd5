// Package cmd provides the CLI commands for OpenClaw Memory.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openclaw/memory/internal/logging"
	"github.com/openclaw/memory/pkg/version"
)

const memoryDirName = ".openclaw_memory"

// globalMemoryRoot returns the global scope root, ~/.openclaw_memory.
func globalMemoryRoot(home string) string {
	return filepath.Join(home, memoryDirName)
}

// memoryDir returns the project scope root under projectRoot.
func memoryDir(projectRoot string) string {
	return filepath.Join(projectRoot, memoryDirName)
}

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the openclaw-memory CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openclaw-memory",
		Short: "Local per-user and per-project memory for AI coding agents",
		Long: `OpenClaw Memory is a local-first memory service for AI coding agents.

It keeps a global, cross-project memory (identity, preferences, long-lived
facts) and a per-project memory (decisions, patterns, journal, tasks) as
plain Markdown, backed by a hybrid vector + full-text index for retrieval.

Run 'openclaw-memory init' once per project, then 'openclaw-memory serve'
to expose the primer/search/log/session_end/update_tasks/read tools over
MCP.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetVersionTemplate("openclaw-memory version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.openclaw_memory/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		slog.Info("debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
