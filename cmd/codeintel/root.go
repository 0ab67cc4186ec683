package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/logging"
)

var (
	// version and buildTime are set via -ldflags at build time.
	version   = "dev"
	buildTime = "unknown"

	baseDirFlag string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:     "codeintel",
	Short:   "Code Intelligence MCP Server",
	Long:    "codeintel parses, indexes, and serves a Go codebase's symbols, call graph, and semantic search over the Model Context Protocol.",
	Version: version,
	// Running the binary with no subcommand starts the MCP server, since
	// that's how MCP clients (Claude Desktop, etc.) invoke it.
	RunE: runServe,
}

func init() {
	rootCmd.SetVersionTemplate("{{.Short}} {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&baseDirFlag, "base-dir", os.Getenv("CODEINTEL_BASE_DIR"),
		"base directory for config, metadata DB, and caches (default: $HOME)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(versionCmd)
}

func resolveBaseDir() (string, error) {
	if baseDirFlag != "" {
		return baseDirFlag, nil
	}
	return os.UserHomeDir()
}

func newLogger() zerolog.Logger {
	return logging.New(logLevel)
}
