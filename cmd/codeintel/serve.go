package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/logging"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/mcp"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long: `Starts the Model Context Protocol server, listening for JSON-RPC
requests on stdin and writing responses on stdout. Logs go to stderr, since
stdout is reserved for the protocol stream.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.Component(newLogger(), "main")

	baseDir, err := resolveBaseDir()
	if err != nil {
		return fmt.Errorf("resolve base dir: %w", err)
	}

	logger.Info().
		Str("version", version).
		Str("build_time", buildTime).
		Str("build_mode", storage.BuildMode).
		Str("sqlite_driver", storage.DriverName).
		Bool("vector_extension", storage.VectorExtensionAvailable).
		Msg("starting")

	server, err := mcp.NewServer(baseDir)
	if err != nil {
		return fmt.Errorf("create mcp server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info().Msg("mcp server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info().Msg("server stopped")
	return nil
}
