package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/config"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/embedder"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/indexer"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/logging"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
)

var (
	indexIncludeTests  bool
	indexIncludeVendor bool
	indexNoEmbeddings  bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a Go project without starting the server",
	Long: `Parses every Go file under path, extracts symbols and
relationships, generates embeddings, and recomputes PageRank, storing
everything in the metadata database under base-dir. Useful for warming the
index in CI or before the first MCP session.

path defaults to the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexIncludeTests, "include-tests", true, "index _test.go files")
	indexCmd.Flags().BoolVar(&indexIncludeVendor, "include-vendor", false, "index vendor/")
	indexCmd.Flags().BoolVar(&indexNoEmbeddings, "no-embeddings", false, "skip embedding generation")
}

func runIndex(cmd *cobra.Command, args []string) error {
	logger := logging.Component(newLogger(), "index")

	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	baseDir, err := resolveBaseDir()
	if err != nil {
		return fmt.Errorf("resolve base dir: %w", err)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorageWithTimeout(cfg.DBPath, cfg.StoreBusyTimeoutMS)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	var idx *indexer.Indexer
	if indexNoEmbeddings {
		idx = indexer.New(store)
	} else {
		emb, err := embedder.NewFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("init embedder: %w", err)
		}
		idx = indexer.NewWithEmbedder(store, emb)
	}

	logger.Info().Str("path", absPath).Msg("indexing")

	stats, err := idx.IndexProject(cmd.Context(), absPath, &indexer.Config{
		IncludeTests:       indexIncludeTests,
		IncludeVendor:      indexIncludeVendor,
		IndexPatterns:      cfg.IndexPatterns,
		ExcludePatterns:    cfg.ExcludePatterns,
		RespectGitignore:   true,
		GenerateEmbeddings: !indexNoEmbeddings,
		PageRankDamping:    cfg.PageRankDamping,
		PageRankIterations: cfg.PageRankIterations,
		PackageDetection:   cfg.PackageDetectionEnabled,
	})
	if err != nil {
		return fmt.Errorf("index project: %w", err)
	}

	logger.Info().
		Int("files_indexed", stats.FilesIndexed).
		Int("files_skipped", stats.FilesSkipped).
		Int("files_failed", stats.FilesFailed).
		Int("symbols_extracted", stats.SymbolsExtracted).
		Int("chunks_created", stats.ChunksCreated).
		Int("edges_resolved", stats.EdgesResolved).
		Int("test_links_resolved", stats.TestLinksResolved).
		Int("metrics_updated", stats.MetricsUpdated).
		Dur("duration", stats.Duration).
		Msg("indexing complete")

	for _, msg := range stats.ErrorMessages {
		logger.Warn().Msg(msg)
	}

	return nil
}
