package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/assembler"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/config"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/embedder"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/graph"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/indexer"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/searcher"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "codeintel-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp       *server.MCPServer
	storage   storage.Storage
	indexer   *indexer.Indexer
	searcher  *searcher.Searcher
	graph     *graph.Engine
	assembler *assembler.Assembler
	embedder  embedder.Embedder
	cfg       *config.Config
	metrics   *MetricsCollector
}

// NewServer creates a new MCP server instance rooted at baseDir. An empty
// baseDir defaults to the user's home directory.
func NewServer(baseDir string) (*Server, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = home
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Initialize storage
	store, err := storage.NewSQLiteStorageWithTimeout(cfg.DBPath, cfg.StoreBusyTimeoutMS)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Create embedder
	emb, err := embedder.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	// Create indexer (shares the embedder with the searcher so indexing and
	// search consume the same cache)
	idx := indexer.NewWithEmbedder(store, emb)

	// Graph engine backs call_hierarchy/type_graph/dependency_graph/data_flow
	// and the retriever's callers-of source
	graphEngine := graph.New(store)

	// Create searcher
	srch := searcher.NewSearcher(store, emb, graphEngine, cfg)

	// Assembler renders search hits into the bounded Markdown context block
	// search_code returns alongside the raw hit list (C8)
	asm, err := assembler.New(store, graphEngine, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize context assembler: %w", err)
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:       mcpServer,
		storage:   store,
		indexer:   idx,
		searcher:  srch,
		graph:     graphEngine,
		assembler: asm,
		embedder:  emb,
		cfg:       cfg,
		metrics:   NewMetricsCollector(),
	}

	// Register tools
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	defer func() { _ = s.embedder.Close() }()

	stopMetrics := s.startMetricsServer()
	defer func() { _ = stopMetrics(context.Background()) }()

	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	// Indexing and status
	s.mcp.AddTool(indexCodebaseTool(), s.handleIndexCodebase)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(refreshIndexTool(), s.handleRefreshIndex)
	s.mcp.AddTool(getIndexStatsTool(), s.handleGetIndexStats)

	// Graph traversal
	s.mcp.AddTool(getDefinitionTool(), s.handleGetDefinition)
	s.mcp.AddTool(findReferencesTool(), s.handleFindReferences)
	s.mcp.AddTool(getCallHierarchyTool(), s.handleGetCallHierarchy)
	s.mcp.AddTool(getTypeGraphTool(), s.handleGetTypeGraph)
	s.mcp.AddTool(traceDataFlowTool(), s.handleTraceDataFlow)
	s.mcp.AddTool(exploreDependencyGraphTool(), s.handleExploreDependencyGraph)
	s.mcp.AddTool(findAffectedCodeTool(), s.handleFindAffectedCode)

	// Search and discovery
	s.mcp.AddTool(findSimilarCodeTool(), s.handleFindSimilarCode)
	s.mcp.AddTool(searchTodosTool(), s.handleSearchTodos)
	s.mcp.AddTool(findTestsForSymbolTool(), s.handleFindTestsForSymbol)
	s.mcp.AddTool(searchDecoratorsTool(), s.handleSearchDecorators)
	s.mcp.AddTool(explainSearchTool(), s.handleExplainSearch)

	// File/module summaries
	s.mcp.AddTool(summarizeFileTool(), s.handleSummarizeFile)
	s.mcp.AddTool(getModuleSummaryTool(), s.handleGetModuleSummary)

	// Learning signals
	s.mcp.AddTool(hydrateSymbolsTool(), s.handleHydrateSymbols)
	s.mcp.AddTool(reportSelectionTool(), s.handleReportSelection)

	return nil
}
