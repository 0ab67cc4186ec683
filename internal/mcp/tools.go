package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/apperrors"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/indexer"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/searcher"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
	"github.com/iceinvein/code-intelligence-mcp-server/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeProjectNotFound    = -32001 // Specified path does not contain a Go project
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Project not indexed
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// handleIndexCodebase handles the index_codebase tool invocation
func (s *Server) handleIndexCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	// Validate path exists and is accessible
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	// Parse optional parameters
	forceReindex, _ := args["force_reindex"].(bool)
	includeTests := getBoolDefault(args, "include_tests", true)
	includeVendor := getBoolDefault(args, "include_vendor", false)

	// Create indexer config
	config := &indexer.Config{
		IncludeTests:       includeTests,
		IncludeVendor:      includeVendor,
		IndexPatterns:      s.cfg.IndexPatterns,
		ExcludePatterns:    s.cfg.ExcludePatterns,
		RespectGitignore:   true,
		ForceReindex:       forceReindex,
		PageRankDamping:    s.cfg.PageRankDamping,
		PageRankIterations: s.cfg.PageRankIterations,
		PackageDetection:   s.cfg.PackageDetectionEnabled,
	}

	// Run indexing
	indexStart := time.Now()
	stats, err := s.indexer.IndexProject(ctx, path, config)
	if errors.Is(err, indexer.ErrIndexingInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "an indexing run is already in progress", nil)
	}
	if err != nil {
		s.metrics.RecordToolError("index_codebase")
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.metrics.RecordIndexRun(time.Since(indexStart))

	// Format response
	response := map[string]interface{}{
		"indexed":             true,
		"files_indexed":       stats.FilesIndexed,
		"files_skipped":       stats.FilesSkipped,
		"files_failed":        stats.FilesFailed,
		"symbols_extracted":   stats.SymbolsExtracted,
		"chunks_created":      stats.ChunksCreated,
		"edges_resolved":      stats.EdgesResolved,
		"test_links_resolved": stats.TestLinksResolved,
		"metrics_updated":     stats.MetricsUpdated,
		"duration_ms":         stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	// Validate path exists and is accessible
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	// Parse optional parameters
	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	searchMode := getStringDefault(args, "search_mode", "hybrid")
	if searchMode != "hybrid" && searchMode != "vector" && searchMode != "keyword" {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search_mode", map[string]interface{}{
			"param":   "search_mode",
			"value":   searchMode,
			"allowed": []string{"hybrid", "vector", "keyword"},
		})
	}

	project, err := s.storage.GetProject(ctx, path)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, newMCPError(ErrorCodeNotIndexed, "project not indexed", map[string]interface{}{"path": path})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to resolve project", map[string]interface{}{"error": err.Error()})
	}

	filters := parseSearchFilters(args)

	searchStart := time.Now()
	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Query:     query,
		Limit:     limit,
		Mode:      searcher.SearchMode(searchMode),
		Filters:   filters,
		ProjectID: project.ID,
		UseCache:  true,
	})
	if err != nil {
		s.metrics.RecordToolError("search_code")
		return nil, newMCPError(mcpErrorCodeFor(err, ErrorCodeInternalError), "search failed", map[string]interface{}{"error": err.Error()})
	}
	s.metrics.RecordSearch(searchMode, time.Since(searchStart))

	out := searchResponseToJSON(resp)
	if contextMarkdown, stats, err := s.assembler.Assemble(ctx, resp.Results, query, getIntDefault(args, "max_context_tokens", 0)); err == nil {
		out["context"] = contextMarkdown
		out["context_stats"] = map[string]interface{}{
			"tokens_used":   stats.TokensUsed,
			"token_budget":  stats.TokenBudget,
			"root_count":    stats.RootCount,
			"related_count": stats.RelatedCount,
			"truncated":     stats.Truncated,
		}
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

// parseSearchFilters reads the optional "filters" sub-object into a
// storage.SearchFilters. A missing or malformed filters object degrades
// gracefully to "no filters" rather than erroring the whole search.
func parseSearchFilters(args map[string]interface{}) *storage.SearchFilters {
	raw, ok := args["filters"].(map[string]interface{})
	if !ok {
		return nil
	}
	f := &storage.SearchFilters{}
	f.SymbolTypes = stringSlice(raw["symbol_types"])
	f.FilePattern, _ = raw["file_pattern"].(string)
	f.DDDPatterns = stringSlice(raw["ddd_patterns"])
	f.Packages = stringSlice(raw["packages"])
	if v, ok := raw["min_relevance"].(float64); ok {
		f.MinRelevance = v
	}
	return f
}

func stringSlice(v interface{}) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// searchResponseToJSON flattens a searcher.SearchResponse into the
// tool-facing result shape, attaching the signal breakdown behind each hit
// so search_code and explain_search share one formatting path.
func searchResponseToJSON(resp *searcher.SearchResponse) map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		entry := map[string]interface{}{
			"chunk_id":        r.ChunkID,
			"rank":            r.Rank,
			"relevance_score": r.RelevanceScore,
			"content":         r.Content,
		}
		if r.File != nil {
			entry["file"] = map[string]interface{}{
				"path":       r.File.Path,
				"package":    r.File.Package,
				"start_line": r.File.StartLine,
				"end_line":   r.File.EndLine,
			}
		}
		if r.Symbol != nil {
			entry["symbol"] = map[string]interface{}{
				"name": r.Symbol.Name,
				"kind": r.Symbol.Kind,
			}
		}
		if sig, ok := resp.Signals[r.ChunkID]; ok {
			entry["signals"] = signalsToJSON(sig)
		}
		results = append(results, entry)
	}

	return map[string]interface{}{
		"results":        results,
		"total_results":  resp.TotalResults,
		"search_mode":    resp.SearchMode,
		"intent":         resp.Intent,
		"cache_hit":      resp.CacheHit,
		"duration_ms":    resp.Duration.Milliseconds(),
		"vector_results": resp.VectorResults,
		"text_results":   resp.TextResults,
		"graph_results":  resp.GraphResults,
	}
}

func signalsToJSON(sig types.HitSignals) map[string]interface{} {
	out := map[string]interface{}{
		"keyword_score":     sig.KeywordScore,
		"vector_score":      sig.VectorScore,
		"base_score":        sig.BaseScore,
		"structural_adjust": sig.StructuralAdjust,
		"intent_mult":       sig.IntentMult,
		"popularity_boost":  sig.PopularityBoost,
		"learning_boost":    sig.LearningBoost,
		"affinity_boost":    sig.AffinityBoost,
		"docstring_boost":   sig.DocstringBoost,
		"package_boost":     sig.PackageBoost,
	}
	if sig.RerankerScore != nil {
		out["reranker_score"] = *sig.RerankerScore
	}
	return out
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	// Validate path exists and is accessible
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	// Try to get project
	project, err := s.storage.GetProject(ctx, path)
	if err == storage.ErrNotFound {
		// Project not indexed
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Project not indexed. Use index_codebase tool to index this project.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get project status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Get detailed status
	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.metrics.SetProjectCounts(int64(status.SymbolsCount), int64(status.ChunksCount), int64(status.EmbeddingsCount))

	// Format response
	response := map[string]interface{}{
		"indexed": true,
		"project": map[string]interface{}{
			"id":              project.ExternalID,
			"path":            project.RootPath,
			"module_name":     project.ModuleName,
			"go_version":      project.GoVersion,
			"last_indexed_at": project.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		"statistics": map[string]interface{}{
			"files_count":      status.FilesCount,
			"symbols_count":    status.SymbolsCount,
			"chunks_count":     status.ChunksCount,
			"embeddings_count": status.EmbeddingsCount,
			"index_size_mb":    fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible":  status.Health.DatabaseAccessible,
			"embeddings_available": status.Health.EmbeddingsAvailable,
			"fts_indexes_built":    status.Health.FTSIndexesBuilt,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// mcpErrorCodeFor picks an MCP error code from err's apperrors.Kind, falling
// back to fallback when err was never tagged with apperrors.E.
func mcpErrorCodeFor(err error, fallback int) int {
	switch apperrors.KindOf(err) {
	case apperrors.InvalidArgument:
		return ErrorCodeInvalidParams
	case apperrors.NotFound:
		return ErrorCodeNotIndexed
	default:
		return fallback
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and is accessible
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	// Check if path is absolute
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	// Check if path exists
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	// Check if it's a directory
	if !info.IsDir() {
		return ErrNotDirectory
	}

	// Check if directory is readable
	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	// Check for Go files
	hasGoFiles := false
	_ = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && strings.HasSuffix(p, ".go") {
			hasGoFiles = true
			// Continue walking - we just need to know if at least one Go file exists
		}
		return nil
	})

	if !hasGoFiles {
		return ErrNoGoFiles
	}

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNoGoFiles       = errors.New("directory does not contain Go files")
)
