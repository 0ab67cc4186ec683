package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/indexer"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
)

// handleHydrateSymbols handles the hydrate_symbols tool invocation: given a
// list of symbol IDs returned by an earlier search, fetch their full
// definitions in one call instead of one get_definition round trip each.
func (s *Server) handleHydrateSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	rawIDs, ok := args["symbol_ids"].([]interface{})
	if !ok || len(rawIDs) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "symbol_ids is required", nil)
	}

	symbolIDs := make([]int64, 0, len(rawIDs))
	for _, raw := range rawIDs {
		if f, ok := raw.(float64); ok {
			symbolIDs = append(symbolIDs, int64(f))
		}
	}

	metricsByID, err := s.storage.BatchGetSymbolMetrics(ctx, symbolIDs)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to batch-load symbol metrics", map[string]interface{}{"error": err.Error()})
	}
	packagesByID, err := s.storage.BatchGetSymbolPackages(ctx, symbolIDs)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to batch-load symbol packages", map[string]interface{}{"error": err.Error()})
	}

	out := make([]map[string]interface{}, 0, len(symbolIDs))
	for _, id := range symbolIDs {
		symbol, err := s.storage.GetSymbol(ctx, id)
		if err != nil {
			continue
		}
		entry := symbolToJSON(symbol)
		if file, err := s.storage.GetFileByID(ctx, symbol.FileID); err == nil {
			entry["file_path"] = file.FilePath
		}
		if metrics := metricsByID[id]; metrics != nil {
			entry["page_rank"] = metrics.NormalizedPageRank
			entry["popularity"] = metrics.PopularityCount
		}
		if pkg := packagesByID[id]; pkg != nil {
			entry["package"] = map[string]interface{}{
				"id": pkg.ID, "name": pkg.Name, "version": pkg.Version, "ecosystem": pkg.Ecosystem,
			}
		}
		out = append(out, entry)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"symbols": out, "count": len(out)})), nil
}

// handleReportSelection handles the report_selection tool invocation: an MCP
// client tells us which of the search_code results it actually used, which
// feeds the learning boost signals.go applies to future queries for the
// same normalized query text.
func (s *Server) handleReportSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	query := getStringDefault(args, "query", "")
	symbolID := int64(getIntDefault(args, "symbol_id", 0))
	position := getIntDefault(args, "position", 0)
	if query == "" || symbolID == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "query and symbol_id are required", nil)
	}

	sel := &storage.QuerySelection{
		QueryText:        query,
		QueryNormalized:  strings.ToLower(strings.TrimSpace(query)),
		SelectedSymbolID: symbolID,
		Position:         position,
	}
	if err := s.storage.RecordQuerySelection(ctx, sel); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to record selection", map[string]interface{}{"error": err.Error()})
	}
	if filePath := getStringDefault(args, "file_path", ""); filePath != "" {
		_ = s.storage.RecordFileView(ctx, filePath)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"recorded": true})), nil
}

// handleRefreshIndex handles the refresh_index tool invocation: a thin
// wrapper over IndexProject with force_reindex implied, plus a PageRank
// recompute so graph-derived signals stay current after the rebuild.
func (s *Server) handleRefreshIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path := getStringDefault(args, "path", "")
	if path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path is required", nil)
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{"error": err.Error()})
	}

	stats, err := s.indexer.IndexProject(ctx, path, &indexer.Config{
		IncludeTests:       getBoolDefault(args, "include_tests", true),
		IncludeVendor:      getBoolDefault(args, "include_vendor", false),
		IndexPatterns:      s.cfg.IndexPatterns,
		ExcludePatterns:    s.cfg.ExcludePatterns,
		RespectGitignore:   true,
		ForceReindex:       getBoolDefault(args, "force_reindex", true),
		PageRankDamping:    s.cfg.PageRankDamping,
		PageRankIterations: s.cfg.PageRankIterations,
		PackageDetection:   s.cfg.PackageDetectionEnabled,
	})
	if errors.Is(err, indexer.ErrIndexingInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "an indexing run is already in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "refresh failed", map[string]interface{}{"error": err.Error()})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"files_indexed":       stats.FilesIndexed,
		"files_skipped":       stats.FilesSkipped,
		"symbols_extracted":   stats.SymbolsExtracted,
		"edges_resolved":      stats.EdgesResolved,
		"test_links_resolved": stats.TestLinksResolved,
		"metrics_updated":     stats.MetricsUpdated,
		"duration_ms":         stats.Duration.Milliseconds(),
	})), nil
}
