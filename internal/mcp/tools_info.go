package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/searcher"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
)

// handleSummarizeFile handles the summarize_file tool invocation
func (s *Server) handleSummarizeFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path := getStringDefault(args, "path", "")
	filePath := getStringDefault(args, "file_path", "")
	if path == "" || filePath == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path and file_path are required", nil)
	}

	project, err := s.storage.GetProject(ctx, path)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, newMCPError(ErrorCodeNotIndexed, "project not indexed", map[string]interface{}{"path": path})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to resolve project", map[string]interface{}{"error": err.Error()})
	}

	file, err := s.storage.GetFile(ctx, project.ID, filePath)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "file not indexed", map[string]interface{}{"file_path": filePath})
	}

	symbols, err := s.storage.ListSymbolsByFile(ctx, file.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list symbols", map[string]interface{}{"error": err.Error()})
	}
	imports, _ := s.storage.ListImportsByFile(ctx, file.ID)
	todos, _ := s.storage.ListTODOsByFile(ctx, file.ID)

	byKind := map[string]int{}
	exported := make([]string, 0)
	for _, sym := range symbols {
		byKind[sym.Kind]++
		if sym.Scope == "exported" {
			exported = append(exported, sym.Name)
		}
	}

	importPaths := make([]string, len(imports))
	for i, imp := range imports {
		importPaths[i] = imp.ImportPath
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"file_path":        file.FilePath,
		"package":          file.PackageName,
		"symbol_count":     len(symbols),
		"symbols_by_kind":  byKind,
		"exported_symbols": exported,
		"imports":          importPaths,
		"todo_count":       len(todos),
	})), nil
}

// handleGetModuleSummary handles the get_module_summary tool invocation
func (s *Server) handleGetModuleSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path := getStringDefault(args, "path", "")
	packageName := getStringDefault(args, "package", "")
	if path == "" || packageName == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path and package are required", nil)
	}

	project, err := s.storage.GetProject(ctx, path)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, newMCPError(ErrorCodeNotIndexed, "project not indexed", map[string]interface{}{"path": path})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to resolve project", map[string]interface{}{"error": err.Error()})
	}

	files, err := s.storage.ListFiles(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list files", map[string]interface{}{"error": err.Error()})
	}

	filePaths := make([]string, 0)
	symbolCount := 0
	byKind := map[string]int{}
	for _, f := range files {
		if f.PackageName != packageName {
			continue
		}
		filePaths = append(filePaths, f.FilePath)
		symbols, err := s.storage.ListSymbolsByFile(ctx, f.ID)
		if err != nil {
			continue
		}
		symbolCount += len(symbols)
		for _, sym := range symbols {
			byKind[sym.Kind]++
		}
	}

	if len(filePaths) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "package not found", map[string]interface{}{"package": packageName})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"package":         packageName,
		"files":           filePaths,
		"file_count":      len(filePaths),
		"symbol_count":    symbolCount,
		"symbols_by_kind": byKind,
	})), nil
}

// handleGetIndexStats handles the get_index_stats tool invocation
func (s *Server) handleGetIndexStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path := getStringDefault(args, "path", "")
	if path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path is required", nil)
	}

	project, err := s.storage.GetProject(ctx, path)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, newMCPError(ErrorCodeNotIndexed, "project not indexed", map[string]interface{}{"path": path})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to resolve project", map[string]interface{}{"error": err.Error()})
	}

	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{"error": err.Error()})
	}

	edges, err := s.storage.ListEdgesForProject(ctx, project.ID)
	if err != nil {
		edges = nil
	}
	edgesByKind := map[string]int{}
	for _, e := range edges {
		edgesByKind[e.Kind]++
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"files_count":      status.FilesCount,
		"symbols_count":    status.SymbolsCount,
		"chunks_count":     status.ChunksCount,
		"embeddings_count": status.EmbeddingsCount,
		"edges_count":      len(edges),
		"edges_by_kind":    edgesByKind,
		"index_size_mb":    status.IndexSizeMB,
	})), nil
}

// handleExplainSearch handles the explain_search tool invocation: runs the
// same retrieval pipeline as search_code but always bypasses the cache and
// always returns the per-candidate signal breakdown, so a caller can see
// why a result ranked where it did.
func (s *Server) handleExplainSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path := getStringDefault(args, "path", "")
	query := getStringDefault(args, "query", "")
	if path == "" || query == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path and query are required", nil)
	}
	limit := getIntDefault(args, "limit", 10)

	project, err := s.storage.GetProject(ctx, path)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, newMCPError(ErrorCodeNotIndexed, "project not indexed", map[string]interface{}{"path": path})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to resolve project", map[string]interface{}{"error": err.Error()})
	}

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Query:     query,
		Limit:     limit,
		Mode:      searcher.SearchModeHybrid,
		ProjectID: project.ID,
		UseCache:  false,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{"error": err.Error()})
	}

	out := searchResponseToJSON(resp)
	out["rrf_k"] = s.cfg.RRFK
	out["rrf_vector_weight"] = s.cfg.RRFVectorWeight
	out["rrf_keyword_weight"] = s.cfg.RRFKeywordWeight
	out["rrf_graph_weight"] = s.cfg.RRFGraphWeight
	out["reranker_weight"] = s.cfg.RerankerWeight

	return mcp.NewToolResultText(formatJSON(out)), nil
}
