package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
)

// handleFindSimilarCode handles the find_similar_code tool invocation: given
// an already-indexed chunk, it re-runs vector search against that chunk's
// own embedding rather than against a fresh query embedding.
func (s *Server) handleFindSimilarCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	chunkID := int64(getIntDefault(args, "chunk_id", 0))
	if chunkID == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "chunk_id is required", nil)
	}
	limit := getIntDefault(args, "limit", 10)

	chunk, err := s.storage.GetChunk(ctx, chunkID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "chunk not found", map[string]interface{}{"chunk_id": chunkID})
	}
	file, err := s.storage.GetFileByID(ctx, chunk.FileID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load chunk's file", map[string]interface{}{"error": err.Error()})
	}
	embedding, err := s.storage.GetEmbedding(ctx, chunkID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "chunk has no embedding", map[string]interface{}{"chunk_id": chunkID})
	}

	vector := storage.DeserializeVector(embedding.Vector)
	results, err := s.storage.SearchVector(ctx, file.ProjectID, vector, limit+1, nil)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "similarity search failed", map[string]interface{}{"error": err.Error()})
	}

	out := make([]map[string]interface{}, 0, limit)
	for _, r := range results {
		if r.ChunkID == chunkID {
			continue
		}
		c, err := s.storage.GetChunk(ctx, r.ChunkID)
		if err != nil {
			continue
		}
		f, err := s.storage.GetFileByID(ctx, c.FileID)
		if err != nil {
			continue
		}
		out = append(out, map[string]interface{}{
			"chunk_id":         r.ChunkID,
			"similarity_score": r.SimilarityScore,
			"file_path":        f.FilePath,
			"start_line":       c.StartLine,
			"end_line":         c.EndLine,
			"content":          c.Content,
		})
		if len(out) >= limit {
			break
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"similar": out, "count": len(out)})), nil
}

// handleSearchTodos handles the search_todos tool invocation
func (s *Server) handleSearchTodos(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	keyword := getStringDefault(args, "keyword", "")
	limit := getIntDefault(args, "limit", 50)

	todos, err := s.storage.SearchTODOs(ctx, keyword, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "todo search failed", map[string]interface{}{"error": err.Error()})
	}

	out := make([]map[string]interface{}, 0, len(todos))
	for _, t := range todos {
		out = append(out, map[string]interface{}{
			"file_path": t.FilePath,
			"line":      t.Line,
			"keyword":   t.Keyword,
			"text":      t.Text,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"todos": out, "count": len(out)})), nil
}

// handleFindTestsForSymbol handles the find_tests_for_symbol tool invocation
func (s *Server) handleFindTestsForSymbol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path := getStringDefault(args, "path", "")
	symbolName := getStringDefault(args, "symbol_name", "")
	if path == "" || symbolName == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path and symbol_name are required", nil)
	}
	packageName := getStringDefault(args, "package", "")

	_, symbol, err := s.resolveProjectSymbol(ctx, path, symbolName, packageName)
	if err != nil {
		return nil, err
	}
	file, err := s.storage.GetFileByID(ctx, symbol.FileID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load symbol's file", map[string]interface{}{"error": err.Error()})
	}

	links, err := s.storage.ListTestLinksForSubject(ctx, file.FilePath)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "test link lookup failed", map[string]interface{}{"error": err.Error()})
	}

	out := make([]map[string]interface{}, 0, len(links))
	for _, l := range links {
		if l.SubjectSymbolID != nil && *l.SubjectSymbolID != symbol.ID {
			continue
		}
		out = append(out, map[string]interface{}{"test_file": l.TestFilePath})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"tests": out, "count": len(out)})), nil
}

// handleSearchDecorators handles the search_decorators tool invocation
func (s *Server) handleSearchDecorators(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	name := getStringDefault(args, "name", "")
	if name == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "name is required", nil)
	}
	limit := getIntDefault(args, "limit", 50)

	decorators, err := s.storage.SearchDecorators(ctx, name, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "decorator search failed", map[string]interface{}{"error": err.Error()})
	}

	out := make([]map[string]interface{}, 0, len(decorators))
	for _, d := range decorators {
		sym, err := s.storage.GetSymbol(ctx, d.SymbolID)
		entry := map[string]interface{}{"name": d.Name, "class": d.Class, "symbol_id": d.SymbolID}
		if err == nil {
			entry["symbol_name"] = sym.Name
		}
		out = append(out, entry)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"decorators": out, "count": len(out)})), nil
}
