package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/graph"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
)

// resolveProjectSymbol looks up the project for path and, within it, the
// symbol named symbolName (optionally narrowed by packageName). Every
// graph tool starts here since all of them seed a traversal from one named
// symbol.
func (s *Server) resolveProjectSymbol(ctx context.Context, path, symbolName, packageName string) (*storage.Project, *storage.Symbol, error) {
	project, err := s.storage.GetProject(ctx, path)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, nil, newMCPError(ErrorCodeNotIndexed, "project not indexed", map[string]interface{}{"path": path})
		}
		return nil, nil, newMCPError(ErrorCodeInternalError, "failed to resolve project", map[string]interface{}{"error": err.Error()})
	}

	symbols, err := s.storage.FindSymbolsByName(ctx, project.ID, symbolName, packageName)
	if err != nil {
		return nil, nil, newMCPError(ErrorCodeInternalError, "symbol lookup failed", map[string]interface{}{"error": err.Error()})
	}
	if len(symbols) == 0 {
		return nil, nil, newMCPError(ErrorCodeInvalidParams, "symbol not found", map[string]interface{}{"symbol_name": symbolName})
	}
	return project, symbols[0], nil
}

func symbolToJSON(sym *storage.Symbol) map[string]interface{} {
	return map[string]interface{}{
		"id":          sym.ID,
		"name":        sym.Name,
		"kind":        sym.Kind,
		"package":     sym.PackageName,
		"signature":   sym.Signature,
		"doc_comment": sym.DocComment,
		"scope":       sym.Scope,
		"receiver":    sym.Receiver,
		"start_line":  sym.StartLine,
		"end_line":    sym.EndLine,
	}
}

// handleGetDefinition handles the get_definition tool invocation
func (s *Server) handleGetDefinition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
		return nil, newMCPError(ErrorCodeInternalError, "failed to load file", map[string]interface{}{"error": err.Error()})
	}

	response := symbolToJSON(symbol)
	response["file_path"] = file.FilePath

	if doc, err := s.storage.GetDocstring(ctx, symbol.ID); err == nil {
		response["docstring"] = map[string]interface{}{"summary": doc.Summary, "return_desc": doc.ReturnDesc}
	}
	if decorators, err := s.storage.ListDecoratorsBySymbol(ctx, symbol.ID); err == nil && len(decorators) > 0 {
		names := make([]string, len(decorators))
		for i, d := range decorators {
			names[i] = d.Name
		}
		response["decorators"] = names
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleFindReferences handles the find_references tool invocation
func (s *Server) handleFindReferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	limit := getIntDefault(args, "limit", 50)

	_, symbol, err := s.resolveProjectSymbol(ctx, path, symbolName, packageName)
	if err != nil {
		return nil, err
	}

	edges, err := s.storage.ListEdgesTo(ctx, symbol.ID, []string{"call", "reference", "read", "write"})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "reference lookup failed", map[string]interface{}{"error": err.Error()})
	}
	if limit > 0 && len(edges) > limit {
		edges = edges[:limit]
	}

	refs := make([]map[string]interface{}, 0, len(edges))
	for _, e := range edges {
		refs = append(refs, map[string]interface{}{
			"kind":       e.Kind,
			"at_file":    e.AtFile,
			"at_line":    e.AtLine,
			"resolution": e.Resolution,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"symbol":     symbolToJSON(symbol),
		"references": refs,
		"count":      len(refs),
	})), nil
}

func traversalToJSON(result *graph.TraversalResult) map[string]interface{} {
	nodes := make([]map[string]interface{}, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		nodes = append(nodes, map[string]interface{}{
			"symbol":     symbolToJSON(n.Symbol),
			"depth":      n.Depth,
			"edge_kind":  n.Edge.Kind,
			"at_file":    n.Edge.AtFile,
			"at_line":    n.Edge.AtLine,
			"resolution": n.Edge.Resolution,
		})
	}
	return map[string]interface{}{
		"seed":      symbolToJSON(result.Seed),
		"nodes":     nodes,
		"count":     len(nodes),
		"truncated": result.Truncated,
	}
}

// handleGetCallHierarchy handles the get_call_hierarchy tool invocation
func (s *Server) handleGetCallHierarchy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	direction := getStringDefault(args, "direction", "callers")
	maxDepth := getIntDefault(args, "max_depth", 2)

	_, symbol, err := s.resolveProjectSymbol(ctx, path, symbolName, packageName)
	if err != nil {
		return nil, err
	}

	dir := graph.DirectionCallers
	if direction == "callees" {
		dir = graph.DirectionCallees
	}
	result, err := s.graph.CallHierarchy(ctx, symbol.ID, dir, maxDepth)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "call hierarchy traversal failed", map[string]interface{}{"error": err.Error()})
	}

	return mcp.NewToolResultText(formatJSON(traversalToJSON(result))), nil
}

// handleGetTypeGraph handles the get_type_graph tool invocation
func (s *Server) handleGetTypeGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	maxDepth := getIntDefault(args, "max_depth", 3)

	_, symbol, err := s.resolveProjectSymbol(ctx, path, symbolName, packageName)
	if err != nil {
		return nil, err
	}

	result, err := s.graph.TypeGraph(ctx, symbol.ID, maxDepth)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "type graph traversal failed", map[string]interface{}{"error": err.Error()})
	}

	return mcp.NewToolResultText(formatJSON(traversalToJSON(result))), nil
}

// handleTraceDataFlow handles the trace_data_flow tool invocation
func (s *Server) handleTraceDataFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	maxDepth := getIntDefault(args, "max_depth", 2)

	_, symbol, err := s.resolveProjectSymbol(ctx, path, symbolName, packageName)
	if err != nil {
		return nil, err
	}

	result, err := s.graph.DataFlow(ctx, symbol.ID, maxDepth)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "data flow traversal failed", map[string]interface{}{"error": err.Error()})
	}

	return mcp.NewToolResultText(formatJSON(traversalToJSON(result))), nil
}

// handleExploreDependencyGraph handles the explore_dependency_graph tool invocation
func (s *Server) handleExploreDependencyGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	path := getStringDefault(args, "path", "")
	packageName := getStringDefault(args, "package", "")
	if path == "" || packageName == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path and package are required", nil)
	}
	maxDepth := getIntDefault(args, "max_depth", 3)

	project, err := s.storage.GetProject(ctx, path)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, newMCPError(ErrorCodeNotIndexed, "project not indexed", map[string]interface{}{"path": path})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to resolve project", map[string]interface{}{"error": err.Error()})
	}

	nodes, err := s.graph.DependencyGraph(ctx, project.ID, packageName, maxDepth)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "dependency graph traversal failed", map[string]interface{}{"error": err.Error()})
	}

	out := make([]map[string]interface{}, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, map[string]interface{}{"package": n.Package, "imports": n.Imports})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"packages": out, "count": len(out)})), nil
}

// handleFindAffectedCode handles the find_affected_code tool invocation: the
// blast radius of a symbol is everything that transitively calls it, found
// by walking callers several hops further than get_call_hierarchy's default.
func (s *Server) handleFindAffectedCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	maxDepth := getIntDefault(args, "max_depth", 5)

	_, symbol, err := s.resolveProjectSymbol(ctx, path, symbolName, packageName)
	if err != nil {
		return nil, err
	}

	callers, err := s.graph.CallHierarchy(ctx, symbol.ID, graph.DirectionCallers, maxDepth)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "affected-code traversal failed", map[string]interface{}{"error": err.Error()})
	}
	typeUsers, err := s.graph.TypeGraph(ctx, symbol.ID, maxDepth)
	if err != nil {
		typeUsers = &graph.TraversalResult{Seed: symbol}
	}

	response := traversalToJSON(callers)
	response["type_relations"] = traversalToJSON(typeUsers)["nodes"]
	response["summary"] = fmt.Sprintf("%d caller(s) and %d type relation(s) reachable within %d hops", len(callers.Nodes), len(typeUsers.Nodes), maxDepth)

	return mcp.NewToolResultText(formatJSON(response)), nil
}
