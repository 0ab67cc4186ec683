// Package mcp implements the Model Context Protocol (MCP) server for the
// code intelligence engine.
//
// The MCP server registers 21 tools for AI coding assistants (Claude Code, Codex CLI).
// The three core ones are:
//   - index_codebase: Index a Go project for semantic search
//   - search_code: Search indexed code with natural language queries
//   - get_status: Check indexing status and statistics
//
// The others cover index maintenance (refresh_index, get_index_stats),
// navigation (get_definition, find_references, get_call_hierarchy,
// get_type_graph, trace_data_flow, explore_dependency_graph,
// find_affected_code), discovery (find_similar_code, search_todos,
// find_tests_for_symbol, search_decorators, explain_search) and context
// (summarize_file, get_module_summary, hydrate_symbols, report_selection).
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output,
// making it simple to integrate with any MCP-compatible client.
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	codeintel serve
//
// It then listens on stdin for MCP protocol messages and writes responses to stdout.
//
// # Tool: index_codebase
//
// Index a Go codebase to make it searchable:
//
//	Request:
//	{
//	  "name": "index_codebase",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "force_reindex": false,
//	    "include_tests": true,
//	    "include_vendor": false
//	  }
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "files_indexed": 247,
//	  "files_skipped": 89,
//	  "files_failed": 0,
//	  "symbols_extracted": 8432,
//	  "chunks_created": 9120,
//	  "edges_resolved": 15230,
//	  "test_links_resolved": 412,
//	  "metrics_updated": 8432,
//	  "duration_ms": 35200
//	}
//
// When files fail, "errors" lists the first five failures and, if there
// were more, "error_count" gives the total.
//
// # Tool: search_code
//
// Search indexed code semantically or by keywords:
//
//	Request:
//	{
//	  "name": "search_code",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "query": "user authentication logic",
//	    "limit": 10,
//	    "search_mode": "hybrid",
//	    "filters": {
//	      "symbol_types": ["function", "method"],
//	      "packages": ["internal/auth"]
//	    }
//	  }
//	}
//
//	Response (abridged):
//	{
//	  "results": [
//	    {
//	      "chunk_id": 1834,
//	      "rank": 1,
//	      "relevance_score": 0.92,
//	      "symbol": {
//	        "name": "AuthenticateUser",
//	        "kind": "function"
//	      },
//	      "file": {
//	        "path": "internal/auth/service.go",
//	        "package": "auth",
//	        "start_line": 45,
//	        "end_line": 72
//	      },
//	      "content": "func AuthenticateUser(...) { ... }",
//	      "signals": { ... }
//	    }
//	  ],
//	  "total_results": 1,
//	  "search_mode": "hybrid",
//	  "intent": "general",
//	  "cache_hit": false,
//	  "duration_ms": 180,
//	  "vector_results": 10,
//	  "text_results": 8,
//	  "graph_results": 0
//	}
//
// The response also carries "context" and "context_stats" from the
// context assembler.
//
// # Tool: get_status
//
// Check indexing status:
//
//	Request:
//	{
//	  "name": "get_status",
//	  "arguments": {
//	    "path": "/path/to/project"
//	  }
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "project": {
//	    "id": "3f6c...",
//	    "path": "/path/to/project",
//	    "module_name": "github.com/user/project",
//	    "go_version": "1.21",
//	    "last_indexed_at": "2024-01-01T12:00:00Z"
//	  },
//	  "statistics": {
//	    "files_count": 247,
//	    "symbols_count": 8432,
//	    "chunks_count": 9120,
//	    "embeddings_count": 9120,
//	    "index_size_mb": "12.40"
//	  },
//	  "health": {
//	    "database_accessible": true,
//	    "embeddings_available": true,
//	    "fts_indexes_built": true
//	  }
//	}
//
// For a project that has not been indexed, the response is
// {"indexed": false, "path": ..., "message": ...}.
//
// # MCP Client Configuration
//
// Configure in Claude Code's MCP settings:
//
//	{
//	  "mcpServers": {
//	    "codeintel": {
//	      "command": "/usr/local/bin/codeintel",
//	      "args": ["serve"],
//	      "env": {
//	        "CODEINTEL_BASE_DIR": "/path/to/project"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// The MCP server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "Invalid params",
//	    "data": {
//	      "param": "path",
//	      "reason": "Path does not exist"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments, bad path)
//   - -32603: Internal error (database, filesystem, etc.)
//   - -32002: Indexing in progress
//   - -32003: Project not indexed
//   - -32004: Empty query
//
// # Implementation Details
//
// The MCP package uses github.com/mark3labs/mcp-go for protocol implementation:
//
//	s.mcp = server.NewMCPServer(ServerName, ServerVersion)
//	s.mcp.AddTool(indexCodebaseTool(), s.handleIndexCodebase)
//	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
//	// ... one AddTool call per tool
//	server.ServeStdio(s.mcp)
//
// Tool handlers receive the raw tool call and return a tool result whose
// text is the JSON response:
//
//	func (s *Server) handleIndexCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
//
// # Logging
//
// The MCP server logs with zerolog (internal/logging) to stderr, since
// stdout is reserved for the MCP protocol.
//
// Set log level via the command-line flag:
//
//	codeintel serve --log-level debug
//
// # Testing
//
// Tests build a Server and call its handler methods directly with an
// mcp.CallToolRequest, then decode the JSON text of the returned result.
package mcp
