package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexCodebaseTool returns the tool definition for index_codebase
func indexCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_codebase",
		Description: "Index a Go codebase to make it searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to Go project root (must contain at least one .go file)",
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-index all files ignoring file hashes (full rebuild)",
					"default":     false,
				},
				"include_tests": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index *_test.go files",
					"default":     true,
				},
				"include_vendor": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index vendor/ directory",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search indexed Go codebase with natural language or keyword queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to indexed Go project",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Optional filters to narrow search",
					"properties": map[string]interface{}{
						"symbol_types": map[string]interface{}{
							"type":        "array",
							"description": "Filter by symbol kind (function, method, struct, interface, type)",
							"items": map[string]interface{}{
								"type": "string",
								"enum": []string{"function", "method", "struct", "interface", "type", "const", "var"},
							},
						},
						"file_pattern": map[string]interface{}{
							"type":        "string",
							"description": "Glob pattern for file paths (e.g., 'internal/**')",
						},
						"ddd_patterns": map[string]interface{}{
							"type":        "array",
							"description": "Filter by DDD pattern types",
							"items": map[string]interface{}{
								"type": "string",
								"enum": []string{"aggregate", "entity", "value_object", "repository", "service", "command", "query", "handler"},
							},
						},
						"packages": map[string]interface{}{
							"type":        "array",
							"description": "Filter by package names",
							"items": map[string]interface{}{
								"type": "string",
							},
						},
						"min_relevance": map[string]interface{}{
							"type":        "number",
							"description": "Minimum relevance score threshold (0.0-1.0)",
							"minimum":     0.0,
							"maximum":     1.0,
						},
					},
				},
				"search_mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: hybrid (vector + keyword), vector (semantic only), or keyword (BM25 only)",
					"enum":        []string{"hybrid", "vector", "keyword"},
					"default":     "hybrid",
				},
				"max_context_tokens": map[string]interface{}{
					"type":        "integer",
					"description": "Token budget for the assembled Markdown context block (default from config, typically 8192)",
					"minimum":     256,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a Go project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to Go project",
				},
			},
			Required: []string{"path"},
		},
	}
}

func pathAndSymbolProps(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to indexed Go project",
		},
		"symbol_name": map[string]interface{}{
			"type":        "string",
			"description": "Name of the symbol to look up",
		},
		"package": map[string]interface{}{
			"type":        "string",
			"description": "Optional package name to disambiguate symbols sharing a name",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// getDefinitionTool returns the tool definition for get_definition
func getDefinitionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_definition",
		Description: "Fetch the full definition, docstring, and decorators of a named symbol",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: pathAndSymbolProps(nil),
			Required:   []string{"path", "symbol_name"},
		},
	}
}

// findReferencesTool returns the tool definition for find_references
func findReferencesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_references",
		Description: "Find every call, read, write, or reference site for a named symbol",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: pathAndSymbolProps(map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of references to return",
					"default":     50,
				},
			}),
			Required: []string{"path", "symbol_name"},
		},
	}
}

// getCallHierarchyTool returns the tool definition for get_call_hierarchy
func getCallHierarchyTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_call_hierarchy",
		Description: "Walk the call graph outward from a symbol, toward its callers or its callees",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: pathAndSymbolProps(map[string]interface{}{
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "Traversal direction",
					"enum":        []string{"callers", "callees"},
					"default":     "callers",
				},
				"max_depth": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of hops to traverse",
					"default":     2,
				},
			}),
			Required: []string{"path", "symbol_name"},
		},
	}
}

// getTypeGraphTool returns the tool definition for get_type_graph
func getTypeGraphTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_type_graph",
		Description: "Walk type relationships (extends, implements, aliases) outward from a symbol",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: pathAndSymbolProps(map[string]interface{}{
				"max_depth": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of hops to traverse",
					"default":     3,
				},
			}),
			Required: []string{"path", "symbol_name"},
		},
	}
}

// traceDataFlowTool returns the tool definition for trace_data_flow
func traceDataFlowTool() mcp.Tool {
	return mcp.Tool{
		Name:        "trace_data_flow",
		Description: "Walk read/write edges outward from a symbol to trace where its data flows",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: pathAndSymbolProps(map[string]interface{}{
				"max_depth": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of hops to traverse",
					"default":     2,
				},
			}),
			Required: []string{"path", "symbol_name"},
		},
	}
}

// exploreDependencyGraphTool returns the tool definition for explore_dependency_graph
func exploreDependencyGraphTool() mcp.Tool {
	return mcp.Tool{
		Name:        "explore_dependency_graph",
		Description: "Walk the package-level import graph outward from a seed package",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to indexed Go project",
				},
				"package": map[string]interface{}{
					"type":        "string",
					"description": "Seed package name to start the traversal from",
				},
				"max_depth": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of hops to traverse",
					"default":     3,
				},
			},
			Required: []string{"path", "package"},
		},
	}
}

// findAffectedCodeTool returns the tool definition for find_affected_code
func findAffectedCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_affected_code",
		Description: "Estimate the blast radius of changing a symbol: its transitive callers and type relations",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: pathAndSymbolProps(map[string]interface{}{
				"max_depth": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of hops to traverse",
					"default":     5,
				},
			}),
			Required: []string{"path", "symbol_name"},
		},
	}
}

// findSimilarCodeTool returns the tool definition for find_similar_code
func findSimilarCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_similar_code",
		Description: "Find chunks with embeddings similar to an already-indexed chunk",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"chunk_id": map[string]interface{}{
					"type":        "integer",
					"description": "ID of the chunk to compare against",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of similar chunks to return",
					"default":     10,
				},
			},
			Required: []string{"chunk_id"},
		},
	}
}

// searchTodosTool returns the tool definition for search_todos
func searchTodosTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_todos",
		Description: "Search scanned TODO/FIXME/HACK comment markers across all indexed projects",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"keyword": map[string]interface{}{
					"type":        "string",
					"description": "Keyword to match within TODO text (empty matches all)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of TODOs to return",
					"default":     50,
				},
			},
		},
	}
}

// findTestsForSymbolTool returns the tool definition for find_tests_for_symbol
func findTestsForSymbolTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_tests_for_symbol",
		Description: "Find test files linked to a symbol's defining file",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: pathAndSymbolProps(nil),
			Required:   []string{"path", "symbol_name"},
		},
	}
}

// searchDecoratorsTool returns the tool definition for search_decorators
func searchDecoratorsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_decorators",
		Description: "Search indexed decorators/annotations by name across all indexed projects",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Decorator name to search for",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of decorators to return",
					"default":     50,
				},
			},
			Required: []string{"name"},
		},
	}
}

// summarizeFileTool returns the tool definition for summarize_file
func summarizeFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "summarize_file",
		Description: "Summarize a file's package, symbols, imports, and TODOs",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to indexed Go project",
				},
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file to summarize, relative to the project root",
				},
			},
			Required: []string{"path", "file_path"},
		},
	}
}

// getModuleSummaryTool returns the tool definition for get_module_summary
func getModuleSummaryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_module_summary",
		Description: "Summarize every file belonging to a package: file list and symbol counts by kind",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to indexed Go project",
				},
				"package": map[string]interface{}{
					"type":        "string",
					"description": "Package name to summarize",
				},
			},
			Required: []string{"path", "package"},
		},
	}
}

// getIndexStatsTool returns the tool definition for get_index_stats
func getIndexStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_index_stats",
		Description: "Report aggregate index statistics for a project: file, symbol, edge, chunk, and embedding counts",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to indexed Go project",
				},
			},
			Required: []string{"path"},
		},
	}
}

// explainSearchTool returns the tool definition for explain_search
func explainSearchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "explain_search",
		Description: "Run search_code's retrieval pipeline and return the per-result signal breakdown and fusion weights used",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to indexed Go project",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query to explain",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return",
					"default":     10,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// hydrateSymbolsTool returns the tool definition for hydrate_symbols
func hydrateSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "hydrate_symbols",
		Description: "Fetch full definitions for a batch of symbol IDs in one call",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"symbol_ids": map[string]interface{}{
					"type":        "array",
					"description": "Symbol IDs to hydrate",
					"items": map[string]interface{}{
						"type": "integer",
					},
				},
			},
			Required: []string{"symbol_ids"},
		},
	}
}

// reportSelectionTool returns the tool definition for report_selection
func reportSelectionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "report_selection",
		Description: "Record which search result a caller actually used for a query, feeding future learning-signal boosts",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The original search query text",
				},
				"symbol_id": map[string]interface{}{
					"type":        "integer",
					"description": "ID of the symbol that was selected",
				},
				"position": map[string]interface{}{
					"type":        "integer",
					"description": "Rank position of the selected result in the original response",
				},
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Optional file path to also record a view against, for file-affinity boosts",
				},
			},
			Required: []string{"query", "symbol_id"},
		},
	}
}

// refreshIndexTool returns the tool definition for refresh_index
func refreshIndexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "refresh_index",
		Description: "Re-index a project and recompute PageRank/popularity metrics over its call graph",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to indexed Go project",
				},
				"include_tests": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index *_test.go files",
					"default":     true,
				},
				"include_vendor": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index vendor/ directory",
					"default":     false,
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, reindex every file regardless of content hash",
					"default":     true,
				},
			},
			Required: []string{"path"},
		},
	}
}
