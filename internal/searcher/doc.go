// Package searcher implements hybrid code search combining vector similarity and keyword matching.
//
// The searcher provides three search modes:
//   - Hybrid: Combines vector + BM25 keyword search (recommended)
//   - Vector: Pure semantic search using embeddings
//   - Keyword: BM25 full-text search only
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, emb, graphEngine, cfg)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    ProjectID: projectID,
//	    Query:     "user authentication logic",
//	    Limit:     10,
//	    Mode:      searcher.SearchModeHybrid,
//	})
//
//	for _, result := range resp.Results {
//	    fmt.Printf("[%d] %s (score: %.2f)\n",
//	        result.Rank, result.Symbol.Name, result.RelevanceScore)
//	}
//
// # Search Modes
//
// Hybrid Mode (default, recommended):
//
//   - Combines vector similarity + BM25 keyword search
//
//   - Adds call-graph candidates for "callers of X" queries
//
//   - Uses weighted Reciprocal Rank Fusion (RRF) to merge results
//
//   - Best for most queries (semantic + exact matching)
//
//     resp, _ := s.Search(ctx, searcher.SearchRequest{
//     Query: "authentication logic",
//     Mode:  searcher.SearchModeHybrid,
//     })
//
// Vector Mode:
//
//   - Pure semantic search using embeddings
//
//   - Best for conceptual queries ("error handling patterns")
//
//   - Requires embedding model available
//
//     resp, _ := s.Search(ctx, searcher.SearchRequest{
//     Query: "async error handling patterns",
//     Mode:  searcher.SearchModeVector,
//     })
//
// Keyword Mode:
//
//   - BM25 full-text search only
//
//   - Best for exact symbol names ("func ParseFile")
//
//   - Faster: no query embedding is generated (Search still takes a
//     non-nil embedder)
//
//     resp, _ := s.Search(ctx, searcher.SearchRequest{
//     Query: "ParseFile",
//     Mode:  searcher.SearchModeKeyword,
//     })
//
// # Reciprocal Rank Fusion (RRF)
//
// Hybrid mode uses weighted RRF to combine vector, keyword and graph results:
//
//	For each result r in vector_results:
//	    rrf_score[r.chunk_id] += w_vector / (k + r.rank)
//
//	For each result r in keyword_results:
//	    rrf_score[r.chunk_id] += w_keyword / (k + r.rank)
//
//	For each result r in graph_results:
//	    rrf_score[r.chunk_id] += w_graph / (k + r.rank)
//
//	Sort by rrf_score descending
//
// Weights default to 1 (vector), 1 (keyword) and 0.5 (graph). k comes from
// SearchRequest.RRFConstant, else the configured RRFK, else 60.
//
// # Filtering
//
// Apply filters to narrow search:
//
//	resp, _ := s.Search(ctx, searcher.SearchRequest{
//	    Query: "validation",
//	    Filters: &storage.SearchFilters{
//	        SymbolTypes:  []string{"function", "method"},
//	        Packages:     []string{"internal/auth"},
//	        DDDPatterns:  []string{"service", "repository"},
//	        MinRelevance: 0.7,
//	    },
//	})
//
// Available filters (storage.SearchFilters):
//   - SymbolTypes: function, method, struct, interface, type
//   - FilePattern: file path pattern
//   - Packages: Package names to include
//   - DDDPatterns: repository, service, entity, aggregate, etc.
//   - MinRelevance: Minimum relevance score
//
// # Relevance Scoring
//
// RelevanceScore is the fused RRF score after signal scoring: structural
// adjustments, popularity, docstring, package and learning boosts are added,
// the sum is multiplied by the intent multiplier, and the reranker score is
// blended in. Scores are not normalized to a fixed range; compare them only
// within one response.
//
// # Result Fields
//
// Results carry:
//
//	result.Content       // Main chunk content
//	result.Symbol        // Symbol metadata (if available)
//	result.File          // File path, package, line numbers
//	result.Context       // Not filled in by the searcher
//
// Example:
//
//	fmt.Printf("Found in %s:%d\n", result.File.Path, result.File.StartLine)
//	fmt.Printf("Symbol: %s %s\n", result.Symbol.Kind, result.Symbol.Name)
//	fmt.Printf("Code:\n%s\n", result.Content)
//
// # Performance
//
// Target latency (1834 chunks indexed):
//   - Hybrid: p50=180ms, p95=420ms, p99=580ms
//   - Vector: p50=120ms, p95=350ms, p99=480ms
//   - Keyword: p50=45ms, p95=95ms, p99=130ms
//
// Latency breakdown (hybrid mode, p95):
//   - Query embedding: 80ms (local model)
//   - Vector search: 120ms (cosine similarity)
//   - BM25 search: 60ms (FTS5 index)
//   - RRF merge: 15ms (in-memory)
//   - Context loading: 145ms (SQL joins)
//
// # Caching
//
// Whole responses are cached when SearchRequest.UseCache is set:
//
//	req.UseCache = true
//
//	// First search: runs the full pipeline
//	resp1, _ := s.Search(ctx, req)
//
//	// Repeat search: served from the response cache
//	resp2, _ := s.Search(ctx, req)
//
// The cache is an LRU of 1000 entries; an entry expires after
// SearchRequest.CacheTTL (1 hour when unset).
//
// # Example: Advanced Search
//
//	s := searcher.NewSearcher(store, emb, graphEngine, cfg)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    ProjectID: project.ID,
//	    Query:     "user authentication with JWT tokens",
//	    Limit:     20,
//	    Mode:      searcher.SearchModeHybrid,
//	    Filters: &storage.SearchFilters{
//	        SymbolTypes:  []string{"function", "method"},
//	        Packages:     []string{"internal/auth", "pkg/jwt"},
//	        MinRelevance: 0.7,
//	    },
//	})
//
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Found %d results:\n\n", len(resp.Results))
//	for _, result := range resp.Results {
//	    fmt.Printf("[%d] %.2f - %s.%s\n",
//	        result.Rank,
//	        result.RelevanceScore,
//	        result.Symbol.Package,
//	        result.Symbol.Name,
//	    )
//	    fmt.Printf("     %s:%d-%d\n",
//	        result.File.Path,
//	        result.File.StartLine,
//	        result.File.EndLine,
//	    )
//	    fmt.Printf("     %s\n\n", result.Symbol.Kind)
//	}
package searcher
