// Package indexer coordinates the end-to-end indexing pipeline for Go codebases.
//
// The indexer orchestrates parsing, chunking, embedding, and storage operations,
// managing concurrency and error handling for production-scale code indexing.
//
// # Basic Usage
//
//	idx := indexer.New(store)
//
//	stats, err := idx.IndexProject(ctx, "/path/to/project", &indexer.Config{
//	    IncludeTests: true,
//	})
//
//	fmt.Printf("Indexed %d files in %v\n", stats.FilesIndexed, stats.Duration)
//
// # Indexing Pipeline
//
// The indexer executes a multi-stage pipeline:
//
//  1. Project Discovery: walk the tree, apply exclusion filters
//  2. Incremental Decision: compare file hashes, skip unchanged files
//  3. Parse & Chunk: extract symbols, calls, type relations, TODOs, and
//     decorators, then cut semantic chunks (parallel, batched transactions)
//  4. Embed: generate vector embeddings in batches (if an embedder is wired)
//  5. Resolve: a second pass matches pending call/type-relation/test-link
//     references against the now-complete symbol table
//  6. Metrics: recompute PageRank over the resolved call graph and persist
//     per-symbol metrics
//
// # Incremental Indexing
//
// By default, the indexer only processes changed files:
//
//	// First index: processes all files
//	stats1, _ := idx.IndexProject(ctx, path, config)
//	// Files: 247 indexed, 0 skipped
//
//	// Subsequent index: only changed files
//	stats2, _ := idx.IndexProject(ctx, path, config)
//	// Files: 3 indexed, 244 skipped
//
// File change detection uses SHA-256 content hashing: a file whose hash
// matches the stored hash is skipped outright.
//
// # Concurrent Processing
//
// The indexer uses a worker pool for parallel file processing, bounded by
// Config.Workers (default runtime.NumCPU()). Files are split into batches
// of Config.BatchSize and each batch commits in a single transaction.
//
// # Cross-file edge resolution
//
// Call sites, type relations (embedding, interface satisfaction, aliases),
// and test-to-symbol links are collected per file during the parse pass but
// can't be resolved immediately: the callee or target symbol may live in a
// file this worker hasn't reached yet. They're accumulated into a shared
// pendingEdges structure and resolved once, after every file in the run has
// committed its symbols. A reference that can't be matched within the same
// package falls back to a project-wide lookup marked as a heuristic match,
// since AST-only resolution can't always tell a package-qualified call from
// a method call through a same-named local variable.
//
// # Embedding Batching
//
// Chunks are collected and embedded in batches for efficiency:
//
//	batchSize := DefaultEmbeddingBatch // 20
//	for i := 0; i < len(chunks); i += batchSize {
//	    batch := chunks[i:min(i+batchSize, len(chunks))]
//	    embeddings, _ := embedder.GenerateBatch(ctx, batch)
//	}
//
// # Error Handling
//
// The indexer handles errors gracefully:
//
//	stats, err := idx.IndexProject(ctx, path, config)
//	// err is only returned for fatal errors (e.g. storage failure)
//
//	if stats.FilesFailed > 0 {
//	    for _, msg := range stats.ErrorMessages {
//	        log.Println(msg)
//	    }
//	}
//
// Parse errors are non-fatal:
//   - Syntax errors: continue with whatever partial AST the parser returned
//   - Read errors: skip the file, record the error, continue
//   - Embedding errors: skip the affected chunks, continue indexing
package indexer
