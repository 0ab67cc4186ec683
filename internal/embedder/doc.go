// Package embedder generates vector embeddings for code chunks and queries.
//
// All three backends (jinacode, fastembed, hash) run entirely in-process
// using deterministic feature hashing over stemmed identifier tokens. None
// of them make network calls, so there is no API key configuration, no
// retry-with-backoff logic, and no "provider unavailable" failure mode to
// handle.
//
// # Basic Usage
//
//	emb, err := embedder.NewFromConfig(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "func ParseFile(path string) error { ... }",
//	})
//	fmt.Printf("Vector dimension: %d\n", len(result.Vector))
//
// # Batch Processing
//
//	texts := []string{
//	    chunk1.FullContent(),
//	    chunk2.FullContent(),
//	    chunk3.FullContent(),
//	}
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: texts,
//	})
//
//	for i, embedding := range resp.Embeddings {
//	    // Store embedding for chunk i
//	}
//
// # Backend Selection
//
// The backend is chosen by config.Config.EmbeddingsBackend, set via the
// CODEINTEL_EMBEDDINGS_BACKEND environment variable or config file:
//
//   - "jinacode"  — 768-dim feature hashing over stemmed identifier sub-words
//   - "fastembed" — 384-dim, the same feature hashing as jinacode
//   - "hash"      — raw SHA-256 vector, dimension set by HashEmbeddingDim
//
// # Caching
//
// The embedder includes an in-memory cache:
//
//	cache := embedder.NewCache(10000) // cache 10k embeddings
//
//	hash := embedder.ComputeHash(text)
//	if emb, ok := cache.Get(hash); ok {
//	    return emb // cache hit
//	}
//
//	cache.Set(hash, emb)
package embedder
