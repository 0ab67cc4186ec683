// Package searcher implements the retrieval pipeline: query parsing and
// decomposition, per-source candidate retrieval (vector, keyword, and
// graph traversal), Reciprocal Rank Fusion, signal scoring, lexical
// reranking, and result diversification.
package searcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/apperrors"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/config"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/embedder"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/graph"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
	"github.com/iceinvein/code-intelligence-mcp-server/pkg/types"
)

// SearchMode defines how search is performed
type SearchMode string

const (
	SearchModeHybrid  SearchMode = "hybrid"  // Vector + BM25 + graph, fused with RRF
	SearchModeVector  SearchMode = "vector"  // Vector similarity only
	SearchModeKeyword SearchMode = "keyword" // BM25 text search only
)

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query       string
	Limit       int
	Mode        SearchMode
	Filters     *storage.SearchFilters
	ProjectID   int64
	UseCache    bool
	CacheTTL    time.Duration
	RRFConstant float64 // overrides config.RRFK when non-zero

	// Intent/Controls let a caller (e.g. a tool that already knows the
	// target symbol) bypass step 1's detection. Left zero-valued, Search
	// runs parseQuery itself.
	Intent   types.Intent
	Controls types.QueryControls
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results       []types.SearchResult
	TotalResults  int
	SearchMode    SearchMode
	Duration      time.Duration
	CacheHit      bool
	VectorResults int
	TextResults   int
	GraphResults  int
	Intent        types.Intent
	// Signals maps chunk id to the scoring breakdown behind its final rank,
	// consumed by the explain_search tool.
	Signals map[int64]types.HitSignals
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher coordinates retrieval across vector, keyword, and graph sources.
type Searcher struct {
	storage  storage.Storage
	embedder embedder.Embedder
	graph    *graph.Engine
	cfg      *config.Config
	cache    *lru.Cache[uint64, *cacheEntry]
	cacheMu  sync.RWMutex
	hyde     HydeGenerator

	rerankCache   *lru.Cache[rerankCacheKey, float64]
	rerankCacheMu sync.RWMutex
}

// rerankCacheKey identifies one (query, candidate) reranker score, the same
// way the embedding cache keys on text content.
type rerankCacheKey struct {
	queryHash uint64
	chunkID   int64
}

// NewSearcher creates a Searcher. cfg may be nil, in which case defaults
// matching config.setDefaults are used.
func NewSearcher(store storage.Storage, emb embedder.Embedder, graphEngine *graph.Engine, cfg *config.Config) *Searcher {
	cache, err := lru.New[uint64, *cacheEntry](1000)
	if err != nil {
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	rerankCache, err := lru.New[rerankCacheKey, float64](5000)
	if err != nil {
		panic(fmt.Sprintf("failed to create reranker LRU cache: %v", err))
	}
	if cfg == nil {
		cfg = &config.Config{
			RRFK: 60, RRFKeywordWeight: 1, RRFVectorWeight: 1, RRFGraphWeight: 0.5,
			RerankerWeight: 0.3, RerankerTopK: 20,
			RankTestPenalty: 0.5, RankPopularityWeight: 0.05, RankPopularityCap: 50,
			RankIndexFileBoost: -5.0,
		}
	}

	hyde := HydeGenerator(noopHydeGenerator{})
	if cfg.HydeEnabled {
		hyde = templateHydeGenerator{}
	}

	return &Searcher{
		storage:     store,
		embedder:    emb,
		graph:       graphEngine,
		cfg:         cfg,
		cache:       cache,
		hyde:        hyde,
		rerankCache: rerankCache,
	}
}

// SetHydeGenerator replaces the HyDE generator NewSearcher chose (the
// template one when HydeEnabled is set, a no-op otherwise) with a
// caller-supplied one (e.g. a test double, or a future real adapter).
func (s *Searcher) SetHydeGenerator(g HydeGenerator) {
	s.hyde = g
}

// Search performs a search based on the request parameters.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if s.embedder == nil {
		return nil, apperrors.E(apperrors.ModelUnavailable, "searcher.Search", fmt.Errorf("embedder not initialized"))
	}

	pq := s.resolveQuery(req)

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if req.UseCache {
		cached, err := s.checkCache(ctx, req, pq)
		if err == nil && cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	var response *SearchResponse
	var err error

	switch req.Mode {
	case SearchModeHybrid:
		response, err = s.hybridSearch(ctx, req, pq)
	case SearchModeVector:
		response, err = s.vectorSearch(ctx, req, pq)
	case SearchModeKeyword:
		response, err = s.keywordSearch(ctx, req, pq)
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode)
	}

	if err != nil {
		return nil, err
	}

	response.Duration = time.Since(startTime)
	response.SearchMode = req.Mode
	response.Intent = pq.Intent

	if req.UseCache && len(response.Results) > 0 {
		_ = s.storeInCache(ctx, req, pq, response)
	}

	return response, nil
}

// resolveQuery runs §4.7 step 1 (parse/decompose) unless the caller already
// supplied Intent/Controls.
func (s *Searcher) resolveQuery(req SearchRequest) ParsedQuery {
	pq := parseQuery(req.Query)
	if req.Intent != "" {
		pq.Intent = req.Intent
	}
	if req.Controls.Package != "" {
		pq.Controls.Package = req.Controls.Package
	}
	if req.Controls.CallersOf != "" {
		pq.Controls.CallersOf = req.Controls.CallersOf
		pq.Intent = types.IntentCallers
	}
	return pq
}

// searchResult holds results from concurrent search operations
type searchResult struct {
	vectorResults []storage.VectorResult
	textResults   []storage.TextResult
	graphResults  []rankedResult
	err           error
}

func (s *Searcher) runVectorSearch(ctx context.Context, req SearchRequest, pq ParsedQuery, resultChan chan<- searchResult) {
	s.runVectorSearchText(ctx, pq.Text, req, resultChan)
}

// runVectorSearchText runs a vector search for one clause of a (possibly
// decomposed) query; step 4 calls this once per sub-query when the query
// split into more than one clause.
func (s *Searcher) runVectorSearchText(ctx context.Context, text string, req SearchRequest, resultChan chan<- searchResult) {
	var res searchResult
	embedText := text
	if s.hyde != nil {
		if expanded, err := s.hyde.Generate(ctx, text); err == nil && expanded != "" {
			embedText = expanded
		}
	}
	embReq := embedder.EmbeddingRequest{Text: embedText}
	embedding, err := s.embedder.GenerateEmbedding(ctx, embReq)
	if err != nil {
		res.err = fmt.Errorf("failed to generate query embedding: %w", err)
	} else {
		res.vectorResults, res.err = s.storage.SearchVector(ctx, req.ProjectID, embedding.Vector, req.Limit*2, req.Filters)
	}
	select {
	case resultChan <- res:
	case <-ctx.Done():
	}
}

// keywordQuery builds the text passed to BM25: the raw query followed by
// every decomposed stem of it, so "getUserByID" still
// matches text indexed as "get user by id".
func keywordQuery(pq ParsedQuery) string {
	return keywordQueryText(pq.Text)
}

// keywordQueryText is keywordQuery without a pre-parsed ParsedQuery, for the
// sub-query clauses step 4 searches independently.
func keywordQueryText(text string) string {
	q := text
	for _, t := range decompose(text) {
		q += " " + t
	}
	return q
}

func (s *Searcher) runTextSearch(ctx context.Context, req SearchRequest, pq ParsedQuery, resultChan chan<- searchResult) {
	s.runTextSearchText(ctx, pq.Text, req, resultChan)
}

func (s *Searcher) runTextSearchText(ctx context.Context, text string, req SearchRequest, resultChan chan<- searchResult) {
	var res searchResult
	res.textResults, res.err = s.storage.SearchText(ctx, req.ProjectID, keywordQueryText(text), req.Limit*2, req.Filters)
	select {
	case resultChan <- res:
	case <-ctx.Done():
	}
}

// runGraphSearch implements the graph source of §4.7 step 4: when the query
// was recognized as "callers of X", it resolves X by name and returns its
// callers up to two hops away as candidates, each weighted 1/hop distance.
func (s *Searcher) runGraphSearch(ctx context.Context, req SearchRequest, pq ParsedQuery, resultChan chan<- searchResult) {
	var res searchResult
	if s.graph == nil || pq.Controls.CallersOf == "" {
		select {
		case resultChan <- res:
		case <-ctx.Done():
		}
		return
	}

	symbols, err := s.storage.FindSymbolsByName(ctx, req.ProjectID, pq.Controls.CallersOf, pq.Controls.Package)
	if err != nil || len(symbols) == 0 {
		select {
		case resultChan <- res:
		case <-ctx.Done():
		}
		return
	}

	seen := map[int64]bool{}
	for _, sym := range symbols {
		traversal, err := s.graph.CallHierarchy(ctx, sym.ID, graph.DirectionCallers, 2)
		if err != nil {
			continue
		}
		for _, node := range traversal.Nodes {
			chunk, err := s.storage.GetChunkBySymbol(ctx, node.Symbol.ID)
			if err != nil || seen[chunk.ID] {
				continue
			}
			seen[chunk.ID] = true
			res.graphResults = append(res.graphResults, rankedResult{
				chunkID: chunk.ID,
				score:   1.0 / float64(node.Depth),
			})
		}
	}
	sortRankedResults(res.graphResults)
	for i := range res.graphResults {
		res.graphResults[i].rank = i + 1
	}

	select {
	case resultChan <- res:
	case <-ctx.Done():
	}
}

// hybridSearch fuses vector, keyword, and graph sources with weighted RRF,
// then runs signal scoring, reranking, and diversification over the fused
// candidate set (§4.7 steps 4-7).
func (s *Searcher) hybridSearch(ctx context.Context, req SearchRequest, pq ParsedQuery) (*SearchResponse, error) {
	// §4.7 step 4: a compound query ("A and B") retrieves each clause
	// independently and fuses all of them together, rather than embedding
	// and BM25-matching the concatenated text as one blurry query.
	queries := pq.SubQueries
	if len(queries) == 0 {
		queries = []string{pq.Text}
	}

	vectorChan := make(chan searchResult, len(queries))
	textChan := make(chan searchResult, len(queries))
	graphChan := make(chan searchResult, 1)

	for _, q := range queries {
		go s.runVectorSearchText(ctx, q, req, vectorChan)
		go s.runTextSearchText(ctx, q, req, textChan)
	}
	go s.runGraphSearch(ctx, req, pq, graphChan)

	var vectorResultSets [][]storage.VectorResult
	var textResultSets [][]storage.TextResult
	var graphRes searchResult
	var vectorErr, textErr error
	vectorRemaining, textRemaining, graphDone := len(queries), len(queries), false
	for vectorRemaining > 0 || textRemaining > 0 || !graphDone {
		select {
		case vr := <-vectorChan:
			vectorRemaining--
			if vr.err != nil {
				vectorErr = vr.err
				continue
			}
			vectorResultSets = append(vectorResultSets, vr.vectorResults)
		case tr := <-textChan:
			textRemaining--
			if tr.err != nil {
				textErr = tr.err
				continue
			}
			textResultSets = append(textResultSets, tr.textResults)
		case graphRes = <-graphChan:
			graphDone = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if vectorErr != nil && textErr != nil {
		return nil, fmt.Errorf("both searches failed: vector=%w, text=%v", vectorErr, textErr)
	}

	fused := s.applyWeightedRRF(vectorResultSets, textResultSets, graphRes.graphResults, req.RRFConstant)

	candidates, err := s.fetchCandidates(ctx, fused)
	if err != nil {
		return nil, err
	}

	var totalVectorResults, totalTextResults int
	vecByChunk := make(map[int64]float64)
	for _, vrs := range vectorResultSets {
		totalVectorResults += len(vrs)
		for _, vr := range vrs {
			if vr.SimilarityScore > vecByChunk[vr.ChunkID] {
				vecByChunk[vr.ChunkID] = vr.SimilarityScore
			}
		}
	}
	kwByChunk := make(map[int64]float64)
	for _, trs := range textResultSets {
		totalTextResults += len(trs)
		for _, tr := range trs {
			if tr.BM25Score > kwByChunk[tr.ChunkID] {
				kwByChunk[tr.ChunkID] = tr.BM25Score
			}
		}
	}
	for _, c := range candidates {
		c.signals.VectorScore = vecByChunk[c.chunkID]
		c.signals.KeywordScore = kwByChunk[c.chunkID]
	}

	scoreSignals(ctx, s.storage, s.cfg, pq, candidates)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].final > candidates[j].final })
	s.rerankWithCache(pq.Text, candidates, s.cfg.RerankerTopK)
	// Blend reranker score against the pre-rerank base rather than adding on
	// top of it, so a strong reranker signal can also pull a score down.
	rerankerWeight := s.cfg.RerankerWeight
	if rerankerWeight == 0 {
		rerankerWeight = 0.3
	}
	for _, c := range candidates {
		if c.signals.RerankerScore != nil {
			c.final = rerankerWeight*(*c.signals.RerankerScore) + (1-rerankerWeight)*c.final
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].final > candidates[j].final })

	candidates = diversify(candidates, 3)
	if req.Limit < len(candidates) {
		candidates = candidates[:req.Limit]
	}

	results, signals := candidatesToResults(candidates)

	return &SearchResponse{
		Results:       results,
		TotalResults:  len(results),
		VectorResults: totalVectorResults,
		TextResults:   totalTextResults,
		GraphResults:  len(graphRes.graphResults),
		Signals:       signals,
	}, nil
}

// vectorSearch performs only vector similarity search
func (s *Searcher) vectorSearch(ctx context.Context, req SearchRequest, pq ParsedQuery) (*SearchResponse, error) {
	embReq := embedder.EmbeddingRequest{Text: pq.Text}
	embedding, err := s.embedder.GenerateEmbedding(ctx, embReq)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	vectorResults, err := s.storage.SearchVector(ctx, req.ProjectID, embedding.Vector, req.Limit, req.Filters)
	if err != nil {
		return nil, err
	}

	ranked := make([]rankedResult, len(vectorResults))
	for i, vr := range vectorResults {
		ranked[i] = rankedResult{chunkID: vr.ChunkID, score: vr.SimilarityScore, rank: i + 1}
	}

	candidates, err := s.fetchCandidates(ctx, ranked)
	if err != nil {
		return nil, err
	}
	scoreSignals(ctx, s.storage, s.cfg, pq, candidates)
	if req.Limit < len(candidates) {
		candidates = candidates[:req.Limit]
	}
	results, signals := candidatesToResults(candidates)

	return &SearchResponse{Results: results, TotalResults: len(results), VectorResults: len(vectorResults), Signals: signals}, nil
}

// keywordSearch performs only BM25 text search
func (s *Searcher) keywordSearch(ctx context.Context, req SearchRequest, pq ParsedQuery) (*SearchResponse, error) {
	textResults, err := s.storage.SearchText(ctx, req.ProjectID, keywordQuery(pq), req.Limit, req.Filters)
	if err != nil {
		return nil, err
	}

	ranked := make([]rankedResult, len(textResults))
	for i, tr := range textResults {
		ranked[i] = rankedResult{chunkID: tr.ChunkID, score: tr.BM25Score, rank: i + 1}
	}

	candidates, err := s.fetchCandidates(ctx, ranked)
	if err != nil {
		return nil, err
	}
	scoreSignals(ctx, s.storage, s.cfg, pq, candidates)
	if req.Limit < len(candidates) {
		candidates = candidates[:req.Limit]
	}
	results, signals := candidatesToResults(candidates)

	return &SearchResponse{Results: results, TotalResults: len(results), TextResults: len(textResults), Signals: signals}, nil
}

// rankedResult represents a chunk with its relevance score and rank
type rankedResult struct {
	chunkID int64
	score   float64
	rank    int
}

// applyWeightedRRF applies §4.7 step 5's Reciprocal Rank Fusion across up to
// three sources, each scaled by its configured weight before summing. When a
// compound query decomposed into several clauses (step 4), vectorResultSets
// and textResultSets hold one ranking per clause; every clause's ranking
// contributes its own 1/(k+rank) term into the same fused score, so a chunk
// that ranks well for any clause is pulled toward the top rather than
// requiring a single blended query to match all clauses at once.
func (s *Searcher) applyWeightedRRF(vectorResultSets [][]storage.VectorResult, textResultSets [][]storage.TextResult, graphResults []rankedResult, k float64) []rankedResult {
	if k == 0 {
		k = s.cfg.RRFK
	}
	if k == 0 {
		k = 60
	}
	vw, kw, gw := s.cfg.RRFVectorWeight, s.cfg.RRFKeywordWeight, s.cfg.RRFGraphWeight
	if vw == 0 && kw == 0 && gw == 0 {
		vw, kw, gw = 1, 1, 0.5
	}

	scores := make(map[int64]float64)
	for _, vectorResults := range vectorResultSets {
		for rank, vr := range vectorResults {
			scores[vr.ChunkID] += vw / (k + float64(rank+1))
		}
	}
	for _, textResults := range textResultSets {
		for rank, tr := range textResults {
			scores[tr.ChunkID] += kw / (k + float64(rank+1))
		}
	}
	for _, gr := range graphResults {
		scores[gr.chunkID] += gw / (k + float64(gr.rank))
	}

	results := make([]rankedResult, 0, len(scores))
	for chunkID, score := range scores {
		results = append(results, rankedResult{chunkID: chunkID, score: score})
	}
	sortRankedResults(results)
	for i := range results {
		results[i].rank = i + 1
	}
	return results
}

// fetchCandidates loads chunk/file/symbol data for each ranked result and
// builds the scoredCandidate set signal scoring operates on.
func (s *Searcher) fetchCandidates(ctx context.Context, ranked []rankedResult) ([]*scoredCandidate, error) {
	candidates := make([]*scoredCandidate, 0, len(ranked))
	for _, rr := range ranked {
		chunk, err := s.storage.GetChunk(ctx, rr.chunkID)
		if err != nil {
			continue
		}
		file, err := s.storage.GetFileByID(ctx, chunk.FileID)
		if err != nil {
			continue
		}

		c := &scoredCandidate{
			chunkID:     rr.chunkID,
			filePath:    file.FilePath,
			packageName: file.PackageName,
			startLine:   chunk.StartLine,
			endLine:     chunk.EndLine,
			isTest:      isTestFile(file.FilePath),
			content:     chunk.Content,
			rank:        rr.rank,
			final:       rr.score,
		}
		if chunk.SymbolID != nil {
			if sym, err := s.storage.GetSymbol(ctx, *chunk.SymbolID); err == nil {
				c.symbolID = chunk.SymbolID
				c.symbolName = sym.Name
				c.symbolKind = sym.Kind
				c.docComment = sym.DocComment
			}
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func isTestFile(path string) bool {
	return len(path) > 8 && path[len(path)-8:] == "_test.go"
}

// candidatesToResults converts scored candidates into the public result
// shape from the fields each candidate already carries; nothing is
// re-fetched from storage.
func candidatesToResults(candidates []*scoredCandidate) ([]types.SearchResult, map[int64]types.HitSignals) {
	results := make([]types.SearchResult, 0, len(candidates))
	signals := make(map[int64]types.HitSignals, len(candidates))

	for i, c := range candidates {
		var symbol *types.Symbol
		if c.symbolID != nil {
			symbol = &types.Symbol{
				ID: *c.symbolID, Name: c.symbolName, Kind: types.SymbolKind(c.symbolKind),
				DocComment: c.docComment, Package: c.packageName,
			}
		}
		results = append(results, types.SearchResult{
			ChunkID:        c.chunkID,
			Rank:           i + 1,
			RelevanceScore: c.final,
			Symbol:         symbol,
			File: &types.FileInfo{
				Path:      c.filePath,
				Package:   c.packageName,
				StartLine: c.startLine,
				EndLine:   c.endLine,
			},
			Content: c.content,
		})
		signals[c.chunkID] = c.signals
	}
	return results, signals
}

// validateRequest ensures search request is valid
func (s *Searcher) validateRequest(req *SearchRequest) error {
	if req.Query == "" {
		return apperrors.E(apperrors.InvalidArgument, "searcher.validateRequest", fmt.Errorf("query cannot be empty"))
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Mode == "" {
		req.Mode = SearchModeHybrid
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = 1 * time.Hour
	}
	return nil
}

// checkCache looks up cached search results
func (s *Searcher) checkCache(ctx context.Context, req SearchRequest, pq ParsedQuery) (*SearchResponse, error) {
	hash := computeQueryHash(req, pq)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil, fmt.Errorf("cache miss")
	}
	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil, fmt.Errorf("cache expired")
	}
	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()

	return response, nil
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(ctx context.Context, req SearchRequest, pq ParsedQuery, response *SearchResponse) error {
	hash := computeQueryHash(req, pq)
	entry := &cacheEntry{response: copySearchResponse(response), expiresAt: time.Now().Add(req.CacheTTL)}

	s.cacheMu.Lock()
	s.cache.Add(hash, entry)
	s.cacheMu.Unlock()
	return nil
}

// copySearchResponse creates a deep copy of a SearchResponse
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}
	dst := &SearchResponse{
		TotalResults:  src.TotalResults,
		SearchMode:    src.SearchMode,
		Duration:      src.Duration,
		CacheHit:      src.CacheHit,
		VectorResults: src.VectorResults,
		TextResults:   src.TextResults,
		GraphResults:  src.GraphResults,
		Intent:        src.Intent,
		Results:       make([]types.SearchResult, len(src.Results)),
		Signals:       make(map[int64]types.HitSignals, len(src.Signals)),
	}
	for i, result := range src.Results {
		dst.Results[i] = types.SearchResult{
			ChunkID:        result.ChunkID,
			Rank:           result.Rank,
			RelevanceScore: result.RelevanceScore,
			Content:        result.Content,
			Context:        result.Context,
		}
		if result.Symbol != nil {
			symbolCopy := *result.Symbol
			dst.Results[i].Symbol = &symbolCopy
		}
		if result.File != nil {
			fileCopy := *result.File
			dst.Results[i].File = &fileCopy
		}
	}
	for k, v := range src.Signals {
		dst.Signals[k] = v
	}
	return dst
}

// rerankWithCache is rerank plus a second LRU keyspace (query_hash,
// candidate_id), the same way the embedding cache avoids re-embedding text
// it has already seen: a candidate chunk scored against a query once never
// pays the Jaro-Winkler pass again for that same query.
func (s *Searcher) rerankWithCache(query string, candidates []*scoredCandidate, topK int) {
	if topK <= 0 || topK > len(candidates) {
		topK = len(candidates)
	}
	queryHash := xxhash.Sum64String(strings.ToLower(strings.TrimSpace(query)))

	uncached := make([]*scoredCandidate, 0, topK)
	for i := 0; i < topK; i++ {
		c := candidates[i]
		key := rerankCacheKey{queryHash: queryHash, chunkID: c.chunkID}
		if score, ok := s.rerankCache.Get(key); ok {
			sc := score
			c.signals.RerankerScore = &sc
			continue
		}
		uncached = append(uncached, c)
	}
	if len(uncached) == 0 {
		return
	}

	rerank(query, uncached, len(uncached))

	for _, c := range uncached {
		if c.signals.RerankerScore != nil {
			s.rerankCache.Add(rerankCacheKey{queryHash: queryHash, chunkID: c.chunkID}, *c.signals.RerankerScore)
		}
	}
}

// computeQueryHash computes a unique cache key for a search request. Uses
// xxhash rather than a cryptographic digest since this key only needs
// collision resistance against a local LRU, not an adversary.
func computeQueryHash(req SearchRequest, pq ParsedQuery) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(pq.Text)
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(string(req.Mode))
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(string(pq.Intent))
	_, _ = h.WriteString("|")
	_, _ = fmt.Fprintf(h, "%d", req.ProjectID)

	if req.Filters != nil {
		_, _ = h.WriteString("|filters:")
		for _, st := range req.Filters.SymbolTypes {
			_, _ = h.WriteString(st)
		}
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(req.Filters.FilePattern)
		_, _ = h.WriteString("|")
		for _, p := range req.Filters.Packages {
			_, _ = h.WriteString(p)
		}
	}
	return h.Sum64()
}

// sortRankedResults sorts results by score in descending order
func sortRankedResults(results []rankedResult) {
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
}

// InvalidateCache removes cached queries for a specific project. The LRU
// doesn't index by project id, so invalidation purges everything; cache
// invalidation only happens on reindex, where a stale-but-cleared cache is
// cheap compared to the bookkeeping a per-project index would need.
func (s *Searcher) InvalidateCache(ctx context.Context, projectID int64) error {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
	s.rerankCacheMu.Lock()
	s.rerankCache.Purge()
	s.rerankCacheMu.Unlock()
	return nil
}

// EvictLRU downsizes the cache capacity, rebuilding it empty since
// hashicorp/golang-lru doesn't support resizing in place.
func (s *Searcher) EvictLRU(ctx context.Context, maxEntries int) error {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.cache.Len() <= maxEntries {
		return nil
	}
	newCache, err := lru.New[uint64, *cacheEntry](maxEntries)
	if err != nil {
		return fmt.Errorf("failed to create new cache: %w", err)
	}
	s.cache = newCache
	return nil
}
