package embedder

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/surgebase/porter2"
)

// Provider names, matching config.EmbeddingsBackend. All three run
// in-process: the Non-goals forbid remote/cloud inference, so there is no
// HTTP-calling provider anywhere in this package.
const (
	ProviderJinaCode = "jinacode"
	ProviderFastEmbed = "fastembed"
	ProviderHash      = "hash"

	// Dimensions chosen to match the real models these backends stand in
	// for (jina-embeddings-v2-base-code and bge-small-en-v1.5
	// respectively), so a downstream swap to an actual model-backed
	// provider doesn't change the stored vector width.
	JinaCodeDimension  = 768
	FastEmbedDimension = 384

	DefaultBatchSize = 50
	MaxBatchSize     = 100
)

var identifierSplitRE = regexp.MustCompile(`[A-Z]+[a-z0-9]*|[a-z0-9]+|[0-9]+`)

// splitIdentifiers breaks camelCase/PascalCase/snake_case/kebab-case tokens
// into lowercase sub-words so "HandleSearchCode" contributes "handle",
// "search", "code" to the bag of terms instead of one opaque token.
func splitIdentifiers(text string) []string {
	var terms []string
	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r == '_' || r == '-' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) {
		for _, piece := range strings.FieldsFunc(field, func(r rune) bool { return r == '_' || r == '-' }) {
			for _, m := range identifierSplitRE.FindAllString(piece, -1) {
				terms = append(terms, strings.ToLower(m))
			}
		}
	}
	return terms
}

// stemmedTerms tokenizes and Porter2-stems text, discarding terms too short
// to carry signal. Shared by the jinacode and fastembed local stand-ins so
// both backends see the same vocabulary and differ only in dimension.
func stemmedTerms(text string) []string {
	raw := splitIdentifiers(text)
	terms := make([]string, 0, len(raw))
	for _, t := range raw {
		if len(t) < 2 {
			continue
		}
		terms = append(terms, porter2.Stem(t))
	}
	return terms
}

// hashingEmbed builds a deterministic dense vector from a term bag via
// feature hashing (the "hashing trick"): each stemmed term's xxhash picks one
// of dim buckets and a +1/-1 sign for its vote, then the result is
// L2-normalized. This is a legitimate, fully local embedding technique
// (no model weights required) and is the standard fallback strategy real
// embedding libraries use when no model is loaded.
func hashingEmbed(terms []string, dim int) []float32 {
	vec := make([]float64, dim)
	for _, term := range terms {
		h := xxhash.Sum64String(term)
		bucket := int(h % uint64(dim))
		sign := 1.0
		if (h>>32)&1 == 1 {
			sign = -1.0
		}
		vec[bucket] += sign
	}
	return l2Normalize(vec, dim)
}

func l2Normalize(vec []float64, dim int) []float32 {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	out := make([]float32, dim)
	if sumSq == 0 {
		return out
	}
	norm := math.Sqrt(sumSq)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

// JinaCodeProvider is the local stand-in for the jinacode backend: the
// shared identifier-splitting hashing embedder at the wider 768 dimension.
type JinaCodeProvider struct {
	model string
	cache *Cache
}

// NewJinaCodeProvider builds the jinacode backend's local adapter.
func NewJinaCodeProvider(cache *Cache) (*JinaCodeProvider, error) {
	return &JinaCodeProvider{model: "jinacode-local-hash-768", cache: cache}, nil
}

func (j *JinaCodeProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	hash := ComputeHash(req.Text)
	if j.cache != nil {
		if emb, ok := j.cache.Get(hash); ok {
			return emb, nil
		}
	}
	terms := stemmedTerms(req.Text)
	emb := &Embedding{
		Vector:    hashingEmbed(terms, JinaCodeDimension),
		Dimension: JinaCodeDimension,
		Provider:  ProviderJinaCode,
		Model:     j.model,
		Hash:      hash,
	}
	if j.cache != nil {
		j.cache.Set(hash, emb)
	}
	return emb, nil
}

func (j *JinaCodeProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	return generateBatchSequential(ctx, j, req, ProviderJinaCode, j.model)
}

func (j *JinaCodeProvider) Dimension() int   { return JinaCodeDimension }
func (j *JinaCodeProvider) Provider() string { return ProviderJinaCode }
func (j *JinaCodeProvider) Model() string    { return j.model }
func (j *JinaCodeProvider) Close() error     { return j.cache.closeIfSet() }

// FastEmbedProvider is the local stand-in for the fastembed backend: the
// same hashing embedder as jinacode at the smaller 384 dimension.
type FastEmbedProvider struct {
	model string
	cache *Cache
}

// NewFastEmbedProvider builds the fastembed backend's local adapter.
func NewFastEmbedProvider(cache *Cache) (*FastEmbedProvider, error) {
	return &FastEmbedProvider{model: "fastembed-local-hash-384", cache: cache}, nil
}

func (f *FastEmbedProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	hash := ComputeHash(req.Text)
	if f.cache != nil {
		if emb, ok := f.cache.Get(hash); ok {
			return emb, nil
		}
	}
	terms := stemmedTerms(req.Text)
	emb := &Embedding{
		Vector:    hashingEmbed(terms, FastEmbedDimension),
		Dimension: FastEmbedDimension,
		Provider:  ProviderFastEmbed,
		Model:     f.model,
		Hash:      hash,
	}
	if f.cache != nil {
		f.cache.Set(hash, emb)
	}
	return emb, nil
}

func (f *FastEmbedProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	return generateBatchSequential(ctx, f, req, ProviderFastEmbed, f.model)
}

func (f *FastEmbedProvider) Dimension() int   { return FastEmbedDimension }
func (f *FastEmbedProvider) Provider() string { return ProviderFastEmbed }
func (f *FastEmbedProvider) Model() string    { return f.model }
func (f *FastEmbedProvider) Close() error     { return f.cache.closeIfSet() }

// HashProvider is the simplest backend: a raw SHA-256-of-text vector with no
// tokenization, configurable dimension. Used as the zero-dependency default
// and as a fast path for tests and dry runs.
type HashProvider struct {
	model string
	dim   int
	cache *Cache
}

// NewHashProvider builds the hash backend's adapter at the given dimension
// (falls back to 64 when dim <= 0, matching config's default).
func NewHashProvider(dim int, cache *Cache) (*HashProvider, error) {
	if dim <= 0 {
		dim = 64
	}
	return &HashProvider{model: fmt.Sprintf("hash-%d", dim), dim: dim, cache: cache}, nil
}

func (h *HashProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	hash := ComputeHash(req.Text)
	if h.cache != nil {
		if emb, ok := h.cache.Get(hash); ok {
			return emb, nil
		}
	}
	textHash := sha256.Sum256([]byte(req.Text))
	vector := make([]float32, h.dim)
	for i := 0; i < h.dim; i++ {
		vector[i] = float32(textHash[i%len(textHash)])/127.5 - 1.0
	}
	emb := &Embedding{
		Vector:    vector,
		Dimension: h.dim,
		Provider:  ProviderHash,
		Model:     h.model,
		Hash:      hash,
	}
	if h.cache != nil {
		h.cache.Set(hash, emb)
	}
	return emb, nil
}

func (h *HashProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	return generateBatchSequential(ctx, h, req, ProviderHash, h.model)
}

func (h *HashProvider) Dimension() int   { return h.dim }
func (h *HashProvider) Provider() string { return ProviderHash }
func (h *HashProvider) Model() string    { return h.model }
func (h *HashProvider) Close() error     { return h.cache.closeIfSet() }

// generateBatchSequential implements GenerateBatch in terms of
// GenerateEmbedding for providers cheap enough that a dedicated batched
// code path isn't worth the duplication (none of the three local backends
// benefit from batching the way a real model-server round-trip would).
func generateBatchSequential(ctx context.Context, e Embedder, req BatchEmbeddingRequest, provider, model string) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}
	if len(req.Texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}
	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := e.GenerateEmbedding(ctx, EmbeddingRequest{Text: text, Model: req.Model})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return &BatchEmbeddingResponse{Embeddings: embeddings, Provider: provider, Model: model}, nil
}

// NormalizeVector normalizes a vector to unit length (for cosine similarity).
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val * val)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / norm
	}
	return result
}
