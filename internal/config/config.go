// Package config loads the engine's configuration from env vars and an
// optional YAML file under base_dir, following the layered precedence viper
// gives for free (env > file > default). No command-line flags are bound.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/apperrors"
)

// EmbeddingsBackend selects which in-process embedding adapter C4/C5 use.
// All three are local — the Non-goals forbid remote/cloud inference.
type EmbeddingsBackend string

const (
	BackendJinaCode  EmbeddingsBackend = "jinacode"
	BackendFastEmbed EmbeddingsBackend = "fastembed"
	BackendHash      EmbeddingsBackend = "hash"
)

// EmbeddingsDevice selects the compute device for the local model runtime.
type EmbeddingsDevice string

const (
	DeviceCPU   EmbeddingsDevice = "cpu"
	DeviceMetal EmbeddingsDevice = "metal"
)

// Config is the full recognized option set of §6.
type Config struct {
	// Paths
	BaseDir             string   `mapstructure:"base_dir"`
	DBPath              string   `mapstructure:"db_path"`
	VectorDBPath        string   `mapstructure:"vector_db_path"`
	KeywordIndexPath    string   `mapstructure:"keyword_index_path"`
	EmbeddingsModelDir  string   `mapstructure:"embeddings_model_dir"`
	EmbeddingCachePath  string   `mapstructure:"embedding_cache_path"`
	RepoRoots           []string `mapstructure:"repo_roots"`

	// Scan
	IndexPatterns     []string `mapstructure:"index_patterns"`
	ExcludePatterns   []string `mapstructure:"exclude_patterns"`
	IndexNodeModules  bool     `mapstructure:"index_node_modules"`
	WatchMode         bool     `mapstructure:"watch_mode"`
	WatchDebounceMS   int      `mapstructure:"watch_debounce_ms"`

	// Models
	EmbeddingsBackend  EmbeddingsBackend `mapstructure:"embeddings_backend"`
	EmbeddingsDevice   EmbeddingsDevice  `mapstructure:"embeddings_device"`
	EmbeddingsModelID  string            `mapstructure:"embeddings_model_id"`
	HashEmbeddingDim   int               `mapstructure:"hash_embedding_dim"`
	EmbeddingBatchSize int               `mapstructure:"embedding_batch_size"`
	MaxThreads         int               `mapstructure:"max_threads"`

	// Retrieval
	VectorSearchLimit int     `mapstructure:"vector_search_limit"`
	HybridAlpha       float64 `mapstructure:"hybrid_alpha"`
	RankVectorWeight       float64 `mapstructure:"rank_vector_weight"`
	RankKeywordWeight      float64 `mapstructure:"rank_keyword_weight"`
	RankExportedBoost      float64 `mapstructure:"rank_exported_boost"`
	RankIndexFileBoost     float64 `mapstructure:"rank_index_file_boost"`
	RankTestPenalty        float64 `mapstructure:"rank_test_penalty"`
	RankPopularityWeight   float64 `mapstructure:"rank_popularity_weight"`
	RankPopularityCap      int64   `mapstructure:"rank_popularity_cap"`
	RRFEnabled        bool    `mapstructure:"rrf_enabled"`
	RRFK              float64 `mapstructure:"rrf_k"`
	RRFKeywordWeight  float64 `mapstructure:"rrf_keyword_weight"`
	RRFVectorWeight   float64 `mapstructure:"rrf_vector_weight"`
	RRFGraphWeight    float64 `mapstructure:"rrf_graph_weight"`
	RerankerWeight    float64 `mapstructure:"reranker_weight"`
	RerankerTopK      int     `mapstructure:"reranker_top_k"`
	HydeEnabled       bool    `mapstructure:"hyde_enabled"`

	// Assembly
	MaxContextTokens int    `mapstructure:"max_context_tokens"`
	TokenEncoding    string `mapstructure:"token_encoding"`
	MaxContextBytes  int    `mapstructure:"max_context_bytes"`

	// Learning
	LearningEnabled            bool    `mapstructure:"learning_enabled"`
	LearningSelectionBoost     float64 `mapstructure:"learning_selection_boost"`
	LearningFileAffinityBoost  float64 `mapstructure:"learning_file_affinity_boost"`

	// PageRank
	PageRankIterations int     `mapstructure:"pagerank_iterations"`
	PageRankDamping    float64 `mapstructure:"pagerank_damping"`

	// Cache
	EmbeddingCacheEnabled  bool  `mapstructure:"embedding_cache_enabled"`
	EmbeddingCacheMaxBytes int64 `mapstructure:"embedding_cache_max_bytes"`

	// Packaging
	PackageDetectionEnabled bool `mapstructure:"package_detection_enabled"`

	// Observability
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
	MetricsPort    int  `mapstructure:"metrics_port"`

	// Synonym/acronym expansion (§4.7 step 1), enabled by default.
	SynonymExpansionEnabled bool `mapstructure:"synonym_expansion_enabled"`
	AcronymExpansionEnabled bool `mapstructure:"acronym_expansion_enabled"`

	// StoreBusyTimeoutMS bounds how long a writer waits on lock contention
	// before C1 surfaces a StoreBusy retryable error (§4.1, default 5s).
	StoreBusyTimeoutMS int `mapstructure:"store_busy_timeout_ms"`
}

// Load reads configuration from env (CODEINTEL_*), an optional
// <base_dir>/.codeintel.yaml, and applies defaults for everything else.
// baseDir is required; an empty value is a ConfigInvalid error.
func Load(baseDir string) (*Config, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, apperrors.E(apperrors.ConfigInvalid, "config.Load", fmt.Errorf("base_dir is required"))
	}

	v := viper.New()
	v.SetEnvPrefix("CODEINTEL")
	v.AutomaticEnv()
	v.SetConfigName(".codeintel")
	v.SetConfigType("yaml")
	v.AddConfigPath(baseDir)

	setDefaults(v, baseDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperrors.E(apperrors.ConfigInvalid, "config.Load", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.E(apperrors.ConfigInvalid, "config.Load", err)
	}
	cfg.BaseDir = baseDir

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.E(apperrors.ConfigInvalid, "config.Load", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, baseDir string) {
	dataDir := filepath.Join(baseDir, ".codeintel")

	v.SetDefault("db_path", filepath.Join(dataDir, "metadata.db"))
	v.SetDefault("vector_db_path", filepath.Join(dataDir, "vectors"))
	v.SetDefault("keyword_index_path", filepath.Join(dataDir, "keyword"))
	v.SetDefault("embedding_cache_path", filepath.Join(dataDir, "embedding_cache"))
	v.SetDefault("repo_roots", []string{baseDir})

	v.SetDefault("index_patterns", []string{"**/*"})
	v.SetDefault("exclude_patterns", []string{"**/node_modules/**", "**/vendor/**", "**/.git/**", "**/dist/**", "**/build/**"})
	v.SetDefault("index_node_modules", false)
	v.SetDefault("watch_mode", true)
	v.SetDefault("watch_debounce_ms", 250)

	v.SetDefault("embeddings_backend", string(BackendHash))
	v.SetDefault("embeddings_device", string(DeviceCPU))
	v.SetDefault("hash_embedding_dim", 64)
	v.SetDefault("embedding_batch_size", 32)
	v.SetDefault("max_threads", 0)

	v.SetDefault("vector_search_limit", 20)
	v.SetDefault("hybrid_alpha", 0.7)
	v.SetDefault("rank_vector_weight", 0.5)
	v.SetDefault("rank_keyword_weight", 0.5)
	v.SetDefault("rank_exported_boost", 0.1)
	v.SetDefault("rank_index_file_boost", -5.0)
	v.SetDefault("rank_test_penalty", 0.5)
	v.SetDefault("rank_popularity_weight", 0.05)
	v.SetDefault("rank_popularity_cap", 50)
	v.SetDefault("rrf_enabled", true)
	v.SetDefault("rrf_k", 60.0)
	v.SetDefault("rrf_keyword_weight", 1.0)
	v.SetDefault("rrf_vector_weight", 1.0)
	v.SetDefault("rrf_graph_weight", 0.5)
	v.SetDefault("reranker_weight", 0.3)
	v.SetDefault("reranker_top_k", 20)
	v.SetDefault("hyde_enabled", false)

	v.SetDefault("max_context_tokens", 8192)
	v.SetDefault("token_encoding", "o200k_base")
	v.SetDefault("max_context_bytes", 200_000)

	v.SetDefault("learning_enabled", false)
	v.SetDefault("learning_selection_boost", 1.0)
	v.SetDefault("learning_file_affinity_boost", 0.5)

	v.SetDefault("pagerank_iterations", 20)
	v.SetDefault("pagerank_damping", 0.85)

	v.SetDefault("embedding_cache_enabled", true)
	v.SetDefault("embedding_cache_max_bytes", int64(1<<30))

	v.SetDefault("package_detection_enabled", true)

	v.SetDefault("metrics_enabled", true)
	v.SetDefault("metrics_port", 9090)

	v.SetDefault("synonym_expansion_enabled", true)
	v.SetDefault("acronym_expansion_enabled", true)

	v.SetDefault("store_busy_timeout_ms", 5000)
}

// Validate enforces the few hard constraints on top of what viper/mapstructure
// already coerced.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir is required")
	}
	switch c.EmbeddingsBackend {
	case BackendJinaCode, BackendFastEmbed, BackendHash:
	default:
		return fmt.Errorf("embeddings_backend must be one of jinacode|fastembed|hash, got %q", c.EmbeddingsBackend)
	}
	switch c.EmbeddingsDevice {
	case DeviceCPU, DeviceMetal:
	default:
		return fmt.Errorf("embeddings_device must be one of cpu|metal, got %q", c.EmbeddingsDevice)
	}
	if c.PageRankDamping <= 0 || c.PageRankDamping >= 1 {
		return fmt.Errorf("pagerank_damping must be in (0,1), got %v", c.PageRankDamping)
	}
	if c.HashEmbeddingDim <= 0 {
		return fmt.Errorf("hash_embedding_dim must be positive")
	}
	return nil
}
