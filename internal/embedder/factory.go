package embedder

import (
	"fmt"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/config"
)

// NewFromConfig builds the configured embedder backend. All three backends
// are local and never touch the network.
func NewFromConfig(cfg *config.Config) (Embedder, error) {
	cache := NewCache(0)
	if cfg.EmbeddingCacheEnabled && cfg.EmbeddingCachePath != "" {
		disk, err := NewDiskCache(cfg.EmbeddingCachePath, cfg.EmbeddingCacheMaxBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to open embedding disk cache: %w", err)
		}
		cache = cache.WithDiskCache(disk)
	}
	switch cfg.EmbeddingsBackend {
	case config.BackendJinaCode:
		return NewJinaCodeProvider(cache)
	case config.BackendFastEmbed:
		return NewFastEmbedProvider(cache)
	case config.BackendHash:
		return NewHashProvider(cfg.HashEmbeddingDim, cache)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrUnsupportedModel, cfg.EmbeddingsBackend)
	}
}
