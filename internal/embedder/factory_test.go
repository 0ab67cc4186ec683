package embedder

import (
	"testing"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/config"
)

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		backend  config.EmbeddingsBackend
		dim      int
		wantErr  bool
		wantProv string
		wantDim  int
	}{
		{
			name:     "jinacode backend",
			backend:  config.BackendJinaCode,
			wantProv: ProviderJinaCode,
			wantDim:  JinaCodeDimension,
		},
		{
			name:     "fastembed backend",
			backend:  config.BackendFastEmbed,
			wantProv: ProviderFastEmbed,
			wantDim:  FastEmbedDimension,
		},
		{
			name:     "hash backend default dim",
			backend:  config.BackendHash,
			dim:      64,
			wantProv: ProviderHash,
			wantDim:  64,
		},
		{
			name:    "unknown backend",
			backend: "nonsense",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{EmbeddingsBackend: tt.backend, HashEmbeddingDim: tt.dim}
			e, err := NewFromConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer e.Close()
			if e.Provider() != tt.wantProv {
				t.Errorf("Provider() = %s, want %s", e.Provider(), tt.wantProv)
			}
			if e.Dimension() != tt.wantDim {
				t.Errorf("Dimension() = %d, want %d", e.Dimension(), tt.wantDim)
			}
		})
	}
}
