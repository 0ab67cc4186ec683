package parser

import (
	"path/filepath"
	"strings"

	"github.com/iceinvein/code-intelligence-mcp-server/pkg/types"
)

// Implementation is the contract every per-language parser satisfies: read a
// source file from disk, return the symbols/imports/relationships the
// indexer needs. *Parser (this package's go/ast-based implementation) and
// the tree-sitter-backed implementations in treesitter.go both satisfy it.
type Implementation interface {
	ParseFile(filePath string) (*types.ParseResult, error)
}

// Registry dispatches ParseFile calls to the Implementation registered for a
// file's extension, falling back to the Go parser for anything unregistered
// so existing single-language callers keep working unchanged.
type Registry struct {
	byExt    map[string]Implementation
	fallback Implementation
}

// NewRegistry builds a Registry with the Go parser as both the ".go"
// implementation and the fallback, plus tree-sitter implementations for the
// TypeScript/JavaScript family.
func NewRegistry() *Registry {
	goImpl := New()
	ts := NewTypeScriptParser()
	tsx := NewTSXParser()
	js := NewJavaScriptParser()

	return &Registry{
		byExt: map[string]Implementation{
			".go":  goImpl,
			".ts":  ts,
			".mts": ts,
			".cts": ts,
			".tsx": tsx,
			".js":  js,
			".jsx": js,
			".mjs": js,
		},
		fallback: goImpl,
	}
}

// ForFile returns the Implementation registered for filePath's extension,
// or the fallback (the Go parser) if the extension is unrecognized.
func (r *Registry) ForFile(filePath string) Implementation {
	ext := strings.ToLower(filepath.Ext(filePath))
	if impl, ok := r.byExt[ext]; ok {
		return impl
	}
	return r.fallback
}

// ParseFile implements Implementation by dispatching to ForFile, letting a
// Registry itself stand in anywhere a single Implementation is expected.
func (r *Registry) ParseFile(filePath string) (*types.ParseResult, error) {
	return r.ForFile(filePath).ParseFile(filePath)
}
