package searcher

import (
	"context"
	"fmt"
)

// HydeGenerator produces a hypothetical document for a query: a short
// synthetic passage that answers the query, embedded in place of the raw
// query text so vector search matches against document-shaped prose
// instead of a terse question (§4.7 step 3's "hypothetical document"
// retrieval pass).
type HydeGenerator interface {
	Generate(ctx context.Context, query string) (string, error)
}

// noopHydeGenerator is the default: it returns the query unchanged, so
// disabling hyde_enabled restores plain query embedding exactly.
type noopHydeGenerator struct{}

func (noopHydeGenerator) Generate(_ context.Context, query string) (string, error) {
	return query, nil
}

// templateHydeGenerator expands a query into a short hypothetical passage
// by template rather than a live model call, keeping HyDE entirely local
// (Non-goals forbid remote inference, and this never leaves the process).
type templateHydeGenerator struct{}

func (templateHydeGenerator) Generate(_ context.Context, query string) (string, error) {
	return fmt.Sprintf("%s\n\nThe following code implements %s.", query, query), nil
}
