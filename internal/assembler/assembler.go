// Package assembler renders an ordered list of search hits into a single
// Markdown document sized to a token budget (C8 of the retrieval pipeline).
// It is the last stage search_code runs before handing a response back to
// the calling agent: Retriever hits in, a bounded context blob out.
package assembler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/config"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/graph"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
	"github.com/iceinvein/code-intelligence-mcp-server/pkg/types"
)

const (
	rootShare       = 0.7 // fraction of the budget reserved for root symbols
	headerLines     = 5   // lines always kept at the top of a truncated block
	footerLines     = 3   // lines always kept at the bottom of a truncated block
	fuzzyLineBonus  = 0.85
	defaultEncoding = "o200k_base"
)

// Assembler turns ranked search hits into the Markdown context block a
// search_code response embeds alongside the raw hit list.
type Assembler struct {
	storage       storage.Storage
	graph         *graph.Engine
	enc           *tiktoken.Tiktoken
	defaultBudget int
}

// New builds an Assembler using the token encoder named by cfg.TokenEncoding
// (default o200k_base) and the budget named by cfg.MaxContextTokens.
func New(store storage.Storage, graphEngine *graph.Engine, cfg *config.Config) (*Assembler, error) {
	encoding := cfg.TokenEncoding
	if encoding == "" {
		encoding = defaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("assembler: load token encoding %q: %w", encoding, err)
	}
	budget := cfg.MaxContextTokens
	if budget <= 0 {
		budget = 8192
	}
	return &Assembler{storage: store, graph: graphEngine, enc: enc, defaultBudget: budget}, nil
}

// Stats reports how the budget was spent, so callers (explain_search, tests)
// can see how close a response came to the cap.
type Stats struct {
	TokensUsed   int
	TokenBudget  int
	RootCount    int
	RelatedCount int
	Truncated    bool
}

// relatedEntry pairs a dependency-walk symbol with its source chunk, found
// one hop out from a root over the type graph.
type relatedEntry struct {
	symbol *storage.Symbol
	chunk  *storage.Chunk
}

// Assemble renders hits (already ordered by the caller) into Markdown with
// ## Definitions / ## Examples / ## Related sections. budget <= 0 uses the
// Assembler's default. query drives the query-aware truncation of any block
// that would otherwise overrun its share of the budget.
func (a *Assembler) Assemble(ctx context.Context, hits []types.SearchResult, query string, budget int) (string, *Stats, error) {
	if budget <= 0 {
		budget = a.defaultBudget
	}
	rootBudget := int(float64(budget) * rootShare)
	relatedBudget := budget - rootBudget

	queryTokens := tokenizeQuery(query)

	defsText, examplesText, rootTokens := a.renderRoots(ctx, hits, queryTokens, rootBudget)
	leftover := rootBudget - rootTokens
	if leftover > 0 {
		relatedBudget += leftover
	}

	related, err := a.collectRelated(ctx, hits)
	if err != nil {
		return "", nil, err
	}
	relatedText, _, relatedTruncated := a.renderRelated(related, queryTokens, relatedBudget)

	var out strings.Builder
	out.WriteString("## Definitions\n\n")
	out.WriteString(defsText)
	if examplesText != "" {
		out.WriteString("## Examples\n\n")
		out.WriteString(examplesText)
	}
	if relatedText != "" {
		out.WriteString("## Related\n\n")
		out.WriteString(relatedText)
	}

	rendered := out.String()
	truncated := relatedTruncated || rootTokens >= rootBudget
	rendered, clamped := a.clampToBudget(rendered, budget)
	truncated = truncated || clamped

	stats := &Stats{
		TokensUsed:   a.tokenCount(rendered),
		TokenBudget:  budget,
		RootCount:    len(hits),
		RelatedCount: len(related),
		Truncated:    truncated,
	}
	return rendered, stats, nil
}

// clampToBudget is the final backstop for the token_count(context) <= budget
// invariant. Per-section truncation only bounds code bodies, not the
// Markdown headers, docstrings, and fences built around them, so the
// rendered document can still run over budget; this re-encodes the whole
// thing and hard-truncates at the token level rather than trusting that the
// section math added up.
func (a *Assembler) clampToBudget(rendered string, budget int) (string, bool) {
	tokens := a.enc.Encode(rendered, nil, nil)
	if len(tokens) <= budget {
		return rendered, false
	}
	if budget <= 0 {
		return "", true
	}
	return a.enc.Decode(tokens[:budget]), true
}

// renderRoots writes the Definitions and Examples sections for every root
// hit, truncating each root's source to an even share of rootBudget.
func (a *Assembler) renderRoots(ctx context.Context, hits []types.SearchResult, queryTokens []string, rootBudget int) (string, string, int) {
	var defs, examples strings.Builder
	if len(hits) == 0 {
		return "", "", 0
	}
	perRoot := rootBudget / len(hits)
	used := 0

	for _, hit := range hits {
		name := "chunk"
		if hit.Symbol != nil && hit.Symbol.Name != "" {
			name = hit.Symbol.Name
		}
		defs.WriteString("### " + name + "\n\n")
		if hit.File != nil {
			fmt.Fprintf(&defs, "`%s:%d-%d`\n\n", hit.File.Path, hit.File.StartLine, hit.File.EndLine)
		}

		var doc *storage.Docstring
		if hit.Symbol != nil && hit.Symbol.ID != 0 {
			doc, _ = a.storage.GetDocstring(ctx, hit.Symbol.ID)
		}
		writeDocHeader(&defs, doc)

		body, _ := truncateToBudget(a.enc, queryTokens, hit.Content, perRoot)
		lang := "go"
		if hit.File != nil {
			lang = languageForPath(hit.File.Path)
		}
		defs.WriteString("```" + lang + "\n")
		defs.WriteString(body)
		defs.WriteString("\n```\n\n")
		used += a.tokenCount(body)

		writeDocExamples(&examples, name, doc)
	}
	return defs.String(), examples.String(), used
}

// collectRelated walks one hop from each root symbol over the type graph
// (type_extends/type_implements/type_alias — the edge kinds the extractor
// actually emits; the spec's parameter_type/return_type kinds have no
// matching edge in this graph and are out of scope for this walk).
func (a *Assembler) collectRelated(ctx context.Context, hits []types.SearchResult) ([]relatedEntry, error) {
	seen := make(map[int64]bool)
	for _, hit := range hits {
		if hit.Symbol != nil {
			seen[hit.Symbol.ID] = true
		}
	}

	var related []relatedEntry
	for _, hit := range hits {
		if hit.Symbol == nil || hit.Symbol.ID == 0 || a.graph == nil {
			continue
		}
		result, err := a.graph.TypeGraph(ctx, hit.Symbol.ID, 1)
		if err != nil {
			continue
		}
		for _, node := range result.Nodes {
			if node.Symbol == nil || seen[node.Symbol.ID] {
				continue
			}
			seen[node.Symbol.ID] = true
			chunk, err := a.storage.GetChunkBySymbol(ctx, node.Symbol.ID)
			if err != nil {
				continue
			}
			related = append(related, relatedEntry{symbol: node.Symbol, chunk: chunk})
		}
	}
	return related, nil
}

// renderRelated writes the Related section, dropping entries once the
// remaining budget can no longer fit even a truncated block.
func (a *Assembler) renderRelated(related []relatedEntry, queryTokens []string, budget int) (string, int, bool) {
	var buf strings.Builder
	if len(related) == 0 || budget <= 0 {
		return "", 0, len(related) > 0
	}

	perEntry := budget / len(related)
	if perEntry < 1 {
		perEntry = 1
	}
	used := 0
	truncated := false

	for _, entry := range related {
		if used >= budget {
			truncated = true
			break
		}
		remaining := budget - used
		sub := perEntry
		if sub > remaining {
			sub = remaining
		}

		buf.WriteString("### " + entry.symbol.Name + " (related)\n\n")
		body, wasTruncated := truncateToBudget(a.enc, queryTokens, entry.chunk.Content, sub)
		buf.WriteString("```go\n")
		buf.WriteString(body)
		buf.WriteString("\n```\n\n")
		used += a.tokenCount(body)
		truncated = truncated || wasTruncated
	}
	return buf.String(), used, truncated
}

func (a *Assembler) tokenCount(text string) int {
	if text == "" {
		return 0
	}
	return len(a.enc.Encode(text, nil, nil))
}

// writeDocHeader appends the docstring summary, parameter table, and return
// description directly under a Definitions entry, per the spec's root-only
// JSDoc rendering rule.
func writeDocHeader(buf *strings.Builder, doc *storage.Docstring) {
	if doc == nil {
		return
	}
	if doc.Summary != "" {
		buf.WriteString(doc.Summary + "\n\n")
	}
	var params []types.DocParameter
	if doc.Parameters != "" {
		_ = json.Unmarshal([]byte(doc.Parameters), &params)
	}
	if len(params) > 0 {
		buf.WriteString("| Parameter | Description |\n|---|---|\n")
		for _, p := range params {
			fmt.Fprintf(buf, "| %s | %s |\n", p.Name, p.Desc)
		}
		buf.WriteString("\n")
	}
	if doc.ReturnDesc != "" {
		buf.WriteString("Returns: " + doc.ReturnDesc + "\n\n")
	}
}

// writeDocExamples appends any fenced-code-block examples attached to a
// root's docstring to the shared Examples section.
func writeDocExamples(buf *strings.Builder, name string, doc *storage.Docstring) {
	if doc == nil || doc.Examples == "" {
		return
	}
	var examples []string
	if err := json.Unmarshal([]byte(doc.Examples), &examples); err != nil || len(examples) == 0 {
		return
	}
	for i, ex := range examples {
		fmt.Fprintf(buf, "#### %s example %d\n\n", name, i+1)
		buf.WriteString("```go\n")
		buf.WriteString(ex)
		buf.WriteString("\n```\n\n")
	}
}

func languageForPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".go"):
		return "go"
	case strings.HasSuffix(path, ".ts"), strings.HasSuffix(path, ".tsx"):
		return "typescript"
	case strings.HasSuffix(path, ".py"):
		return "python"
	default:
		return ""
	}
}

func tokenizeQuery(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,:;!?()[]{}\"'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

var structuralKeywords = map[string]bool{
	"func": true, "type": true, "struct": true, "interface": true,
	"return": true, "if": true, "for": true, "const": true, "var": true,
	"package": true, "import": true,
}

// scoreLine is the BM25-like relevance function query-aware truncation
// ranks candidate lines with: exact substring hits count once, word-boundary
// hits count double, near-miss identifiers get a smaller fuzzy bonus via
// Jaro-Winkler, and lines opening a declaration get a flat structural bonus.
func scoreLine(queryTokens []string, line string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	lower := strings.ToLower(line)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})

	var score float64
	for _, qt := range queryTokens {
		if strings.Contains(lower, qt) {
			score++
		}
		for _, w := range words {
			if w == qt {
				score += 2
				continue
			}
			if sim, err := edlib.StringsSimilarity(qt, w, edlib.JaroWinkler); err == nil && float64(sim) >= fuzzyLineBonus {
				score += float64(sim) * 0.5
			}
		}
	}
	trimmed := strings.TrimSpace(lower)
	for kw := range structuralKeywords {
		if strings.HasPrefix(trimmed, kw+" ") || trimmed == kw {
			score += 0.5
			break
		}
	}
	return score
}

// truncateToBudget applies query-aware truncation to code, keeping the first
// headerLines and last footerLines lines plus the highest-scoring remaining
// lines until subBudget tokens are used, replacing dropped runs with a
// single ellipsis marker. Returns the (possibly unchanged) text and whether
// truncation happened.
func truncateToBudget(enc *tiktoken.Tiktoken, queryTokens []string, code string, subBudget int) (string, bool) {
	if subBudget <= 0 {
		subBudget = 1
	}
	if len(enc.Encode(code, nil, nil)) <= subBudget {
		return code, false
	}

	lines := strings.Split(code, "\n")
	n := len(lines)
	if n <= headerLines+footerLines {
		return code, false
	}

	header := headerLines
	footerStart := n - footerLines
	if footerStart < header {
		footerStart = header
	}

	keep := make([]bool, n)
	for i := 0; i < header; i++ {
		keep[i] = true
	}
	for i := footerStart; i < n; i++ {
		keep[i] = true
	}

	tokensOf := func(s string) int { return len(enc.Encode(s, nil, nil)) }

	used := 0
	for i, k := range keep {
		if k {
			used += tokensOf(lines[i]) + 1
		}
	}

	type candidate struct {
		idx   int
		score float64
	}
	candidates := make([]candidate, 0, footerStart-header)
	for i := header; i < footerStart; i++ {
		candidates = append(candidates, candidate{i, scoreLine(queryTokens, lines[i])})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	for _, c := range candidates {
		cost := tokensOf(lines[c.idx]) + 1
		if used+cost > subBudget {
			continue
		}
		keep[c.idx] = true
		used += cost
	}

	var out []string
	collapsing := false
	for i, k := range keep {
		if k {
			out = append(out, lines[i])
			collapsing = false
			continue
		}
		if !collapsing {
			out = append(out, "...")
			collapsing = true
		}
	}
	return strings.Join(out, "\n"), true
}
