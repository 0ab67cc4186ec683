package searcher

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/surgebase/porter2"

	"github.com/iceinvein/code-intelligence-mcp-server/pkg/types"
)

var (
	packageControlRe = regexp.MustCompile(`(?i)\b(?:pkg|package):([A-Za-z0-9_./-]+)`)
	callersOfRe       = regexp.MustCompile(`(?i)\b(?:callers of|who calls|calls to)\s+([A-Za-z0-9_.]+)`)
	calledByRe        = regexp.MustCompile(`(?i)\b([A-Za-z0-9_.]+)\s+callers\b`)
	subQuerySplitRe   = regexp.MustCompile(`(?i)\s+and\s+|\s*,\s+`)
)

// intentPriority lists keyword-based intents in the order they must be
// tried: most specific first (migration, schema, test), then the
// remaining domain intents, then error last before falling through to
// definition/general. Classification stops at the first match, so this
// slice's order is the tie-break for queries whose text matches more
// than one intent's keywords.
var intentPriority = []struct {
	intent   types.Intent
	keywords []string
}{
	{types.IntentMigration, []string{"migration", "migrate", "schema change"}},
	{types.IntentSchema, []string{"schema", "table", "column", "ddl"}},
	{types.IntentTest, []string{"test", "spec", "mock", "fixture"}},
	{types.IntentConfig, []string{"config", "setting", "option", "flag", "env var"}},
	{types.IntentAPI, []string{"endpoint", "route", "handler", "api"}},
	{types.IntentHook, []string{"hook", "lifecycle", "callback"}},
	{types.IntentMiddleware, []string{"middleware", "interceptor", "filter"}},
	{types.IntentImplementation, []string{"implement", "implementation of"}},
	{types.IntentError, []string{"error", "panic", "exception", "fail"}},
}

// ParsedQuery is the result of §4.7 step 1: a raw query split into its
// searchable text, inline controls, and detected intent.
type ParsedQuery struct {
	Text     string
	Raw      string
	Intent   types.Intent
	Controls types.QueryControls
	Tokens   []string // stemmed, deduplicated decomposition tokens (step 2)
	// SubQueries holds the independent clauses a compound query like "A and
	// B" or "A, B" splits into. Empty unless the query actually decomposes
	// into more than one clause; step 4 retrieves and fuses each separately.
	SubQueries []string
}

// parseQuery strips inline controls (pkg:/package:), detects a callers-of
// intent and its target, falls back to keyword-based intent classification,
// and decomposes the remaining text into stemmed tokens for keyword
// expansion.
func parseQuery(raw string) ParsedQuery {
	pq := ParsedQuery{Raw: raw, Text: raw, Intent: types.IntentGeneral}

	if m := packageControlRe.FindStringSubmatch(raw); m != nil {
		pq.Controls.Package = m[1]
		pq.Text = packageControlRe.ReplaceAllString(pq.Text, "")
	}

	if m := callersOfRe.FindStringSubmatch(raw); m != nil {
		pq.Intent = types.IntentCallers
		pq.Controls.CallersOf = m[1]
	} else if m := calledByRe.FindStringSubmatch(raw); m != nil {
		pq.Intent = types.IntentCallers
		pq.Controls.CallersOf = m[1]
	} else {
		lower := strings.ToLower(raw)
		for _, entry := range intentPriority {
			matched := false
			for _, kw := range entry.keywords {
				if strings.Contains(lower, kw) {
					matched = true
					break
				}
			}
			if matched {
				pq.Intent = entry.intent
				break
			}
		}
		if pq.Intent == types.IntentGeneral && looksLikeDefinitionQuery(lower) {
			pq.Intent = types.IntentDefinition
		}
	}

	pq.Text = strings.TrimSpace(pq.Text)
	pq.Tokens = decompose(pq.Text)
	pq.SubQueries = decomposeSubQueries(pq.Text)
	return pq
}

// decomposeSubQueries implements §4.7 step 2's compound-query split: "A and
// B" or "A, B" become independent clauses that step 4 retrieves and fuses
// separately, rather than one blended embedding/keyword query that dilutes
// both halves. Returns nil when the query doesn't actually decompose (fewer
// than two non-empty clauses), so callers can fall back to the single-query
// path unchanged.
func decomposeSubQueries(text string) []string {
	if text == "" {
		return nil
	}
	parts := subQuerySplitRe.Split(text, -1)
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) < 2 {
		return nil
	}
	return out
}

var definitionPrefixes = []string{"what is ", "define ", "definition of ", "where is "}

func looksLikeDefinitionQuery(lower string) bool {
	for _, p := range definitionPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// decompose splits identifier-shaped words (camelCase, snake_case,
// dotted.paths) out of free text, lowercases, stems with porter2, and
// dedupes. The result feeds the keyword leg of retrieval so a query for
// "getUserById" still matches chunks indexed under "get_user_by_id" or "get
// user by id".
func decompose(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '.' || r == '/' || r == '(' || r == ')' || r == ','
	})

	seen := make(map[string]bool)
	var tokens []string
	for _, field := range fields {
		for _, word := range splitIdentifier(field) {
			word = strings.ToLower(word)
			if len(word) < 2 || isStopword(word) {
				continue
			}
			stem := porter2.Stem(word)
			if stem == "" || seen[stem] {
				continue
			}
			seen[stem] = true
			tokens = append(tokens, stem)
		}
	}
	return tokens
}

// splitIdentifier breaks camelCase and snake_case/kebab-case words into
// their constituent parts.
func splitIdentifier(s string) []string {
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	var parts []string
	var current strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r == ' ' {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			continue
		}
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) && current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "to": true, "in": true,
	"is": true, "are": true, "for": true, "and": true, "or": true, "with": true,
}

func isStopword(w string) bool { return stopwords[w] }
