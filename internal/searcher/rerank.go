package searcher

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// rerank scores the top topK candidates against the query text using a
// lightweight lexical similarity measure (Jaro-Winkler over the query and
// the candidate's symbol name + doc comment), standing in for a trained
// cross-encoder: it is cheap enough to run synchronously on every request
// and still reorders near-miss keyword matches ahead of loosely related
// vector hits.
func rerank(query string, candidates []*scoredCandidate, topK int) {
	if topK <= 0 || topK > len(candidates) {
		topK = len(candidates)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return
	}

	for i := 0; i < topK; i++ {
		c := candidates[i]
		target := strings.ToLower(rerankTarget(c))
		if target == "" {
			continue
		}
		score, err := edlib.StringsSimilarity(query, target, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		s := float64(score)
		c.signals.RerankerScore = &s
	}
}

func rerankTarget(c *scoredCandidate) string {
	var b strings.Builder
	if c.symbolName != "" {
		b.WriteString(c.symbolName)
		b.WriteString(" ")
	}
	if c.docComment != "" {
		b.WriteString(c.docComment)
	}
	if b.Len() == 0 {
		return c.content
	}
	return b.String()
}
