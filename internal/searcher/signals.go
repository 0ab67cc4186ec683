package searcher

import (
	"context"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/config"
	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
	"github.com/iceinvein/code-intelligence-mcp-server/pkg/types"
)

// scoredCandidate is a fused candidate in flight through §4.7 steps 5-7:
// fused, signal-scored, reranked, then diversified before candidatesToResults
// turns the survivors into types.SearchResult.
type scoredCandidate struct {
	chunkID     int64
	symbolID    *int64
	symbolName  string
	symbolKind  string
	docComment  string
	filePath    string
	packageName string
	startLine   int
	endLine     int
	isTest      bool
	content     string
	rank        int
	signals     types.HitSignals
	final       float64
}

var intentMultipliers = map[types.Intent]func(isTest bool, kind string) float64{
	types.IntentTest: func(isTest bool, kind string) float64 {
		if isTest {
			return 1.5
		}
		return 0.6
	},
	types.IntentDefinition: func(isTest bool, kind string) float64 {
		switch kind {
		case "function", "method", "struct", "interface", "type", "class":
			return 1.3
		default:
			return 1.0
		}
	},
	types.IntentError: func(isTest bool, kind string) float64 {
		return 1.0
	},
}

// scoreSignals fills in each candidate's types.HitSignals per §4.7 step 6:
// structural adjustments, intent multiplier, popularity/docstring/package
// boosts, and (when learning is enabled) selection and file-affinity
// boosts, then combines them into the candidate's final score.
func scoreSignals(ctx context.Context, store storage.Storage, cfg *config.Config, pq ParsedQuery, candidates []*scoredCandidate) {
	selections := map[int64]int{}
	if cfg.LearningEnabled {
		if recs, err := store.GetSelectionsForNormalizedQuery(ctx, strings.Join(pq.Tokens, " "), 50); err == nil {
			for _, sel := range recs {
				selections[sel.SelectedSymbolID]++
			}
		}
	}

	for _, c := range candidates {
		sig := &c.signals
		sig.BaseScore = c.final

		if c.isTest {
			sig.StructuralAdjust -= cfg.RankTestPenalty
		}
		if strings.HasSuffix(c.filePath, "index.go") || strings.HasSuffix(c.filePath, "doc.go") {
			sig.StructuralAdjust += cfg.RankIndexFileBoost / 100 // tuned down from the file-level RRF boost; this is a per-candidate nudge, not a rank cutoff
		}

		sig.IntentMult = 1.0
		if mult, ok := intentMultipliers[pq.Intent]; ok {
			sig.IntentMult = mult(c.isTest, c.symbolKind)
		}

		if pq.Controls.Package != "" {
			if strings.EqualFold(c.packageName, pq.Controls.Package) {
				sig.PackageBoost = 0.25
			} else {
				sig.PackageBoost = -0.1
			}
		}

		if c.docComment != "" {
			sig.DocstringBoost = 0.05
		}

		if c.symbolID != nil {
			if metrics, err := store.GetSymbolMetrics(ctx, *c.symbolID); err == nil && metrics != nil {
				capped := metrics.PopularityCount
				if capped > cfg.RankPopularityCap {
					capped = cfg.RankPopularityCap
				}
				sig.PopularityBoost = metrics.NormalizedPageRank*cfg.RankPopularityWeight + float64(capped)/float64(cfg.RankPopularityCap+1)*cfg.RankPopularityWeight
			}
			if cfg.LearningEnabled {
				if n := selections[*c.symbolID]; n > 0 {
					sig.LearningBoost = float64(n) * cfg.LearningSelectionBoost
				}
			}
		}

		if cfg.LearningEnabled {
			if aff, err := store.GetFileAffinity(ctx, c.filePath); err == nil && aff != nil {
				sig.AffinityBoost = float64(aff.ViewCount+2*aff.EditCount) * cfg.LearningFileAffinityBoost / 100
			}
		}

		// RerankerScore isn't populated until rerankWithCache runs, downstream
		// of this pass; hybridSearch blends reranker and base scores after
		// that, not here.
		total := sig.BaseScore + sig.StructuralAdjust + sig.PopularityBoost +
			sig.LearningBoost + sig.AffinityBoost + sig.DocstringBoost + sig.PackageBoost
		total *= sig.IntentMult
		c.final = total
	}
}

// diversify enforces §4.7 step 7: after scoring, no single file may
// contribute more than maxPerFile results, so one large file with many
// keyword hits doesn't crowd out every other relevant location. A roaring
// bitmap tracks which candidate ordinals survive, since the same mechanism
// used for graph visited-sets fits dedup just as well.
func diversify(candidates []*scoredCandidate, maxPerFile int) []*scoredCandidate {
	if maxPerFile <= 0 {
		maxPerFile = 3
	}
	keep := roaring.New()
	perFile := make(map[string]int)
	for i, c := range candidates {
		if perFile[c.filePath] >= maxPerFile {
			continue
		}
		perFile[c.filePath]++
		keep.Add(uint32(i))
	}

	survivors := make([]*scoredCandidate, 0, keep.GetCardinality())
	for i, c := range candidates {
		if keep.Contains(uint32(i)) {
			survivors = append(survivors, c)
		}
	}
	return survivors
}
