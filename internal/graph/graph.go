// Package graph walks the symbol/edge graph built by the indexer to answer
// call-hierarchy, type-graph, dependency-graph, and data-flow queries, and
// recomputes PageRank over the same graph at the end of an index run.
package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring"
	"gonum.org/v1/gonum/mat"

	"github.com/iceinvein/code-intelligence-mcp-server/internal/storage"
	"github.com/iceinvein/code-intelligence-mcp-server/pkg/types"
)

// Direction picks which end of a call edge to walk from the seed symbol.
type Direction string

const (
	DirectionCallers Direction = "callers" // who calls the seed
	DirectionCallees Direction = "callees" // what the seed calls
)

var callKinds = []string{string(types.EdgeCall)}
var typeKinds = []string{string(types.EdgeTypeExtends), string(types.EdgeTypeImplements), string(types.EdgeTypeAlias)}
var dataFlowKinds = []string{string(types.EdgeRead), string(types.EdgeWrite)}

// Engine answers graph-traversal queries against a project's edge table.
type Engine struct {
	storage storage.Storage
}

// New creates a graph Engine backed by store.
func New(store storage.Storage) *Engine {
	return &Engine{storage: store}
}

// Node is one entry of a traversal result: the symbol reached, the edge that
// reached it, and how many hops from the seed it took.
type Node struct {
	Symbol *storage.Symbol
	Edge   *storage.Edge
	Depth  int
}

// TraversalResult is the shared shape for call_hierarchy/type_graph/data_flow.
type TraversalResult struct {
	Seed  *storage.Symbol
	Nodes []Node
	// Truncated is true when maxNodes cut off the traversal before every
	// reachable node at the requested depth was visited.
	Truncated bool
}

const defaultMaxNodes = 500

// CallHierarchy walks call edges outward from symbolID up to maxDepth hops,
// in the direction requested. Visited symbols are tracked in a roaring
// bitmap keyed by a per-query ordinal, since symbol ids are not dense enough
// to bitmap directly.
func (e *Engine) CallHierarchy(ctx context.Context, symbolID int64, dir Direction, maxDepth int) (*TraversalResult, error) {
	return e.traverse(ctx, symbolID, maxDepth, func(ctx context.Context, id int64) ([]*storage.Edge, error) {
		if dir == DirectionCallers {
			return e.storage.ListEdgesTo(ctx, id, callKinds)
		}
		return e.storage.ListEdgesFrom(ctx, id, callKinds)
	}, dir == DirectionCallers)
}

// TypeGraph walks type_extends/type_implements/type_alias edges outward from
// symbolID, following the "is-a" direction (from subtype to supertype).
func (e *Engine) TypeGraph(ctx context.Context, symbolID int64, maxDepth int) (*TraversalResult, error) {
	return e.traverse(ctx, symbolID, maxDepth, func(ctx context.Context, id int64) ([]*storage.Edge, error) {
		return e.storage.ListEdgesFrom(ctx, id, typeKinds)
	}, false)
}

// DataFlow walks read/write edges outward from symbolID, surfacing every
// symbol whose value the seed reads from or writes into.
func (e *Engine) DataFlow(ctx context.Context, symbolID int64, maxDepth int) (*TraversalResult, error) {
	return e.traverse(ctx, symbolID, maxDepth, func(ctx context.Context, id int64) ([]*storage.Edge, error) {
		return e.storage.ListEdgesFrom(ctx, id, dataFlowKinds)
	}, false)
}

// fetchEdges returns the outward (or inward, for callers) edges from a node
// during a single traversal step.
type fetchEdges func(ctx context.Context, symbolID int64) ([]*storage.Edge, error)

func (e *Engine) traverse(ctx context.Context, symbolID int64, maxDepth int, fetch fetchEdges, reverse bool) (*TraversalResult, error) {
	if maxDepth <= 0 {
		maxDepth = 2
	}
	seed, err := e.storage.GetSymbol(ctx, symbolID)
	if err != nil {
		return nil, fmt.Errorf("graph: seed symbol: %w", err)
	}

	visited := roaring.New()
	ordinals := map[int64]uint32{symbolID: 0}
	visited.Add(0)

	result := &TraversalResult{Seed: seed}
	frontier := []int64{symbolID}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []int64
		for _, id := range frontier {
			edges, err := fetch(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("graph: list edges at depth %d: %w", depth, err)
			}
			for _, edge := range edges {
				neighbor := edge.ToSymbolID
				if reverse {
					neighbor = edge.FromSymbolID
				}
				ord, seen := ordinals[neighbor]
				if !seen {
					ord = uint32(len(ordinals))
					ordinals[neighbor] = ord
				}
				if visited.Contains(ord) {
					continue
				}
				visited.Add(ord)

				if len(result.Nodes) >= defaultMaxNodes {
					result.Truncated = true
					continue
				}
				sym, err := e.storage.GetSymbol(ctx, neighbor)
				if err != nil {
					continue // dangling edge endpoint; skip rather than fail the whole traversal
				}
				result.Nodes = append(result.Nodes, Node{Symbol: sym, Edge: edge, Depth: depth})
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return result, nil
}

// PackageNode is one package in a dependency graph, with the packages it
// imports directly.
type PackageNode struct {
	Package string
	Imports []string
}

// DependencyGraph builds a package-level import graph for the project by
// joining every file's package name against its import list, then returns
// the transitive closure of imports reachable from seedPackage within
// maxDepth hops.
func (e *Engine) DependencyGraph(ctx context.Context, projectID int64, seedPackage string, maxDepth int) ([]PackageNode, error) {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	files, err := e.storage.ListFiles(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("graph: list files: %w", err)
	}

	adjacency := make(map[string]map[string]struct{})
	for _, f := range files {
		imports, err := e.storage.ListImportsByFile(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("graph: list imports for %s: %w", f.FilePath, err)
		}
		set := adjacency[f.PackageName]
		if set == nil {
			set = make(map[string]struct{})
			adjacency[f.PackageName] = set
		}
		for _, imp := range imports {
			set[imp.ImportPath] = struct{}{}
		}
	}

	visited := map[string]bool{seedPackage: true}
	frontier := []string{seedPackage}
	var nodes []PackageNode

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, pkg := range frontier {
			imports := sortedKeys(adjacency[pkg])
			nodes = append(nodes, PackageNode{Package: pkg, Imports: imports})
			for _, imp := range imports {
				if !visited[imp] {
					visited[imp] = true
					next = append(next, imp)
				}
			}
		}
		frontier = next
	}

	return nodes, nil
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RecomputeMetrics runs PageRank power iteration over the project's full
// edge set and in/out-degree counts, returning one SymbolMetrics per node
// that appears in at least one edge. Isolated symbols (no edges at all)
// never show up here and keep whatever metrics row they already have, which
// is fine: a symbol nothing calls and that calls nothing has no popularity
// signal to recompute.
func (e *Engine) RecomputeMetrics(ctx context.Context, projectID int64, damping float64, iterations int) ([]*storage.SymbolMetrics, error) {
	if damping <= 0 || damping >= 1 {
		damping = 0.85
	}
	if iterations <= 0 {
		iterations = 20
	}

	edges, err := e.storage.ListEdgesForProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("graph: list edges: %w", err)
	}
	if len(edges) == 0 {
		return nil, nil
	}

	ordinals := make(map[int64]int)
	order := func(id int64) int {
		if o, ok := ordinals[id]; ok {
			return o
		}
		o := len(ordinals)
		ordinals[id] = o
		return o
	}
	type adj struct{ to []int }
	outEdges := make(map[int]*adj)
	inDegree := make(map[int]int64)
	outDegree := make(map[int]int64)

	for _, edge := range edges {
		from := order(edge.FromSymbolID)
		to := order(edge.ToSymbolID)
		a := outEdges[from]
		if a == nil {
			a = &adj{}
			outEdges[from] = a
		}
		a.to = append(a.to, to)
		outDegree[from]++
		inDegree[to]++
	}

	n := len(ordinals)
	rank := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rank.SetVec(i, 1.0/float64(n))
	}

	base := (1 - damping) / float64(n)
	for iter := 0; iter < iterations; iter++ {
		next := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			next.SetVec(i, base)
		}
		// Distribute each node's rank across its outgoing edges.
		for from, a := range outEdges {
			share := damping * rank.AtVec(from) / float64(len(a.to))
			for _, to := range a.to {
				next.SetVec(to, next.AtVec(to)+share)
			}
		}
		rank = next
	}

	var max float64
	for i := 0; i < n; i++ {
		if v := rank.AtVec(i); v > max {
			max = v
		}
	}
	if max == 0 {
		max = 1
	}

	ids := make([]int64, n)
	for id, ord := range ordinals {
		ids[ord] = id
	}

	metrics := make([]*storage.SymbolMetrics, n)
	for ord, id := range ids {
		metrics[ord] = &storage.SymbolMetrics{
			SymbolID:           id,
			PageRank:           rank.AtVec(ord),
			NormalizedPageRank: rank.AtVec(ord) / max,
			PopularityCount:    inDegree[ord],
			InDegree:           inDegree[ord],
			OutDegree:          outDegree[ord],
		}
	}
	return metrics, nil
}
