package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Benny93/cortex-go/internal/graph"
)

// Engine runs the full analytics suite over a code graph.
//
// An Engine is stateless apart from its configuration; a single Engine may
// serve concurrent runs.
type Engine struct {
	cfg Config
}

// NewEngine creates an analytics engine with the given configuration.
// Zero-valued config fields fall back to defaults.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Analyze runs PageRank, betweenness centrality, clustering coefficients,
// weakly connected components, and Louvain community detection over g.
//
// An empty graph is not an error: it yields a zero-valued GraphAnalytics so
// callers need not special-case empty projects. The only error paths are
// context cancellation and internal invariant violations.
func (e *Engine) Analyze(ctx context.Context, g *graph.CodeGraph) (*GraphAnalytics, error) {
	start := time.Now()

	result := &GraphAnalytics{
		Metrics:   make(map[string]*NodeMetrics),
		NodeCount: g.NodeCount(),
		EdgeCount: g.EdgeCount(),
	}

	if result.NodeCount == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	ig := buildIndex(g)

	ranks := pageRank(ig, e.cfg.Damping, e.cfg.Tolerance, e.cfg.MaxPageRankIterations)

	// Betweenness dominates the cost of a run; it is the one place where
	// cancellation is checked mid-algorithm.
	betweenness, err := betweennessCentrality(ctx, ig)
	if err != nil {
		return nil, &AnalyticsError{Stage: "betweenness", Err: err}
	}

	clustering := clusteringCoefficients(ig, e.cfg.MinClusteringDegree)
	componentOf := weaklyConnectedComponents(ig)
	communityOf, modularity := louvain(ig, e.cfg.Resolution, e.cfg.MaxLouvainPasses, e.cfg.MaxLouvainLevels)

	for i, id := range ig.ids {
		result.Metrics[id] = &NodeMetrics{
			PageRank:    ranks[i],
			Betweenness: betweenness[i],
			Clustering:  clustering[i],
			Community:   communityOf[i],
			Component:   componentOf[i],
		}
	}

	result.Modularity = modularity
	result.Communities = groupCommunities(g, ig, communityOf)
	result.Components = groupComponents(ig, componentOf)
	result.Health = buildHealthReport(ig, result)
	result.Duration = time.Since(start)

	return result, nil
}

// indexedGraph is the arena representation used by all algorithms: nodes
// addressed by dense integer index plus adjacency lists, built once per run
// from the immutable snapshot.
type indexedGraph struct {
	ids   []string
	index map[string]int

	// Directed adjacency, deduplicated per (source, target) pair.
	out [][]int
	in  [][]int

	// Undirected projection: unique neighbors sorted ascending, with the
	// summed weight of both directions aligned by position.
	und  [][]int
	undW [][]float64
}

// buildIndex converts a CodeGraph into the dense indexed form. Edges whose
// endpoints are missing from the node set are skipped, as are self loops.
func buildIndex(g *graph.CodeGraph) *indexedGraph {
	ids := g.NodeIDs()
	ig := &indexedGraph{
		ids:   ids,
		index: make(map[string]int, len(ids)),
		out:   make([][]int, len(ids)),
		in:    make([][]int, len(ids)),
		und:   make([][]int, len(ids)),
		undW:  make([][]float64, len(ids)),
	}
	for i, id := range ids {
		ig.index[id] = i
	}

	type pair struct{ s, t int }
	seen := make(map[pair]bool)
	undWeight := make(map[pair]float64)

	for _, edge := range g.Edges() {
		s, okS := ig.index[edge.Source]
		t, okT := ig.index[edge.Target]
		if !okS || !okT || s == t {
			continue
		}

		if !seen[pair{s, t}] {
			seen[pair{s, t}] = true
			ig.out[s] = append(ig.out[s], t)
			ig.in[t] = append(ig.in[t], s)
		}

		lo, hi := s, t
		if lo > hi {
			lo, hi = hi, lo
		}
		undWeight[pair{lo, hi}] += edge.EffectiveWeight()
	}

	for p, w := range undWeight {
		ig.und[p.s] = append(ig.und[p.s], p.t)
		ig.undW[p.s] = append(ig.undW[p.s], w)
		ig.und[p.t] = append(ig.und[p.t], p.s)
		ig.undW[p.t] = append(ig.undW[p.t], w)
	}

	for i := range ig.und {
		sortNeighbors(ig.und[i], ig.undW[i])
		sort.Ints(ig.out[i])
		sort.Ints(ig.in[i])
	}

	return ig
}

func sortNeighbors(nbrs []int, weights []float64) {
	idx := make([]int, len(nbrs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return nbrs[idx[a]] < nbrs[idx[b]] })

	sortedN := make([]int, len(nbrs))
	sortedW := make([]float64, len(weights))
	for i, j := range idx {
		sortedN[i] = nbrs[j]
		sortedW[i] = weights[j]
	}
	copy(nbrs, sortedN)
	copy(weights, sortedW)
}

// hasUndirectedEdge reports whether j is an undirected neighbor of i.
// Neighbor lists are sorted, so binary search applies.
func (ig *indexedGraph) hasUndirectedEdge(i, j int) bool {
	nbrs := ig.und[i]
	pos := sort.SearchInts(nbrs, j)
	return pos < len(nbrs) && nbrs[pos] == j
}

// groupCommunities materializes CommunityInfo records from the per-node
// assignment. Community IDs are consecutive from 0 in order of each
// community's smallest member index, so repeated runs on identical input
// produce identical output.
func groupCommunities(g *graph.CodeGraph, ig *indexedGraph, communityOf []int) []CommunityInfo {
	members := make(map[int][]string)
	order := make([]int, 0)
	for i, comm := range communityOf {
		if _, ok := members[comm]; !ok {
			order = append(order, comm)
		}
		members[comm] = append(members[comm], ig.ids[i])
	}
	sort.Ints(order)

	infos := make([]CommunityInfo, 0, len(order))
	for _, comm := range order {
		ids := members[comm]
		sort.Strings(ids)
		infos = append(infos, CommunityInfo{
			ID:      comm,
			Members: ids,
			Label:   communityLabel(g, ids),
		})
	}
	return infos
}

// communityLabel builds a short human-readable summary from member names.
func communityLabel(g *graph.CodeGraph, members []string) string {
	names := make([]string, 0, 3)
	for _, id := range members {
		if node := g.GetNode(id); node != nil && node.Name != "" {
			names = append(names, node.Name)
		}
		if len(names) == 3 {
			break
		}
	}

	if len(names) == 0 {
		return fmt.Sprintf("Community (%d members)", len(members))
	}

	label := names[0]
	for _, n := range names[1:] {
		label += ", " + n
	}
	if rest := len(members) - len(names); rest > 0 {
		return fmt.Sprintf("Community (%s, +%d more)", label, rest)
	}
	return fmt.Sprintf("Community (%s)", label)
}

func groupComponents(ig *indexedGraph, componentOf []int) []ComponentInfo {
	members := make(map[int][]string)
	order := make([]int, 0)
	for i, comp := range componentOf {
		if _, ok := members[comp]; !ok {
			order = append(order, comp)
		}
		members[comp] = append(members[comp], ig.ids[i])
	}
	sort.Ints(order)

	infos := make([]ComponentInfo, 0, len(order))
	for _, comp := range order {
		ids := members[comp]
		sort.Strings(ids)
		infos = append(infos, ComponentInfo{ID: comp, Members: ids})
	}
	return infos
}
