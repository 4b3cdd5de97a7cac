package analytics

import "sort"

// louvain runs hierarchical modularity optimization over the undirected
// weighted projection of the graph: a local-moving phase that greedily moves
// nodes into the neighboring community with the largest modularity gain,
// followed by an aggregation phase that collapses each community into a
// super-node, repeated until an aggregation pass yields no improvement.
//
// Node order is the fixed index order and equal-gain ties resolve to the
// lowest community identifier, so two runs on identical input produce
// identical assignments. Returns the per-node community assignment (ids
// consecutive from 0, ordered by each community's smallest member index) and
// the modularity of the final partition. A graph with zero total edge weight
// yields singleton communities and modularity 0.0.
func louvain(ig *indexedGraph, resolution float64, maxPasses, maxLevels int) ([]int, float64) {
	n := len(ig.ids)
	assignment := make([]int, n)
	for i := range assignment {
		assignment[i] = i
	}

	lg := buildLouvainGraph(ig)
	if lg.m2 == 0 {
		return assignment, 0.0
	}

	bestQ := lg.modularity(singletons(lg.size()), resolution)

	for level := 0; level < maxLevels; level++ {
		comms := lg.localMove(resolution, maxPasses)
		q := lg.modularity(comms, resolution)
		if level > 0 && q <= bestQ+1e-9 {
			break
		}
		bestQ = q

		renumbered, count := renumberFirstSeen(comms)
		for i := range assignment {
			assignment[i] = renumbered[assignment[i]]
		}

		if count == lg.size() {
			break
		}
		lg = lg.aggregate(renumbered, count)
	}

	return assignment, bestQ
}

// louvainNeighbor is one weighted adjacency entry.
type louvainNeighbor struct {
	node   int
	weight float64
}

// louvainGraph is the coarsenable weighted undirected graph Louvain operates
// on. Each undirected edge appears in both endpoints' adjacency lists; self
// loops (from aggregation) are tracked separately and contribute twice to a
// node's degree. degree always includes the self-loop contribution.
type louvainGraph struct {
	adj    [][]louvainNeighbor
	selfs  []float64
	degree []float64
	m2     float64 // total degree, i.e. 2x total edge weight
}

func (lg *louvainGraph) size() int { return len(lg.adj) }

func buildLouvainGraph(ig *indexedGraph) *louvainGraph {
	n := len(ig.ids)
	lg := &louvainGraph{
		adj:    make([][]louvainNeighbor, n),
		selfs:  make([]float64, n),
		degree: make([]float64, n),
	}

	for i := 0; i < n; i++ {
		for pos, j := range ig.und[i] {
			w := ig.undW[i][pos]
			lg.adj[i] = append(lg.adj[i], louvainNeighbor{node: j, weight: w})
			lg.degree[i] += w
		}
		lg.m2 += lg.degree[i]
	}

	return lg
}

func singletons(n int) []int {
	comms := make([]int, n)
	for i := range comms {
		comms[i] = i
	}
	return comms
}

// localMove runs the greedy local-moving phase. Nodes are visited in index
// order; a node moves only when the best candidate community offers a
// strictly larger gain than staying put.
func (lg *louvainGraph) localMove(resolution float64, maxPasses int) []int {
	n := lg.size()
	comms := singletons(n)

	communityDegree := make([]float64, n)
	copy(communityDegree, lg.degree)

	neighWeight := make(map[int]float64, 8)

	for pass := 0; pass < maxPasses; pass++ {
		moved := false

		for i := 0; i < n; i++ {
			current := comms[i]
			communityDegree[current] -= lg.degree[i]

			for k := range neighWeight {
				delete(neighWeight, k)
			}
			neighWeight[current] = 0
			for _, nb := range lg.adj[i] {
				neighWeight[comms[nb.node]] += nb.weight
			}

			candidates := make([]int, 0, len(neighWeight))
			for c := range neighWeight {
				candidates = append(candidates, c)
			}
			sort.Ints(candidates)

			best := current
			bestGain := lg.gain(i, neighWeight[current], communityDegree[current], resolution)
			for _, c := range candidates {
				if c == current {
					continue
				}
				g := lg.gain(i, neighWeight[c], communityDegree[c], resolution)
				if g > bestGain+1e-12 || (g > bestGain-1e-12 && c < best) {
					best = c
					bestGain = g
				}
			}

			communityDegree[best] += lg.degree[i]
			comms[i] = best
			if best != current {
				moved = true
			}
		}

		if !moved {
			break
		}
	}

	return comms
}

// gain is the modularity gain (up to a constant factor) of placing node i
// into a community, with i already removed from its own community.
func (lg *louvainGraph) gain(i int, weightToC, communityDegree, resolution float64) float64 {
	return weightToC - resolution*communityDegree*lg.degree[i]/lg.m2
}

// modularity computes the modularity of the given partition.
func (lg *louvainGraph) modularity(comms []int, resolution float64) float64 {
	if lg.m2 == 0 {
		return 0.0
	}

	internal := make(map[int]float64)
	total := make(map[int]float64)

	for i := range lg.adj {
		c := comms[i]
		total[c] += lg.degree[i]
		internal[c] += 2 * lg.selfs[i]
		for _, nb := range lg.adj[i] {
			if comms[nb.node] == c {
				internal[c] += nb.weight
			}
		}
	}

	q := 0.0
	for c, in := range internal {
		tot := total[c]
		q += in/lg.m2 - resolution*(tot/lg.m2)*(tot/lg.m2)
	}
	return q
}

// aggregate collapses each community into a single super-node. Intra-community
// weight becomes a self loop; inter-community weights are summed.
func (lg *louvainGraph) aggregate(renumbered []int, count int) *louvainGraph {
	next := &louvainGraph{
		adj:    make([][]louvainNeighbor, count),
		selfs:  make([]float64, count),
		degree: make([]float64, count),
	}

	type pair struct{ a, b int }
	between := make(map[pair]float64)

	for i := range lg.adj {
		ci := renumbered[i]
		next.selfs[ci] += lg.selfs[i]
		for _, nb := range lg.adj[i] {
			if nb.node < i {
				continue // each undirected edge once
			}
			cj := renumbered[nb.node]
			if ci == cj {
				next.selfs[ci] += nb.weight
				continue
			}
			a, b := ci, cj
			if a > b {
				a, b = b, a
			}
			between[pair{a, b}] += nb.weight
		}
	}

	keys := make([]pair, 0, len(between))
	for p := range between {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(x, y int) bool {
		if keys[x].a != keys[y].a {
			return keys[x].a < keys[y].a
		}
		return keys[x].b < keys[y].b
	})

	for _, p := range keys {
		w := between[p]
		next.adj[p.a] = append(next.adj[p.a], louvainNeighbor{node: p.b, weight: w})
		next.adj[p.b] = append(next.adj[p.b], louvainNeighbor{node: p.a, weight: w})
	}

	for i := range next.adj {
		next.degree[i] = 2 * next.selfs[i]
		for _, nb := range next.adj[i] {
			next.degree[i] += nb.weight
		}
		next.m2 += next.degree[i]
	}

	return next
}

// renumberFirstSeen maps arbitrary community values to consecutive ids in
// order of first appearance over ascending node index, and returns the
// mapped assignment and the community count.
func renumberFirstSeen(comms []int) ([]int, int) {
	mapping := make(map[int]int)
	out := make([]int, len(comms))
	next := 0
	for i, c := range comms {
		id, ok := mapping[c]
		if !ok {
			id = next
			mapping[c] = id
			next++
		}
		out[i] = id
	}
	return out, next
}
