package analytics

import "math"

// pageRank computes the standard random-surfer PageRank over the directed
// graph. Iteration stops when the L1 change between successive rank vectors
// falls below tol, or after maxIter iterations (an unconverged result is
// still returned).
//
// Dangling nodes (no outgoing edges) redistribute their rank mass uniformly
// across all nodes, which keeps the output summing to 1.0.
func pageRank(ig *indexedGraph, damping, tol float64, maxIter int) []float64 {
	n := len(ig.ids)
	if n == 0 {
		return nil
	}

	rank := make([]float64, n)
	next := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}

	outDegree := make([]float64, n)
	var dangling []int
	for i := range ig.out {
		outDegree[i] = float64(len(ig.out[i]))
		if len(ig.out[i]) == 0 {
			dangling = append(dangling, i)
		}
	}

	base := (1.0 - damping) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		danglingMass := 0.0
		for _, i := range dangling {
			danglingMass += rank[i]
		}
		redistribute := damping * danglingMass / float64(n)

		for v := range next {
			sum := 0.0
			for _, u := range ig.in[v] {
				sum += rank[u] / outDegree[u]
			}
			next[v] = base + redistribute + damping*sum
		}

		diff := 0.0
		for i := range rank {
			diff += math.Abs(next[i] - rank[i])
		}
		rank, next = next, rank

		if diff < tol {
			break
		}
	}

	return rank
}
