package analytics

import "context"

// betweennessCentrality computes shortest-path betweenness over the directed
// graph using Brandes' accumulation. Ties in shortest paths split credit
// proportionally via the path-count sigma values.
//
// Cost is O(V*E); for large graphs this is the dominant cost of an analytics
// run, so cancellation is checked between source iterations.
func betweennessCentrality(ctx context.Context, ig *indexedGraph) ([]float64, error) {
	n := len(ig.ids)
	centrality := make([]float64, n)

	// Reused per-source scratch.
	dist := make([]int, n)
	sigma := make([]float64, n)
	delta := make([]float64, n)
	pred := make([][]int, n)
	stack := make([]int, 0, n)
	queue := make([]int, 0, n)

	for s := 0; s < n; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stack = stack[:0]
		queue = queue[:0]
		for i := 0; i < n; i++ {
			dist[i] = -1
			sigma[i] = 0
			delta[i] = 0
			pred[i] = pred[i][:0]
		}

		dist[s] = 0
		sigma[s] = 1
		queue = append(queue, s)

		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)

			for _, w := range ig.out[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					pred[w] = append(pred[w], v)
				}
			}
		}

		// Accumulate dependencies in reverse BFS order.
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range pred[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				centrality[w] += delta[w]
			}
		}
	}

	return centrality, nil
}
