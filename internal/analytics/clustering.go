package analytics

// clusteringCoefficients computes the local clustering coefficient per node
// on the undirected projection: closed triplets among neighbors divided by
// possible triplets. Nodes with fewer than minDegree neighbors get exactly 0.
func clusteringCoefficients(ig *indexedGraph, minDegree int) []float64 {
	n := len(ig.ids)
	coeffs := make([]float64, n)

	for i := 0; i < n; i++ {
		nbrs := ig.und[i]
		k := len(nbrs)
		if k < minDegree {
			continue
		}

		links := 0
		for a := 0; a < k; a++ {
			for b := a + 1; b < k; b++ {
				if ig.hasUndirectedEdge(nbrs[a], nbrs[b]) {
					links++
				}
			}
		}

		coeffs[i] = 2.0 * float64(links) / (float64(k) * float64(k-1))
	}

	return coeffs
}
