package analytics

// weaklyConnectedComponents assigns every node to exactly one component of
// the undirected projection. Component IDs are consecutive from 0, assigned
// in ascending order of each component's smallest node index, so the
// assignment is deterministic. Isolated nodes form singleton components.
func weaklyConnectedComponents(ig *indexedGraph) []int {
	n := len(ig.ids)
	componentOf := make([]int, n)
	for i := range componentOf {
		componentOf[i] = -1
	}

	next := 0
	queue := make([]int, 0, n)

	for start := 0; start < n; start++ {
		if componentOf[start] >= 0 {
			continue
		}

		componentOf[start] = next
		queue = append(queue[:0], start)

		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, w := range ig.und[v] {
				if componentOf[w] < 0 {
					componentOf[w] = next
					queue = append(queue, w)
				}
			}
		}

		next++
	}

	return componentOf
}
