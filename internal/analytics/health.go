package analytics

import "gonum.org/v1/gonum/stat"

// buildHealthReport derives the code-health summary from the computed
// metrics. All inputs are already final; this is pure aggregation.
func buildHealthReport(ig *indexedGraph, result *GraphAnalytics) HealthReport {
	n := len(ig.ids)
	report := HealthReport{}
	if n == 0 {
		return report
	}

	ranks := make([]float64, 0, n)
	clusterings := make([]float64, 0, n)

	for i, id := range ig.ids {
		m := result.Metrics[id]
		ranks = append(ranks, m.PageRank)
		clusterings = append(clusterings, m.Clustering)

		if m.Betweenness > report.MaxBetweenness {
			report.MaxBetweenness = m.Betweenness
			report.MaxBetweennessNode = id
		}
		if len(ig.out[i]) == 0 && len(ig.in[i]) == 0 {
			report.IsolatedNodes++
		}
	}

	report.MeanPageRank = stat.Mean(ranks, nil)
	if n > 1 {
		report.StddevPageRank = stat.StdDev(ranks, nil)
	}
	report.MeanClustering = stat.Mean(clusterings, nil)

	largest := 0
	for _, comp := range result.Components {
		if len(comp.Members) > largest {
			largest = len(comp.Members)
		}
	}
	report.LargestComponentRatio = float64(largest) / float64(n)

	return report
}
