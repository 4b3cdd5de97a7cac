// Package analytics runs global structural analytics over an extracted code
// graph: PageRank, betweenness centrality, clustering coefficients, weakly
// connected components, and Louvain community detection.
//
// All algorithms operate on an immutable snapshot of the graph taken when
// Analyze is called; an analytics run never blocks concurrent queries and
// holds no state beyond its own call frame.
package analytics

import "time"

// NodeMetrics holds the per-node scores produced by an analytics run.
type NodeMetrics struct {
	// PageRank is the node's share of the stationary rank distribution.
	// Values sum to 1.0 across all nodes of the analyzed graph.
	PageRank float64

	// Betweenness is the node's shortest-path betweenness centrality (>= 0).
	Betweenness float64

	// Clustering is the local clustering coefficient in [0, 1], computed on
	// the undirected projection. Nodes with degree < 2 score exactly 0.
	Clustering float64

	// Community is the Louvain community identifier.
	Community int

	// Component is the weakly-connected-component identifier.
	Component int
}

// CommunityInfo describes one detected community.
type CommunityInfo struct {
	// ID is the community identifier.
	ID int

	// Members are the node IDs belonging to the community, sorted ascending.
	Members []string

	// Label is an optional human-readable summary of the community.
	Label string
}

// ComponentInfo describes one weakly connected component.
type ComponentInfo struct {
	// ID is the component identifier.
	ID int

	// Members are the node IDs belonging to the component, sorted ascending.
	Members []string
}

// HealthReport summarizes the structural health of the analyzed graph.
type HealthReport struct {
	// MeanPageRank and StddevPageRank summarize the rank distribution.
	// A high stddev indicates a few structurally dominant nodes.
	MeanPageRank   float64
	StddevPageRank float64

	// MaxBetweenness is the highest betweenness score; its holder is the
	// graph's main bottleneck.
	MaxBetweenness     float64
	MaxBetweennessNode string

	// MeanClustering is the average local clustering coefficient.
	MeanClustering float64

	// IsolatedNodes counts nodes with no edges at all.
	IsolatedNodes int

	// LargestComponentRatio is the fraction of nodes in the largest
	// weakly connected component.
	LargestComponentRatio float64
}

// GraphAnalytics is the aggregate result of one analytics run. It is
// immutable once produced and safe to share read-only across consumers.
type GraphAnalytics struct {
	// Metrics maps node ID to its per-node scores.
	Metrics map[string]*NodeMetrics

	// Communities lists the detected communities (a strict partition of
	// the node set).
	Communities []CommunityInfo

	// Components lists the weakly connected components (also a strict
	// partition of the node set).
	Components []ComponentInfo

	// Health is the code-health summary derived from the metrics.
	Health HealthReport

	// Modularity is the modularity of the final Louvain partition,
	// typically in [-0.5, 1.0]. Defined as 0.0 for graphs with no edges.
	Modularity float64

	// NodeCount and EdgeCount record the size of the analyzed snapshot.
	NodeCount int
	EdgeCount int

	// Duration is how long the run took.
	Duration time.Duration
}
