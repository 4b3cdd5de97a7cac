// Package extract loads a project's stored node/edge set into an in-memory
// CodeGraph for analysis, and writes computed metrics back to the store.
package extract

import (
	"context"
	"fmt"

	"github.com/Benny93/cortex-go/internal/analytics"
	"github.com/Benny93/cortex-go/internal/graph"
	"github.com/Benny93/cortex-go/internal/store"
)

// ExtractionError wraps failures while loading or validating a project graph.
type ExtractionError struct {
	ProjectID string
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract project %q: %v", e.ProjectID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor builds analyzable graphs from a GraphStore.
type Extractor struct {
	store store.GraphStore
}

// NewExtractor creates an Extractor backed by the given store.
func NewExtractor(s store.GraphStore) *Extractor {
	return &Extractor{store: s}
}

// ProjectGraph fetches the project's nodes and edges and assembles them into
// a CodeGraph. Edges referencing unknown endpoints are dropped rather than
// failing the extraction; a store or decode failure aborts with an
// ExtractionError.
func (e *Extractor) ProjectGraph(ctx context.Context, projectID string) (*graph.CodeGraph, error) {
	pg, err := e.store.FetchProjectGraph(ctx, projectID)
	if err != nil {
		return nil, &ExtractionError{ProjectID: projectID, Err: err}
	}

	g := graph.NewCodeGraph()
	for _, node := range pg.Nodes {
		if node.ID == "" {
			return nil, &ExtractionError{ProjectID: projectID, Err: fmt.Errorf("node without ID")}
		}
		g.AddNode(node)
	}
	for _, edge := range pg.Edges {
		if !g.HasNode(edge.Source) || !g.HasNode(edge.Target) {
			continue
		}
		g.AddEdge(edge)
	}
	return g, nil
}

// MetricsWriter persists analytics results back to the store.
type MetricsWriter struct {
	store store.GraphStore
}

// NewMetricsWriter creates a MetricsWriter backed by the given store.
func NewMetricsWriter(s store.GraphStore) *MetricsWriter {
	return &MetricsWriter{store: s}
}

// Write persists the per-node metrics of a completed analysis as one batched
// update. It is only called after the full analytics pipeline succeeded, so a
// partial run never overwrites stored scores.
func (w *MetricsWriter) Write(ctx context.Context, projectID string, result *analytics.GraphAnalytics) error {
	if len(result.Metrics) == 0 {
		return nil
	}
	updates := make(map[string]store.NodeMetricsUpdate, len(result.Metrics))
	for nodeID, m := range result.Metrics {
		updates[nodeID] = store.NodeMetricsUpdate{
			PageRank:    m.PageRank,
			Betweenness: m.Betweenness,
			Clustering:  m.Clustering,
			Community:   m.Community,
			Component:   m.Component,
		}
	}
	if err := w.store.BatchWriteNodeMetrics(ctx, projectID, updates); err != nil {
		return fmt.Errorf("write metrics for project %q: %w", projectID, err)
	}
	return nil
}
