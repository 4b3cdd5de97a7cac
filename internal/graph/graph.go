// Package graph provides the in-memory code graph for Cortex.
//
// CodeGraph is a lightweight, map-backed directed graph holding CodeNode and
// CodeEdge instances with O(1) lookups by ID. Adjacency indexes are kept in
// sync on every mutation so traversals scale with the result set rather than
// the total graph size. A CodeGraph is built fresh for each analytics run and
// owned exclusively by that run.
package graph

import (
	"sort"
	"sync"
)

// CodeGraph is an in-memory directed graph of code-level entities.
//
// Nodes are keyed by their ID string; edges are keyed likewise. Duplicate
// node or edge IDs replace the previous entry. All query methods are backed
// by adjacency indexes.
type CodeGraph struct {
	mu    sync.RWMutex
	nodes map[string]*CodeNode
	edges map[string]*CodeEdge

	// Adjacency indexes — kept in sync by add helpers.
	outgoing map[string]map[string]*CodeEdge
	incoming map[string]map[string]*CodeEdge
}

// NewCodeGraph creates a new empty code graph.
func NewCodeGraph() *CodeGraph {
	return &CodeGraph{
		nodes:    make(map[string]*CodeNode),
		edges:    make(map[string]*CodeEdge),
		outgoing: make(map[string]map[string]*CodeEdge),
		incoming: make(map[string]map[string]*CodeEdge),
	}
}

// AddNode adds a node to the graph, replacing any existing node with the same ID.
func (g *CodeGraph) AddNode(node *CodeNode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[node.ID] = node
}

// AddEdge adds an edge to the graph, replacing any existing edge with the same ID.
// Endpoints do not need to exist yet; analytics skips edges whose endpoints
// are missing at analysis time.
func (g *CodeGraph) AddEdge(edge *CodeEdge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.edges[edge.ID]; ok {
		delete(g.outgoing[old.Source], edge.ID)
		delete(g.incoming[old.Target], edge.ID)
	}

	g.edges[edge.ID] = edge

	if g.outgoing[edge.Source] == nil {
		g.outgoing[edge.Source] = make(map[string]*CodeEdge)
	}
	g.outgoing[edge.Source][edge.ID] = edge

	if g.incoming[edge.Target] == nil {
		g.incoming[edge.Target] = make(map[string]*CodeEdge)
	}
	g.incoming[edge.Target][edge.ID] = edge
}

// GetNode returns the node with the given ID, or nil if it does not exist.
func (g *CodeGraph) GetNode(nodeID string) *CodeNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[nodeID]
}

// HasNode reports whether a node with the given ID exists.
func (g *CodeGraph) HasNode(nodeID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[nodeID]
	return ok
}

// NodeCount returns the number of nodes without list materialization.
func (g *CodeGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges without list materialization.
func (g *CodeGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// NodeIDs returns all node IDs in ascending order. The stable ordering is
// what makes analytics runs reproducible on identical input.
func (g *CodeGraph) NodeIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Nodes returns all nodes ordered by ascending ID.
func (g *CodeGraph) Nodes() []*CodeNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]*CodeNode, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Edges returns all edges ordered by ascending ID.
func (g *CodeGraph) Edges() []*CodeEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make([]*CodeEdge, 0, len(g.edges))
	for _, edge := range g.edges {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges
}

// Outgoing returns edges originating from the given node ID.
func (g *CodeGraph) Outgoing(nodeID string) []*CodeEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return collectEdges(g.outgoing[nodeID])
}

// Incoming returns edges targeting the given node ID.
func (g *CodeGraph) Incoming(nodeID string) []*CodeEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return collectEdges(g.incoming[nodeID])
}

func collectEdges(m map[string]*CodeEdge) []*CodeEdge {
	if len(m) == 0 {
		return nil
	}
	edges := make([]*CodeEdge, 0, len(m))
	for _, edge := range m {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges
}

// Stats returns a summary of graph size.
func (g *CodeGraph) Stats() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return map[string]int{
		"nodes": len(g.nodes),
		"edges": len(g.edges),
	}
}
