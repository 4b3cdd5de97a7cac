package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Benny93/cortex-go/internal/graph"
)

// MemoryStore is an in-memory implementation of GraphStore for tests.
//
// The error fields let tests inject collaborator failures: when set, the
// corresponding operations fail with that error.
type MemoryStore struct {
	mu       sync.RWMutex
	nodes    map[string]map[string]*graph.CodeNode // projectID -> nodeID -> node
	edges    map[string]map[string]*graph.CodeEdge // projectID -> edgeID -> edge
	metrics  map[string]map[string]NodeMetricsUpdate
	notes    map[string]*Note
	synapses map[string]map[string]float64 // source -> target -> weight

	// FetchErr, ReadErr, and WriteErr force failures for testing.
	FetchErr error
	ReadErr  error
	WriteErr error
}

// NewMemoryStore creates a new empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:    make(map[string]map[string]*graph.CodeNode),
		edges:    make(map[string]map[string]*graph.CodeEdge),
		metrics:  make(map[string]map[string]NodeMetricsUpdate),
		notes:    make(map[string]*Note),
		synapses: make(map[string]map[string]float64),
	}
}

// FetchProjectGraph implements GraphStore.
func (m *MemoryStore) FetchProjectGraph(ctx context.Context, projectID string) (*ProjectGraph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FetchErr != nil {
		return nil, m.FetchErr
	}

	pg := &ProjectGraph{}
	for _, node := range m.nodes[projectID] {
		pg.Nodes = append(pg.Nodes, node)
	}
	for _, edge := range m.edges[projectID] {
		pg.Edges = append(pg.Edges, edge)
	}
	sort.Slice(pg.Nodes, func(i, j int) bool { return pg.Nodes[i].ID < pg.Nodes[j].ID })
	sort.Slice(pg.Edges, func(i, j int) bool { return pg.Edges[i].ID < pg.Edges[j].ID })
	return pg, nil
}

// AddCodeNodes implements GraphStore.
func (m *MemoryStore) AddCodeNodes(ctx context.Context, projectID string, nodes []*graph.CodeNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	if m.nodes[projectID] == nil {
		m.nodes[projectID] = make(map[string]*graph.CodeNode)
	}
	for _, node := range nodes {
		m.nodes[projectID][node.ID] = node
	}
	return nil
}

// AddCodeEdges implements GraphStore.
func (m *MemoryStore) AddCodeEdges(ctx context.Context, projectID string, edges []*graph.CodeEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	if m.edges[projectID] == nil {
		m.edges[projectID] = make(map[string]*graph.CodeEdge)
	}
	for _, edge := range edges {
		m.edges[projectID][edge.ID] = edge
	}
	return nil
}

// BatchWriteNodeMetrics implements GraphStore.
func (m *MemoryStore) BatchWriteNodeMetrics(ctx context.Context, projectID string, updates map[string]NodeMetricsUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	if m.metrics[projectID] == nil {
		m.metrics[projectID] = make(map[string]NodeMetricsUpdate)
	}
	for nodeID, update := range updates {
		m.metrics[projectID][nodeID] = update
	}
	return nil
}

// GetNodeMetrics implements GraphStore.
func (m *MemoryStore) GetNodeMetrics(ctx context.Context, projectID, nodeID string) (*NodeMetricsUpdate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	update, ok := m.metrics[projectID][nodeID]
	if !ok {
		return nil, ErrNotFound
	}
	return &update, nil
}

// PutNote implements GraphStore.
func (m *MemoryStore) PutNote(ctx context.Context, note *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	copied := *note
	m.notes[note.ID] = &copied
	return nil
}

// GetNote implements GraphStore.
func (m *MemoryStore) GetNote(ctx context.Context, noteID string) (*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	note, ok := m.notes[noteID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *note
	return &copied, nil
}

// ListNotes implements GraphStore.
func (m *MemoryStore) ListNotes(ctx context.Context) ([]*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	notes := make([]*Note, 0, len(m.notes))
	for _, note := range m.notes {
		copied := *note
		notes = append(notes, &copied)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

// GetNotesByFile implements GraphStore.
func (m *MemoryStore) GetNotesByFile(ctx context.Context, filePath string) ([]*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	var notes []*Note
	for _, note := range m.notes {
		for _, f := range note.Files {
			if f == filePath {
				copied := *note
				notes = append(notes, &copied)
				break
			}
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

// IncrementEnergy implements GraphStore.
func (m *MemoryStore) IncrementEnergy(ctx context.Context, noteID string, delta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	note, ok := m.notes[noteID]
	if !ok {
		return ErrNotFound
	}
	note.Energy += delta
	return nil
}

// GetOutgoingSynapses implements GraphStore.
func (m *MemoryStore) GetOutgoingSynapses(ctx context.Context, noteID string) ([]Synapse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	targets := m.synapses[noteID]
	synapses := make([]Synapse, 0, len(targets))
	for target, weight := range targets {
		synapses = append(synapses, Synapse{Source: noteID, Target: target, Weight: weight})
	}
	sort.Slice(synapses, func(i, j int) bool { return synapses[i].Target < synapses[j].Target })
	return synapses, nil
}

// GetIncomingSynapses implements GraphStore.
func (m *MemoryStore) GetIncomingSynapses(ctx context.Context, noteID string) ([]Synapse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	var synapses []Synapse
	for source, targets := range m.synapses {
		if weight, ok := targets[noteID]; ok {
			synapses = append(synapses, Synapse{Source: source, Target: noteID, Weight: weight})
		}
	}
	sort.Slice(synapses, func(i, j int) bool { return synapses[i].Source < synapses[j].Source })
	return synapses, nil
}

// GetSynapse implements GraphStore.
func (m *MemoryStore) GetSynapse(ctx context.Context, source, target string) (*Synapse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	weight, ok := m.synapses[source][target]
	if !ok {
		return nil, ErrNotFound
	}
	return &Synapse{Source: source, Target: target, Weight: weight}, nil
}

// UpsertSynapse implements GraphStore.
func (m *MemoryStore) UpsertSynapse(ctx context.Context, source, target string, weightDelta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return m.WriteErr
	}
	if m.synapses[source] == nil {
		m.synapses[source] = make(map[string]float64)
	}
	m.synapses[source][target] += weightDelta
	return nil
}

// Close implements GraphStore.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = nil
	m.edges = nil
	m.notes = nil
	m.synapses = nil
	return nil
}

// NoteCount returns the number of stored notes.
func (m *MemoryStore) NoteCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.notes)
}
