// Package store provides the persistent graph store for Cortex.
//
// It defines the GraphStore capability interface that the analytics and
// recall engines depend on, along with the note ("neuron") and synapse
// record types. BadgerStore is the production implementation; MemoryStore
// backs tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Benny93/cortex-go/internal/graph"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Note is a knowledge note ("neuron"): a unit of knowledge with an embedding
// and an energy value gating its participation in activation spreading.
type Note struct {
	// ID is the unique note identifier.
	ID string `json:"id"`

	// Title is a short human-readable name.
	Title string `json:"title"`

	// Content is the note text.
	Content string `json:"content"`

	// Embedding is the note's vector embedding.
	Embedding []float32 `json:"embedding,omitempty"`

	// Energy is the note's current relevance. Energy changes only through
	// explicit reinforcement; there is no time-based decay.
	Energy float64 `json:"energy"`

	// Files are paths the note is linked to, used by commit reinforcement.
	Files []string `json:"files,omitempty"`

	// CreatedAt is when the note was first stored.
	CreatedAt time.Time `json:"created_at"`
}

// Synapse is a weighted directed edge between two notes, strengthened by
// reinforcement.
type Synapse struct {
	// Source is the originating note ID.
	Source string `json:"source"`

	// Target is the receiving note ID.
	Target string `json:"target"`

	// Weight is the connection strength (>= 0).
	Weight float64 `json:"weight"`
}

// ProjectGraph is the raw node/edge set fetched for one project.
type ProjectGraph struct {
	Nodes []*graph.CodeNode
	Edges []*graph.CodeEdge
}

// NodeMetricsUpdate carries per-node analytics scores for batch write-back.
// It mirrors the analytics result shape without importing that package.
type NodeMetricsUpdate struct {
	PageRank    float64 `json:"pagerank"`
	Betweenness float64 `json:"betweenness"`
	Clustering  float64 `json:"clustering"`
	Community   int     `json:"community"`
	Component   int     `json:"component"`
}

// GraphStore is the storage capability consumed by the engines.
//
// Implementations must be safe for concurrent use. Reads within a single
// call observe a consistent snapshot; cross-call consistency is not
// guaranteed. Energy increments and synapse upserts must be atomic per
// record so that concurrent reinforcement hooks never lose updates.
type GraphStore interface {
	// Project graph operations

	// FetchProjectGraph returns the current node/edge set for a project.
	FetchProjectGraph(ctx context.Context, projectID string) (*ProjectGraph, error)

	// AddCodeNodes inserts code nodes into a project's graph.
	AddCodeNodes(ctx context.Context, projectID string, nodes []*graph.CodeNode) error

	// AddCodeEdges inserts code edges into a project's graph.
	AddCodeEdges(ctx context.Context, projectID string, edges []*graph.CodeEdge) error

	// BatchWriteNodeMetrics persists analytics scores for a project as a
	// single batched update keyed by node ID.
	BatchWriteNodeMetrics(ctx context.Context, projectID string, updates map[string]NodeMetricsUpdate) error

	// GetNodeMetrics returns the stored scores for one node, or ErrNotFound.
	GetNodeMetrics(ctx context.Context, projectID, nodeID string) (*NodeMetricsUpdate, error)

	// Note operations

	// PutNote inserts or replaces a note.
	PutNote(ctx context.Context, note *Note) error

	// GetNote returns a note by ID, or ErrNotFound.
	GetNote(ctx context.Context, noteID string) (*Note, error)

	// ListNotes returns all notes ordered by ascending ID.
	ListNotes(ctx context.Context) ([]*Note, error)

	// GetNotesByFile returns notes linked to the given file path.
	GetNotesByFile(ctx context.Context, filePath string) ([]*Note, error)

	// IncrementEnergy atomically adds delta to a note's energy.
	IncrementEnergy(ctx context.Context, noteID string, delta float64) error

	// Synapse operations

	// GetOutgoingSynapses returns synapses originating from the note,
	// ordered by ascending target ID.
	GetOutgoingSynapses(ctx context.Context, noteID string) ([]Synapse, error)

	// GetIncomingSynapses returns synapses targeting the note, ordered by
	// ascending source ID.
	GetIncomingSynapses(ctx context.Context, noteID string) ([]Synapse, error)

	// GetSynapse returns the synapse between two notes, or ErrNotFound.
	GetSynapse(ctx context.Context, source, target string) (*Synapse, error)

	// UpsertSynapse atomically adds weightDelta to the synapse's weight,
	// creating it with that weight when absent.
	UpsertSynapse(ctx context.Context, source, target string, weightDelta float64) error

	// Lifecycle

	// Close releases all resources held by the store.
	Close() error
}
