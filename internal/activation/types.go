// Package activation implements spreading-activation recall: seed notes from
// vector similarity, spread relevance through weighted synapses gated by note
// energy, and rank the merged activations.
package activation

import "fmt"

// SourceKind says how a note entered the result set.
type SourceKind string

const (
	// SourceSeed marks notes activated directly by vector similarity.
	SourceSeed SourceKind = "seed"

	// SourceSpread marks notes reached by propagation through synapses.
	SourceSpread SourceKind = "spread"
)

// ActivationSource records why a note was activated.
type ActivationSource struct {
	// Kind is seed or spread.
	Kind SourceKind `json:"kind"`

	// Hop is the hop count at which the best score arrived (0 for seeds).
	Hop int `json:"hop,omitempty"`

	// Path is the note ID chain of the strongest contributing path, from
	// the originating seed to this note. Empty for seeds.
	Path []string `json:"path,omitempty"`
}

// ActivatedNote is one ranked recall result. Ephemeral, produced fresh per
// query, never persisted.
type ActivatedNote struct {
	// NoteID identifies the activated note.
	NoteID string `json:"note_id"`

	// Score is the final activation, the maximum over all contributing
	// paths and phases.
	Score float64 `json:"score"`

	// Source explains how the note was activated.
	Source ActivationSource `json:"source"`
}

// RetrievalError wraps collaborator failures during a recall query. A failed
// query returns no results rather than a partial ranked list.
type RetrievalError struct {
	Phase string // seed, spread
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("recall %s phase: %v", e.Phase, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }
