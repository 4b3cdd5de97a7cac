// Package search finds notes semantically similar to a query embedding.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/viterin/vek/vek32"

	"github.com/Benny93/cortex-go/internal/store"
)

// Match is one vector search hit.
type Match struct {
	// NoteID identifies the matched note.
	NoteID string `json:"note_id"`

	// Score is the cosine similarity in [-1, 1].
	Score float64 `json:"score"`
}

// VectorSearch finds the notes most similar to a query vector.
type VectorSearch interface {
	// TopKSimilar returns up to k matches ordered by descending score, ties
	// broken by ascending note ID.
	TopKSimilar(ctx context.Context, query []float32, k int) ([]Match, error)
}

// StoreScan is a VectorSearch that scans every embedded note in the store.
// Fine for the corpus sizes a single project produces; swap in an ANN index
// when scans get slow.
type StoreScan struct {
	store store.GraphStore
}

// NewStoreScan creates a scan-based VectorSearch over the given store.
func NewStoreScan(s store.GraphStore) *StoreScan {
	return &StoreScan{store: s}
}

// TopKSimilar implements VectorSearch. Notes without an embedding, or with an
// embedding of a different dimension than the query, are skipped.
func (s *StoreScan) TopKSimilar(ctx context.Context, query []float32, k int) ([]Match, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	notes, err := s.store.ListNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notes for vector search: %w", err)
	}

	queryNorm := math.Sqrt(float64(vek32.Dot(query, query)))
	if queryNorm == 0 {
		return nil, nil
	}

	matches := make([]Match, 0, len(notes))
	for _, note := range notes {
		if len(note.Embedding) != len(query) {
			continue
		}
		noteNorm := math.Sqrt(float64(vek32.Dot(note.Embedding, note.Embedding)))
		if noteNorm == 0 {
			continue
		}
		score := float64(vek32.Dot(query, note.Embedding)) / (queryNorm * noteNorm)
		if math.IsNaN(score) {
			continue
		}
		matches = append(matches, Match{NoteID: note.ID, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].NoteID < matches[j].NoteID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
