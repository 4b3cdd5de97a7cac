package activation

import (
	"context"
	"errors"
	"sort"

	"github.com/Benny93/cortex-go/internal/search"
	"github.com/Benny93/cortex-go/internal/store"
)

// Engine runs spreading-activation queries. It holds no mutable state; every
// Recall call builds its own working set, so queries run fully concurrently.
type Engine struct {
	store  store.GraphStore
	search search.VectorSearch
	cfg    Config
}

// NewEngine creates an activation engine over the given collaborators.
func NewEngine(s store.GraphStore, vs search.VectorSearch, cfg Config) *Engine {
	return &Engine{store: s, search: vs, cfg: cfg.withDefaults()}
}

// state tracks one note's best activation during a query.
type state struct {
	score  float64
	source ActivationSource
}

// frontierEntry is a node queued for expansion at the next hop.
type frontierEntry struct {
	id    string
	score float64
	path  []string
}

// Recall runs the three-phase query: seed from vector similarity, spread
// through synapses, rank the merged activations. The returned order is
// deterministic: descending score, ties broken by ascending note ID.
func (e *Engine) Recall(ctx context.Context, query []float32) ([]ActivatedNote, error) {
	notes := newNoteCache(e.store)

	// Phase 1: seed.
	matches, err := e.search.TopKSimilar(ctx, query, e.cfg.InitialK)
	if err != nil {
		return nil, &RetrievalError{Phase: "seed", Err: err}
	}

	activations := make(map[string]*state)
	frontier := make([]frontierEntry, 0, len(matches))
	for _, match := range matches {
		note, err := notes.get(ctx, match.NoteID)
		if err != nil {
			return nil, &RetrievalError{Phase: "seed", Err: err}
		}
		if note == nil || note.Energy < e.cfg.MinEnergy {
			continue // dead or dangling neuron, never activates
		}
		activations[match.NoteID] = &state{
			score:  match.Score,
			source: ActivationSource{Kind: SourceSeed},
		}
		frontier = append(frontier, frontierEntry{
			id:    match.NoteID,
			score: match.Score,
			path:  []string{match.NoteID},
		})
	}

	// Phase 2: spread.
	for hop := 1; hop <= e.cfg.MaxHops && len(frontier) > 0; hop++ {
		sort.Slice(frontier, func(i, j int) bool { return frontier[i].id < frontier[j].id })

		var next []frontierEntry
		for _, parent := range frontier {
			synapses, err := e.neighborSynapses(ctx, parent.id)
			if err != nil {
				return nil, &RetrievalError{Phase: "spread", Err: err}
			}
			for _, syn := range synapses {
				neighborID := syn.Target
				if neighborID == parent.id {
					continue
				}
				neighbor, err := notes.get(ctx, neighborID)
				if err != nil {
					return nil, &RetrievalError{Phase: "spread", Err: err}
				}
				if neighbor == nil || neighbor.Energy < e.cfg.MinEnergy {
					continue
				}

				score := parent.score * syn.Weight * neighbor.Energy * e.cfg.DecayPerHop
				if score <= 0 {
					continue
				}

				// Max-over-paths merge; nodes already holding an equal or
				// higher score are not re-expanded.
				current, seen := activations[neighborID]
				if seen && score <= current.score {
					continue
				}
				path := append(append([]string(nil), parent.path...), neighborID)
				activations[neighborID] = &state{
					score:  score,
					source: ActivationSource{Kind: SourceSpread, Hop: hop, Path: path},
				}
				if seen && current.source.Kind == SourceSeed {
					// A seed keeps its provenance even when a spread path
					// raises its score.
					activations[neighborID].source = current.source
				}
				next = append(next, frontierEntry{id: neighborID, score: score, path: path})
			}
		}
		frontier = next
	}

	// Phase 3: rank.
	results := make([]ActivatedNote, 0, len(activations))
	for id, st := range activations {
		if st.score < e.cfg.MinActivation {
			continue
		}
		results = append(results, ActivatedNote{NoteID: id, Score: st.score, Source: st.source})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].NoteID < results[j].NoteID
	})
	if len(results) > e.cfg.MaxResults {
		results = results[:e.cfg.MaxResults]
	}
	return results, nil
}

// neighborSynapses returns the synapses to expand from a node, outgoing only
// by default, plus reversed incoming ones when Bidirectional is set.
func (e *Engine) neighborSynapses(ctx context.Context, noteID string) ([]store.Synapse, error) {
	out, err := e.store.GetOutgoingSynapses(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if !e.cfg.Bidirectional {
		return out, nil
	}
	in, err := e.store.GetIncomingSynapses(ctx, noteID)
	if err != nil {
		return nil, err
	}
	for _, syn := range in {
		out = append(out, store.Synapse{Source: noteID, Target: syn.Source, Weight: syn.Weight})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out, nil
}

// noteCache memoizes note reads within one query so spreading does not
// re-fetch shared neighbors. Missing notes cache as nil.
type noteCache struct {
	store store.GraphStore
	notes map[string]*store.Note
}

func newNoteCache(s store.GraphStore) *noteCache {
	return &noteCache{store: s, notes: make(map[string]*store.Note)}
}

func (c *noteCache) get(ctx context.Context, noteID string) (*store.Note, error) {
	if note, ok := c.notes[noteID]; ok {
		return note, nil
	}
	note, err := c.store.GetNote(ctx, noteID)
	if errors.Is(err, store.ErrNotFound) {
		c.notes[noteID] = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.notes[noteID] = note
	return note, nil
}
