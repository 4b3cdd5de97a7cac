package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/cortex-go/internal/graph"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore(t.TempDir(), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerStore_ProjectGraphRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	nodes := []*graph.CodeNode{
		{ID: "function:a.go:Foo", Type: graph.NodeFunction, Name: "Foo", FilePath: "a.go"},
		{ID: "function:b.go:Bar", Type: graph.NodeFunction, Name: "Bar", FilePath: "b.go"},
	}
	edges := []*graph.CodeEdge{
		{
			ID:     graph.EdgeID(graph.EdgeCalls, nodes[0].ID, nodes[1].ID),
			Type:   graph.EdgeCalls,
			Source: nodes[0].ID,
			Target: nodes[1].ID,
		},
	}

	require.NoError(t, s.AddCodeNodes(ctx, "proj", nodes))
	require.NoError(t, s.AddCodeEdges(ctx, "proj", edges))

	pg, err := s.FetchProjectGraph(ctx, "proj")
	require.NoError(t, err)
	assert.Len(t, pg.Nodes, 2)
	assert.Len(t, pg.Edges, 1)
	assert.Equal(t, "Foo", pg.Nodes[0].Name)

	// Other projects are isolated.
	other, err := s.FetchProjectGraph(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other.Nodes)
	assert.Empty(t, other.Edges)
}

func TestBadgerStore_BatchWriteNodeMetrics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	updates := map[string]NodeMetricsUpdate{
		"n1": {PageRank: 0.6, Betweenness: 2.0, Clustering: 0.5, Community: 0, Component: 0},
		"n2": {PageRank: 0.4, Community: 1, Component: 1},
	}
	require.NoError(t, s.BatchWriteNodeMetrics(ctx, "proj", updates))

	m, err := s.GetNodeMetrics(ctx, "proj", "n1")
	require.NoError(t, err)
	assert.Equal(t, 0.6, m.PageRank)
	assert.Equal(t, 2.0, m.Betweenness)

	_, err = s.GetNodeMetrics(ctx, "proj", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerStore_NoteRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	note := &Note{
		ID:      "note-1",
		Title:   "Auth flow",
		Content: "Tokens are refreshed by the session manager.",
		Energy:  1.0,
		Files:   []string{"auth/session.go"},
	}
	require.NoError(t, s.PutNote(ctx, note))

	got, err := s.GetNote(ctx, "note-1")
	require.NoError(t, err)
	assert.Equal(t, "Auth flow", got.Title)
	assert.Equal(t, 1.0, got.Energy)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.GetNote(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	byFile, err := s.GetNotesByFile(ctx, "auth/session.go")
	require.NoError(t, err)
	require.Len(t, byFile, 1)
	assert.Equal(t, "note-1", byFile[0].ID)
}

func TestBadgerStore_ListNotesSorted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.PutNote(ctx, &Note{ID: id, Energy: 1.0}))
	}

	notes, err := s.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "a", notes[0].ID)
	assert.Equal(t, "c", notes[2].ID)
}

func TestBadgerStore_IncrementEnergy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.PutNote(ctx, &Note{ID: "n", Energy: 1.0}))

	require.NoError(t, s.IncrementEnergy(ctx, "n", 0.25))
	require.NoError(t, s.IncrementEnergy(ctx, "n", 0.25))

	note, err := s.GetNote(ctx, "n")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, note.Energy, 1e-9)

	assert.ErrorIs(t, s.IncrementEnergy(ctx, "missing", 0.1), ErrNotFound)
}

func TestBadgerStore_IncrementEnergyConcurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.PutNote(ctx, &Note{ID: "n", Energy: 0}))

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.IncrementEnergy(ctx, "n", 1.0))
		}()
	}
	wg.Wait()

	note, err := s.GetNote(ctx, "n")
	require.NoError(t, err)
	assert.InDelta(t, float64(workers), note.Energy, 1e-9)
}

func TestBadgerStore_Synapses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	t.Run("UpsertCreatesWhenAbsent", func(t *testing.T) {
		require.NoError(t, s.UpsertSynapse(ctx, "a", "b", 0.5))

		syn, err := s.GetSynapse(ctx, "a", "b")
		require.NoError(t, err)
		assert.Equal(t, 0.5, syn.Weight)
	})

	t.Run("UpsertAccumulates", func(t *testing.T) {
		require.NoError(t, s.UpsertSynapse(ctx, "a", "b", 0.5))

		syn, err := s.GetSynapse(ctx, "a", "b")
		require.NoError(t, err)
		assert.InDelta(t, 1.0, syn.Weight, 1e-9)
	})

	t.Run("DirectedPairs", func(t *testing.T) {
		_, err := s.GetSynapse(ctx, "b", "a")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("OutgoingAndIncoming", func(t *testing.T) {
		require.NoError(t, s.UpsertSynapse(ctx, "a", "c", 0.3))

		out, err := s.GetOutgoingSynapses(ctx, "a")
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "b", out[0].Target)
		assert.Equal(t, "c", out[1].Target)

		in, err := s.GetIncomingSynapses(ctx, "c")
		require.NoError(t, err)
		require.Len(t, in, 1)
		assert.Equal(t, "a", in[0].Source)
	})
}

func TestBadgerStore_FetchMalformedRecordFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	// A node without ID or type is malformed and must fail the fetch.
	require.NoError(t, s.AddCodeNodes(ctx, "proj", []*graph.CodeNode{{Name: "nameless"}}))

	_, err := s.FetchProjectGraph(ctx, "proj")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}
