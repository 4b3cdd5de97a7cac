package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/cortex-go/internal/activation"
	"github.com/Benny93/cortex-go/internal/analytics"
	"github.com/Benny93/cortex-go/internal/embeddings"
	"github.com/Benny93/cortex-go/internal/graph"
	"github.com/Benny93/cortex-go/internal/reinforce"
	"github.com/Benny93/cortex-go/internal/search"
	"github.com/Benny93/cortex-go/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	m := store.NewMemoryStore()
	embedder := embeddings.NewHashEmbedder()
	recallEngine := activation.NewEngine(m, search.NewStoreScan(m), activation.DefaultConfig())
	analyticsEngine := analytics.NewEngine(analytics.DefaultConfig())
	reinforceEngine := reinforce.NewEngine(m, reinforce.DefaultConfig(), slog.New(slog.DiscardHandler))
	return NewServer("proj", m, embedder, recallEngine, analyticsEngine, reinforceEngine), m
}

func seedNote(t *testing.T, m *store.MemoryStore, id, title, content string) {
	t.Helper()
	ctx := context.Background()
	embedding, err := embeddings.NewHashEmbedder().EmbedText(ctx, content)
	require.NoError(t, err)
	require.NoError(t, m.PutNote(ctx, &store.Note{
		ID:        id,
		Title:     title,
		Content:   content,
		Embedding: embedding,
		Energy:    1.0,
	}))
}

func seedGraph(t *testing.T, m *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	nodes := []*graph.CodeNode{
		{ID: "a", Type: graph.NodeFunction, Name: "a"},
		{ID: "b", Type: graph.NodeFunction, Name: "b"},
		{ID: "c", Type: graph.NodeFunction, Name: "c"},
	}
	require.NoError(t, m.AddCodeNodes(ctx, "proj", nodes))
	require.NoError(t, m.AddCodeEdges(ctx, "proj", []*graph.CodeEdge{
		{ID: "calls:a->b", Type: graph.EdgeCalls, Source: "a", Target: "b"},
		{ID: "calls:b->c", Type: graph.EdgeCalls, Source: "b", Target: "c"},
	}))
}

func TestListTools(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	tools := s.ListTools()
	require.Len(t, tools, 4)

	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	assert.Contains(t, names, "cortex_recall")
	assert.Contains(t, names, "cortex_analyze")
	assert.Contains(t, names, "cortex_communities")
	assert.Contains(t, names, "cortex_stats")
}

func TestCallTool_Recall(t *testing.T) {
	t.Parallel()
	s, m := newTestServer(t)
	seedNote(t, m, "n1", "Session tokens", "session token refresh flow")
	seedNote(t, m, "n2", "Color themes", "terminal color palette rendering")

	out, err := s.CallTool(context.Background(), "cortex_recall", map[string]any{
		"query": "session token refresh flow",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Session tokens")
	assert.Contains(t, out, "seed")
}

func TestCallTool_RecallReinforcesResults(t *testing.T) {
	t.Parallel()
	s, m := newTestServer(t)
	// Identical content embeds identically, so both notes activate.
	seedNote(t, m, "n1", "First", "shared topic text")
	seedNote(t, m, "n2", "Second", "shared topic text")

	_, err := s.CallTool(context.Background(), "cortex_recall", map[string]any{
		"query": "shared topic text",
	})
	require.NoError(t, err)
	s.reinforce.Wait()

	syn, err := m.GetSynapse(context.Background(), "n1", "n2")
	require.NoError(t, err)
	assert.InDelta(t, reinforce.DefaultConfig().SearchSynapseBoost, syn.Weight, 1e-9)
}

func TestCallTool_RecallEmptyQuery(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	out, err := s.CallTool(context.Background(), "cortex_recall", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "No query provided", out)
}

func TestCallTool_AnalyzePersistsMetrics(t *testing.T) {
	t.Parallel()
	s, m := newTestServer(t)
	seedGraph(t, m)

	out, err := s.CallTool(context.Background(), "cortex_analyze", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Analyzed 3 nodes")
	assert.Contains(t, out, "Health report")

	metrics, err := m.GetNodeMetrics(context.Background(), "proj", "b")
	require.NoError(t, err)
	assert.Greater(t, metrics.PageRank, 0.0)
}

func TestCallTool_Communities(t *testing.T) {
	t.Parallel()
	s, m := newTestServer(t)
	seedGraph(t, m)

	out, err := s.CallTool(context.Background(), "cortex_communities", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "communities")
}

func TestCallTool_Stats(t *testing.T) {
	t.Parallel()
	s, m := newTestServer(t)
	seedGraph(t, m)
	seedNote(t, m, "n1", "A note", "some content")

	out, err := s.CallTool(context.Background(), "cortex_stats", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Project: proj")
	assert.Contains(t, out, "3 nodes, 2 edges")
	assert.Contains(t, out, "Notes:   1")
}

func TestCallTool_Unknown(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	_, err := s.CallTool(context.Background(), "cortex_bogus", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestReadResource(t *testing.T) {
	t.Parallel()
	s, m := newTestServer(t)
	seedGraph(t, m)

	overview, err := s.ReadResource(context.Background(), "cortex://overview")
	require.NoError(t, err)
	assert.Contains(t, overview, "Project: proj")

	health, err := s.ReadResource(context.Background(), "cortex://health")
	require.NoError(t, err)
	assert.Contains(t, health, "Health report")

	_, err = s.ReadResource(context.Background(), "cortex://nope")
	require.Error(t, err)
}

func TestRun_JSONRPCRoundTrip(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	requests := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"nope"}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	err := s.Run(context.Background(), strings.NewReader(requests), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var initResp map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &initResp))
	result := initResp["result"].(map[string]any)
	info := result["serverInfo"].(map[string]any)
	assert.Equal(t, "cortex-go", info["name"])

	var listResp map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &listResp))
	tools := listResp["result"].(map[string]any)["tools"].([]any)
	assert.Len(t, tools, 4)

	var errResp map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &errResp))
	assert.NotNil(t, errResp["error"])
}
