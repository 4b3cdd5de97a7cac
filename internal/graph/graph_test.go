package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCodeGraph(t *testing.T) {
	t.Parallel()

	g := NewCodeGraph()

	assert.NotNil(t, g)
	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestCodeGraph_AddNode(t *testing.T) {
	t.Parallel()

	t.Run("AddSingle", func(t *testing.T) {
		t.Parallel()
		g := NewCodeGraph()
		node := &CodeNode{
			ID:       "function:svc/api.go:Handle",
			Type:     NodeFunction,
			Name:     "Handle",
			FilePath: "svc/api.go",
		}

		g.AddNode(node)

		assert.Equal(t, 1, g.NodeCount())
		assert.Equal(t, node, g.GetNode("function:svc/api.go:Handle"))
	})

	t.Run("ReplaceExisting", func(t *testing.T) {
		t.Parallel()
		g := NewCodeGraph()

		g.AddNode(&CodeNode{ID: "id1", Type: NodeFunction, Name: "foo"})
		g.AddNode(&CodeNode{ID: "id1", Type: NodeClass, Name: "Foo"})

		assert.Equal(t, 1, g.NodeCount())
		assert.Equal(t, NodeClass, g.GetNode("id1").Type)
	})

	t.Run("MissingNodeIsNil", func(t *testing.T) {
		t.Parallel()
		g := NewCodeGraph()

		assert.Nil(t, g.GetNode("nope"))
		assert.False(t, g.HasNode("nope"))
	})
}

func TestCodeGraph_AddEdge(t *testing.T) {
	t.Parallel()

	t.Run("AdjacencyIndexes", func(t *testing.T) {
		t.Parallel()
		g := NewCodeGraph()
		g.AddNode(&CodeNode{ID: "a", Type: NodeFunction})
		g.AddNode(&CodeNode{ID: "b", Type: NodeFunction})

		g.AddEdge(&CodeEdge{ID: EdgeID(EdgeCalls, "a", "b"), Type: EdgeCalls, Source: "a", Target: "b"})

		out := g.Outgoing("a")
		assert.Len(t, out, 1)
		assert.Equal(t, "b", out[0].Target)

		in := g.Incoming("b")
		assert.Len(t, in, 1)
		assert.Equal(t, "a", in[0].Source)

		assert.Empty(t, g.Outgoing("b"))
		assert.Empty(t, g.Incoming("a"))
	})

	t.Run("ReplaceReindexes", func(t *testing.T) {
		t.Parallel()
		g := NewCodeGraph()

		g.AddEdge(&CodeEdge{ID: "e1", Type: EdgeCalls, Source: "a", Target: "b"})
		g.AddEdge(&CodeEdge{ID: "e1", Type: EdgeCalls, Source: "a", Target: "c"})

		assert.Equal(t, 1, g.EdgeCount())
		assert.Empty(t, g.Incoming("b"))
		assert.Len(t, g.Incoming("c"), 1)
	})
}

func TestCodeGraph_DeterministicOrdering(t *testing.T) {
	t.Parallel()

	g := NewCodeGraph()
	g.AddNode(&CodeNode{ID: "c"})
	g.AddNode(&CodeNode{ID: "a"})
	g.AddNode(&CodeNode{ID: "b"})

	assert.Equal(t, []string{"a", "b", "c"}, g.NodeIDs())

	nodes := g.Nodes()
	assert.Equal(t, "a", nodes[0].ID)
	assert.Equal(t, "c", nodes[2].ID)
}

func TestCodeEdge_EffectiveWeight(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, (&CodeEdge{}).EffectiveWeight())
	assert.Equal(t, 2.5, (&CodeEdge{Weight: 2.5}).EffectiveWeight())
}

func TestNodeID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "file:pkg/a.go", NodeID(NodeFile, "pkg/a.go", ""))
	assert.Equal(t, "function:pkg/a.go:Run", NodeID(NodeFunction, "pkg/a.go", "Run"))
}
