// Package graph provides the knowledge graph data model for Cortex.
//
// It defines the code-level node and edge types that make up an extracted
// project graph (files, functions, classes and the calls/imports/contains
// edges between them).
package graph

// CodeNodeType represents the type of a code graph node.
type CodeNodeType string

const (
	NodeFile      CodeNodeType = "file"
	NodeFolder    CodeNodeType = "folder"
	NodeFunction  CodeNodeType = "function"
	NodeClass     CodeNodeType = "class"
	NodeMethod    CodeNodeType = "method"
	NodeInterface CodeNodeType = "interface"
	NodeModule    CodeNodeType = "module"
	NodeNote      CodeNodeType = "note"
)

// CodeEdgeType represents the type of a directed edge between code nodes.
type CodeEdgeType string

const (
	EdgeCalls      CodeEdgeType = "calls"
	EdgeImports    CodeEdgeType = "imports"
	EdgeContains   CodeEdgeType = "contains"
	EdgeDefines    CodeEdgeType = "defines"
	EdgeExtends    CodeEdgeType = "extends"
	EdgeImplements CodeEdgeType = "implements"
	EdgeReferences CodeEdgeType = "references"
)

// CodeNode represents a node in an extracted project graph.
type CodeNode struct {
	// ID is the unique identifier for the node.
	// Format: {type}:{file_path}:{symbol_name}
	ID string

	// Type is the kind of entity the node represents.
	Type CodeNodeType

	// Name is the name of the entity (e.g., function name, class name).
	Name string

	// FilePath is the path to the file containing this entity.
	FilePath string

	// Properties holds additional metadata.
	Properties map[string]any
}

// CodeEdge represents a directed, typed edge in an extracted project graph.
type CodeEdge struct {
	// ID is the unique identifier for the edge.
	ID string

	// Type is the type of the edge.
	Type CodeEdgeType

	// Source is the ID of the source node.
	Source string

	// Target is the ID of the target node.
	Target string

	// Label is a free-form annotation on the edge.
	Label string

	// Weight is the edge weight used by analytics. Zero means unweighted;
	// algorithms treat it as 1.0.
	Weight float64
}

// EffectiveWeight returns the edge weight, defaulting to 1.0 when unset.
func (e *CodeEdge) EffectiveWeight() float64 {
	if e.Weight <= 0 {
		return 1.0
	}
	return e.Weight
}

// NodeID creates a deterministic node ID from type, file path, and symbol name.
// Format: {type}:{file_path}:{symbol_name}
func NodeID(t CodeNodeType, filePath, symbolName string) string {
	if symbolName == "" {
		return string(t) + ":" + filePath
	}
	return string(t) + ":" + filePath + ":" + symbolName
}

// EdgeID creates a deterministic edge ID from type, source, and target.
func EdgeID(t CodeEdgeType, source, target string) string {
	return string(t) + ":" + source + "->" + target
}
