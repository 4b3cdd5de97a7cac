// Package mcp provides the MCP (Model Context Protocol) server for Cortex.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Benny93/cortex-go/internal/activation"
	"github.com/Benny93/cortex-go/internal/analytics"
	"github.com/Benny93/cortex-go/internal/embeddings"
	"github.com/Benny93/cortex-go/internal/extract"
	"github.com/Benny93/cortex-go/internal/reinforce"
	"github.com/Benny93/cortex-go/internal/store"
)

// Server represents the MCP server.
type Server struct {
	project   string
	store     store.GraphStore
	embedder  embeddings.Provider
	recall    *activation.Engine
	analytics *analytics.Engine
	reinforce *reinforce.Engine
	server    *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server over the given engines.
func NewServer(project string, s store.GraphStore, embedder embeddings.Provider, recallEngine *activation.Engine, analyticsEngine *analytics.Engine, reinforceEngine *reinforce.Engine) *Server {
	srv := &Server{
		project:   project,
		store:     s,
		embedder:  embedder,
		recall:    recallEngine,
		analytics: analyticsEngine,
		reinforce: reinforceEngine,
	}

	srv.server = mcp.NewServer(&mcp.Implementation{
		Name:    "cortex-go",
		Version: "0.1.0",
	}, nil)

	return srv
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "cortex_recall",
			Description: "Retrieve the most relevant knowledge notes for a query using spreading activation over the note graph.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {Type: "string", Description: "Free-text query"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "cortex_analyze",
			Description: "Run graph analytics (PageRank, betweenness, clustering, components, communities) over the project graph and persist the scores.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
		{
			Name:        "cortex_communities",
			Description: "List detected communities of the project graph with their members.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"limit": {Type: "integer", Description: "Maximum communities to list"},
				},
			},
		},
		{
			Name:        "cortex_stats",
			Description: "Show store and graph statistics for the project.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "cortex://overview",
			Name:        "Project Overview",
			Description: "High-level statistics about the project graph and notes",
			MimeType:    "text/plain",
		},
		{
			URI:         "cortex://health",
			Name:        "Graph Health Report",
			Description: "Structural health indicators computed from the latest analytics run",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "cortex_recall":
		query, _ := args["query"].(string)
		return s.handleRecall(ctx, query)
	case "cortex_analyze":
		return s.handleAnalyze(ctx)
	case "cortex_communities":
		limit, _ := args["limit"].(float64)
		if limit == 0 {
			limit = 10
		}
		return s.handleCommunities(ctx, int(limit))
	case "cortex_stats":
		return s.handleStats(ctx)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "cortex://overview":
		return s.handleStats(ctx)
	case "cortex://health":
		return s.handleHealth(ctx)
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	encoder := json.NewEncoder(stdout)
	// Note: Do NOT use SetIndent - MCP protocol requires compact JSON (one line per message)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]any{
				"name":    "cortex-go",
				"version": "0.1.0",
			},
			"capabilities": map[string]any{
				"tools": map[string]any{
					"listChanged": false,
				},
				"resources": map[string]any{
					"listChanged": false,
				},
			},
		},
	}
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"tools": toolList,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"resources": resourceList,
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"contents": []map[string]any{
				{
					"uri":      uri,
					"mimeType": "text/plain",
					"text":     content,
				},
			},
		},
	}
}

// Tool Handlers

func (s *Server) handleRecall(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "No query provided", nil
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	results, err := s.recall.Recall(ctx, embedding)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No notes activated for this query", nil
	}

	// Returned notes reinforce each other for future queries.
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.NoteID)
	}
	s.reinforce.OnSearch(ids)

	return s.formatRecallResults(ctx, results), nil
}

func (s *Server) handleAnalyze(ctx context.Context) (string, error) {
	extractor := extract.NewExtractor(s.store)
	g, err := extractor.ProjectGraph(ctx, s.project)
	if err != nil {
		return "", err
	}

	result, err := s.analytics.Analyze(ctx, g)
	if err != nil {
		return "", err
	}
	if err := extract.NewMetricsWriter(s.store).Write(ctx, s.project, result); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyzed %d nodes, %d edges in %s\n\n", result.NodeCount, result.EdgeCount, result.Duration.Round(0))
	fmt.Fprintf(&sb, "Communities: %d (modularity %.4f)\n", len(result.Communities), result.Modularity)
	fmt.Fprintf(&sb, "Components:  %d\n", len(result.Components))
	sb.WriteString(formatHealth(result))
	return sb.String(), nil
}

func (s *Server) handleCommunities(ctx context.Context, limit int) (string, error) {
	extractor := extract.NewExtractor(s.store)
	g, err := extractor.ProjectGraph(ctx, s.project)
	if err != nil {
		return "", err
	}
	result, err := s.analytics.Analyze(ctx, g)
	if err != nil {
		return "", err
	}
	if len(result.Communities) == 0 {
		return "No communities detected", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d communities (modularity %.4f):\n\n", len(result.Communities), result.Modularity)
	for i, comm := range result.Communities {
		if i >= limit {
			fmt.Fprintf(&sb, "... and %d more\n", len(result.Communities)-limit)
			break
		}
		fmt.Fprintf(&sb, "[%d] %s — %d members\n", comm.ID, comm.Label, len(comm.Members))
		for j, member := range comm.Members {
			if j >= 5 {
				fmt.Fprintf(&sb, "      ... and %d more\n", len(comm.Members)-5)
				break
			}
			fmt.Fprintf(&sb, "      %s\n", member)
		}
	}
	return sb.String(), nil
}

func (s *Server) handleStats(ctx context.Context) (string, error) {
	pg, err := s.store.FetchProjectGraph(ctx, s.project)
	if err != nil {
		return "", err
	}
	notes, err := s.store.ListNotes(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Project: %s\n", s.project)
	fmt.Fprintf(&sb, "Graph:   %d nodes, %d edges\n", len(pg.Nodes), len(pg.Edges))
	fmt.Fprintf(&sb, "Notes:   %d (embedding model %s, %d dims)\n", len(notes), s.embedder.ModelName(), s.embedder.Dimensions())

	alive := 0
	for _, note := range notes {
		if note.Energy >= activation.DefaultConfig().MinEnergy {
			alive++
		}
	}
	fmt.Fprintf(&sb, "Alive:   %d of %d notes above energy threshold\n", alive, len(notes))
	return sb.String(), nil
}

func (s *Server) handleHealth(ctx context.Context) (string, error) {
	extractor := extract.NewExtractor(s.store)
	g, err := extractor.ProjectGraph(ctx, s.project)
	if err != nil {
		return "", err
	}
	result, err := s.analytics.Analyze(ctx, g)
	if err != nil {
		return "", err
	}
	return formatHealth(result), nil
}

func (s *Server) formatRecallResults(ctx context.Context, results []activation.ActivatedNote) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Activated %d note(s):\n\n", len(results))
	for i, r := range results {
		title := r.NoteID
		if note, err := s.store.GetNote(ctx, r.NoteID); err == nil && note.Title != "" {
			title = note.Title
		}
		fmt.Fprintf(&sb, "%d. %s (score %.4f", i+1, title, r.Score)
		switch r.Source.Kind {
		case activation.SourceSeed:
			sb.WriteString(", seed)")
		case activation.SourceSpread:
			fmt.Fprintf(&sb, ", spread hop %d via %s)", r.Source.Hop, strings.Join(r.Source.Path, " -> "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatHealth(result *analytics.GraphAnalytics) string {
	h := result.Health
	var sb strings.Builder
	sb.WriteString("\nHealth report:\n")
	fmt.Fprintf(&sb, "  mean pagerank:        %.6f (stddev %.6f)\n", h.MeanPageRank, h.StddevPageRank)
	fmt.Fprintf(&sb, "  max betweenness:      %.4f (%s)\n", h.MaxBetweenness, h.MaxBetweennessNode)
	fmt.Fprintf(&sb, "  mean clustering:      %.4f\n", h.MeanClustering)
	fmt.Fprintf(&sb, "  isolated nodes:       %d\n", h.IsolatedNodes)
	fmt.Fprintf(&sb, "  largest component:    %.1f%% of nodes\n", h.LargestComponentRatio*100)
	return sb.String()
}

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}
