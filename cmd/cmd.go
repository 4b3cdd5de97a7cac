// Package cmd provides CLI command implementations for Cortex.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/Benny93/cortex-go/internal/activation"
	"github.com/Benny93/cortex-go/internal/analytics"
	"github.com/Benny93/cortex-go/internal/config"
	"github.com/Benny93/cortex-go/internal/embeddings"
	"github.com/Benny93/cortex-go/internal/extract"
	"github.com/Benny93/cortex-go/internal/notes"
	"github.com/Benny93/cortex-go/internal/reinforce"
	"github.com/Benny93/cortex-go/internal/search"
	"github.com/Benny93/cortex-go/internal/store"
	"github.com/Benny93/cortex-go/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ImportCmd imports markdown notes into the knowledge store.
type ImportCmd struct {
	Path string `arg:"" optional:"" default:"" help:"Notes directory (defaults to the configured notes_dir)"`
}

// Run executes the import command.
func (c *ImportCmd) Run() error {
	ctx := context.Background()
	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.close()

	dir := c.Path
	if dir == "" {
		dir = env.cfg.NotesDir
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("accessing %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	color.Green("Importing notes from %s", dir)

	importer := notes.NewImporter(env.store, env.embedder)
	count, err := importer.ImportDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("importing notes: %w", err)
	}

	color.Green("\n✓ Import complete")
	fmt.Printf("  Notes:  %d\n", count)
	fmt.Printf("  Model:  %s (%d dims)\n", env.embedder.ModelName(), env.embedder.Dimensions())
	return nil
}

// RecallCmd retrieves the most relevant notes for a query.
type RecallCmd struct {
	Query string `arg:"" help:"Free-text query"`
	Limit int    `short:"n" default:"0" help:"Maximum results (0 uses the configured value)"`
}

// Run executes the recall command.
func (c *RecallCmd) Run() error {
	ctx := context.Background()
	env, err := openEnv(true)
	if err != nil {
		return err
	}
	defer env.close()

	recallCfg := env.cfg.Recall
	if c.Limit > 0 {
		recallCfg.MaxResults = c.Limit
	}
	engine := activation.NewEngine(env.store, search.NewStoreScan(env.store), recallCfg)

	embedding, err := env.embedder.EmbedText(ctx, c.Query)
	if err != nil {
		return fmt.Errorf("embedding query: %w", err)
	}
	results, err := engine.Recall(ctx, embedding)
	if err != nil {
		return fmt.Errorf("recall: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No notes activated")
		return nil
	}

	for i, r := range results {
		title := r.NoteID
		if note, err := env.store.GetNote(ctx, r.NoteID); err == nil && note.Title != "" {
			title = note.Title
		}
		fmt.Printf("\n%d. %s\n", i+1, title)
		fmt.Printf("   Score: %.4f\n", r.Score)
		if r.Source.Kind == activation.SourceSpread {
			fmt.Printf("   Via:   %s (hop %d)\n", strings.Join(r.Source.Path, " -> "), r.Source.Hop)
		}
	}

	// Returned notes reinforce each other; wait so the process exit does
	// not drop the updates.
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.NoteID)
	}
	env.reinforce.OnSearch(ids)
	env.reinforce.Wait()
	return nil
}

// AnalyzeCmd runs graph analytics and persists the scores.
type AnalyzeCmd struct{}

// Run executes the analyze command.
func (c *AnalyzeCmd) Run() error {
	ctx := context.Background()
	env, err := openEnv(true)
	if err != nil {
		return err
	}
	defer env.close()

	g, err := extract.NewExtractor(env.store).ProjectGraph(ctx, env.cfg.Project)
	if err != nil {
		return fmt.Errorf("extracting graph: %w", err)
	}

	engine := analytics.NewEngine(env.cfg.Analytics)
	result, err := engine.Analyze(ctx, g)
	if err != nil {
		return fmt.Errorf("analyzing graph: %w", err)
	}
	if err := extract.NewMetricsWriter(env.store).Write(ctx, env.cfg.Project, result); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}

	color.Green("✓ Analysis complete")
	fmt.Printf("  Nodes:        %d\n", result.NodeCount)
	fmt.Printf("  Edges:        %d\n", result.EdgeCount)
	fmt.Printf("  Communities:  %d (modularity %.4f)\n", len(result.Communities), result.Modularity)
	fmt.Printf("  Components:   %d\n", len(result.Components))
	fmt.Printf("  Duration:     %s\n", result.Duration)
	return nil
}

// CommunitiesCmd lists detected communities.
type CommunitiesCmd struct {
	Limit int `short:"n" default:"10" help:"Maximum communities to show"`
}

// Run executes the communities command.
func (c *CommunitiesCmd) Run() error {
	ctx := context.Background()
	env, err := openEnv(true)
	if err != nil {
		return err
	}
	defer env.close()

	g, err := extract.NewExtractor(env.store).ProjectGraph(ctx, env.cfg.Project)
	if err != nil {
		return fmt.Errorf("extracting graph: %w", err)
	}
	result, err := analytics.NewEngine(env.cfg.Analytics).Analyze(ctx, g)
	if err != nil {
		return fmt.Errorf("analyzing graph: %w", err)
	}

	if len(result.Communities) == 0 {
		fmt.Println("No communities detected")
		return nil
	}

	fmt.Printf("%d communities (modularity %.4f)\n", len(result.Communities), result.Modularity)
	for i, comm := range result.Communities {
		if i >= c.Limit {
			fmt.Printf("\n... and %d more\n", len(result.Communities)-c.Limit)
			break
		}
		fmt.Printf("\n[%d] %s\n", comm.ID, comm.Label)
		for j, member := range comm.Members {
			if j >= 8 {
				fmt.Printf("    ... and %d more\n", len(comm.Members)-8)
				break
			}
			fmt.Printf("    %s\n", member)
		}
	}
	return nil
}

// CommitCmd reinforces notes linked to files touched by a commit.
type CommitCmd struct {
	Rev string `arg:"" optional:"" default:"HEAD" help:"Commit revision"`
}

// Run executes the commit command.
func (c *CommitCmd) Run() error {
	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.close()

	repoPath, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	env.reinforce.OnCommit(repoPath, c.Rev)
	env.reinforce.Wait()

	color.Green("✓ Reinforced notes for commit %s", c.Rev)
	return nil
}

// StatsCmd shows store and graph statistics.
type StatsCmd struct{}

// Run executes the stats command.
func (c *StatsCmd) Run() error {
	ctx := context.Background()
	env, err := openEnv(true)
	if err != nil {
		return err
	}
	defer env.close()

	pg, err := env.store.FetchProjectGraph(ctx, env.cfg.Project)
	if err != nil {
		return fmt.Errorf("fetching graph: %w", err)
	}
	allNotes, err := env.store.ListNotes(ctx)
	if err != nil {
		return fmt.Errorf("listing notes: %w", err)
	}

	alive := 0
	for _, note := range allNotes {
		if note.Energy >= env.cfg.Recall.MinEnergy {
			alive++
		}
	}

	fmt.Printf("Project: %s\n", env.cfg.Project)
	fmt.Printf("  Graph:  %d nodes, %d edges\n", len(pg.Nodes), len(pg.Edges))
	fmt.Printf("  Notes:  %d (%d above energy threshold)\n", len(allNotes), alive)
	fmt.Printf("  Model:  %s (%d dims)\n", env.embedder.ModelName(), env.embedder.Dimensions())
	return nil
}

// WatchCmd watches the notes directory and re-imports changes.
type WatchCmd struct {
	Path string `arg:"" optional:"" default:"" help:"Notes directory (defaults to the configured notes_dir)"`
}

// Run executes the watch command.
func (c *WatchCmd) Run() error {
	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.close()

	dir := c.Path
	if dir == "" {
		dir = env.cfg.NotesDir
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-osSignalChannel()
		fmt.Println("\nStopping watch mode...")
		cancel()
	}()

	importer := notes.NewImporter(env.store, env.embedder)
	err = notes.Watch(ctx, dir, importer, env.log)
	if err != nil && err != context.Canceled {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Println("Watch mode stopped.")
	return nil
}

// MCPCmd starts the MCP server.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run() error {
	ctx := context.Background()
	env, err := openEnv(false)
	if err != nil {
		return err
	}
	defer env.close()

	recallEngine := activation.NewEngine(env.store, search.NewStoreScan(env.store), env.cfg.Recall)
	analyticsEngine := analytics.NewEngine(env.cfg.Analytics)
	server := mcp.NewServer(env.cfg.Project, env.store, env.embedder, recallEngine, analyticsEngine, env.reinforce)

	// Note: No output to stdout besides JSON-RPC; MCP uses stdio framing
	return server.Run(ctx, os.Stdin, os.Stdout)
}

// CleanCmd deletes the store for the current project.
type CleanCmd struct {
	Force bool `short:"f" help:"Skip confirmation"`
}

// Run executes the clean command.
func (c *CleanCmd) Run() error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cortexDir := filepath.Join(root, config.DefaultDir)
	if _, err := os.Stat(cortexDir); os.IsNotExist(err) {
		return fmt.Errorf("no store found at %s. Nothing to clean", root)
	}

	if !c.Force {
		fmt.Printf("Delete store at %s? [y/N] ", cortexDir)
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	if err := os.RemoveAll(cortexDir); err != nil {
		return fmt.Errorf("deleting store: %w", err)
	}

	color.Green("Deleted %s", cortexDir)
	return nil
}

// env bundles the collaborators every command needs.
type env struct {
	cfg       config.Config
	store     store.GraphStore
	embedder  embeddings.Provider
	reinforce *reinforce.Engine
	log       *slog.Logger
}

func (e *env) close() {
	e.reinforce.Wait()
	_ = e.store.Close()
}

// openEnv loads the config and opens the store. When requireData is set, a
// missing store directory is an error instead of being created.
func openEnv(requireData bool) (*env, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	dataDir := config.DataDir(root)
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		if requireData {
			return nil, fmt.Errorf("no store found at %s. Run 'cortex import' first", root)
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	badger, err := store.OpenBadgerStore(dataDir, false)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	embedder, err := embeddings.NewCachedProvider(embeddings.NewHashEmbedder(), 1024)
	if err != nil {
		_ = badger.Close()
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return &env{
		cfg:       cfg,
		store:     badger,
		embedder:  embedder,
		reinforce: reinforce.NewEngine(badger, cfg.Reinforcement, log),
		log:       log,
	}, nil
}

// osSignalChannel returns a channel that receives OS signals for graceful shutdown.
func osSignalChannel() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

// CLI is the root Kong command structure.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`
	Verbose bool             `short:"v" help:"Enable verbose output"`
	Quiet   bool             `short:"q" help:"Suppress non-essential output"`

	// Commands
	Import      ImportCmd      `cmd:"" help:"Import markdown notes into the knowledge store"`
	Recall      RecallCmd      `cmd:"" help:"Retrieve the most relevant notes for a query"`
	Analyze     AnalyzeCmd     `cmd:"" help:"Run graph analytics and persist node metrics"`
	Communities CommunitiesCmd `cmd:"" help:"List detected communities"`
	Commit      CommitCmd      `cmd:"" help:"Reinforce notes linked to a commit's files"`
	Stats       StatsCmd       `cmd:"" help:"Show store and graph statistics"`
	Watch       WatchCmd       `cmd:"" help:"Watch the notes directory and re-import changes"`
	MCP         MCPCmd         `cmd:"" help:"Start MCP server (stdio transport)"`
	Clean       CleanCmd       `cmd:"" help:"Delete the store for this project"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	kongCtx := kong.Parse(c,
		kong.Name("cortex"),
		kong.Description("Spreading-activation knowledge engine with graph analytics"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	return kongCtx.Run()
}
