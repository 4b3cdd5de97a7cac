// Package reinforce implements Hebbian-style usage learning: fire-and-forget
// hooks that nudge note energies and synapse weights after search, commit,
// and context events.
package reinforce

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Benny93/cortex-go/internal/store"
)

// Engine applies reinforcement updates in detached background tasks. Hook
// failures are logged and swallowed; they never propagate to, delay, or fail
// the triggering request.
type Engine struct {
	store store.GraphStore
	cfg   Config
	log   *slog.Logger
	wg    sync.WaitGroup
}

// NewEngine creates a reinforcement engine. A nil logger falls back to
// slog.Default().
func NewEngine(s store.GraphStore, cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: s, cfg: cfg, log: log}
}

// OnSearch reinforces a set of co-returned note IDs: each note gets an energy
// boost, and every ordered pair gets a synapse weight boost. Returns
// immediately; the updates run in the background.
func (e *Engine) OnSearch(noteIDs []string) {
	if !e.cfg.Enabled || len(noteIDs) == 0 {
		return
	}
	ids := append([]string(nil), noteIDs...)
	e.dispatch("search", func(ctx context.Context) {
		for _, id := range ids {
			if err := e.store.IncrementEnergy(ctx, id, e.cfg.SearchEnergyBoost); err != nil {
				e.log.Warn("search energy boost failed", "note", id, "error", err)
			}
		}
		for _, source := range ids {
			for _, target := range ids {
				if source == target {
					continue
				}
				if err := e.store.UpsertSynapse(ctx, source, target, e.cfg.SearchSynapseBoost); err != nil {
					e.log.Warn("search synapse boost failed", "source", source, "target", target, "error", err)
				}
			}
		}
	})
}

// OnCommit reinforces notes linked to files touched by a commit. repoPath is
// the repository root; rev is any revision go-git can resolve.
func (e *Engine) OnCommit(repoPath, rev string) {
	if !e.cfg.Enabled {
		return
	}
	e.dispatch("commit", func(ctx context.Context) {
		files, err := changedFiles(repoPath, rev)
		if err != nil {
			e.log.Warn("commit diff failed", "repo", repoPath, "rev", rev, "error", err)
			return
		}
		e.boostNotesForFiles(ctx, files)
	})
}

// OnContext reinforces notes that were assembled into a context window.
func (e *Engine) OnContext(noteIDs []string) {
	if !e.cfg.Enabled || len(noteIDs) == 0 {
		return
	}
	ids := append([]string(nil), noteIDs...)
	e.dispatch("context", func(ctx context.Context) {
		for _, id := range ids {
			if err := e.store.IncrementEnergy(ctx, id, e.cfg.ContextEnergyBoost); err != nil {
				e.log.Warn("context energy boost failed", "note", id, "error", err)
			}
		}
	})
}

// Wait blocks until all dispatched hooks have finished. Used on shutdown and
// in tests; request paths never call it.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// dispatch runs fn as a detached task. The task uses context.Background():
// a caller abandoning its request must not cancel reinforcement already
// in flight.
func (e *Engine) dispatch(event string, fn func(ctx context.Context)) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("reinforcement hook panicked", "event", event, "panic", r)
			}
		}()
		fn(context.Background())
	}()
}

func (e *Engine) boostNotesForFiles(ctx context.Context, files []string) {
	boosted := make(map[string]bool)
	for _, file := range files {
		notes, err := e.store.GetNotesByFile(ctx, file)
		if err != nil {
			e.log.Warn("commit note lookup failed", "file", file, "error", err)
			continue
		}
		for _, note := range notes {
			if boosted[note.ID] {
				continue
			}
			boosted[note.ID] = true
			if err := e.store.IncrementEnergy(ctx, note.ID, e.cfg.CommitEnergyBoost); err != nil {
				e.log.Warn("commit energy boost failed", "note", note.ID, "error", err)
			}
		}
	}
}
