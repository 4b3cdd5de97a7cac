package notes

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow batches rapid-fire editor events into one import pass.
const debounceWindow = 2 * time.Second

// Watch monitors a notes directory and re-imports changed markdown files.
// Blocks until the context is cancelled.
func Watch(ctx context.Context, dir string, importer *Importer, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory tree; fsnotify is not recursive by itself.
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		return fmt.Errorf("set up watcher for %s: %w", dir, err)
	}

	changed := make(map[string]bool)
	debounce := time.NewTimer(debounceWindow)
	debounce.Stop()

	log.Info("watching notes", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			// New subdirectories need their own watch.
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if !strings.HasPrefix(filepath.Base(event.Name), ".") {
					_ = watcher.Add(event.Name)
				}
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
				continue
			}
			relPath, err := filepath.Rel(dir, event.Name)
			if err != nil {
				continue
			}
			changed[relPath] = true
			debounce.Reset(debounceWindow)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)

		case <-debounce.C:
			for relPath := range changed {
				if _, err := os.Stat(filepath.Join(dir, relPath)); os.IsNotExist(err) {
					// Deleted notes stay in the store; retrieval can
					// still surface them until re-imported elsewhere.
					continue
				}
				if _, err := importer.ImportFile(ctx, dir, relPath); err != nil {
					log.Warn("re-import failed", "note", relPath, "error", err)
					continue
				}
				log.Info("re-imported note", "note", relPath)
			}
			changed = make(map[string]bool)
		}
	}
}
