// Package notes imports markdown knowledge notes into the store and keeps
// them fresh while a notes directory is being watched.
package notes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Benny93/cortex-go/internal/embeddings"
	"github.com/Benny93/cortex-go/internal/store"
)

// linkWeight is the initial synapse weight for a wiki link between notes.
const linkWeight = 1.0

// initialEnergy is the energy assigned to newly imported notes.
const initialEnergy = 1.0

var wikiLinkPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// frontmatter is the optional YAML header of a note file.
type frontmatter struct {
	Title string   `yaml:"title"`
	Files []string `yaml:"files"`
}

// Importer converts markdown files into stored notes with embeddings and
// wiki-link synapses.
type Importer struct {
	store    store.GraphStore
	embedder embeddings.Provider
}

// NewImporter creates an Importer over the given collaborators.
func NewImporter(s store.GraphStore, e embeddings.Provider) *Importer {
	return &Importer{store: s, embedder: e}
}

// FileNoteID derives the deterministic note ID for a markdown file, so
// re-importing the same file updates its note in place.
func FileNoteID(relPath string) string {
	slug := strings.TrimSuffix(filepath.ToSlash(relPath), filepath.Ext(relPath))
	return "note:" + slug
}

// linkNoteID derives the note ID a wiki link points at. Links address notes
// by their path-derived slug, extension optional.
func linkNoteID(target string) string {
	return FileNoteID(strings.TrimSpace(target))
}

// ImportFile imports one markdown file rooted at dir. Existing notes keep
// their energy and creation time; content, title, files, and embedding are
// replaced. Wiki links create synapses with linkWeight when absent.
func (i *Importer) ImportFile(ctx context.Context, dir, relPath string) (*store.Note, error) {
	raw, err := os.ReadFile(filepath.Join(dir, relPath))
	if err != nil {
		return nil, fmt.Errorf("read note %s: %w", relPath, err)
	}

	meta, body, err := splitFrontmatter(raw)
	if err != nil {
		return nil, fmt.Errorf("parse note %s: %w", relPath, err)
	}

	title := meta.Title
	if title == "" {
		title = titleFromBody(body)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	}

	content := strings.TrimSpace(string(body))
	embedding, err := i.embedder.EmbedText(ctx, title+"\n"+content)
	if err != nil {
		return nil, fmt.Errorf("embed note %s: %w", relPath, err)
	}

	note := &store.Note{
		ID:        FileNoteID(relPath),
		Title:     title,
		Content:   content,
		Embedding: embedding,
		Energy:    initialEnergy,
		Files:     meta.Files,
	}
	if existing, err := i.store.GetNote(ctx, note.ID); err == nil {
		note.Energy = existing.Energy
		note.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load existing note %s: %w", note.ID, err)
	}
	if err := i.store.PutNote(ctx, note); err != nil {
		return nil, fmt.Errorf("store note %s: %w", note.ID, err)
	}

	if err := i.linkWikiTargets(ctx, note.ID, content); err != nil {
		return nil, err
	}
	return note, nil
}

// ImportDir imports every .md file under dir and returns how many notes were
// written.
func (i *Importer) ImportDir(ctx context.Context, dir string) (int, error) {
	var relPaths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			relPaths = append(relPaths, rel)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk notes dir %s: %w", dir, err)
	}

	count := 0
	for _, relPath := range relPaths {
		if _, err := i.ImportFile(ctx, dir, relPath); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// AddNote stores an ad-hoc note that has no backing file. It gets a random
// ID and the initial energy.
func (i *Importer) AddNote(ctx context.Context, title, content string, files []string) (*store.Note, error) {
	embedding, err := i.embedder.EmbedText(ctx, title+"\n"+content)
	if err != nil {
		return nil, fmt.Errorf("embed note %q: %w", title, err)
	}
	note := &store.Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Embedding: embedding,
		Energy:    initialEnergy,
		Files:     files,
	}
	if err := i.store.PutNote(ctx, note); err != nil {
		return nil, fmt.Errorf("store note %q: %w", title, err)
	}
	if err := i.linkWikiTargets(ctx, note.ID, content); err != nil {
		return nil, err
	}
	return note, nil
}

// linkWikiTargets creates a synapse for each [[wiki link]] in the content.
// Existing synapses keep their learned weight.
func (i *Importer) linkWikiTargets(ctx context.Context, sourceID, content string) error {
	for _, match := range wikiLinkPattern.FindAllStringSubmatch(content, -1) {
		targetID := linkNoteID(match[1])
		if targetID == sourceID {
			continue
		}
		_, err := i.store.GetSynapse(ctx, sourceID, targetID)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("check synapse %s->%s: %w", sourceID, targetID, err)
		}
		if err := i.store.UpsertSynapse(ctx, sourceID, targetID, linkWeight); err != nil {
			return fmt.Errorf("link %s->%s: %w", sourceID, targetID, err)
		}
	}
	return nil
}

// splitFrontmatter separates an optional leading YAML block delimited by
// "---" lines from the markdown body.
func splitFrontmatter(raw []byte) (frontmatter, []byte, error) {
	var meta frontmatter
	trimmed := bytes.TrimLeft(raw, "\xef\xbb\xbf")
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return meta, raw, nil
	}
	rest := trimmed[4:]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return meta, raw, nil
	}
	if err := yaml.Unmarshal(rest[:end], &meta); err != nil {
		return meta, nil, fmt.Errorf("frontmatter: %w", err)
	}
	body := rest[end+4:]
	body = bytes.TrimPrefix(body, []byte("\n"))
	return meta, body, nil
}

// titleFromBody returns the first "# " heading, if any.
func titleFromBody(body []byte) string {
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
