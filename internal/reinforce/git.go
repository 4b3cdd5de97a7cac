package reinforce

import (
	"fmt"
	"sort"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// changedFiles resolves rev in the repository at repoPath and returns the
// sorted set of file paths the commit changed relative to its first parent.
// A root commit reports every file in its tree.
func changedFiles(repoPath, rev string) ([]string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", repoPath, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load commit tree: %w", err)
	}

	seen := make(map[string]bool)
	if commit.NumParents() == 0 {
		err = tree.Files().ForEach(func(f *object.File) error {
			seen[f.Name] = true
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk root commit tree: %w", err)
		}
	} else {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("load parent commit: %w", err)
		}
		parentTree, err := parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("load parent tree: %w", err)
		}
		changes, err := object.DiffTree(parentTree, tree)
		if err != nil {
			return nil, fmt.Errorf("diff trees: %w", err)
		}
		for _, change := range changes {
			if change.From.Name != "" {
				seen[change.From.Name] = true
			}
			if change.To.Name != "" {
				seen[change.To.Name] = true
			}
		}
	}

	files := make([]string, 0, len(seen))
	for file := range seen {
		files = append(files, file)
	}
	sort.Strings(files)
	return files, nil
}
