package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/cortex-go/internal/config"
)

func TestOpenEnv_CreatesDataDir(t *testing.T) {
	t.Chdir(t.TempDir())

	env, err := openEnv(false)
	require.NoError(t, err)
	defer env.close()

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.DirExists(t, config.DataDir(wd))
	assert.Equal(t, "default", env.cfg.Project)
}

func TestOpenEnv_RequireDataFailsWithoutStore(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := openEnv(true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no store found")
}

func TestImportThenStats(t *testing.T) {
	t.Chdir(t.TempDir())

	wd, err := os.Getwd()
	require.NoError(t, err)
	notesDir := filepath.Join(wd, "notes")
	require.NoError(t, os.MkdirAll(notesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(notesDir, "a.md"), []byte("# A\n\nSee [[b]].\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(notesDir, "b.md"), []byte("# B\n\nDetails.\n"), 0o644))

	imp := &ImportCmd{Path: notesDir}
	require.NoError(t, imp.Run())

	stats := &StatsCmd{}
	require.NoError(t, stats.Run())
}

func TestCleanWithoutStore(t *testing.T) {
	t.Chdir(t.TempDir())

	clean := &CleanCmd{Force: true}
	err := clean.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nothing to clean")
}
