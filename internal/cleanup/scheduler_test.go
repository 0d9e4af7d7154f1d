package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agedDir(t *testing.T, workDir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(workDir, name)
	require.NoError(t, os.MkdirAll(path, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "chunk_000.mp3"), []byte("audio"), 0644))
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
	return path
}

func TestSweepRemovesOnlyStaleEntries(t *testing.T) {
	workDir := t.TempDir()
	stale := agedDir(t, workDir, "stale-request", 2*time.Hour)
	fresh := agedDir(t, workDir, "fresh-request", time.Minute)

	s := NewScheduler(workDir, time.Hour, time.Hour, zerolog.Nop())
	s.sweep()

	assert.NoDirExists(t, stale)
	assert.DirExists(t, fresh)
}

func TestSweepMissingWorkDir(t *testing.T) {
	s := NewScheduler(filepath.Join(t.TempDir(), "never-created"), time.Hour, time.Hour, zerolog.Nop())
	// Must not panic or create the directory.
	s.sweep()
}

func TestStartRunsInitialSweep(t *testing.T) {
	workDir := t.TempDir()
	stale := agedDir(t, workDir, "leaked", 2*time.Hour)

	s := NewScheduler(workDir, time.Hour, time.Hour, zerolog.Nop())
	s.Start()
	defer s.Stop()

	assert.NoDirExists(t, stale)
}
