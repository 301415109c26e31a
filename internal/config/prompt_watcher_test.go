package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptWatcherNoFiles(t *testing.T) {
	pw := NewPromptWatcher(NewPromptStore(nil), 0, nil, newMockLogger())

	require.NoError(t, pw.Start())
	assert.False(t, pw.IsRunning())
	assert.Empty(t, pw.WatchedFiles())
	assert.NoError(t, pw.Stop())
}

func TestPromptWatcherReloadsOnChange(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "user.optimize.md")
	require.NoError(t, os.WriteFile(file, []byte("original %s %s %s"), 0600))

	store := NewPromptStore([]promptFile{{Path: file, Operation: OperationOptimize, Type: "user"}})
	require.NoError(t, store.Reload())

	reloaded := make(chan error, 4)
	pw := NewPromptWatcher(store, 20*time.Millisecond, func(err error) { reloaded <- err }, newMockLogger())
	require.NoError(t, pw.Start())
	t.Cleanup(func() { _ = pw.Stop() })

	assert.True(t, pw.IsRunning())
	assert.Equal(t, []string{file}, pw.WatchedFiles())
	assert.Error(t, pw.Start(), "second start should fail")

	// Ensure the new mtime is strictly later on coarse-grained filesystems.
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(file, []byte("updated %s %s %s"), 0600))
	require.NoError(t, os.Chtimes(file, later, later))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for prompt reload")
	}
	assert.Equal(t, "updated %s %s %s", store.Get(OperationOptimize).User)

	require.NoError(t, pw.Stop())
	assert.False(t, pw.IsRunning())
}
