package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcher_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notistackd.toml")
	require.NoError(t, os.WriteFile(path, []byte("# initial\n"), 0o644))

	w := NewFileWatcher(path, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { changed <- struct{}{} })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o644))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	w := NewFileWatcher(filepath.Join(t.TempDir(), "nope", "file.toml"), 0, nil)
	err := w.Run(context.Background(), func() {})
	assert.Error(t, err)
}

func TestNewFileWatcher_DefaultDebounce(t *testing.T) {
	assert.Equal(t, DefaultDebounce, NewFileWatcher("x.toml", 0, nil).debounce)
	assert.Equal(t, DefaultDebounce, NewFileWatcher("x.toml", -time.Second, nil).debounce)
	assert.Equal(t, time.Second, NewFileWatcher("x.toml", time.Second, nil).debounce)
}
