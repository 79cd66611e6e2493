package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testDebounce = 50 * time.Millisecond

type refreshRecorder struct {
	ch chan string
}

func newRecorder() *refreshRecorder {
	return &refreshRecorder{ch: make(chan string, 16)}
}

func (r *refreshRecorder) refresh(repoID, repoPath string) {
	r.ch <- repoID
}

func (r *refreshRecorder) expectOne(t *testing.T, repoID string) {
	t.Helper()
	select {
	case got := <-r.ch:
		require.Equal(t, repoID, got)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a refresh, got none")
	}
}

func (r *refreshRecorder) expectNone(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case got := <-r.ch:
		t.Fatalf("unexpected refresh for %s", got)
	case <-time.After(within):
	}
}

func write(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestWatcher(t *testing.T) {
	t.Run("burst of events collapses into one refresh", func(t *testing.T) {
		dir := t.TempDir()
		rec := newRecorder()
		w, err := New(testDebounce, rec.refresh, nil, nil)
		require.NoError(t, err)
		defer w.Close()

		require.NoError(t, w.StartWatching("r1", dir))

		for i := 0; i < 5; i++ {
			write(t, dir, "file.txt")
		}

		rec.expectOne(t, "r1")
		rec.expectNone(t, 4*testDebounce)
	})

	t.Run("bursts in one repository do not touch another", func(t *testing.T) {
		dirA := t.TempDir()
		dirB := t.TempDir()
		rec := newRecorder()
		w, err := New(testDebounce, rec.refresh, nil, nil)
		require.NoError(t, err)
		defer w.Close()

		require.NoError(t, w.StartWatching("a", dirA))
		require.NoError(t, w.StartWatching("b", dirB))

		write(t, dirA, "only-in-a.txt")

		rec.expectOne(t, "a")
		rec.expectNone(t, 4*testDebounce)
	})

	t.Run("starting an already-watched repo is a no-op", func(t *testing.T) {
		dir := t.TempDir()
		rec := newRecorder()
		w, err := New(testDebounce, rec.refresh, nil, nil)
		require.NoError(t, err)
		defer w.Close()

		require.NoError(t, w.StartWatching("r1", dir))
		require.NoError(t, w.StartWatching("r1", dir))

		write(t, dir, "file.txt")
		rec.expectOne(t, "r1")
		rec.expectNone(t, 4*testDebounce)
	})

	t.Run("stop cancels pending refreshes", func(t *testing.T) {
		dir := t.TempDir()
		rec := newRecorder()
		w, err := New(testDebounce, rec.refresh, nil, nil)
		require.NoError(t, err)
		defer w.Close()

		require.NoError(t, w.StartWatching("r1", dir))
		write(t, dir, "file.txt")
		w.StopWatching("r1")

		rec.expectNone(t, 4*testDebounce)
	})

	t.Run("noisy directories are excluded", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))

		rec := newRecorder()
		w, err := New(testDebounce, rec.refresh, nil, nil)
		require.NoError(t, err)
		defer w.Close()

		require.NoError(t, w.StartWatching("r1", dir))

		write(t, dir, filepath.Join("node_modules", "dep.js"))
		rec.expectNone(t, 4*testDebounce)
	})

	t.Run("git metadata allow-list", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
		write(t, dir, filepath.Join(".git", "HEAD"))
		write(t, dir, filepath.Join(".git", "config"))

		rec := newRecorder()
		w, err := New(testDebounce, rec.refresh, nil, nil)
		require.NoError(t, err)
		defer w.Close()

		require.NoError(t, w.StartWatching("r1", dir))

		// config churn is not on the allow-list
		write(t, dir, filepath.Join(".git", "config"))
		rec.expectNone(t, 4*testDebounce)

		// HEAD updates are
		write(t, dir, filepath.Join(".git", "HEAD"))
		rec.expectOne(t, "r1")
	})

	t.Run("new subdirectories are picked up", func(t *testing.T) {
		dir := t.TempDir()
		rec := newRecorder()
		w, err := New(testDebounce, rec.refresh, nil, nil)
		require.NoError(t, err)
		defer w.Close()

		require.NoError(t, w.StartWatching("r1", dir))

		require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
		rec.expectOne(t, "r1")

		write(t, dir, filepath.Join("src", "main.go"))
		rec.expectOne(t, "r1")
	})
}
