package statuscache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bjacobin3d/githulu/internal/gitstatus"
)

func status(repoID string, at time.Time) *gitstatus.RepoStatus {
	return &gitstatus.RepoStatus{RepoID: repoID, LastUpdatedAt: at}
}

func TestCache(t *testing.T) {
	t.Run("get returns nil for unknown repo", func(t *testing.T) {
		c := New()
		require.Nil(t, c.Get("unknown"))
	})

	t.Run("put then get round-trips", func(t *testing.T) {
		c := New()
		s := status("repo1", time.Now())
		require.True(t, c.Put(s))
		require.Same(t, s, c.Get("repo1"))
	})

	t.Run("stale write is rejected", func(t *testing.T) {
		c := New()
		now := time.Now()

		newer := status("repo1", now)
		stale := status("repo1", now.Add(-time.Second))

		require.True(t, c.Put(newer))
		require.False(t, c.Put(stale))
		require.Same(t, newer, c.Get("repo1"))
	})

	t.Run("equal timestamp is rejected", func(t *testing.T) {
		c := New()
		now := time.Now()

		first := status("repo1", now)
		second := status("repo1", now)

		require.True(t, c.Put(first))
		require.False(t, c.Put(second))
		require.Same(t, first, c.Get("repo1"))
	})

	t.Run("newer write replaces", func(t *testing.T) {
		c := New()
		now := time.Now()

		older := status("repo1", now)
		newer := status("repo1", now.Add(time.Second))

		require.True(t, c.Put(older))
		require.True(t, c.Put(newer))
		require.Same(t, newer, c.Get("repo1"))
	})

	t.Run("remove drops the entry", func(t *testing.T) {
		c := New()
		require.True(t, c.Put(status("repo1", time.Now())))
		c.Remove("repo1")
		require.Nil(t, c.Get("repo1"))
	})

	t.Run("repositories are independent", func(t *testing.T) {
		c := New()
		now := time.Now()
		require.True(t, c.Put(status("repo1", now)))
		require.True(t, c.Put(status("repo2", now.Add(-time.Hour))))
		require.NotNil(t, c.Get("repo1"))
		require.NotNil(t, c.Get("repo2"))
	})
}
