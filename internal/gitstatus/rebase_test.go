package gitstatus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeGitFile(t *testing.T, repo, name, content string) {
	t.Helper()
	path := filepath.Join(repo, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDetectRebase(t *testing.T) {
	t.Run("no rebase in a quiet repository", func(t *testing.T) {
		repo := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))

		state := DetectRebase(repo)
		require.False(t, state.InProgress)
	})

	t.Run("interactive rebase with step files", func(t *testing.T) {
		repo := t.TempDir()
		writeGitFile(t, repo, ".git/rebase-merge/msgnum", "2\n")
		writeGitFile(t, repo, ".git/rebase-merge/end", "5\n")

		state := DetectRebase(repo)
		require.True(t, state.InProgress)
		require.Equal(t, 2, state.Step)
		require.Equal(t, 5, state.Total)
		require.Empty(t, state.Conflicts)
	})

	t.Run("missing step files are tolerated", func(t *testing.T) {
		repo := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git", "rebase-merge"), 0o755))

		state := DetectRebase(repo)
		require.True(t, state.InProgress)
		require.Zero(t, state.Step)
		require.Zero(t, state.Total)
	})

	t.Run("apply-based rebase uses next and last", func(t *testing.T) {
		repo := t.TempDir()
		writeGitFile(t, repo, ".git/rebase-apply/next", "1")
		writeGitFile(t, repo, ".git/rebase-apply/last", "3")

		state := DetectRebase(repo)
		require.True(t, state.InProgress)
		require.Equal(t, 1, state.Step)
		require.Equal(t, 3, state.Total)
	})

	t.Run("follows gitdir indirection for worktrees", func(t *testing.T) {
		gitDir := t.TempDir()
		writeGitFile(t, gitDir, "rebase-merge/msgnum", "4")
		writeGitFile(t, gitDir, "rebase-merge/end", "9")

		repo := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(repo, ".git"), []byte("gitdir: "+gitDir+"\n"), 0o644))

		state := DetectRebase(repo)
		require.True(t, state.InProgress)
		require.Equal(t, 4, state.Step)
		require.Equal(t, 9, state.Total)
	})

	t.Run("not a repository yields idle state", func(t *testing.T) {
		state := DetectRebase(t.TempDir())
		require.False(t, state.InProgress)
	})
}
