package gitstatus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBranches(t *testing.T) {
	t.Run("parses branch lines", func(t *testing.T) {
		output := "main\tabc1234\torigin/main\t*\n" +
			"feature/login\tdef5678\t\t \n"

		branches := ParseBranches(output)
		require.Len(t, branches, 2)

		require.Equal(t, "main", branches[0].Name)
		require.Equal(t, "abc1234", branches[0].SHA)
		require.Equal(t, "origin/main", branches[0].Upstream)
		require.True(t, branches[0].IsCurrent)

		require.Equal(t, "feature/login", branches[1].Name)
		require.Empty(t, branches[1].Upstream)
		require.False(t, branches[1].IsCurrent)
	})

	t.Run("skips malformed lines", func(t *testing.T) {
		branches := ParseBranches("garbage\nmain\tabc\torigin/main\t*\n")
		require.Len(t, branches, 1)
	})

	t.Run("empty output", func(t *testing.T) {
		require.Empty(t, ParseBranches(""))
	})
}

func TestParseStashes(t *testing.T) {
	t.Run("parses stash lines", func(t *testing.T) {
		output := "stash@{0}\t1700000000\tWIP on main: abc1234 fix thing\n" +
			"stash@{1}\t1690000000\tOn feature: half-done\n"

		stashes := ParseStashes(output)
		require.Len(t, stashes, 2)
		require.Equal(t, "stash@{0}", stashes[0].Ref)
		require.Equal(t, "WIP on main: abc1234 fix thing", stashes[0].Message)
		require.Equal(t, int64(1700000000), stashes[0].CreatedAt.Unix())
	})

	t.Run("skips malformed lines", func(t *testing.T) {
		stashes := ParseStashes("nonsense\nstash@{0}\t1700000000\tmsg\n")
		require.Len(t, stashes, 1)
	})
}
