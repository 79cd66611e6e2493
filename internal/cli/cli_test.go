package cli_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bjacobin3d/githulu/internal/cli"
	"github.com/bjacobin3d/githulu/internal/testhelper"
)

// runCommand executes the command tree in-process against an isolated
// config and registry, returning combined output.
func runCommand(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("registry_path: %s\n", filepath.Join(dir, "repos.json"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRepoCommands(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	configPath := writeConfig(t)
	repo := testhelper.NewRepo(t)
	repo.CommitFile(t, "README.md", "hello\n", "initial commit")

	out, err := runCommand(t, configPath, "repo", "add", repo.Dir, "--name", "demo")
	require.NoError(t, err)
	require.Contains(t, out, "Registered demo")

	out, err = runCommand(t, configPath, "repo", "list")
	require.NoError(t, err)
	require.Contains(t, out, "demo")
	require.Contains(t, out, repo.Dir)

	_, err = runCommand(t, configPath, "repo", "add", t.TempDir(), "--name", "notarepo")
	require.Error(t, err)

	out, err = runCommand(t, configPath, "repo", "remove", "demo", "--force")
	require.NoError(t, err)
	require.Contains(t, out, "Removed demo")

	out, err = runCommand(t, configPath, "repo", "list")
	require.NoError(t, err)
	require.Contains(t, out, "No repositories registered")
}

func TestStatusCommand(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	configPath := writeConfig(t)
	repo := testhelper.NewRepo(t)
	repo.CommitFile(t, "README.md", "hello\n", "initial commit")

	_, err := runCommand(t, configPath, "repo", "add", repo.Dir, "--name", "demo")
	require.NoError(t, err)

	out, err := runCommand(t, configPath, "status", "demo")
	require.NoError(t, err)
	require.Contains(t, out, "demo on main")
	require.Contains(t, out, "clean")

	repo.WriteFile(t, "new.txt", "wip\n")
	out, err = runCommand(t, configPath, "status", "--all")
	require.NoError(t, err)
	require.Contains(t, out, "untracked")
	require.Contains(t, out, "new.txt")

	_, err = runCommand(t, configPath, "status")
	require.Error(t, err)

	_, err = runCommand(t, configPath, "status", "nonexistent")
	require.Error(t, err)
}

func TestBranchesCommand(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	configPath := writeConfig(t)
	repo := testhelper.NewRepo(t)
	repo.CommitFile(t, "README.md", "hello\n", "initial commit")
	repo.Git(t, "branch", "feature/x")

	_, err := runCommand(t, configPath, "repo", "add", repo.Dir, "--name", "demo")
	require.NoError(t, err)

	out, err := runCommand(t, configPath, "branches", "demo")
	require.NoError(t, err)
	require.Contains(t, out, "* ")
	require.Contains(t, out, "main")
	require.Contains(t, out, "feature/x")
}

func TestStashesCommand(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	configPath := writeConfig(t)
	repo := testhelper.NewRepo(t)
	repo.CommitFile(t, "README.md", "hello\n", "initial commit")

	_, err := runCommand(t, configPath, "repo", "add", repo.Dir, "--name", "demo")
	require.NoError(t, err)

	out, err := runCommand(t, configPath, "stashes", "demo")
	require.NoError(t, err)
	require.Contains(t, out, "No stashes")

	repo.WriteFile(t, "README.md", "changed\n")
	repo.Git(t, "stash", "push", "-m", "saved work")

	out, err = runCommand(t, configPath, "stashes", "demo")
	require.NoError(t, err)
	require.Contains(t, out, "saved work")
}
