// Package testhelper builds throwaway git repositories for tests.
package testhelper

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Repo is a real git repository rooted in a test temp directory.
type Repo struct {
	Dir string
}

// NewRepo initializes a fresh repository with a configured test user.
// The test is skipped when no git binary is installed.
func NewRepo(t *testing.T) *Repo {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	r := &Repo{Dir: dir}

	// Avoid reading the developer's global config so tests are hermetic.
	r.git(t, "-c", "init.defaultBranch=main", "init", ".")
	r.git(t, "config", "user.name", "Test User")
	r.git(t, "config", "user.email", "test@example.com")

	return r
}

// Git runs a git command in the repository and returns trimmed stdout,
// failing the test on error.
func (r *Repo) Git(t *testing.T, args ...string) string {
	t.Helper()
	return r.git(t, args...)
}

func (r *Repo) git(t *testing.T, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null", "GIT_CONFIG_SYSTEM=/dev/null")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
	return strings.TrimSpace(string(out))
}

// WriteFile creates or overwrites a file relative to the repository root.
func (r *Repo) WriteFile(t *testing.T, name, content string) {
	t.Helper()

	path := filepath.Join(r.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// CommitFile writes a file, stages it and commits it.
func (r *Repo) CommitFile(t *testing.T, name, content, message string) {
	t.Helper()

	r.WriteFile(t, name, content)
	r.git(t, "add", name)
	r.git(t, "commit", "-m", message)
}
