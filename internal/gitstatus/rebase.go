package gitstatus

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DetectRebase inspects the repository's git metadata directory for the
// two mutually-exclusive rebase marker directories: rebase-merge
// (interactive and merge-based rebases) and rebase-apply (am / apply-based
// rebases). Missing step files are tolerated and leave Step/Total at zero.
//
// Conflicts is deliberately left empty: the marker-directory scan has no
// visibility into working-tree state, so the caller merges in conflict
// paths from unmerged status entries.
func DetectRebase(repoPath string) RebaseState {
	gitDir := GitDir(repoPath)
	if gitDir == "" {
		return RebaseState{}
	}

	if dir := filepath.Join(gitDir, "rebase-merge"); dirExists(dir) {
		return RebaseState{
			InProgress: true,
			Step:       readIntFile(filepath.Join(dir, "msgnum")),
			Total:      readIntFile(filepath.Join(dir, "end")),
		}
	}

	if dir := filepath.Join(gitDir, "rebase-apply"); dirExists(dir) {
		return RebaseState{
			InProgress: true,
			Step:       readIntFile(filepath.Join(dir, "next")),
			Total:      readIntFile(filepath.Join(dir, "last")),
		}
	}

	return RebaseState{}
}

// GitDir returns the metadata directory for a repository, following the
// `gitdir:` indirection used by worktrees and submodules. Empty when the
// path holds no repository.
func GitDir(repoPath string) string {
	dotGit := filepath.Join(repoPath, ".git")

	info, err := os.Stat(dotGit)
	if err != nil {
		return ""
	}
	if info.IsDir() {
		return dotGit
	}

	// .git is a file pointing at the real git dir
	data, err := os.ReadFile(dotGit)
	if err != nil {
		return ""
	}
	target := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(data)), "gitdir:"))
	if target == "" {
		return ""
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(repoPath, target)
	}
	return target
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// readIntFile returns the integer contents of a step file, or zero when
// the file is missing or malformed.
func readIntFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return n
}
