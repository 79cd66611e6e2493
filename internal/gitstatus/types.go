// Package gitstatus turns git's porcelain text output into a structured,
// queryable status model, and detects in-progress rebases from repository
// metadata.
package gitstatus

import "time"

// ChangeKind classifies where a file change lives.
type ChangeKind string

const (
	KindStaged    ChangeKind = "staged"
	KindUnstaged  ChangeKind = "unstaged"
	KindUntracked ChangeKind = "untracked"
	KindConflict  ChangeKind = "conflict"
)

// FileChange is a single changed path. Status is the porcelain status
// letter, or the two-letter pair for unmerged entries. OldPath is set for
// renames and copies only.
type FileChange struct {
	Path    string
	Status  string
	Kind    ChangeKind
	OldPath string
}

// Changes groups the file changes of a snapshot by kind.
type Changes struct {
	Staged    []FileChange
	Unstaged  []FileChange
	Untracked []FileChange
	Conflicts []FileChange
}

// RebaseState describes an in-progress rebase. Step and Total are zero
// when the corresponding metadata file is missing. Conflicts is populated
// by cross-referencing unmerged status entries, not by the marker-directory
// scan itself.
type RebaseState struct {
	InProgress bool
	Step       int
	Total      int
	Conflicts  []string
}

// Snapshot is the parser's view of one `git status --porcelain=v2 -b`
// invocation. Branch is empty when HEAD is detached.
type Snapshot struct {
	Branch   string
	Upstream string
	Ahead    int
	Behind   int
	Changes  Changes
}

// IsDirty reports whether any staged, unstaged or untracked change exists.
func (s *Snapshot) IsDirty() bool {
	return len(s.Changes.Staged) > 0 || len(s.Changes.Unstaged) > 0 || len(s.Changes.Untracked) > 0
}

// RepoStatus is the cached status of one repository, replaced wholesale on
// each refresh.
type RepoStatus struct {
	RepoID        string
	Path          string
	Snapshot      Snapshot
	Rebase        RebaseState
	LastUpdatedAt time.Time
}

// BranchInfo is a read-only projection of one local branch.
type BranchInfo struct {
	Name      string
	SHA       string
	Upstream  string
	IsCurrent bool
}

// StashInfo is a read-only projection of one stash entry.
type StashInfo struct {
	Ref       string
	Message   string
	CreatedAt time.Time
}
