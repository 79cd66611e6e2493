package gitstatus

import (
	"strconv"
	"strings"
)

// Field counts preceding the path in porcelain v2 records. Paths are the
// tail of a fixed-width prefix, so remaining tokens are rejoined to
// tolerate spaces in filenames.
const (
	ordinaryPathIndex = 8
	unmergedPathIndex = 10
	renamePrefixIndex = 9
)

// ParseStatus parses the output of `git status --porcelain=v2 -b`.
//
// Parsing is total: unrecognized or malformed lines are skipped, never
// fatal, since git's human-adjacent formats can vary slightly across
// versions.
func ParseStatus(output string) Snapshot {
	var snap Snapshot

	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		switch line[0] {
		case '#':
			parseHeader(line, &snap)
		case '1':
			parseOrdinary(line, &snap)
		case '2':
			parseRename(line, &snap)
		case 'u':
			parseUnmerged(line, &snap)
		case '?':
			if len(line) > 2 {
				snap.Changes.Untracked = append(snap.Changes.Untracked, FileChange{
					Path:   line[2:],
					Status: "?",
					Kind:   KindUntracked,
				})
			}
		case '!':
			// ignored entries are dropped
		}
	}

	return snap
}

// parseHeader handles `# branch.head`, `# branch.upstream` and
// `# branch.ab` lines.
func parseHeader(line string, snap *Snapshot) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return
	}
	switch fields[1] {
	case "branch.head":
		// a detached HEAD has no branch name
		if fields[2] != "(detached)" {
			snap.Branch = fields[2]
		}
	case "branch.upstream":
		snap.Upstream = fields[2]
	case "branch.ab":
		if len(fields) < 4 {
			return
		}
		if ahead, err := strconv.Atoi(strings.TrimPrefix(fields[2], "+")); err == nil {
			snap.Ahead = ahead
		}
		if behind, err := strconv.Atoi(strings.TrimPrefix(fields[3], "-")); err == nil {
			snap.Behind = behind
		}
	}
}

// parseOrdinary handles `1 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <path>`.
// X (index) and Y (worktree) are independent: each non-'.' side contributes
// its own FileChange, so a file can appear both staged and unstaged.
func parseOrdinary(line string, snap *Snapshot) {
	fields := strings.Fields(line)
	if len(fields) <= ordinaryPathIndex {
		return
	}
	xy := fields[1]
	if len(xy) != 2 {
		return
	}
	path := strings.Join(fields[ordinaryPathIndex:], " ")

	if x := xy[0]; x != '.' && x != '?' {
		snap.Changes.Staged = append(snap.Changes.Staged, FileChange{
			Path:   path,
			Status: string(x),
			Kind:   KindStaged,
		})
	}
	if y := xy[1]; y != '.' && y != '?' {
		snap.Changes.Unstaged = append(snap.Changes.Unstaged, FileChange{
			Path:   path,
			Status: string(y),
			Kind:   KindUnstaged,
		})
	}
}

// parseRename handles `2 <XY> ... <X><score> <newPath>\t<oldPath>`.
// The paths are split on the tab because both can contain spaces.
func parseRename(line string, snap *Snapshot) {
	tab := strings.IndexByte(line, '\t')
	if tab < 0 {
		return
	}
	oldPath := line[tab+1:]

	fields := strings.Fields(line[:tab])
	if len(fields) <= renamePrefixIndex {
		return
	}
	xy := fields[1]
	if len(xy) != 2 {
		return
	}
	newPath := strings.Join(fields[renamePrefixIndex:], " ")

	if x := xy[0]; x != '.' && x != '?' {
		snap.Changes.Staged = append(snap.Changes.Staged, FileChange{
			Path:    newPath,
			Status:  string(x),
			Kind:    KindStaged,
			OldPath: oldPath,
		})
	}
	if y := xy[1]; y != '.' && y != '?' {
		snap.Changes.Unstaged = append(snap.Changes.Unstaged, FileChange{
			Path:   newPath,
			Status: string(y),
			Kind:   KindUnstaged,
		})
	}
}

// parseUnmerged handles `u <XY> <sub> <m1> <m2> <m3> <mW> <h1> <h2> <h3> <path>`.
// Every two-letter combination (UU, AA, DD, AU, UA, DU, UD) is recorded.
func parseUnmerged(line string, snap *Snapshot) {
	fields := strings.Fields(line)
	if len(fields) <= unmergedPathIndex {
		return
	}
	xy := fields[1]
	if len(xy) != 2 {
		return
	}
	path := strings.Join(fields[unmergedPathIndex:], " ")

	snap.Changes.Conflicts = append(snap.Changes.Conflicts, FileChange{
		Path:   path,
		Status: xy,
		Kind:   KindConflict,
	})
}
