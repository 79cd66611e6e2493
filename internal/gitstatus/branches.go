package gitstatus

import "strings"

// BranchListArgs is the argument vector whose output ParseBranches
// understands. Tab separators keep branch names with unusual characters
// parseable.
var BranchListArgs = []string{
	"for-each-ref", "refs/heads",
	"--format=%(refname:short)\t%(objectname:short)\t%(upstream:short)\t%(HEAD)",
}

// ParseBranches parses the output of BranchListArgs into branch
// projections. Malformed lines are skipped.
func ParseBranches(output string) []BranchInfo {
	var branches []BranchInfo

	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 4 {
			continue
		}
		branches = append(branches, BranchInfo{
			Name:      parts[0],
			SHA:       parts[1],
			Upstream:  parts[2],
			IsCurrent: parts[3] == "*",
		})
	}

	return branches
}
