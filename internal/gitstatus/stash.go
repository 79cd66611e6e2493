package gitstatus

import (
	"strconv"
	"strings"
	"time"
)

// StashListArgs is the argument vector whose output ParseStashes
// understands.
var StashListArgs = []string{
	"stash", "list",
	"--format=%gd\t%at\t%gs",
}

// ParseStashes parses the output of StashListArgs into stash projections.
// Malformed lines are skipped.
func ParseStashes(output string) []StashInfo {
	var stashes []StashInfo

	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) < 3 {
			continue
		}

		stash := StashInfo{
			Ref:     parts[0],
			Message: parts[2],
		}
		if unix, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			stash.CreatedAt = time.Unix(unix, 0)
		}
		stashes = append(stashes, stash)
	}

	return stashes
}
