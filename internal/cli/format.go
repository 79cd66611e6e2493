package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/bjacobin3d/githulu/internal/gitstatus"
)

var (
	branchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	stagedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	unstagedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func render(style lipgloss.Style, text string) string {
	if !colorEnabled() {
		return text
	}
	return style.Render(text)
}

func styleBranch(text string) string   { return render(branchStyle, text) }
func styleConflict(text string) string { return render(conflictStyle, text) }
func styleDim(text string) string      { return render(dimStyle, text) }

// writeStatus renders one repository's status block.
func writeStatus(w io.Writer, name string, status *gitstatus.RepoStatus) {
	branch := status.Snapshot.Branch
	if branch == "" {
		branch = "(detached)"
	}

	header := fmt.Sprintf("%s on %s", styleBranch(name), styleBranch(branch))
	if status.Snapshot.Upstream != "" {
		header += styleDim(fmt.Sprintf(" [%s +%d -%d]",
			status.Snapshot.Upstream, status.Snapshot.Ahead, status.Snapshot.Behind))
	}
	fmt.Fprintln(w, header)

	if status.Rebase.InProgress {
		fmt.Fprintf(w, "  %s\n", styleConflict(fmt.Sprintf("rebase in progress (step %d/%d)",
			status.Rebase.Step, status.Rebase.Total)))
	}

	changes := status.Snapshot.Changes
	writeChangeLines(w, stagedStyle, "staged", changes.Staged)
	writeChangeLines(w, unstagedStyle, "modified", changes.Unstaged)
	writeChangeLines(w, conflictStyle, "conflict", changes.Conflicts)
	writeChangeLines(w, dimStyle, "untracked", changes.Untracked)

	if !status.Snapshot.IsDirty() && !status.Rebase.InProgress {
		fmt.Fprintf(w, "  %s\n", styleDim("clean"))
	}
}

func writeChangeLines(w io.Writer, style lipgloss.Style, label string, changes []gitstatus.FileChange) {
	for _, change := range changes {
		path := change.Path
		if change.OldPath != "" {
			path = change.OldPath + " -> " + path
		}
		fmt.Fprintf(w, "  %s %s\n", render(style, fmt.Sprintf("%-9s", label)), path)
	}
}

// writeBranches renders the branch list, marking the checked-out branch.
func writeBranches(w io.Writer, branches []gitstatus.BranchInfo) {
	for _, b := range branches {
		marker := " "
		name := b.Name
		if b.IsCurrent {
			marker = "*"
			name = styleBranch(name)
		}
		line := fmt.Sprintf("%s %s %s", marker, styleDim(b.SHA), name)
		if b.Upstream != "" {
			line += styleDim(" -> " + b.Upstream)
		}
		fmt.Fprintln(w, line)
	}
}

// writeStashes renders stash entries newest first.
func writeStashes(w io.Writer, stashes []gitstatus.StashInfo) {
	for _, s := range stashes {
		fmt.Fprintf(w, "%s %s\n", styleDim(s.Ref), strings.TrimSpace(s.Message))
	}
}
