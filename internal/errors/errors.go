// Package errors provides sentinel errors and custom error types for the githulu engine.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrGitNotFound indicates that no git executable could be located.
	// This is fatal to the whole engine: no git operation can run without it.
	ErrGitNotFound = errors.New("git executable not found")

	// ErrTimedOut indicates that an operation exceeded its configured timeout
	ErrTimedOut = errors.New("operation timed out")

	// ErrCancelled indicates that an operation was cancelled before or during execution
	ErrCancelled = errors.New("operation cancelled")

	// ErrRepoNotFound indicates that a repository id is not registered
	ErrRepoNotFound = errors.New("repository not found")

	// ErrNotARepository indicates that a path does not contain a git repository
	ErrNotARepository = errors.New("not a git repository")

	// ErrShuttingDown indicates that the engine is shutting down and rejects new work
	ErrShuttingDown = errors.New("engine shutting down")
)

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: git %v", e.Args)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(args []string, stdout, stderr string, exitCode int, err error) *GitCommandError {
	return &GitCommandError{
		Args:     args,
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Err:      err,
	}
}

// RepoNotFoundError reports a lookup of an unregistered repository id
type RepoNotFoundError struct {
	RepoID string
}

func (e *RepoNotFoundError) Error() string {
	return fmt.Sprintf("repository %s is not registered", e.RepoID)
}

// Is returns true if the target error is ErrRepoNotFound
func (e *RepoNotFoundError) Is(target error) bool {
	return target == ErrRepoNotFound
}

// NewRepoNotFoundError creates a new RepoNotFoundError
func NewRepoNotFoundError(repoID string) *RepoNotFoundError {
	return &RepoNotFoundError{RepoID: repoID}
}
