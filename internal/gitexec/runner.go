// Package gitexec executes git subprocesses on behalf of the engine.
//
// The runner is a pass-through execution primitive: it binds the repository
// with an explicit -C argument, enforces a timeout, streams output
// line-by-line to an optional progress callback, and maps subprocess
// failures onto the engine's error taxonomy. Retry policy belongs to
// callers.
package gitexec

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	githuluerrors "github.com/bjacobin3d/githulu/internal/errors"
)

const (
	// ShortTimeout bounds read-only or local operations such as status,
	// diff, log and branch listing.
	ShortTimeout = 60 * time.Second

	// LongTimeout bounds network or multi-step operations such as fetch,
	// push, pull and rebase.
	LongTimeout = 300 * time.Second

	// terminateGrace is how long a signalled subprocess gets to exit
	// before it is killed.
	terminateGrace = 5 * time.Second
)

// Result holds the normalized outcome of a git invocation. Stdout and
// Stderr are fully buffered even when a progress callback is set.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Options configures a single Run call.
type Options struct {
	// Timeout for the subprocess. Zero means ShortTimeout.
	Timeout time.Duration

	// OnProgress receives each output line as it arrives, from both
	// stdout and stderr (git emits progress on stderr).
	OnProgress func(line string)
}

// Runner spawns git subprocesses and tracks the live ones so a shutdown
// path can terminate them all.
type Runner struct {
	bin string

	mu     sync.Mutex
	procs  map[uint64]*exec.Cmd
	nextID uint64
}

// NewRunner creates a Runner that invokes the given git binary.
func NewRunner(bin string) *Runner {
	return &Runner{
		bin:   bin,
		procs: make(map[uint64]*exec.Cmd),
	}
}

// Run executes git with the given arguments. A non-empty repoPath is bound
// with -C as an argument vector element, never via shell interpolation.
// Exceeding the timeout terminates the subprocess and returns ErrTimedOut;
// a cancelled context returns ErrCancelled. Both are distinct from an
// ordinary non-zero exit, which is reported as a GitCommandError carrying
// the captured output.
func (r *Runner) Run(ctx context.Context, repoPath string, args []string, opts Options) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = ShortTimeout
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	argv := args
	if repoPath != "" {
		argv = append([]string{"-C", repoPath}, args...)
	}

	cmd := exec.CommandContext(ctx, r.bin, argv...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = terminateGrace

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, githuluerrors.NewGitCommandError(argv, "", "", 0, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, githuluerrors.NewGitCommandError(argv, "", "", 0, err)
	}

	if err := cmd.Start(); err != nil {
		return Result{}, githuluerrors.NewGitCommandError(argv, "", "", 0, err)
	}

	id := r.register(cmd)
	defer r.unregister(id)

	var stdout, stderr strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		drainLines(stdoutPipe, &stdout, opts.OnProgress)
	}()
	go func() {
		defer wg.Done()
		drainLines(stderrPipe, &stderr, opts.OnProgress)
	}()
	wg.Wait()

	waitErr := cmd.Wait()

	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	if waitErr == nil {
		return result, nil
	}

	switch ctx.Err() {
	case context.DeadlineExceeded:
		return result, githuluerrors.NewGitCommandError(argv, result.Stdout, result.Stderr, result.ExitCode, githuluerrors.ErrTimedOut)
	case context.Canceled:
		return result, githuluerrors.NewGitCommandError(argv, result.Stdout, result.Stderr, result.ExitCode, githuluerrors.ErrCancelled)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return result, githuluerrors.NewGitCommandError(argv, result.Stdout, result.Stderr, result.ExitCode, nil)
	}
	return result, githuluerrors.NewGitCommandError(argv, result.Stdout, result.Stderr, result.ExitCode, waitErr)
}

// TerminateAll signals every live subprocess. Used on shutdown.
func (r *Runner) TerminateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cmd := range r.procs {
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
		}
	}
}

// LiveCount returns the number of currently running subprocesses.
func (r *Runner) LiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}

func (r *Runner) register(cmd *exec.Cmd) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.procs[r.nextID] = cmd
	return r.nextID
}

func (r *Runner) unregister(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.procs, id)
}

// drainLines accumulates the full stream while forwarding each line to the
// progress callback.
func drainLines(rd io.Reader, buf *strings.Builder, onProgress func(string)) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		if onProgress != nil {
			onProgress(line)
		}
	}
}
