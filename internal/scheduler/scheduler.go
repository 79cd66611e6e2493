// Package scheduler serializes and prioritizes git operations per
// repository.
//
// The invariants it provides are the engine's sole mutual-exclusion
// mechanism: at most one operation executes per repository path at any
// instant, bounded global concurrency applies across repositories, and
// selection always prefers the highest-priority head-of-queue among idle
// repositories, breaking ties by age. As long as every caller reaches git
// through the scheduler, no two subprocesses ever race against the same
// working tree or index.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	githuluerrors "github.com/bjacobin3d/githulu/internal/errors"
)

// Priority orders pending operations. Higher runs first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Work is a unit of execution. The context is cancelled when the operation
// is cancelled or the scheduler shuts down; work that spawns subprocesses
// must honor it.
type Work func(ctx context.Context) error

// Operation is the future returned by Schedule. It resolves exactly once,
// when the work completes, is cancelled, or is rejected by a drain.
type Operation struct {
	id        string
	repoPath  string
	priority  Priority
	createdAt time.Time
	seq       uint64
	work      Work

	cancel context.CancelFunc // set while running

	resolveOnce sync.Once
	done        chan struct{}
	err         error
}

// ID returns the operation's unique identifier.
func (o *Operation) ID() string { return o.id }

// RepoPath returns the repository the operation is bound to.
func (o *Operation) RepoPath() string { return o.repoPath }

// Priority returns the scheduling priority.
func (o *Operation) Priority() Priority { return o.priority }

// Done is closed when the operation has resolved.
func (o *Operation) Done() <-chan struct{} { return o.done }

// Err returns the outcome. Only valid after Done is closed.
func (o *Operation) Err() error { return o.err }

// Wait blocks until the operation resolves or the context expires.
func (o *Operation) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Operation) resolve(err error) {
	o.resolveOnce.Do(func() {
		o.err = err
		close(o.done)
	})
}

// Scheduler owns the per-repository queues and the global concurrency
// ceiling.
type Scheduler struct {
	mu      sync.Mutex
	queues  map[string][]*Operation
	running map[string]*Operation
	active  int
	maxRun  int
	seq     uint64
	closed  bool

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
}

// DefaultMaxConcurrent bounds simultaneous subprocesses across all
// repositories.
const DefaultMaxConcurrent = 3

// New creates a Scheduler with the given global concurrency ceiling.
// A ceiling below one falls back to DefaultMaxConcurrent.
func New(maxConcurrent int) *Scheduler {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrent
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		queues:     make(map[string][]*Operation),
		running:    make(map[string]*Operation),
		maxRun:     maxConcurrent,
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// Schedule enqueues work for a repository and returns its future
// immediately. Within a repository, operations run strictly one at a time
// in priority order (high > medium > low), FIFO within equal priority.
func (s *Scheduler) Schedule(repoPath string, priority Priority, work Work) *Operation {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	op := &Operation{
		id:        uuid.NewString(),
		repoPath:  repoPath,
		priority:  priority,
		createdAt: time.Now(),
		seq:       s.seq,
		work:      work,
		done:      make(chan struct{}),
	}

	if s.closed {
		op.resolve(githuluerrors.ErrShuttingDown)
		return op
	}

	s.queues[repoPath] = insertByPriority(s.queues[repoPath], op)
	s.dispatchLocked()
	return op
}

// insertByPriority places op after every queued operation of equal or
// higher priority, preserving FIFO within a priority class.
func insertByPriority(queue []*Operation, op *Operation) []*Operation {
	idx := len(queue)
	for i, queued := range queue {
		if queued.priority < op.priority {
			idx = i
			break
		}
	}
	queue = append(queue, nil)
	copy(queue[idx+1:], queue[idx:])
	queue[idx] = op
	return queue
}

// dispatchLocked fills free slots. Among repositories with no executing
// operation, the head-of-queue with the highest priority wins; ties go to
// the earliest submission. Called with s.mu held.
func (s *Scheduler) dispatchLocked() {
	for s.active < s.maxRun {
		var best *Operation
		for repoPath, queue := range s.queues {
			if len(queue) == 0 {
				delete(s.queues, repoPath)
				continue
			}
			if _, busy := s.running[repoPath]; busy {
				continue
			}
			head := queue[0]
			if best == nil || head.priority > best.priority ||
				(head.priority == best.priority && head.seq < best.seq) {
				best = head
			}
		}
		if best == nil {
			return
		}

		queue := s.queues[best.repoPath]
		s.queues[best.repoPath] = queue[1:]
		s.running[best.repoPath] = best
		s.active++

		ctx, cancel := context.WithCancel(s.baseCtx)
		best.cancel = cancel

		s.wg.Add(1)
		go s.execute(best, ctx, cancel)
	}
}

func (s *Scheduler) execute(op *Operation, ctx context.Context, cancel context.CancelFunc) {
	defer s.wg.Done()
	defer cancel()

	err := op.work(ctx)
	op.resolve(err)

	s.mu.Lock()
	delete(s.running, op.repoPath)
	s.active--
	if !s.closed {
		s.dispatchLocked()
	}
	s.mu.Unlock()
}

// Cancel aborts an operation. A pending operation is removed from its
// queue without ever invoking its work; a running one has its context
// cancelled, which terminates the underlying subprocess. Returns false if
// the operation had already resolved.
func (s *Scheduler) Cancel(op *Operation) bool {
	s.mu.Lock()

	queue := s.queues[op.repoPath]
	for i, queued := range queue {
		if queued == op {
			s.queues[op.repoPath] = append(queue[:i], queue[i+1:]...)
			s.mu.Unlock()
			op.resolve(githuluerrors.ErrCancelled)
			return true
		}
	}

	if running, ok := s.running[op.repoPath]; ok && running == op {
		cancel := op.cancel
		s.mu.Unlock()
		cancel()
		return true
	}

	s.mu.Unlock()
	return false
}

// Drain rejects every still-pending operation for a repository with a
// cancellation error, without running them. An operation already executing
// is unaffected.
func (s *Scheduler) Drain(repoPath string) {
	s.mu.Lock()
	pending := s.queues[repoPath]
	delete(s.queues, repoPath)
	s.mu.Unlock()

	for _, op := range pending {
		op.resolve(githuluerrors.ErrCancelled)
	}
}

// Shutdown rejects all pending work, cancels running operations and waits
// for them to finish. The scheduler accepts no work afterwards.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.closed = true
	var pending []*Operation
	for repoPath, queue := range s.queues {
		pending = append(pending, queue...)
		delete(s.queues, repoPath)
	}
	s.mu.Unlock()

	for _, op := range pending {
		op.resolve(githuluerrors.ErrShuttingDown)
	}

	s.baseCancel()
	s.wg.Wait()
}

// PendingCount returns the number of queued (not yet executing)
// operations for a repository.
func (s *Scheduler) PendingCount(repoPath string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues[repoPath])
}

// RunningCount returns the number of currently executing operations
// across all repositories.
func (s *Scheduler) RunningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
