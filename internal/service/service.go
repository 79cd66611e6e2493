// Package service wires the git orchestration engine together: binary
// resolution, the subprocess runner, the per-repository scheduler, the
// status cache, the filesystem watcher and the outbound event hub.
//
// A Service is explicitly constructed and torn down; nothing here lives
// in package-level state, so multiple instances can coexist and tests get
// clean teardown.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bjacobin3d/githulu/internal/config"
	githuluerrors "github.com/bjacobin3d/githulu/internal/errors"
	"github.com/bjacobin3d/githulu/internal/gitbin"
	"github.com/bjacobin3d/githulu/internal/gitexec"
	"github.com/bjacobin3d/githulu/internal/gitstatus"
	"github.com/bjacobin3d/githulu/internal/registry"
	"github.com/bjacobin3d/githulu/internal/scheduler"
	"github.com/bjacobin3d/githulu/internal/statuscache"
	"github.com/bjacobin3d/githulu/internal/watcher"
)

var statusArgs = []string{"status", "--porcelain=v2", "-b"}

// Service is the engine façade exposed to the UI/IPC boundary.
type Service struct {
	cfg config.Config
	log *slog.Logger

	runner *gitexec.Runner
	sched  *scheduler.Scheduler
	cache  *statuscache.Cache
	watch  *watcher.Watcher
	reg    *registry.Registry
	hub    *Hub
}

// New constructs the engine. Failing to locate a git binary is fatal and
// surfaces here, before any operation is attempted, distinct from any
// individual operation failure.
func New(cfg config.Config, reg *registry.Registry, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}

	bin, err := gitbin.NewResolver().Resolve()
	if err != nil {
		return nil, err
	}
	log.Debug("resolved git binary", "path", bin)

	s := &Service{
		cfg:    cfg,
		log:    log,
		runner: gitexec.NewRunner(bin),
		sched:  scheduler.New(cfg.MaxConcurrent),
		cache:  statuscache.New(),
		reg:    reg,
		hub:    NewHub(),
	}

	s.watch, err = watcher.New(cfg.Debounce(), s.onFilesystemChange, s.onWatcherError, log)
	if err != nil {
		s.sched.Shutdown()
		return nil, err
	}

	return s, nil
}

// Events returns the outbound notification hub.
func (s *Service) Events() *Hub {
	return s.hub
}

// Registry returns the repo/group registry backing the engine.
func (s *Service) Registry() *registry.Registry {
	return s.reg
}

// Submit schedules arbitrary work against a repository path. This is the
// scheduler's sole entry point for external callers; everything that
// touches a working tree must pass through it.
func (s *Service) Submit(repoPath string, priority scheduler.Priority, work scheduler.Work) *scheduler.Operation {
	return s.sched.Schedule(repoPath, priority, work)
}

// GetCachedStatus returns the most recently computed status for a
// repository, or nil when none exists yet.
func (s *Service) GetCachedStatus(repoID string) *gitstatus.RepoStatus {
	return s.cache.Get(repoID)
}

// RefreshStatus forces a high-priority status refresh and waits for it.
func (s *Service) RefreshStatus(ctx context.Context, repoID string) (*gitstatus.RepoStatus, error) {
	repo, err := s.reg.GetRepo(repoID)
	if err != nil {
		return nil, err
	}

	op := s.scheduleRefresh(repo.ID, repo.Path, scheduler.PriorityHigh)
	if err := op.Wait(ctx); err != nil {
		return nil, err
	}
	return s.cache.Get(repoID), nil
}

// Fetch downloads remote refs for a repository, streaming progress to the
// event hub, then refreshes its status.
func (s *Service) Fetch(ctx context.Context, repoID string) error {
	return s.runRemoteOp(ctx, repoID, []string{"fetch", "--progress"})
}

// Pull integrates remote changes into the current branch.
func (s *Service) Pull(ctx context.Context, repoID string) error {
	return s.runRemoteOp(ctx, repoID, []string{"pull", "--progress"})
}

// Push uploads the current branch to its upstream.
func (s *Service) Push(ctx context.Context, repoID string) error {
	return s.runRemoteOp(ctx, repoID, []string{"push", "--progress"})
}

// ListBranches returns the repository's local branches.
func (s *Service) ListBranches(ctx context.Context, repoID string) ([]gitstatus.BranchInfo, error) {
	repo, err := s.reg.GetRepo(repoID)
	if err != nil {
		return nil, err
	}

	opID := uuid.NewString()
	var branches []gitstatus.BranchInfo
	op := s.sched.Schedule(repo.Path, scheduler.PriorityMedium, func(ctx context.Context) error {
		res, err := s.runner.Run(ctx, repo.Path, gitstatus.BranchListArgs, gitexec.Options{
			Timeout: s.cfg.ShortTimeout(),
		})
		if err != nil {
			return err
		}
		branches = gitstatus.ParseBranches(res.Stdout)
		return nil
	})
	if err := op.Wait(ctx); err != nil {
		s.publishOpError(repoID, opID, err)
		return nil, err
	}
	return branches, nil
}

// ListStashes returns the repository's stash entries.
func (s *Service) ListStashes(ctx context.Context, repoID string) ([]gitstatus.StashInfo, error) {
	repo, err := s.reg.GetRepo(repoID)
	if err != nil {
		return nil, err
	}

	opID := uuid.NewString()
	var stashes []gitstatus.StashInfo
	op := s.sched.Schedule(repo.Path, scheduler.PriorityMedium, func(ctx context.Context) error {
		res, err := s.runner.Run(ctx, repo.Path, gitstatus.StashListArgs, gitexec.Options{
			Timeout: s.cfg.ShortTimeout(),
		})
		if err != nil {
			return err
		}
		stashes = gitstatus.ParseStashes(res.Stdout)
		return nil
	})
	if err := op.Wait(ctx); err != nil {
		s.publishOpError(repoID, opID, err)
		return nil, err
	}
	return stashes, nil
}

// Watch starts auto-refreshing a repository on filesystem change.
func (s *Service) Watch(repoID string) error {
	repo, err := s.reg.GetRepo(repoID)
	if err != nil {
		return err
	}
	return s.watch.StartWatching(repo.ID, repo.Path)
}

// Unwatch stops auto-refreshing a repository.
func (s *Service) Unwatch(repoID string) {
	s.watch.StopWatching(repoID)
}

// RemoveRepo deregisters a repository: pending operations are drained
// with a cancellation, the watcher and cache entries are dropped, and the
// registry record is deleted. An operation already executing finishes
// undisturbed.
func (s *Service) RemoveRepo(repoID string) error {
	repo, err := s.reg.GetRepo(repoID)
	if err != nil {
		return err
	}

	s.sched.Drain(repo.Path)
	s.watch.StopWatching(repoID)
	s.cache.Remove(repoID)
	return s.reg.RemoveRepo(repoID)
}

// Shutdown tears the engine down: stops watching, rejects queued work,
// terminates live subprocesses and closes the event hub.
func (s *Service) Shutdown() {
	if err := s.watch.Close(); err != nil {
		s.log.Warn("closing watcher", "error", err)
	}
	s.sched.Shutdown()
	s.runner.TerminateAll()
	s.hub.Close()
}

// scheduleRefresh enqueues the status pipeline: run porcelain status,
// parse, detect rebase, merge conflict paths, then a timestamp-guarded
// cache write and event publication.
func (s *Service) scheduleRefresh(repoID, repoPath string, priority scheduler.Priority) *scheduler.Operation {
	opID := uuid.NewString()
	return s.sched.Schedule(repoPath, priority, func(ctx context.Context) error {
		res, err := s.runner.Run(ctx, repoPath, statusArgs, gitexec.Options{
			Timeout: s.cfg.ShortTimeout(),
		})
		if err != nil {
			s.publishOpError(repoID, opID, err)
			return err
		}

		snap := gitstatus.ParseStatus(res.Stdout)
		rebase := gitstatus.DetectRebase(repoPath)
		if rebase.InProgress {
			for _, conflict := range snap.Changes.Conflicts {
				rebase.Conflicts = append(rebase.Conflicts, conflict.Path)
			}
		}

		status := &gitstatus.RepoStatus{
			RepoID:        repoID,
			Path:          repoPath,
			Snapshot:      snap,
			Rebase:        rebase,
			LastUpdatedAt: time.Now(),
		}

		prev := s.cache.Get(repoID)
		if !s.cache.Put(status) {
			// a newer refresh already landed
			return nil
		}

		s.hub.Publish(Event{Kind: EventStatusUpdated, RepoID: repoID, Status: status})
		if prev == nil || prev.Rebase.InProgress != rebase.InProgress {
			s.hub.Publish(Event{Kind: EventRebaseChanged, RepoID: repoID, Rebase: &status.Rebase})
		}
		return nil
	})
}

// runRemoteOp executes a long-timeout git operation with progress
// streaming, then refreshes status on success.
func (s *Service) runRemoteOp(ctx context.Context, repoID string, args []string) error {
	repo, err := s.reg.GetRepo(repoID)
	if err != nil {
		return err
	}

	opID := uuid.NewString()
	op := s.sched.Schedule(repo.Path, scheduler.PriorityMedium, func(ctx context.Context) error {
		_, err := s.runner.Run(ctx, repo.Path, args, gitexec.Options{
			Timeout: s.cfg.LongTimeout(),
			OnProgress: func(line string) {
				s.hub.Publish(Event{Kind: EventProgress, RepoID: repoID, OpID: opID, Line: line})
			},
		})
		return err
	})
	if err := op.Wait(ctx); err != nil {
		s.publishOpError(repoID, opID, err)
		return err
	}

	refresh := s.scheduleRefresh(repo.ID, repo.Path, scheduler.PriorityHigh)
	return refresh.Wait(ctx)
}

// onFilesystemChange is the watcher's debounced callback. The refresh is
// fire-and-forget: its outcome reaches consumers through events.
func (s *Service) onFilesystemChange(repoID, repoPath string) {
	s.log.Debug("filesystem settled, refreshing", "repo", repoID)
	s.scheduleRefresh(repoID, repoPath, scheduler.PriorityHigh)
}

// onWatcherError reports watcher faults without failing any operation: a
// broken watcher degrades to "no auto-refresh".
func (s *Service) onWatcherError(repoID string, err error) {
	s.log.Warn("watcher fault", "repo", repoID, "error", err)
	s.hub.Publish(Event{Kind: EventOperationError, RepoID: repoID, Err: err})
}

func (s *Service) publishOpError(repoID, opID string, err error) {
	// cancellations are generally silent to the user
	if err == nil || errors.Is(err, githuluerrors.ErrCancelled) {
		return
	}
	s.hub.Publish(Event{Kind: EventOperationError, RepoID: repoID, OpID: opID, Err: err})
}
