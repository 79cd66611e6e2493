// Package watcher observes repository working trees and requests debounced
// status refreshes when the filesystem settles.
//
// Each repository gets the full working tree watched plus a narrow
// allow-list inside git metadata (HEAD, index, refs, rebase marker
// directories). Bursts of events collapse into a single refresh per
// repository; timers are repo-scoped so activity in one repository never
// delays refreshes for another.
package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bjacobin3d/githulu/internal/gitstatus"
)

// DefaultDebounce is the quiet period after the last filesystem event
// before a refresh is requested.
const DefaultDebounce = 300 * time.Millisecond

// noisyDirs are skipped inside working trees. Build and dependency
// directories churn constantly and never change git status on their own.
var noisyDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	".idea":        true,
	".vscode":      true,
	"__pycache__":  true,
}

// RefreshFunc is invoked once per settled change burst.
type RefreshFunc func(repoID, repoPath string)

// ErrorFunc receives watcher faults. A watcher fault degrades to "no
// auto-refresh" and must never break manual operations, so errors are
// reported out-of-band instead of propagated.
type ErrorFunc func(repoID string, err error)

type repoWatch struct {
	id     string
	root   string
	gitDir string
	timer  *time.Timer
}

// Watcher multiplexes one fsnotify instance across all watched
// repositories.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	refresh  RefreshFunc
	onError  ErrorFunc
	log      *slog.Logger

	mu     sync.Mutex
	repos  map[string]*repoWatch
	closed bool

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New creates a Watcher. The refresh callback fires after the debounce
// window closes; onError may be nil.
func New(debounce time.Duration, refresh RefreshFunc, onError ErrorFunc, log *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		refresh:  refresh,
		onError:  onError,
		log:      log,
		repos:    make(map[string]*repoWatch),
		closeCh:  make(chan struct{}),
	}

	w.wg.Add(1)
	go w.processLoop()

	return w, nil
}

// StartWatching begins observing a repository. A second start for an
// already-watched repository is a no-op.
func (w *Watcher) StartWatching(repoID, repoPath string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fsnotify.ErrClosed
	}
	if _, ok := w.repos[repoID]; ok {
		return nil
	}

	root, err := filepath.Abs(repoPath)
	if err != nil {
		return err
	}

	rw := &repoWatch{
		id:     repoID,
		root:   root,
		gitDir: gitstatus.GitDir(root),
	}

	if err := w.addWorktree(root); err != nil {
		return err
	}
	w.addGitDir(rw.gitDir)

	w.repos[repoID] = rw
	w.log.Debug("watching repository", "repo", repoID, "path", root)
	return nil
}

// StopWatching stops observing a repository and cancels any pending
// debounce. Unknown ids are a no-op.
func (w *Watcher) StopWatching(repoID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rw, ok := w.repos[repoID]
	if !ok {
		return
	}
	if rw.timer != nil {
		rw.timer.Stop()
	}
	delete(w.repos, repoID)

	// Remove watches under this repository's roots. Errors are ignored:
	// directories may already be gone.
	for _, watched := range w.fsw.WatchList() {
		if underPath(watched, rw.root) || (rw.gitDir != "" && underPath(watched, rw.gitDir)) {
			_ = w.fsw.Remove(watched)
		}
	}
}

// Close stops all watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, rw := range w.repos {
		if rw.timer != nil {
			rw.timer.Stop()
		}
	}
	w.mu.Unlock()

	close(w.closeCh)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// addWorktree watches every directory under root except git metadata and
// noisy build/dependency directories.
func (w *Watcher) addWorktree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep walking
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (name == ".git" || noisyDirs[name]) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			w.log.Debug("watch add failed", "path", path, "error", addErr)
		}
		return nil
	})
}

// addGitDir watches the metadata directory itself plus the refs tree. The
// rebase marker directories need no watch of their own: their creation is
// an event on the metadata directory.
func (w *Watcher) addGitDir(gitDir string) {
	if gitDir == "" {
		return
	}
	if err := w.fsw.Add(gitDir); err != nil {
		w.log.Debug("watch add failed", "path", gitDir, "error", err)
		return
	}
	refs := filepath.Join(gitDir, "refs")
	_ = filepath.WalkDir(refs, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		_ = w.fsw.Add(path)
		return nil
	})
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("filesystem watcher error", "error", err)
			if w.onError != nil {
				w.onError("", err)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Chmod-only events carry no content change worth a refresh.
	if event.Op == fsnotify.Chmod {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, rw := range w.repos {
		if !w.qualifies(rw, event.Name) {
			continue
		}

		// newly created directories join the watch set
		if event.Op.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !noisyDirs[filepath.Base(event.Name)] {
				_ = w.fsw.Add(event.Name)
			}
		}

		w.armTimerLocked(rw)
		return
	}
}

// qualifies reports whether an event path is relevant to a repository:
// anywhere in the working tree outside noisy directories, or on the git
// metadata allow-list (HEAD, index, refs, rebase markers).
func (w *Watcher) qualifies(rw *repoWatch, path string) bool {
	if rw.gitDir != "" && underPath(path, rw.gitDir) {
		rel, err := filepath.Rel(rw.gitDir, path)
		if err != nil {
			return false
		}
		return rel == "HEAD" || rel == "index" ||
			rel == "refs" || strings.HasPrefix(rel, "refs"+string(filepath.Separator)) ||
			rel == "rebase-merge" || strings.HasPrefix(rel, "rebase-merge"+string(filepath.Separator)) ||
			rel == "rebase-apply" || strings.HasPrefix(rel, "rebase-apply"+string(filepath.Separator))
	}

	if !underPath(path, rw.root) {
		return false
	}
	rel, err := filepath.Rel(rw.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == ".git" || noisyDirs[part] {
			return false
		}
	}
	return true
}

// armTimerLocked resets the repository's debounce timer. Resetting means
// cancel-and-reschedule: there is never more than one live timer per
// repository. Called with w.mu held.
func (w *Watcher) armTimerLocked(rw *repoWatch) {
	if rw.timer != nil {
		rw.timer.Stop()
	}
	id, root := rw.id, rw.root
	rw.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		current, ok := w.repos[id]
		closed := w.closed
		w.mu.Unlock()
		if closed || !ok || current != rw {
			return
		}
		w.refresh(id, root)
	})
}

// underPath reports whether path is target or inside it.
func underPath(path, target string) bool {
	if path == target {
		return true
	}
	return strings.HasPrefix(path, target+string(filepath.Separator))
}
