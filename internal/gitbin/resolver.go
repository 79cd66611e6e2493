// Package gitbin locates the git executable used by the engine.
//
// Resolution happens once per process: well-known install locations are
// probed first, then $PATH. The result is cached for the lifetime of the
// Resolver.
package gitbin

import (
	"os"
	"os/exec"
	"sync"

	githuluerrors "github.com/bjacobin3d/githulu/internal/errors"
)

// wellKnownPaths are probed before falling back to a $PATH lookup.
var wellKnownPaths = []string{
	"/usr/bin/git",
	"/usr/local/bin/git",
	"/opt/homebrew/bin/git",
}

// Resolver locates and caches the path to the git executable.
type Resolver struct {
	once sync.Once
	path string
	err  error
}

// NewResolver creates a Resolver. Resolution is deferred until the first
// call to Resolve.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the path to the git executable. The first successful
// resolution is cached; subsequent calls return the same result without
// touching the filesystem. A failure is also cached: there is no point
// re-probing within a single process lifetime.
func (r *Resolver) Resolve() (string, error) {
	r.once.Do(func() {
		r.path, r.err = resolve()
	})
	return r.path, r.err
}

func resolve() (string, error) {
	for _, candidate := range wellKnownPaths {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0111 == 0 {
			continue
		}
		return candidate, nil
	}

	path, err := exec.LookPath("git")
	if err != nil {
		return "", githuluerrors.ErrGitNotFound
	}
	return path, nil
}
