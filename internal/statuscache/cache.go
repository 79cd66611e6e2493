// Package statuscache holds the most recently computed status per
// repository for instant reads.
package statuscache

import (
	"sync"

	"github.com/bjacobin3d/githulu/internal/gitstatus"
)

// Cache maps repository ids to their latest status snapshot. Writes are
// timestamp-guarded: a refresh that completes after a newer one has
// already landed must not overwrite it, even though the scheduler's strict
// per-repo serialization makes that ordering impossible today. The guard
// keeps the cache correct under any future scheduler that relaxes
// serialization.
type Cache struct {
	mu       sync.RWMutex
	statuses map[string]*gitstatus.RepoStatus
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		statuses: make(map[string]*gitstatus.RepoStatus),
	}
}

// Get returns the cached status for a repository, or nil when none has
// been computed yet.
func (c *Cache) Get(repoID string) *gitstatus.RepoStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statuses[repoID]
}

// Put stores a status unless a strictly newer one is already cached.
// Returns true when the write was accepted.
func (c *Cache) Put(status *gitstatus.RepoStatus) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.statuses[status.RepoID]; ok {
		if !status.LastUpdatedAt.After(existing.LastUpdatedAt) {
			return false
		}
	}
	c.statuses[status.RepoID] = status
	return true
}

// Remove drops the cached status when a repository is deregistered.
func (c *Cache) Remove(repoID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.statuses, repoID)
}
