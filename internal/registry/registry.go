// Package registry persists the set of registered repositories and their
// groups as a JSON file.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/google/uuid"

	githuluerrors "github.com/bjacobin3d/githulu/internal/errors"
)

// Repo is a registered repository.
type Repo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	GroupID string `json:"groupId,omitempty"`
}

// Group is a named collection of repositories.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type fileFormat struct {
	Repos  []Repo  `json:"repos"`
	Groups []Group `json:"groups,omitempty"`
}

// Registry is the JSON-backed repo/group store.
type Registry struct {
	path string

	mu     sync.RWMutex
	repos  []Repo
	groups []Group
}

// Open loads the registry at path, creating an empty one when the file
// does not exist yet.
func Open(path string) (*Registry, error) {
	r := &Registry{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("reading registry: %w", err)
	}

	var file fileFormat
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}
	r.repos = file.Repos
	r.groups = file.Groups
	return r, nil
}

// DefaultPath returns the per-user registry location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(base, "githulu", "repos.json"), nil
}

// AddRepo registers a repository after verifying the path actually holds
// one. Verification opens the git metadata read-only; all mutations still
// go through the git binary.
func (r *Registry) AddRepo(name, path string) (Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Repo{}, err
	}

	if _, err := gogit.PlainOpen(abs); err != nil {
		return Repo{}, fmt.Errorf("%w: %s", githuluerrors.ErrNotARepository, abs)
	}

	if name == "" {
		name = filepath.Base(abs)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.repos {
		if existing.Path == abs {
			return Repo{}, fmt.Errorf("path already registered as %q", existing.Name)
		}
		if existing.Name == name {
			return Repo{}, fmt.Errorf("name %q already in use", name)
		}
	}

	repo := Repo{
		ID:   uuid.NewString(),
		Name: name,
		Path: abs,
	}
	r.repos = append(r.repos, repo)
	if err := r.saveLocked(); err != nil {
		r.repos = r.repos[:len(r.repos)-1]
		return Repo{}, err
	}
	return repo, nil
}

// RemoveRepo deregisters a repository by id.
func (r *Registry) RemoveRepo(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, repo := range r.repos {
		if repo.ID == id {
			r.repos = append(r.repos[:i], r.repos[i+1:]...)
			return r.saveLocked()
		}
	}
	return githuluerrors.NewRepoNotFoundError(id)
}

// GetRepo looks a repository up by id.
func (r *Registry) GetRepo(id string) (Repo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, repo := range r.repos {
		if repo.ID == id {
			return repo, nil
		}
	}
	return Repo{}, githuluerrors.NewRepoNotFoundError(id)
}

// FindByName looks a repository up by its registered name.
func (r *Registry) FindByName(name string) (Repo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, repo := range r.repos {
		if repo.Name == name {
			return repo, nil
		}
	}
	return Repo{}, githuluerrors.NewRepoNotFoundError(name)
}

// Repos returns all registered repositories.
func (r *Registry) Repos() []Repo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Repo, len(r.repos))
	copy(out, r.repos)
	return out
}

// AddGroup creates a named group.
func (r *Registry) AddGroup(name string) (Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range r.groups {
		if g.Name == name {
			return Group{}, fmt.Errorf("group %q already exists", name)
		}
	}
	group := Group{ID: uuid.NewString(), Name: name}
	r.groups = append(r.groups, group)
	if err := r.saveLocked(); err != nil {
		r.groups = r.groups[:len(r.groups)-1]
		return Group{}, err
	}
	return group, nil
}

// RemoveGroup deletes a group and unassigns its repositories.
func (r *Registry) RemoveGroup(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, g := range r.groups {
		if g.ID == id {
			r.groups = append(r.groups[:i], r.groups[i+1:]...)
			for j := range r.repos {
				if r.repos[j].GroupID == id {
					r.repos[j].GroupID = ""
				}
			}
			return r.saveLocked()
		}
	}
	return fmt.Errorf("group %s not found", id)
}

// Groups returns all groups.
func (r *Registry) Groups() []Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Group, len(r.groups))
	copy(out, r.groups)
	return out
}

// AssignGroup moves a repository into a group. An empty groupID clears
// the assignment.
func (r *Registry) AssignGroup(repoID, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if groupID != "" {
		found := false
		for _, g := range r.groups {
			if g.ID == groupID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("group %s not found", groupID)
		}
	}

	for i := range r.repos {
		if r.repos[i].ID == repoID {
			r.repos[i].GroupID = groupID
			return r.saveLocked()
		}
	}
	return githuluerrors.NewRepoNotFoundError(repoID)
}

// saveLocked writes the registry atomically: temp file then rename.
// Called with r.mu held.
func (r *Registry) saveLocked() error {
	data, err := json.MarshalIndent(fileFormat{Repos: r.repos, Groups: r.groups}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replacing registry: %w", err)
	}
	return nil
}
