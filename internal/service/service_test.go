package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bjacobin3d/githulu/internal/config"
	githuluerrors "github.com/bjacobin3d/githulu/internal/errors"
	"github.com/bjacobin3d/githulu/internal/registry"
	"github.com/bjacobin3d/githulu/internal/testhelper"
)

func newService(t *testing.T) *Service {
	t.Helper()

	cfg := config.Default()
	cfg.DebounceMs = 50

	reg, err := registry.Open(t.TempDir() + "/repos.json")
	require.NoError(t, err)

	svc, err := New(cfg, reg, nil)
	require.NoError(t, err)
	t.Cleanup(svc.Shutdown)
	return svc
}

func addRepo(t *testing.T, svc *Service) (*testhelper.Repo, registry.Repo) {
	t.Helper()

	repo := testhelper.NewRepo(t)
	repo.CommitFile(t, "README.md", "hello\n", "initial commit")

	added, err := svc.Registry().AddRepo("primary", repo.Dir)
	require.NoError(t, err)
	return repo, added
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()

	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestRefreshStatus(t *testing.T) {
	svc := newService(t)
	repo, added := addRepo(t, svc)

	require.Nil(t, svc.GetCachedStatus(added.ID))

	events, cancel := svc.Events().Subscribe(EventStatusUpdated)
	defer cancel()

	repo.WriteFile(t, "scratch.txt", "wip\n")

	status, err := svc.RefreshStatus(context.Background(), added.ID)
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, "main", status.Snapshot.Branch)
	require.False(t, status.Rebase.InProgress)
	require.Len(t, status.Snapshot.Changes.Untracked, 1)
	require.Equal(t, "scratch.txt", status.Snapshot.Changes.Untracked[0].Path)
	require.False(t, status.LastUpdatedAt.IsZero())

	ev := waitEvent(t, events)
	require.Equal(t, EventStatusUpdated, ev.Kind)
	require.Equal(t, added.ID, ev.RepoID)
	require.NotNil(t, ev.Status)

	cached := svc.GetCachedStatus(added.ID)
	require.NotNil(t, cached)
	require.Equal(t, status.LastUpdatedAt, cached.LastUpdatedAt)
}

func TestRefreshStatusUnknownRepo(t *testing.T) {
	svc := newService(t)

	_, err := svc.RefreshStatus(context.Background(), "no-such-id")
	require.ErrorIs(t, err, githuluerrors.ErrRepoNotFound)
}

func TestListBranches(t *testing.T) {
	svc := newService(t)
	repo, added := addRepo(t, svc)
	repo.Git(t, "branch", "feature/one")

	branches, err := svc.ListBranches(context.Background(), added.ID)
	require.NoError(t, err)
	require.Len(t, branches, 2)

	names := []string{branches[0].Name, branches[1].Name}
	require.Contains(t, names, "main")
	require.Contains(t, names, "feature/one")
}

func TestListStashes(t *testing.T) {
	svc := newService(t)
	repo, added := addRepo(t, svc)

	repo.WriteFile(t, "README.md", "changed\n")
	repo.Git(t, "stash", "push", "-m", "wip work")

	stashes, err := svc.ListStashes(context.Background(), added.ID)
	require.NoError(t, err)
	require.Len(t, stashes, 1)
	require.Contains(t, stashes[0].Message, "wip work")
}

func TestWatchTriggersRefresh(t *testing.T) {
	svc := newService(t)
	repo, added := addRepo(t, svc)

	events, cancel := svc.Events().Subscribe(EventStatusUpdated)
	defer cancel()

	require.NoError(t, svc.Watch(added.ID))
	repo.WriteFile(t, "watched.txt", "change\n")

	ev := waitEvent(t, events)
	require.Equal(t, added.ID, ev.RepoID)
	require.NotNil(t, ev.Status)

	svc.Unwatch(added.ID)
}

func TestRemoveRepo(t *testing.T) {
	svc := newService(t)
	_, added := addRepo(t, svc)

	_, err := svc.RefreshStatus(context.Background(), added.ID)
	require.NoError(t, err)
	require.NotNil(t, svc.GetCachedStatus(added.ID))

	require.NoError(t, svc.RemoveRepo(added.ID))
	require.Nil(t, svc.GetCachedStatus(added.ID))
	_, err = svc.Registry().GetRepo(added.ID)
	require.ErrorIs(t, err, githuluerrors.ErrRepoNotFound)
}

func TestShutdownRejectsNewWork(t *testing.T) {
	svc := newService(t)
	_, added := addRepo(t, svc)

	svc.Shutdown()

	_, err := svc.RefreshStatus(context.Background(), added.ID)
	require.ErrorIs(t, err, githuluerrors.ErrShuttingDown)
}
