package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"task-tracker/backend/models"
	"task-tracker/backend/repositories/sqlrepo"
)

type env struct {
	store    *sqlrepo.Store
	admin    *models.User
	member   *models.User
	outsider *models.User
	project  *models.Project
	todo     *models.Status
	done     *models.Status
	low      *models.Priority
	high     *models.Priority
}

func fixedClock(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time { return time.Date(2024, 11, 20, 10, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fixedClock(t)
	ctx := context.Background()
	store, err := sqlrepo.Open(ctx, sqlrepo.SQLite, filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	e := &env{store: store}
	mkUser := func(name string, role models.Role) *models.User {
		u := &models.User{Username: name, Email: name + "@example.com", Role: role, IsActive: true, CreatedAt: now(), UpdatedAt: now()}
		require.NoError(t, store.CreateUser(ctx, u))
		return u
	}
	e.admin = mkUser("admin", models.RoleAdmin)
	e.member = mkUser("member", models.RoleUser)
	e.outsider = mkUser("outsider", models.RoleUser)

	e.todo = &models.Status{Name: "To Do"}
	e.done = &models.Status{Name: "Done"}
	e.low = &models.Priority{Level: "Low"}
	e.high = &models.Priority{Level: "High"}
	require.NoError(t, store.CreateStatus(ctx, e.todo))
	require.NoError(t, store.CreateStatus(ctx, e.done))
	require.NoError(t, store.CreatePriority(ctx, e.low))
	require.NoError(t, store.CreatePriority(ctx, e.high))

	e.project = &models.Project{Name: "Tracker", Code: "prj", MemberIDs: []int64{e.member.ID}, CreatedAt: now(), UpdatedAt: now()}
	require.NoError(t, store.CreateProject(ctx, e.project))
	return e
}

func ptr[T any](v T) *T { return &v }

// recordingNotifier remembers who was notified about what.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) TaskAssigned(_ context.Context, task *models.Task, assignee *models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, assignee.Username+":"+task.IssueID)
}
