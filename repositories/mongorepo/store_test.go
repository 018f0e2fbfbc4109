package mongorepo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/backend/models"
	"task-tracker/backend/repositories"
)

// newTestStore connects to the server named by TRACKER_TEST_MONGO_URI and
// uses a throwaway database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("TRACKER_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TRACKER_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, uri, "tracker_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestMongoIssueIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	u := &models.User{Username: "ana", Email: "ana@example.com", Role: models.RoleUser, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateUser(ctx, u))
	st := &models.Status{Name: "To Do"}
	require.NoError(t, s.CreateStatus(ctx, st))
	pr := &models.Priority{Level: "Low"}
	require.NoError(t, s.CreatePriority(ctx, pr))

	p := &models.Project{Name: "Project", Code: "prj", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateProject(ctx, p))
	assert.Equal(t, "PRJ", p.Code)

	create := func(issueID string) *models.Task {
		task := &models.Task{IssueID: issueID, Title: "t", ProjectID: p.ID, CreatorID: u.ID,
			StatusID: st.ID, PriorityID: pr.ID, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, s.CreateTask(ctx, task))
		return task
	}

	assert.Equal(t, "PRJ-1", create("").IssueID)
	second := create("")
	assert.Equal(t, "PRJ-2", second.IssueID)
	create("PRJ-x")
	assert.Equal(t, "PRJ-3", create("").IssueID)

	second.IssueID = "OTHER-1"
	require.NoError(t, s.UpdateTask(ctx, second))
	got, err := s.GetTask(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "PRJ-2", got.IssueID)

	dup := &models.Task{IssueID: "PRJ-1", Title: "dup", ProjectID: p.ID, CreatorID: u.ID, StatusID: st.ID, PriorityID: pr.ID}
	assert.ErrorIs(t, s.CreateTask(ctx, dup), repositories.ErrConflict)

	require.NoError(t, s.DeleteProject(ctx, p.ID))
	tasks, err := s.ListTasks(ctx, models.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestMongoDeleteStatusInUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := &models.User{Username: "ana", Email: "ana@example.com", Role: models.RoleUser, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateUser(ctx, u))
	st := &models.Status{Name: "To Do"}
	require.NoError(t, s.CreateStatus(ctx, st))
	pr := &models.Priority{Level: "Low"}
	require.NoError(t, s.CreatePriority(ctx, pr))
	p := &models.Project{Name: "Project", Code: "PRJ", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateProject(ctx, p))
	task := &models.Task{Title: "t", ProjectID: p.ID, CreatorID: u.ID, StatusID: st.ID, PriorityID: pr.ID, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateTask(ctx, task))

	assert.ErrorIs(t, s.DeleteStatus(ctx, st.ID), repositories.ErrInUse)

	done := &models.Status{Name: "Done"}
	require.NoError(t, s.CreateStatus(ctx, done))
	require.NoError(t, s.DeleteStatus(ctx, st.ID))
	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, done.ID, got.StatusID)
}

func TestMongoRevokeTokenOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, s.RevokeToken(ctx, "jti-1", exp))
	assert.ErrorIs(t, s.RevokeToken(ctx, "jti-1", exp), repositories.ErrConflict)

	revoked, err := s.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}
