package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/backend/models"
)

func TestCommentCreateByTaskIssueID(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	task, err := NewTaskService(e.store, nil).Create(ctx, e.member, TaskInput{Title: ptr("x"), ProjectID: &e.project.ID})
	require.NoError(t, err)
	svc := NewCommentService(e.store)

	c, err := svc.Create(ctx, e.outsider, CommentInput{TaskIssueID: ptr("PRJ-1"), Text: ptr("looks good")})
	require.NoError(t, err)
	assert.Equal(t, task.ID, c.TaskID)
	assert.Equal(t, e.outsider.ID, c.AuthorID)

	list, err := svc.List(ctx, e.member, models.CommentFilter{TaskIssueID: "PRJ-1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCommentCreateValidation(t *testing.T) {
	e := newEnv(t)
	svc := NewCommentService(e.store)

	_, err := svc.Create(context.Background(), e.member, CommentInput{TaskIssueID: ptr("NOPE-1")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "task_issue_id")
	assert.Contains(t, verr.Fields, "text")

	_, err = svc.Create(context.Background(), e.member, CommentInput{Text: ptr("hi")})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "task")
}

func TestCommentAuthorOrAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	task, err := NewTaskService(e.store, nil).Create(ctx, e.member, TaskInput{Title: ptr("x"), ProjectID: &e.project.ID})
	require.NoError(t, err)
	svc := NewCommentService(e.store)

	c, err := svc.Create(ctx, e.member, CommentInput{TaskID: &task.ID, Text: ptr("mine")})
	require.NoError(t, err)

	_, err = svc.Update(ctx, e.outsider, c.ID, CommentInput{Text: ptr("theirs")})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, e.outsider, c.ID), ErrForbidden)

	updated, err := svc.Update(ctx, e.member, c.ID, CommentInput{Text: ptr("edited"), TaskID: ptr(int64(999))})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)
	assert.Equal(t, task.ID, updated.TaskID)

	assert.NoError(t, svc.Delete(ctx, e.admin, c.ID))
}
