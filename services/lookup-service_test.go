package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/backend/repositories"
)

func TestLookupWritesAdminOnly(t *testing.T) {
	e := newEnv(t)
	svc := NewLookupService(e.store)
	ctx := context.Background()

	_, err := svc.CreateStatus(ctx, e.member, LabelInput{Name: ptr("Review")})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.CreatePriority(ctx, nil, LabelInput{Level: ptr("Urgent")})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, svc.DeleteStatus(ctx, e.member, e.todo.ID), ErrForbidden)

	statuses, err := svc.ListStatuses(ctx)
	require.NoError(t, err)
	assert.Len(t, statuses, 2)
}

func TestLookupLabelValidation(t *testing.T) {
	e := newEnv(t)
	svc := NewLookupService(e.store)
	ctx := context.Background()

	_, err := svc.CreatePriority(ctx, e.admin, LabelInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{msgRequired}, verr.Fields["level"])

	_, err = svc.CreateStatus(ctx, e.admin, LabelInput{Name: ptr(strings.Repeat("s", 51))})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{msgMaxLength(50)}, verr.Fields["name"])

	_, err = svc.CreateStatus(ctx, e.admin, LabelInput{Name: ptr("Done")})
	assert.ErrorIs(t, err, repositories.ErrConflict)
}

func TestLookupDeleteMovesTasks(t *testing.T) {
	e := newEnv(t)
	svc := NewLookupService(e.store)
	tasks := NewTaskService(e.store, nil)
	ctx := context.Background()

	task, err := tasks.Create(ctx, e.member, TaskInput{Title: ptr("x"), ProjectID: &e.project.ID, StatusID: &e.done.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStatus(ctx, e.admin, e.done.ID))
	got, err := tasks.Get(ctx, e.member, task.ID)
	require.NoError(t, err)
	assert.Equal(t, e.todo.ID, got.StatusID)

	assert.ErrorIs(t, svc.DeleteStatus(ctx, e.admin, e.todo.ID), repositories.ErrInUse)
}

func TestLookupUpdate(t *testing.T) {
	e := newEnv(t)
	svc := NewLookupService(e.store)

	p, err := svc.UpdatePriority(context.Background(), e.admin, e.high.ID, LabelInput{Level: ptr("Critical")})
	require.NoError(t, err)
	assert.Equal(t, "Critical", p.Level)

	_, err = svc.UpdatePriority(context.Background(), e.admin, 999, LabelInput{Level: ptr("x")})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
