package issueid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/backend/models"
)

// fakeSource holds the issue ids of one project in creation order.
type fakeSource struct {
	ids      []string
	err      error
	countHit bool
}

func (f *fakeSource) LatestIssueID(_ context.Context, _ int64) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	if len(f.ids) == 0 {
		return "", false, nil
	}
	return f.ids[len(f.ids)-1], true, nil
}

func (f *fakeSource) CountTasks(_ context.Context, _ int64) (int64, error) {
	f.countHit = true
	return int64(len(f.ids)), nil
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name      string
		existing  []string
		want      string
		wantCount bool
	}{
		{name: "first task", existing: nil, want: "PRJ-1"},
		{name: "after numbered task", existing: []string{"PRJ-1"}, want: "PRJ-2"},
		{name: "after seven", existing: []string{"PRJ-1", "PRJ-7"}, want: "PRJ-8"},
		{name: "only latest matters", existing: []string{"PRJ-40", "PRJ-3"}, want: "PRJ-4"},
		{name: "other prefix still parses", existing: []string{"OLD-12"}, want: "PRJ-13"},
		{name: "no dash falls back to count", existing: []string{"invalid"}, want: "PRJ-1", wantCount: true},
		{name: "non numeric suffix falls back to count", existing: []string{"PRJ-abc"}, want: "PRJ-1", wantCount: true},
		{name: "count fallback is not incremented", existing: []string{"PRJ-1", "PRJ-2", "PRJ-x"}, want: "PRJ-3", wantCount: true},
		{name: "max suffix falls back to count", existing: []string{"PRJ-1", "PRJ-9223372036854775807"}, want: "PRJ-2", wantCount: true},
		{name: "empty latest id falls back to count", existing: []string{"PRJ-1", ""}, want: "PRJ-2", wantCount: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{ids: tt.existing}
			task := &models.Task{ProjectID: 1}

			require.NoError(t, Assign(context.Background(), src, task, "PRJ"))
			assert.Equal(t, tt.want, task.IssueID)
			assert.Equal(t, tt.wantCount, src.countHit)
		})
	}
}

func TestAssignKeepsExistingIssueID(t *testing.T) {
	src := &fakeSource{err: errors.New("must not be called")}
	task := &models.Task{ProjectID: 1, IssueID: "PRJ-99"}

	require.NoError(t, Assign(context.Background(), src, task, "PRJ"))
	assert.Equal(t, "PRJ-99", task.IssueID)
}

func TestAssignPropagatesSourceErrors(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	task := &models.Task{ProjectID: 1}

	err := Assign(context.Background(), src, task, "PRJ")
	assert.ErrorContains(t, err, "boom")
	assert.Empty(t, task.IssueID)
}

func TestParse(t *testing.T) {
	n, ok := Parse("ABC-DEF-42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	_, ok = Parse("ABC-")
	assert.False(t, ok)

	_, ok = Parse("ABC42")
	assert.False(t, ok)
}
