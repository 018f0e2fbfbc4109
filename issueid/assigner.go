// Package issueid assigns the human readable, per-project task identifiers
// of the form CODE-N.
//
// The next number is derived from the most recently created task in the
// project: one more than its numeric suffix, or, when that identifier has no
// numeric suffix or the suffix cannot be incremented, the number of tasks
// already in the project. The second
// branch does not add one and can therefore repeat an existing number; it is
// kept as-is because existing data depends on it. There is no locking: the
// unique constraint on issue_id in storage rejects concurrent duplicates.
package issueid

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"task-tracker/backend/models"
)

// Source is the read side the assigner needs. Storage backends implement it
// on whatever handle the insert will use (a transaction for SQL).
type Source interface {
	// LatestIssueID returns the issue id of the task with the highest id in
	// the project. ok is false when the project has no tasks.
	LatestIssueID(ctx context.Context, projectID int64) (issueID string, ok bool, err error)
	CountTasks(ctx context.Context, projectID int64) (int64, error)
}

// Assign sets task.IssueID when it is empty. A non-empty IssueID is left
// untouched.
func Assign(ctx context.Context, src Source, task *models.Task, projectCode string) error {
	if task.IssueID != "" {
		return nil
	}
	n, err := Next(ctx, src, task.ProjectID)
	if err != nil {
		return err
	}
	task.IssueID = Format(projectCode, n)
	return nil
}

// Next computes the sequence number for the next task of projectID.
func Next(ctx context.Context, src Source, projectID int64) (int64, error) {
	latest, ok, err := src.LatestIssueID(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("latest issue id: %w", err)
	}
	if !ok {
		return 1, nil
	}
	if n, ok := Parse(latest); ok && n < math.MaxInt64 {
		return n + 1, nil
	}
	count, err := src.CountTasks(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

// Parse extracts the integer after the last '-'.
func Parse(issueID string) (int64, bool) {
	i := strings.LastIndex(issueID, "-")
	if i < 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(issueID[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func Format(projectCode string, n int64) string {
	return fmt.Sprintf("%s-%d", projectCode, n)
}
