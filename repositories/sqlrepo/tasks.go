package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"task-tracker/backend/issueid"
	"task-tracker/backend/models"
)

const taskColumns = `id, issue_id, title, description, project_id, creator_id, assignee_id, status_id, priority_id, due_date, created_at, updated_at`

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t        models.Task
		assignee sql.NullInt64
		due      sql.NullTime
	)
	err := row.Scan(&t.ID, &t.IssueID, &t.Title, &t.Description, &t.ProjectID, &t.CreatorID,
		&assignee, &t.StatusID, &t.PriorityID, &due, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	t.AssigneeID = intPtr(assignee)
	t.DueDate = timePtr(due)
	return &t, nil
}

// issueSource reads the project's existing issue ids through the handle
// that will run the insert.
type issueSource struct {
	q querier
}

func (s issueSource) LatestIssueID(ctx context.Context, projectID int64) (string, bool, error) {
	var id string
	err := s.q.QueryRowContext(ctx,
		`SELECT issue_id FROM tasks WHERE project_id = ? ORDER BY id DESC LIMIT 1`, projectID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s issueSource) CountTasks(ctx context.Context, projectID int64) (int64, error) {
	var n int64
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE project_id = ?`, projectID).Scan(&n)
	return n, err
}

func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var code string
		err := tx.QueryRowContext(ctx, `SELECT code FROM projects WHERE id = ?`, t.ProjectID).Scan(&code)
		if err != nil {
			return fmt.Errorf("load project %d: %w", t.ProjectID, classify(err))
		}
		if err := issueid.Assign(ctx, issueSource{q: tx}, t, code); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (issue_id, title, description, project_id, creator_id, assignee_id,
				status_id, priority_id, due_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.IssueID, t.Title, t.Description, t.ProjectID, t.CreatorID, nullInt(t.AssigneeID),
			t.StatusID, t.PriorityID, nullTime(t.DueDate), t.CreatedAt.UTC(), t.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("create task %s: %w", t.IssueID, classify(err))
		}
		t.ID, err = res.LastInsertId()
		return err
	})
}

func (s *Store) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	return scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
}

func (s *Store) GetTaskByIssueID(ctx context.Context, issueID string) (*models.Task, error) {
	return scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE issue_id = ?`, issueID))
}

func (s *Store) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v *int64) {
		if v != nil {
			where = append(where, cond)
			args = append(args, *v)
		}
	}
	add("project_id = ?", f.ProjectID)
	add("project_id <> ?", f.NotProjectID)
	add("status_id = ?", f.StatusID)
	add("status_id <> ?", f.NotStatusID)
	add("assignee_id = ?", f.AssigneeID)
	if f.NotAssigneeID != nil {
		where = append(where, "(assignee_id IS NULL OR assignee_id <> ?)")
		args = append(args, *f.NotAssigneeID)
	}
	if f.Unassigned {
		where = append(where, "assignee_id IS NULL")
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(ctx context.Context, t *models.Task) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, project_id = ?, assignee_id = ?,
			status_id = ?, priority_id = ?, due_date = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, t.Description, t.ProjectID, nullInt(t.AssigneeID),
		t.StatusID, t.PriorityID, nullTime(t.DueDate), t.UpdatedAt.UTC(), t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", classify(err))
	}
	return affectedOrNotFound(res)
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE task_id = ?`, id); err != nil {
			return fmt.Errorf("delete task comments: %w", classify(err))
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete task: %w", classify(err))
		}
		return affectedOrNotFound(res)
	})
}

var _ issueid.Source = issueSource{}
