package sqlrepo

import (
	"context"
	"fmt"
	"strings"

	"task-tracker/backend/models"
)

const commentColumns = `id, task_id, author_id, text, attachment, created_at, updated_at`

func scanComment(row rowScanner) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Text, &c.Attachment, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (task_id, author_id, text, attachment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.TaskID, c.AuthorID, c.Text, c.Attachment, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create comment: %w", classify(err))
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	return scanComment(s.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id))
}

func (s *Store) ListComments(ctx context.Context, f models.CommentFilter) ([]models.Comment, error) {
	var (
		where []string
		args  []any
	)
	if f.TaskID != nil {
		where = append(where, "task_id = ?")
		args = append(args, *f.TaskID)
	}
	if f.TaskIssueID != "" {
		where = append(where, "task_id IN (SELECT id FROM tasks WHERE issue_id = ?)")
		args = append(args, f.TaskIssueID)
	}

	query := `SELECT ` + commentColumns + ` FROM comments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// UpdateComment rewrites text and attachment; task and author are fixed.
func (s *Store) UpdateComment(ctx context.Context, c *models.Comment) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE comments SET text = ?, attachment = ?, updated_at = ? WHERE id = ?`,
		c.Text, c.Attachment, c.UpdatedAt.UTC(), c.ID)
	if err != nil {
		return fmt.Errorf("update comment: %w", classify(err))
	}
	return affectedOrNotFound(res)
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", classify(err))
	}
	return affectedOrNotFound(res)
}
