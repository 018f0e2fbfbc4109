package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"task-tracker/backend/models"
)

const projectColumns = `id, name, code, description, created_at, updated_at`

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	if err := row.Scan(&p.ID, &p.Name, &p.Code, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	p.NormalizeCode()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO projects (name, code, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			p.Name, p.Code, p.Description, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("create project: %w", classify(err))
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		return insertMembers(ctx, tx, p.ID, p.MemberIDs)
	})
}

func insertMembers(ctx context.Context, q querier, projectID int64, members []int64) error {
	seen := make(map[int64]bool, len(members))
	for _, uid := range members {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		if _, err := q.ExecContext(ctx, `INSERT INTO project_members (project_id, user_id) VALUES (?, ?)`, projectID, uid); err != nil {
			return fmt.Errorf("add member %d: %w", uid, classify(err))
		}
	}
	return nil
}

func loadMembers(ctx context.Context, q querier, projectID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT user_id FROM project_members WHERE project_id = ? ORDER BY user_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	members := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if p.MemberIDs, err = loadMembers(ctx, s.db, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// The rows must be released before the member queries; SQLite runs on a
	// single connection.
	rows.Close()

	for i := range projects {
		if projects[i].MemberIDs, err = loadMembers(ctx, s.db, projects[i].ID); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

func (s *Store) UpdateProject(ctx context.Context, p *models.Project) error {
	p.NormalizeCode()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE projects SET name = ?, code = ?, description = ?, updated_at = ?
			WHERE id = ?`,
			p.Name, p.Code, p.Description, p.UpdatedAt.UTC(), p.ID)
		if err != nil {
			return fmt.Errorf("update project: %w", classify(err))
		}
		if err := affectedOrNotFound(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = ?`, p.ID); err != nil {
			return fmt.Errorf("clear members: %w", err)
		}
		return insertMembers(ctx, tx, p.ID, p.MemberIDs)
	})
}

func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			`DELETE FROM comments WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)`,
			`DELETE FROM tasks WHERE project_id = ?`,
			`DELETE FROM project_members WHERE project_id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("delete project dependents: %w", classify(err))
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete project: %w", classify(err))
		}
		return affectedOrNotFound(res)
	})
}

func (s *Store) IsProjectMember(ctx context.Context, projectID, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
