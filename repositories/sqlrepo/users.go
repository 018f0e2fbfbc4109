package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"task-tracker/backend/models"
)

const userColumns = `id, username, email, password, first_name, last_name, position_id, role, avatar, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u        models.User
		position sql.NullInt64
		role     string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&position, &role, &u.Avatar, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	u.PositionID = intPtr(position)
	u.Role = models.Role(role)
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password, first_name, last_name, position_id, role, avatar, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, nullInt(u.PositionID),
		string(u.Role), u.Avatar, u.IsActive, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create user: %w", classify(err))
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET username = ?, email = ?, password = ?, first_name = ?, last_name = ?,
			position_id = ?, role = ?, avatar = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, nullInt(u.PositionID),
		string(u.Role), u.Avatar, u.IsActive, u.UpdatedAt.UTC(), u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", classify(err))
	}
	return affectedOrNotFound(res)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			`DELETE FROM comments WHERE author_id = ?`,
			`DELETE FROM comments WHERE task_id IN (SELECT id FROM tasks WHERE creator_id = ?)`,
			`DELETE FROM tasks WHERE creator_id = ?`,
			`UPDATE tasks SET assignee_id = NULL WHERE assignee_id = ?`,
			`DELETE FROM project_members WHERE user_id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("delete user dependents: %w", classify(err))
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", classify(err))
		}
		return affectedOrNotFound(res)
	})
}
