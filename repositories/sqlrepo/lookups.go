package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"task-tracker/backend/models"
	"task-tracker/backend/repositories"
)

// lookup describes one of the small id/label tables.
type lookup struct {
	table  string
	column string
	// taskColumn is the tasks column referencing the table, if any.
	taskColumn string
}

var (
	positionsTable  = lookup{table: "positions", column: "name"}
	statusesTable   = lookup{table: "statuses", column: "name", taskColumn: "status_id"}
	prioritiesTable = lookup{table: "priorities", column: "level", taskColumn: "priority_id"}
)

func (s *Store) createLookup(ctx context.Context, l lookup, label string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO `+l.table+` (`+l.column+`) VALUES (?)`, label)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", l.table, classify(err))
	}
	return res.LastInsertId()
}

func (s *Store) getLookup(ctx context.Context, l lookup, id int64) (string, error) {
	var label string
	err := s.db.QueryRowContext(ctx, `SELECT `+l.column+` FROM `+l.table+` WHERE id = ?`, id).Scan(&label)
	return label, classify(err)
}

func (s *Store) listLookup(ctx context.Context, l lookup, each func(id int64, label string)) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, `+l.column+` FROM `+l.table+` ORDER BY id`)
	if err != nil {
		return fmt.Errorf("list %s: %w", l.table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    int64
			label string
		)
		if err := rows.Scan(&id, &label); err != nil {
			return err
		}
		each(id, label)
	}
	return rows.Err()
}

func (s *Store) updateLookup(ctx context.Context, l lookup, id int64, label string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE `+l.table+` SET `+l.column+` = ? WHERE id = ?`, label, id)
	if err != nil {
		return fmt.Errorf("update %s: %w", l.table, classify(err))
	}
	return affectedOrNotFound(res)
}

// deleteLookup moves referencing tasks to the lowest remaining id before
// deleting. Positions only detach their users.
func (s *Store) deleteLookup(ctx context.Context, l lookup, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if l.taskColumn != "" {
			var refs int64
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE `+l.taskColumn+` = ?`, id).Scan(&refs); err != nil {
				return err
			}
			if refs > 0 {
				var fallback sql.NullInt64
				if err := tx.QueryRowContext(ctx, `SELECT MIN(id) FROM `+l.table+` WHERE id <> ?`, id).Scan(&fallback); err != nil {
					return err
				}
				if !fallback.Valid {
					return fmt.Errorf("delete %s %d: %w", l.table, id, repositories.ErrInUse)
				}
				if _, err := tx.ExecContext(ctx, `UPDATE tasks SET `+l.taskColumn+` = ? WHERE `+l.taskColumn+` = ?`, fallback.Int64, id); err != nil {
					return fmt.Errorf("reassign tasks: %w", classify(err))
				}
			}
		}
		if l.table == positionsTable.table {
			if _, err := tx.ExecContext(ctx, `UPDATE users SET position_id = NULL WHERE position_id = ?`, id); err != nil {
				return fmt.Errorf("detach users: %w", classify(err))
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM `+l.table+` WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete %s: %w", l.table, classify(err))
		}
		return affectedOrNotFound(res)
	})
}

func (s *Store) CreatePosition(ctx context.Context, p *models.Position) (err error) {
	p.ID, err = s.createLookup(ctx, positionsTable, p.Name)
	return err
}

func (s *Store) GetPosition(ctx context.Context, id int64) (*models.Position, error) {
	name, err := s.getLookup(ctx, positionsTable, id)
	if err != nil {
		return nil, err
	}
	return &models.Position{ID: id, Name: name}, nil
}

func (s *Store) ListPositions(ctx context.Context) ([]models.Position, error) {
	out := []models.Position{}
	err := s.listLookup(ctx, positionsTable, func(id int64, label string) {
		out = append(out, models.Position{ID: id, Name: label})
	})
	return out, err
}

func (s *Store) UpdatePosition(ctx context.Context, p *models.Position) error {
	return s.updateLookup(ctx, positionsTable, p.ID, p.Name)
}

func (s *Store) DeletePosition(ctx context.Context, id int64) error {
	return s.deleteLookup(ctx, positionsTable, id)
}

func (s *Store) CreateStatus(ctx context.Context, st *models.Status) (err error) {
	st.ID, err = s.createLookup(ctx, statusesTable, st.Name)
	return err
}

func (s *Store) GetStatus(ctx context.Context, id int64) (*models.Status, error) {
	name, err := s.getLookup(ctx, statusesTable, id)
	if err != nil {
		return nil, err
	}
	return &models.Status{ID: id, Name: name}, nil
}

func (s *Store) ListStatuses(ctx context.Context) ([]models.Status, error) {
	out := []models.Status{}
	err := s.listLookup(ctx, statusesTable, func(id int64, label string) {
		out = append(out, models.Status{ID: id, Name: label})
	})
	return out, err
}

func (s *Store) UpdateStatus(ctx context.Context, st *models.Status) error {
	return s.updateLookup(ctx, statusesTable, st.ID, st.Name)
}

func (s *Store) DeleteStatus(ctx context.Context, id int64) error {
	return s.deleteLookup(ctx, statusesTable, id)
}

func (s *Store) CreatePriority(ctx context.Context, p *models.Priority) (err error) {
	p.ID, err = s.createLookup(ctx, prioritiesTable, p.Level)
	return err
}

func (s *Store) GetPriority(ctx context.Context, id int64) (*models.Priority, error) {
	level, err := s.getLookup(ctx, prioritiesTable, id)
	if err != nil {
		return nil, err
	}
	return &models.Priority{ID: id, Level: level}, nil
}

func (s *Store) ListPriorities(ctx context.Context) ([]models.Priority, error) {
	out := []models.Priority{}
	err := s.listLookup(ctx, prioritiesTable, func(id int64, label string) {
		out = append(out, models.Priority{ID: id, Level: label})
	})
	return out, err
}

func (s *Store) UpdatePriority(ctx context.Context, p *models.Priority) error {
	return s.updateLookup(ctx, prioritiesTable, p.ID, p.Level)
}

func (s *Store) DeletePriority(ctx context.Context, id int64) error {
	return s.deleteLookup(ctx, prioritiesTable, id)
}
