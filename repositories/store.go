package repositories

import (
	"context"
	"errors"
	"time"

	"task-tracker/backend/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict wraps unique-constraint violations.
	ErrConflict = errors.New("conflict")
	// ErrInUse is returned when a lookup row is still referenced and there is
	// no fallback row to move the references to.
	ErrInUse = errors.New("still referenced")
)

// Store is the persistence boundary shared by every backend.
//
// Deletes apply the relationship policies explicitly:
//   - project: its tasks, their comments and its memberships go with it
//   - task: its comments go with it
//   - user: created tasks (with comments), authored comments and memberships
//     are removed, assigned tasks become unassigned
//   - position: users keep existing with no position
//   - status, priority: tasks move to the lowest remaining id
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error

	CreatePosition(ctx context.Context, p *models.Position) error
	GetPosition(ctx context.Context, id int64) (*models.Position, error)
	ListPositions(ctx context.Context) ([]models.Position, error)
	UpdatePosition(ctx context.Context, p *models.Position) error
	DeletePosition(ctx context.Context, id int64) error

	CreateStatus(ctx context.Context, s *models.Status) error
	GetStatus(ctx context.Context, id int64) (*models.Status, error)
	ListStatuses(ctx context.Context) ([]models.Status, error)
	UpdateStatus(ctx context.Context, s *models.Status) error
	DeleteStatus(ctx context.Context, id int64) error

	CreatePriority(ctx context.Context, p *models.Priority) error
	GetPriority(ctx context.Context, id int64) (*models.Priority, error)
	ListPriorities(ctx context.Context) ([]models.Priority, error)
	UpdatePriority(ctx context.Context, p *models.Priority) error
	DeletePriority(ctx context.Context, id int64) error

	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	// UpdateProject rewrites the scalar fields and replaces the member set.
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id int64) error
	IsProjectMember(ctx context.Context, projectID, userID int64) (bool, error)

	// CreateTask assigns t.IssueID (see package issueid) when empty and
	// inserts the task.
	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	GetTaskByIssueID(ctx context.Context, issueID string) (*models.Task, error)
	// ListTasks returns newest first.
	ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error)
	// UpdateTask never writes IssueID.
	UpdateTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, id int64) error

	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	// ListComments returns oldest first.
	ListComments(ctx context.Context, f models.CommentFilter) ([]models.Comment, error)
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id int64) error

	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}
