package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"task-tracker/backend/logging"
	"task-tracker/backend/models"
	"task-tracker/backend/repositories"
)

const maxTaskTitle = 200

// TaskInput carries the writable task fields. The issue id is not among
// them; it is assigned once by storage and never rewritten.
type TaskInput struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	ProjectID   *int64              `json:"project"`
	AssigneeID  Optional[int64]     `json:"assignee"`
	StatusID    *int64              `json:"status"`
	PriorityID  *int64              `json:"priority"`
	DueDate     Optional[time.Time] `json:"due_date"`
}

type TaskService struct {
	store    repositories.Store
	notifier Notifier
	created  metric.Int64Counter
}

func NewTaskService(store repositories.Store, notifier Notifier) *TaskService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	// The global meter is a no-op until telemetry is initialised.
	created, err := otel.Meter("task-tracker/backend/services").Int64Counter(
		"tracker.tasks.created",
		metric.WithDescription("Tasks created, by project code"),
	)
	if err != nil {
		logging.Logger.Warnf("Event ID: METRIC_INIT_FAILED, Description: tasks created counter: %v", err)
	}
	return &TaskService{store: store, notifier: notifier, created: created}
}

func (s *TaskService) List(ctx context.Context, actor *models.User, f models.TaskFilter) ([]models.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.ListTasks(ctx, f)
}

func (s *TaskService) Get(ctx context.Context, actor *models.User, id int64) (*models.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.GetTask(ctx, id)
}

func (s *TaskService) GetByIssueID(ctx context.Context, actor *models.User, issueID string) (*models.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.GetTaskByIssueID(ctx, issueID)
}

func (s *TaskService) Create(ctx context.Context, actor *models.User, in TaskInput) (*models.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ts := now()
	t := &models.Task{CreatorID: actor.ID, CreatedAt: ts, UpdatedAt: ts}
	project, err := s.apply(ctx, t, in, true)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !isMember(actor, project) {
		logging.Logger.Warnf("Event ID: TASK_CREATE_FORBIDDEN, Description: User %d is not a member of project %d", actor.ID, project.ID)
		return nil, ErrForbidden
	}

	if err := s.store.CreateTask(ctx, t); err != nil {
		logging.Logger.Errorf("Event ID: TASK_CREATE_FAILED, Description: Failed to create task in project %s: %v", project.Code, err)
		return nil, err
	}
	if s.created != nil {
		s.created.Add(ctx, 1, metric.WithAttributes(attribute.String("project", project.Code)))
	}
	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by user %d", t.IssueID, actor.ID)

	if t.AssigneeID != nil {
		s.notifyAssignee(ctx, t)
	}
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, actor *models.User, id int64, in TaskInput) (*models.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canModify(ctx, actor, t); err != nil {
		return nil, err
	}

	previousAssignee := t.AssigneeID
	project, err := s.apply(ctx, t, in, false)
	if err != nil {
		return nil, err
	}
	if in.ProjectID != nil && !actor.IsAdmin() && !isMember(actor, project) {
		return nil, ErrForbidden
	}
	t.UpdatedAt = now()
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated by user %d", t.IssueID, actor.ID)

	if t.AssigneeID != nil && (previousAssignee == nil || *previousAssignee != *t.AssigneeID) {
		s.notifyAssignee(ctx, t)
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, actor *models.User, id int64) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.canModify(ctx, actor, t); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by user %d", t.IssueID, actor.ID)
	return nil
}

// canModify allows admins, the creator and members of the task's project.
func (s *TaskService) canModify(ctx context.Context, actor *models.User, t *models.Task) error {
	if actor.IsAdmin() || t.CreatorID == actor.ID {
		return nil
	}
	member, err := s.store.IsProjectMember(ctx, t.ProjectID, actor.ID)
	if err != nil {
		return err
	}
	if !member {
		return ErrForbidden
	}
	return nil
}

// apply validates in against storage and copies it onto t. It returns the
// task's (possibly new) project.
func (s *TaskService) apply(ctx context.Context, t *models.Task, in TaskInput, create bool) (*models.Project, error) {
	v := &ValidationError{}

	if in.Title != nil {
		t.Title = *in.Title
		checkText(v, "title", t.Title, maxTaskTitle)
	} else if create {
		v.Add("title", msgRequired)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}

	var project *models.Project
	switch {
	case in.ProjectID != nil:
		p, err := s.store.GetProject(ctx, *in.ProjectID)
		if err := lookupErr(v, "project", *in.ProjectID, err); err != nil {
			return nil, err
		}
		if p != nil {
			project = p
			t.ProjectID = p.ID
		}
	case create:
		v.Add("project", msgRequired)
	default:
		p, err := s.store.GetProject(ctx, t.ProjectID)
		if err != nil {
			return nil, err
		}
		project = p
	}

	if in.AssigneeID.Set {
		if in.AssigneeID.Value != nil {
			_, err := s.store.GetUser(ctx, *in.AssigneeID.Value)
			if err := lookupErr(v, "assignee", *in.AssigneeID.Value, err); err != nil {
				return nil, err
			}
		}
		t.AssigneeID = in.AssigneeID.Value
	}

	if in.StatusID != nil {
		_, err := s.store.GetStatus(ctx, *in.StatusID)
		if err := lookupErr(v, "status", *in.StatusID, err); err != nil {
			return nil, err
		}
		t.StatusID = *in.StatusID
	} else if create {
		statuses, err := s.store.ListStatuses(ctx)
		if err != nil {
			return nil, err
		}
		if len(statuses) == 0 {
			v.Add("status", msgRequired)
		} else {
			t.StatusID = statuses[0].ID
		}
	}

	if in.PriorityID != nil {
		_, err := s.store.GetPriority(ctx, *in.PriorityID)
		if err := lookupErr(v, "priority", *in.PriorityID, err); err != nil {
			return nil, err
		}
		t.PriorityID = *in.PriorityID
	} else if create {
		priorities, err := s.store.ListPriorities(ctx)
		if err != nil {
			return nil, err
		}
		if len(priorities) == 0 {
			v.Add("priority", msgRequired)
		} else {
			t.PriorityID = priorities[0].ID
		}
	}

	if in.DueDate.Set {
		if in.DueDate.Value != nil {
			due := in.DueDate.Value.UTC()
			t.DueDate = &due
		} else {
			t.DueDate = nil
		}
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return project, nil
}

// lookupErr records a missing reference as a field error and passes any
// other storage error through.
func lookupErr(v *ValidationError, field string, id int64, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		v.Add(field, fmt.Sprintf(msgNotPresent, id))
		return nil
	}
	return err
}

func (s *TaskService) notifyAssignee(ctx context.Context, t *models.Task) {
	assignee, err := s.store.GetUser(ctx, *t.AssigneeID)
	if err != nil {
		logging.Logger.Warnf("Event ID: TASK_NOTIFY_SKIPPED, Description: Assignee %d of %s not loaded: %v", *t.AssigneeID, t.IssueID, err)
		return
	}
	s.notifier.TaskAssigned(ctx, t, assignee)
}
