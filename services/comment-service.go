package services

import (
	"context"
	"errors"

	"task-tracker/backend/logging"
	"task-tracker/backend/models"
	"task-tracker/backend/repositories"
)

// CommentInput identifies the task either by id or by issue id.
type CommentInput struct {
	TaskID      *int64  `json:"task"`
	TaskIssueID *string `json:"task_issue_id"`
	Text        *string `json:"text"`
	Attachment  *string `json:"attachment"`
}

type CommentService struct {
	store repositories.Store
}

func NewCommentService(store repositories.Store) *CommentService {
	return &CommentService{store: store}
}

func (s *CommentService) List(ctx context.Context, actor *models.User, f models.CommentFilter) ([]models.Comment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, f)
}

func (s *CommentService) Get(ctx context.Context, actor *models.User, id int64) (*models.Comment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.GetComment(ctx, id)
}

func (s *CommentService) Create(ctx context.Context, actor *models.User, in CommentInput) (*models.Comment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	v := &ValidationError{}
	ts := now()
	c := &models.Comment{AuthorID: actor.ID, CreatedAt: ts, UpdatedAt: ts}

	switch {
	case in.TaskIssueID != nil && *in.TaskIssueID != "":
		t, err := s.store.GetTaskByIssueID(ctx, *in.TaskIssueID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			v.Add("task_issue_id", "Task with this issue id does not exist.")
		case err != nil:
			return nil, err
		default:
			c.TaskID = t.ID
		}
	case in.TaskID != nil:
		_, err := s.store.GetTask(ctx, *in.TaskID)
		if err := lookupErr(v, "task", *in.TaskID, err); err != nil {
			return nil, err
		}
		c.TaskID = *in.TaskID
	default:
		v.Add("task", msgRequired)
	}

	if in.Text == nil {
		v.Add("text", msgRequired)
	} else {
		c.Text = *in.Text
		if c.Text == "" {
			v.Add("text", msgBlank)
		}
	}
	if in.Attachment != nil {
		c.Attachment = *in.Attachment
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: COMMENT_CREATED, Description: Comment %d added to task %d by user %d", c.ID, c.TaskID, actor.ID)
	return c, nil
}

// Update changes text and attachment. The task and author stay fixed.
func (s *CommentService) Update(ctx context.Context, actor *models.User, id int64, in CommentInput) (*models.Comment, error) {
	c, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	v := &ValidationError{}
	if in.Text != nil {
		c.Text = *in.Text
		if c.Text == "" {
			v.Add("text", msgBlank)
		}
	}
	if in.Attachment != nil {
		c.Attachment = *in.Attachment
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	c.UpdatedAt = now()
	if err := s.store.UpdateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CommentService) Delete(ctx context.Context, actor *models.User, id int64) error {
	if _, err := s.authorized(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, id); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: COMMENT_DELETED, Description: Comment %d deleted by user %d", id, actor.ID)
	return nil
}

// authorized loads the comment and checks the actor is its author or an
// admin.
func (s *CommentService) authorized(ctx context.Context, actor *models.User, id int64) (*models.Comment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && c.AuthorID != actor.ID {
		return nil, ErrForbidden
	}
	return c, nil
}
