package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"task-tracker/backend/logging"
	"task-tracker/backend/models"
	"task-tracker/backend/repositories"
)

const (
	maxProjectName = 150
	maxProjectCode = 16
)

type ProjectInput struct {
	Name        *string  `json:"name"`
	Code        *string  `json:"code"`
	Description *string  `json:"description"`
	MemberIDs   *[]int64 `json:"members_ids"`
}

type ProjectService struct {
	store repositories.Store
}

func NewProjectService(store repositories.Store) *ProjectService {
	return &ProjectService{store: store}
}

func (s *ProjectService) List(ctx context.Context, actor *models.User) ([]models.Project, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.ListProjects(ctx)
}

func (s *ProjectService) Get(ctx context.Context, actor *models.User, id int64) (*models.Project, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.GetProject(ctx, id)
}

func (s *ProjectService) Create(ctx context.Context, actor *models.User, in ProjectInput) (*models.Project, error) {
	if err := requireAdmin(actor); err != nil {
		logging.Logger.Warnf("Event ID: PROJECT_CREATE_FORBIDDEN, Description: User %d is not allowed to create projects", actorID(actor))
		return nil, err
	}

	ts := now()
	p := &models.Project{CreatedAt: ts, UpdatedAt: ts}
	if err := s.apply(ctx, p, in, true); err != nil {
		return nil, err
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_CREATE_FAILED, Description: Failed to create project %s: %v", p.Code, err)
		return nil, err
	}
	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Project %s (%s) created by user %d", p.Name, p.Code, actor.ID)
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, actor *models.User, id int64, in ProjectInput) (*models.Project, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !isMember(actor, p) {
		return nil, ErrForbidden
	}
	if err := s.apply(ctx, p, in, false); err != nil {
		return nil, err
	}
	p.UpdatedAt = now()
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: PROJECT_UPDATED, Description: Project %d updated by user %d", p.ID, actor.ID)
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, actor *models.User, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Project %d and its tasks deleted by user %d", id, actor.ID)
	return nil
}

// apply validates in and copies it onto p. On create the name and code are
// required.
func (s *ProjectService) apply(ctx context.Context, p *models.Project, in ProjectInput, create bool) error {
	v := &ValidationError{}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Name != nil || create {
		if in.Name == nil {
			v.Add("name", msgRequired)
		} else {
			checkText(v, "name", p.Name, maxProjectName)
		}
	}
	if in.Code != nil {
		p.Code = *in.Code
	}
	if in.Code != nil || create {
		if in.Code == nil {
			v.Add("code", msgRequired)
		} else {
			checkText(v, "code", p.Code, maxProjectCode)
		}
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.MemberIDs != nil {
		members := slices.Clone(*in.MemberIDs)
		slices.Sort(members)
		members = slices.Compact(members)
		for _, uid := range members {
			if _, err := s.store.GetUser(ctx, uid); err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					v.Add("members_ids", fmt.Sprintf(msgNotPresent, uid))
					continue
				}
				return err
			}
		}
		p.MemberIDs = members
	}
	if p.MemberIDs == nil {
		p.MemberIDs = []int64{}
	}
	p.NormalizeCode()
	return v.Err()
}

func actorID(actor *models.User) int64 {
	if actor == nil {
		return 0
	}
	return actor.ID
}
