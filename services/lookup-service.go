package services

import (
	"context"

	"task-tracker/backend/logging"
	"task-tracker/backend/models"
	"task-tracker/backend/repositories"
)

const (
	maxLookupLabel   = 50
	maxPositionLabel = 100
)

// LabelInput is the single writable field of a status ("name"), priority
// ("level") or position ("name").
type LabelInput struct {
	Name  *string `json:"name"`
	Level *string `json:"level"`
}

// LookupService manages statuses, priorities and positions. Reads are open
// to every caller the router lets through; writes are admin only.
type LookupService struct {
	store repositories.Store
}

func NewLookupService(store repositories.Store) *LookupService {
	return &LookupService{store: store}
}

func label(field string, value *string, max int, required bool) (string, error) {
	v := &ValidationError{}
	switch {
	case value == nil && required:
		v.Add(field, msgRequired)
	case value != nil:
		checkText(v, field, *value, max)
	}
	if err := v.Err(); err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

func (s *LookupService) ListStatuses(ctx context.Context) ([]models.Status, error) {
	return s.store.ListStatuses(ctx)
}

func (s *LookupService) GetStatus(ctx context.Context, id int64) (*models.Status, error) {
	return s.store.GetStatus(ctx, id)
}

func (s *LookupService) CreateStatus(ctx context.Context, actor *models.User, in LabelInput) (*models.Status, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name, err := label("name", in.Name, maxLookupLabel, true)
	if err != nil {
		return nil, err
	}
	st := &models.Status{Name: name}
	if err := s.store.CreateStatus(ctx, st); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: STATUS_CREATED, Description: Status %q created", st.Name)
	return st, nil
}

func (s *LookupService) UpdateStatus(ctx context.Context, actor *models.User, id int64, in LabelInput) (*models.Status, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	st, err := s.store.GetStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if st.Name, err = label("name", in.Name, maxLookupLabel, false); err != nil {
			return nil, err
		}
	}
	if err := s.store.UpdateStatus(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *LookupService) DeleteStatus(ctx context.Context, actor *models.User, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.DeleteStatus(ctx, id); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: STATUS_DELETED, Description: Status %d deleted, tasks moved to the default status", id)
	return nil
}

func (s *LookupService) ListPriorities(ctx context.Context) ([]models.Priority, error) {
	return s.store.ListPriorities(ctx)
}

func (s *LookupService) GetPriority(ctx context.Context, id int64) (*models.Priority, error) {
	return s.store.GetPriority(ctx, id)
}

func (s *LookupService) CreatePriority(ctx context.Context, actor *models.User, in LabelInput) (*models.Priority, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	level, err := label("level", in.Level, maxLookupLabel, true)
	if err != nil {
		return nil, err
	}
	p := &models.Priority{Level: level}
	if err := s.store.CreatePriority(ctx, p); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: PRIORITY_CREATED, Description: Priority %q created", p.Level)
	return p, nil
}

func (s *LookupService) UpdatePriority(ctx context.Context, actor *models.User, id int64, in LabelInput) (*models.Priority, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := s.store.GetPriority(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Level != nil {
		if p.Level, err = label("level", in.Level, maxLookupLabel, false); err != nil {
			return nil, err
		}
	}
	if err := s.store.UpdatePriority(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *LookupService) DeletePriority(ctx context.Context, actor *models.User, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.DeletePriority(ctx, id); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: PRIORITY_DELETED, Description: Priority %d deleted, tasks moved to the default priority", id)
	return nil
}

func (s *LookupService) ListPositions(ctx context.Context) ([]models.Position, error) {
	return s.store.ListPositions(ctx)
}

func (s *LookupService) GetPosition(ctx context.Context, id int64) (*models.Position, error) {
	return s.store.GetPosition(ctx, id)
}

func (s *LookupService) CreatePosition(ctx context.Context, actor *models.User, in LabelInput) (*models.Position, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name, err := label("name", in.Name, maxPositionLabel, true)
	if err != nil {
		return nil, err
	}
	p := &models.Position{Name: name}
	if err := s.store.CreatePosition(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *LookupService) UpdatePosition(ctx context.Context, actor *models.User, id int64, in LabelInput) (*models.Position, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := s.store.GetPosition(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if p.Name, err = label("name", in.Name, maxPositionLabel, false); err != nil {
			return nil, err
		}
	}
	if err := s.store.UpdatePosition(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *LookupService) DeletePosition(ctx context.Context, actor *models.User, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.store.DeletePosition(ctx, id)
}
