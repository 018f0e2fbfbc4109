package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"task-tracker/backend/logging"
	"task-tracker/backend/models"
	"task-tracker/backend/repositories"
	"task-tracker/backend/utils"
)

const (
	maxUsername = 150
	maxName     = 150
)

type UserInput struct {
	Username   *string         `json:"username"`
	Email      *string         `json:"email"`
	Password   *string         `json:"password"`
	FirstName  *string         `json:"first_name"`
	LastName   *string         `json:"last_name"`
	PositionID Optional[int64] `json:"position_id"`
	Role       *models.Role    `json:"role"`
	Avatar     *string         `json:"avatar"`
	IsActive   *bool           `json:"is_active"`
}

type UserService struct {
	store     repositories.Store
	blackList map[string]bool
}

// NewUserService takes an optional password blacklist (see
// utils.LoadBlackList).
func NewUserService(store repositories.Store, blackList map[string]bool) *UserService {
	return &UserService{store: store, blackList: blackList}
}

func (s *UserService) List(ctx context.Context, actor *models.User) ([]models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, actor *models.User, id int64) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != id {
		return nil, ErrForbidden
	}
	return s.store.GetUser(ctx, id)
}

// Me returns a fresh copy of the authenticated user.
func (s *UserService) Me(ctx context.Context, actor *models.User) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, actor.ID)
}

func (s *UserService) Create(ctx context.Context, actor *models.User, in UserInput) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

// CreateAdmin bootstraps an administrator without an acting user.
func (s *UserService) CreateAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	role := models.RoleAdmin
	return s.create(ctx, UserInput{Username: &username, Email: &email, Password: &password, Role: &role})
}

func (s *UserService) create(ctx context.Context, in UserInput) (*models.User, error) {
	ts := now()
	u := &models.User{Role: models.RoleUser, IsActive: true, CreatedAt: ts, UpdatedAt: ts}
	v := &ValidationError{}
	for field, value := range map[string]*string{"username": in.Username, "email": in.Email, "password": in.Password} {
		if value == nil {
			v.Add(field, msgRequired)
		}
	}
	if err := s.apply(ctx, u, in, v); err != nil {
		return nil, err
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		logging.Logger.Errorf("Event ID: USER_CREATE_FAILED, Description: Failed to create user %s: %v", u.Email, err)
		return nil, err
	}
	logging.Logger.Infof("Event ID: USER_CREATED, Description: User %s created with role %s", u.Email, u.Role)
	return u, nil
}

func (s *UserService) Update(ctx context.Context, actor *models.User, id int64, in UserInput) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != id {
		return nil, ErrForbidden
	}
	if !actor.IsAdmin() && (in.Role != nil || in.IsActive != nil) {
		return nil, ErrForbidden
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, u, in, &ValidationError{}); err != nil {
		return nil, err
	}
	u.UpdatedAt = now()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: USER_UPDATED, Description: User %d updated by user %d", u.ID, actor.ID)
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, actor *models.User, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: USER_DELETED, Description: User %d deleted by user %d", id, actor.ID)
	return nil
}

func (s *UserService) apply(ctx context.Context, u *models.User, in UserInput, v *ValidationError) error {
	if in.Username != nil {
		u.Username = strings.TrimSpace(*in.Username)
		checkText(v, "username", u.Username, maxUsername)
	}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
		if addr, err := mail.ParseAddress(u.Email); err != nil || addr.Address != u.Email {
			v.Add("email", "Enter a valid email address.")
		}
	}
	if in.Password != nil {
		if reason := utils.CheckPasswordStrength(*in.Password, s.blackList); reason != "" {
			v.Add("password", reason)
		} else {
			hash, err := utils.HashPassword(*in.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
		}
	}
	if in.FirstName != nil {
		if u.FirstName = *in.FirstName; len([]rune(u.FirstName)) > maxName {
			v.Add("first_name", msgMaxLength(maxName))
		}
	}
	if in.LastName != nil {
		if u.LastName = *in.LastName; len([]rune(u.LastName)) > maxName {
			v.Add("last_name", msgMaxLength(maxName))
		}
	}
	if in.PositionID.Set {
		if in.PositionID.Value != nil {
			_, err := s.store.GetPosition(ctx, *in.PositionID.Value)
			if err := lookupErr(v, "position_id", *in.PositionID.Value, err); err != nil {
				return err
			}
		}
		u.PositionID = in.PositionID.Value
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			v.Add("role", fmt.Sprintf("%q is not a valid choice.", *in.Role))
		} else {
			u.Role = *in.Role
		}
	}
	if in.Avatar != nil {
		u.Avatar = *in.Avatar
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	return v.Err()
}

// Authenticate checks an e-mail and password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive || !utils.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
