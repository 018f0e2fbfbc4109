package services

import (
	"context"
	"errors"
	"fmt"

	"task-tracker/backend/logging"
	"task-tracker/backend/models"
	"task-tracker/backend/repositories"
	"task-tracker/backend/utils"
)

var (
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrInvalidToken       = errors.New("token is invalid or expired")
)

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthService issues and rotates JWT pairs. A refresh token can be used
// once: refreshing blacklists it and hands out a new pair.
type AuthService struct {
	store  repositories.Store
	users  *UserService
	tokens *utils.TokenManager
}

func NewAuthService(store repositories.Store, users *UserService, tokens *utils.TokenManager) *AuthService {
	return &AuthService{store: store, users: users, tokens: tokens}
}

func (s *AuthService) Obtain(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Login failed for %s: %v", email, err)
		return nil, err
	}
	pair, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: User %d logged in", u.ID)
	return pair, nil
}

func (s *AuthService) Refresh(ctx context.Context, refresh string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateToken(refresh, utils.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	revoked, err := s.store.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, reused(claims)
	}
	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	// Only the request whose revocation is stored gets a new pair.
	err = s.store.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time)
	if errors.Is(err, repositories.ErrConflict) {
		return nil, reused(claims)
	}
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

func reused(claims *utils.Claims) error {
	logging.Logger.Warnf("Event ID: REFRESH_TOKEN_REUSED, Description: Blacklisted refresh token %s presented for user %d", claims.ID, claims.UserID)
	return fmt.Errorf("%w: token is blacklisted", ErrInvalidToken)
}

// Authenticate resolves an access token to its active user.
func (s *AuthService) Authenticate(ctx context.Context, access string) (*models.User, error) {
	claims, err := s.tokens.ValidateToken(access, utils.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return s.activeUser(ctx, claims.UserID)
}

func (s *AuthService) activeUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found", ErrInvalidToken)
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: user is inactive", ErrInvalidToken)
	}
	return u, nil
}

func (s *AuthService) issue(u *models.User) (*TokenPair, error) {
	access, _, err := s.tokens.GenerateToken(u, utils.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.GenerateToken(u, utils.RefreshToken)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}
