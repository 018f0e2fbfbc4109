package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/backend/repositories"
	"task-tracker/backend/utils"
)

func newAuth(t *testing.T, e *env) *AuthService {
	t.Helper()
	users := NewUserService(e.store, nil)
	_, err := users.Update(context.Background(), e.admin, e.member.ID, UserInput{Password: ptr("member-pass")})
	require.NoError(t, err)
	return NewAuthService(e.store, users, utils.NewTokenManager("test-secret", 30*time.Minute, 24*time.Hour))
}

func TestAuthObtainAndAuthenticate(t *testing.T) {
	e := newEnv(t)
	auth := newAuth(t, e)
	ctx := context.Background()

	pair, err := auth.Obtain(ctx, "member@example.com", "member-pass")
	require.NoError(t, err)

	u, err := auth.Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, e.member.ID, u.ID)

	_, err = auth.Authenticate(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.Obtain(ctx, "member@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthRefreshRotatesAndBlacklists(t *testing.T) {
	e := newEnv(t)
	auth := newAuth(t, e)
	ctx := context.Background()

	pair, err := auth.Obtain(ctx, "member@example.com", "member-pass")
	require.NoError(t, err)

	rotated, err := auth.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh, rotated.Refresh)

	_, err = auth.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.Refresh(ctx, rotated.Refresh)
	assert.NoError(t, err)
}

// slowRevocationStore delays the blacklist lookup like a networked database
// would, so concurrent refreshes all see the token as not yet revoked.
type slowRevocationStore struct {
	repositories.Store
}

func (s slowRevocationStore) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	time.Sleep(20 * time.Millisecond)
	return s.Store.IsTokenRevoked(ctx, jti)
}

func TestAuthConcurrentRefreshUsesTokenOnce(t *testing.T) {
	e := newEnv(t)
	users := NewUserService(e.store, nil)
	_, err := users.Update(context.Background(), e.admin, e.member.ID, UserInput{Password: ptr("member-pass")})
	require.NoError(t, err)
	auth := NewAuthService(slowRevocationStore{e.store}, users, utils.NewTokenManager("test-secret", 30*time.Minute, 24*time.Hour))
	ctx := context.Background()

	pair, err := auth.Obtain(ctx, "member@example.com", "member-pass")
	require.NoError(t, err)

	var ok, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := auth.Refresh(ctx, pair.Refresh)
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, ErrInvalidToken):
				atomic.AddInt32(&rejected, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(7), rejected)
}

func TestAuthInactiveUser(t *testing.T) {
	e := newEnv(t)
	auth := newAuth(t, e)
	ctx := context.Background()

	pair, err := auth.Obtain(ctx, "member@example.com", "member-pass")
	require.NoError(t, err)

	_, err = NewUserService(e.store, nil).Update(ctx, e.admin, e.member.ID, UserInput{IsActive: ptr(false)})
	require.NoError(t, err)

	_, err = auth.Authenticate(ctx, pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = auth.Obtain(ctx, "member@example.com", "member-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
