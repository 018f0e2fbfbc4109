package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/backend/middleware"
	"task-tracker/backend/models"
	"task-tracker/backend/repositories/sqlrepo"
	"task-tracker/backend/services"
	"task-tracker/backend/utils"
)

const testPassword = "correct-horse"

type api struct {
	t      *testing.T
	srv    *httptest.Server
	store  *sqlrepo.Store
	admin  *models.User
	member *models.User
	other  *models.User
}

func newAPI(t *testing.T, limiter *middleware.RateLimiter) *api {
	t.Helper()
	ctx := context.Background()
	store, err := sqlrepo.Open(ctx, sqlrepo.SQLite, filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)
	ts := time.Now().UTC()
	mkUser := func(name string, role models.Role) *models.User {
		u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: hash, Role: role, IsActive: true, CreatedAt: ts, UpdatedAt: ts}
		require.NoError(t, store.CreateUser(ctx, u))
		return u
	}
	a := &api{t: t, store: store}
	a.admin = mkUser("admin", models.RoleAdmin)
	a.member = mkUser("member", models.RoleUser)
	a.other = mkUser("other", models.RoleUser)
	require.NoError(t, store.CreateStatus(ctx, &models.Status{Name: "To Do"}))
	require.NoError(t, store.CreatePriority(ctx, &models.Priority{Level: "Low"}))

	users := services.NewUserService(store, nil)
	tokens := utils.NewTokenManager("handler-test-secret", 30*time.Minute, 24*time.Hour)
	a.srv = httptest.NewServer(NewRouter(Deps{
		Auth:         services.NewAuthService(store, users, tokens),
		Users:        users,
		Projects:     services.NewProjectService(store),
		Tasks:        services.NewTaskService(store, nil),
		Comments:     services.NewCommentService(store),
		Lookups:      services.NewLookupService(store),
		Health:       store,
		TokenLimiter: limiter,
		CORSOrigin:   "*",
	}))
	t.Cleanup(a.srv.Close)
	return a
}

// do sends body as JSON and decodes the response into out when non-nil.
func (a *api) do(method, path, token string, body, out any) int {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *api) login(u *models.User) services.TokenPair {
	a.t.Helper()
	var pair services.TokenPair
	status := a.do(http.MethodPost, "/api/token", "", LoginRequest{Email: u.Email, Password: testPassword}, &pair)
	require.Equal(a.t, http.StatusOK, status)
	require.NotEmpty(a.t, pair.Access)
	return pair
}

func (a *api) project(token string) models.Project {
	a.t.Helper()
	var p models.Project
	status := a.do(http.MethodPost, "/api/tasks/projects", token,
		map[string]any{"name": "Tracker", "code": "prj", "members_ids": []int64{a.member.ID}}, &p)
	require.Equal(a.t, http.StatusCreated, status)
	return p
}

func TestHealth(t *testing.T) {
	a := newAPI(t, nil)
	var body map[string]string
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestLoginAndMe(t *testing.T) {
	a := newAPI(t, nil)
	pair := a.login(a.member)

	var me map[string]any
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/users/me", pair.Access, nil, &me))
	assert.Equal(t, "member", me["username"])
	assert.Contains(t, me["avatar_url"], "gravatar.com/avatar/")
	assert.NotContains(t, me, "password")

	var detail map[string]string
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/api/token", "", LoginRequest{Email: a.member.Email, Password: "nope"}, &detail))
	assert.NotEmpty(t, detail["detail"])

	var fields map[string][]string
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/token", "", LoginRequest{}, &fields))
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestRefreshRotation(t *testing.T) {
	a := newAPI(t, nil)
	pair := a.login(a.member)

	var rotated services.TokenPair
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/token/refresh", "", RefreshRequest{Refresh: pair.Refresh}, &rotated))
	assert.NotEmpty(t, rotated.Access)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/api/token/refresh", "", RefreshRequest{Refresh: pair.Refresh}, nil))
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/users/me", pair.Refresh, nil, nil))
}

func TestIssueIDAssignmentOverHTTP(t *testing.T) {
	a := newAPI(t, nil)
	admin := a.login(a.admin).Access
	member := a.login(a.member).Access

	p := a.project(admin)
	assert.Equal(t, "PRJ", p.Code)

	var first, second models.Task
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/tasks/tasks", member, map[string]any{"title": "one", "project": p.ID}, &first))
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/tasks/tasks", member, map[string]any{"title": "two", "project": p.ID}, &second))
	assert.Equal(t, "PRJ-1", first.IssueID)
	assert.Equal(t, "PRJ-2", second.IssueID)
	assert.Equal(t, a.member.ID, first.CreatorID)

	var byIssue models.Task
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/tasks/tasks/PRJ-2?by_issue_id=1", member, nil, &byIssue))
	assert.Equal(t, second.ID, byIssue.ID)

	var updated models.Task
	require.Equal(t, http.StatusOK, a.do(http.MethodPatch, "/api/tasks/tasks/PRJ-1?by_issue_id=1", member,
		map[string]any{"issue_id": "HACK-99", "title": "renamed"}, &updated))
	assert.Equal(t, "PRJ-1", updated.IssueID)
	assert.Equal(t, "renamed", updated.Title)

	var list []models.Task
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/tasks/tasks/", member, nil, &list))
	assert.Len(t, list, 2)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/api/tasks/tasks/"+itoa(first.ID), member, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/tasks/tasks/PRJ-1?by_issue_id=1", member, nil, nil))
}

func TestTaskFilters(t *testing.T) {
	a := newAPI(t, nil)
	admin := a.login(a.admin).Access
	p := a.project(admin)

	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/tasks/tasks", admin, map[string]any{"title": "mine", "project": p.ID, "assignee": a.member.ID}, nil))
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/tasks/tasks", admin, map[string]any{"title": "free", "project": p.ID}, nil))

	var list []models.Task
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/tasks/tasks?unassigned=true&project=all", admin, nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "free", list[0].Title)

	list = nil
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/tasks/tasks?assignee="+itoa(a.member.ID), admin, nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "mine", list[0].Title)

	var fields map[string][]string
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/tasks/tasks?status=abc", admin, nil, &fields))
	assert.Contains(t, fields, "status")
}

func TestErrorMapping(t *testing.T) {
	a := newAPI(t, nil)
	admin := a.login(a.admin).Access
	member := a.login(a.member).Access
	other := a.login(a.other).Access
	p := a.project(admin)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/tasks/tasks", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/tasks/statuses", "", nil, nil))
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/api/tasks/projects", member, map[string]any{"name": "X", "code": "x"}, nil))
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/api/tasks/tasks", other, map[string]any{"title": "t", "project": p.ID}, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/tasks/tasks/999", member, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/tasks/projects/abc", member, nil, nil))
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/api/tasks/projects", admin, map[string]any{"name": "Again", "code": "PRJ"}, nil))
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/users", member, nil, nil))

	var fields map[string][]string
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/tasks/tasks", member, map[string]any{"project": 999}, &fields))
	assert.Equal(t, []string{"This field is required."}, fields["title"])
	assert.Equal(t, []string{`Invalid pk "999" - object does not exist.`}, fields["project"])

	req, err := http.NewRequest(http.MethodPost, a.srv.URL+"/api/tasks/tasks", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+member)
	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLookupDeleteInUse(t *testing.T) {
	a := newAPI(t, nil)
	admin := a.login(a.admin).Access
	p := a.project(admin)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/tasks/tasks", admin, map[string]any{"title": "t", "project": p.ID}, nil))

	var statuses []models.Status
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/tasks/statuses", admin, nil, &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, http.StatusConflict, a.do(http.MethodDelete, "/api/tasks/statuses/"+itoa(statuses[0].ID), admin, nil, nil))
}

func TestPositionsReadableAnonymously(t *testing.T) {
	a := newAPI(t, nil)
	admin := a.login(a.admin).Access

	var positions []models.Position
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/users/positions", "", nil, &positions))
	assert.Empty(t, positions)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/api/users/positions", "", map[string]string{"name": "Dev"}, nil))

	var pos models.Position
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/users/positions", admin, map[string]string{"name": "Dev"}, &pos))
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/users/positions/"+itoa(pos.ID), "", nil, &pos))
	assert.Equal(t, "Dev", pos.Name)
}

func TestCommentsByIssueID(t *testing.T) {
	a := newAPI(t, nil)
	admin := a.login(a.admin).Access
	member := a.login(a.member).Access
	other := a.login(a.other).Access
	p := a.project(admin)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/tasks/tasks", member, map[string]any{"title": "t", "project": p.ID}, nil))

	var c models.Comment
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/tasks/comments", member, map[string]any{"task_issue_id": "PRJ-1", "text": "hello"}, &c))
	assert.Equal(t, a.member.ID, c.AuthorID)

	var list []models.Comment
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/tasks/comments?task_issue_id=PRJ-1", other, nil, &list))
	assert.Len(t, list, 1)

	list = nil
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/tasks/comments?task_issue_id=NOPE-1", other, nil, &list))
	assert.Empty(t, list)

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPatch, "/api/tasks/comments/"+itoa(c.ID), other, map[string]string{"text": "x"}, nil))
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/api/tasks/comments/"+itoa(c.ID), admin, nil, nil))
}

func TestTokenEndpointRateLimited(t *testing.T) {
	a := newAPI(t, middleware.NewRateLimiter(0.001, 1))
	a.login(a.member)
	assert.Equal(t, http.StatusTooManyRequests, a.do(http.MethodPost, "/api/token", "", LoginRequest{Email: a.member.Email, Password: testPassword}, nil))
}

func TestCORSPreflight(t *testing.T) {
	a := newAPI(t, nil)
	req, err := http.NewRequest(http.MethodOptions, a.srv.URL+"/api/tasks/tasks", nil)
	require.NoError(t, err)
	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
