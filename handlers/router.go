package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"task-tracker/backend/logging"
	"task-tracker/backend/middleware"
	"task-tracker/backend/services"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the router dispatches to.
type Deps struct {
	Auth     *services.AuthService
	Users    *services.UserService
	Projects *services.ProjectService
	Tasks    *services.TaskService
	Comments *services.CommentService
	Lookups  *services.LookupService
	Health   Pinger
	// TokenLimiter throttles the token endpoints; nil disables it.
	TokenLimiter *middleware.RateLimiter
	CORSOrigin   string
}

// NewRouter wires every route of the API.
func NewRouter(d Deps) http.Handler {
	login := NewLoginHandler(d.Auth)
	users := NewUserHandler(d.Users)
	projects := NewProjectHandler(d.Projects)
	tasks := NewTaskHandler(d.Tasks)
	comments := NewCommentHandler(d.Comments)
	lookups := NewLookupHandler(d.Lookups)

	limit := func(h http.HandlerFunc) http.Handler {
		if d.TokenLimiter == nil {
			return h
		}
		return d.TokenLimiter.Limit(h)
	}

	r := mux.NewRouter()
	r.Use(middleware.Instrument)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteDetail(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteDetail(w, http.StatusMethodNotAllowed, `Method "`+req.Method+`" not allowed.`)
	})

	r.HandleFunc("/health", healthHandler(d.Health)).Methods(http.MethodGet)

	r.Handle("/api/token", limit(login.Login)).Methods(http.MethodPost)
	r.Handle("/api/token/refresh", limit(login.Refresh)).Methods(http.MethodPost)

	// Positions are readable without a token.
	r.HandleFunc("/api/users/positions", lookups.Positions.List).Methods(http.MethodGet)
	r.HandleFunc("/api/users/positions", lookups.Positions.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/users/positions/{id:[0-9]+}", lookups.Positions.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/users/positions/{id:[0-9]+}", lookups.Positions.Update).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc("/api/users/positions/{id:[0-9]+}", lookups.Positions.Delete).Methods(http.MethodDelete)

	r.HandleFunc("/api/users/me", users.Me).Methods(http.MethodGet)
	r.HandleFunc("/api/users", users.GetUsers).Methods(http.MethodGet)
	r.HandleFunc("/api/users", users.CreateUser).Methods(http.MethodPost)
	r.HandleFunc("/api/users/{id:[0-9]+}", users.GetUser).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{id:[0-9]+}", users.UpdateUser).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc("/api/users/{id:[0-9]+}", users.DeleteUser).Methods(http.MethodDelete)

	t := r.PathPrefix("/api/tasks").Subrouter()
	t.Use(middleware.RequireUser)

	t.HandleFunc("/projects", projects.GetProjects).Methods(http.MethodGet)
	t.HandleFunc("/projects", projects.CreateProject).Methods(http.MethodPost)
	t.HandleFunc("/projects/{id}", projects.GetProject).Methods(http.MethodGet)
	t.HandleFunc("/projects/{id}", projects.UpdateProject).Methods(http.MethodPut, http.MethodPatch)
	t.HandleFunc("/projects/{id}", projects.DeleteProject).Methods(http.MethodDelete)

	t.HandleFunc("/tasks", tasks.GetTasks).Methods(http.MethodGet)
	t.HandleFunc("/tasks", tasks.CreateTask).Methods(http.MethodPost)
	t.HandleFunc("/tasks/{id}", tasks.GetTask).Methods(http.MethodGet)
	t.HandleFunc("/tasks/{id}", tasks.UpdateTask).Methods(http.MethodPut, http.MethodPatch)
	t.HandleFunc("/tasks/{id}", tasks.DeleteTask).Methods(http.MethodDelete)

	for prefix, l := range map[string]interface {
		List(http.ResponseWriter, *http.Request)
		Get(http.ResponseWriter, *http.Request)
		Create(http.ResponseWriter, *http.Request)
		Update(http.ResponseWriter, *http.Request)
		Delete(http.ResponseWriter, *http.Request)
	}{"/statuses": lookups.Statuses, "/priorities": lookups.Priorities} {
		t.HandleFunc(prefix, l.List).Methods(http.MethodGet)
		t.HandleFunc(prefix, l.Create).Methods(http.MethodPost)
		t.HandleFunc(prefix+"/{id}", l.Get).Methods(http.MethodGet)
		t.HandleFunc(prefix+"/{id}", l.Update).Methods(http.MethodPut, http.MethodPatch)
		t.HandleFunc(prefix+"/{id}", l.Delete).Methods(http.MethodDelete)
	}

	t.HandleFunc("/comments", comments.GetComments).Methods(http.MethodGet)
	t.HandleFunc("/comments", comments.CreateComment).Methods(http.MethodPost)
	t.HandleFunc("/comments/{id}", comments.GetComment).Methods(http.MethodGet)
	t.HandleFunc("/comments/{id}", comments.UpdateComment).Methods(http.MethodPut, http.MethodPatch)
	t.HandleFunc("/comments/{id}", comments.DeleteComment).Methods(http.MethodDelete)

	var h http.Handler = r
	h = middleware.JWTAuthMiddleware(d.Auth)(h)
	h = middleware.AccessLog(h)
	h = middleware.TrimTrailingSlash(h)
	return middleware.EnableCORS(d.CORSOrigin)(h)
}

func healthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			if err := p.Ping(r.Context()); err != nil {
				logging.Logger.Errorf("Event ID: HEALTH_CHECK_FAILED, Description: Storage ping failed: %v", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
