package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"task-tracker/backend/middleware"
	"task-tracker/backend/models"
	"task-tracker/backend/repositories"
	"task-tracker/backend/services"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// taskFilter reads the list filters. "project=all" means every project.
func taskFilter(r *http.Request) (models.TaskFilter, error) {
	v := &services.ValidationError{}
	f := models.TaskFilter{
		NotProjectID:  queryID(r, "not_project", v),
		StatusID:      queryID(r, "status", v),
		NotStatusID:   queryID(r, "not_status", v),
		AssigneeID:    queryID(r, "assignee", v),
		NotAssigneeID: queryID(r, "not_assignee", v),
		Unassigned:    queryBool(r, "unassigned"),
	}
	if r.URL.Query().Get("project") != "all" {
		f.ProjectID = queryID(r, "project", v)
	}
	return f, v.Err()
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	f, err := taskFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tasks, err := h.service.List(r.Context(), middleware.UserFromContext(r.Context()), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// lookup resolves {id} as a numeric id, or as an issue id when the request
// carries ?by_issue_id=1.
func (h *TaskHandler) lookup(r *http.Request) (*models.Task, error) {
	actor := middleware.UserFromContext(r.Context())
	key := mux.Vars(r)["id"]
	if queryBool(r, "by_issue_id") {
		return h.service.GetByIssueID(r.Context(), actor, key)
	}
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return nil, repositories.ErrNotFound
	}
	return h.service.Get(r.Context(), actor, id)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.lookup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in services.TaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.service.Create(r.Context(), middleware.UserFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTask applies the writable fields. Any issue_id in the body is
// ignored.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.lookup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.TaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	updated, err := h.service.Update(r.Context(), middleware.UserFromContext(r.Context()), t.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.lookup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), middleware.UserFromContext(r.Context()), t.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
