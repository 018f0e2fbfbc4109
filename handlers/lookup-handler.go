package handlers

import (
	"context"
	"net/http"

	"task-tracker/backend/middleware"
	"task-tracker/backend/models"
	"task-tracker/backend/services"
)

// labelRoutes serves list/retrieve/create/update/delete for one lookup table.
type labelRoutes[T any] struct {
	list   func(context.Context) ([]T, error)
	get    func(context.Context, int64) (*T, error)
	create func(context.Context, *models.User, services.LabelInput) (*T, error)
	update func(context.Context, *models.User, int64, services.LabelInput) (*T, error)
	remove func(context.Context, *models.User, int64) error
}

func (l labelRoutes[T]) List(w http.ResponseWriter, r *http.Request) {
	items, err := l.list(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (l labelRoutes[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := l.get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (l labelRoutes[T]) Create(w http.ResponseWriter, r *http.Request) {
	var in services.LabelInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := l.create(r.Context(), middleware.UserFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (l labelRoutes[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in services.LabelInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := l.update(r.Context(), middleware.UserFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Delete moves referencing tasks to the lowest remaining entry first; it
// answers 409 when there is none.
func (l labelRoutes[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := l.remove(r.Context(), middleware.UserFromContext(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type LookupHandler struct {
	Statuses   labelRoutes[models.Status]
	Priorities labelRoutes[models.Priority]
	Positions  labelRoutes[models.Position]
}

func NewLookupHandler(s *services.LookupService) *LookupHandler {
	return &LookupHandler{
		Statuses: labelRoutes[models.Status]{
			list: s.ListStatuses, get: s.GetStatus,
			create: s.CreateStatus, update: s.UpdateStatus, remove: s.DeleteStatus,
		},
		Priorities: labelRoutes[models.Priority]{
			list: s.ListPriorities, get: s.GetPriority,
			create: s.CreatePriority, update: s.UpdatePriority, remove: s.DeletePriority,
		},
		Positions: labelRoutes[models.Position]{
			list: s.ListPositions, get: s.GetPosition,
			create: s.CreatePosition, update: s.UpdatePosition, remove: s.DeletePosition,
		},
	}
}
