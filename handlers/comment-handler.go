package handlers

import (
	"net/http"

	"task-tracker/backend/middleware"
	"task-tracker/backend/models"
	"task-tracker/backend/services"
)

type CommentHandler struct {
	service *services.CommentService
}

func NewCommentHandler(service *services.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	v := &services.ValidationError{}
	f := models.CommentFilter{
		TaskID:      queryID(r, "task", v),
		TaskIssueID: r.URL.Query().Get("task_issue_id"),
	}
	if err := v.Err(); err != nil {
		writeError(w, r, err)
		return
	}
	comments, err := h.service.List(r.Context(), middleware.UserFromContext(r.Context()), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), middleware.UserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var in services.CommentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.service.Create(r.Context(), middleware.UserFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in services.CommentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.service.Update(r.Context(), middleware.UserFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), middleware.UserFromContext(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
