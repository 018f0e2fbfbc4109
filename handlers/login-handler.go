package handlers

import (
	"net/http"

	"task-tracker/backend/services"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type LoginHandler struct {
	service *services.AuthService
}

func NewLoginHandler(service *services.AuthService) *LoginHandler {
	return &LoginHandler{service: service}
}

// Login exchanges an e-mail and password for an access/refresh pair.
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v := &services.ValidationError{}
	if req.Email == "" {
		v.Add("email", "This field is required.")
	}
	if req.Password == "" {
		v.Add("password", "This field is required.")
	}
	if err := v.Err(); err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := h.service.Obtain(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Refresh rotates a refresh token into a new pair.
func (h *LoginHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Refresh == "" {
		writeError(w, r, &services.ValidationError{Fields: map[string][]string{"refresh": {"This field is required."}}})
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}
