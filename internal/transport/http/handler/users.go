package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-social-auth/internal/application/auth"
	"github.com/go-social-auth/internal/application/user"
	"github.com/go-social-auth/internal/domain"
)

// UserHandler handles registration and profile lookups.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, UserEnvelope{User: u})
}

// Me returns the user resolved by the auth middleware.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: u})
}

// Get returns another account's public profile.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PublicUserEnvelope{User: u.Public()})
}

// UpdateMe edits the authenticated user's display name or password.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateUserRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	u, err := h.svc.Update(r.Context(), me.Name, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: u})
}

// DeleteMe removes the authenticated user's account after a password check.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.DeleteUserRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), me.Name, req.Password); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "user deleted"})
}
