package handler

import (
	"net/http"

	"github.com/go-social-auth/internal/application/credential"
	"github.com/go-social-auth/internal/domain"
	"github.com/go-social-auth/internal/pkg/validate"
)

// SessionHandler exchanges a name and password for a bearer credential.
type SessionHandler struct {
	svc credential.Service
}

func NewSessionHandler(svc credential.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	token, err := h.svc.Issue(r.Context(), req.Name, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Token: token})
}
