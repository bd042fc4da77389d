package handler

import (
	"context"
	"net/http"

	"github.com/go-social-auth/internal/domain"
	"github.com/go-social-auth/internal/pkg/validate"
)

type challengeIssuer interface {
	StartVerify(ctx context.Context, email string) error
}

// VerifyEmailHandler sends a one-time code to an address.
type VerifyEmailHandler struct {
	challenges challengeIssuer
}

func NewVerifyEmailHandler(challenges challengeIssuer) *VerifyEmailHandler {
	return &VerifyEmailHandler{challenges: challenges}
}

func (h *VerifyEmailHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyEmailRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.challenges.StartVerify(r.Context(), req.Email); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "verification email sent"})
}
