package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-social-auth/internal/application/auth"
	"github.com/go-social-auth/internal/domain"
)

type authenticator interface {
	Authenticate(ctx context.Context, md auth.Metadata) (*domain.User, error)
}

// headerMetadata exposes request headers as call metadata.
type headerMetadata http.Header

func (h headerMetadata) Get(key string) []string { return http.Header(h).Values(key) }

// Auth returns middleware that resolves the "token" header through the gate and
// injects the user into the request context. Every failure is a 401.
func Auth(gate authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := gate.Authenticate(r.Context(), headerMetadata(r.Header))
			if err != nil {
				slog.WarnContext(r.Context(), "auth failure", "path", r.URL.Path, "remote", realIP(r), "err", err)
				writeJSONError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
		})
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}
