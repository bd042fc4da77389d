package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-social-auth/internal/application/auth"
	"github.com/go-social-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubValidator accepts exactly one credential.
type stubValidator struct {
	credential string
	user       *domain.User
	err        error
}

func (s stubValidator) Validate(_ context.Context, credential string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if credential != s.credential {
		return nil, domain.ErrInvalidCredential
	}
	return s.user, nil
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func newGate() *auth.Gate {
	return auth.NewGate(stubValidator{credential: "good", user: &domain.User{Name: "alice"}})
}

func TestAuth_ValidToken_InjectsUser(t *testing.T) {
	var got *domain.User
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("token", "good")
	rr := httptest.NewRecorder()
	Auth(newGate())(capture).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Name)
}

func TestAuth_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		header map[string]string
		gate   *auth.Gate
	}{
		{"missing header", nil, newGate()},
		{"bad token", map[string]string{"token": "bad"}, newGate()},
		{"authorization header is not consulted", map[string]string{"Authorization": "Bearer good"}, newGate()},
		{"unknown subject", map[string]string{"token": "good"}, auth.NewGate(stubValidator{err: domain.ErrNotFound})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			Auth(tc.gate)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.JSONEq(t, `{"error":"unauthenticated"}`, rr.Body.String())
		})
	}
}
