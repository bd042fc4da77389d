package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-social-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

type mockValidator struct{ mock.Mock }

func (m *mockValidator) Validate(ctx context.Context, credential string) (*domain.User, error) {
	args := m.Called(ctx, credential)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestAuthenticate_ValidCredential(t *testing.T) {
	v := &mockValidator{}
	v.On("Validate", mock.Anything, "good-token").Return(&domain.User{Name: "alice"}, nil)

	u, err := NewGate(v).Authenticate(context.Background(), metadata.Pairs("token", "good-token"))

	require.NoError(t, err)
	assert.Equal(t, "alice", u.Name)
	v.AssertExpectations(t)
}

func TestAuthenticate_MissingCredential(t *testing.T) {
	v := &mockValidator{}
	gate := NewGate(v)

	cases := map[string]Metadata{
		"nil metadata":   nil,
		"no token key":   metadata.Pairs("authorization", "Bearer x"),
		"empty token":    metadata.Pairs("token", ""),
		"non-text token": metadata.Pairs("token", "abc\x00def"),
		"non-ascii":      metadata.Pairs("token", "tökén"),
	}
	for name, md := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := gate.Authenticate(context.Background(), md)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
	v.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything)
}

func TestAuthenticate_ValidationErrorsPropagateUnchanged(t *testing.T) {
	for _, want := range []error{
		fmt.Errorf("expired: %w", domain.ErrInvalidCredential),
		fmt.Errorf("deleted: %w", domain.ErrNotFound),
	} {
		v := &mockValidator{}
		v.On("Validate", mock.Anything, "tok").Return(nil, want)

		_, err := NewGate(v).Authenticate(context.Background(), metadata.Pairs("token", "tok"))
		assert.Equal(t, want, err)
	}
}

func TestUserContext_RoundTrip(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), &domain.User{Name: "alice"})
	u, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "alice", u.Name)
}
