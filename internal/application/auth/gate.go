package auth

import (
	"context"
	"fmt"

	"github.com/go-social-auth/internal/domain"
)

// MetadataKey is the call-metadata key carrying the bearer credential.
const MetadataKey = "token"

// Metadata is per-call string metadata. google.golang.org/grpc/metadata.MD
// satisfies it directly.
type Metadata interface {
	Get(key string) []string
}

type credentialValidator interface {
	Validate(ctx context.Context, credential string) (*domain.User, error)
}

// Gate resolves the credential presented on an inbound call to a user.
type Gate struct {
	credentials credentialValidator
}

func NewGate(credentials credentialValidator) *Gate {
	return &Gate{credentials: credentials}
}

// Authenticate fails with domain.ErrUnauthorized when md carries no usable
// credential. Validation errors are returned unchanged.
func (g *Gate) Authenticate(ctx context.Context, md Metadata) (*domain.User, error) {
	if md == nil {
		return nil, fmt.Errorf("missing call metadata: %w", domain.ErrUnauthorized)
	}
	values := md.Get(MetadataKey)
	if len(values) == 0 || values[0] == "" {
		return nil, fmt.Errorf("missing credential: %w", domain.ErrUnauthorized)
	}
	raw := values[0]
	if !isVisibleASCII(raw) {
		return nil, fmt.Errorf("credential is not valid text: %w", domain.ErrUnauthorized)
	}
	return g.credentials.Validate(ctx, raw)
}

// isVisibleASCII matches the character set allowed in a text metadata value.
func isVisibleASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
