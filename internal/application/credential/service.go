package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-social-auth/internal/domain"
	jwtinfra "github.com/go-social-auth/internal/infrastructure/jwt"
)

// Service issues and validates bearer credentials. It keeps no state of its own.
type Service interface {
	Issue(ctx context.Context, identity, secret string) (string, error)
	Validate(ctx context.Context, credential string) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, name string) (*domain.User, error)
}

type secretVerifier interface {
	Verify(hash, candidate string) bool
}

type tokenProvider interface {
	Sign(subject string) (string, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

type service struct {
	users   userStore
	secrets secretVerifier
	tokens  tokenProvider
}

type ServiceDeps struct {
	UserRepo    userStore
	Secrets     secretVerifier
	JWTProvider tokenProvider
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:   deps.UserRepo,
		secrets: deps.Secrets,
		tokens:  deps.JWTProvider,
	}
}

// Issue checks secret against the stored identity and returns a signed credential.
// Unknown identities and wrong secrets both fail with domain.ErrUnauthorized.
func (s *service) Issue(ctx context.Context, identity, secret string) (string, error) {
	u, err := s.users.Get(ctx, identity)
	if errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		slog.WarnContext(ctx, "identity lookup failed", "err", err)
		return "", fmt.Errorf("lookup identity: %v: %w", err, domain.ErrDependency)
	}
	if !s.secrets.Verify(u.PasswordHash, secret) {
		return "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	signed, err := s.tokens.Sign(u.Name)
	if err != nil {
		return "", fmt.Errorf("sign credential: %v: %w", err, domain.ErrDependency)
	}
	return signed, nil
}

// Validate verifies credential and resolves its subject to the current user record.
// A subject deleted after issuance fails with domain.ErrNotFound.
func (s *service) Validate(ctx context.Context, credential string) (*domain.User, error) {
	claims, err := s.tokens.Verify(credential)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, claims.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("credential subject no longer exists: %w", domain.ErrNotFound)
	}
	if err != nil {
		slog.WarnContext(ctx, "identity lookup failed", "err", err)
		return nil, fmt.Errorf("lookup identity: %v: %w", err, domain.ErrDependency)
	}
	return u, nil
}
