package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-social-auth/internal/domain"
	"github.com/go-social-auth/internal/pkg/id"
	"github.com/go-social-auth/internal/pkg/password"
	"github.com/go-social-auth/internal/pkg/validate"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, name string) (*domain.User, error)
	Update(ctx context.Context, name string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, name, currentPassword string) error
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, name string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, name string, upd domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, name string) error
}

type secretVerifier interface {
	Verify(hash, candidate string) bool
}

type emailVerifier interface {
	EndVerify(ctx context.Context, email, code string) (string, error)
}

type service struct {
	repo     userStore
	verifier emailVerifier
	secrets  secretVerifier
}

type ServiceDeps struct {
	UserRepo      userStore
	EmailVerifier emailVerifier
	Secrets       secretVerifier // defaults to bcrypt
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:     deps.UserRepo,
		verifier: deps.EmailVerifier,
		secrets:  deps.Secrets,
	}
	if s.secrets == nil {
		s.secrets = password.Bcrypt{}
	}
	return s
}

// Register creates an account once the e-mail challenge is redeemed. The
// challenge is consumed even when creation later fails. An address that already
// belongs to an account is rejected before the challenge is touched.
func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}

	switch _, err := s.repo.GetByEmail(ctx, req.Email); {
	case err == nil:
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("lookup email: %v: %w", err, domain.ErrDependency)
	}

	email, err := s.verifier.EndVerify(ctx, req.Email, req.EmailToken)
	if err != nil {
		return nil, err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %v: %w", err, domain.ErrDependency)
	}
	now := time.Now().UTC()
	u := &domain.User{
		Name:         req.Name,
		UserID:       id.At(now),
		Display:      req.Display,
		Email:        email,
		PasswordHash: hash,
		CountryCode:  req.CountryCode,
		CreatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		slog.WarnContext(ctx, "create user failed", "name", req.Name, "err", err)
		return nil, fmt.Errorf("create user: %v: %w", err, domain.ErrDependency)
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, name string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get user: %v: %w", err, domain.ErrDependency)
	}
	return u, err
}

// Update changes the display name and/or password of the named account.
func (s *service) Update(ctx context.Context, name string, req domain.UpdateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if req.Display == nil && req.Password == nil {
		return nil, fmt.Errorf("nothing to update: %w", domain.ErrBadRequest)
	}

	upd := domain.UserUpdate{Display: req.Display}
	if req.Password != nil {
		hash, err := password.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %v: %w", err, domain.ErrDependency)
		}
		upd.PasswordHash = &hash
	}

	u, err := s.repo.Update(ctx, name, upd)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		slog.WarnContext(ctx, "update user failed", "name", name, "err", err)
		return nil, fmt.Errorf("update user: %v: %w", err, domain.ErrDependency)
	}
	return u, err
}

// Delete removes the named account after re-checking its password. Credentials
// already issued for it stop validating once the record is gone.
func (s *service) Delete(ctx context.Context, name, currentPassword string) error {
	u, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if !s.secrets.Verify(u.PasswordHash, currentPassword) {
		return fmt.Errorf("password mismatch: %w", domain.ErrUnauthorized)
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		slog.WarnContext(ctx, "delete user failed", "name", name, "err", err)
		return fmt.Errorf("delete user: %v: %w", err, domain.ErrDependency)
	}
	slog.InfoContext(ctx, "user deleted", "name", name)
	return nil
}
