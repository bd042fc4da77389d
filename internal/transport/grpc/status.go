package grpctransport

import (
	"errors"

	"github.com/go-social-auth/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StatusFromError maps a domain error onto a gRPC status. Messages are fixed per
// class so callers cannot tell which check failed. Errors that already carry a
// status pass through unchanged.
func StatusFromError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredential):
		return status.Error(codes.Unauthenticated, "unauthenticated")
	case errors.Is(err, domain.ErrNotVerified):
		return status.Error(codes.NotFound, "email could not be verified")
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, domain.ErrBadRequest):
		return status.Error(codes.InvalidArgument, "invalid argument")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
