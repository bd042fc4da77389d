package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so transports can map them to status codes without leaking
// whether an identity or e-mail exists.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrNotVerified       = errors.New("email could not be verified")
	ErrNotFound          = errors.New("not found")
	ErrDependency        = errors.New("dependency failure")
	ErrConflict          = errors.New("conflict")
	ErrBadRequest        = errors.New("bad request")
)
