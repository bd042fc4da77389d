package grpctransport

import (
	"context"
	"log/slog"

	"github.com/go-social-auth/internal/application/auth"
	"github.com/go-social-auth/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type authenticator interface {
	Authenticate(ctx context.Context, md auth.Metadata) (*domain.User, error)
}

// UnaryInterceptor runs the auth gate on every method except those listed in
// public and stores the resolved user in the handler context. Handler errors
// are mapped through StatusFromError.
func UnaryInterceptor(gate authenticator, public ...string) grpc.UnaryServerInterceptor {
	skip := methodSet(public)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !skip[info.FullMethod] {
			authed, err := authenticate(ctx, gate, info.FullMethod)
			if err != nil {
				return nil, err
			}
			ctx = authed
		}
		resp, err := handler(ctx, req)
		return resp, StatusFromError(err)
	}
}

// StreamInterceptor is the streaming counterpart of UnaryInterceptor.
func StreamInterceptor(gate authenticator, public ...string) grpc.StreamServerInterceptor {
	skip := methodSet(public)
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if skip[info.FullMethod] {
			return StatusFromError(handler(srv, ss))
		}
		ctx, err := authenticate(ss.Context(), gate, info.FullMethod)
		if err != nil {
			return err
		}
		return StatusFromError(handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx}))
	}
}

// Every gate failure is reported as Unauthenticated.
func authenticate(ctx context.Context, gate authenticator, method string) (context.Context, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	u, err := gate.Authenticate(ctx, md)
	if err != nil {
		attrs := []any{"method", method, "err", err}
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			attrs = append(attrs, "peer_addr", p.Addr.String())
		}
		slog.WarnContext(ctx, "auth failure", attrs...)
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return auth.WithUser(ctx, u), nil
}

func methodSet(methods []string) map[string]bool {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[m] = true
	}
	return set
}

type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
