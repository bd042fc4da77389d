package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-social-auth/internal/application/auth"
	"github.com/go-social-auth/internal/application/credential"
	"github.com/go-social-auth/internal/application/user"
	"github.com/go-social-auth/internal/application/verification"
	"github.com/go-social-auth/internal/config"
	"github.com/go-social-auth/internal/transport/http/handler"
	appmiddleware "github.com/go-social-auth/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds the application services behind the router.
type Deps struct {
	Credentials  credential.Service
	Users        user.Service
	Verification *verification.Store
	Gate         *auth.Gate
}

// NewRouter builds and returns the application router. Background work tied to
// the router stops when ctx is cancelled.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", auth.MetadataKey},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 on endpoints that send mail or check passwords.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(deps.Credentials)
	verifyH := handler.NewVerifyEmailHandler(deps.Verification)
	userH := handler.NewUserHandler(deps.Users)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/verify-email", verifyH.Start)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.Gate))

			r.Get("/users/me", userH.Me)
			r.Patch("/users/me", userH.UpdateMe)
			r.Delete("/users/me", userH.DeleteMe)
			r.Get("/users/{name}", userH.Get)
		})
	})

	return r
}
