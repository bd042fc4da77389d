package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-social-auth/internal/application/auth"
	"github.com/go-social-auth/internal/application/credential"
	"github.com/go-social-auth/internal/application/user"
	"github.com/go-social-auth/internal/application/verification"
	"github.com/go-social-auth/internal/config"
	"github.com/go-social-auth/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-social-auth/internal/infrastructure/jwt"
	"github.com/go-social-auth/internal/infrastructure/mailtmpl"
	"github.com/go-social-auth/internal/infrastructure/smtp"
	"github.com/go-social-auth/internal/pkg/password"
	grpctransport "github.com/go-social-auth/internal/transport/grpc"
	transporthttp "github.com/go-social-auth/internal/transport/http"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})))
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded",
		"env", cfg.AppEnv,
		"jwt_algo", cfg.JWTAlgorithm,
		"jwt_key", "***",
		"jwt_expiry", cfg.JWTExpiry,
		"verify_code_len", cfg.VerifyCodeLength,
		"verify_code_expiry", cfg.VerifyCodeExpiry,
		"sweep_interval", cfg.SweepInterval,
		"smtp_host", cfg.SMTPHost,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		slog.Error("dynamodb client", "err", err)
		os.Exit(1)
	}
	if err := dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables); err != nil {
		slog.Error("dynamodb bootstrap", "err", err)
		os.Exit(1)
	}
	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		slog.Error("jwt provider", "err", err)
		os.Exit(1)
	}
	slog.Debug("jwt provider ready", "alg", jwtProvider.Algorithm())

	credentials := credential.NewService(credential.ServiceDeps{
		UserRepo:    userRepo,
		Secrets:     password.Bcrypt{},
		JWTProvider: jwtProvider,
	})
	store := verification.NewStore(verification.StoreDeps{
		Config:   verification.ConfigFrom(cfg),
		Mailer:   smtp.NewMailer(cfg),
		Renderer: mailtmpl.NewRenderer(),
	})
	gate := auth.NewGate(credentials)

	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		store.Run(ctx)
	}()

	users := user.NewService(user.ServiceDeps{UserRepo: userRepo, EmailVerifier: store})

	router := transporthttp.NewRouter(ctx, cfg, &transporthttp.Deps{
		Credentials:  credentials,
		Users:        users,
		Verification: store,
		Gate:         gate,
	})
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  60 * time.Second,
	}

	public := append([]string{healthpb.Health_Check_FullMethodName, healthpb.Health_Watch_FullMethodName},
		grpctransport.PublicMethods()...)
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpctransport.UnaryInterceptor(gate, public...)),
		grpc.ChainStreamInterceptor(grpctransport.StreamInterceptor(gate, public...)),
	)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	grpctransport.RegisterAccounts(grpcServer, grpctransport.NewAccounts(grpctransport.AccountsDeps{
		Credentials: credentials,
		Challenges:  store,
		Users:       users,
	}))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		slog.Error("grpc listen", "port", cfg.GRPCPort, "err", err)
		os.Exit(1)
	}

	go func() {
		slog.Info("http server starting", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "err", err)
			stop()
		}
	}()
	go func() {
		slog.Info("grpc server starting", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("grpc server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	healthSrv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced http shutdown", "err", err)
	}
	grpcServer.GracefulStop()
	<-sweeperDone
	slog.Info("stopped")
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
