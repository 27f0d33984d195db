package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clearvat/clearvat/internal/app"
	"github.com/clearvat/clearvat/internal/audit"
	"github.com/clearvat/clearvat/internal/auth"
	"github.com/clearvat/clearvat/internal/branding"
	"github.com/clearvat/clearvat/internal/clients"
	"github.com/clearvat/clearvat/internal/mapping"
	"github.com/clearvat/clearvat/internal/notifications"
	"github.com/clearvat/clearvat/internal/observability"
	"github.com/clearvat/clearvat/internal/orgs"
	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/submissions"
	"github.com/clearvat/clearvat/internal/tenancy"
	"github.com/clearvat/clearvat/internal/uploads"
	"github.com/clearvat/clearvat/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	rootStore := tenancy.NewPGStore(dbpool)
	scopedStore := tenancy.NewScopedStore(rootStore)

	revocations := auth.NewRedisRevocationList(redisClient)
	issuer := auth.NewLocalVerifier(cfg.JWTSecret, cfg.JWTTTL, revocations).
		WithRefreshTTL(cfg.JWTRefreshTTL)

	// With a provider configured, self-issued tokens still verify locally;
	// anything else is delegated to the provider.
	var verifier auth.TokenVerifier = issuer
	if cfg.AuthProviderURL != "" {
		provider := auth.NewProviderVerifier(cfg.AuthProviderURL, cfg.AuthProviderKey, cfg.AuthProviderTimeout)
		verifier = auth.NewVerifierChain(issuer, provider)
		logger.Info("using external identity provider", slog.String("url", cfg.AuthProviderURL))
	}

	metrics := observability.NewMetrics()

	usersRepo := users.NewRepository(rootStore, scopedStore)
	resolver := auth.NewResolver(usersRepo, logger)
	pipeline := auth.NewPipeline(verifier, resolver, logger).WithFailureRecorder(metrics)

	recorder := audit.NewRecorder(scopedStore)
	mailer := notifications.NewService(asynqClient, logger)

	authService := auth.NewService(usersRepo, usersRepo, issuer)
	authHandler := auth.NewHandler(logger, authService)

	usersService := users.NewService(usersRepo, recorder, mailer, logger)
	usersHandler := users.NewHandler(logger, usersService)

	orgsRepo := orgs.NewRepository(dbpool)
	orgsService := orgs.NewService(orgsRepo, scopedStore)
	orgsHandler := orgs.NewHandler(logger, orgsService)

	clientsRepo := clients.NewRepository(scopedStore)
	clientsService := clients.NewService(clientsRepo, recorder, logger)
	clientsHandler := clients.NewHandler(logger, clientsService).
		WithIdempotency(shared.NewIdempotencyStore(dbpool))

	submissionsRepo := submissions.NewRepository(scopedStore)
	submissionsService := submissions.NewService(submissionsRepo, recorder, logger)
	submissionsHandler := submissions.NewHandler(logger, submissionsService)

	uploadsHandler := uploads.NewHandler(logger, uploads.NewRepository(scopedStore), recorder)
	mappingHandler := mapping.NewHandler(logger, mapping.NewRepository(scopedStore), recorder)
	brandingHandler := branding.NewHandler(logger, branding.NewRepository(scopedStore), recorder)
	auditHandler := audit.NewHandler(logger, scopedStore)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Pipeline:           pipeline,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		OrgsHandler:        orgsHandler,
		ClientsHandler:     clientsHandler,
		SubmissionsHandler: submissionsHandler,
		UploadsHandler:     uploadsHandler,
		MappingHandler:     mappingHandler,
		BrandingHandler:    brandingHandler,
		AuditHandler:       auditHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
