package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/superio/interview-server-go/internal/config"
	"github.com/superio/interview-server-go/internal/database"
	"github.com/superio/interview-server-go/internal/handler"
	"github.com/superio/interview-server-go/internal/jobs"
	"github.com/superio/interview-server-go/internal/metrics"
	"github.com/superio/interview-server-go/internal/middleware"
	"github.com/superio/interview-server-go/internal/redis"
	"github.com/superio/interview-server-go/internal/repository"
	"github.com/superio/interview-server-go/internal/service"
	"github.com/superio/interview-server-go/internal/telemetry"
	"github.com/superio/interview-server-go/internal/token"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(cfg.IsProduction()); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.TracingEnabled, cfg.AppEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	interviewRepo := repository.NewInterviewRepository(db.DB)
	applicationRepo := repository.NewApplicationRepository(db.DB)
	jobRepo := repository.NewJobRepository(db.DB)
	userRepo := repository.NewUserRepository(db.DB)
	companyRepo := repository.NewCompanyRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)

	var meetings service.MeetingProvider
	if cfg.MeetingAPIURL != "" {
		meetings = service.NewHTTPMeetingProvider(cfg.MeetingAPIURL, cfg.MeetingAPIToken, cfg.MeetingTimeout())
	} else {
		meetings = service.NewFakeMeetingProvider(cfg.MeetingFakeDelay())
	}
	publisher := service.NewRedisNotificationPublisher(redisClient.Client)
	resumes := service.NewCachedResumeExtractor(
		service.NewPDFResumeExtractor(cfg.ResumeDir), redisClient.Client, config.ResumeTextCacheTTL,
	)

	slotLocation := cfg.SlotLocation()
	schedulingService := service.NewSchedulingService(
		db, interviewRepo, applicationRepo, jobRepo, notificationRepo, meetings, publisher, slotLocation,
	)
	evaluationService := service.NewEvaluationService(interviewRepo)
	detailService := service.NewDetailService(interviewRepo, applicationRepo, jobRepo, userRepo, resumes)
	credentialService := service.NewCredentialService(service.CredentialSettings{
		ServerURL:        cfg.LiveKitURL,
		APIKey:           cfg.LiveKitAPIKey,
		APISecret:        cfg.LiveKitAPISecret,
		DelegationSecret: cfg.DelegationSecret,
		PublicBaseURL:    cfg.PublicBaseURL,
		AgentMetadataKey: cfg.AgentMetadataKey,
	}, interviewRepo, userRepo, jobRepo)
	rateLimiter := service.NewRateLimiter(redisClient.Client)

	authMiddleware := middleware.NewAuthMiddleware(
		token.NewSessionVerifier(cfg.AuthJWTSecret),
		token.NewDelegationSigner(cfg.DelegationSecret),
		userRepo,
		companyRepo,
	)
	connectionRateLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, cfg.ConnectionRateLimitPerMin, config.ConnectionRateLimitWindow, "connection",
	)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(cfg.IsProduction())

	interviewHandler := handler.NewInterviewHandler(
		schedulingService, evaluationService, detailService, service.NewSlotRecommender(slotLocation),
	)
	connectionHandler := handler.NewConnectionHandler(credentialService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", "token"},
		AllowCredentials: true,
	}))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		ctx, cancel := context.WithTimeout(r.Context(), config.DBPingTimeout)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("health check database ping failed")
			status, code = "degraded", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    status,
			"timestamp": time.Now().UnixMilli(),
		})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/interview", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Mount("/", interviewHandler.Routes())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(connectionRateLimit.Handler)
		r.Mount("/", connectionHandler.Routes())
	})

	reconcileJob := jobs.NewReconcileJob(interviewRepo, cfg.ReconcileInterval())
	reconcileJob.Start()
	defer reconcileJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.AppEnv).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to flush traces")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
