package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/infra/config"
	"github.com/raetselonkel/labyrinth/internal/infra/database"
	kafkainfra "github.com/raetselonkel/labyrinth/internal/infra/kafka"
	"github.com/raetselonkel/labyrinth/internal/infra/logger"
	"github.com/raetselonkel/labyrinth/internal/infra/mail"
	redisinfra "github.com/raetselonkel/labyrinth/internal/infra/redis"
	"github.com/raetselonkel/labyrinth/internal/infra/security"
	"github.com/raetselonkel/labyrinth/internal/infra/storage"
	postgresrepo "github.com/raetselonkel/labyrinth/internal/repository/postgres"
	redisrepo "github.com/raetselonkel/labyrinth/internal/repository/redis"
	"github.com/raetselonkel/labyrinth/internal/transport/http/middleware"
	"github.com/raetselonkel/labyrinth/internal/transport/http/routes"
	"github.com/raetselonkel/labyrinth/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	tokens, err := security.NewJWTIssuer(cfg.JWT)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	hasher := security.NewPasswordHasher(cfg.Argon2)

	var denylist []byte
	if cfg.Security.BadPasswordFile != "" {
		denylist, err = security.LoadMD5Denylist(cfg.Security.BadPasswordFile)
		if err != nil {
			log.Warn("failed to load password denylist", zap.Error(err))
		}
	}
	passwordPolicy := security.NewPasswordValidator(cfg.Security.MinPasswordLen, denylist)

	blobStore, err := storage.NewObjectStore(cfg.Storage, log)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init object store: %w", err)
	}

	waEngine, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.Webauthn.RPDisplayName,
		RPID:          cfg.Webauthn.RPID,
		RPOrigins:     cfg.Webauthn.RPOrigins,
	})
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init webauthn: %w", err)
	}

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var mailer port.Mailer
	if cfg.Mail.Host != "" {
		mailer = mail.NewSMTPMailer(cfg.Mail, log)
	} else {
		log.Info("mail host not configured, logging activation pins")
		mailer = mail.NewLogMailer(log)
	}

	users := postgresrepo.NewUserRepository(pool)
	rooms := postgresrepo.NewRoomRepository(pool)
	riddles := postgresrepo.NewRiddleRepository(pool)
	sessions := redisrepo.NewWebauthnSessionStore(redisClient.Client())
	rateLimitStore := redisrepo.NewRateLimitStore(redisClient.Client())

	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	accessService := usecase.NewAccessService(users, rooms, riddles, blobStore, log)
	solveService := usecase.NewSolveService(users, riddles, accessService, eventPublisher, log)
	traversalService := usecase.NewTraversalService(users, rooms, domain.DefaultDirections(), eventPublisher, log)
	registrationService := usecase.NewRegistrationService(
		users, rooms, hasher, passwordPolicy, mailer, eventPublisher, tokens,
		cfg.Game.TOTPIssuer, cfg.Game.DefaultGameID, log)
	authService := usecase.NewAuthService(users, hasher, tokens, log)
	userService := usecase.NewUserService(users, hasher, passwordPolicy, cfg.Game.TOTPIssuer, log)
	statsService := usecase.NewStatsService(rooms, log)
	passkeyService := usecase.NewPasskeyService(users, sessions, waEngine, tokens, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Tokens:      tokens,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Registration: registrationService,
			Auth:         authService,
			Users:        userService,
			Access:       accessService,
			Solve:        solveService,
			Traversal:    traversalService,
			Stats:        statsService,
			Passkeys:     passkeyService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting labyrinth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
