package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/domain"
	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/infra/config"
	"github.com/raetselonkel/labyrinth/internal/transport/http/handlers"
	"github.com/raetselonkel/labyrinth/internal/transport/http/middleware"
	"github.com/raetselonkel/labyrinth/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Registration *usecase.RegistrationService
	Auth         *usecase.AuthService
	Users        *usecase.UserService
	Access       *usecase.AccessService
	Solve        *usecase.SolveService
	Traversal    *usecase.TraversalService
	Stats        *usecase.StatsService
	Passkeys     *usecase.PasskeyService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Tokens      port.TokenIssuer
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.Webauthn.RPOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	requireAuth := middleware.RequireAuth(deps.Tokens)
	requireAdmin := middleware.RequireRole(domain.RoleAdmin)

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	userHandler := handlers.NewUserHandler(deps.Services.Registration, deps.Services.Auth, deps.Services.Users)
	riddleHandler := handlers.NewRiddleHandler(deps.Services.Access, deps.Services.Solve)
	gameHandler := handlers.NewGameHandler(deps.Services.Traversal, deps.Services.Stats)
	webauthnHandler := handlers.NewWebauthnHandler(deps.Services.Passkeys)

	api := r.Group("/api")
	{
		api.GET("/ping", handlers.Ping)

		user := api.Group("/user")
		{
			user.POST("/register", rateLimited(deps, "register_ip", deps.Config.RateLimit.RegisterMaxAttempts, middleware.ClientIPIdentifier(), userHandler.Register)...)
			user.POST("/activate", userHandler.Activate)
			user.POST("/login", rateLimited(deps, "login_ip", deps.Config.RateLimit.LoginMaxAttempts, middleware.ClientIPIdentifier(), userHandler.Login)...)
			user.POST("/totp/login", requireAuth, userHandler.LoginTOTP)
			user.POST("/totp/enable", requireAuth, userHandler.EnableTOTP)
			user.POST("/totp/disable", requireAuth, userHandler.DisableTOTP)
			user.POST("/passwd", requireAuth, userHandler.ChangePassword)
			user.GET("/whoami", requireAuth, userHandler.Whoami)
			user.GET("/auth", requireAuth, userHandler.Auth)

			webauthn := user.Group("/webauthn")
			{
				webauthn.POST("/register/start", requireAuth, webauthnHandler.RegisterStart)
				webauthn.POST("/register/finish", requireAuth, webauthnHandler.RegisterFinish)
				webauthn.POST("/login/start/:username", webauthnHandler.LoginStart)
				webauthn.POST("/login/finish/:username", webauthnHandler.LoginFinish)
			}
		}

		riddle := api.Group("/riddle")
		riddle.Use(requireAuth)
		{
			riddle.GET("/debriefing/:id", riddleHandler.Debriefing)
			riddle.POST("/solve/:id", rateLimited(deps, "solve_user", deps.Config.RateLimit.SolveMaxAttempts, middleware.UsernameIdentifier(), riddleHandler.Solve)...)
			riddle.GET("/:id", riddleHandler.Get)
		}

		api.GET("/go/:direction", requireAuth, gameHandler.Go)
		api.GET("/game/stats/:id", requireAuth, gameHandler.Stats)

		admin := api.Group("/admin")
		admin.Use(requireAuth)
		{
			admin.GET("/riddle/by/level/:level", requireAdmin, riddleHandler.ByLevel)
			admin.GET("/promote/:user/:role", requireAdmin, userHandler.Promote)
		}
	}

	return r
}

func rateLimited(deps Dependencies, name string, limit int, identifier middleware.IdentifierFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return []gin.HandlerFunc{handler}
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: identifier,
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule), handler}
}
