package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/campusmesh/internal/app/controllers"
	appMigrations "github.com/yigit/campusmesh/internal/app/migrations"
	appRepos "github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/app/repositories/memstore"
	appRoutes "github.com/yigit/campusmesh/internal/app/routes"
	appServices "github.com/yigit/campusmesh/internal/app/services"
	"github.com/yigit/campusmesh/internal/config"
	"github.com/yigit/campusmesh/internal/db"
	appMiddleware "github.com/yigit/campusmesh/internal/middleware"
	pkgAuth "github.com/yigit/campusmesh/internal/pkg/auth"
	"github.com/yigit/campusmesh/internal/pkg/filestorage"
	"github.com/yigit/campusmesh/internal/pkg/helpers"
	"github.com/yigit/campusmesh/internal/pkg/logger"
	"github.com/yigit/campusmesh/internal/pkg/push"
	"github.com/yigit/campusmesh/internal/pkg/ratelimit"
	"github.com/yigit/campusmesh/internal/pkg/websocket"
	"github.com/yigit/campusmesh/internal/seed"
)

// DefaultConfigPath is used unless CONFIG_PATH is set
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// MigrationsDir holds the SQL schema files
const MigrationsDir = "migrations"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos       *appRepos.Repositories
	Services    *appServices.Services
	Controllers appRoutes.Controllers

	JWTService     *pkgAuth.JWTService
	AuthMiddleware *appMiddleware.AuthMiddleware
	Limiter        ratelimit.Limiter
	Hub            *websocket.Hub
	FileStorage    *filestorage.LocalStorage

	DBPool      *pgxpool.Pool
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

// Close releases the external connections held by the dependencies
func (d *Dependencies) Close() {
	if d.RedisClient != nil {
		if err := d.RedisClient.Close(); err != nil {
			d.Logger.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
	if d.DBPool != nil {
		d.DBPool.Close()
	}
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(config.GetEnv("CONFIG_PATH", DefaultConfigPath))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := SetupLogger(cfg)
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupLogger configures the process logger from the logging section
func SetupLogger(cfg *config.Config) zerolog.Logger {
	return logger.Configure(logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})
}

// OpenPostgres connects to PostgreSQL without touching the schema
func OpenPostgres(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Str("host", cfg.Database.Host).Msg("Establishing database connection...")
	pool, err := db.Connect(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	return pool, nil
}

// RunMigrations applies pending migrations from MigrationsDir
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, lgr zerolog.Logger) (int, error) {
	if _, err := os.Stat(MigrationsDir); os.IsNotExist(err) {
		return 0, fmt.Errorf("migrations directory not found at %s: %w", MigrationsDir, err)
	}

	applied, err := appMigrations.NewMigrator(pool, lgr).MigrateFromDirectory(ctx, MigrationsDir)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return applied, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations complete")
	return applied, nil
}

// SetupStore selects the repositories for the configured driver. For postgres
// it also runs migrations. The returned pool is nil for the memory driver.
func SetupStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*appRepos.Repositories, *pgxpool.Pool, error) {
	if cfg.Database.Driver == config.DriverMemory {
		lgr.Warn().Msg("Using in-memory store; data is lost on restart")
		return memstore.NewRepositories(), nil, nil
	}

	pool, err := OpenPostgres(ctx, cfg, lgr)
	if err != nil {
		return nil, nil, err
	}
	if _, err := RunMigrations(ctx, pool, lgr); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return appRepos.NewRepositories(pool), pool, nil
}

// NewJWTService builds the token verifier from the jwt section
func NewJWTService(cfg *config.Config) *pkgAuth.JWTService {
	return pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
}

// NewPushSender returns the FCM sender when push is enabled
func NewPushSender(cfg *config.Config, lgr zerolog.Logger) push.Sender {
	if !cfg.Push.Enabled {
		return push.NoopSender{}
	}
	return push.NewFCMSender(push.FCMConfig{
		Endpoint:  cfg.Push.FCMEndpoint,
		ServerKey: cfg.Push.ServerKey,
		Timeout:   helpers.ParseDuration(cfg.Push.Timeout, 5*time.Second),
	}, logger.Component("push"))
}

// NewLimiter picks the redis limiter when redis is reachable and the in-process one otherwise
func NewLimiter(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (ratelimit.Limiter, *redis.Client) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := client.Ping(pingCtx).Err()
		if err == nil {
			lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Rate limiting backed by redis")
			return ratelimit.NewRedisLimiter(client, cfg.RateLimit.Requests, helpers.ParseDuration(cfg.RateLimit.Window, time.Minute)), client
		}
		lgr.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, using in-process rate limiter")
		_ = client.Close()
	}

	return ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, helpers.ParseDuration(cfg.RateLimit.Window, time.Minute)), nil
}

// BuildDependencies initializes application services and controllers on top of repos.
func BuildDependencies(ctx context.Context, cfg *config.Config, repos *appRepos.Repositories, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Repos: repos, Logger: lgr}

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, cfg.Server.BaseURL, logger.Component("filestorage"))
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.Hub = websocket.NewHub(logger.Component("hub"))
	deps.JWTService = NewJWTService(cfg)
	deps.Limiter, deps.RedisClient = NewLimiter(ctx, cfg, lgr)

	deps.Services, err = appServices.NewServices(appServices.Config{
		FanoutBatchSize: cfg.Fanout.BatchSize,
		CascadePolicy:   appServices.CascadePolicy(cfg.Accounts.CascadePolicy),
	}, appServices.Deps{
		Repos:    repos,
		Storage:  deps.FileStorage,
		Push:     NewPushSender(cfg, lgr),
		Notifier: deps.Hub,
		Logger:   lgr,
	})
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to build services: %w", err)
	}

	if _, err := seed.CreateDefaultAdmin(ctx, repos.UserRepository, cfg.Accounts.AdminUID, cfg.Accounts.AdminEmail, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default admin, proceeding anyway...")
	}

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, repos.UserRepository, lgr)

	svc := deps.Services
	deps.Controllers = appRoutes.Controllers{
		Notice:       appControllers.NewNoticeController(svc.NoticeService),
		Message:      appControllers.NewMessageController(svc.MessageService),
		Notification: appControllers.NewNotificationController(svc.NotificationService),
		Approval:     appControllers.NewApprovalController(svc.ApprovalService),
		Analytics:    appControllers.NewAnalyticsController(svc.AnalyticsService),
		User:         appControllers.NewUserController(svc.UserService),
		Group:        appControllers.NewGroupController(svc.GroupService, svc.MessageService),
		Hook:         appControllers.NewHookController(svc.UserService),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestID())
	router.Use(appMiddleware.RequestLogger(lgr))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	appRoutes.SetupSwagger(router)
	appRoutes.SetupOps(router)

	guards := appRoutes.Guards{
		Auth:       deps.AuthMiddleware,
		HookSecret: appMiddleware.HookSecret(cfg.Server.HookSecret),
	}
	if deps.Limiter != nil {
		guards.RateLimit = appMiddleware.RateLimit(deps.Limiter, lgr)
	}

	wsHandler := websocket.NewHandler(deps.Hub, cfg.Server.CORSOrigins, logger.Component("websocket"))
	appRoutes.SetupRouter(router, deps.Controllers, guards, wsHandler)

	router.Static(filestorage.URLPrefix, deps.FileStorage.BasePath())

	return router
}
