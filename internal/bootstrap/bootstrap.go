package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/rosterhub/internal/app/controllers"
	appRepos "github.com/yigit/rosterhub/internal/app/repositories"
	appRoutes "github.com/yigit/rosterhub/internal/app/routes"
	appServices "github.com/yigit/rosterhub/internal/app/services"
	"github.com/yigit/rosterhub/internal/config"
	"github.com/yigit/rosterhub/internal/db"
	appMiddleware "github.com/yigit/rosterhub/internal/middleware"
	pkgAuth "github.com/yigit/rosterhub/internal/pkg/auth"
	"github.com/yigit/rosterhub/internal/pkg/docstore"
	"github.com/yigit/rosterhub/internal/pkg/logger"
	"github.com/yigit/rosterhub/internal/pkg/session"
	"github.com/yigit/rosterhub/internal/pkg/validation"
	"github.com/yigit/rosterhub/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	StudentService            appServices.StudentService
	AcademicHistoryService    appServices.AcademicHistoryService
	RosterService             appServices.RosterService
	ExportService             appServices.ExportService
	AuthService               appServices.AuthService
	AuthController            *appControllers.AuthController
	StudentController         *appControllers.StudentController
	AcademicHistoryController *appControllers.AcademicHistoryController
	RosterController          *appControllers.RosterController
	HealthController          *appControllers.HealthController
	AuthMiddleware            *appMiddleware.AuthMiddleware
	Repos                     *appRepos.Repositories
	Store                     docstore.Store
	Sessions                  *session.Store
	JWTService                *pkgAuth.JWTService
	Logger                    zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStore connects the document store and creates the unique indexes.
// Startup fails if either step fails.
func SetupStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (docstore.Store, error) {
	lgr.Info().Str("driver", cfg.Database.Driver).Msg("Connecting to document store...")
	store, err := db.OpenStore(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to document store")
		return nil, err
	}

	if err := appRepos.EnsureIndexes(ctx, store); err != nil {
		lgr.Error().Err(err).Msg("Failed to create unique indexes")
		_ = store.Close(ctx)
		return nil, err
	}
	lgr.Info().Msg("Document store ready.")
	return store, nil
}

// SetupSessions connects to Redis for the session store.
func SetupSessions(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*session.Store, error) {
	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Connecting to session store...")
	client, err := session.NewClient(ctx, session.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to Redis")
		return nil, err
	}
	return NewSessionStore(client, cfg), nil
}

// NewSessionStore wraps an already connected client. Tests use it with miniredis.
func NewSessionStore(client *redis.Client, cfg *config.Config) *session.Store {
	return session.NewStore(client, cfg.SessionTTL())
}

// RosterOptions converts the roster config section.
func RosterOptions(cfg *config.Config) appServices.RosterOptions {
	return appServices.RosterOptions{
		DefaultPageSize:  cfg.Roster.DefaultPageSize,
		MaxPageSize:      cfg.Roster.MaxPageSize,
		MaxSearchResults: cfg.Roster.MaxSearchResults,
		ExportBatchSize:  cfg.Roster.ExportBatchSize,
		GradeScale:       cfg.Roster.GradeScale,
		AverageTolerance: cfg.Roster.AverageTolerance,
	}
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, store docstore.Store, sessions *session.Store, lgr zerolog.Logger) (*Dependencies, error) {
	if err := validation.RegisterCustomValidations(); err != nil {
		return nil, fmt.Errorf("failed to register validation rules: %w", err)
	}

	deps := &Dependencies{
		Store:    store,
		Sessions: sessions,
		Logger:   lgr,
	}

	deps.Repos = appRepos.NewRepositories(store)

	hasher := pkgAuth.NewPasswordHasher(cfg.Auth.BcryptCost)
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.Session.Secret,
		TokenExp:    cfg.SessionTTL(),
		TokenIssuer: cfg.Session.Issuer,
	})

	opts := RosterOptions(cfg)
	deps.StudentService = appServices.NewStudentService(
		deps.Repos.StudentRepository,
		deps.Repos.AcademicHistoryRepository,
		hasher,
		sessions,
		lgr,
	)
	deps.AcademicHistoryService = appServices.NewAcademicHistoryService(
		deps.Repos.AcademicHistoryRepository,
		deps.Repos.StudentRepository,
		opts,
		lgr,
	)
	deps.RosterService = appServices.NewRosterService(deps.StudentService, deps.AcademicHistoryService, opts)
	deps.ExportService = appServices.NewExportService(deps.RosterService)
	deps.AuthService = appServices.NewAuthService(deps.StudentService, sessions, deps.JWTService, hasher, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.AuthService, cfg.Session.CookieName)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, deps.AuthMiddleware, cfg.Session.SecureCookie)
	deps.StudentController = appControllers.NewStudentController(deps.StudentService)
	deps.AcademicHistoryController = appControllers.NewAcademicHistoryController(deps.AcademicHistoryService)
	deps.RosterController = appControllers.NewRosterController(deps.RosterService, deps.ExportService)
	deps.HealthController = appControllers.NewHealthController(map[string]appControllers.Pinger{
		"store":    store,
		"sessions": sessions,
	}, cfg.OperationTimeout())

	return deps, nil
}

// SeedDemoData loads the demo roster when seed.demo is set. Failures are
// logged and do not stop startup.
func SeedDemoData(ctx context.Context, cfg *config.Config, deps *Dependencies) {
	if !cfg.Seed.Demo {
		return
	}
	if err := seed.CreateDemoData(ctx, deps.StudentService, deps.AcademicHistoryService, deps.Logger); err != nil {
		deps.Logger.Error().Err(err).Msg("Failed to create demo data, proceeding anyway...")
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(lgr))

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, appRoutes.Controllers{
		Auth:            deps.AuthController,
		Student:         deps.StudentController,
		AcademicHistory: deps.AcademicHistoryController,
		Roster:          deps.RosterController,
		Health:          deps.HealthController,
	}, deps.AuthMiddleware)

	return router
}
