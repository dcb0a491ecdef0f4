package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appControllers "github.com/ssis-app/ssis/internal/app/controllers"
	appMigrations "github.com/ssis-app/ssis/internal/app/migrations"
	"github.com/ssis-app/ssis/internal/app/models/dto"
	appRepos "github.com/ssis-app/ssis/internal/app/repositories"
	"github.com/ssis-app/ssis/internal/app/repositories/memory"
	appRoutes "github.com/ssis-app/ssis/internal/app/routes"
	appServices "github.com/ssis-app/ssis/internal/app/services"
	"github.com/ssis-app/ssis/internal/cache"
	"github.com/ssis-app/ssis/internal/config"
	"github.com/ssis-app/ssis/internal/db"
	"github.com/ssis-app/ssis/internal/events"
	appMiddleware "github.com/ssis-app/ssis/internal/middleware"
	pkgAuth "github.com/ssis-app/ssis/internal/pkg/auth"
	"github.com/ssis-app/ssis/internal/pkg/filestorage"
	"github.com/ssis-app/ssis/internal/pkg/helpers"
	"github.com/ssis-app/ssis/internal/pkg/logger"
	"github.com/ssis-app/ssis/internal/seed"
)

// UploadsURL is the path uploaded files are served under.
const UploadsURL = "/uploads"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos              *appRepos.Repositories
	DBPool             *pgxpool.Pool // nil for the memory driver
	Cache              cache.DropdownCache
	Events             events.Publisher
	FileStorage        *filestorage.LocalStorage
	JWTService         *pkgAuth.JWTService
	AuthService        *appServices.AuthService
	CollegeService     appServices.CollegeService
	ProgramService     appServices.ProgramService
	StudentService     appServices.StudentService
	SpreadsheetService *appServices.SpreadsheetService
	PhotoService       *appServices.PhotoService
	Controllers        appRoutes.Controllers
	AuthMiddleware     *appMiddleware.AuthMiddleware
	Logger             zerolog.Logger
}

// Close releases the connections held by the dependencies.
func (d *Dependencies) Close() {
	if d.Events != nil {
		if err := d.Events.Close(); err != nil {
			d.Logger.Warn().Err(err).Msg("Failed to close event publisher")
		}
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Logger.Warn().Err(err).Msg("Failed to close dropdown cache")
		}
	}
	if d.DBPool != nil {
		d.DBPool.Close()
	}
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if p := os.Getenv("SSIS_CONFIG"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.ParseConfig(cfg.Logging.Level, cfg.Logging.Format))

	lgr := logger.Get()
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase opens the configured store, applies migrations and seeds the
// default data. The returned pool is nil for the memory driver.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*appRepos.Repositories, *pgxpool.Pool, error) {
	var (
		repos  *appRepos.Repositories
		dbPool *pgxpool.Pool
	)

	switch cfg.Database.Driver {
	case config.DriverMemory:
		lgr.Warn().Msg("Using the in-memory store; data is lost on restart")
		repos = memory.NewRepositories()

	default:
		lgr.Info().Msg("Establishing database connection...")
		database, err := db.NewPostgresDB(ctx, cfg, logger.Component("db"))
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, nil, err
		}
		dbPool = database.Pool
		lgr.Info().Msg("Database connection successfully established.")

		lgr.Info().Msg("Running database migrations...")
		migrationsDir := "migrations"
		if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
			dbPool.Close()
			return nil, nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
		}
		migrator := appMigrations.NewMigrator(database, lgr)
		if err := migrator.Up(ctx, os.DirFS(migrationsDir)); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Msg("Database migrations successfully applied.")

		repos = appRepos.NewRepositories(dbPool)
	}

	if cfg.Database.Seed {
		opts := seed.Options{DemoStudents: cfg.Database.DemoStudents, RandSeed: 1}
		if err := seed.CreateDefaultData(ctx, repos, lgr, opts); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return repos, dbPool, nil
}

// SetupCache connects the dropdown cache, falling back to no caching when
// Redis is disabled or unreachable.
func SetupCache(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) cache.DropdownCache {
	if !cfg.Redis.Enabled {
		return cache.Nop{}
	}
	rc, err := cache.NewRedisCache(ctx, cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      helpers.ParseDuration(cfg.Redis.DropdownTTL, 10*time.Minute),
	})
	if err != nil {
		lgr.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, dropdown cache disabled")
		return cache.Nop{}
	}
	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Dropdown cache connected")
	return rc
}

// SetupEvents creates the mutation event publisher.
func SetupEvents(cfg *config.Config, lgr zerolog.Logger) events.Publisher {
	if !cfg.Kafka.Enabled {
		return events.Nop{}
	}
	lgr.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Publishing mutation events")
	return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger.Component("events"))
}

// BuildDependencies initializes application services and controllers on top
// of the given repositories.
func BuildDependencies(
	cfg *config.Config,
	repos *appRepos.Repositories,
	dbPool *pgxpool.Pool,
	dropdowns cache.DropdownCache,
	publisher events.Publisher,
	lgr zerolog.Logger,
) (*Dependencies, error) {
	deps := &Dependencies{
		Repos:  repos,
		DBPool: dbPool,
		Cache:  dropdowns,
		Events: publisher,
		Logger: lgr,
	}

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, UploadsURL)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	lists := appServices.ListConfig{
		CollegesPerPage: cfg.Pagination.CollegesPerPage,
		ProgramsPerPage: cfg.Pagination.ProgramsPerPage,
		StudentsPerPage: cfg.Pagination.StudentsPerPage,
		MaxPerPage:      cfg.Pagination.MaxPerPage,
	}
	svcLog := logger.Component("services")

	deps.AuthService = appServices.NewAuthService(repos.Users, deps.JWTService, svcLog)
	deps.CollegeService = appServices.NewCollegeService(repos.Colleges, lists, dropdowns, publisher, svcLog)
	deps.ProgramService = appServices.NewProgramService(repos.Programs, repos.Colleges, lists, dropdowns, publisher, svcLog)
	deps.StudentService = appServices.NewStudentService(repos.Students, repos.Programs, lists, dropdowns, publisher, svcLog)
	deps.SpreadsheetService = appServices.NewSpreadsheetService(deps.StudentService, svcLog)
	deps.PhotoService = appServices.NewPhotoService(deps.StudentService, deps.FileStorage, svcLog)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, cfg.JWT.CookieName)

	var ping appControllers.PingFunc
	if dbPool != nil {
		ping = dbPool.Ping
	}
	deps.Controllers = appRoutes.Controllers{
		Auth: appControllers.NewAuthController(deps.AuthService, appControllers.CookieConfig{
			Name:   cfg.JWT.CookieName,
			Secure: cfg.JWT.CookieSecure,
		}, logger.Component("auth")),
		College: appControllers.NewCollegeController(deps.CollegeService),
		Program: appControllers.NewProgramController(deps.ProgramService),
		Student: appControllers.NewStudentController(deps.StudentService, deps.SpreadsheetService, deps.PhotoService),
		Health:  appControllers.NewHealthController(cfg.Database.Driver, ping),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	gin.SetMode(ginMode(cfg.Server.Mode, gin.Mode()))
	lgr.Info().Str("mode", gin.Mode()).Msg("Configured Gin mode")

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(logger.Component("http")))
	router.Use(appMiddleware.CORS(cfg.Server.CORSOrigins))
	router.MaxMultipartMemory = 8 << 20

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.Static(UploadsURL, deps.FileStorage.BasePath())
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrorCodeResourceNotFound, "Route not found"))
	})

	return router, nil
}

// ginMode maps the configured server mode to a Gin mode. A process already
// in test mode stays there.
func ginMode(serverMode, current string) string {
	switch {
	case current == gin.TestMode:
		return gin.TestMode
	case strings.EqualFold(serverMode, "production"):
		return gin.ReleaseMode
	case strings.EqualFold(serverMode, "test"):
		return gin.TestMode
	}
	return gin.DebugMode
}
