package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/studentauth/internal/app/controllers"
	appMigrations "github.com/yigit/studentauth/internal/app/migrations"
	appRepos "github.com/yigit/studentauth/internal/app/repositories"
	appRoutes "github.com/yigit/studentauth/internal/app/routes"
	appServices "github.com/yigit/studentauth/internal/app/services"
	"github.com/yigit/studentauth/internal/config"
	"github.com/yigit/studentauth/internal/db"
	"github.com/yigit/studentauth/internal/metrics"
	appMiddleware "github.com/yigit/studentauth/internal/middleware"
	pkgAuth "github.com/yigit/studentauth/internal/pkg/auth"
	"github.com/yigit/studentauth/internal/pkg/logger"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	CredentialStore *appServices.CredentialStore
	AuthService     *appServices.AuthService
	AuthController  *appControllers.AuthController
	AuthMiddleware  *appMiddleware.AuthMiddleware
	Metrics         *metrics.Collector
	Repos           *appRepos.Repositories
	JWTService      *pkgAuth.JWTService
	Logger          zerolog.Logger
}

// Database is an open datastore together with the repositories built on it
type Database struct {
	Repos  *appRepos.Repositories
	Driver string
	close  func() error
}

// Close releases the underlying connection or pool
func (d *Database) Close() error {
	if d == nil || d.close == nil {
		return nil
	}
	return d.close()
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath, ".env")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	lgr := logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  prettyLog,
		Service: "studentauth",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase opens the configured datastore and applies the embedded migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Database, error) {
	lgr.Info().Str("driver", cfg.Database.Driver).Msg("Establishing database connection...")

	switch cfg.Database.Driver {
	case "postgres":
		database, err := db.NewPostgresDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := database.Ping(pingCtx); err != nil {
			lgr.Error().Err(err).Msg("Failed to ping database")
			database.Close()
			return nil, err
		}

		if err := appMigrations.NewMigrator(database, appMigrations.Postgres, lgr).Up(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}

		lgr.Info().Msg("Database connection successfully established.")
		return &Database{
			Repos:  appRepos.NewPostgresRepositories(database.Pool),
			Driver: cfg.Database.Driver,
			close:  database.Close,
		}, nil

	case "sqlite":
		database, err := db.NewSQLiteDB(cfg.Database.SQLitePath)
		if err != nil {
			lgr.Error().Err(err).Str("path", cfg.Database.SQLitePath).Msg("Failed to open sqlite database")
			return nil, err
		}

		if err := appMigrations.NewMigrator(database, appMigrations.SQLite, lgr).Up(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}

		lgr.Info().Str("path", cfg.Database.SQLitePath).Msg("SQLite database ready.")
		return &Database{
			Repos:  appRepos.NewSQLiteRepositories(database.DB),
			Driver: cfg.Database.Driver,
			close:  database.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// BuildDependencies initializes application services, middleware and controllers.
func BuildDependencies(cfg *config.Config, database *Database, reg prometheus.Registerer, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{
		Repos:  database.Repos,
		Logger: lgr,
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.AccessTokenTTL(),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.Metrics = metrics.NewCollector(reg)

	deps.CredentialStore = appServices.NewCredentialStore(
		deps.Repos.StudentRepository,
		pkgAuth.NewPasswordHasher(cfg.Security.BcryptCost),
		deps.JWTService,
		lgr.With().Str("component", "credential_store").Logger(),
	)

	deps.AuthService = appServices.NewAuthService(
		deps.CredentialStore,
		deps.Metrics,
		lgr.With().Str("component", "auth_service").Logger(),
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.AuthService)

	deps.AuthController = appControllers.NewAuthController(
		deps.AuthService,
		appControllers.CookieOptions{
			Secure:   cfg.Cookie.Secure,
			SameSite: cfg.CookieSameSite(),
			Domain:   cfg.Cookie.Domain,
		},
		lgr,
	)

	return deps
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, gatherer prometheus.Gatherer, lgr zerolog.Logger) *gin.Engine {
	switch {
	case cfg.IsProduction():
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	case strings.EqualFold(cfg.Server.Mode, "test"):
		gin.SetMode(gin.TestMode)
	}

	router := gin.New()

	router.Use(
		appMiddleware.RequestLogger(lgr),
		appMiddleware.Recovery(lgr),
		cors.New(corsConfig(cfg.CORSOriginList())),
		appMiddleware.BodyLimit(int64(cfg.Server.JSONBodyLimit), int64(cfg.Server.FormBodyLimit)),
		appMiddleware.ErrorHandler(),
		appMiddleware.Metrics(deps.Metrics),
	)

	// Setup API routes using the dependencies
	appRoutes.SetupRouter(router, deps.AuthController, deps.AuthMiddleware)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	router.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	// Anything else is looked up in the static directory
	router.NoRoute(appMiddleware.StaticFallback(cfg.Server.StaticDir))

	return router
}

// corsConfig allows credentialed requests from the configured origins.
// A "*" entry reflects any origin, since a literal wildcard cannot be combined with credentials.
func corsConfig(origins []string) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsCfg.OptionsResponseStatusCode = http.StatusOK

	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}

	if wildcard || len(origins) == 0 {
		corsCfg.AllowOriginFunc = func(string) bool { return wildcard }
		return corsCfg
	}

	corsCfg.AllowOrigins = origins
	return corsCfg
}
