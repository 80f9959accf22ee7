package setup

import (
	"context"
	"log"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/database"
	"github.com/Dpatt168/RoGrouper-sub001/internal/redis"
	"github.com/Dpatt168/RoGrouper-sub001/internal/setup/client"
	"github.com/Dpatt168/RoGrouper-sub001/internal/setup/config"
	"github.com/Dpatt168/RoGrouper-sub001/internal/setup/logging"
	"github.com/jaxron/roapi.go/pkg/api"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config  // Application configuration
	ConfigDir    string          // Directory the configuration was loaded from
	Logger       *zap.Logger     // Main application logger
	DBLogger     *zap.Logger     // Database-specific logger
	DB           database.Client // Database connection pool
	RoAPI        *api.API        // RoAPI HTTP client
	BotCookie    string          // Raw bot cookie for privileged write endpoints
	RedisManager *redis.Manager  // Redis connection manager
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, logDir string) (*App, error) {
	// Load app configuration
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logger, dbLogger, err := logging.GetLoggers(logDir, cfg.Common.Debug.LogLevel, cfg.Common.Debug.MaxLogsToKeep)
	if err != nil {
		return nil, err
	}

	// Redis manager provides connection pools for various subsystems
	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	// Initialize database with automatic migrations
	db, err := database.NewConnection(ctx, &cfg.Common.PostgreSQL, dbLogger.Named("database"), true)
	if err != nil {
		return nil, err
	}

	// RoAPI client is configured with middleware chain
	requestTimeout := time.Duration(cfg.API.RequestTimeout) * time.Millisecond

	roAPI, botCookie, err := client.GetRoAPIClient(&cfg.Common, configDir, redisManager, logger, requestTimeout)
	if err != nil {
		return nil, err
	}

	// Bundle all initialized components
	return &App{
		Config:       cfg,
		ConfigDir:    configDir,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RoAPI:        roAPI,
		BotCookie:    botCookie,
		RedisManager: redisManager,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(context.Context) {
	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	// Close database connections
	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections last as other components might need it during cleanup
	s.RedisManager.Close()
}
