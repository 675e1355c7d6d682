package app

import (
	"context"

	"threadbox/internal/app/conversation"
	"threadbox/internal/app/health"
	"threadbox/internal/app/message"
	"threadbox/internal/app/participant"
	"threadbox/internal/app/thread"
	"threadbox/internal/app/user"
	"threadbox/internal/auth"
	"threadbox/internal/config"
	"threadbox/internal/db"
	"threadbox/internal/db/seeder"
	"threadbox/internal/providers/redis"
	"threadbox/internal/router"
	"threadbox/internal/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Application struct {
	Router   *router.Router
	DB       *gorm.DB
	Redis    *redis.RedisProvider
	EventBus *utils.EventBus
	Users    user.Service
	Issuer   *auth.Issuer
}

// Bootstrap connects the stores and wires every feature onto the router.
// Background work (redis monitor) stops when ctx is done.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dbConn, err := db.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(dbConn, logger); err != nil {
		return nil, err
	}

	redisProvider := redis.NewRedisProvider(ctx, cfg.RedisURL, logger, cfg.RedisTTL)
	eventBus := utils.NewEventBus(logger)
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := conversation.NewMetrics(registry)

	userRepo := user.NewRepository(dbConn)
	threadRepo := thread.NewRepository(dbConn)
	participantRepo := participant.NewRepository(dbConn)
	messageRepo := message.NewRepository(dbConn)

	userService := user.NewService(userRepo, redisProvider, logger)

	seed := seeder.NewSeeder(userService, logger)
	if err := seed.Seed(ctx); err != nil {
		logger.Warn("Failed to run seeders", zap.Error(err))
	}

	conversationService := conversation.NewService(
		dbConn,
		threadRepo,
		participantRepo,
		messageRepo,
		userService,
		eventBus,
		metrics,
		logger,
		cfg.ThreadsPageSize,
	)
	conversation.RegisterAuditSubscribers(eventBus, metrics, logger)

	healthHandler := health.NewHandler(health.NewService(&utils.HealthChecker{
		DB:    dbConn,
		Redis: redisProvider,
	}))
	userHandler := user.NewHandler(userService, logger)
	conversationHandler := conversation.NewHandler(conversationService, logger)

	r := router.NewRouter(cfg, logger, issuer)

	r.RegisterHealthRoutes(healthHandler)
	r.RegisterUserRoutes(userHandler)
	r.RegisterConversationRoutes(conversationHandler)
	r.RegisterMetricsRoutes(registry)
	r.RegisterSwaggerRoutes()

	return &Application{
		Router:   r,
		DB:       dbConn,
		Redis:    redisProvider,
		EventBus: eventBus,
		Users:    userService,
		Issuer:   issuer,
	}, nil
}

func (a *Application) Close() error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
