package cmd

import (
	"fmt"
	"os"

	"threadbox/internal/config"
	"threadbox/internal/db"
	"threadbox/internal/utils"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type runtime struct {
	cfg    config.Config
	logger *zap.Logger
}

func setup() (*runtime, error) {
	// .env must be read before ENV picks the logger flavour
	envLoaded := godotenv.Load() == nil

	logger, err := utils.NewLogger(os.Getenv("ENV"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize zap logger: %w", err)
	}
	if envLoaded {
		logger.Info("ENV file loaded successfully")
	}

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Info("Config loaded",
		zap.String("server_port", cfg.ServerPort),
		zap.String("db_host", cfg.DBHost),
		zap.String("redis_url", cfg.RedisURL),
		zap.String("env", cfg.Env),
	)

	return &runtime{cfg: cfg, logger: logger}, nil
}

func (r *runtime) connect() (*gorm.DB, error) {
	conn, err := db.Connect(&r.cfg, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}
