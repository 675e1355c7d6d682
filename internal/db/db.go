package db

import (
	"threadbox/internal/app/message"
	"threadbox/internal/app/participant"
	"threadbox/internal/app/thread"
	"threadbox/internal/app/user"
	"threadbox/internal/config"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.PostgresDSN()
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", cfg.DBHost),
		zap.String("database", cfg.DBName),
	)

	return db, nil
}

// Models lists every table this service owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&thread.Thread{},
		&participant.Participant{},
		&message.Message{},
	}
}

func Migrate(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	logger.Info("Database schema migrated", zap.Int("tables", len(Models())))
	return nil
}
