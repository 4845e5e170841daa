package pkg

import (
	"fmt"

	"github.com/edustep/progress-service/internal/config"
	"github.com/edustep/progress-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Only tables this service owns are migrated; units and exercises belong
	// to the content-management service.
	if err := db.AutoMigrate(
		&models.AnswerAttempt{},
		&models.UnitProgress{},
		&models.UnitUnlock{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
