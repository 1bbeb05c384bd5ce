package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stanza/models"
)

func RunMigrations(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("running database migrations")

	err := db.AutoMigrate(
		&models.User{},
		&models.ApiKey{},
		&models.Page{},
		&models.BlogPost{},
		&models.CaseStudy{},
		&models.Service{},
		&models.Block{},
	)

	if err != nil {
		logger.Error("migrations failed", zap.Error(err))
		return err
	}

	logger.Info("migrations completed")
	return nil
}
