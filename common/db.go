package common

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectDb opens the content store. The handle is constructed once at
// process start and passed down explicitly; nothing else in the repo
// reaches for a package-level database.
//
// TranslateError is on so unique-constraint rejections surface as
// gorm.ErrDuplicatedKey, which the pipeline maps to a conflict. The
// constraint, not the pre-check, is the authoritative uniqueness guard.
func ConnectDb(dsn string, logger *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn not set")
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	logger.Info("opened sqlite db", zap.String("dsn", dsn))
	return db, nil
}
