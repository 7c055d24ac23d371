package database

import (
	"fmt"
	"time"

	"directory-backend/internal/config"
	"directory-backend/internal/logger"
	"directory-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	db, err := Open(postgres.Open(cfg.DatabaseDSN))
	if err != nil {
		logger.Log.Fatal("database connection failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Log.Fatal("database handle unavailable", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		logger.Log.Fatal("auto migrate failed", zap.Error(err))
	}

	if cfg.SeedRegions {
		n, err := SeedRegions(db)
		if err != nil {
			logger.Log.Fatal("region seed failed", zap.Error(err))
		}
		if n > 0 {
			logger.Log.Info("regions seeded", zap.Int("count", n))
		}
	}

	DB = db
	logger.Log.Info("database connected, migration done")
}

// Open connects with the zap-backed gorm logger. Tests pass a sqlite dialector.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(logger.Named("gorm"), 200*time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Region{},
		&models.District{},
		&models.Brand{},
		&models.Branch{},
		&models.BranchImage{},
		&models.User{},
		&models.Currency{},
		&models.AuditLog{},
	)
}

func Close() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
