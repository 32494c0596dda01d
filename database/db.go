// database/db.go
package database

import (
	"fmt"
	"time"

	"task-points-market/models"
	"task-points-market/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	DSN         string
	Development bool
	Retries     int
	MaxOpen     int
}

// Open connects to PostgreSQL, retrying with exponential backoff, and migrates the schema.
func Open(opts Options) (*gorm.DB, error) {
	log := utils.NewLogger("database")

	// GORM logger: verbose in development
	gormLogger := logger.Default.LogMode(logger.Silent)
	if opts.Development {
		gormLogger = logger.Default.LogMode(logger.Info)
	}
	if opts.Retries < 1 {
		opts.Retries = 5
	}

	var db *gorm.DB
	var err error
	backoff := time.Second
	for attempt := 1; attempt <= opts.Retries; attempt++ {
		db, err = gorm.Open(postgres.Open(opts.DSN), &gorm.Config{Logger: gormLogger})
		if err == nil {
			break
		}
		log.WithError(err).WithField("attempt", attempt).Warn("database not reachable, retrying")
		time.Sleep(backoff)
		backoff *= 2
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpen)
		sqlDB.SetMaxIdleConns(opts.MaxOpen)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
