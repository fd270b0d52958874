package postgres

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the PG connection and migrates the conversions table.
// dsn: "host=localhost user=postgres password=root dbname=mydb port=5432 sslmode=disable"
func InitDB(dsn string, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(debug)),
	})
	if err != nil {
		return nil, fmt.Errorf("connect db failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the conversions table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Conversion{}); err != nil {
		return fmt.Errorf("migrate conversions: %w", err)
	}
	return nil
}

func logLevel(debug bool) logger.LogLevel {
	if debug {
		return logger.Info
	}
	return logger.Warn
}
