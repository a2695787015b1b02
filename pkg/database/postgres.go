package database

import (
	"fmt"

	"github.com/Eursukkul/ewm-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the schema, including the partial unique index that allows
// one active request per requester and event.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Category{}, &models.Event{}, &models.Request{}, &models.LedgerEntry{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_request_active
		ON requests (event_id, requester_id)
		WHERE status <> 'CANCELED'
	`).Error; err != nil {
		return fmt.Errorf("create request index: %w", err)
	}
	return nil
}
