package db

import (
	"fmt"

	"github.com/holdfast-dev/holdfast/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&models.SessionRow{},
		&models.SessionIndexRow{},
		&models.MessageRow{},
		&models.MessagePartRow{},
		&models.SessionDiffRow{},
		&models.Meta{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
