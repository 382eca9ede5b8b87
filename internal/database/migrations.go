package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

func (d *Database) RunMigrations() error {
	return MigrateSchema(d.db)
}

// MigrateSchema creates or updates every table. The commute_results table
// carries the unique (owner_id, residence_id, place_id, mode) index the
// upsert relies on.
func MigrateSchema(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Residence{},
		&models.Loan{},
		&models.Place{},
		&models.FinanceSettings{},
		&models.CommuteResult{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
