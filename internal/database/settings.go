package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

// GetSettings returns the owner's finance settings, or nil if they were
// never written.
func (d *Database) GetSettings(ctx context.Context, ownerID string) (*models.FinanceSettings, error) {
	var s models.FinanceSettings
	err := d.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get finance settings: %w", err)
	}
	return &s, nil
}

// SaveSettings creates the owner's settings row on first write and
// overwrites it afterwards.
func (d *Database) SaveSettings(ctx context.Context, s *models.FinanceSettings) error {
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		UpdateAll: true,
	}).Create(s).Error
	if err != nil {
		return fmt.Errorf("failed to save finance settings: %w", err)
	}
	return nil
}
