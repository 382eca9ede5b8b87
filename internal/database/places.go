package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

func (d *Database) ListPlaces(ctx context.Context, ownerID string) ([]models.Place, error) {
	var places []models.Place
	err := d.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at").
		Find(&places).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	return places, nil
}

func (d *Database) GetPlace(ctx context.Context, ownerID, id string) (*models.Place, error) {
	var p models.Place
	err := d.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	return &p, nil
}

func (d *Database) CreatePlace(ctx context.Context, p *models.Place) error {
	if err := d.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create place: %w", err)
	}
	return nil
}

func (d *Database) UpdatePlace(ctx context.Context, p *models.Place) error {
	if err := d.db.WithContext(ctx).Where("owner_id = ?", p.OwnerID).Save(p).Error; err != nil {
		return fmt.Errorf("failed to update place: %w", err)
	}
	return nil
}

// DeletePlace removes a place and every commute result that references it.
func (d *Database) DeletePlace(ctx context.Context, ownerID, id string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("owner_id = ? AND id = ?", ownerID, id).Delete(&models.Place{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete place: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("place_id = ?", id).Delete(&models.CommuteResult{}).Error; err != nil {
			return fmt.Errorf("failed to delete commute results: %w", err)
		}
		return nil
	})
}
