package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

// ListResidences returns every residence of owner with its loans.
func (d *Database) ListResidences(ctx context.Context, ownerID string) ([]models.Residence, error) {
	var residences []models.Residence
	err := d.db.WithContext(ctx).
		Preload("Loans").
		Where("owner_id = ?", ownerID).
		Order("created_at").
		Find(&residences).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list residences: %w", err)
	}
	return residences, nil
}

// GetResidence returns one residence of owner, or ErrNotFound.
func (d *Database) GetResidence(ctx context.Context, ownerID, id string) (*models.Residence, error) {
	var r models.Residence
	err := d.db.WithContext(ctx).
		Preload("Loans").
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get residence: %w", err)
	}
	return &r, nil
}

// CreateResidence inserts r together with its loans.
func (d *Database) CreateResidence(ctx context.Context, r *models.Residence) error {
	if err := d.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create residence: %w", err)
	}
	return nil
}

// UpdateResidence overwrites every field of r and replaces its loans.
func (d *Database) UpdateResidence(ctx context.Context, r *models.Residence) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Omit(clause.Associations).
			Where("owner_id = ?", r.OwnerID).
			Save(r)
		if result.Error != nil {
			return fmt.Errorf("failed to update residence: %w", result.Error)
		}

		if err := tx.Where("residence_id = ?", r.ID).Delete(&models.Loan{}).Error; err != nil {
			return fmt.Errorf("failed to clear loans: %w", err)
		}
		if len(r.Loans) == 0 {
			return nil
		}
		for i := range r.Loans {
			r.Loans[i].ID = 0
			r.Loans[i].ResidenceID = r.ID
		}
		if err := tx.Create(&r.Loans).Error; err != nil {
			return fmt.Errorf("failed to insert loans: %w", err)
		}
		return nil
	})
}

// DeleteResidence removes a residence with its loans and every commute
// result that references it. Nothing is deleted unless the residence belongs
// to the owner.
func (d *Database) DeleteResidence(ctx context.Context, ownerID, id string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("residence_id = ?", id).Delete(&models.Loan{}).Error; err != nil {
			return fmt.Errorf("failed to delete loans: %w", err)
		}
		if err := tx.Where("owner_id = ? AND residence_id = ?", ownerID, id).Delete(&models.CommuteResult{}).Error; err != nil {
			return fmt.Errorf("failed to delete commute results: %w", err)
		}

		result := tx.Where("owner_id = ? AND id = ?", ownerID, id).Delete(&models.Residence{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete residence: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListOwners returns every owner that tracks at least one residence.
func (d *Database) ListOwners(ctx context.Context) ([]string, error) {
	var owners []string
	err := d.db.WithContext(ctx).
		Model(&models.Residence{}).
		Distinct("owner_id").
		Pluck("owner_id", &owners).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	return owners, nil
}
