package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

// UpsertCommute stores r under its (owner, residence, place, mode) key. It
// reports whether the row was written. The residence and place are checked in
// the same transaction as the write; ErrNotFound means either is gone and
// nothing was stored.
func (d *Database) UpsertCommute(ctx context.Context, r *models.CommuteResult) (bool, error) {
	var written bool
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireParents(tx, r); err != nil {
			return err
		}
		var err error
		written, err = UpsertCommute(tx, r)
		return err
	})
	if err != nil {
		return false, err
	}
	return written, nil
}

func requireParents(tx *gorm.DB, r *models.CommuteResult) error {
	var residences, places int64
	if err := tx.Model(&models.Residence{}).
		Where("owner_id = ? AND id = ?", r.OwnerID, r.ResidenceID).
		Count(&residences).Error; err != nil {
		return fmt.Errorf("failed to check residence: %w", err)
	}
	if err := tx.Model(&models.Place{}).
		Where("owner_id = ? AND id = ?", r.OwnerID, r.PlaceID).
		Count(&places).Error; err != nil {
		return fmt.Errorf("failed to check place: %w", err)
	}
	if residences == 0 || places == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertCommute is a single INSERT .. ON CONFLICT statement, so concurrent
// writers for the same key always end with one row. An existing row is
// only overwritten by a request that is at least as recent, and a real
// value is never replaced by an estimate.
func UpsertCommute(tx *gorm.DB, r *models.CommuteResult) (bool, error) {
	r.RequestedAt = r.RequestedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()

	result := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "owner_id"},
			{Name: "residence_id"},
			{Name: "place_id"},
			{Name: "mode"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"minutes", "estimated", "requested_at", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "excluded.requested_at >= commute_results.requested_at"},
			clause.Expr{SQL: "(excluded.estimated = 0 OR commute_results.estimated = 1)"},
		}},
	}).Create(r)
	if result.Error != nil {
		return false, fmt.Errorf("failed to upsert commute result: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListCommutes returns the owner's commute results, optionally restricted to
// one residence.
func (d *Database) ListCommutes(ctx context.Context, ownerID, residenceID string) ([]models.CommuteResult, error) {
	query := d.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if residenceID != "" {
		query = query.Where("residence_id = ?", residenceID)
	}

	var results []models.CommuteResult
	if err := query.Order("residence_id, place_id, mode").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list commute results: %w", err)
	}
	return results, nil
}

// CommutesByResidence groups the owner's commute results by residence id.
func (d *Database) CommutesByResidence(ctx context.Context, ownerID string) (map[string][]models.CommuteResult, error) {
	results, err := d.ListCommutes(ctx, ownerID, "")
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]models.CommuteResult)
	for _, r := range results {
		grouped[r.ResidenceID] = append(grouped[r.ResidenceID], r)
	}
	return grouped, nil
}
