package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/careledger/backend/internal/storage/models"
)

// SupplementRepository provides data access for supplements.
type SupplementRepository struct {
	BaseRepository
}

// NewSupplementRepository creates a new supplement repository.
func NewSupplementRepository(db *DB) *SupplementRepository {
	return &SupplementRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const supplementColumns = `id, profile_id, name, dosage, unit, time_of_day, rule,
       current_quantity, refill_threshold, is_active, created_at, updated_at`

// Create inserts a new supplement.
func (r *SupplementRepository) Create(ctx context.Context, sup *models.Supplement) error {
	sup.ID = GenerateID()
	sup.CreatedAt = r.Now()
	sup.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO supplements (
			id, profile_id, name, dosage, unit, time_of_day, rule,
			current_quantity, refill_threshold, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sup.ID, sup.ProfileID, sup.Name, sup.Dosage, sup.Unit, sup.TimeOfDay, sup.Rule,
		sup.CurrentQuantity, sup.RefillThreshold, sup.IsActive, sup.CreatedAt, sup.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting supplement: %w", err)
	}

	return nil
}

// GetByID retrieves a supplement by its ID, or nil when absent.
func (r *SupplementRepository) GetByID(ctx context.Context, id string) (*models.Supplement, error) {
	sup := &models.Supplement{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT `+supplementColumns+`
		FROM supplements WHERE id = ?
	`, id).Scan(
		&sup.ID, &sup.ProfileID, &sup.Name, &sup.Dosage, &sup.Unit, &sup.TimeOfDay, &sup.Rule,
		&sup.CurrentQuantity, &sup.RefillThreshold, &sup.IsActive, &sup.CreatedAt, &sup.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying supplement: %w", err)
	}

	return sup, nil
}

// ListByProfile retrieves all supplements for a profile.
func (r *SupplementRepository) ListByProfile(ctx context.Context, profileID string) ([]models.Supplement, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+supplementColumns+`
		FROM supplements
		WHERE profile_id = ?
		ORDER BY name
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("querying supplements: %w", err)
	}
	defer rows.Close()

	return r.scanSupplements(rows)
}

// ListActive retrieves all active supplements across profiles.
func (r *SupplementRepository) ListActive(ctx context.Context) ([]models.Supplement, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+supplementColumns+`
		FROM supplements
		WHERE is_active = 1
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying active supplements: %w", err)
	}
	defer rows.Close()

	return r.scanSupplements(rows)
}

// ListNeedingRefill retrieves active supplements at or below their refill
// threshold.
func (r *SupplementRepository) ListNeedingRefill(ctx context.Context) ([]models.Supplement, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+supplementColumns+`
		FROM supplements
		WHERE is_active = 1 AND current_quantity <= refill_threshold
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying supplements needing refill: %w", err)
	}
	defer rows.Close()

	return r.scanSupplements(rows)
}

func (r *SupplementRepository) scanSupplements(rows *sql.Rows) ([]models.Supplement, error) {
	var sups []models.Supplement
	for rows.Next() {
		var sup models.Supplement
		if err := rows.Scan(
			&sup.ID, &sup.ProfileID, &sup.Name, &sup.Dosage, &sup.Unit, &sup.TimeOfDay, &sup.Rule,
			&sup.CurrentQuantity, &sup.RefillThreshold, &sup.IsActive, &sup.CreatedAt, &sup.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning supplement: %w", err)
		}
		sups = append(sups, sup)
	}
	return sups, rows.Err()
}

// Update updates an existing supplement.
func (r *SupplementRepository) Update(ctx context.Context, sup *models.Supplement) error {
	sup.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE supplements SET
			name = ?, dosage = ?, unit = ?, time_of_day = ?, rule = ?,
			current_quantity = ?, refill_threshold = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`,
		sup.Name, sup.Dosage, sup.Unit, sup.TimeOfDay, sup.Rule,
		sup.CurrentQuantity, sup.RefillThreshold, sup.IsActive, sup.UpdatedAt, sup.ID,
	)

	if err != nil {
		return fmt.Errorf("updating supplement: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("supplement not found: %s", sup.ID)
	}

	return nil
}

// DecrementQuantity reduces the remaining stock by one, flooring at zero.
func (r *SupplementRepository) DecrementQuantity(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE supplements SET
			current_quantity = MAX(current_quantity - 1, 0), updated_at = ?
		WHERE id = ?
	`, r.Now(), id)

	if err != nil {
		return fmt.Errorf("decrementing supplement quantity: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("supplement not found: %s", id)
	}

	return nil
}

// Delete removes a supplement by ID.
func (r *SupplementRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM supplements WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting supplement: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("supplement not found: %s", id)
	}

	return nil
}
