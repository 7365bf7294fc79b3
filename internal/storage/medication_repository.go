package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/careledger/backend/internal/storage/models"
)

// MedicationRepository provides data access for medications.
type MedicationRepository struct {
	BaseRepository
}

// NewMedicationRepository creates a new medication repository.
func NewMedicationRepository(db *DB) *MedicationRepository {
	return &MedicationRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const medicationColumns = `id, profile_id, name, dosage, unit, time_of_day, rule,
       current_quantity, refill_threshold, is_active, created_at, updated_at`

// Create inserts a new medication.
func (r *MedicationRepository) Create(ctx context.Context, med *models.Medication) error {
	med.ID = GenerateID()
	med.CreatedAt = r.Now()
	med.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO medications (
			id, profile_id, name, dosage, unit, time_of_day, rule,
			current_quantity, refill_threshold, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		med.ID, med.ProfileID, med.Name, med.Dosage, med.Unit, med.TimeOfDay, med.Rule,
		med.CurrentQuantity, med.RefillThreshold, med.IsActive, med.CreatedAt, med.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting medication: %w", err)
	}

	return nil
}

// GetByID retrieves a medication by its ID, or nil when absent.
func (r *MedicationRepository) GetByID(ctx context.Context, id string) (*models.Medication, error) {
	med := &models.Medication{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications WHERE id = ?
	`, id).Scan(
		&med.ID, &med.ProfileID, &med.Name, &med.Dosage, &med.Unit, &med.TimeOfDay, &med.Rule,
		&med.CurrentQuantity, &med.RefillThreshold, &med.IsActive, &med.CreatedAt, &med.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying medication: %w", err)
	}

	return med, nil
}

// ListByProfile retrieves all medications for a profile.
func (r *MedicationRepository) ListByProfile(ctx context.Context, profileID string) ([]models.Medication, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE profile_id = ?
		ORDER BY name
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("querying medications: %w", err)
	}
	defer rows.Close()

	return r.scanMedications(rows)
}

// ListActive retrieves all active medications across profiles.
func (r *MedicationRepository) ListActive(ctx context.Context) ([]models.Medication, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE is_active = 1
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying active medications: %w", err)
	}
	defer rows.Close()

	return r.scanMedications(rows)
}

// ListNeedingRefill retrieves active medications at or below their refill
// threshold.
func (r *MedicationRepository) ListNeedingRefill(ctx context.Context) ([]models.Medication, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE is_active = 1 AND current_quantity <= refill_threshold
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying medications needing refill: %w", err)
	}
	defer rows.Close()

	return r.scanMedications(rows)
}

func (r *MedicationRepository) scanMedications(rows *sql.Rows) ([]models.Medication, error) {
	var meds []models.Medication
	for rows.Next() {
		var med models.Medication
		if err := rows.Scan(
			&med.ID, &med.ProfileID, &med.Name, &med.Dosage, &med.Unit, &med.TimeOfDay, &med.Rule,
			&med.CurrentQuantity, &med.RefillThreshold, &med.IsActive, &med.CreatedAt, &med.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning medication: %w", err)
		}
		meds = append(meds, med)
	}
	return meds, rows.Err()
}

// Update updates an existing medication.
func (r *MedicationRepository) Update(ctx context.Context, med *models.Medication) error {
	med.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE medications SET
			name = ?, dosage = ?, unit = ?, time_of_day = ?, rule = ?,
			current_quantity = ?, refill_threshold = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`,
		med.Name, med.Dosage, med.Unit, med.TimeOfDay, med.Rule,
		med.CurrentQuantity, med.RefillThreshold, med.IsActive, med.UpdatedAt, med.ID,
	)

	if err != nil {
		return fmt.Errorf("updating medication: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("medication not found: %s", med.ID)
	}

	return nil
}

// DecrementQuantity reduces the remaining stock by one, flooring at zero.
func (r *MedicationRepository) DecrementQuantity(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE medications SET
			current_quantity = MAX(current_quantity - 1, 0), updated_at = ?
		WHERE id = ?
	`, r.Now(), id)

	if err != nil {
		return fmt.Errorf("decrementing medication quantity: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("medication not found: %s", id)
	}

	return nil
}

// Delete removes a medication by ID.
func (r *MedicationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM medications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting medication: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("medication not found: %s", id)
	}

	return nil
}
