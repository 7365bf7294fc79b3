package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/careledger/backend/internal/storage/models"
)

// ReminderRepository provides data access for reminders.
type ReminderRepository struct {
	BaseRepository
}

// NewReminderRepository creates a new reminder repository.
func NewReminderRepository(db *DB) *ReminderRepository {
	return &ReminderRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const reminderColumns = `id, profile_id, title, note, time_of_day, rule, is_active,
       created_at, updated_at`

// Create inserts a new reminder.
func (r *ReminderRepository) Create(ctx context.Context, rem *models.Reminder) error {
	rem.ID = GenerateID()
	rem.CreatedAt = r.Now()
	rem.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO reminders (
			id, profile_id, title, note, time_of_day, rule, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rem.ID, rem.ProfileID, rem.Title, rem.Note, rem.TimeOfDay, rem.Rule,
		rem.IsActive, rem.CreatedAt, rem.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting reminder: %w", err)
	}

	return nil
}

// GetByID retrieves a reminder by its ID, or nil when absent.
func (r *ReminderRepository) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	rem := &models.Reminder{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders WHERE id = ?
	`, id).Scan(
		&rem.ID, &rem.ProfileID, &rem.Title, &rem.Note, &rem.TimeOfDay, &rem.Rule,
		&rem.IsActive, &rem.CreatedAt, &rem.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying reminder: %w", err)
	}

	return rem, nil
}

// ListByProfile retrieves all reminders for a profile.
func (r *ReminderRepository) ListByProfile(ctx context.Context, profileID string) ([]models.Reminder, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE profile_id = ?
		ORDER BY title
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("querying reminders: %w", err)
	}
	defer rows.Close()

	return r.scanReminders(rows)
}

// ListActive retrieves all active reminders across profiles.
func (r *ReminderRepository) ListActive(ctx context.Context) ([]models.Reminder, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE is_active = 1
		ORDER BY title
	`)
	if err != nil {
		return nil, fmt.Errorf("querying active reminders: %w", err)
	}
	defer rows.Close()

	return r.scanReminders(rows)
}

func (r *ReminderRepository) scanReminders(rows *sql.Rows) ([]models.Reminder, error) {
	var rems []models.Reminder
	for rows.Next() {
		var rem models.Reminder
		if err := rows.Scan(
			&rem.ID, &rem.ProfileID, &rem.Title, &rem.Note, &rem.TimeOfDay, &rem.Rule,
			&rem.IsActive, &rem.CreatedAt, &rem.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning reminder: %w", err)
		}
		rems = append(rems, rem)
	}
	return rems, rows.Err()
}

// Update updates an existing reminder.
func (r *ReminderRepository) Update(ctx context.Context, rem *models.Reminder) error {
	rem.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE reminders SET
			title = ?, note = ?, time_of_day = ?, rule = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`,
		rem.Title, rem.Note, rem.TimeOfDay, rem.Rule, rem.IsActive, rem.UpdatedAt, rem.ID,
	)

	if err != nil {
		return fmt.Errorf("updating reminder: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("reminder not found: %s", rem.ID)
	}

	return nil
}

// Delete removes a reminder by ID.
func (r *ReminderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM reminders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting reminder: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("reminder not found: %s", id)
	}

	return nil
}
