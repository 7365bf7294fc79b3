package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/careledger/backend/internal/storage/models"
)

// AppointmentRepository provides data access for appointments.
type AppointmentRepository struct {
	BaseRepository
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *DB) *AppointmentRepository {
	return &AppointmentRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const appointmentColumns = `id, profile_id, title, location, clinician,
       scheduled_time, end_time, notes, created_at, updated_at`

// Create inserts a new appointment.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	appt.ID = GenerateID()
	appt.CreatedAt = r.Now()
	appt.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO appointments (
			id, profile_id, title, location, clinician,
			scheduled_time, end_time, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		appt.ID, appt.ProfileID, appt.Title, appt.Location, appt.Clinician,
		appt.ScheduledTime, nullableTime(appt.EndTime), appt.Notes, appt.CreatedAt, appt.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}

	return nil
}

// GetByID retrieves an appointment by its ID, or nil when absent.
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments WHERE id = ?
	`, id)

	appt, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying appointment: %w", err)
	}
	return appt, nil
}

// ListByProfile retrieves all appointments for a profile.
func (r *AppointmentRepository) ListByProfile(ctx context.Context, profileID string) ([]models.Appointment, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE profile_id = ?
		ORDER BY scheduled_time
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("querying appointments: %w", err)
	}
	defer rows.Close()

	var appts []models.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning appointment: %w", err)
		}
		appts = append(appts, *appt)
	}
	return appts, rows.Err()
}

// Update updates an existing appointment.
func (r *AppointmentRepository) Update(ctx context.Context, appt *models.Appointment) error {
	appt.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE appointments SET
			title = ?, location = ?, clinician = ?, scheduled_time = ?,
			end_time = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`,
		appt.Title, appt.Location, appt.Clinician, appt.ScheduledTime,
		nullableTime(appt.EndTime), appt.Notes, appt.UpdatedAt, appt.ID,
	)

	if err != nil {
		return fmt.Errorf("updating appointment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("appointment not found: %s", appt.ID)
	}

	return nil
}

// Delete removes an appointment by ID.
func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM appointments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting appointment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("appointment not found: %s", id)
	}

	return nil
}

func scanAppointment(s scanner) (*models.Appointment, error) {
	var (
		appt    models.Appointment
		endTime sql.NullString
	)
	if err := s.Scan(
		&appt.ID, &appt.ProfileID, &appt.Title, &appt.Location, &appt.Clinician,
		&appt.ScheduledTime, &endTime, &appt.Notes, &appt.CreatedAt, &appt.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if appt.EndTime, err = parseNullableTime(endTime); err != nil {
		return nil, err
	}
	return &appt, nil
}
