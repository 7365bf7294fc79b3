package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/careledger/backend/internal/engine"
	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

// EventRepository provides data access for calendar events. It implements
// engine.EventStore; the unique index on (source_id, event_type,
// scheduled_time) backs the engine's no-duplicate invariant.
type EventRepository struct {
	BaseRepository
}

// NewEventRepository creates a new calendar event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const eventColumns = `id, profile_id, event_type, source_id, title, scheduled_time,
       end_time, status, completed_time, metadata, created_at, updated_at`

// Create inserts a new calendar event, assigning its ID and timestamps.
func (r *EventRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	event.ID = GenerateID()
	event.CreatedAt = r.Now()
	event.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO calendar_events (
			id, profile_id, event_type, source_id, title, scheduled_time,
			end_time, status, completed_time, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID, event.ProfileID, event.Type, event.SourceID, event.Title,
		event.ScheduledTime, nullableTime(event.EndTime), event.Status,
		nullableTime(event.CompletedTime), event.Metadata, event.CreatedAt, event.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting calendar event: %w", err)
	}

	return nil
}

// FindExisting retrieves the event for an exact (source, type, time) tuple,
// or nil when none exists. The lookup is keyed on the scheduled time alone,
// never on status, so acted-upon rows still satisfy generation's existence
// check.
func (r *EventRepository) FindExisting(ctx context.Context, sourceID string, eventType models.EventType, at timeutil.LocalDateTime) (*models.CalendarEvent, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events
		WHERE source_id = ? AND event_type = ? AND scheduled_time = ?
	`, sourceID, eventType, at)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying event by occurrence: %w", err)
	}
	return event, nil
}

// GetByID retrieves a calendar event by its ID, or nil when absent.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.CalendarEvent, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM calendar_events WHERE id = ?
	`, id)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying calendar event: %w", err)
	}
	return event, nil
}

// UpdateStatus updates an event's status and completion time.
func (r *EventRepository) UpdateStatus(ctx context.Context, id string, status models.EventStatus, completedTime *timeutil.LocalDateTime) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE calendar_events SET status = ?, completed_time = ?, updated_at = ?
		WHERE id = ?
	`, status, nullableTime(completedTime), r.Now(), id)

	if err != nil {
		return fmt.Errorf("updating event status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("calendar event not found: %s", id)
	}

	return nil
}

// Delete removes a calendar event by ID.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM calendar_events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting calendar event: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("calendar event not found: %s", id)
	}

	return nil
}

// DeleteFuturePending removes the source's pending rows scheduled after the
// given time. Completed, missed, and skipped rows are never touched.
func (r *EventRepository) DeleteFuturePending(ctx context.Context, sourceID string, after timeutil.LocalDateTime) (int, error) {
	result, err := r.DB().ExecContext(ctx, `
		DELETE FROM calendar_events
		WHERE source_id = ? AND status = 'pending' AND scheduled_time > ?
	`, sourceID, after)
	if err != nil {
		return 0, fmt.Errorf("deleting future pending events: %w", err)
	}

	n, _ := result.RowsAffected()
	return int(n), nil
}

// DeleteBySource removes every event for the source regardless of status.
func (r *EventRepository) DeleteBySource(ctx context.Context, sourceID string) (int, error) {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM calendar_events WHERE source_id = ?", sourceID)
	if err != nil {
		return 0, fmt.Errorf("deleting events for source: %w", err)
	}

	n, _ := result.RowsAffected()
	return int(n), nil
}

// Query retrieves events matching the filter, ordered by scheduled time.
func (r *EventRepository) Query(ctx context.Context, filter engine.EventFilter) ([]models.CalendarEvent, error) {
	query := "SELECT " + eventColumns + " FROM calendar_events WHERE 1=1"
	var args []any

	if filter.ProfileID != "" {
		query += " AND profile_id = ?"
		args = append(args, filter.ProfileID)
	}
	if filter.SourceID != "" {
		query += " AND source_id = ?"
		args = append(args, filter.SourceID)
	}
	if filter.From != nil {
		query += " AND scheduled_time >= ?"
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += " AND scheduled_time < ?"
		args = append(args, *filter.To)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if len(filter.Types) > 0 {
		query += " AND event_type IN (?" + strings.Repeat(", ?", len(filter.Types)-1) + ")"
		for _, t := range filter.Types {
			args = append(args, t)
		}
	}
	query += " ORDER BY scheduled_time"

	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying calendar events: %w", err)
	}
	defer rows.Close()

	var events []models.CalendarEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning calendar event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*models.CalendarEvent, error) {
	var (
		event         models.CalendarEvent
		endTime       sql.NullString
		completedTime sql.NullString
	)
	if err := s.Scan(
		&event.ID, &event.ProfileID, &event.Type, &event.SourceID, &event.Title,
		&event.ScheduledTime, &endTime, &event.Status, &completedTime,
		&event.Metadata, &event.CreatedAt, &event.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if event.EndTime, err = parseNullableTime(endTime); err != nil {
		return nil, err
	}
	if event.CompletedTime, err = parseNullableTime(completedTime); err != nil {
		return nil, err
	}
	return &event, nil
}

func nullableTime(t *timeutil.LocalDateTime) any {
	if t == nil {
		return nil
	}
	return *t
}

func parseNullableTime(ns sql.NullString) (*timeutil.LocalDateTime, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := timeutil.ParseLocalDateTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
