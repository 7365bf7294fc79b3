package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

// HistoryRepository provides data access for the dose history ledger. It
// implements engine.LedgerStore. The ledger is append-only in spirit:
// corrections replace the row for the same (source_id, scheduled_time) key
// via upsert, so each obligation keeps exactly one authoritative record.
type HistoryRepository struct {
	BaseRepository
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const historyColumns = `id, profile_id, source_kind, source_id, scheduled_time,
       actual_time, status, notes, created_at`

// UpsertStatus records what happened for a scheduled dose. Idempotent per
// (source_id, scheduled_time): re-running the same write leaves one row.
func (r *HistoryRepository) UpsertStatus(ctx context.Context, entry *models.HistoryEntry) error {
	entry.ID = GenerateID()
	entry.CreatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO dose_history (
			id, profile_id, source_kind, source_id, scheduled_time,
			actual_time, status, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, scheduled_time) DO UPDATE SET
			status = excluded.status,
			actual_time = excluded.actual_time,
			notes = excluded.notes
	`,
		entry.ID, entry.ProfileID, entry.SourceKind, entry.SourceID, entry.ScheduledTime,
		nullableTime(entry.ActualTime), entry.Status, entry.Notes, entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("upserting history entry: %w", err)
	}

	return nil
}

// QueryByDateRange retrieves a profile's ledger rows with scheduled_time in
// [from, to), ordered by scheduled time.
func (r *HistoryRepository) QueryByDateRange(ctx context.Context, profileID string, from, to timeutil.LocalDateTime) ([]models.HistoryEntry, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+historyColumns+`
		FROM dose_history
		WHERE profile_id = ? AND scheduled_time >= ? AND scheduled_time < ?
		ORDER BY scheduled_time
	`, profileID, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying history by date range: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

// DeleteBySource removes the ledger for a hard-deleted source entity.
func (r *HistoryRepository) DeleteBySource(ctx context.Context, sourceID string) error {
	_, err := r.DB().ExecContext(ctx, "DELETE FROM dose_history WHERE source_id = ?", sourceID)
	if err != nil {
		return fmt.Errorf("deleting history for source: %w", err)
	}
	return nil
}

func scanHistory(rows *sql.Rows) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	for rows.Next() {
		var (
			entry      models.HistoryEntry
			actualTime sql.NullString
		)
		if err := rows.Scan(
			&entry.ID, &entry.ProfileID, &entry.SourceKind, &entry.SourceID,
			&entry.ScheduledTime, &actualTime, &entry.Status, &entry.Notes, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}

		var err error
		if entry.ActualTime, err = parseNullableTime(actualTime); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
