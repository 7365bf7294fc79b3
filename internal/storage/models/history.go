package models

import (
	"github.com/careledger/backend/internal/timeutil"
)

// SourceKind identifies which ledger a history row belongs to.
type SourceKind string

// Ledger source kinds.
const (
	SourceKindMedication SourceKind = "medication"
	SourceKindSupplement SourceKind = "supplement"
)

// HistoryStatus records what actually happened to a scheduled dose.
type HistoryStatus string

// History status constants. Postponed rows are excluded from adherence and
// streak math: the rescheduled instance produces its own taken/missed row.
const (
	HistoryStatusTaken     HistoryStatus = "taken"
	HistoryStatusMissed    HistoryStatus = "missed"
	HistoryStatusSkipped   HistoryStatus = "skipped"
	HistoryStatusPostponed HistoryStatus = "postponed"
)

// HistoryEntry is one row of the dose ledger: the append-only record of what
// happened for a scheduled dose. Rows are never edited in place; corrections
// go through an upsert keyed on (SourceID, ScheduledTime), which preserves
// one authoritative row per obligation.
type HistoryEntry struct {
	ID            string                  `json:"id"`
	ProfileID     string                  `json:"profile_id"`
	SourceKind    SourceKind              `json:"source_kind"`
	SourceID      string                  `json:"source_id"`
	ScheduledTime timeutil.LocalDateTime  `json:"scheduled_time"`
	ActualTime    *timeutil.LocalDateTime `json:"actual_time,omitempty"`
	Status        HistoryStatus           `json:"status"`
	Notes         string                  `json:"notes,omitempty"`
	CreatedAt     timeutil.LocalDateTime  `json:"created_at"`
}

// CountsForAdherence reports whether the row participates in adherence and
// streak calculations.
func (h *HistoryEntry) CountsForAdherence() bool {
	return h.Status != HistoryStatusPostponed
}
