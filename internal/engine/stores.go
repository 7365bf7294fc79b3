package engine

import (
	"context"

	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

// EventStore is the engine's contract with the calendar event table. The
// store guarantees at most one event per (SourceID, Type, ScheduledTime); the
// engine relies on FindExisting+Create being atomic with respect to other
// writers for the same source, which the coordinator enforces by serializing
// passes per source.
type EventStore interface {
	FindExisting(ctx context.Context, sourceID string, eventType models.EventType, at timeutil.LocalDateTime) (*models.CalendarEvent, error)
	Create(ctx context.Context, event *models.CalendarEvent) error
	GetByID(ctx context.Context, id string) (*models.CalendarEvent, error)
	UpdateStatus(ctx context.Context, id string, status models.EventStatus, completedTime *timeutil.LocalDateTime) error
	Delete(ctx context.Context, id string) error

	// DeleteFuturePending removes pending rows for the source scheduled
	// after the given time. Rows already acted upon are never touched.
	DeleteFuturePending(ctx context.Context, sourceID string, after timeutil.LocalDateTime) (int, error)

	// DeleteBySource removes every row for the source regardless of status.
	DeleteBySource(ctx context.Context, sourceID string) (int, error)

	Query(ctx context.Context, filter EventFilter) ([]models.CalendarEvent, error)
}

// EventFilter narrows an event query. Zero-valued fields are ignored.
// From is inclusive, To exclusive.
type EventFilter struct {
	ProfileID string
	SourceID  string
	From      *timeutil.LocalDateTime
	To        *timeutil.LocalDateTime
	Status    models.EventStatus
	Types     []models.EventType
}

// LedgerStore is the engine's contract with the dose history ledger.
// UpsertStatus is idempotent per (SourceID, ScheduledTime).
type LedgerStore interface {
	UpsertStatus(ctx context.Context, entry *models.HistoryEntry) error
	QueryByDateRange(ctx context.Context, profileID string, from, to timeutil.LocalDateTime) ([]models.HistoryEntry, error)

	// DeleteBySource removes the source's ledger rows on a hard delete, so
	// adherence and streaks stop counting an entity that no longer exists.
	DeleteBySource(ctx context.Context, sourceID string) error
}

// StockKeeper decrements a source entity's remaining quantity, flooring at
// zero. Implemented by the medication and supplement repositories.
type StockKeeper interface {
	DecrementQuantity(ctx context.Context, sourceID string) error
}

// SourceLister enumerates the active schedule-bearing entities for the
// rolling-window top-up job.
type SourceLister interface {
	ListActiveSources(ctx context.Context) ([]Source, error)
}

// Notifier receives engine-side events for broadcast. A nil Notifier is
// valid everywhere; implementations must not block.
type Notifier interface {
	EventStatusChanged(event *models.CalendarEvent, previous models.EventStatus)
	RegenerationCompleted(sourceID string, kind models.EventType, purged, created int)
	RegenerationFailed(sourceID string, err error)
	LowStock(kind models.SourceKind, sourceID, name string, remaining int)
}

// Source is the engine's read-only view of a schedule-bearing entity.
// Appointments are single-occurrence and never flow through here.
type Source struct {
	ID        string
	ProfileID string
	Kind      models.EventType
	Title     string
	TimeOfDay models.TimeSlots
	Rule      models.RecurrenceRule
	Metadata  models.Metadata
	Active    bool
}
