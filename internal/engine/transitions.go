package engine

import (
	"context"
	"log"

	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

// DefaultPostponeMinutes is how far a postponed dose is pushed when the
// caller doesn't say.
const DefaultPostponeMinutes = 30

// Transitioner drives the obligation status state machine. Every transition
// starts from pending; completed, missed, and skipped are terminal. Dose
// events additionally write a ledger row and, on completion, decrement
// stock.
//
// The ledger write always comes first: it is the source of truth for
// adherence, so a failed stock decrement degrades to a logged warning rather
// than losing the taken record.
type Transitioner struct {
	events   EventStore
	ledger   LedgerStore
	stock    map[models.EventType]StockKeeper
	notifier Notifier
	now      func() timeutil.LocalDateTime
}

// NewTransitioner creates a transitioner. stock maps dose event types to the
// repository that owns their quantity; notifier may be nil.
func NewTransitioner(events EventStore, ledger LedgerStore, stock map[models.EventType]StockKeeper, notifier Notifier) *Transitioner {
	if stock == nil {
		stock = make(map[models.EventType]StockKeeper)
	}
	return &Transitioner{
		events:   events,
		ledger:   ledger,
		stock:    stock,
		notifier: notifier,
		now:      timeutil.Now,
	}
}

func sourceKindFor(t models.EventType) models.SourceKind {
	if t == models.EventTypeSupplementDue {
		return models.SourceKindSupplement
	}
	return models.SourceKindMedication
}

// load fetches the event and checks it is still pending.
func (t *Transitioner) load(ctx context.Context, eventID string, attempted models.EventStatus) (*models.CalendarEvent, error) {
	event, err := t.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, storeErr("loading event", err)
	}
	if event == nil {
		return nil, ErrNotFound
	}
	if event.Status != models.EventStatusPending {
		return nil, &TransitionError{EventID: eventID, From: event.Status, Attempted: attempted}
	}
	return event, nil
}

// Complete marks a pending event done. For dose events it writes a taken
// ledger row with the actual time and decrements the source's stock.
func (t *Transitioner) Complete(ctx context.Context, eventID string) (*models.CalendarEvent, error) {
	event, err := t.load(ctx, eventID, models.EventStatusCompleted)
	if err != nil {
		return nil, err
	}

	now := t.now()
	if event.Type.IsDose() {
		if err := t.writeLedger(ctx, event, models.HistoryStatusTaken, &now, ""); err != nil {
			return nil, err
		}
		if keeper, ok := t.stock[event.Type]; ok {
			if err := keeper.DecrementQuantity(ctx, event.SourceID); err != nil {
				// Ledger already holds the taken record; stock is a
				// convenience counter and must not block completion.
				log.Printf("Stock decrement failed for source %s: %v", event.SourceID, err)
			}
		}
	}

	if err := t.events.UpdateStatus(ctx, event.ID, models.EventStatusCompleted, &now); err != nil {
		return nil, storeErr("marking event completed", err)
	}

	previous := event.Status
	event.Status = models.EventStatusCompleted
	event.CompletedTime = &now
	if t.notifier != nil {
		t.notifier.EventStatusChanged(event, previous)
	}
	return event, nil
}

// Skip marks a pending event skipped. Dose events get a skipped ledger row;
// stock is untouched.
func (t *Transitioner) Skip(ctx context.Context, eventID, notes string) (*models.CalendarEvent, error) {
	event, err := t.load(ctx, eventID, models.EventStatusSkipped)
	if err != nil {
		return nil, err
	}

	if event.Type.IsDose() {
		if err := t.writeLedger(ctx, event, models.HistoryStatusSkipped, nil, notes); err != nil {
			return nil, err
		}
	}
	if err := t.events.UpdateStatus(ctx, event.ID, models.EventStatusSkipped, nil); err != nil {
		return nil, storeErr("marking event skipped", err)
	}

	previous := event.Status
	event.Status = models.EventStatusSkipped
	if t.notifier != nil {
		t.notifier.EventStatusChanged(event, previous)
	}
	return event, nil
}

// Postpone reschedules a pending event by the given number of minutes. The
// original slot gets a postponed ledger row (excluded from adherence), the
// original event row is removed, and a fresh pending event takes its place
// at the later time. The rescheduled instance produces its own taken or
// missed row later.
func (t *Transitioner) Postpone(ctx context.Context, eventID string, minutes int) (*models.CalendarEvent, error) {
	if minutes <= 0 {
		minutes = DefaultPostponeMinutes
	}
	event, err := t.load(ctx, eventID, models.EventStatusPending)
	if err != nil {
		return nil, err
	}

	if event.Type.IsDose() {
		if err := t.writeLedger(ctx, event, models.HistoryStatusPostponed, nil, ""); err != nil {
			return nil, err
		}
	}

	newTime := event.ScheduledTime.AddMinutes(minutes)
	existing, err := t.events.FindExisting(ctx, event.SourceID, event.Type, newTime)
	if err != nil {
		return nil, storeErr("checking rescheduled slot", err)
	}

	if err := t.events.Delete(ctx, event.ID); err != nil {
		return nil, storeErr("removing postponed event", err)
	}
	if existing != nil {
		// The later slot already has its own obligation; don't duplicate it.
		return existing, nil
	}

	rescheduled := &models.CalendarEvent{
		ProfileID:     event.ProfileID,
		Type:          event.Type,
		SourceID:      event.SourceID,
		Title:         event.Title,
		ScheduledTime: newTime,
		EndTime:       event.EndTime,
		Status:        models.EventStatusPending,
		Metadata:      event.Metadata,
	}
	if err := t.events.Create(ctx, rescheduled); err != nil {
		return nil, storeErr("creating rescheduled event", err)
	}
	return rescheduled, nil
}

// MarkMissed is the system-generated transition for pending events whose
// scheduled time has passed the grace window. It is never user-initiated;
// detection policy lives in the sweeper.
func (t *Transitioner) MarkMissed(ctx context.Context, eventID string) error {
	event, err := t.load(ctx, eventID, models.EventStatusMissed)
	if err != nil {
		return err
	}

	if event.Type.IsDose() {
		if err := t.writeLedger(ctx, event, models.HistoryStatusMissed, nil, ""); err != nil {
			return err
		}
	}
	if err := t.events.UpdateStatus(ctx, event.ID, models.EventStatusMissed, nil); err != nil {
		return storeErr("marking event missed", err)
	}

	previous := event.Status
	event.Status = models.EventStatusMissed
	if t.notifier != nil {
		t.notifier.EventStatusChanged(event, previous)
	}
	return nil
}

func (t *Transitioner) writeLedger(ctx context.Context, event *models.CalendarEvent, status models.HistoryStatus, actualTime *timeutil.LocalDateTime, notes string) error {
	entry := &models.HistoryEntry{
		ProfileID:     event.ProfileID,
		SourceKind:    sourceKindFor(event.Type),
		SourceID:      event.SourceID,
		ScheduledTime: event.ScheduledTime,
		ActualTime:    actualTime,
		Status:        status,
		Notes:         notes,
	}
	if err := t.ledger.UpsertStatus(ctx, entry); err != nil {
		return storeErr("writing ledger entry", err)
	}
	return nil
}
