package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

// In-memory store implementations for exercising the engine without SQLite.

type memEventStore struct {
	mu     sync.Mutex
	nextID int
	events map[string]*models.CalendarEvent
}

func newMemEventStore() *memEventStore {
	return &memEventStore{events: make(map[string]*models.CalendarEvent)}
}

func (s *memEventStore) FindExisting(ctx context.Context, sourceID string, eventType models.EventType, at timeutil.LocalDateTime) (*models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.SourceID == sourceID && e.Type == eventType && e.ScheduledTime.Equal(at) {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memEventStore) Create(ctx context.Context, event *models.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.SourceID == event.SourceID && e.Type == event.Type && e.ScheduledTime.Equal(event.ScheduledTime) {
			return fmt.Errorf("duplicate event for %s at %s", event.SourceID, event.ScheduledTime)
		}
	}
	s.nextID++
	event.ID = fmt.Sprintf("ev-%d", s.nextID)
	copied := *event
	s.events[event.ID] = &copied
	return nil
}

func (s *memEventStore) GetByID(ctx context.Context, id string) (*models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (s *memEventStore) UpdateStatus(ctx context.Context, id string, status models.EventStatus, completedTime *timeutil.LocalDateTime) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return fmt.Errorf("event not found: %s", id)
	}
	e.Status = status
	e.CompletedTime = completedTime
	return nil
}

func (s *memEventStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("event not found: %s", id)
	}
	delete(s.events, id)
	return nil
}

func (s *memEventStore) DeleteFuturePending(ctx context.Context, sourceID string, after timeutil.LocalDateTime) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.events {
		if e.SourceID == sourceID && e.Status == models.EventStatusPending && e.ScheduledTime.After(after) {
			delete(s.events, id)
			removed++
		}
	}
	return removed, nil
}

func (s *memEventStore) DeleteBySource(ctx context.Context, sourceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.events {
		if e.SourceID == sourceID {
			delete(s.events, id)
			removed++
		}
	}
	return removed, nil
}

func (s *memEventStore) Query(ctx context.Context, filter EventFilter) ([]models.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CalendarEvent
	for _, e := range s.events {
		if filter.ProfileID != "" && e.ProfileID != filter.ProfileID {
			continue
		}
		if filter.SourceID != "" && e.SourceID != filter.SourceID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.From != nil && e.ScheduledTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !e.ScheduledTime.Before(*filter.To) {
			continue
		}
		if len(filter.Types) > 0 {
			match := false
			for _, t := range filter.Types {
				if e.Type == t {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out, nil
}

func (s *memEventStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type memLedger struct {
	mu      sync.Mutex
	entries map[string]models.HistoryEntry
}

func newMemLedger() *memLedger {
	return &memLedger{entries: make(map[string]models.HistoryEntry)}
}

func ledgerKey(sourceID string, at timeutil.LocalDateTime) string {
	return sourceID + "|" + at.String()
}

func (l *memLedger) UpsertStatus(ctx context.Context, entry *models.HistoryEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[ledgerKey(entry.SourceID, entry.ScheduledTime)] = *entry
	return nil
}

func (l *memLedger) QueryByDateRange(ctx context.Context, profileID string, from, to timeutil.LocalDateTime) ([]models.HistoryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.HistoryEntry
	for _, e := range l.entries {
		if e.ProfileID != profileID {
			continue
		}
		if e.ScheduledTime.Before(from) || !e.ScheduledTime.Before(to) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out, nil
}

func (l *memLedger) DeleteBySource(ctx context.Context, sourceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if e.SourceID == sourceID {
			delete(l.entries, key)
		}
	}
	return nil
}

func (l *memLedger) get(sourceID string, at timeutil.LocalDateTime) (models.HistoryEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ledgerKey(sourceID, at)]
	return e, ok
}

func (l *memLedger) countBySource(sourceID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.SourceID == sourceID {
			n++
		}
	}
	return n
}

type memStock struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMemStock() *memStock {
	return &memStock{counts: make(map[string]int)}
}

func (s *memStock) DecrementQuantity(ctx context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.counts[sourceID]; !ok {
		return fmt.Errorf("source not found: %s", sourceID)
	}
	if s.counts[sourceID] > 0 {
		s.counts[sourceID]--
	}
	return nil
}

func (s *memStock) quantity(sourceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[sourceID]
}

type statusChange struct {
	eventID  string
	previous models.EventStatus
	current  models.EventStatus
}

type recordingNotifier struct {
	mu       sync.Mutex
	changes  []statusChange
	regens   []RegenResult
	failures []string
	lowStock []LowStockItem
}

func (n *recordingNotifier) EventStatusChanged(event *models.CalendarEvent, previous models.EventStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, statusChange{eventID: event.ID, previous: previous, current: event.Status})
}

func (n *recordingNotifier) RegenerationCompleted(sourceID string, kind models.EventType, purged, created int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.regens = append(n.regens, RegenResult{SourceID: sourceID, Purged: purged, Created: created})
}

func (n *recordingNotifier) RegenerationFailed(sourceID string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, sourceID)
}

func (n *recordingNotifier) LowStock(kind models.SourceKind, sourceID, name string, remaining int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lowStock = append(n.lowStock, LowStockItem{Kind: kind, SourceID: sourceID, Name: name, Remaining: remaining})
}

// Test fixture helpers.

func ld(year, month, day int) timeutil.LocalDate {
	return timeutil.NewLocalDate(year, time.Month(month), day)
}

func ldt(year, month, day, hour, minute int) timeutil.LocalDateTime {
	return timeutil.NewLocalDateTime(year, time.Month(month), day, hour, minute)
}

func dailySource(id string, slots ...string) Source {
	return Source{
		ID:        id,
		ProfileID: "profile-1",
		Kind:      models.EventTypeMedicationDue,
		Title:     "Lisinopril",
		TimeOfDay: models.TimeSlots(slots),
		Rule: models.RecurrenceRule{
			Frequency:  models.FrequencyDaily,
			AnchorDate: ld(2024, 1, 1),
		},
		Metadata: models.Metadata{
			Dose: &models.DoseMetadata{Dosage: "10", Unit: "mg"},
		},
		Active: true,
	}
}
