package websocket

import (
	"log"

	"github.com/careledger/backend/internal/storage/models"
)

// EventBroadcaster handles broadcasting engine events to WebSocket clients.
// It satisfies the engine's Notifier contract.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// EventStatusChanged sends an event.status_changed message.
func (b *EventBroadcaster) EventStatusChanged(event *models.CalendarEvent, previous models.EventStatus) {
	payload := EventStatusPayload{
		EventID:        event.ID,
		ProfileID:      event.ProfileID,
		EventType:      event.Type,
		SourceID:       event.SourceID,
		Title:          event.Title,
		ScheduledTime:  event.ScheduledTime,
		PreviousStatus: previous,
		NewStatus:      event.Status,
	}

	b.send(NewMessage(TypeEventStatusChanged, payload))
}

// RegenerationCompleted sends a schedule.regenerated message.
func (b *EventBroadcaster) RegenerationCompleted(sourceID string, kind models.EventType, purged, created int) {
	payload := RegenerationPayload{
		SourceID:      sourceID,
		EventType:     kind,
		EventsPurged:  purged,
		EventsCreated: created,
	}

	b.send(NewMessage(TypeScheduleRegenerated, payload))
}

// RegenerationFailed sends a schedule.regeneration_error message.
func (b *EventBroadcaster) RegenerationFailed(sourceID string, err error) {
	payload := RegenerationErrorPayload{
		SourceID: sourceID,
		Error:    "regeneration_error",
		Message:  err.Error(),
	}

	b.send(NewMessage(TypeScheduleRegenError, payload))
}

// LowStock sends a stock.low message.
func (b *EventBroadcaster) LowStock(kind models.SourceKind, sourceID, name string, remaining int) {
	payload := StockLowPayload{
		SourceKind: kind,
		SourceID:   sourceID,
		Name:       name,
		Remaining:  remaining,
	}

	b.send(NewMessage(TypeStockLow, payload))
}

// Notify sends a free-form notification to all connected clients.
func (b *EventBroadcaster) Notify(level, title, message string) {
	payload := NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}

	b.send(NewMessage(TypeNotification, payload))
}

func (b *EventBroadcaster) send(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(data)
}
