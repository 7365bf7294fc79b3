package websocket

import (
	"encoding/json"
	"time"

	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeEventStatusChanged    MessageType = "event.status_changed"
	TypeScheduleRegenerated   MessageType = "schedule.regenerated"
	TypeScheduleRegenError    MessageType = "schedule.regeneration_error"
	TypeStockLow              MessageType = "stock.low"
	TypeNotification          MessageType = "notification"

	// Client -> Server command types
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	TypePing        MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventStatusPayload is the payload for event.status_changed events.
type EventStatusPayload struct {
	EventID        string                 `json:"event_id"`
	ProfileID      string                 `json:"profile_id"`
	EventType      models.EventType       `json:"event_type"`
	SourceID       string                 `json:"source_id"`
	Title          string                 `json:"title"`
	ScheduledTime  timeutil.LocalDateTime `json:"scheduled_time"`
	PreviousStatus models.EventStatus     `json:"previous_status"`
	NewStatus      models.EventStatus     `json:"new_status"`
}

// RegenerationPayload is the payload for schedule.regenerated events.
type RegenerationPayload struct {
	SourceID      string           `json:"source_id"`
	EventType     models.EventType `json:"event_type"`
	EventsPurged  int              `json:"events_purged"`
	EventsCreated int              `json:"events_created"`
}

// RegenerationErrorPayload is the payload for schedule.regeneration_error events.
type RegenerationErrorPayload struct {
	SourceID string `json:"source_id"`
	Error    string `json:"error"`
	Message  string `json:"message"`
}

// StockLowPayload is the payload for stock.low events.
type StockLowPayload struct {
	SourceKind models.SourceKind `json:"source_kind"`
	SourceID   string            `json:"source_id"`
	Name       string            `json:"name"`
	Remaining  int               `json:"remaining"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
