package ws

import (
	"encoding/json"
	"time"

	"messagewall/internal/models"
	"messagewall/internal/wall"
)

// Event types - Client → Server
const (
	EventTypePing = "ping"
)

// Event types - Server → Client
const (
	EventTypeSnapshot        = "snapshot"
	EventTypeMessageInserted = "message.inserted"
	EventTypeMessageUpdated  = "message.updated"
	EventTypeMessageDeleted  = "message.deleted"
	EventTypeSettingsChanged = "settings.changed"
	EventTypePong            = "pong"
	EventTypeError           = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Server → Client payloads ---

// PublicSnapshotPayload is what anonymous sockets see of the board.
type PublicSnapshotPayload struct {
	Approved []models.Message `json:"approved"`
	Loading  bool             `json:"loading"`
}

type MessagePayload struct {
	models.Message
	PreviousStatus models.Status `json:"previous_status,omitempty"`
}

type MessageDeletedPayload struct {
	ID string `json:"id"`
}

type SettingsPayload struct {
	ModerationEnabled bool `json:"moderation_enabled"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}

// Translate maps a board update to what a socket should receive. Admin
// sockets see every partition; public sockets only the approved feed, so a
// message leaving it arrives as a deletion.
func Translate(update wall.Update, admin bool) (*Event, error) {
	if update.Snapshot != nil {
		if admin {
			return NewEvent(EventTypeSnapshot, update.Snapshot)
		}
		return NewEvent(EventTypeSnapshot, PublicSnapshotPayload{
			Approved: update.Snapshot.Approved,
			Loading:  update.Snapshot.Loading,
		})
	}

	if update.Event == nil {
		return nil, nil
	}

	change := *update.Event
	var previous models.Status
	if change.HasOld() {
		if old, err := change.OldMessage(); err == nil {
			previous = old.Status
		}
	}

	switch change.Event {
	case models.EventInsert:
		msg, err := change.NewMessage()
		if err != nil {
			return nil, err
		}
		if !admin && msg.Status != models.StatusApproved {
			return nil, nil
		}
		return NewEvent(EventTypeMessageInserted, MessagePayload{Message: *msg})

	case models.EventUpdate:
		msg, err := change.NewMessage()
		if err != nil {
			return nil, err
		}
		if admin {
			return NewEvent(EventTypeMessageUpdated, MessagePayload{Message: *msg, PreviousStatus: previous})
		}
		if msg.Status == models.StatusApproved {
			if previous == models.StatusApproved {
				return NewEvent(EventTypeMessageUpdated, MessagePayload{Message: *msg})
			}
			return NewEvent(EventTypeMessageInserted, MessagePayload{Message: *msg})
		}
		if previous == models.StatusApproved || previous == "" {
			return NewEvent(EventTypeMessageDeleted, MessageDeletedPayload{ID: msg.ID})
		}
		return nil, nil

	case models.EventDelete:
		old, err := change.OldMessage()
		if err != nil {
			return nil, err
		}
		if !admin && old.Status != models.StatusApproved && old.Status != "" {
			return nil, nil
		}
		return NewEvent(EventTypeMessageDeleted, MessageDeletedPayload{ID: old.ID})
	}

	return nil, nil
}
