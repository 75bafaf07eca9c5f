package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusArchived Status = "archived"
)

// Statuses lists every status a message can be in.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusArchived}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusArchived:
		return true
	}
	return false
}

func ParseStatus(value string) (Status, error) {
	status := Status(value)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
	return status, nil
}

type Message struct {
	ID        string    `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	ImageURL  *string   `json:"image_url" db:"image_url"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

const SettingModerationEnabled = "moderation_enabled"

type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ImageUpload is an image attached to a new message. ContentType is filled
// in once the payload has been sniffed.
type ImageUpload struct {
	FileName    string
	Size        int64
	ContentType string
	Reader      io.Reader
}

const (
	TableMessages = "messages"
	TableSettings = "settings"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	// EventResync is emitted locally when the feed connection was
	// re-established and notifications may have been missed.
	EventResync EventType = "RESYNC"
)

// ChangeEvent is a row-level change pushed by the store. Old and New hold
// the raw row; either may be empty depending on the event.
type ChangeEvent struct {
	Table string          `json:"table"`
	Event EventType       `json:"event"`
	Old   json.RawMessage `json:"old,omitempty"`
	New   json.RawMessage `json:"new,omitempty"`
}

func (e ChangeEvent) HasOld() bool { return hasRow(e.Old) }
func (e ChangeEvent) HasNew() bool { return hasRow(e.New) }

func (e ChangeEvent) OldMessage() (*Message, error) {
	return decodeMessage(e.Old)
}

func (e ChangeEvent) NewMessage() (*Message, error) {
	return decodeMessage(e.New)
}

func (e ChangeEvent) NewSetting() (*Setting, error) {
	if !hasRow(e.New) {
		return nil, fmt.Errorf("событие %s не содержит новой строки", e.Event)
	}
	var setting Setting
	if err := json.Unmarshal(e.New, &setting); err != nil {
		return nil, fmt.Errorf("ошибка разбора настройки: %w", err)
	}
	return &setting, nil
}

func hasRow(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func decodeMessage(raw json.RawMessage) (*Message, error) {
	if !hasRow(raw) {
		return nil, fmt.Errorf("событие не содержит строки сообщения")
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("ошибка разбора сообщения: %w", err)
	}
	return &msg, nil
}
