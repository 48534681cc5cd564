package event_bus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	CalendarListReadyType  EventType = "calendar.list.ready"
	EventsReadyType        EventType = "calendar.events.ready"
	FreshSyncCompletedType EventType = "calendar.fresh_sync.completed"
)

// CalendarListReady carries the raw "items" of a calendar list response.
type CalendarListReady struct {
	Items []json.RawMessage
}

// EventsReady carries the raw "items" of an events response for one calendar.
type EventsReady struct {
	CalendarID string
	Items      []json.RawMessage
}

// FreshSyncCompleted is published once every event fetch issued by a fresh sync
// has completed, whatever the outcome of each fetch.
type FreshSyncCompleted struct {
	RunID        uuid.UUID
	StartedAt    time.Time
	FinishedAt   time.Time
	Calendars    int
	EventFetches int
	// ListFailed is set when the calendar list request failed or its body could
	// not be decoded.
	ListFailed bool
}
