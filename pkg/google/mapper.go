package google

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/klokku/calsync/pkg/calendar"
)

const dateLayout = "2006-01-02"

// rawCalendar and rawEvent hold only the fields the mapper reads. Each one is
// read on its own so a badly typed field never drops the whole item.
type rawCalendar struct {
	Id              json.RawMessage `json:"id"`
	Summary         json.RawMessage `json:"summary"`
	BackgroundColor json.RawMessage `json:"backgroundColor"`
}

type rawEvent struct {
	Id       json.RawMessage `json:"id"`
	Summary  json.RawMessage `json:"summary"`
	Location json.RawMessage `json:"location"`
	Start    json.RawMessage `json:"start"`
	End      json.RawMessage `json:"end"`
}

type rawEventTime struct {
	DateTime json.RawMessage `json:"dateTime"`
	Date     json.RawMessage `json:"date"`
}

// MapCalendar translates one raw calendar list entry. It reports false when the
// entry is not an object or has no id.
func MapCalendar(raw json.RawMessage) (calendar.CollectionRecord, bool) {
	var entry rawCalendar
	if !decodeObject(raw, &entry) {
		return calendar.CollectionRecord{}, false
	}
	id := lenientString(entry.Id)
	if id == "" {
		return calendar.CollectionRecord{}, false
	}
	return calendar.CollectionRecord{
		ExternalId:   id,
		Name:         lenientString(entry.Summary),
		Color:        lenientString(entry.BackgroundColor),
		StorageLabel: calendar.GoogleStorageLabel,
	}, true
}

// calendarID returns the id of a raw calendar list entry, or "" when it has none.
func calendarID(raw json.RawMessage) string {
	var entry rawCalendar
	if !decodeObject(raw, &entry) {
		return ""
	}
	return lenientString(entry.Id)
}

// MapEvent translates one raw event of the calendar collectionExternalID. It
// reports false when the event has no parsable start.
func MapEvent(raw json.RawMessage, collectionExternalID string) (calendar.EventRecord, bool) {
	var event rawEvent
	if !decodeObject(raw, &event) {
		return calendar.EventRecord{}, false
	}

	start, allDay, ok := parseEventTime(event.Start)
	if !ok {
		return calendar.EventRecord{}, false
	}
	end, _, _ := parseEventTime(event.End)

	return calendar.EventRecord{
		ExternalId:           lenientString(event.Id),
		CollectionExternalId: collectionExternalID,
		StartDateTime:        start,
		EndDateTime:          end,
		IsAllDay:             allDay,
		DisplayLabel:         lenientString(event.Summary),
		Location:             lenientString(event.Location),
	}, true
}

// parseEventTime prefers dateTime over date; a present but unparsable dateTime
// does not fall back to date.
func parseEventTime(raw json.RawMessage) (time.Time, bool, bool) {
	var t rawEventTime
	if !decodeObject(raw, &t) {
		return time.Time{}, false, false
	}
	if dateTime := lenientString(t.DateTime); dateTime != "" {
		parsed, err := time.Parse(time.RFC3339, dateTime)
		if err != nil {
			return time.Time{}, false, false
		}
		return parsed, false, true
	}
	if date := lenientString(t.Date); date != "" {
		parsed, err := time.Parse(dateLayout, date)
		if err != nil {
			return time.Time{}, false, false
		}
		return parsed, true, true
	}
	return time.Time{}, false, false
}

func decodeObject(raw json.RawMessage, v any) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Unmarshal(trimmed, v) == nil
}

// lenientString reads a JSON scalar as text: strings as they are, numbers and
// booleans by their literal. Anything else reads as "".
func lenientString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	default:
		return string(trimmed)
	}
}
