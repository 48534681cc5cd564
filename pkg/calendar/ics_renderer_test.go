package calendar

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeCalendar(t *testing.T, data []byte) *ical.Calendar {
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	require.NoError(t, err)
	return cal
}

func TestIcsRenderer_RenderCollection(t *testing.T) {
	renderer := NewIcsRenderer()
	renderer.now = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) }
	collection := CollectionRecord{ExternalId: "cal1", Name: "Work"}

	t.Run("should render timed event in UTC", func(t *testing.T) {
		// given
		warsaw := time.FixedZone("CET", 3600)
		start := time.Date(2024, 3, 1, 10, 0, 0, 0, warsaw)
		event := EventRecord{ExternalId: "ev1", StartDateTime: start, EndDateTime: start.Add(time.Hour), DisplayLabel: "Standup", Location: "Room 1"}

		// when
		data, err := renderer.RenderCollection(collection, []EventRecord{event})

		// then
		require.NoError(t, err)
		cal := decodeCalendar(t, data)
		assert.Equal(t, "Work", cal.Props.Get("X-WR-CALNAME").Value)
		events := cal.Events()
		require.Len(t, events, 1)
		assert.Equal(t, "ev1", events[0].Props.Get(ical.PropUID).Value)
		assert.Equal(t, "Room 1", events[0].Props.Get(ical.PropLocation).Value)
		assert.Equal(t, "20240301T090000Z", events[0].Props.Get(ical.PropDateTimeStart).Value)
		assert.Equal(t, "20240301T100000Z", events[0].Props.Get(ical.PropDateTimeEnd).Value)
	})

	t.Run("should render all-day event as date", func(t *testing.T) {
		// given
		event := EventRecord{ExternalId: "trip", StartDateTime: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), IsAllDay: true, DisplayLabel: "Trip"}

		// when
		data, err := renderer.RenderCollection(collection, []EventRecord{event})

		// then
		require.NoError(t, err)
		events := decodeCalendar(t, data).Events()
		require.Len(t, events, 1)
		start := events[0].Props.Get(ical.PropDateTimeStart)
		assert.Equal(t, "20240302", start.Value)
		assert.Equal(t, ical.ValueDate, start.ValueType())
		assert.Nil(t, events[0].Props.Get(ical.PropDateTimeEnd))
	})

	t.Run("should fall back to stored uid when external id is missing", func(t *testing.T) {
		// given
		uid := uuid.New()
		event := EventRecord{Uid: uid, StartDateTime: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), DisplayLabel: "Local"}

		// when
		data, err := renderer.RenderCollection(collection, []EventRecord{event})

		// then
		require.NoError(t, err)
		events := decodeCalendar(t, data).Events()
		require.Len(t, events, 1)
		assert.Equal(t, uid.String(), events[0].Props.Get(ical.PropUID).Value)
	})
}
