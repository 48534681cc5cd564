package calendar

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const icsProductId = "-//calsync//Calendar Export//EN"

type IcsRenderer struct {
	now func() time.Time
}

func NewIcsRenderer() *IcsRenderer {
	return &IcsRenderer{now: time.Now}
}

// RenderCollection encodes the collection and its events as an iCalendar document.
func (r *IcsRenderer) RenderCollection(collection CollectionRecord, events []EventRecord) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductId)
	if collection.Name != "" {
		cal.Props.SetText("X-WR-CALNAME", collection.Name)
	}

	stamp := r.now().UTC()
	for _, e := range events {
		cal.Children = append(cal.Children, r.toVEvent(e, stamp).Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("could not encode iCalendar for %s: %w", collection.ExternalId, err)
	}
	return buf.Bytes(), nil
}

func (r *IcsRenderer) toVEvent(e EventRecord, stamp time.Time) *ical.Event {
	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, eventUid(e))
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	vevent.Props.SetText(ical.PropSummary, e.DisplayLabel)
	if e.Location != "" {
		vevent.Props.SetText(ical.PropLocation, e.Location)
	}

	if e.IsAllDay {
		vevent.Props.SetDate(ical.PropDateTimeStart, e.StartDateTime)
		if !e.EndDateTime.IsZero() {
			vevent.Props.SetDate(ical.PropDateTimeEnd, e.EndDateTime)
		}
	} else {
		vevent.Props.SetDateTime(ical.PropDateTimeStart, e.StartDateTime.UTC())
		if !e.EndDateTime.IsZero() {
			vevent.Props.SetDateTime(ical.PropDateTimeEnd, e.EndDateTime.UTC())
		}
	}
	return vevent
}

func eventUid(e EventRecord) string {
	if e.ExternalId != "" {
		return e.ExternalId
	}
	if e.Uid != uuid.Nil {
		return e.Uid.String()
	}
	return uuid.NewString()
}
