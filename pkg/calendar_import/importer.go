package calendar_import

import (
	"context"
	"fmt"

	"github.com/klokku/calsync/internal/event_bus"
	"github.com/klokku/calsync/pkg/calendar"
	"github.com/klokku/calsync/pkg/google"
	log "github.com/sirupsen/logrus"
)

// Store is the part of calendar.Service the importer writes to.
type Store interface {
	SaveCollection(ctx context.Context, collection calendar.CollectionRecord) (calendar.CollectionRecord, error)
	ReplaceEvents(ctx context.Context, collectionExternalId string, events []calendar.EventRecord) (int, error)
}

// Importer maps calendar notifications into local records.
type Importer struct {
	store        Store
	unsubscribes []func()
}

func NewImporter(store Store) *Importer {
	return &Importer{store: store}
}

// Subscribe starts consuming calendar notifications of bus until Close is called.
func (i *Importer) Subscribe(bus *event_bus.EventBus) {
	i.unsubscribes = append(i.unsubscribes,
		event_bus.SubscribeTyped(bus, event_bus.CalendarListReadyType, func(e event_bus.EventT[event_bus.CalendarListReady]) error {
			return i.ImportCalendars(e.Context(), e.Data)
		}),
		event_bus.SubscribeTyped(bus, event_bus.EventsReadyType, func(e event_bus.EventT[event_bus.EventsReady]) error {
			return i.ImportEvents(e.Context(), e.Data)
		}),
	)
}

func (i *Importer) Close() {
	for _, unsubscribe := range i.unsubscribes {
		unsubscribe()
	}
	i.unsubscribes = nil
}

// ImportCalendars stores every calendar with an id and continues past store
// failures of single calendars.
func (i *Importer) ImportCalendars(ctx context.Context, list event_bus.CalendarListReady) error {
	stored, dropped, failed := 0, 0, 0
	var firstErr error
	for _, item := range list.Items {
		record, ok := google.MapCalendar(item)
		if !ok {
			dropped++
			continue
		}
		if _, err := i.store.SaveCollection(ctx, record); err != nil {
			log.Errorf("failed to store calendar %s: %v", record.ExternalId, err)
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		stored++
	}
	log.Debugf("imported %d calendars, dropped %d, failed %d", stored, dropped, failed)
	if firstErr != nil {
		return fmt.Errorf("failed to store %d of %d calendars: %w", failed, len(list.Items), firstErr)
	}
	return nil
}

// ImportEvents replaces the stored events of one calendar with the mappable
// events of the response. A response whose items all fail to map leaves the
// stored events untouched.
func (i *Importer) ImportEvents(ctx context.Context, events event_bus.EventsReady) error {
	records := make([]calendar.EventRecord, 0, len(events.Items))
	for _, item := range events.Items {
		if record, ok := google.MapEvent(item, events.CalendarID); ok {
			records = append(records, record)
		}
	}
	dropped := len(events.Items) - len(records)
	if len(records) == 0 && dropped > 0 {
		log.Debugf("no events to import for calendar %s, dropped %d", events.CalendarID, dropped)
		return nil
	}

	stored, err := i.store.ReplaceEvents(ctx, events.CalendarID, records)
	if err != nil {
		return fmt.Errorf("failed to import events of calendar %s: %w", events.CalendarID, err)
	}
	log.Debugf("imported %d events of calendar %s, dropped %d", stored, events.CalendarID, dropped)
	return nil
}
