package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/klokku/calsync/internal/event_bus"
	"github.com/klokku/calsync/internal/transport"
	log "github.com/sirupsen/logrus"
)

var errNotAnObject = errors.New("response is not a JSON object")

// handleCompletion consumes the registry entry of c and dispatches its body by
// intent. Failures only ever affect this one completion.
func (o *Orchestrator) handleCompletion(ctx context.Context, c transport.Completion) {
	intent, ok := o.registry.Take(c.Handle)
	if !ok {
		o.metrics.unroutable.Inc()
		log.Warnf("dropping completion of unknown request %s", c.Handle)
		return
	}

	outcome := o.route(ctx, intent, c)
	o.metrics.completed(intent, outcome, o.registry.Len())

	if intent.Kind == FetchEventsForCalendar && intent.partOfFreshSync() {
		if completed, finished := o.runs.fetchCompleted(intent.RunID); finished {
			o.freshSyncFinished(ctx, completed)
		}
	}
}

func (o *Orchestrator) route(ctx context.Context, intent Intent, c transport.Completion) string {
	if len(c.Body) == 0 {
		outcome := outcomeEmpty
		if c.Err != nil {
			outcome = outcomeFailed
			log.Debugf("request %s for %s failed: %v", c.Handle, intent, c.Err)
		} else {
			log.Debugf("empty response for %s, nothing changed", intent)
		}
		if intent.Kind == InitialSyncListCalendars {
			o.listHandled(ctx, intent.RunID, 0, c.Err != nil)
		}
		return outcome
	}

	items, err := decodeItems(c.Body)
	if err != nil {
		log.Warnf("dropping malformed response for %s: %v", intent, err)
		if intent.Kind == InitialSyncListCalendars {
			o.listHandled(ctx, intent.RunID, 0, true)
		}
		return outcomeMalformed
	}

	switch intent.Kind {
	case ListCalendars:
		o.publish(ctx, event_bus.CalendarListReadyType, event_bus.CalendarListReady{Items: items})
	case InitialSyncListCalendars:
		o.fanOut(ctx, intent.RunID, items)
	case FetchEventsForCalendar:
		o.publish(ctx, event_bus.EventsReadyType, event_bus.EventsReady{CalendarID: intent.CalendarID, Items: items})
	}
	return outcomeDispatched
}

// fanOut publishes the calendar list of a fresh sync and fetches the events of
// every calendar with an id.
func (o *Orchestrator) fanOut(ctx context.Context, runID uuid.UUID, items []json.RawMessage) {
	o.publish(ctx, event_bus.CalendarListReadyType, event_bus.CalendarListReady{Items: items})

	run, ok := o.runs.get(runID)
	if !ok {
		log.Warnf("fresh sync %s is not tracked, skipping event fetches", runID)
		return
	}

	calendars := 0
	for _, item := range items {
		id := calendarID(item)
		if id == "" {
			continue
		}
		calendars++
		req, err := o.endpoints.EventsRequest(ctx, id, run.token)
		if err != nil {
			log.Errorf("fresh sync %s: %v", runID, err)
			continue
		}
		o.submit(req, fetchEventsIntent(id, runID))
		o.runs.fetchIssued(runID)
	}
	log.Infof("fresh sync %s: fetching events of %d of %d calendars", runID, calendars, len(items))
	o.listHandled(ctx, runID, calendars, false)
}

func (o *Orchestrator) listHandled(ctx context.Context, runID uuid.UUID, calendars int, failed bool) {
	if completed, finished := o.runs.listHandled(runID, calendars, failed); finished {
		o.freshSyncFinished(ctx, completed)
	}
}

func (o *Orchestrator) freshSyncFinished(ctx context.Context, completed event_bus.FreshSyncCompleted) {
	duration := completed.FinishedAt.Sub(completed.StartedAt)
	o.metrics.freshSyncFinished(completed.ListFailed, duration.Seconds())
	log.Infof("fresh sync %s finished in %s: %d calendars, %d event fetches, list failed: %v",
		completed.RunID, duration, completed.Calendars, completed.EventFetches, completed.ListFailed)
	o.publish(ctx, event_bus.FreshSyncCompletedType, completed)
}

// decodeItems returns the "items" array of a JSON object body. A missing or
// non-array "items" yields an empty list.
func decodeItems(body []byte) ([]json.RawMessage, error) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(body, &object); err != nil {
		return nil, fmt.Errorf("%w: %v", errNotAnObject, err)
	}
	if object == nil {
		return nil, errNotAnObject
	}

	var items []json.RawMessage
	if raw, ok := object["items"]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			items = nil
		}
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}
