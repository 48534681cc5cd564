package google

import (
	"fmt"

	"github.com/google/uuid"
)

type IntentKind int

const (
	ListCalendars IntentKind = iota
	FetchEventsForCalendar
	InitialSyncListCalendars
)

func (k IntentKind) String() string {
	switch k {
	case ListCalendars:
		return "list_calendars"
	case FetchEventsForCalendar:
		return "fetch_events"
	case InitialSyncListCalendars:
		return "initial_sync_list_calendars"
	default:
		return fmt.Sprintf("intent(%d)", int(k))
	}
}

// Intent records why a request was submitted so its completion can be routed
// without looking at the response URL.
type Intent struct {
	Kind       IntentKind
	CalendarID string
	// RunID is the fresh sync the request belongs to, uuid.Nil for standalone requests.
	RunID uuid.UUID
}

func listCalendarsIntent() Intent {
	return Intent{Kind: ListCalendars}
}

func initialSyncIntent(runID uuid.UUID) Intent {
	return Intent{Kind: InitialSyncListCalendars, RunID: runID}
}

func fetchEventsIntent(calendarID string, runID uuid.UUID) Intent {
	return Intent{Kind: FetchEventsForCalendar, CalendarID: calendarID, RunID: runID}
}

func (i Intent) partOfFreshSync() bool {
	return i.RunID != uuid.Nil
}

func (i Intent) String() string {
	if i.Kind == FetchEventsForCalendar {
		return fmt.Sprintf("%s(%s)", i.Kind, i.CalendarID)
	}
	return i.Kind.String()
}
