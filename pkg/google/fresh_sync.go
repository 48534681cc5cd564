package google

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/calsync/internal/event_bus"
	"github.com/klokku/calsync/internal/utils"
)

type freshSyncRun struct {
	id        uuid.UUID
	token     string
	startedAt time.Time
	listDone  bool
	failed    bool
	calendars int
	issued    int
	completed int
}

func (r *freshSyncRun) finished() bool {
	return r.listDone && r.completed >= r.issued
}

// RunStatus describes an open fresh sync.
type RunStatus struct {
	RunID           uuid.UUID `json:"runId"`
	StartedAt       time.Time `json:"startedAt"`
	CalendarsListed bool      `json:"calendarsListed"`
	Calendars       int       `json:"calendars"`
	EventFetches    int       `json:"eventFetches"`
	Completed       int       `json:"completed"`
}

// freshSyncTracker counts issued and completed event fetches per fresh sync and
// reports a run as finished once its calendar list is handled and every fetch
// has completed.
type freshSyncTracker struct {
	clock utils.Clock
	runs  map[uuid.UUID]*freshSyncRun
}

func newFreshSyncTracker(clock utils.Clock) *freshSyncTracker {
	return &freshSyncTracker{clock: clock, runs: make(map[uuid.UUID]*freshSyncRun)}
}

func (t *freshSyncTracker) open(token string) *freshSyncRun {
	run := &freshSyncRun{id: uuid.New(), token: token, startedAt: t.clock.Now()}
	t.runs[run.id] = run
	return run
}

func (t *freshSyncTracker) get(runID uuid.UUID) (*freshSyncRun, bool) {
	run, ok := t.runs[runID]
	return run, ok
}

// discard forgets a run whose calendar list request was never submitted.
func (t *freshSyncTracker) discard(runID uuid.UUID) {
	delete(t.runs, runID)
}

func (t *freshSyncTracker) fetchIssued(runID uuid.UUID) {
	if run, ok := t.runs[runID]; ok {
		run.issued++
	}
}

// listHandled records the outcome of the calendar list request of a run.
func (t *freshSyncTracker) listHandled(runID uuid.UUID, calendars int, failed bool) (event_bus.FreshSyncCompleted, bool) {
	run, ok := t.runs[runID]
	if !ok {
		return event_bus.FreshSyncCompleted{}, false
	}
	run.listDone = true
	run.calendars = calendars
	run.failed = failed
	return t.finishIfDone(run)
}

func (t *freshSyncTracker) fetchCompleted(runID uuid.UUID) (event_bus.FreshSyncCompleted, bool) {
	run, ok := t.runs[runID]
	if !ok {
		return event_bus.FreshSyncCompleted{}, false
	}
	run.completed++
	return t.finishIfDone(run)
}

func (t *freshSyncTracker) finishIfDone(run *freshSyncRun) (event_bus.FreshSyncCompleted, bool) {
	if !run.finished() {
		return event_bus.FreshSyncCompleted{}, false
	}
	delete(t.runs, run.id)
	return event_bus.FreshSyncCompleted{
		RunID:        run.id,
		StartedAt:    run.startedAt,
		FinishedAt:   t.clock.Now(),
		Calendars:    run.calendars,
		EventFetches: run.issued,
		ListFailed:   run.failed,
	}, true
}

func (t *freshSyncTracker) status() []RunStatus {
	result := make([]RunStatus, 0, len(t.runs))
	for _, run := range t.runs {
		result = append(result, RunStatus{
			RunID:           run.id,
			StartedAt:       run.startedAt,
			CalendarsListed: run.listDone,
			Calendars:       run.calendars,
			EventFetches:    run.issued,
			Completed:       run.completed,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result
}
