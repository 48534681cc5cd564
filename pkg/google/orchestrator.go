package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/klokku/calsync/internal/event_bus"
	"github.com/klokku/calsync/internal/transport"
	"github.com/klokku/calsync/internal/utils"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotRunning      = errors.New("sync orchestrator is not running")
	ErrAlreadyRunning  = errors.New("sync orchestrator is already running")
	ErrEmptyCalendarID = errors.New("calendar id must not be empty")
)

type Status struct {
	PendingRequests int         `json:"pendingRequests"`
	OpenRuns        []RunStatus `json:"openRuns"`
}

type command struct {
	run    func(ctx context.Context) error
	result chan error
}

// Orchestrator issues calendar API requests and routes their completions. The
// registry and fresh sync tracker are owned by the Run loop; every public method
// hands its work over to that loop.
//
// Notifications are published from the loop, so bus subscribers must not call
// Orchestrator methods synchronously.
type Orchestrator struct {
	transport   transport.Transport
	credentials CredentialSource
	endpoints   Endpoints
	bus         *event_bus.EventBus
	metrics     *Metrics

	registry *Registry
	runs     *freshSyncTracker

	commands chan command
	done     chan struct{}
	running  atomic.Bool
}

func NewOrchestrator(
	t transport.Transport,
	credentials CredentialSource,
	endpoints Endpoints,
	bus *event_bus.EventBus,
	metrics *Metrics,
	clock utils.Clock,
) *Orchestrator {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Orchestrator{
		transport:   t,
		credentials: credentials,
		endpoints:   endpoints,
		bus:         bus,
		metrics:     metrics,
		registry:    NewRegistry(),
		runs:        newFreshSyncTracker(clock),
		commands:    make(chan command),
		done:        make(chan struct{}),
	}
}

// Run processes commands and transport completions until ctx is done. An
// Orchestrator can only be run once.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(o.done)

	log.Info("sync orchestrator started")
	completions := o.transport.Completions()
	for {
		select {
		case <-ctx.Done():
			log.Infof("sync orchestrator stopped with %d pending requests", o.registry.Len())
			return nil
		case cmd := <-o.commands:
			cmd.result <- cmd.run(ctx)
		case completion, ok := <-completions:
			if !ok {
				log.Warn("transport closed its completions, stopping sync orchestrator")
				return nil
			}
			o.handleCompletion(ctx, completion)
		}
	}
}

// RefreshCalendarList requests the calendar list. The result is published as
// CalendarListReady.
func (o *Orchestrator) RefreshCalendarList(ctx context.Context) error {
	token, err := o.accessToken(ctx)
	if err != nil {
		return err
	}
	return o.enqueue(ctx, func(loopCtx context.Context) error {
		req, err := o.endpoints.CalendarListRequest(loopCtx, token)
		if err != nil {
			return err
		}
		o.submit(req, listCalendarsIntent())
		return nil
	})
}

// RefreshEventsForCalendar requests the events of one calendar. The result is
// published as EventsReady.
func (o *Orchestrator) RefreshEventsForCalendar(ctx context.Context, calendarID string) error {
	if calendarID == "" {
		return ErrEmptyCalendarID
	}
	token, err := o.accessToken(ctx)
	if err != nil {
		return err
	}
	return o.enqueue(ctx, func(loopCtx context.Context) error {
		req, err := o.endpoints.EventsRequest(loopCtx, calendarID, token)
		if err != nil {
			return err
		}
		o.submit(req, fetchEventsIntent(calendarID, uuid.Nil))
		return nil
	})
}

// StartFreshSync lists all calendars and then fetches the events of each of them
// with the token read here. FreshSyncCompleted is published with the returned
// run id once every fetch has completed.
func (o *Orchestrator) StartFreshSync(ctx context.Context) (uuid.UUID, error) {
	token, err := o.accessToken(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var runID uuid.UUID
	err = o.enqueue(ctx, func(loopCtx context.Context) error {
		run := o.runs.open(token)
		req, err := o.endpoints.CalendarListRequest(loopCtx, token)
		if err != nil {
			o.runs.discard(run.id)
			return err
		}
		o.submit(req, initialSyncIntent(run.id))
		runID = run.id
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	log.Infof("fresh sync %s started", runID)
	return runID, nil
}

func (o *Orchestrator) Status(ctx context.Context) (Status, error) {
	var status Status
	err := o.enqueue(ctx, func(_ context.Context) error {
		status = Status{
			PendingRequests: o.registry.Len(),
			OpenRuns:        o.runs.status(),
		}
		return nil
	})
	return status, err
}

func (o *Orchestrator) accessToken(ctx context.Context) (string, error) {
	token, err := o.credentials.CurrentAccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	return token, nil
}

func (o *Orchestrator) enqueue(ctx context.Context, run func(ctx context.Context) error) error {
	cmd := command{run: run, result: make(chan error, 1)}
	select {
	case o.commands <- cmd:
	case <-o.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.result:
		return err
	case <-o.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) submit(req *http.Request, intent Intent) {
	handle := o.transport.Submit(req)
	o.registry.Register(handle, intent)
	o.metrics.submitted(intent, o.registry.Len())
	log.Debugf("submitted request %s for %s", handle, intent)
}

func (o *Orchestrator) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if err := o.bus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Errorf("failed to publish %s: %v", eventType, err)
	}
}
