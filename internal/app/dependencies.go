package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/calsync/internal/config"
	"github.com/klokku/calsync/internal/event_bus"
	"github.com/klokku/calsync/internal/scheduler"
	"github.com/klokku/calsync/internal/transport"
	"github.com/klokku/calsync/internal/utils"
	"github.com/klokku/calsync/pkg/calendar"
	"github.com/klokku/calsync/pkg/calendar_import"
	"github.com/klokku/calsync/pkg/google"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock           utils.Clock
	EventBus        *event_bus.EventBus
	MetricsRegistry *prometheus.Registry

	CalendarRepository calendar.Repository
	CalendarService    *calendar.Service
	CalendarHandler    *calendar.Handler
	Importer           *calendar_import.Importer

	Transport    transport.Transport
	Credentials  google.CredentialSource
	SyncMetrics  *google.Metrics
	Orchestrator *google.Orchestrator
	SyncHandler  *google.Handler
	Scheduler    *scheduler.Scheduler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(ctx context.Context, db *pgxpool.Pool, cfg config.Application, configPath string) *Dependencies {
	return buildDependencies(ctx, calendar.NewRepository(db), transport.NewHTTPTransport(&http.Client{
		Timeout: cfg.Google.RequestTimeout,
	}), cfg, configPath)
}

func buildDependencies(ctx context.Context, repo calendar.Repository, t transport.Transport, cfg config.Application, configPath string) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()
	deps.MetricsRegistry = prometheus.NewRegistry()
	deps.MetricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps.CalendarRepository = repo
	deps.CalendarService = calendar.NewService(deps.CalendarRepository)
	deps.CalendarHandler = calendar.NewHandler(deps.CalendarService, calendar.NewIcsRenderer())
	deps.Importer = calendar_import.NewImporter(deps.CalendarService)
	deps.Importer.Subscribe(deps.EventBus)

	deps.Transport = t
	deps.Credentials = google.NewCredentialSource(ctx, cfg.Google, configPath)
	deps.SyncMetrics = google.NewMetrics(deps.MetricsRegistry)
	deps.Orchestrator = google.NewOrchestrator(
		deps.Transport,
		deps.Credentials,
		google.NewEndpoints(cfg.Google),
		deps.EventBus,
		deps.SyncMetrics,
		deps.Clock,
	)
	deps.SyncHandler = google.NewHandler(deps.Orchestrator)
	deps.Scheduler = scheduler.New(cfg.Sync, deps.Orchestrator)

	return deps
}
