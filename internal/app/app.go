package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/calsync/internal/config"
	"github.com/klokku/calsync/internal/database"
	"github.com/klokku/calsync/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

var ErrFreshSyncListFailed = errors.New("calendar list could not be fetched")

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg    config.Application
	db     *pgxpool.Pool
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication loads configuration from configPath, migrates the database and
// builds all dependencies.
func NewApplication(ctx context.Context, configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(cfg.Database); err != nil {
		db.Close()
		return nil, err
	}

	deps := BuildDependencies(ctx, db, cfg, configPath)
	return newApplication(cfg, db, deps), nil
}

func newApplication(cfg config.Application, db *pgxpool.Pool, deps *Dependencies) *Application {
	r := mux.NewRouter()
	SetupMiddleware(r)
	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Listen,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, deps: deps, router: r, srv: srv}
}

// Serve runs the sync orchestrator, the sync schedule when enabled and the HTTP
// server until ctx is done or one of them fails.
func (a *Application) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.deps.Orchestrator.Run(ctx); err != nil {
			errCh <- fmt.Errorf("sync orchestrator: %w", err)
		}
	}()

	if a.cfg.Sync.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.deps.Scheduler.Start(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("failed to shut down HTTP server: %v", err)
	}
	cancel()
	wg.Wait()
	log.Info("Server stopped")
	return runErr
}

// SyncOnce runs one fresh sync and waits until it has finished or ctx is done.
func (a *Application) SyncOnce(ctx context.Context) (event_bus.FreshSyncCompleted, error) {
	return syncOnce(ctx, a.deps)
}

func syncOnce(ctx context.Context, deps *Dependencies) (event_bus.FreshSyncCompleted, error) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	// completions may be published before StartFreshSync returns the run id
	completions := make(chan event_bus.FreshSyncCompleted, 16)
	unsubscribe := event_bus.SubscribeTyped(deps.EventBus, event_bus.FreshSyncCompletedType,
		func(e event_bus.EventT[event_bus.FreshSyncCompleted]) error {
			select {
			case completions <- e.Data:
			default:
			}
			return nil
		})
	defer unsubscribe()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := deps.Orchestrator.Run(ctx); err != nil {
			log.Errorf("sync orchestrator: %v", err)
		}
	}()

	runID, err := deps.Orchestrator.StartFreshSync(ctx)
	if err != nil {
		return event_bus.FreshSyncCompleted{}, fmt.Errorf("failed to start fresh sync: %w", err)
	}

	for {
		select {
		case completed := <-completions:
			if completed.RunID != runID {
				continue
			}
			if completed.ListFailed {
				return completed, ErrFreshSyncListFailed
			}
			return completed, nil
		case <-ctx.Done():
			return event_bus.FreshSyncCompleted{}, fmt.Errorf("fresh sync %s did not finish: %w", runID, ctx.Err())
		}
	}
}

func (a *Application) Close() {
	a.deps.Importer.Close()
	if a.db != nil {
		a.db.Close()
	}
}
