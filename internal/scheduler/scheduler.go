package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/calsync/internal/config"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type FreshSyncStarter interface {
	StartFreshSync(ctx context.Context) (uuid.UUID, error)
}

// Scheduler starts a fresh sync on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	starter  FreshSyncStarter
}

func New(cfg config.Sync, starter FreshSyncStarter) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		schedule: cfg.Schedule,
		starter:  starter,
	}
}

// Start blocks until ctx is done and waits for a running trigger before returning.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.triggerFreshSync(ctx) }); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.Infof("sync scheduler started with schedule %q", s.schedule)

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	log.Info("sync scheduler stopped")
	return nil
}

func (s *Scheduler) triggerFreshSync(ctx context.Context) {
	runID, err := s.starter.StartFreshSync(ctx)
	if err != nil {
		log.Errorf("scheduled fresh sync could not be started: %v", err)
		return
	}
	log.Infof("scheduled fresh sync %s started", runID)
}
