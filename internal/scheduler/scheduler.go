package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/meterhub/forecastd/internal/ingest"
)

// Scheduler periodically syncs sensor snapshots from the upstream
// source into the state store.
type Scheduler struct {
	ctx      context.Context
	ingestor *ingest.Ingestor
	logger   *logrus.Logger
	cron     *cron.Cron
	spec     string
}

func NewScheduler(ctx context.Context, ingestor *ingest.Ingestor, spec string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		ctx:      ctx,
		ingestor: ingestor,
		logger:   logger,
		cron:     cron.New(),
		spec:     spec,
	}
}

// Start registers the sync job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.sync)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// sync runs one bounded ingestion pass.
func (s *Scheduler) sync() {
	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Minute)
	defer cancel()

	if _, err := s.ingestor.Sync(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to sync sensor states")
	}
}

// Stop the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
